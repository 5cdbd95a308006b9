package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/payments-service/internal/model"
	"github.com/nurpe/payments-service/internal/repository"
)

type ReceiptGenerator interface {
	Generate(receipt model.JobReceipt) ([]byte, error)
}

type PaymentService struct {
	repo    *repository.LedgerRepository
	receipt ReceiptGenerator
	log     zerolog.Logger
	now     func() time.Time
}

type ReceiptResult struct {
	FileName string
	Content  []byte
}

func NewPaymentService(repo *repository.LedgerRepository, receipt ReceiptGenerator, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		repo:    repo,
		receipt: receipt,
		log:     log,
		now:     time.Now,
	}
}

// PayJob settles an unpaid job of the caller: the client is debited, the
// contractor credited and the job marked paid in one transaction. A job that
// does not exist, is already paid or belongs to another client yields
// ErrNotFound.
func (s *PaymentService) PayJob(ctx context.Context, jobID int64, principal model.Principal) error {
	if jobID <= 0 {
		return ErrNotFound
	}
	paidAt := s.now().UTC()

	var settled model.PayableJob
	err := s.repo.WithTx(ctx, func(tx *repository.LedgerRepository) error {
		job, err := tx.GetUnpaidJobForClient(ctx, jobID, principal.ProfileID)
		if err != nil {
			return translate(err)
		}
		if !CanPayJob(principal.ProfileID, *job) {
			return ErrNotFound
		}

		profiles, err := tx.LockProfiles(ctx, job.ClientID, job.ContractorID)
		if err != nil {
			return err
		}
		client, ok := findProfile(profiles, job.ClientID)
		if !ok || !client.IsClient() {
			return ErrNotFound
		}
		if contractor, ok := findProfile(profiles, job.ContractorID); !ok || !contractor.IsContractor() {
			return ErrNotFound
		}
		if client.Balance < job.Price {
			return ErrInsufficientFunds
		}

		flipped, err := tx.MarkJobPaid(ctx, job.ID, paidAt)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrNotFound
		}
		debited, err := tx.DebitBalance(ctx, job.ClientID, job.Price)
		if err != nil {
			return err
		}
		if !debited {
			return ErrInsufficientFunds
		}
		if err := tx.CreditBalance(ctx, job.ContractorID, job.Price); err != nil {
			return fmt.Errorf("credit contractor %d: %w", job.ContractorID, err)
		}

		settled = *job
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Int64("job_id", settled.ID).
		Int64("client_id", settled.ClientID).
		Int64("contractor_id", settled.ContractorID).
		Int64("amount", settled.Price).
		Msg("job paid")
	return nil
}

// Deposit credits the caller's own balance. Only clients deposit. The amount
// may not exceed a quarter of the caller's outstanding unpaid jobs; with
// nothing outstanding every deposit is refused.
func (s *PaymentService) Deposit(ctx context.Context, clientID, amount int64, principal model.Principal) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if clientID != principal.ProfileID || !principal.IsClient() {
		return ErrNotFound
	}

	var outstanding int64
	err := s.repo.WithTx(ctx, func(tx *repository.LedgerRepository) error {
		profiles, err := tx.LockProfiles(ctx, clientID)
		if err != nil {
			return err
		}
		if profile, ok := findProfile(profiles, clientID); !ok || !profile.IsClient() {
			return ErrNotFound
		}

		outstanding, err = tx.SumUnpaidForClient(ctx, clientID)
		if err != nil {
			return err
		}
		// floor(outstanding/4) keeps the comparison exact for integer amounts.
		if amount > outstanding/4 {
			return fmt.Errorf("%w: requested %d, outstanding %d", ErrDepositCapExceeded, amount, outstanding)
		}
		return tx.CreditBalance(ctx, clientID, amount)
	})
	if err != nil {
		return translate(err)
	}

	s.log.Info().
		Int64("client_id", clientID).
		Int64("amount", amount).
		Int64("outstanding", outstanding).
		Msg("deposit accepted")
	return nil
}

// Receipt renders the receipt of a paid job the caller is a party to.
func (s *PaymentService) Receipt(ctx context.Context, jobID int64, principal model.Principal) (*ReceiptResult, error) {
	receipt, err := s.repo.GetPaidJobReceipt(ctx, jobID, principal.ProfileID)
	if err != nil {
		return nil, translate(err)
	}
	if !CanAccessContract(principal.ProfileID, receipt.Contract) {
		return nil, ErrNotFound
	}

	content, err := s.receipt.Generate(*receipt)
	if err != nil {
		return nil, err
	}
	return &ReceiptResult{
		FileName: fmt.Sprintf("receipt-job-%d.pdf", receipt.Job.ID),
		Content:  content,
	}, nil
}

func findProfile(profiles []model.Profile, id int64) (model.Profile, bool) {
	for _, profile := range profiles {
		if profile.ID == id {
			return profile, true
		}
	}
	return model.Profile{}, false
}
