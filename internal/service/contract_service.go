package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/payments-service/internal/model"
	"github.com/nurpe/payments-service/internal/repository"
)

type ContractService struct {
	repo *repository.LedgerRepository
}

func NewContractService(repo *repository.LedgerRepository) *ContractService {
	return &ContractService{repo: repo}
}

// Principal resolves the profile presenting itself on a request.
func (s *ContractService) Principal(ctx context.Context, profileID int64) (model.Principal, error) {
	if profileID <= 0 {
		return model.Principal{}, ErrNotFound
	}
	profile, err := s.repo.GetProfile(ctx, profileID)
	if err != nil {
		return model.Principal{}, translate(err)
	}
	return model.Principal{ProfileID: profile.ID, Role: profile.Role}, nil
}

func (s *ContractService) GetProfile(ctx context.Context, profileID int64) (*model.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, profileID)
	if err != nil {
		return nil, translate(err)
	}
	return profile, nil
}

// GetContract returns ErrNotFound both for a missing contract and for one the
// caller is not a party to.
func (s *ContractService) GetContract(ctx context.Context, contractID int64, principal model.Principal) (*model.Contract, error) {
	contract, err := s.repo.GetContractForParty(ctx, contractID, principal.ProfileID)
	if err != nil {
		return nil, translate(err)
	}
	if !CanAccessContract(principal.ProfileID, *contract) {
		return nil, ErrNotFound
	}
	return contract, nil
}

func (s *ContractService) ListContracts(ctx context.Context, principal model.Principal, status *model.ContractStatus) ([]model.Contract, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown contract status %q", ErrInvalidInput, *status)
	}
	return s.repo.ListContractsForParty(ctx, principal.ProfileID, status)
}

func (s *ContractService) ListUnpaidJobs(ctx context.Context, principal model.Principal) ([]model.Job, error) {
	return s.repo.ListUnpaidJobsForParty(ctx, principal.ProfileID)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
