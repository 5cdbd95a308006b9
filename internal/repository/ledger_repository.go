package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/payments-service/internal/model"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithTx runs fn inside a single database transaction. The repository handed
// to fn is bound to that transaction; returning an error rolls everything back.
func (r *LedgerRepository) WithTx(ctx context.Context, fn func(tx *LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerRepository{db: tx})
	})
}

func (r *LedgerRepository) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// LockProfiles loads the given profiles holding a row lock until the
// surrounding transaction ends. Rows are locked in ascending id order so two
// transactions touching the same pair cannot deadlock.
func (r *LedgerRepository) LockProfiles(ctx context.Context, ids ...int64) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *LedgerRepository) GetContractForParty(ctx context.Context, contractID, profileID int64) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, terms, status, client_id, contractor_id, created_at, updated_at
		FROM contracts
		WHERE id = ?
			AND (client_id = ? OR contractor_id = ?)
		LIMIT 1
	`, contractID, profileID, profileID).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

func (r *LedgerRepository) ListContractsForParty(
	ctx context.Context,
	profileID int64,
	status *model.ContractStatus,
) ([]model.Contract, error) {
	query := `
		SELECT id, terms, status, client_id, contractor_id, created_at, updated_at
		FROM contracts
		WHERE (client_id = ? OR contractor_id = ?)
	`
	args := []interface{}{profileID, profileID}
	if status != nil {
		query += " AND status = ?"
		args = append(args, *status)
	}
	query += " ORDER BY id ASC"

	contracts := []model.Contract{}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *LedgerRepository) ListUnpaidJobsForParty(ctx context.Context, profileID int64) ([]model.Job, error) {
	jobs := []model.Job{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			j.id,
			j.description,
			j.price,
			j.paid,
			j.paid_at,
			j.contract_id,
			j.created_at,
			j.updated_at
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid = ?
			AND (c.client_id = ? OR c.contractor_id = ?)
		ORDER BY j.id ASC
	`, false, profileID, profileID).Scan(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetUnpaidJobForClient returns the job only while it is unpaid and the
// profile is the client of its contract.
func (r *LedgerRepository) GetUnpaidJobForClient(ctx context.Context, jobID, clientID int64) (*model.PayableJob, error) {
	var job model.PayableJob
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			j.id,
			j.price,
			j.contract_id,
			c.client_id,
			c.contractor_id
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.id = ?
			AND j.paid = ?
			AND c.client_id = ?
		LIMIT 1
	`, jobID, false, clientID).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &job, nil
}

// MarkJobPaid flips the paid flag only if it is still false. The boolean
// result reports whether this call performed the flip.
func (r *LedgerRepository) MarkJobPaid(ctx context.Context, jobID int64, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE jobs
		SET paid = ?, paid_at = ?, updated_at = ?
		WHERE id = ? AND paid = ?
	`, true, paidAt, paidAt, jobID, false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DebitBalance subtracts amount unless the balance would drop below it.
func (r *LedgerRepository) DebitBalance(ctx context.Context, profileID, amount int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ? AND balance >= ?", profileID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *LedgerRepository) CreditBalance(ctx context.Context, profileID, amount int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", profileID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LedgerRepository) SumUnpaidForClient(ctx context.Context, clientID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(j.price), 0)
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid = ?
			AND c.client_id = ?
	`, false, clientID).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// GetPaidJobReceipt loads a settled job with its contract and both parties,
// provided the profile is one of those parties.
func (r *LedgerRepository) GetPaidJobReceipt(ctx context.Context, jobID, profileID int64) (*model.JobReceipt, error) {
	var job model.Job
	err := r.db.WithContext(ctx).
		Preload("Contract.Client").
		Preload("Contract.Contractor").
		Joins("JOIN contracts c ON c.id = jobs.contract_id").
		Where("jobs.id = ? AND jobs.paid = ?", jobID, true).
		Where("(c.client_id = ? OR c.contractor_id = ?)", profileID, profileID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	if job.Contract == nil || job.Contract.Client == nil || job.Contract.Contractor == nil {
		return nil, gorm.ErrRecordNotFound
	}

	receipt := &model.JobReceipt{
		Job:        job,
		Contract:   *job.Contract,
		Client:     *job.Contract.Client,
		Contractor: *job.Contract.Contractor,
	}
	receipt.Job.Contract = nil
	receipt.Contract.Client = nil
	receipt.Contract.Contractor = nil
	return receipt, nil
}
