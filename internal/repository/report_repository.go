package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/payments-service/internal/model"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListPaidJobs returns paid jobs whose paid_at falls inside the window.
func (r *ReportRepository) ListPaidJobs(ctx context.Context, window model.PaymentWindow) ([]model.PaidJob, error) {
	upper := "<="
	if window.ToExclusive {
		upper = "<"
	}

	rows := []model.PaidJob{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			j.id,
			j.price,
			j.paid_at,
			c.client_id,
			c.contractor_id
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid = ?
			AND j.paid_at >= ?
			AND j.paid_at `+upper+` ?
		ORDER BY j.id ASC
	`, true, window.From.UTC(), window.To.UTC()).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepository) ListProfilesByIDs(ctx context.Context, ids []int64) ([]model.Profile, error) {
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}
	profiles := []model.Profile{}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}
