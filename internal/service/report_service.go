package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nurpe/payments-service/internal/model"
	"github.com/nurpe/payments-service/internal/repository"
)

type ExcelGenerator interface {
	Generate(report model.RankingReport) ([]byte, error)
}

type ReportService struct {
	repo  *repository.ReportRepository
	excel ExcelGenerator
}

type BestByAttributeInput struct {
	Role        model.ReportRole
	Attribute   model.ReportAttribute
	PeriodStart time.Time
	PeriodEnd   time.Time
	// Limit truncates the ranking; zero keeps every row.
	Limit int
	// WholeEndDay stretches the window to the end of PeriodEnd's calendar
	// day. Set when the end bound was given as a bare date.
	WholeEndDay bool
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func NewReportService(repo *repository.ReportRepository, excel ExcelGenerator) *ReportService {
	return &ReportService{repo: repo, excel: excel}
}

// BestByAttribute sums the price of jobs paid between PeriodStart and
// PeriodEnd inclusive, grouped by an attribute of the client or contractor
// profile, highest total first. Equal totals are ordered by ascending key.
func (s *ReportService) BestByAttribute(ctx context.Context, input BestByAttributeInput) (*model.RankingReport, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
	if !input.Attribute.Valid() {
		return nil, fmt.Errorf("%w: invalid attribute", ErrInvalidInput)
	}
	if input.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}

	periodStart := input.PeriodStart.UTC()
	periodEnd := input.PeriodEnd.UTC()
	if periodStart.After(periodEnd) {
		return nil, fmt.Errorf("%w: start must be before or equal to end", ErrInvalidInput)
	}

	window := model.PaymentWindow{From: periodStart, To: periodEnd}
	if input.WholeEndDay {
		window.To = dateOnly(periodEnd).Add(24 * time.Hour)
		window.ToExclusive = true
	}

	jobs, err := s.repo.ListPaidJobs(ctx, window)
	if err != nil {
		return nil, err
	}
	profiles, err := s.repo.ListProfilesByIDs(ctx, partyIDs(jobs, input.Role))
	if err != nil {
		return nil, err
	}

	rows := rankPayments(jobs, profiles, input.Role, input.Attribute)
	if input.Limit > 0 && len(rows) > input.Limit {
		rows = rows[:input.Limit]
	}

	return &model.RankingReport{
		Role:        input.Role,
		Attribute:   input.Attribute,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Rows:        rows,
	}, nil
}

// Export renders the same ranking as an xlsx workbook.
func (s *ReportService) Export(ctx context.Context, input BestByAttributeInput) (*ExportResult, error) {
	report, err := s.BestByAttribute(ctx, input)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(*report),
		Content:  content,
	}, nil
}

func rankPayments(
	jobs []model.PaidJob,
	profiles []model.Profile,
	role model.ReportRole,
	attribute model.ReportAttribute,
) []model.PaymentRanking {
	byID := make(map[int64]model.Profile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	totals := make(map[string]int64)
	for _, job := range jobs {
		profile, ok := byID[job.PartyID(role)]
		if !ok {
			continue
		}
		key, _ := attribute.Value(profile)
		totals[key] += job.Price
	}

	rows := make([]model.PaymentRanking, 0, len(totals))
	for key, amount := range totals {
		rows = append(rows, model.PaymentRanking{Key: key, AmountPaid: amount})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AmountPaid != rows[j].AmountPaid {
			return rows[i].AmountPaid > rows[j].AmountPaid
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func partyIDs(jobs []model.PaidJob, role model.ReportRole) []int64 {
	seen := make(map[int64]struct{}, len(jobs))
	ids := make([]int64, 0, len(jobs))
	for _, job := range jobs {
		id := job.PartyID(role)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func buildFileName(report model.RankingReport) string {
	period := fmt.Sprintf("%s-%s", report.PeriodStart.Format("20060102"), report.PeriodEnd.Format("20060102"))
	return fmt.Sprintf("best-%s-by-%s-%s.xlsx", report.Role, strings.ToLower(string(report.Attribute)), period)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
