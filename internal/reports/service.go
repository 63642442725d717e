package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
	"fieldverify/verification-portal-backend/internal/tasks"
)

const (
	dateLayout    = "02/01/2006"
	dueDateLayout = "02 Jan 2006"

	defaultRecentLimit = 5
	defaultCityLimit   = 5
)

// Service produces the report views. Every view is scoped to the tasks the
// caller delegated (edges with assignedBy = caller) unless the caller is the
// master account, which sees everything.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// scope resolves the caller's visible task set. nil means unscoped.
func (s *Service) scope(ctx context.Context, p auth.Principal) ([]primitive.ObjectID, error) {
	if p.IsMaster() {
		return nil, nil
	}
	ids, err := s.repo.ManagedTaskIDs(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	return ids, nil
}

// GenerateReport builds the flattened export rows. Admin tier only.
func (s *Service) GenerateReport(ctx context.Context, p auth.Principal, filter Filter) ([]ReportRow, error) {
	if !p.IsAdminTier() {
		return nil, fmt.Errorf("generate report: %w", apperrors.ErrPermissionDenied)
	}
	scope, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	joined, err := s.repo.FindJoined(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	rows := make([]ReportRow, 0, len(joined))
	for i := range joined {
		rows = append(rows, flatten(&joined[i]))
	}
	return rows, nil
}

// PreviousRecordsSummary lists the most recent records by due date.
func (s *Service) PreviousRecordsSummary(ctx context.Context, p auth.Principal, limit int) ([]RecentRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	scope, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentTasks(ctx, scope, limit)
	if err != nil {
		return nil, err
	}
	records := make([]RecentRecord, 0, len(recent))
	for _, t := range recent {
		records = append(records, RecentRecord{
			Name:             t.ApplicantName,
			Status:           strings.ToLower(string(t.Status)),
			DueDate:          t.DueDate.Format(dueDateLayout),
			VerificationType: string(t.VerificationType),
		})
	}
	return records, nil
}

// CityBasedSummary returns the verified-vs-total ratio per city, cities in
// alphabetical order, percentage rounded to two decimals.
func (s *Service) CityBasedSummary(ctx context.Context, p auth.Principal, limit int) ([]CitySummary, error) {
	if limit <= 0 {
		limit = defaultCityLimit
	}
	scope, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.CityGroups(ctx, scope)
	if err != nil {
		return nil, err
	}
	summaries := make([]CitySummary, 0, len(groups))
	for _, g := range groups {
		percentage := "0.00"
		if g.Total > 0 {
			percentage = fmt.Sprintf("%.2f", float64(g.Verified)/float64(g.Total)*100)
		}
		summaries = append(summaries, CitySummary{
			City:               g.City,
			Verified:           g.Verified,
			Total:              g.Total,
			VerifiedPercentage: percentage,
		})
	}
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// MonthlyReport returns completed counts per month of the given year, months
// in calendar order, only months with completions present.
func (s *Service) MonthlyReport(ctx context.Context, p auth.Principal, year int) ([]MonthlyCount, error) {
	if year <= 0 {
		year = time.Now().UTC().Year()
	}
	scope, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CompletedByMonth(ctx, scope, year)
	if err != nil {
		return nil, err
	}
	months := make([]int, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Ints(months)
	series := make([]MonthlyCount, 0, len(months))
	for _, m := range months {
		series = append(series, MonthlyCount{Month: time.Month(m).String(), Count: counts[m]})
	}
	return series, nil
}

// MonthReport returns the status distribution of tasks due in the given
// month.
func (s *Service) MonthReport(ctx context.Context, p auth.Principal, month, year int) ([]StatusCount, error) {
	now := time.Now().UTC()
	if year <= 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	scope, err := s.scope(ctx, p)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.StatusCounts(ctx, scope, &from, &to)
	if err != nil {
		return nil, err
	}
	return sortedStatusCounts(counts), nil
}

// Summary returns the overall status buckets: verified=completed,
// notStarted=pending, reKYCRequired=rejected-under-review.
func (s *Service) Summary(ctx context.Context, p auth.Principal) (Summary, error) {
	scope, err := s.scope(ctx, p)
	if err != nil {
		return Summary{}, err
	}
	counts, err := s.repo.StatusCounts(ctx, scope, nil, nil)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{}
	for status, count := range counts {
		summary.Total += count
		switch status {
		case tasks.StatusCompleted:
			summary.Verified = count
		case tasks.StatusPending:
			summary.NotStarted = count
		case tasks.StatusRejectedUnderReview:
			summary.ReKYCRequired = count
		}
	}
	return summary, nil
}

func sortedStatusCounts(counts map[tasks.TaskStatus]int) []StatusCount {
	out := make([]StatusCount, 0, len(counts))
	for status, count := range counts {
		out = append(out, StatusCount{Status: status, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

// flatten maps one joined task to its report row.
func flatten(j *joinedTask) ReportRow {
	row := ReportRow{
		ID:              j.ID,
		ApplicationNo:   orAbsent(j.ApplicationNo),
		City:            orAbsent(j.City),
		ReceivedDate:    absent,
		ApplicantName:   absent,
		CoApplicantName: absent,
		PhoneNumbers:    absent,
		DOB:             absent,
		BusinessName:    absent,
		Posted:          absent,
		BankName:        absent,
		Address:         absent,
	}

	switch j.VerificationType {
	case tasks.TypeBusiness:
		row.VerificationType = "Business"
	case tasks.TypeNonBusiness:
		row.VerificationType = "Service"
	default:
		row.VerificationType = "Pensioner"
	}

	if len(j.Cover) > 0 {
		cover := j.Cover[0]
		row.ApplicantName = orAbsent(cover.ApplicantName)
		row.CoApplicantName = orAbsent(cover.CoApplicantName)
		row.PhoneNumbers = orAbsent(cover.Telephone)
		row.Address = orAbsent(cover.Residence)
		if !cover.DateOfApplication.IsZero() {
			row.ReceivedDate = cover.DateOfApplication.Format(dateLayout)
		}
		if !cover.ApplicantDOB.IsZero() {
			row.DOB = cover.ApplicantDOB.Format(dateLayout)
		}
	}

	switch j.VerificationType {
	case tasks.TypeNRI:
		row.BusinessName = "Pensioner"
		row.Posted = "Pensioner"
	case tasks.TypeBusiness:
		if len(j.Businesses) > 0 {
			business := j.Businesses[0]
			row.BusinessName = orAbsent(business.BusinessDetails.CompanyName) + " / " +
				orAbsent(business.BusinessDetails.Designation)
			row.Posted = orAbsent(business.OfficeAddress)
		}
	default:
		if len(j.Employments) > 0 {
			employment := j.Employments[0]
			row.BusinessName = orAbsent(employment.EmploymentDetails.OrganizationName) + " / " +
				orAbsent(employment.Designation)
			row.Posted = orAbsent(employment.OfficeAddress)
		}
	}

	if len(j.Banks) > 0 {
		row.BankName = orAbsent(j.Banks[0].Applicant.BankName)
		row.Status.BankVerification = orAbsent(j.Banks[0].Applicant.Remarks)
	}
	if len(j.Teles) > 0 {
		row.Status.TeleVerification = orAbsent(j.Teles[0].VerificationResult)
	}
	if len(j.Residences) > 0 {
		row.Status.ResidenceVerification = orAbsent(j.Residences[0].Remarks)
	}
	if len(j.Employments) > 0 {
		row.Status.EmploymentVerification = orAbsent(j.Employments[0].OfficeRemarks)
	}
	if len(j.Businesses) > 0 {
		row.Status.BusinessVerification = orAbsent(j.Businesses[0].Recommended)
	}

	return row
}

func orAbsent(s string) string {
	if s == "" {
		return absent
	}
	return s
}
