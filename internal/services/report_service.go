package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

type ReportService struct {
	logger  zerolog.Logger
	reports ReportRepository
	now     func() time.Time
}

func NewReportService(logger zerolog.Logger, reports ReportRepository, now func() time.Time) *ReportService {
	return &ReportService{
		logger:  logger,
		reports: reports,
		now:     now,
	}
}

// SubmitReport stores the caller's report for date, today when empty,
// replacing the summary of an existing one. created is false on replace.
func (s *ReportService) SubmitReport(ctx context.Context, caller models.Identity, summary, date string) (report *models.DailyReport, created bool, err error) {
	switch caller.Role {
	case models.RoleAdmin, models.RoleStaff:
	default:
		return nil, false, errors.ErrForbidden
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, false, errors.ErrSummaryRequired
	}
	now := s.now()
	if date == "" {
		date = now.Format(models.DateLayout)
	} else if !models.ValidDate(date) {
		return nil, false, errors.ErrInvalidReportDate
	}

	report = &models.DailyReport{
		ID:         uuid.NewString(),
		UserID:     caller.ID,
		UserName:   caller.Name,
		ReportDate: date,
		Summary:    summary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err = s.reports.UpsertReport(ctx, report)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", caller.ID).
			Msg("failed to submit report")
		return nil, false, err
	}
	s.logger.Info().
		Str("user_id", caller.ID).
		Str("report_date", date).
		Bool("created", created).
		Msg("daily report submitted")
	return report, created, nil
}

func (s *ReportService) CheckSubmittedToday(ctx context.Context, caller models.Identity) (bool, error) {
	return s.reports.HasReport(ctx, caller.ID, s.now().Format(models.DateLayout))
}

// ListReports returns every report matching filter for admins and only the
// caller's own reports for staff.
func (s *ReportService) ListReports(ctx context.Context, caller models.Identity, filter models.ReportFilter) ([]models.DailyReport, error) {
	if filter.Date != "" && !models.ValidDate(filter.Date) {
		return nil, errors.ErrInvalidReportDate
	}
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleStaff:
		filter = models.ReportFilter{UserID: caller.ID}
	default:
		return nil, errors.ErrForbidden
	}
	return s.reports.ListReports(ctx, filter)
}

func (s *ReportService) StaffSummary(ctx context.Context, caller models.Identity) ([]models.StaffReportSummary, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.reports.StaffSummary(ctx)
}
