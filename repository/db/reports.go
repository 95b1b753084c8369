package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

func parseReportDate(date string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return time.Time{}, errors.ErrInvalidReportDate
	}
	return t, nil
}

func (s *Storage) UpsertReport(ctx context.Context, report *models.DailyReport) (bool, error) {
	date, err := parseReportDate(report.ReportDate)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// xmax is zero only for a freshly inserted row.
	const upsertReportQuery = `
INSERT INTO daily_reports (id, user_id, report_date, summary, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (user_id, report_date) DO UPDATE
SET summary = EXCLUDED.summary,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
`
	var created bool
	err = s.pool.QueryRow(
		ctx,
		upsertReportQuery,
		report.ID,
		report.UserID,
		date,
		report.Summary,
		report.UpdatedAt,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt, &created)
	if err != nil {
		if pgCode(err) == pgerrcode.ForeignKeyViolation {
			return false, errors.ErrMissingRef
		}
		return false, fmt.Errorf("upsert report: %w", err)
	}
	return created, nil
}

func (s *Storage) HasReport(ctx context.Context, userID, date string) (bool, error) {
	day, err := parseReportDate(date)
	if err != nil {
		return false, err
	}
	if !validID(userID) {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err = s.pool.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM daily_reports WHERE user_id = $1 AND report_date = $2)`,
		userID,
		day,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check report: %w", err)
	}
	return exists, nil
}

func (s *Storage) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, error) {
	var (
		date   *time.Time
		userID *string
	)
	if filter.Date != "" {
		d, err := parseReportDate(filter.Date)
		if err != nil {
			return nil, err
		}
		date = &d
	}
	if filter.UserID != "" {
		if !validID(filter.UserID) {
			return []models.DailyReport{}, nil
		}
		userID = &filter.UserID
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const selectReportsQuery = `
SELECT dr.id,
       dr.user_id,
       u.name,
       u.designation,
       dr.report_date::text,
       dr.summary,
       dr.created_at,
       dr.updated_at
FROM daily_reports dr
JOIN users u ON u.id = dr.user_id
WHERE ($1::date IS NULL OR dr.report_date = $1)
  AND ($2::uuid IS NULL OR dr.user_id = $2)
ORDER BY dr.report_date DESC, dr.created_at DESC
`
	rows, err := s.pool.Query(ctx, selectReportsQuery, date, userID)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	reports, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.DailyReport])
	if err != nil {
		return nil, fmt.Errorf("collect reports: %w", err)
	}
	return reports, nil
}

func (s *Storage) StaffSummary(ctx context.Context) ([]models.StaffReportSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const staffSummaryQuery = `
SELECT u.id,
       u.name,
       u.email,
       u.designation,
       COUNT(dr.id)::int AS total_reports,
       MAX(dr.report_date)::text AS last_report_date
FROM users u
LEFT JOIN daily_reports dr ON dr.user_id = u.id
WHERE u.role = 'STAFF'
GROUP BY u.id, u.name, u.email, u.designation
ORDER BY u.name, u.id
`
	rows, err := s.pool.Query(ctx, staffSummaryQuery)
	if err != nil {
		return nil, fmt.Errorf("select staff summary: %w", err)
	}
	summary, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.StaffReportSummary])
	if err != nil {
		return nil, fmt.Errorf("collect staff summary: %w", err)
	}
	return summary, nil
}
