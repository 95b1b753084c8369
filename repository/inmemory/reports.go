package storage

import (
	"context"
	"sort"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

func (s *Storage) UpsertReport(_ context.Context, report *models.DailyReport) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[report.UserID]
	if !ok {
		return false, errors.ErrMissingRef
	}
	report.UserName = user.Name
	report.Designation = user.Designation

	key := reportKey{userID: report.UserID, date: report.ReportDate}
	if existing, ok := s.reports[key]; ok {
		existing.Summary = report.Summary
		existing.UpdatedAt = report.UpdatedAt
		s.reports[key] = existing
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
		return false, nil
	}

	stored := *report
	stored.UserName = ""
	stored.Designation = nil
	s.reports[key] = stored
	return true, nil
}

func (s *Storage) HasReport(_ context.Context, userID, date string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.reports[reportKey{userID: userID, date: date}]
	return ok, nil
}

func (s *Storage) ListReports(_ context.Context, filter models.ReportFilter) ([]models.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := []models.DailyReport{}
	for key, r := range s.reports {
		if filter.Date != "" && key.date != filter.Date {
			continue
		}
		if filter.UserID != "" && key.userID != filter.UserID {
			continue
		}
		if user, ok := s.users[key.userID]; ok {
			r.UserName = user.Name
			r.Designation = user.Designation
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].ReportDate != reports[j].ReportDate {
			return reports[i].ReportDate > reports[j].ReportDate
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (s *Storage) StaffSummary(_ context.Context) ([]models.StaffReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := []models.StaffReportSummary{}
	for _, user := range s.users {
		if user.Role != models.RoleStaff {
			continue
		}
		row := models.StaffReportSummary{
			ID:          user.ID,
			Name:        user.Name,
			Email:       user.Email,
			Designation: user.Designation,
		}
		for key := range s.reports {
			if key.userID != user.ID {
				continue
			}
			row.TotalReports++
			if row.LastReportDate == nil || key.date > *row.LastReportDate {
				d := key.date
				row.LastReportDate = &d
			}
		}
		summary = append(summary, row)
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Name != summary[j].Name {
			return summary[i].Name < summary[j].Name
		}
		return summary[i].ID < summary[j].ID
	})
	return summary, nil
}
