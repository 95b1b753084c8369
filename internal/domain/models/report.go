package models

import "time"

// DateLayout is the wire and storage form of a report date.
const DateLayout = time.DateOnly

type DailyReport struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	Designation *string   `json:"designation,omitempty"`
	ReportDate  string    `json:"report_date"`
	Summary     string    `json:"summary"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReportFilter struct {
	Date   string
	UserID string
}

type StaffReportSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Designation    *string `json:"designation"`
	TotalReports   int     `json:"total_reports"`
	LastReportDate *string `json:"last_report_date"`
}

func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

type SubmitReportRequest struct {
	Summary    string `json:"summary" validate:"required,max=10000"`
	ReportDate string `json:"report_date"`
}
