package services

import (
	"context"
	"time"

	"taskdesk/internal/domain/models"
	"taskdesk/internal/notify"
)

type UserRepository interface {
	// CreateUser stores a new user. It returns errors.ErrEmailInUse when the
	// email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUsersByIDs returns the users that exist among ids, in no particular order.
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	// DeleteUser removes the user together with their assignments, updates
	// and reports.
	DeleteUser(ctx context.Context, id string) error
}

type TaskRepository interface {
	// CreateTask inserts the task and one assignment per id atomically.
	CreateTask(ctx context.Context, task *models.Task, assignees []string) error
	// ListTasks returns tasks with creator name, assignees and latest
	// comment populated, in list order.
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	// ListTaskUpdates returns the task history, newest first.
	ListTaskUpdates(ctx context.Context, taskID string) ([]models.TaskUpdate, error)
	// UpdateTaskStatus sets the status and appends update in one transaction.
	// It fails with errors.ErrNotAssignedToTask when update.UserID is not
	// assigned to the task.
	UpdateTaskStatus(ctx context.Context, update models.TaskUpdate) (*models.Task, error)
	// UpdateTask applies patch in one transaction and returns the task and
	// the assignee ids held before the patch.
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch, now time.Time) (*models.Task, []string, error)
	DeleteTask(ctx context.Context, id string) error
}

type A3Repository interface {
	CreateA3Item(ctx context.Context, item *models.A3Item, assignees []string) error
	// ListA3Items returns items newest first.
	ListA3Items(ctx context.Context, filter models.A3Filter) ([]models.A3Item, error)
	GetA3Item(ctx context.Context, id string) (*models.A3Item, error)
	// UpdateA3Status moves an item assigned to userID to status. It fails
	// with errors.ErrNotAssignedToA3 otherwise.
	UpdateA3Status(ctx context.Context, id, userID string, status models.A3Status, comment *string, now time.Time) (*models.A3Item, error)
	UpdateA3Item(ctx context.Context, id string, patch models.A3Patch, now time.Time) (*models.A3Item, []string, error)
	DeleteA3Item(ctx context.Context, id string) error
}

type ReportRepository interface {
	// UpsertReport stores report keyed by (user, date) and reports whether a
	// new row was created. ID and timestamps are filled from the stored row.
	UpsertReport(ctx context.Context, report *models.DailyReport) (bool, error)
	HasReport(ctx context.Context, userID, date string) (bool, error)
	// ListReports returns reports newest date first.
	ListReports(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, error)
	// StaffSummary returns one row per staff user ordered by name.
	StaffSummary(ctx context.Context) ([]models.StaffReportSummary, error)
}

// Notifier accepts messages for best-effort delivery. It must not block.
type Notifier interface {
	Notify(msg notify.Message)
}

// Clock returns the current time in loc.
func Clock(loc *time.Location) func() time.Time {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}
