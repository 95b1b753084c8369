package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/auth"
	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
	"taskdesk/internal/notify"
	inmemory "taskdesk/repository/inmemory"
)

type spyNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *spyNotifier) Notify(msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *spyNotifier) recipients(kind notify.Kind) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var to []string
	for _, msg := range n.sent {
		if msg.Kind == kind {
			to = append(to, msg.To)
		}
	}
	return to
}

func (n *spyNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

type fixture struct {
	store    *inmemory.Storage
	notifier *spyNotifier
	now      time.Time

	tasks   *TaskService
	a3      *A3Service
	reports *ReportService
	users   *UserService
	auth    *AuthService

	admin  models.Identity
	staff1 models.Identity
	staff2 models.Identity
	staff3 models.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    inmemory.NewStorage(),
		notifier: &spyNotifier{},
		now:      time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	logger := zerolog.Nop()
	templates := notify.NewTemplates("")

	f.tasks = NewTaskService(logger, f.store, f.store, f.notifier, templates, clock)
	f.a3 = NewA3Service(logger, f.store, f.store, f.notifier, templates, clock)
	f.reports = NewReportService(logger, f.store, clock)
	f.users = NewUserService(logger, f.store, f.notifier, templates, clock)
	f.auth = NewAuthService(logger, f.store, auth.NewTokenManager("test-secret", time.Hour, "taskdesk"))

	ctx := context.Background()
	created, err := f.users.EnsureAdmin(ctx, "Ada Admin", "admin@example.com", "admin123")
	require.NoError(t, err)
	require.True(t, created)
	admin, err := f.store.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	f.admin = admin.Identity()

	f.staff1 = f.createStaff(t, "Sam One", "staff1@example.com")
	f.staff2 = f.createStaff(t, "Bea Two", "staff2@example.com")
	f.staff3 = f.createStaff(t, "Cy Three", "staff3@example.com")
	f.notifier.reset()
	return f
}

func (f *fixture) createStaff(t *testing.T, name, email string) models.Identity {
	t.Helper()
	user, err := f.users.CreateStaff(context.Background(), f.admin, models.CreateStaffRequest{
		Name: name, Email: email, Password: "secret1",
	})
	require.NoError(t, err)
	return user.Identity()
}

func (f *fixture) createTask(t *testing.T, title string, deadline time.Time, assignees ...models.Identity) *models.Task {
	t.Helper()
	ids := make([]string, len(assignees))
	for i, a := range assignees {
		ids[i] = a.ID
	}
	task, err := f.tasks.CreateTask(context.Background(), f.admin, models.CreateTaskRequest{
		Title:     title,
		Priority:  string(models.PriorityHigh),
		Deadline:  deadline.Format(time.RFC3339),
		Assignees: ids,
	})
	require.NoError(t, err)
	return task
}

func TestAuditTaskScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createTask(t, "Audit", f.now.Add(24*time.Hour), f.staff1)
	assert.Equal(t, []string{"staff1@example.com"}, f.notifier.recipients(notify.KindTaskAssigned))

	tasks, err := f.tasks.ListTasks(ctx, f.staff1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Audit", tasks[0].Title)
	assert.Equal(t, models.TaskPending, tasks[0].Status)

	err = f.tasks.UpdateTask(ctx, f.staff1, created.ID, models.UpdateTaskRequest{
		Status:  ptr("Completed"),
		Comment: ptr("done"),
	})
	require.NoError(t, err)

	detail, err := f.tasks.GetTask(ctx, f.staff1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, detail.Task.Status)
	require.Len(t, detail.Updates, 1)
	assert.Equal(t, "done", detail.Updates[0].Comment)
	assert.Equal(t, []string{"admin@example.com"}, f.notifier.recipients(notify.KindTaskCompleted))
}

func TestCreateTaskValidation(t *testing.T) {
	tomorrow := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)

	tests := []struct {
		name string
		req  func(f *fixture) models.CreateTaskRequest
		want error
	}{
		{
			name: "empty assignees",
			req: func(f *fixture) models.CreateTaskRequest {
				return models.CreateTaskRequest{Title: "T", Priority: "High", Deadline: tomorrow}
			},
			want: errors.ErrAssigneesRequired,
		},
		{
			name: "missing priority",
			req: func(f *fixture) models.CreateTaskRequest {
				return models.CreateTaskRequest{Title: "T", Deadline: tomorrow, Assignees: []string{f.staff1.ID}}
			},
			want: errors.ErrInvalidPriority,
		},
		{
			name: "missing deadline",
			req: func(f *fixture) models.CreateTaskRequest {
				return models.CreateTaskRequest{Title: "T", Priority: "Low", Assignees: []string{f.staff1.ID}}
			},
			want: errors.ErrInvalidDeadline,
		},
		{
			name: "blank title",
			req: func(f *fixture) models.CreateTaskRequest {
				return models.CreateTaskRequest{Title: "  ", Priority: "Low", Deadline: tomorrow, Assignees: []string{f.staff1.ID}}
			},
			want: errors.ErrInvalidTitle,
		},
		{
			name: "admin as assignee",
			req: func(f *fixture) models.CreateTaskRequest {
				return models.CreateTaskRequest{Title: "T", Priority: "Low", Deadline: tomorrow, Assignees: []string{f.admin.ID}}
			},
			want: errors.ErrInvalidAssignee,
		},
		{
			name: "unknown assignee",
			req: func(f *fixture) models.CreateTaskRequest {
				return models.CreateTaskRequest{Title: "T", Priority: "Low", Deadline: tomorrow, Assignees: []string{f.staff1.ID, "ghost"}}
			},
			want: errors.ErrInvalidAssignee,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			_, err := f.tasks.CreateTask(ctx, f.admin, tt.req(f))
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, errors.ErrValidationFailed)

			tasks, err := f.tasks.ListTasks(ctx, f.admin)
			require.NoError(t, err)
			assert.Empty(t, tasks)
			assert.Empty(t, f.notifier.recipients(notify.KindTaskAssigned))
		})
	}
}

func TestCreateTaskAssigneesReadBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.tasks.CreateTask(ctx, f.admin, models.CreateTaskRequest{
		Title:     "Inventory",
		Priority:  "Medium",
		Deadline:  "2026-05-10T09:00",
		Assignees: []string{f.staff2.ID, f.staff1.ID, f.staff2.ID},
	})
	require.NoError(t, err)

	detail, err := f.tasks.GetTask(ctx, f.admin, task.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.staff2.ID, f.staff1.ID}, models.RefIDs(detail.Task.Assignees))
	assert.Equal(t, 2, len(f.notifier.recipients(notify.KindTaskAssigned)))
	assert.Equal(t, time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC), detail.Task.Deadline)
}

func TestStaffOnlySeesAssignedTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.createTask(t, "Mine", f.now, f.staff1)
	other := f.createTask(t, "Other", f.now, f.staff2)
	f.createTask(t, "Shared", f.now, f.staff1, f.staff2)

	tasks, err := f.tasks.ListTasks(ctx, f.staff1)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.True(t, task.IsAssigned(f.staff1.ID))
	}

	all, err := f.tasks.ListTasks(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.tasks.GetTask(ctx, f.staff1, other.ID)
	assert.ErrorIs(t, err, errors.ErrForbidden)
	_, err = f.tasks.GetTask(ctx, f.staff1, mine.ID)
	assert.NoError(t, err)
	_, err = f.tasks.GetTask(ctx, f.staff1, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUpdateTaskAsStaff(t *testing.T) {
	tests := []struct {
		name    string
		caller  func(f *fixture) models.Identity
		status  string
		comment string
		want    error
	}{
		{name: "empty comment on completion", caller: func(f *fixture) models.Identity { return f.staff1 }, status: "Completed", comment: "", want: errors.ErrCommentRequired},
		{name: "blank comment on progress", caller: func(f *fixture) models.Identity { return f.staff1 }, status: "In Progress", comment: "   ", want: errors.ErrCommentRequired},
		{name: "invalid status", caller: func(f *fixture) models.Identity { return f.staff1 }, status: "Done", comment: "x", want: errors.ErrInvalidStatus},
		{name: "not assigned", caller: func(f *fixture) models.Identity { return f.staff2 }, status: "In Progress", comment: "x", want: errors.ErrNotAssignedToTask},
		{name: "admin is not staff", caller: func(f *fixture) models.Identity { return f.admin }, status: "In Progress", comment: "x", want: errors.ErrStaffOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			task := f.createTask(t, "Audit", f.now, f.staff1)

			err := f.tasks.UpdateTaskAsStaff(ctx, tt.caller(f), task.ID, tt.status, tt.comment)
			assert.ErrorIs(t, err, tt.want)

			detail, err := f.tasks.GetTask(ctx, f.admin, task.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TaskPending, detail.Task.Status)
			assert.Empty(t, detail.Updates)
		})
	}
}

func TestStaffCannotSendAdminFields(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Audit", f.now, f.staff1)

	err := f.tasks.UpdateTask(context.Background(), f.staff1, task.ID, models.UpdateTaskRequest{
		Status:  ptr("Completed"),
		Comment: ptr("done"),
		Title:   ptr("Renamed"),
	})
	assert.ErrorIs(t, err, errors.ErrForbidden)
}

func TestReassignmentNotifiesOnlyNewAssignees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Audit", f.now, f.staff1, f.staff2)
	f.notifier.reset()

	err := f.tasks.UpdateTask(ctx, f.admin, task.ID, models.UpdateTaskRequest{
		Assignees: &[]string{f.staff2.ID, f.staff3.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"staff3@example.com"}, f.notifier.recipients(notify.KindTaskAssigned))
	detail, err := f.tasks.GetTask(ctx, f.admin, task.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.staff2.ID, f.staff3.ID}, models.RefIDs(detail.Task.Assignees))
}

func TestUpdateTaskAsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Audit", f.now, f.staff1)

	err := f.tasks.UpdateTask(ctx, f.admin, task.ID, models.UpdateTaskRequest{Assignees: &[]string{}})
	assert.ErrorIs(t, err, errors.ErrAssigneesRequired)

	err = f.tasks.UpdateTask(ctx, f.admin, task.ID, models.UpdateTaskRequest{Priority: ptr("Urgent")})
	assert.ErrorIs(t, err, errors.ErrInvalidPriority)

	err = f.tasks.UpdateTask(ctx, f.admin, task.ID, models.UpdateTaskRequest{
		Description: ptr("quarterly"),
		Status:      ptr("Completed"),
	})
	require.NoError(t, err)

	detail, err := f.tasks.GetTask(ctx, f.admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Audit", detail.Task.Title)
	assert.Equal(t, "quarterly", detail.Task.Description)
	assert.Equal(t, models.TaskCompleted, detail.Task.Status)
	assert.NotNil(t, detail.Task.CompletedAt)
	assert.Empty(t, detail.Updates)

	err = f.tasks.UpdateTask(ctx, f.admin, "missing", models.UpdateTaskRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Empty(t, f.notifier.recipients(notify.KindTaskAssigned)[1:])
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Audit", f.now, f.staff1)
	require.NoError(t, f.tasks.UpdateTaskAsStaff(ctx, f.staff1, task.ID, "In Progress", "started"))

	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, f.staff1, task.ID), errors.ErrForbidden)
	require.NoError(t, f.tasks.DeleteTask(ctx, f.admin, task.ID))
	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, f.admin, task.ID), errors.ErrNotFound)

	updates, err := f.store.ListTaskUpdates(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, updates)
	tasks, err := f.tasks.ListTasks(ctx, f.staff1)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestOverviewStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createTask(t, "Upcoming", f.now.Add(24*time.Hour), f.staff1)
	done := f.createTask(t, "Done", f.now.Add(-48*time.Hour), f.staff1)
	f.createTask(t, "Late", f.now.Add(-24*time.Hour), f.staff1)
	require.NoError(t, f.tasks.UpdateTaskAsStaff(ctx, f.staff1, done.ID, "Completed", "finished"))

	stats, err := f.tasks.OverviewStats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStats{Total: 3, Pending: 2, Completed: 1, Overdue: 1}, *stats)

	_, err = f.tasks.OverviewStats(ctx, f.staff1)
	assert.ErrorIs(t, err, errors.ErrForbidden)
}

func TestOverdueUsesStartOfDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createTask(t, "Earlier today", f.now.Add(-2*time.Hour), f.staff1)

	stats, err := f.tasks.OverviewStats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Overdue)
}

func TestProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createTask(t, "A", f.now.Add(72*time.Hour), f.staff1)
	f.createTask(t, "B", f.now.Add(72*time.Hour), f.staff1)
	f.createTask(t, "C", f.now.Add(72*time.Hour), f.staff2)
	require.NoError(t, f.tasks.UpdateTaskAsStaff(ctx, f.staff1, a.ID, "Completed", "done early"))

	progress, err := f.tasks.Progress(ctx, f.staff1, f.staff2.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Total)
	assert.Equal(t, 50, progress.CompletionRate)
	assert.Equal(t, 2, progress.ByPriority.High)
	require.Len(t, progress.Last7Days, 7)
	assert.Equal(t, "2026-05-04", progress.Last7Days[6].Date)
	assert.Equal(t, 1, progress.Last7Days[6].Completed)
	assert.Equal(t, "2026-04-28", progress.Last7Days[0].Date)

	all, err := f.tasks.Progress(ctx, f.admin, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 33, all.CompletionRate)

	one, err := f.tasks.Progress(ctx, f.admin, f.staff2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, one.Total)
	assert.Equal(t, 0, one.CompletionRate)
}

func TestA3Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.a3.CreateItem(ctx, f.admin, models.CreateA3Request{Name: "Printer", Amount: decPtr("-1"), Assignees: []string{f.staff1.ID}})
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)
	_, err = f.a3.CreateItem(ctx, f.admin, models.CreateA3Request{Name: "Printer", Amount: decPtr("10")})
	assert.ErrorIs(t, err, errors.ErrAssigneesRequired)
	_, err = f.a3.CreateItem(ctx, f.staff1, models.CreateA3Request{Name: "Printer", Amount: decPtr("10"), Assignees: []string{f.staff1.ID}})
	assert.ErrorIs(t, err, errors.ErrForbidden)

	item, err := f.a3.CreateItem(ctx, f.admin, models.CreateA3Request{Name: "Printer", Amount: decPtr("249.999"), Assignees: []string{f.staff1.ID}})
	require.NoError(t, err)
	assert.Equal(t, "250", item.Amount.String())
	assert.Equal(t, []string{"staff1@example.com"}, f.notifier.recipients(notify.KindA3Assigned))

	items, err := f.a3.ListItems(ctx, f.staff2)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = f.a3.UpdateItem(ctx, f.staff1, item.ID, models.UpdateA3Request{Status: ptr("Completed")})
	assert.ErrorIs(t, err, errors.ErrA3CommentRequired)
	err = f.a3.UpdateItem(ctx, f.staff2, item.ID, models.UpdateA3Request{Status: ptr("Completed"), Comment: ptr("paid")})
	assert.ErrorIs(t, err, errors.ErrNotAssignedToA3)
	err = f.a3.UpdateItem(ctx, f.staff1, item.ID, models.UpdateA3Request{Amount: decPtr("1")})
	assert.ErrorIs(t, err, errors.ErrStaffFieldsOnly)

	require.NoError(t, f.a3.UpdateItem(ctx, f.staff1, item.ID, models.UpdateA3Request{Status: ptr("Completed"), Comment: ptr("paid")}))
	got, err := f.a3.GetItem(ctx, f.staff1, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.A3Completed, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, "paid", *got.Comment)
	assert.Equal(t, []string{"admin@example.com"}, f.notifier.recipients(notify.KindA3Completed))

	require.NoError(t, f.a3.UpdateItem(ctx, f.staff1, item.ID, models.UpdateA3Request{Status: ptr("Pending")}))
	got, err = f.a3.GetItem(ctx, f.admin, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.Comment)

	f.notifier.reset()
	require.NoError(t, f.a3.UpdateItem(ctx, f.admin, item.ID, models.UpdateA3Request{
		Name:      ptr("Laser printer"),
		Assignees: &[]string{f.staff1.ID, f.staff2.ID},
	}))
	assert.Equal(t, []string{"staff2@example.com"}, f.notifier.recipients(notify.KindA3Assigned))

	_, err = f.a3.GetItem(ctx, f.staff2, item.ID)
	require.NoError(t, err)

	require.NoError(t, f.a3.DeleteItem(ctx, f.admin, item.ID))
	_, err = f.a3.GetItem(ctx, f.admin, item.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSubmitReportUpserts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	submitted, err := f.reports.CheckSubmittedToday(ctx, f.staff1)
	require.NoError(t, err)
	assert.False(t, submitted)

	first, created, err := f.reports.SubmitReport(ctx, f.staff1, "wrote tests", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2026-05-04", first.ReportDate)

	second, created, err := f.reports.SubmitReport(ctx, f.staff1, "wrote more tests", "2026-05-04")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	reports, err := f.reports.ListReports(ctx, f.admin, models.ReportFilter{UserID: f.staff1.ID})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "wrote more tests", reports[0].Summary)

	submitted, err = f.reports.CheckSubmittedToday(ctx, f.staff1)
	require.NoError(t, err)
	assert.True(t, submitted)

	_, _, err = f.reports.SubmitReport(ctx, f.staff1, " ", "")
	assert.ErrorIs(t, err, errors.ErrSummaryRequired)
	_, _, err = f.reports.SubmitReport(ctx, f.staff1, "x", "05/04/2026")
	assert.ErrorIs(t, err, errors.ErrInvalidReportDate)
}

func TestListReportsScopesStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.reports.SubmitReport(ctx, f.staff1, "one", "2026-05-03")
	require.NoError(t, err)
	_, _, err = f.reports.SubmitReport(ctx, f.staff2, "two", "2026-05-03")
	require.NoError(t, err)

	own, err := f.reports.ListReports(ctx, f.staff1, models.ReportFilter{UserID: f.staff2.ID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.staff1.ID, own[0].UserID)

	byDate, err := f.reports.ListReports(ctx, f.admin, models.ReportFilter{Date: "2026-05-03"})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	summary, err := f.reports.StaffSummary(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, summary, 3)
	_, err = f.reports.StaffSummary(ctx, f.staff1)
	assert.ErrorIs(t, err, errors.ErrForbidden)
}

func TestUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.CreateStaff(ctx, f.admin, models.CreateStaffRequest{Name: "Dup", Email: "STAFF1@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, errors.ErrConflict)
	_, err = f.users.CreateStaff(ctx, f.admin, models.CreateStaffRequest{Name: "Short", Email: "short@example.com", Password: "abc"})
	assert.ErrorIs(t, err, errors.ErrInvalidPassword)
	_, err = f.users.CreateStaff(ctx, f.staff1, models.CreateStaffRequest{Name: "X", Email: "x@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, errors.ErrForbidden)

	user, err := f.users.CreateStaff(ctx, f.admin, models.CreateStaffRequest{Name: "Dee", Email: "dee@example.com", Password: "secret1", Designation: ptr("Clerk")})
	require.NoError(t, err)
	assert.Equal(t, []string{"dee@example.com"}, f.notifier.recipients(notify.KindWelcome))
	assert.Equal(t, "Clerk", *user.Designation)

	staff, err := f.users.ListStaff(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, staff, 4)
	all, err := f.users.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	assert.ErrorIs(t, f.users.DeleteUser(ctx, f.admin, f.admin.ID), errors.ErrForbidden)
	assert.ErrorIs(t, f.users.DeleteUser(ctx, f.admin, "ghost"), errors.ErrNotFound)

	task := f.createTask(t, "Audit", f.now, f.staff1, f.staff2)
	require.NoError(t, f.users.DeleteUser(ctx, f.admin, f.staff1.ID))
	detail, err := f.tasks.GetTask(ctx, f.admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.staff2.ID}, models.RefIDs(detail.Task.Assignees))

	created, err := f.users.EnsureAdmin(ctx, "Again", "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Login(ctx, " Staff1@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, f.staff1.ID, res.User.ID)

	id, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.staff1, id)

	_, err = f.auth.Login(ctx, "staff1@example.com", "wrong")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)

	_, err = f.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, errors.ErrMissingToken)
	_, err = f.auth.Authenticate(ctx, "junk")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)

	me, err := f.auth.Me(ctx, f.staff1)
	require.NoError(t, err)
	assert.Equal(t, "Sam One", me.Name)
}
