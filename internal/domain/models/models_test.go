package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  struct {
			role  Role
			error bool
		}
	}{
		{
			name:  "admin",
			input: "ADMIN",
			want: struct {
				role  Role
				error bool
			}{role: RoleAdmin},
		},
		{
			name:  "staff",
			input: "STAFF",
			want: struct {
				role  Role
				error bool
			}{role: RoleStaff},
		},
		{
			name:  "lowercase is rejected",
			input: "admin",
			want: struct {
				role  Role
				error bool
			}{error: true},
		},
		{
			name:  "unknown role",
			input: "MANAGER",
			want: struct {
				role  Role
				error bool
			}{error: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			if tt.want.error {
				assert.Error(t, err)
				assert.False(t, role.Valid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.role, role)
			assert.Equal(t, tt.input, role.String())
		})
	}

	_, err := json.Marshal(User{Role: Role(0)})
	assert.Error(t, err)

	data, err := json.Marshal(User{ID: "u", Role: RoleStaff, PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"role":"STAFF"`)
	assert.NotContains(t, string(data), "hash")
}

func TestIDHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, UniqueIDs([]string{"a", "", "b", "a", "c", "b"}))
	assert.Empty(t, UniqueIDs(nil))
	assert.Equal(t, []string{"c"}, AddedIDs([]string{"b", "c"}, []string{"a", "b"}))
	assert.Empty(t, AddedIDs([]string{"a"}, []string{"a", "b"}))
	assert.Equal(t, []string{"x", "y"}, RefIDs([]UserRef{{ID: "x"}, {ID: "y"}}))
}

func TestTaskSetStatus(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	task := Task{Status: TaskPending}
	task.SetStatus(TaskCompleted, t1)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, t1, *task.CompletedAt)

	task.SetStatus(TaskCompleted, t2)
	assert.Equal(t, t1, *task.CompletedAt, "completed_at is kept while staying Completed")

	task.SetStatus(TaskInProgress, t2)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, TaskInProgress, task.Status)
}

func TestTaskIsOverdue(t *testing.T) {
	today := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{name: "yesterday pending", task: Task{Deadline: today.Add(-time.Hour), Status: TaskPending}, want: true},
		{name: "earlier today", task: Task{Deadline: today.Add(9 * time.Hour), Status: TaskPending}, want: false},
		{name: "yesterday completed", task: Task{Deadline: today.Add(-time.Hour), Status: TaskCompleted}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.IsOverdue(today))
		})
	}
}

func TestSortTasks(t *testing.T) {
	d1 := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)
	d2 := d1.Add(24 * time.Hour)
	c1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c2 := c1.Add(time.Minute)

	tasks := []Task{
		{ID: "late", Deadline: d2, Priority: PriorityHigh, CreatedAt: c1},
		{ID: "low", Deadline: d1, Priority: PriorityLow, CreatedAt: c1},
		{ID: "high-newer", Deadline: d1, Priority: PriorityHigh, CreatedAt: c2},
		{ID: "high-older", Deadline: d1, Priority: PriorityHigh, CreatedAt: c1},
		{ID: "medium", Deadline: d1, Priority: PriorityMedium, CreatedAt: c1},
	}
	SortTasks(tasks)

	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"high-older", "high-newer", "medium", "low", "late"}, ids)
}

func TestParseDeadline(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	tests := []struct {
		name  string
		input string
		want  struct {
			ok   bool
			time time.Time
		}
	}{
		{
			name:  "rfc3339 keeps its offset",
			input: "2026-05-10T17:00:00Z",
			want: struct {
				ok   bool
				time time.Time
			}{ok: true, time: time.Date(2026, 5, 10, 17, 0, 0, 0, time.UTC)},
		},
		{
			name:  "datetime-local reads in zone",
			input: "2026-05-10T17:00",
			want: struct {
				ok   bool
				time time.Time
			}{ok: true, time: time.Date(2026, 5, 10, 17, 0, 0, 0, loc)},
		},
		{
			name:  "plain date",
			input: " 2026-05-10 ",
			want: struct {
				ok   bool
				time time.Time
			}{ok: true, time: time.Date(2026, 5, 10, 0, 0, 0, 0, loc)},
		},
		{
			name:  "garbage",
			input: "next friday",
		},
		{
			name:  "empty",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDeadline(tt.input, loc)
			assert.Equal(t, tt.want.ok, ok)
			if tt.want.ok {
				assert.True(t, tt.want.time.Equal(got), "got %s", got)
			}
		})
	}
}

func TestTaskPatchApply(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	task := Task{Title: "Old", Description: "keep", Priority: PriorityLow, Status: TaskPending}

	title := "New"
	priority := PriorityHigh
	status := TaskCompleted
	TaskPatch{Title: &title, Priority: &priority, Status: &status}.Apply(&task, now)

	assert.Equal(t, "New", task.Title)
	assert.Equal(t, "keep", task.Description)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.Equal(t, TaskCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
}

func TestComputeProgress(t *testing.T) {
	now := time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)
	done := func(daysAgo int) *time.Time {
		ts := now.AddDate(0, 0, -daysAgo)
		return &ts
	}

	tasks := []Task{
		{Priority: PriorityHigh, Status: TaskCompleted, Deadline: now.AddDate(0, 0, -30), CompletedAt: done(0)},
		{Priority: PriorityHigh, Status: TaskCompleted, Deadline: now, CompletedAt: done(2)},
		{Priority: PriorityMedium, Status: TaskCompleted, Deadline: now, CompletedAt: done(10)},
		{Priority: PriorityLow, Status: TaskPending, Deadline: now.AddDate(0, 0, -1)},
		{Priority: PriorityLow, Status: TaskInProgress, Deadline: now.AddDate(0, 0, 1)},
		{Priority: PriorityLow, Status: TaskPending, Deadline: now.AddDate(0, 0, 2)},
	}

	p := ComputeProgress(tasks, now)
	assert.Equal(t, 6, p.Total)
	assert.Equal(t, 3, p.Completed)
	assert.Equal(t, 2, p.Pending)
	assert.Equal(t, 1, p.InProgress)
	assert.Equal(t, 1, p.Overdue)
	assert.Equal(t, 50, p.CompletionRate)
	assert.Equal(t, PriorityBreakdown{High: 2, Medium: 1, Low: 3}, p.ByPriority)

	require.Len(t, p.Last7Days, 7)
	assert.Equal(t, "2026-04-28", p.Last7Days[0].Date)
	assert.Equal(t, "2026-05-04", p.Last7Days[6].Date)
	assert.Equal(t, 1, p.Last7Days[6].Completed)
	assert.Equal(t, 1, p.Last7Days[4].Completed)

	var total int
	for _, d := range p.Last7Days {
		total += d.Completed
	}
	assert.Equal(t, 2, total, "completions older than a week are not bucketed")

	empty := ComputeProgress(nil, now)
	assert.Equal(t, 0, empty.CompletionRate)
	assert.Len(t, empty.Last7Days, 7)
}

func TestA3SetStatus(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	comment := "paid"

	item := A3Item{Status: A3Pending, Amount: decimal.RequireFromString("10")}
	item.SetStatus(A3Completed, &comment, now)
	require.NotNil(t, item.CompletedAt)
	require.NotNil(t, item.Comment)
	assert.Equal(t, "paid", *item.Comment)

	comment = "changed"
	assert.Equal(t, "paid", *item.Comment, "comment is copied")

	item.SetStatus(A3Pending, nil, now)
	assert.Nil(t, item.CompletedAt)
	assert.Nil(t, item.Comment)

	name := "Toner"
	amount := decimal.RequireFromString("12.30")
	A3Patch{Name: &name, Amount: &amount}.Apply(&item, now)
	assert.Equal(t, "Toner", item.Name)
	assert.True(t, amount.Equal(item.Amount))
	assert.Equal(t, A3Pending, item.Status)
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2026-05-04"))
	assert.False(t, ValidDate("2026-13-01"))
	assert.False(t, ValidDate("04/05/2026"))
	assert.False(t, ValidDate(""))
}
