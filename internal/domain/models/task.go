package models

import (
	"math"
	"sort"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities High > Medium > Low; unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Priority      Priority   `json:"priority"`
	Deadline      time.Time  `json:"deadline"`
	Status        TaskStatus `json:"status"`
	CreatedBy     string     `json:"created_by"`
	CreatedByName string     `json:"created_by_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	Assignees     []UserRef  `json:"assignees"`
	LatestComment *string    `json:"latest_comment"`
}

// SetStatus moves the task to s. completed_at is stamped on entering
// Completed, kept while it stays Completed and cleared on leaving it.
func (t *Task) SetStatus(s TaskStatus, now time.Time) {
	switch {
	case s != TaskCompleted:
		t.CompletedAt = nil
	case t.Status != TaskCompleted || t.CompletedAt == nil:
		ts := now
		t.CompletedAt = &ts
	}
	t.Status = s
}

// IsOverdue reports a deadline strictly before today that is not Completed.
func (t Task) IsOverdue(today time.Time) bool {
	return t.Status != TaskCompleted && t.Deadline.Before(today)
}

func (t Task) IsAssigned(userID string) bool {
	for _, a := range t.Assignees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// SortTasks applies the list ordering: deadline ascending, then priority
// High to Low, then oldest first.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.Deadline.Equal(b.Deadline) {
			return a.Deadline.Before(b.Deadline)
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

type TaskUpdate struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"task_id"`
	UserID       string     `json:"user_id"`
	UserName     string     `json:"user_name,omitempty"`
	StatusChange TaskStatus `json:"status_change"`
	Comment      string     `json:"comment"`
	CreatedAt    time.Time  `json:"created_at"`
}

type TaskDetail struct {
	Task    Task         `json:"task"`
	Updates []TaskUpdate `json:"updates"`
}

// TaskPatch is a coalescing update: nil fields keep their value. A nil
// Assignees keeps the assignment set, a non-nil one replaces it.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Deadline    *time.Time
	Status      *TaskStatus
	Assignees   []string
}

func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Status != nil {
		t.SetStatus(*p.Status, now)
	}
}

type TaskFilter struct {
	AssigneeID string
}

type TaskStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// CountTasks derives TaskStats from a task collection.
func CountTasks(tasks []Task, today time.Time) TaskStats {
	var st TaskStats
	for _, t := range tasks {
		st.Total++
		switch t.Status {
		case TaskPending:
			st.Pending++
		case TaskInProgress:
			st.InProgress++
		case TaskCompleted:
			st.Completed++
		}
		if t.IsOverdue(today) {
			st.Overdue++
		}
	}
	return st
}

type PriorityBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type DayActivity struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
}

type TaskProgress struct {
	TaskStats
	CompletionRate int               `json:"completion_rate"`
	ByPriority     PriorityBreakdown `json:"by_priority"`
	Last7Days      []DayActivity     `json:"last_7_days"`
}

// ComputeProgress derives progress statistics as of now. Completions are
// bucketed on the calendar day of completed_at in now's location.
func ComputeProgress(tasks []Task, now time.Time) TaskProgress {
	today := StartOfDay(now)
	p := TaskProgress{TaskStats: CountTasks(tasks, today)}
	if p.Total > 0 {
		p.CompletionRate = int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
	}

	perDay := make(map[string]int)
	for _, t := range tasks {
		switch t.Priority {
		case PriorityHigh:
			p.ByPriority.High++
		case PriorityMedium:
			p.ByPriority.Medium++
		case PriorityLow:
			p.ByPriority.Low++
		}
		if t.Status == TaskCompleted && t.CompletedAt != nil {
			perDay[t.CompletedAt.In(now.Location()).Format(time.DateOnly)]++
		}
	}

	p.Last7Days = make([]DayActivity, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(time.DateOnly)
		p.Last7Days = append(p.Last7Days, DayActivity{Date: day, Completed: perDay[day]})
	}
	return p
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDeadline accepts RFC 3339, datetime-local and plain date values.
// Values without an offset are read in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Priority    string   `json:"priority" validate:"required,oneof=Low Medium High"`
	Deadline    string   `json:"deadline" validate:"required"`
	Assignees   []string `json:"assignees" validate:"required,min=1,dive,required"`
}

// UpdateTaskRequest carries both the staff form (status, comment) and the
// admin form (every other field).
type UpdateTaskRequest struct {
	Status      *string   `json:"status"`
	Comment     *string   `json:"comment"`
	Title       *string   `json:"title" validate:"omitempty,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Priority    *string   `json:"priority"`
	Deadline    *string   `json:"deadline"`
	Assignees   *[]string `json:"assignees"`
}

func (r UpdateTaskRequest) HasAdminFields() bool {
	return r.Title != nil || r.Description != nil || r.Priority != nil ||
		r.Deadline != nil || r.Assignees != nil
}
