package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
	"taskdesk/internal/notify"
)

const maxDescriptionLen = 5000

type TaskService struct {
	logger    zerolog.Logger
	tasks     TaskRepository
	users     UserRepository
	notifier  Notifier
	templates notify.Templates
	now       func() time.Time
}

func NewTaskService(
	logger zerolog.Logger,
	tasks TaskRepository,
	users UserRepository,
	notifier Notifier,
	templates notify.Templates,
	now func() time.Time,
) *TaskService {
	return &TaskService{
		logger:    logger,
		tasks:     tasks,
		users:     users,
		notifier:  notifier,
		templates: templates,
		now:       now,
	}
}

// CreateTask creates a Pending task assigned to req.Assignees and notifies
// every assignee once the task is stored.
func (s *TaskService) CreateTask(ctx context.Context, caller models.Identity, req models.CreateTaskRequest) (*models.Task, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}

	now := s.now()
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.ErrInvalidTitle
	}
	if len(req.Description) > maxDescriptionLen {
		return nil, errors.ErrInvalidDescription
	}
	priority := models.Priority(req.Priority)
	if !priority.Valid() {
		return nil, errors.ErrInvalidPriority
	}
	deadline, ok := models.ParseDeadline(req.Deadline, now.Location())
	if !ok {
		return nil, errors.ErrInvalidDeadline
	}
	assignees, err := resolveAssignees(ctx, s.users, req.Assignees)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   req.Description,
		Priority:      priority,
		Deadline:      deadline,
		Status:        models.TaskPending,
		CreatedBy:     caller.ID,
		CreatedByName: caller.Name,
		CreatedAt:     now,
		Assignees:     userRefs(assignees),
	}
	if err := s.tasks.CreateTask(ctx, task, userIDs(assignees)); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create task")
		return nil, err
	}
	s.logger.Info().
		Str("task_id", task.ID).
		Int("assignees", len(assignees)).
		Msg("created task")

	s.notifyAssigned(assignees, *task)
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, caller models.Identity) ([]models.Task, error) {
	var filter models.TaskFilter
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleStaff:
		filter.AssigneeID = caller.ID
	default:
		return nil, errors.ErrForbidden
	}
	return s.tasks.ListTasks(ctx, filter)
}

func (s *TaskService) GetTask(ctx context.Context, caller models.Identity, id string) (*models.TaskDetail, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleStaff:
		if !task.IsAssigned(caller.ID) {
			return nil, errors.ErrNotAssignedToTask
		}
	default:
		return nil, errors.ErrForbidden
	}

	updates, err := s.tasks.ListTaskUpdates(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TaskDetail{Task: *task, Updates: updates}, nil
}

// UpdateTask routes a PUT body to the staff or admin update by caller role.
func (s *TaskService) UpdateTask(ctx context.Context, caller models.Identity, id string, req models.UpdateTaskRequest) error {
	switch caller.Role {
	case models.RoleAdmin:
		patch, err := s.taskPatch(req)
		if err != nil {
			return err
		}
		return s.UpdateTaskAsAdmin(ctx, caller, id, patch)
	case models.RoleStaff:
		if req.HasAdminFields() {
			return errors.ErrStaffFieldsOnly
		}
		var status, comment string
		if req.Status != nil {
			status = *req.Status
		}
		if req.Comment != nil {
			comment = *req.Comment
		}
		return s.UpdateTaskAsStaff(ctx, caller, id, status, comment)
	default:
		return errors.ErrForbidden
	}
}

// UpdateTaskAsStaff records a status change with its comment. When the
// task becomes Completed the creator is notified.
func (s *TaskService) UpdateTaskAsStaff(ctx context.Context, caller models.Identity, id, status, comment string) error {
	if err := requireStaff(caller); err != nil {
		return err
	}
	st := models.TaskStatus(status)
	if !st.Valid() {
		return errors.ErrInvalidStatus
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return errors.ErrCommentRequired
	}

	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if !task.IsAssigned(caller.ID) {
		return errors.ErrNotAssignedToTask
	}

	updated, err := s.tasks.UpdateTaskStatus(ctx, models.TaskUpdate{
		ID:           uuid.NewString(),
		TaskID:       id,
		UserID:       caller.ID,
		UserName:     caller.Name,
		StatusChange: st,
		Comment:      comment,
		CreatedAt:    s.now(),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to update task status")
		return err
	}
	s.logger.Info().
		Str("task_id", id).
		Str("user_id", caller.ID).
		Str("status", string(st)).
		Msg("task status updated")

	if st == models.TaskCompleted {
		s.notifyCompleted(ctx, *updated, caller, comment)
	}
	return nil
}

// UpdateTaskAsAdmin applies patch. A non-nil patch.Assignees replaces the
// assignment set and only users who were not assigned before are notified.
func (s *TaskService) UpdateTaskAsAdmin(ctx context.Context, caller models.Identity, id string, patch models.TaskPatch) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return errors.ErrInvalidTitle
		}
		patch.Title = &title
	}
	if patch.Description != nil && len(*patch.Description) > maxDescriptionLen {
		return errors.ErrInvalidDescription
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return errors.ErrInvalidPriority
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return errors.ErrInvalidStatus
	}

	var assignees []models.User
	if patch.Assignees != nil {
		var err error
		assignees, err = resolveAssignees(ctx, s.users, patch.Assignees)
		if err != nil {
			return err
		}
		patch.Assignees = userIDs(assignees)
	}

	task, previous, err := s.tasks.UpdateTask(ctx, id, patch, s.now())
	if err != nil {
		if !errors.IsDomain(err) {
			s.logger.Error().
				Err(err).
				Str("task_id", id).
				Msg("failed to update task")
		}
		return err
	}
	s.logger.Info().
		Str("task_id", id).
		Bool("reassigned", patch.Assignees != nil).
		Msg("task updated")

	if patch.Assignees != nil {
		s.notifyAssigned(addedUsers(assignees, models.AddedIDs(patch.Assignees, previous)), *task)
	}
	return nil
}

func (s *TaskService) taskPatch(req models.UpdateTaskRequest) (models.TaskPatch, error) {
	patch := models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		patch.Priority = &p
	}
	if req.Status != nil {
		st := models.TaskStatus(*req.Status)
		patch.Status = &st
	}
	if req.Deadline != nil {
		deadline, ok := models.ParseDeadline(*req.Deadline, s.now().Location())
		if !ok {
			return models.TaskPatch{}, errors.ErrInvalidDeadline
		}
		patch.Deadline = &deadline
	}
	if req.Assignees != nil {
		patch.Assignees = append([]string{}, *req.Assignees...)
	}
	return patch, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, caller models.Identity, id string) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.logger.Info().
		Str("task_id", id).
		Msg("task deleted")
	return nil
}

func (s *TaskService) OverviewStats(ctx context.Context, caller models.Identity) (*models.TaskStats, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		return nil, err
	}
	stats := models.CountTasks(tasks, models.StartOfDay(s.now()))
	return &stats, nil
}

// Progress reports statistics over the caller's tasks. Admins see every
// task, or one staff member's when staffID is set.
func (s *TaskService) Progress(ctx context.Context, caller models.Identity, staffID string) (*models.TaskProgress, error) {
	var filter models.TaskFilter
	switch caller.Role {
	case models.RoleAdmin:
		filter.AssigneeID = staffID
	case models.RoleStaff:
		filter.AssigneeID = caller.ID
	default:
		return nil, errors.ErrForbidden
	}
	tasks, err := s.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	progress := models.ComputeProgress(tasks, s.now())
	return &progress, nil
}

func (s *TaskService) notifyAssigned(users []models.User, task models.Task) {
	for _, u := range users {
		msg, err := s.templates.TaskAssigned(u.Ref(), task)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID).
				Msg("failed to render assignment email")
			continue
		}
		s.notifier.Notify(msg)
	}
}

func (s *TaskService) notifyCompleted(ctx context.Context, task models.Task, by models.Identity, comment string) {
	creator, err := s.users.GetUserByID(ctx, task.CreatedBy)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("task_id", task.ID).
			Msg("task creator not found, completion email skipped")
		return
	}
	msg, err := s.templates.TaskCompleted(*creator, task, by, comment)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to render completion email")
		return
	}
	s.notifier.Notify(msg)
}
