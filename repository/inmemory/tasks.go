package storage

import (
	"context"
	"sort"
	"time"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

func (s *Storage) CreateTask(_ context.Context, task *models.Task, assignees []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[task.CreatedBy]; !ok {
		return errors.ErrMissingRef
	}
	if !s.usersExist(assignees) {
		return errors.ErrInvalidAssignee
	}

	stored := *task
	stored.Assignees = nil
	stored.LatestComment = nil
	s.tasks[task.ID] = stored
	s.taskAssign[task.ID] = append([]string{}, assignees...)
	return nil
}

// hydrateTask fills the joined columns: creator name, assignees and the
// latest non-empty comment.
func (s *Storage) hydrateTask(t models.Task) models.Task {
	if creator, ok := s.users[t.CreatedBy]; ok {
		t.CreatedByName = creator.Name
	}
	t.Assignees = s.refs(s.taskAssign[t.ID])
	t.LatestComment = nil
	var latest *models.TaskUpdate
	for i := range s.taskUpdates {
		u := &s.taskUpdates[i]
		if u.TaskID != t.ID || u.Comment == "" {
			continue
		}
		if latest == nil || !u.CreatedAt.Before(latest.CreatedAt) {
			latest = u
		}
	}
	if latest != nil {
		c := latest.Comment
		t.LatestComment = &c
	}
	return t
}

func (s *Storage) ListTasks(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0, len(s.tasks))
	for id, t := range s.tasks {
		if filter.AssigneeID != "" && !contains(s.taskAssign[id], filter.AssigneeID) {
			continue
		}
		tasks = append(tasks, s.hydrateTask(t))
	}
	models.SortTasks(tasks)
	return tasks, nil
}

func (s *Storage) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, errors.ErrTaskNotFound
	}
	task = s.hydrateTask(task)
	return &task, nil
}

func (s *Storage) ListTaskUpdates(_ context.Context, taskID string) ([]models.TaskUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first; equal timestamps keep reverse insertion order.
	updates := []models.TaskUpdate{}
	for i := len(s.taskUpdates) - 1; i >= 0; i-- {
		u := s.taskUpdates[i]
		if u.TaskID != taskID {
			continue
		}
		if user, ok := s.users[u.UserID]; ok {
			u.UserName = user.Name
		}
		updates = append(updates, u)
	}
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].CreatedAt.After(updates[j].CreatedAt)
	})
	return updates, nil
}

func (s *Storage) UpdateTaskStatus(_ context.Context, update models.TaskUpdate) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[update.TaskID]
	if !exists {
		return nil, errors.ErrTaskNotFound
	}
	if !contains(s.taskAssign[update.TaskID], update.UserID) {
		return nil, errors.ErrNotAssignedToTask
	}

	task.SetStatus(update.StatusChange, update.CreatedAt)
	s.tasks[task.ID] = task
	s.taskUpdates = append(s.taskUpdates, update)

	task = s.hydrateTask(task)
	return &task, nil
}

func (s *Storage) UpdateTask(_ context.Context, id string, patch models.TaskPatch, now time.Time) (*models.Task, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, nil, errors.ErrTaskNotFound
	}
	previous := append([]string{}, s.taskAssign[id]...)
	if patch.Assignees != nil && !s.usersExist(patch.Assignees) {
		return nil, nil, errors.ErrInvalidAssignee
	}

	patch.Apply(&task, now)
	s.tasks[id] = task
	if patch.Assignees != nil {
		s.taskAssign[id] = append([]string{}, patch.Assignees...)
	}

	task = s.hydrateTask(task)
	return &task, previous, nil
}

func (s *Storage) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return errors.ErrTaskNotFound
	}
	delete(s.tasks, id)
	delete(s.taskAssign, id)
	kept := s.taskUpdates[:0]
	for _, u := range s.taskUpdates {
		if u.TaskID != id {
			kept = append(kept, u)
		}
	}
	s.taskUpdates = kept
	return nil
}
