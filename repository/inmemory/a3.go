package storage

import (
	"context"
	"sort"
	"time"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

func (s *Storage) CreateA3Item(_ context.Context, item *models.A3Item, assignees []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[item.CreatedBy]; !ok {
		return errors.ErrMissingRef
	}
	if !s.usersExist(assignees) {
		return errors.ErrInvalidAssignee
	}

	stored := *item
	stored.Assignees = nil
	s.a3Items[item.ID] = stored
	s.a3Assign[item.ID] = append([]string{}, assignees...)
	return nil
}

func (s *Storage) hydrateA3(item models.A3Item) models.A3Item {
	item.Assignees = s.refs(s.a3Assign[item.ID])
	return item
}

func (s *Storage) ListA3Items(_ context.Context, filter models.A3Filter) ([]models.A3Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.A3Item, 0, len(s.a3Items))
	for id, item := range s.a3Items {
		if filter.AssigneeID != "" && !contains(s.a3Assign[id], filter.AssigneeID) {
			continue
		}
		items = append(items, s.hydrateA3(item))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (s *Storage) GetA3Item(_ context.Context, id string) (*models.A3Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.a3Items[id]
	if !exists {
		return nil, errors.ErrA3NotFound
	}
	item = s.hydrateA3(item)
	return &item, nil
}

func (s *Storage) UpdateA3Status(_ context.Context, id, userID string, status models.A3Status, comment *string, now time.Time) (*models.A3Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.a3Items[id]
	if !exists {
		return nil, errors.ErrA3NotFound
	}
	if !contains(s.a3Assign[id], userID) {
		return nil, errors.ErrNotAssignedToA3
	}

	item.SetStatus(status, comment, now)
	s.a3Items[id] = item

	item = s.hydrateA3(item)
	return &item, nil
}

func (s *Storage) UpdateA3Item(_ context.Context, id string, patch models.A3Patch, now time.Time) (*models.A3Item, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.a3Items[id]
	if !exists {
		return nil, nil, errors.ErrA3NotFound
	}
	previous := append([]string{}, s.a3Assign[id]...)
	if patch.Assignees != nil && !s.usersExist(patch.Assignees) {
		return nil, nil, errors.ErrInvalidAssignee
	}

	patch.Apply(&item, now)
	s.a3Items[id] = item
	if patch.Assignees != nil {
		s.a3Assign[id] = append([]string{}, patch.Assignees...)
	}

	item = s.hydrateA3(item)
	return &item, previous, nil
}

func (s *Storage) DeleteA3Item(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.a3Items[id]; !exists {
		return errors.ErrA3NotFound
	}
	delete(s.a3Items, id)
	delete(s.a3Assign, id)
	return nil
}
