package storage

import (
	"context"
	"sort"
	"sync"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

type reportKey struct {
	userID string
	date   string
}

// Storage keeps everything in maps behind one lock. Every write validates
// its references before touching any map, so a failed write leaves no
// partial state. Deletes cascade the way the SQL schema does.
type Storage struct {
	mu sync.RWMutex

	users       map[string]models.User
	tasks       map[string]models.Task
	taskAssign  map[string][]string
	taskUpdates []models.TaskUpdate
	a3Items     map[string]models.A3Item
	a3Assign    map[string][]string
	reports     map[reportKey]models.DailyReport
}

func NewStorage() *Storage {
	return &Storage{
		users:      make(map[string]models.User),
		tasks:      make(map[string]models.Task),
		taskAssign: make(map[string][]string),
		a3Items:    make(map[string]models.A3Item),
		a3Assign:   make(map[string][]string),
		reports:    make(map[reportKey]models.DailyReport),
	}
}

func (s *Storage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) GetUsersByIDs(_ context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *Storage) ListUsers(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		if filter.Role != 0 && user.Role != filter.Role {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return errors.ErrEmailInUse
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return errors.ErrUserNotFound
	}
	delete(s.users, id)

	for taskID, ids := range s.taskAssign {
		s.taskAssign[taskID] = without(ids, id)
	}
	for itemID, ids := range s.a3Assign {
		s.a3Assign[itemID] = without(ids, id)
	}
	kept := s.taskUpdates[:0]
	for _, u := range s.taskUpdates {
		if u.UserID != id {
			kept = append(kept, u)
		}
	}
	s.taskUpdates = kept
	for key := range s.reports {
		if key.userID == id {
			delete(s.reports, key)
		}
	}
	return nil
}

func (s *Storage) usersExist(ids []string) bool {
	for _, id := range ids {
		if _, ok := s.users[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Storage) refs(ids []string) []models.UserRef {
	refs := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			refs = append(refs, user.Ref())
		}
	}
	return refs
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
