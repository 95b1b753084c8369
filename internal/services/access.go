package services

import (
	"context"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

// RequireAdmin admits Admin callers only.
func RequireAdmin(caller models.Identity) error {
	switch caller.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStaff:
		return errors.ErrAdminOnly
	default:
		return errors.ErrAdminOnly
	}
}

func requireStaff(caller models.Identity) error {
	switch caller.Role {
	case models.RoleStaff:
		return nil
	case models.RoleAdmin:
		return errors.ErrStaffOnly
	default:
		return errors.ErrStaffOnly
	}
}

// resolveAssignees de-duplicates ids and checks that each one names an
// existing staff user. Users come back in the order of the unique ids.
func resolveAssignees(ctx context.Context, users UserRepository, ids []string) ([]models.User, error) {
	ids = models.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, errors.ErrAssigneesRequired
	}

	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	resolved := make([]models.User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok || u.Role != models.RoleStaff {
			return nil, errors.ErrInvalidAssignee
		}
		resolved = append(resolved, u)
	}
	return resolved, nil
}

func userRefs(users []models.User) []models.UserRef {
	refs := make([]models.UserRef, len(users))
	for i, u := range users {
		refs[i] = u.Ref()
	}
	return refs
}

func userIDs(users []models.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

// addedUsers keeps the users whose id is in added.
func addedUsers(users []models.User, added []string) []models.User {
	keep := make(map[string]struct{}, len(added))
	for _, id := range added {
		keep[id] = struct{}{}
	}
	var out []models.User
	for _, u := range users {
		if _, ok := keep[u.ID]; ok {
			out = append(out, u)
		}
	}
	return out
}
