package models

import (
	"fmt"
	"time"
)

// Role is closed: only RoleAdmin and RoleStaff exist. The zero value is invalid.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleStaff
)

func ParseRole(s string) (Role, error) {
	switch s {
	case "ADMIN":
		return RoleAdmin, nil
	case "STAFF":
		return RoleStaff, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleStaff:
		return "STAFF"
	}
	return "UNKNOWN"
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Identity is who is calling, as resolved from a verified token.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Designation  *string   `json:"designation"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// UserRef is the assignee shape embedded in tasks and A3 items.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func RefIDs(refs []UserRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}

// UniqueIDs drops empty and repeated ids, keeping first occurrence order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AddedIDs returns the ids in next that are absent from previous.
func AddedIDs(next, previous []string) []string {
	prev := make(map[string]struct{}, len(previous))
	for _, id := range previous {
		prev[id] = struct{}{}
	}
	var added []string
	for _, id := range next {
		if _, ok := prev[id]; !ok {
			added = append(added, id)
		}
	}
	return added
}

// UserFilter narrows user listings; a zero Role matches every user.
type UserFilter struct {
	Role Role
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=100"`
}

type CreateStaffRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,min=6,max=100"`
	Designation *string `json:"designation" validate:"omitempty,max=100"`
}
