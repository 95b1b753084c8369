package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type A3Status string

const (
	A3Pending   A3Status = "Pending"
	A3Completed A3Status = "Completed"
)

func (s A3Status) Valid() bool {
	return s == A3Pending || s == A3Completed
}

// A3Item is a tracked budget item.
type A3Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Status      A3Status        `json:"status"`
	Comment     *string         `json:"comment"`
	CompletedAt *time.Time      `json:"completed_at"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	Assignees   []UserRef       `json:"assignees"`
}

// SetStatus enters or leaves Completed. Completion stamps completed_at
// and stores the comment; reverting to Pending clears both.
func (a *A3Item) SetStatus(s A3Status, comment *string, now time.Time) {
	switch s {
	case A3Completed:
		if a.Status != A3Completed || a.CompletedAt == nil {
			ts := now
			a.CompletedAt = &ts
		}
		if comment != nil {
			c := *comment
			a.Comment = &c
		}
	default:
		a.CompletedAt = nil
		a.Comment = nil
	}
	a.Status = s
}

func (a A3Item) IsAssigned(userID string) bool {
	for _, u := range a.Assignees {
		if u.ID == userID {
			return true
		}
	}
	return false
}

type A3Patch struct {
	Name      *string
	Amount    *decimal.Decimal
	Status    *A3Status
	Comment   *string
	Assignees []string
}

func (p A3Patch) Apply(a *A3Item, now time.Time) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Amount != nil {
		a.Amount = *p.Amount
	}
	if p.Status != nil {
		a.SetStatus(*p.Status, p.Comment, now)
	} else if p.Comment != nil && a.Status == A3Completed {
		c := *p.Comment
		a.Comment = &c
	}
}

type A3Filter struct {
	AssigneeID string
}

type CreateA3Request struct {
	Name      string           `json:"name" validate:"required,max=200"`
	Amount    *decimal.Decimal `json:"amount" validate:"required"`
	Assignees []string         `json:"assignees" validate:"required,min=1,dive,required"`
}

type UpdateA3Request struct {
	Status    *string          `json:"status"`
	Comment   *string          `json:"comment"`
	Name      *string          `json:"name" validate:"omitempty,max=200"`
	Amount    *decimal.Decimal `json:"amount"`
	Assignees *[]string        `json:"assignees"`
}

func (r UpdateA3Request) HasAdminFields() bool {
	return r.Name != nil || r.Amount != nil || r.Assignees != nil
}
