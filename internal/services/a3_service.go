package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
	"taskdesk/internal/notify"
)

// A3Service manages budget items. It follows the task flow with two
// states and a comment that is only required on completion.
type A3Service struct {
	logger    zerolog.Logger
	items     A3Repository
	users     UserRepository
	notifier  Notifier
	templates notify.Templates
	now       func() time.Time
}

func NewA3Service(
	logger zerolog.Logger,
	items A3Repository,
	users UserRepository,
	notifier Notifier,
	templates notify.Templates,
	now func() time.Time,
) *A3Service {
	return &A3Service{
		logger:    logger,
		items:     items,
		users:     users,
		notifier:  notifier,
		templates: templates,
		now:       now,
	}
}

func validAmount(d *decimal.Decimal) bool {
	return d != nil && !d.IsNegative()
}

func (s *A3Service) CreateItem(ctx context.Context, caller models.Identity, req models.CreateA3Request) (*models.A3Item, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrInvalidName
	}
	if !validAmount(req.Amount) {
		return nil, errors.ErrInvalidAmount
	}
	assignees, err := resolveAssignees(ctx, s.users, req.Assignees)
	if err != nil {
		return nil, err
	}

	item := &models.A3Item{
		ID:        uuid.NewString(),
		Name:      name,
		Amount:    req.Amount.Round(2),
		Status:    models.A3Pending,
		CreatedBy: caller.ID,
		CreatedAt: s.now(),
		Assignees: userRefs(assignees),
	}
	if err := s.items.CreateA3Item(ctx, item, userIDs(assignees)); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create a3 item")
		return nil, err
	}
	s.logger.Info().
		Str("a3_id", item.ID).
		Int("assignees", len(assignees)).
		Msg("created a3 item")

	s.notifyAssigned(assignees, *item)
	return item, nil
}

func (s *A3Service) ListItems(ctx context.Context, caller models.Identity) ([]models.A3Item, error) {
	var filter models.A3Filter
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleStaff:
		filter.AssigneeID = caller.ID
	default:
		return nil, errors.ErrForbidden
	}
	return s.items.ListA3Items(ctx, filter)
}

func (s *A3Service) GetItem(ctx context.Context, caller models.Identity, id string) (*models.A3Item, error) {
	item, err := s.items.GetA3Item(ctx, id)
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleStaff:
		if !item.IsAssigned(caller.ID) {
			return nil, errors.ErrNotAssignedToA3
		}
	default:
		return nil, errors.ErrForbidden
	}
	return item, nil
}

func (s *A3Service) UpdateItem(ctx context.Context, caller models.Identity, id string, req models.UpdateA3Request) error {
	switch caller.Role {
	case models.RoleAdmin:
		patch := models.A3Patch{
			Name:    req.Name,
			Amount:  req.Amount,
			Comment: req.Comment,
		}
		if req.Status != nil {
			st := models.A3Status(*req.Status)
			patch.Status = &st
		}
		if req.Assignees != nil {
			patch.Assignees = append([]string{}, *req.Assignees...)
		}
		return s.UpdateItemAsAdmin(ctx, caller, id, patch)
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
		return s.UpdateItemAsStaff(ctx, caller, id, status, comment)
	default:
		return errors.ErrForbidden
	}
}

// UpdateItemAsStaff moves an assigned item between Pending and Completed.
// Completing requires a comment and notifies the creator.
func (s *A3Service) UpdateItemAsStaff(ctx context.Context, caller models.Identity, id, status, comment string) error {
	if err := requireStaff(caller); err != nil {
		return err
	}
	st := models.A3Status(status)
	if !st.Valid() {
		return errors.ErrInvalidStatus
	}
	comment = strings.TrimSpace(comment)
	if st == models.A3Completed && comment == "" {
		return errors.ErrA3CommentRequired
	}

	item, err := s.items.GetA3Item(ctx, id)
	if err != nil {
		return err
	}
	if !item.IsAssigned(caller.ID) {
		return errors.ErrNotAssignedToA3
	}

	var note *string
	if comment != "" {
		note = &comment
	}
	updated, err := s.items.UpdateA3Status(ctx, id, caller.ID, st, note, s.now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("a3_id", id).
			Msg("failed to update a3 status")
		return err
	}
	s.logger.Info().
		Str("a3_id", id).
		Str("user_id", caller.ID).
		Str("status", string(st)).
		Msg("a3 status updated")

	if st == models.A3Completed {
		s.notifyCompleted(ctx, *updated, caller, comment)
	}
	return nil
}

func (s *A3Service) UpdateItemAsAdmin(ctx context.Context, caller models.Identity, id string, patch models.A3Patch) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return errors.ErrInvalidName
		}
		patch.Name = &name
	}
	if patch.Amount != nil {
		if !validAmount(patch.Amount) {
			return errors.ErrInvalidAmount
		}
		amount := patch.Amount.Round(2)
		patch.Amount = &amount
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

	item, previous, err := s.items.UpdateA3Item(ctx, id, patch, s.now())
	if err != nil {
		if !errors.IsDomain(err) {
			s.logger.Error().
				Err(err).
				Str("a3_id", id).
				Msg("failed to update a3 item")
		}
		return err
	}
	s.logger.Info().
		Str("a3_id", id).
		Bool("reassigned", patch.Assignees != nil).
		Msg("a3 item updated")

	if patch.Assignees != nil {
		s.notifyAssigned(addedUsers(assignees, models.AddedIDs(patch.Assignees, previous)), *item)
	}
	return nil
}

func (s *A3Service) DeleteItem(ctx context.Context, caller models.Identity, id string) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if err := s.items.DeleteA3Item(ctx, id); err != nil {
		return err
	}
	s.logger.Info().
		Str("a3_id", id).
		Msg("a3 item deleted")
	return nil
}

func (s *A3Service) notifyAssigned(users []models.User, item models.A3Item) {
	for _, u := range users {
		msg, err := s.templates.A3Assigned(u.Ref(), item)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("a3_id", item.ID).
				Msg("failed to render a3 assignment email")
			continue
		}
		s.notifier.Notify(msg)
	}
}

func (s *A3Service) notifyCompleted(ctx context.Context, item models.A3Item, by models.Identity, comment string) {
	creator, err := s.users.GetUserByID(ctx, item.CreatedBy)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("a3_id", item.ID).
			Msg("a3 creator not found, completion email skipped")
		return
	}
	msg, err := s.templates.A3Completed(*creator, item, by, comment)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("a3_id", item.ID).
			Msg("failed to render a3 completion email")
		return
	}
	s.notifier.Notify(msg)
}
