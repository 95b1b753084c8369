package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskdesk/internal/auth"
	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
	"taskdesk/internal/notify"
)

const minPasswordLen = 6

var validate = validator.New()

type UserService struct {
	logger    zerolog.Logger
	users     UserRepository
	notifier  Notifier
	templates notify.Templates
	now       func() time.Time
}

func NewUserService(
	logger zerolog.Logger,
	users UserRepository,
	notifier Notifier,
	templates notify.Templates,
	now func() time.Time,
) *UserService {
	return &UserService{
		logger:    logger,
		users:     users,
		notifier:  notifier,
		templates: templates,
		now:       now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) newUser(name, email, password string, role models.Role, designation *string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ErrInvalidUserName
	}
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email,max=255"); err != nil {
		return nil, errors.ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, errors.ErrInvalidPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if designation != nil {
		d := strings.TrimSpace(*designation)
		designation = &d
		if d == "" {
			designation = nil
		}
	}
	return &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Designation:  designation,
		CreatedAt:    s.now(),
	}, nil
}

// CreateStaff creates a staff account and sends the welcome email with the
// initial password.
func (s *UserService) CreateStaff(ctx context.Context, caller models.Identity, req models.CreateStaffRequest) (*models.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.newUser(req.Name, req.Email, req.Password, models.RoleStaff, req.Designation)
	if err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.IsDomain(err) {
			s.logger.Error().
				Err(err).
				Msg("failed to create user")
		}
		return nil, err
	}
	s.logger.Info().
		Str("user_id", user.ID).
		Msg("created staff user")

	msg, err := s.templates.Welcome(*user, req.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to render welcome email")
	} else {
		s.notifier.Notify(msg)
	}
	return user, nil
}

// EnsureAdmin creates an admin account unless the email is already taken.
// It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if _, err := s.users.GetUserByEmail(ctx, normalizeEmail(email)); err == nil {
		return false, nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return false, err
	}

	user, err := s.newUser(name, email, password, models.RoleAdmin, nil)
	if err != nil {
		return false, err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("created admin user")
	return true, nil
}

func (s *UserService) ListUsers(ctx context.Context, caller models.Identity) ([]models.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx, models.UserFilter{})
}

func (s *UserService) ListStaff(ctx context.Context, caller models.Identity) ([]models.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx, models.UserFilter{Role: models.RoleStaff})
}

func (s *UserService) DeleteUser(ctx context.Context, caller models.Identity, id string) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != models.RoleStaff {
		return errors.ErrCannotDeleteAdmin
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().
		Str("user_id", id).
		Msg("user deleted")
	return nil
}
