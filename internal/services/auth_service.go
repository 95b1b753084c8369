package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"taskdesk/internal/auth"
	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

type AuthService struct {
	logger zerolog.Logger
	users  UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(logger zerolog.Logger, users UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		logger: logger,
		users:  users,
		tokens: tokens,
	}
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Login checks credentials and issues a token. Unknown email and wrong
// password fail with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("stored password hash is unreadable")
		return nil, errors.ErrInvalidCredentials
	}
	if !ok {
		s.logger.Debug().
			Str("user_id", user.ID).
			Msg("password mismatch")
		return nil, errors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("user_id", user.ID).
		Msg("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Authenticate resolves a bearer token to the caller's identity. The
// account is looked up again so deleted users and role changes take effect
// before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, errors.ErrMissingToken
	}
	id, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Msg("token rejected")
		return models.Identity{}, errors.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			s.logger.Debug().
				Str("user_id", id.ID).
				Msg("token belongs to a deleted user")
			return models.Identity{}, errors.ErrInvalidToken
		}
		return models.Identity{}, err
	}
	return user.Identity(), nil
}

func (s *AuthService) Me(ctx context.Context, caller models.Identity) (*models.User, error) {
	return s.users.GetUserByID(ctx, caller.ID)
}
