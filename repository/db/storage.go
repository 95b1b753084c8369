package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

const queryTimeout = 15 * time.Second

// Storage is the Postgres implementation of every repository.
type Storage struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

type PoolConfig struct {
	URL            string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
	MaxConns       int32
}

// Connect opens a pool and pings it. The caller owns the pool.
func Connect(ctx context.Context, cfg PoolConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Uint16("port", poolCfg.ConnConfig.Port).
		Msg("connected to postgres")
	return pool, nil
}

func NewStorage(pool *pgxpool.Pool, logger zerolog.Logger) *Storage {
	return &Storage{pool: pool, logger: logger}
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Storage) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Error().
				Err(err).
				Msg("failed to roll back transaction")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// validIDs keeps the ids that parse as UUIDs; the rest cannot match a row.
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const userColumns = `id, name, email, password_hash, role, designation, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user models.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Designation,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.Role = parsed
	return &user, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const insertUserQuery = `
INSERT INTO users (id, name, email, password_hash, role, designation, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := s.pool.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role.String(),
		user.Designation,
		user.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == pgerrcode.UniqueViolation {
			return errors.ErrEmailInUse
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Storage) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, errors.ErrUserNotFound
	}
	return s.getUser(ctx, "id = $1", id)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = $1", email)
}

func (s *Storage) collectUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *Storage) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("select users by id: %w", err)
	}
	return s.collectUsers(rows)
}

func (s *Storage) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var role *string
	if filter.Role != 0 {
		r := filter.Role.String()
		role = &r
	}
	rows, err := s.pool.Query(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE ($1::text IS NULL OR role = $1) ORDER BY name, id`,
		role,
	)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return s.collectUsers(rows)
}

func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgerrcode.ForeignKeyViolation {
			return errors.New(errors.ErrConflict, "User still owns tasks or A3 items.")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}
