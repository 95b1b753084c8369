package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

const selectA3Query = `
SELECT a.id,
       a.name,
       a.amount::text,
       a.status,
       a.comment,
       a.completed_at,
       a.created_by,
       a.created_at,
       COALESCE((SELECT json_agg(json_build_object('id', u.id, 'name', u.name, 'email', u.email) ORDER BY u.name)
                 FROM a3_assignments aa
                 JOIN users u ON u.id = aa.user_id
                 WHERE aa.a3_id = a.id), '[]') AS assignees
FROM a3_items a
`

const insertA3AssignmentsQuery = `
INSERT INTO a3_assignments (a3_id, user_id)
SELECT $1, unnest($2::uuid[])
`

func scanA3(row pgx.Row) (*models.A3Item, error) {
	var (
		item   models.A3Item
		amount string
	)
	err := row.Scan(
		&item.ID,
		&item.Name,
		&amount,
		&item.Status,
		&item.Comment,
		&item.CompletedAt,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.Assignees,
	)
	if err != nil {
		return nil, err
	}
	item.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return &item, nil
}

func (s *Storage) CreateA3Item(ctx context.Context, item *models.A3Item, assignees []string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const insertA3Query = `
INSERT INTO a3_items (id, name, amount, status, created_by, created_at)
VALUES ($1, $2, $3::text::numeric, $4, $5, $6)
`
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			insertA3Query,
			item.ID,
			item.Name,
			item.Amount.StringFixed(2),
			item.Status,
			item.CreatedBy,
			item.CreatedAt,
		)
		if err != nil {
			switch pgCode(err) {
			case pgerrcode.ForeignKeyViolation:
				return errors.ErrMissingRef
			case pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
				return errors.ErrInvalidAmount
			}
			return fmt.Errorf("insert a3 item: %w", err)
		}
		return insertAssignments(ctx, tx, insertA3AssignmentsQuery, item.ID, assignees)
	})
}

func (s *Storage) ListA3Items(ctx context.Context, filter models.A3Filter) ([]models.A3Item, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var assignee *string
	if filter.AssigneeID != "" {
		if !validID(filter.AssigneeID) {
			return []models.A3Item{}, nil
		}
		assignee = &filter.AssigneeID
	}

	rows, err := s.pool.Query(ctx, selectA3Query+`
WHERE $1::uuid IS NULL
   OR EXISTS (SELECT 1 FROM a3_assignments x WHERE x.a3_id = a.id AND x.user_id = $1)
ORDER BY a.created_at DESC, a.id
`, assignee)
	if err != nil {
		return nil, fmt.Errorf("select a3 items: %w", err)
	}
	defer rows.Close()

	items := []models.A3Item{}
	for rows.Next() {
		item, err := scanA3(rows)
		if err != nil {
			return nil, fmt.Errorf("scan a3 item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate a3 items: %w", err)
	}
	return items, nil
}

func (s *Storage) GetA3Item(ctx context.Context, id string) (*models.A3Item, error) {
	if !validID(id) {
		return nil, errors.ErrA3NotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	item, err := scanA3(s.pool.QueryRow(ctx, selectA3Query+`WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrA3NotFound
		}
		return nil, fmt.Errorf("select a3 item: %w", err)
	}
	return item, nil
}

func lockA3(ctx context.Context, tx pgx.Tx, id string) (*models.A3Item, error) {
	const lockA3Query = `
SELECT id, name, amount::text, status, comment, completed_at
FROM a3_items
WHERE id = $1
FOR UPDATE
`
	var (
		item   models.A3Item
		amount string
	)
	err := tx.QueryRow(ctx, lockA3Query, id).Scan(
		&item.ID,
		&item.Name,
		&amount,
		&item.Status,
		&item.Comment,
		&item.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrA3NotFound
		}
		return nil, fmt.Errorf("lock a3 item: %w", err)
	}
	if item.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return &item, nil
}

func saveA3(ctx context.Context, tx pgx.Tx, item *models.A3Item) error {
	const saveA3Query = `
UPDATE a3_items
SET name = $1,
    amount = $2::text::numeric,
    status = $3,
    comment = $4,
    completed_at = $5
WHERE id = $6
`
	_, err := tx.Exec(
		ctx,
		saveA3Query,
		item.Name,
		item.Amount.StringFixed(2),
		item.Status,
		item.Comment,
		item.CompletedAt,
		item.ID,
	)
	if err != nil {
		switch pgCode(err) {
		case pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
			return errors.ErrInvalidAmount
		}
		return fmt.Errorf("update a3 item: %w", err)
	}
	return nil
}

func (s *Storage) UpdateA3Status(ctx context.Context, id, userID string, status models.A3Status, comment *string, now time.Time) (*models.A3Item, error) {
	if !validID(id) {
		return nil, errors.ErrA3NotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		item, err := lockA3(ctx, tx, id)
		if err != nil {
			return err
		}

		var assigned bool
		err = tx.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM a3_assignments WHERE a3_id = $1 AND user_id = $2)`,
			id,
			userID,
		).Scan(&assigned)
		if err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		if !assigned {
			return errors.ErrNotAssignedToA3
		}

		item.SetStatus(status, comment, now)
		return saveA3(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.GetA3Item(ctx, id)
}

func (s *Storage) UpdateA3Item(ctx context.Context, id string, patch models.A3Patch, now time.Time) (*models.A3Item, []string, error) {
	if !validID(id) {
		return nil, nil, errors.ErrA3NotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var previous []string
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		item, err := lockA3(ctx, tx, id)
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `SELECT user_id::text FROM a3_assignments WHERE a3_id = $1`, id)
		if err != nil {
			return fmt.Errorf("select assignments: %w", err)
		}
		previous, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect assignments: %w", err)
		}

		patch.Apply(item, now)
		if err := saveA3(ctx, tx, item); err != nil {
			return err
		}

		if patch.Assignees == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM a3_assignments WHERE a3_id = $1`, id); err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		return insertAssignments(ctx, tx, insertA3AssignmentsQuery, id, patch.Assignees)
	})
	if err != nil {
		return nil, nil, err
	}

	item, err := s.GetA3Item(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return item, previous, nil
}

func (s *Storage) DeleteA3Item(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.ErrA3NotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, `DELETE FROM a3_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete a3 item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrA3NotFound
	}
	return nil
}
