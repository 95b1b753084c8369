package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/domain/models"
)

const selectTaskQuery = `
SELECT t.id,
       t.title,
       t.description,
       t.priority,
       t.deadline,
       t.status,
       t.created_by,
       COALESCE(c.name, '') AS created_by_name,
       t.created_at,
       t.completed_at,
       COALESCE((SELECT json_agg(json_build_object('id', u.id, 'name', u.name, 'email', u.email) ORDER BY u.name)
                 FROM task_assignments ta
                 JOIN users u ON u.id = ta.user_id
                 WHERE ta.task_id = t.id), '[]') AS assignees,
       (SELECT tu.comment
        FROM task_updates tu
        WHERE tu.task_id = t.id AND tu.comment <> ''
        ORDER BY tu.created_at DESC, tu.seq DESC
        LIMIT 1) AS latest_comment
FROM tasks t
LEFT JOIN users c ON c.id = t.created_by
`

const taskOrder = `
ORDER BY t.deadline ASC,
         CASE t.priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END DESC,
         t.created_at ASC
`

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Deadline,
		&task.Status,
		&task.CreatedBy,
		&task.CreatedByName,
		&task.CreatedAt,
		&task.CompletedAt,
		&task.Assignees,
		&task.LatestComment,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func insertAssignments(ctx context.Context, tx pgx.Tx, query, parentID string, userIDs []string) error {
	if _, err := tx.Exec(ctx, query, parentID, userIDs); err != nil {
		switch pgCode(err) {
		case pgerrcode.ForeignKeyViolation, pgerrcode.InvalidTextRepresentation:
			return errors.ErrInvalidAssignee
		}
		return fmt.Errorf("insert assignments: %w", err)
	}
	return nil
}

const insertTaskAssignmentsQuery = `
INSERT INTO task_assignments (task_id, user_id)
SELECT $1, unnest($2::uuid[])
`

func (s *Storage) CreateTask(ctx context.Context, task *models.Task, assignees []string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const insertTaskQuery = `
INSERT INTO tasks (id, title, description, priority, deadline, status, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			insertTaskQuery,
			task.ID,
			task.Title,
			task.Description,
			task.Priority,
			task.Deadline,
			task.Status,
			task.CreatedBy,
			task.CreatedAt,
		)
		if err != nil {
			if pgCode(err) == pgerrcode.ForeignKeyViolation {
				return errors.ErrMissingRef
			}
			return fmt.Errorf("insert task: %w", err)
		}
		return insertAssignments(ctx, tx, insertTaskAssignmentsQuery, task.ID, assignees)
	})
}

func (s *Storage) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var assignee *string
	if filter.AssigneeID != "" {
		if !validID(filter.AssigneeID) {
			return []models.Task{}, nil
		}
		assignee = &filter.AssigneeID
	}

	rows, err := s.pool.Query(ctx, selectTaskQuery+`
WHERE $1::uuid IS NULL
   OR EXISTS (SELECT 1 FROM task_assignments x WHERE x.task_id = t.id AND x.user_id = $1)
`+taskOrder, assignee)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *Storage) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, errors.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task, err := scanTask(s.pool.QueryRow(ctx, selectTaskQuery+`WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("select task: %w", err)
	}
	return task, nil
}

func (s *Storage) ListTaskUpdates(ctx context.Context, taskID string) ([]models.TaskUpdate, error) {
	if !validID(taskID) {
		return []models.TaskUpdate{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const selectUpdatesQuery = `
SELECT tu.id,
       tu.task_id,
       tu.user_id,
       COALESCE(u.name, '') AS user_name,
       tu.status_change,
       tu.comment,
       tu.created_at
FROM task_updates tu
LEFT JOIN users u ON u.id = tu.user_id
WHERE tu.task_id = $1
ORDER BY tu.created_at DESC, tu.seq DESC
`
	rows, err := s.pool.Query(ctx, selectUpdatesQuery, taskID)
	if err != nil {
		return nil, fmt.Errorf("select task updates: %w", err)
	}
	updates, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.TaskUpdate])
	if err != nil {
		return nil, fmt.Errorf("collect task updates: %w", err)
	}
	return updates, nil
}

// lockTask reads the mutable columns of a task under a row lock.
func lockTask(ctx context.Context, tx pgx.Tx, id string) (*models.Task, error) {
	const lockTaskQuery = `
SELECT id, title, description, priority, deadline, status, completed_at
FROM tasks
WHERE id = $1
FOR UPDATE
`
	task := models.Task{}
	err := tx.QueryRow(ctx, lockTaskQuery, id).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Deadline,
		&task.Status,
		&task.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("lock task: %w", err)
	}
	return &task, nil
}

const saveTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    priority = $3,
    deadline = $4,
    status = $5,
    completed_at = $6
WHERE id = $7
`

func saveTask(ctx context.Context, tx pgx.Tx, task *models.Task) error {
	_, err := tx.Exec(
		ctx,
		saveTaskQuery,
		task.Title,
		task.Description,
		task.Priority,
		task.Deadline,
		task.Status,
		task.CompletedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *Storage) UpdateTaskStatus(ctx context.Context, update models.TaskUpdate) (*models.Task, error) {
	if !validID(update.TaskID) {
		return nil, errors.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const insertUpdateQuery = `
INSERT INTO task_updates (id, task_id, user_id, status_change, comment, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		task, err := lockTask(ctx, tx, update.TaskID)
		if err != nil {
			return err
		}

		var assigned bool
		err = tx.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM task_assignments WHERE task_id = $1 AND user_id = $2)`,
			update.TaskID,
			update.UserID,
		).Scan(&assigned)
		if err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		if !assigned {
			return errors.ErrNotAssignedToTask
		}

		task.SetStatus(update.StatusChange, update.CreatedAt)
		if err := saveTask(ctx, tx, task); err != nil {
			return err
		}
		_, err = tx.Exec(
			ctx,
			insertUpdateQuery,
			update.ID,
			update.TaskID,
			update.UserID,
			update.StatusChange,
			update.Comment,
			update.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert task update: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(ctx, update.TaskID)
}

func (s *Storage) UpdateTask(ctx context.Context, id string, patch models.TaskPatch, now time.Time) (*models.Task, []string, error) {
	if !validID(id) {
		return nil, nil, errors.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var previous []string
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		task, err := lockTask(ctx, tx, id)
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `SELECT user_id::text FROM task_assignments WHERE task_id = $1`, id)
		if err != nil {
			return fmt.Errorf("select assignments: %w", err)
		}
		previous, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect assignments: %w", err)
		}

		patch.Apply(task, now)
		if err := saveTask(ctx, tx, task); err != nil {
			return err
		}

		if patch.Assignees == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM task_assignments WHERE task_id = $1`, id); err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		return insertAssignments(ctx, tx, insertTaskAssignmentsQuery, id, patch.Assignees)
	})
	if err != nil {
		return nil, nil, err
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return task, previous, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	return nil
}
