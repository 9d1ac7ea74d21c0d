package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/geocoder89/todohub/internal/domain/task"
	"github.com/geocoder89/todohub/internal/observability"
)

const taskColumns = `id, owner_id, title, description, due_date, priority, status, created_at, updated_at`

type TasksRepo struct {
	db   DB
	prom *observability.Prom
}

func NewTasksRepo(db DB, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{db: db, prom: prom}
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.prom.ObserveDB("tasks.create", func() error {
		_, e := r.db.Exec(ctx,
			`INSERT INTO tasks (`+taskColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			t.ID, t.OwnerID, t.Title, t.Description, t.DueDate,
			string(t.Priority), string(t.Status), t.CreatedAt, t.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) ListByOwner(ctx context.Context, ownerID string, f task.ListFilter) ([]task.Task, error) {
	conds := []string{"owner_id = $1"}
	args := []any{ownerID}

	argsPosition := 2

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*f.Status))
		argsPosition++
	}

	if f.Priority != nil {
		conds = append(conds, fmt.Sprintf("priority = $%d", argsPosition))
		args = append(args, string(*f.Priority))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, id DESC`

	output := make([]task.Task, 0)

	err := r.prom.ObserveDB("tasks.list_by_owner", func() error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			output = append(output, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.get_by_id", func() error {
		var e error
		t, e = scanTask(r.db.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		))
		if errors.Is(e, pgx.ErrNoRows) {
			return nil
		}
		return e
	})

	if err != nil {
		return task.Task{}, err
	}
	if t.ID == "" {
		return task.Task{}, task.ErrNotFound
	}

	return t, nil
}

// Update applies the patch in one statement. Absent fields are kept through
// COALESCE, and the owner check lives in the WHERE clause so a foreign task
// looks exactly like a missing one.
func (r *TasksRepo) Update(ctx context.Context, ownerID, id string, p task.Patch) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.update", func() error {
		var e error
		t, e = scanTask(r.db.QueryRow(ctx,
			`UPDATE tasks
				SET title = COALESCE($3, title),
					description = COALESCE($4, description),
					due_date = CASE WHEN $5::boolean THEN NULL ELSE COALESCE($6, due_date) END,
					priority = COALESCE($7, priority),
					status = COALESCE($8, status),
					updated_at = NOW()
			WHERE id = $1 AND owner_id = $2
			RETURNING `+taskColumns,
			id,
			ownerID,
			trimmed(p.Title),
			trimmed(p.Description),
			p.ClearDueDate,
			p.DueDate,
			enumArg(p.Priority),
			enumArg(p.Status),
		))
		if errors.Is(e, pgx.ErrNoRows) {
			return nil
		}
		return e
	})

	if err != nil {
		return task.Task{}, err
	}
	if t.ID == "" {
		return task.Task{}, task.ErrNotFound
	}

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	var affected int64

	err := r.prom.ObserveDB("tasks.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t        task.Task
		due      pgtype.Timestamptz
		priority string
		status   string
	)

	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&due,
		&priority,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, err
	}

	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	t.Priority = task.Priority(priority)
	t.Status = task.Status(status)

	return t, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func enumArg[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
