package todo

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const todoColumns = `id, user_id, title, completed, created_at, updated_at`

// Store is the PostgreSQL Repository.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// timestamp is truncated to the column precision so the value handed back
// matches what a later read returns.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Store) List(ctx context.Context, userID string) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *Store) Get(ctx context.Context, userID string, id int64) (Todo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	todo, err := scanTodo(row)
	if err != nil {
		return Todo{}, notFound(err)
	}
	return todo, nil
}

func (s *Store) Create(ctx context.Context, userID, title string) (Todo, error) {
	now := s.timestamp()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO todos (user_id, title, completed, created_at, updated_at)
		VALUES ($1, $2, FALSE, $3, $3)
		RETURNING `+todoColumns+`
	`, userID, title, now)
	return scanTodo(row)
}

func (s *Store) Update(ctx context.Context, userID string, id int64, patch UpdateRequest) (Todo, error) {
	// ownership check comes before any write
	if _, err := s.Get(ctx, userID, id); err != nil {
		return Todo{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE todos
		SET title = COALESCE($1, title),
			completed = COALESCE($2, completed),
			updated_at = $3
		WHERE id = $4 AND user_id = $5
		RETURNING `+todoColumns+`
	`, nullableString(patch.Title), nullableBool(patch.Completed), s.timestamp(), id, userID)
	todo, err := scanTodo(row)
	if err != nil {
		return Todo{}, notFound(err)
	}
	return todo, nil
}

func (s *Store) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM todos
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// removed by a concurrent request between the check and the delete
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
