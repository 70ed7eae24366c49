package todo

import (
	"context"
	"errors"
)

// ErrNotFound covers both a missing todo and one owned by another user.
var ErrNotFound = errors.New("todo not found")

// Repository is scoped by user: every operation only sees rows whose
// user id matches.
type Repository interface {
	List(ctx context.Context, userID string) ([]Todo, error)
	Get(ctx context.Context, userID string, id int64) (Todo, error)
	Create(ctx context.Context, userID, title string) (Todo, error)
	Update(ctx context.Context, userID string, id int64, patch UpdateRequest) (Todo, error)
	Delete(ctx context.Context, userID string, id int64) error
}
