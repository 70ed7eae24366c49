package stats

import (
	"context"

	"go_todo/internal/todo"
)

type Summary struct {
	Total        int  `json:"total"`
	Completed    int  `json:"completed"`
	AllCompleted bool `json:"allCompleted"`
}

// Lister is the slice of todo.Repository the summary needs.
type Lister interface {
	List(ctx context.Context, userID string) ([]todo.Todo, error)
}

type Store struct {
	todos Lister
}

func NewStore(todos Lister) *Store {
	return &Store{todos: todos}
}

func (s *Store) Summary(ctx context.Context, userID string) (Summary, error) {
	items, err := s.todos.List(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(items), nil
}

// Summarize counts completed items. AllCompleted is false for an empty list.
func Summarize(items []todo.Todo) Summary {
	summary := Summary{Total: len(items)}
	for _, t := range items {
		if t.Completed {
			summary.Completed++
		}
	}
	summary.AllCompleted = summary.Total > 0 && summary.Completed == summary.Total
	return summary
}
