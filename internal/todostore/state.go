package todostore

import (
	"maps"
	"slices"

	"go_todo/internal/stats"
	"go_todo/internal/todo"
)

type State struct {
	UserID         string
	Todos          []todo.Todo
	Loading        bool
	Adding         bool
	PendingToggles map[int64]struct{}
	PendingDeletes map[int64]struct{}
	Error          string
}

func initialState() State {
	return State{
		Todos:          []todo.Todo{},
		PendingToggles: map[int64]struct{}{},
		PendingDeletes: map[int64]struct{}{},
	}
}

func (s State) clone() State {
	out := s
	out.Todos = slices.Clone(s.Todos)
	out.PendingToggles = maps.Clone(s.PendingToggles)
	out.PendingDeletes = maps.Clone(s.PendingDeletes)
	return out
}

func (s State) IsToggling(id int64) bool {
	_, ok := s.PendingToggles[id]
	return ok
}

func (s State) IsDeleting(id int64) bool {
	_, ok := s.PendingDeletes[id]
	return ok
}

// Summary counts the mirrored todos the same way the server's stats
// endpoint does.
func (s State) Summary() stats.Summary {
	return stats.Summarize(s.Todos)
}

func (s State) CompletedCount() int {
	return s.Summary().Completed
}

// IsAllComplete is false for an empty list.
func (s State) IsAllComplete() bool {
	return s.Summary().AllCompleted
}
