// Package todostore is the client-side mirror of a user's todos. It tracks
// which items have a request in flight, keeps one error message for the UI
// and notifies subscribers after every state change.
package todostore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"go_todo/internal/todo"
)

const (
	ErrFetchFailed  = "Failed to fetch todos"
	ErrAddFailed    = "Failed to add todo"
	ErrUpdateFailed = "Failed to update todo"
	ErrDeleteFailed = "Failed to delete todo"
)

// API is the part of client.Client the store calls.
type API interface {
	ListTodos(ctx context.Context, userID string) ([]todo.Todo, error)
	CreateTodo(ctx context.Context, userID string, req todo.CreateRequest) (todo.Todo, error)
	UpdateTodo(ctx context.Context, userID string, id int64, patch todo.UpdateRequest) (todo.Todo, error)
	DeleteTodo(ctx context.Context, userID string, id int64) error
}

type Store struct {
	api    API
	logger *log.Logger

	mu    sync.Mutex
	state State
	// generation changes whenever the active user is replaced; results of
	// requests started under an older generation never touch data.
	generation uint64
	// op tokens identify which request owns a flag or pending marker
	seq       uint64
	loadOp    uint64
	addOp     uint64
	toggleOps map[int64]uint64
	deleteOps map[int64]uint64

	// notifyMu keeps listener calls in the order the states were produced.
	notifyMu  sync.Mutex
	listeners map[int]func(State)
	nextSub   int
}

func New(api API, logger *log.Logger) *Store {
	return &Store{
		api:       api,
		logger:    logger,
		state:     initialState(),
		toggleOps: map[int64]uint64{},
		deleteOps: map[int64]uint64{},
		listeners: map[int]func(State){},
	}
}

// State returns a snapshot that is safe to keep and read.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after each change. fn runs
// on the goroutine that caused the change; it may call State but must not
// call actions or Subscribe synchronously.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.listeners, id)
	}
}

// SetUser switches the active user and clears todos and error. It does
// not fetch.
func (s *Store) SetUser(userID string) {
	s.update(func(st *State) bool {
		st.UserID = userID
		st.Todos = []todo.Todo{}
		st.Error = ""
		s.generation++
		return true
	})
}

// Load replaces the collection with the server's list. Ignored while a load
// is running or when no user is set.
func (s *Store) Load(ctx context.Context) {
	var userID string
	var gen, op uint64
	started := s.update(func(st *State) bool {
		if st.UserID == "" || st.Loading {
			return false
		}
		op = s.nextOp()
		s.loadOp = op
		st.Loading = true
		st.Error = ""
		userID, gen = st.UserID, s.generation
		return true
	})
	if !started {
		return
	}

	todos, err := s.api.ListTodos(ctx, userID)

	s.update(func(st *State) bool {
		changed := false
		if s.loadOp == op {
			s.loadOp = 0
			st.Loading = false
			changed = true
		}
		if s.generation != gen {
			return changed
		}
		if err != nil {
			s.logger.Warn("load todos failed", "user", userID, "err", err)
			st.Error = ErrFetchFailed
			return true
		}
		st.Todos = slices.Clone(todos)
		if st.Todos == nil {
			st.Todos = []todo.Todo{}
		}
		return true
	})
}

// Add creates a todo and appends the server's record. Ignored while another
// add is running or when no user is set.
func (s *Store) Add(ctx context.Context, title string) {
	var userID string
	var gen, op uint64
	started := s.update(func(st *State) bool {
		if st.UserID == "" || st.Adding {
			return false
		}
		op = s.nextOp()
		s.addOp = op
		st.Adding = true
		userID, gen = st.UserID, s.generation
		return true
	})
	if !started {
		return
	}

	created, err := s.api.CreateTodo(ctx, userID, todo.CreateRequest{Title: title})

	s.update(func(st *State) bool {
		changed := false
		if s.addOp == op {
			s.addOp = 0
			st.Adding = false
			changed = true
		}
		if s.generation != gen {
			return changed
		}
		if err != nil {
			s.logger.Warn("add todo failed", "user", userID, "err", err)
			st.Error = ErrAddFailed
			return true
		}
		st.Todos = append(st.Todos, created)
		return true
	})
}

// Toggle flips t's completed flag on the server and replaces the local item
// with the returned record. A second call for the same id while the first
// is pending does nothing.
func (s *Store) Toggle(ctx context.Context, t todo.Todo) {
	var userID string
	var gen, op uint64
	started := s.update(func(st *State) bool {
		if st.UserID == "" {
			return false
		}
		if _, pending := st.PendingToggles[t.ID]; pending {
			return false
		}
		op = s.nextOp()
		s.toggleOps[t.ID] = op
		st.PendingToggles[t.ID] = struct{}{}
		userID, gen = st.UserID, s.generation
		return true
	})
	if !started {
		return
	}

	completed := !t.Completed
	updated, err := s.api.UpdateTodo(ctx, userID, t.ID, todo.UpdateRequest{Completed: &completed})

	s.update(func(st *State) bool {
		changed := false
		if s.toggleOps[t.ID] == op {
			delete(s.toggleOps, t.ID)
			delete(st.PendingToggles, t.ID)
			changed = true
		}
		if s.generation != gen {
			return changed
		}
		if err != nil {
			s.logger.Warn("toggle todo failed", "user", userID, "id", t.ID, "err", err)
			st.Error = ErrUpdateFailed
			return true
		}
		for i := range st.Todos {
			if st.Todos[i].ID == t.ID {
				st.Todos[i] = updated
			}
		}
		return true
	})
}

// Remove deletes the todo on the server and drops it locally. A second call
// for the same id while the first is pending does nothing.
func (s *Store) Remove(ctx context.Context, id int64) {
	var userID string
	var gen, op uint64
	started := s.update(func(st *State) bool {
		if st.UserID == "" {
			return false
		}
		if _, pending := st.PendingDeletes[id]; pending {
			return false
		}
		op = s.nextOp()
		s.deleteOps[id] = op
		st.PendingDeletes[id] = struct{}{}
		userID, gen = st.UserID, s.generation
		return true
	})
	if !started {
		return
	}

	err := s.api.DeleteTodo(ctx, userID, id)

	s.update(func(st *State) bool {
		changed := false
		if s.deleteOps[id] == op {
			delete(s.deleteOps, id)
			delete(st.PendingDeletes, id)
			changed = true
		}
		if s.generation != gen {
			return changed
		}
		if err != nil {
			s.logger.Warn("delete todo failed", "user", userID, "id", id, "err", err)
			st.Error = ErrDeleteFailed
			return true
		}
		st.Todos = slices.DeleteFunc(st.Todos, func(t todo.Todo) bool { return t.ID == id })
		return true
	})
}

func (s *Store) ClearError() {
	s.update(func(st *State) bool {
		if st.Error == "" {
			return false
		}
		st.Error = ""
		return true
	})
}

// Reset returns the store to its initial empty state.
func (s *Store) Reset() {
	s.update(func(st *State) bool {
		*st = initialState()
		s.generation++
		s.loadOp, s.addOp = 0, 0
		clear(s.toggleOps)
		clear(s.deleteOps)
		return true
	})
}

func (s *Store) nextOp() uint64 {
	s.seq++
	return s.seq
}

// update applies fn under the state lock and, when fn reports a change,
// hands the new snapshot to every listener. notifyMu is taken first so
// listeners see states in the order they were produced and may still call
// State.
func (s *Store) update(fn func(st *State) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		s.listeners[id](snapshot)
	}
	return true
}
