package todo

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Repository kept in process memory. It backs the
// "memory" store driver and the handler tests.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	todos  []Todo
	now    func() time.Time
}

// NewMemoryStore uses clock for timestamps; nil means time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{nextID: 1, now: clock}
}

func (m *MemoryStore) List(ctx context.Context, userID string) ([]Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	todos := []Todo{}
	for _, t := range m.todos {
		if t.UserID == userID {
			todos = append(todos, t)
		}
	}
	return todos, nil
}

func (m *MemoryStore) Get(ctx context.Context, userID string, id int64) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(userID, id)
	if i < 0 {
		return Todo{}, ErrNotFound
	}
	return m.todos[i], nil
}

func (m *MemoryStore) Create(ctx context.Context, userID, title string) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	todo := Todo{
		ID:        m.nextID,
		UserID:    userID,
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.nextID++
	m.todos = append(m.todos, todo)
	return todo, nil
}

func (m *MemoryStore) Update(ctx context.Context, userID string, id int64, patch UpdateRequest) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(userID, id)
	if i < 0 {
		return Todo{}, ErrNotFound
	}
	todo := &m.todos[i]
	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	todo.UpdatedAt = m.now().UTC()
	return *todo, nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID string, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(userID, id)
	if i < 0 {
		return ErrNotFound
	}
	m.todos = append(m.todos[:i], m.todos[i+1:]...)
	return nil
}

func (m *MemoryStore) indexOf(userID string, id int64) int {
	for i, t := range m.todos {
		if t.ID == id && t.UserID == userID {
			return i
		}
	}
	return -1
}
