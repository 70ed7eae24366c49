package todostore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_todo/internal/logging"
	"go_todo/internal/todo"
)

var errBoom = errors.New("boom")

type fakeAPI struct {
	list   func(ctx context.Context, userID string) ([]todo.Todo, error)
	create func(ctx context.Context, userID string, req todo.CreateRequest) (todo.Todo, error)
	update func(ctx context.Context, userID string, id int64, patch todo.UpdateRequest) (todo.Todo, error)
	delete func(ctx context.Context, userID string, id int64) error
}

func (f *fakeAPI) ListTodos(ctx context.Context, userID string) ([]todo.Todo, error) {
	return f.list(ctx, userID)
}

func (f *fakeAPI) CreateTodo(ctx context.Context, userID string, req todo.CreateRequest) (todo.Todo, error) {
	return f.create(ctx, userID, req)
}

func (f *fakeAPI) UpdateTodo(ctx context.Context, userID string, id int64, patch todo.UpdateRequest) (todo.Todo, error) {
	return f.update(ctx, userID, id, patch)
}

func (f *fakeAPI) DeleteTodo(ctx context.Context, userID string, id int64) error {
	return f.delete(ctx, userID, id)
}

var (
	t0       = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	milk     = todo.Todo{ID: 1, UserID: "alice", Title: "Buy milk", CreatedAt: t0, UpdatedAt: t0}
	bread    = todo.Todo{ID: 2, UserID: "alice", Title: "Bake bread", CreatedAt: t0, UpdatedAt: t0}
	ctx      = context.Background()
	noLogger = logging.Discard()
)

// loadedStore returns a store for alice already holding milk and bread.
func loadedStore(t *testing.T, api *fakeAPI) *Store {
	t.Helper()
	if api.list == nil {
		api.list = func(context.Context, string) ([]todo.Todo, error) {
			return []todo.Todo{milk, bread}, nil
		}
	}
	s := New(api, noLogger)
	s.SetUser("alice")
	s.Load(ctx)
	require.Len(t, s.State().Todos, 2)
	return s
}

// blocking returns a gate: the hook signals entered and waits for release.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gate) wait() {
	g.entered <- struct{}{}
	<-g.release
}

func TestInitialState(t *testing.T) {
	s := New(&fakeAPI{}, noLogger)
	st := s.State()

	assert.Empty(t, st.UserID)
	assert.NotNil(t, st.Todos)
	assert.Empty(t, st.Todos)
	assert.False(t, st.Loading)
	assert.False(t, st.Adding)
	assert.Empty(t, st.Error)
	assert.False(t, st.IsAllComplete())
}

func TestSetUser_ClearsTodosAndErrorWithoutFetching(t *testing.T) {
	var fetched atomic.Int32
	api := &fakeAPI{list: func(context.Context, string) ([]todo.Todo, error) {
		fetched.Add(1)
		return []todo.Todo{milk}, nil
	}}
	s := New(api, noLogger)
	s.SetUser("alice")
	s.Load(ctx)
	require.Equal(t, int32(1), fetched.Load())

	s.SetUser("bob")
	st := s.State()
	assert.Equal(t, "bob", st.UserID)
	assert.Empty(t, st.Todos)
	assert.Equal(t, int32(1), fetched.Load())
}

func TestLoad_NoUserIsNoop(t *testing.T) {
	api := &fakeAPI{list: func(context.Context, string) ([]todo.Todo, error) {
		t.Fatal("list must not be called without a user")
		return nil, nil
	}}
	s := New(api, noLogger)
	s.Load(ctx)
	assert.False(t, s.State().Loading)
}

func TestLoad_ReplacesCollection(t *testing.T) {
	var gotUser string
	api := &fakeAPI{list: func(_ context.Context, userID string) ([]todo.Todo, error) {
		gotUser = userID
		return []todo.Todo{milk, bread}, nil
	}}
	s := New(api, noLogger)
	s.SetUser("alice")
	s.Load(ctx)

	st := s.State()
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, []todo.Todo{milk, bread}, st.Todos)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestLoad_FailureKeepsPreviousCollection(t *testing.T) {
	api := &fakeAPI{}
	s := loadedStore(t, api)
	api.list = func(context.Context, string) ([]todo.Todo, error) { return nil, errBoom }

	s.Load(ctx)

	st := s.State()
	assert.Equal(t, ErrFetchFailed, st.Error)
	assert.False(t, st.Loading)
	assert.Len(t, st.Todos, 2)
}

func TestLoad_StartClearsError(t *testing.T) {
	api := &fakeAPI{}
	s := loadedStore(t, api)
	api.list = func(context.Context, string) ([]todo.Todo, error) { return nil, errBoom }
	s.Load(ctx)
	require.Equal(t, ErrFetchFailed, s.State().Error)

	g := newGate()
	api.list = func(context.Context, string) ([]todo.Todo, error) {
		g.wait()
		return []todo.Todo{milk}, nil
	}
	done := make(chan struct{})
	go func() { s.Load(ctx); close(done) }()
	<-g.entered

	st := s.State()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Error)

	close(g.release)
	<-done
}

func TestLoad_ConcurrentCallsAreIgnored(t *testing.T) {
	var calls atomic.Int32
	g := newGate()
	api := &fakeAPI{list: func(context.Context, string) ([]todo.Todo, error) {
		calls.Add(1)
		g.wait()
		return []todo.Todo{milk}, nil
	}}
	s := New(api, noLogger)
	s.SetUser("alice")

	done := make(chan struct{})
	go func() { s.Load(ctx); close(done) }()
	<-g.entered

	s.Load(ctx)
	s.Load(ctx)
	close(g.release)
	<-done

	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, s.State().Loading)
}

func TestAdd_AppendsServerRecord(t *testing.T) {
	created := todo.Todo{ID: 3, UserID: "alice", Title: "Walk dog", CreatedAt: t0, UpdatedAt: t0}
	var gotReq todo.CreateRequest
	api := &fakeAPI{create: func(_ context.Context, userID string, req todo.CreateRequest) (todo.Todo, error) {
		gotReq = req
		return created, nil
	}}
	s := loadedStore(t, api)

	s.Add(ctx, "Walk dog")

	st := s.State()
	assert.Equal(t, "Walk dog", gotReq.Title)
	assert.Equal(t, []todo.Todo{milk, bread, created}, st.Todos)
	assert.False(t, st.Adding)
}

func TestAdd_FailureSetsErrorAndClearsFlag(t *testing.T) {
	api := &fakeAPI{create: func(context.Context, string, todo.CreateRequest) (todo.Todo, error) {
		return todo.Todo{}, errBoom
	}}
	s := loadedStore(t, api)

	s.Add(ctx, "Walk dog")

	st := s.State()
	assert.Equal(t, ErrAddFailed, st.Error)
	assert.False(t, st.Adding)
	assert.Len(t, st.Todos, 2)
}

func TestAdd_NoUserAndReentrancyAreNoops(t *testing.T) {
	var calls atomic.Int32
	g := newGate()
	api := &fakeAPI{create: func(_ context.Context, userID string, req todo.CreateRequest) (todo.Todo, error) {
		calls.Add(1)
		g.wait()
		return todo.Todo{ID: 9, UserID: userID, Title: req.Title}, nil
	}}
	s := New(api, noLogger)
	s.Add(ctx, "ignored")
	assert.Equal(t, int32(0), calls.Load())

	s.SetUser("alice")
	done := make(chan struct{})
	go func() { s.Add(ctx, "first"); close(done) }()
	<-g.entered
	assert.True(t, s.State().Adding)

	s.Add(ctx, "second")
	close(g.release)
	<-done

	st := s.State()
	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, st.Todos, 1)
	assert.Equal(t, "first", st.Todos[0].Title)
}

func TestToggle_SendsFlippedFlagAndUsesServerRecord(t *testing.T) {
	later := t0.Add(time.Minute)
	var gotPatch todo.UpdateRequest
	api := &fakeAPI{update: func(_ context.Context, userID string, id int64, patch todo.UpdateRequest) (todo.Todo, error) {
		gotPatch = patch
		updated := milk
		updated.Completed = true
		updated.UpdatedAt = later
		return updated, nil
	}}
	s := loadedStore(t, api)

	s.Toggle(ctx, milk)

	require.NotNil(t, gotPatch.Completed)
	assert.True(t, *gotPatch.Completed)
	assert.Nil(t, gotPatch.Title)

	st := s.State()
	assert.True(t, st.Todos[0].Completed)
	assert.Equal(t, later, st.Todos[0].UpdatedAt)
	assert.Equal(t, bread, st.Todos[1])
	assert.False(t, st.IsToggling(milk.ID))
	assert.Equal(t, 1, st.CompletedCount())
}

func TestToggle_TwiceRapidlyIssuesOneRequest(t *testing.T) {
	var calls atomic.Int32
	g := newGate()
	api := &fakeAPI{update: func(_ context.Context, _ string, id int64, patch todo.UpdateRequest) (todo.Todo, error) {
		calls.Add(1)
		g.wait()
		updated := milk
		updated.Completed = *patch.Completed
		return updated, nil
	}}
	s := loadedStore(t, api)

	done := make(chan struct{})
	go func() { s.Toggle(ctx, milk); close(done) }()
	<-g.entered

	s.Toggle(ctx, milk)
	assert.True(t, s.State().IsToggling(milk.ID))

	close(g.release)
	<-done

	st := s.State()
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, st.IsToggling(milk.ID))
	assert.True(t, st.Todos[0].Completed)
}

func TestToggle_DifferentItemsRunConcurrently(t *testing.T) {
	var calls atomic.Int32
	g := newGate()
	api := &fakeAPI{update: func(_ context.Context, _ string, id int64, patch todo.UpdateRequest) (todo.Todo, error) {
		calls.Add(1)
		g.wait()
		return todo.Todo{ID: id, UserID: "alice", Completed: *patch.Completed}, nil
	}}
	s := loadedStore(t, api)

	var wg sync.WaitGroup
	for _, item := range []todo.Todo{milk, bread} {
		wg.Add(1)
		go func(item todo.Todo) {
			defer wg.Done()
			s.Toggle(ctx, item)
		}(item)
	}
	<-g.entered
	<-g.entered

	st := s.State()
	assert.True(t, st.IsToggling(milk.ID))
	assert.True(t, st.IsToggling(bread.ID))

	close(g.release)
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, s.State().IsAllComplete())
}

func TestToggle_FailureLeavesItemUnchanged(t *testing.T) {
	api := &fakeAPI{update: func(context.Context, string, int64, todo.UpdateRequest) (todo.Todo, error) {
		return todo.Todo{}, errBoom
	}}
	s := loadedStore(t, api)

	s.Toggle(ctx, milk)

	st := s.State()
	assert.Equal(t, ErrUpdateFailed, st.Error)
	assert.Equal(t, milk, st.Todos[0])
	assert.False(t, st.IsToggling(milk.ID))
}

func TestRemove_DropsItem(t *testing.T) {
	var gotID int64
	api := &fakeAPI{delete: func(_ context.Context, _ string, id int64) error {
		gotID = id
		return nil
	}}
	s := loadedStore(t, api)

	s.Remove(ctx, milk.ID)

	st := s.State()
	assert.Equal(t, milk.ID, gotID)
	assert.Equal(t, []todo.Todo{bread}, st.Todos)
	assert.False(t, st.IsDeleting(milk.ID))
}

func TestRemove_FailureKeepsItem(t *testing.T) {
	api := &fakeAPI{delete: func(context.Context, string, int64) error { return errBoom }}
	s := loadedStore(t, api)

	s.Remove(ctx, milk.ID)

	st := s.State()
	assert.Equal(t, ErrDeleteFailed, st.Error)
	assert.Len(t, st.Todos, 2)
	assert.False(t, st.IsDeleting(milk.ID))
}

func TestRemove_ReentrantIsNoop(t *testing.T) {
	var calls atomic.Int32
	g := newGate()
	api := &fakeAPI{delete: func(context.Context, string, int64) error {
		calls.Add(1)
		g.wait()
		return nil
	}}
	s := loadedStore(t, api)

	done := make(chan struct{})
	go func() { s.Remove(ctx, milk.ID); close(done) }()
	<-g.entered

	s.Remove(ctx, milk.ID)
	assert.True(t, s.State().IsDeleting(milk.ID))

	close(g.release)
	<-done
	assert.Equal(t, int32(1), calls.Load())
}

func TestStaleResultAfterUserSwitchIsDropped(t *testing.T) {
	g := newGate()
	api := &fakeAPI{}
	s := loadedStore(t, api)
	api.update = func(context.Context, string, int64, todo.UpdateRequest) (todo.Todo, error) {
		g.wait()
		return todo.Todo{}, errBoom
	}

	done := make(chan struct{})
	go func() { s.Toggle(ctx, milk); close(done) }()
	<-g.entered

	s.SetUser("bob")
	close(g.release)
	<-done

	st := s.State()
	assert.Equal(t, "bob", st.UserID)
	assert.Empty(t, st.Error)
	assert.Empty(t, st.Todos)
	assert.False(t, st.IsToggling(milk.ID))
}

func TestReset_ReturnsToInitialState(t *testing.T) {
	api := &fakeAPI{create: func(context.Context, string, todo.CreateRequest) (todo.Todo, error) {
		return todo.Todo{}, errBoom
	}}
	s := loadedStore(t, api)
	s.Add(ctx, "x")
	require.NotEmpty(t, s.State().Error)

	s.Reset()

	assert.Equal(t, New(api, noLogger).State(), s.State())
}

func TestClearError(t *testing.T) {
	api := &fakeAPI{delete: func(context.Context, string, int64) error { return errBoom }}
	s := loadedStore(t, api)
	s.Remove(ctx, milk.ID)
	require.Equal(t, ErrDeleteFailed, s.State().Error)

	s.ClearError()
	assert.Empty(t, s.State().Error)
}

func TestSubscribe_ReceivesSnapshotsUntilUnsubscribed(t *testing.T) {
	api := &fakeAPI{list: func(context.Context, string) ([]todo.Todo, error) {
		return []todo.Todo{milk}, nil
	}}
	s := New(api, noLogger)

	var seen []State
	unsubscribe := s.Subscribe(func(st State) {
		seen = append(seen, st)
		_ = s.State()
	})

	s.SetUser("alice")
	s.Load(ctx)

	require.Len(t, seen, 3)
	assert.Equal(t, "alice", seen[0].UserID)
	assert.True(t, seen[1].Loading)
	assert.False(t, seen[2].Loading)
	assert.Equal(t, []todo.Todo{milk}, seen[2].Todos)

	seen[2].Todos[0].Title = "mutated"
	assert.Equal(t, "Buy milk", s.State().Todos[0].Title)

	unsubscribe()
	s.Reset()
	assert.Len(t, seen, 3)
}
