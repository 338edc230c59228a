package taskcache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/taskcache/internal/sandbox"
	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const allFieldNames = "tag,startdate,duedate,duetime,star,priority,duedatemod,status,length,note,repeat,parent,folder,context,meta"

// env is a sandbox server with a manual clock and a cache path.
type env struct {
	srv   *sandbox.Server
	clock *sandbox.Clock
	path  string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clock := sandbox.NewClock(start)

	srv, err := sandbox.Open(t.Context(), sandbox.Options{Path: ":memory:", Now: clock.Now})
	require.NoError(t, err)

	t.Cleanup(func() { _ = srv.Close() })

	return &env{srv: srv, clock: clock, path: filepath.Join(t.TempDir(), "tasks.json")}
}

func (e *env) open(t *testing.T, completion taskcache.Completion, fields string) *taskcache.Cache {
	t.Helper()

	c, err := e.openErr(t, completion, fields)
	require.NoError(t, err)

	return c
}

func (e *env) openErr(t *testing.T, completion taskcache.Completion, fields string) (*taskcache.Cache, error) {
	t.Helper()

	return taskcache.Open(t.Context(), e.srv, taskcache.Options{
		Path:         e.path,
		Completion:   completion,
		Fields:       fields,
		Autosave:     true,
		UpdateOnOpen: true,
	})
}

// add creates a task directly on the server, bypassing any cache.
func (e *env) add(t *testing.T, task taskcache.Task) taskcache.Task {
	t.Helper()

	if task.Title == nil {
		task.Title = taskcache.Ptr(uuid.NewString())
	}

	added, err := e.srv.AddTasks(t.Context(), []taskcache.Task{task})
	require.NoError(t, err)

	return added[0]
}

func (e *env) edit(t *testing.T, task taskcache.Task) {
	t.Helper()

	_, err := e.srv.EditTasks(t.Context(), []taskcache.Task{task})
	require.NoError(t, err)
}

func (e *env) remove(t *testing.T, ids ...int64) {
	t.Helper()

	tasks := make([]taskcache.Task, len(ids))
	for i, id := range ids {
		tasks[i] = taskcache.Task{ID: id}
	}

	require.NoError(t, e.srv.DeleteTasks(t.Context(), tasks))
}

// requireInvariants checks what must hold for every store after every
// operation.
func requireInvariants(t *testing.T, c *taskcache.Cache) {
	t.Helper()

	s := c.TestStore()

	for id, task := range s.Tasks {
		require.Equal(t, id, task.ID, "map key must equal id")
		require.True(t, s.Completion.Admits(&task), "task %d fails the %s filter", id, s.Completion)
		require.True(t, s.Fields.Contains(task.Present()), "task %d carries %s outside %s", id, task.Present(), s.Fields)
	}
}

// faultyRemote fails chosen operations and counts calls to the rest.
type faultyRemote struct {
	taskcache.Remote

	deletedErr  error
	modifiedErr error
	calls       int
}

func (r *faultyRemote) FetchDeletedAfter(ctx context.Context, after time.Time) ([]taskcache.Deletion, error) {
	r.calls++

	if r.deletedErr != nil {
		return nil, r.deletedErr
	}

	return r.Remote.FetchDeletedAfter(ctx, after)
}

func (r *faultyRemote) FetchModifiedAfter(ctx context.Context, after time.Time, fields taskcache.FieldSet, completion taskcache.Completion) ([]taskcache.Task, error) {
	r.calls++

	if r.modifiedErr != nil {
		return nil, r.modifiedErr
	}

	return r.Remote.FetchModifiedAfter(ctx, after, fields, completion)
}

// scriptedRemote replays fixed batches. Writes are not supported.
type scriptedRemote struct {
	taskcache.Remote

	deletions []taskcache.Deletion
	updates   []taskcache.Task
	account   taskcache.Account
}

func (r *scriptedRemote) FetchDeletedAfter(context.Context, time.Time) ([]taskcache.Deletion, error) {
	return r.deletions, nil
}

func (r *scriptedRemote) FetchModifiedAfter(_ context.Context, _ time.Time, fields taskcache.FieldSet, _ taskcache.Completion) ([]taskcache.Task, error) {
	out := make([]taskcache.Task, len(r.updates))
	for i, t := range r.updates {
		out[i] = t.Strip(fields)
	}

	return out, nil
}

func (r *scriptedRemote) Account(context.Context) (taskcache.Account, error) {
	return r.account, nil
}
