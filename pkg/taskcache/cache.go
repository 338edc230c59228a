package taskcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Options configure [Open].
type Options struct {
	// Path is the store file. Empty keeps the store in memory only.
	Path string

	// Completion restricts which tasks are cached.
	Completion Completion

	// Fields is the comma-separated list of optional fields to cache.
	Fields string

	// Autosave writes the store after every successful poll and after creating
	// a fresh store.
	Autosave bool

	// UpdateOnOpen polls the remote before Open returns.
	UpdateOnOpen bool

	// Logger receives debug and info records. Nil discards them.
	Logger *slog.Logger
}

// Cache mirrors the tasks of a [Remote] locally.
//
// A Cache has a single owner and is not safe for concurrent use.
type Cache struct {
	remote   Remote
	store    *Store
	path     string
	autosave bool
	log      *slog.Logger

	lastUpdates   []Task
	lastDeletions []Deletion
}

// Open loads the store at opts.Path, or creates a fresh one, and returns a
// cache backed by remote.
//
// Reopening a store with a narrower filter (completion any to a specific
// value, or fewer fields) rewrites the store and drops what no longer fits.
// Widening fails with [ErrConfigConflict].
func Open(ctx context.Context, remote Remote, opts Options) (*Cache, error) {
	fields, err := ParseFieldSet(opts.Fields)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	want := Config{Completion: opts.Completion, Fields: fields}

	c := &Cache{
		remote:   remote,
		path:     opts.Path,
		autosave: opts.Autosave,
		log:      log,
	}

	store, err := c.loadStore(want)
	if err != nil {
		return nil, err
	}

	c.store = store

	narrowed, err := c.narrow(want)
	if err != nil {
		return nil, err
	}

	if narrowed && c.autosave {
		err = c.Save()
		if err != nil {
			return nil, err
		}
	}

	if opts.UpdateOnOpen {
		_, err = c.Poll(ctx)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Cache) loadStore(want Config) (*Store, error) {
	if c.path == "" {
		return NewStore(want), nil
	}

	store, err := Load(c.path)
	if errors.Is(err, ErrStorageMissing) {
		c.log.Info("creating cache", "path", c.path, "completion", want.Completion, "fields", want.Fields.String())

		store = NewStore(want)

		if c.autosave {
			err = store.Save(c.path)
			if err != nil {
				return nil, err
			}
		}

		return store, nil
	}

	if err != nil {
		return nil, err
	}

	from := store.Version

	err = Migrate(store, want)
	if err != nil {
		return nil, &StoreError{Op: "migrate", Path: c.path, Err: err}
	}

	if from != store.Version {
		c.log.Info("migrated cache", "path", c.path, "from", from, "to", store.Version)
	}

	return store, nil
}

// narrow applies want to the store when it is at most as wide as the store's
// own filter. It reports whether the store changed.
func (c *Cache) narrow(want Config) (bool, error) {
	s := c.store

	if !s.Completion.Narrows(want.Completion) {
		return false, fmt.Errorf("%w: cache holds %s tasks, cannot reopen with completion %s",
			ErrConfigConflict, s.Completion, want.Completion)
	}

	if extra := s.Fields.Missing(want.Fields); extra != 0 {
		return false, fmt.Errorf("%w: cache holds fields %q, cannot reopen with additional fields %q",
			ErrConfigConflict, s.Fields.String(), extra.String())
	}

	if s.Config() == want {
		return false, nil
	}

	c.log.Info("narrowing cache",
		"completion_from", s.Completion, "completion_to", want.Completion,
		"fields_from", s.Fields.String(), "fields_to", want.Fields.String())

	s.Completion = want.Completion
	s.Fields = want.Fields

	for id, t := range s.Tasks {
		if !s.Completion.Admits(&t) {
			delete(s.Tasks, id)

			continue
		}

		s.Tasks[id] = t.Strip(s.Fields)
	}

	return true, nil
}

// Save writes the store to its path. A cache without a path has nothing to
// save.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}

	return c.store.Save(c.path)
}

// Path returns the store file path.
func (c *Cache) Path() string { return c.path }

// Config returns the filter the cache is maintaining.
func (c *Cache) Config() Config { return c.store.Config() }

// Len returns the number of cached tasks.
func (c *Cache) Len() int { return len(c.store.Tasks) }

// Tasks returns copies of the cached tasks ordered by id, without polling.
func (c *Cache) Tasks() []Task { return c.store.sortedTasks() }

// Get returns a copy of the cached task with id, without polling.
func (c *Cache) Get(id int64) (Task, bool) {
	t, ok := c.store.Tasks[id]
	if !ok {
		return Task{}, false
	}

	return t.Clone(), true
}

// NewestUpdate returns the latest modification time absorbed.
func (c *Cache) NewestUpdate() time.Time { return c.store.NewestUpdate }

// NewestDelete returns the latest deletion time absorbed.
func (c *Cache) NewestDelete() time.Time { return c.store.NewestDelete }

// LastUpdates returns the tasks fetched by the latest successful poll, before
// filtering.
func (c *Cache) LastUpdates() []Task { return cloneTasks(c.lastUpdates) }

// LastDeletions returns the deletion notices fetched by the latest successful
// poll.
func (c *Cache) LastDeletions() []Deletion {
	out := make([]Deletion, len(c.lastDeletions))
	copy(out, c.lastDeletions)

	return out
}

func (c *Cache) String() string {
	return fmt.Sprintf("<Cache %d tasks, newest %s>", len(c.store.Tasks), c.store.NewestUpdate.UTC().Format(time.RFC3339))
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}

	return out
}
