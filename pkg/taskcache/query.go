package taskcache

import (
	"context"
	"fmt"
	"time"
)

// Query selects cached tasks for [Cache.Read]. The zero value matches every
// task and exposes no optional fields.
type Query struct {
	// ID selects a single task. Zero means any id.
	ID int64

	// Completion filters by completion state. Must be [CompletionAny] or
	// equal to the cache's own filter when that is specific.
	Completion Completion

	// After and Before bound Modified exclusively. Zero means unbounded.
	After  time.Time
	Before time.Time

	// Fields lists the optional fields to return. Must be cached.
	Fields string
}

func (c *Cache) validate(q Query) (FieldSet, error) {
	fields, err := ParseFieldSet(q.Fields)
	if err != nil {
		return 0, err
	}

	if missing := c.store.Fields.Missing(fields); missing != 0 {
		return 0, fmt.Errorf("%w: %s (cached: %q)", ErrFieldNotCached, missing, c.store.Fields.String())
	}

	cached := c.store.Completion
	if q.Completion != CompletionAny && cached != CompletionAny && q.Completion != cached {
		return 0, fmt.Errorf("%w: cache holds %s tasks, query asks for %s", ErrConfigConflict, cached, q.Completion)
	}

	return fields, nil
}

// Read polls the remote and returns the cached tasks matching q, ordered by
// id. Validation happens before the poll, so a bad query never touches the
// remote.
func (c *Cache) Read(ctx context.Context, q Query) ([]Task, error) {
	fields, err := c.validate(q)
	if err != nil {
		return nil, err
	}

	_, err = c.Poll(ctx)
	if err != nil {
		return nil, err
	}

	if q.ID != 0 {
		t, ok := c.store.Tasks[q.ID]
		if !ok || !q.matches(&t) {
			return []Task{}, nil
		}

		return []Task{t.Strip(fields)}, nil
	}

	out := []Task{}

	for _, t := range c.store.sortedTasks() {
		if q.matches(&t) {
			out = append(out, t.Strip(fields))
		}
	}

	return out, nil
}

func (q Query) matches(t *Task) bool {
	if !q.Completion.Admits(t) {
		return false
	}

	if !q.After.IsZero() && !t.Modified.After(q.After) {
		return false
	}

	if !q.Before.IsZero() && !t.Modified.Before(q.Before) {
		return false
	}

	return true
}

// Add creates tasks remotely, then polls. It returns the remote's view of the
// created tasks.
func (c *Cache) Add(ctx context.Context, tasks []Task) ([]Task, error) {
	added, err := c.remote.AddTasks(ctx, tasks)
	if err != nil {
		return nil, err
	}

	_, err = c.Poll(ctx)
	if err != nil {
		return added, err
	}

	return added, nil
}

// Edit applies the set fields of each task remotely, then polls.
func (c *Cache) Edit(ctx context.Context, tasks []Task) ([]Task, error) {
	edited, err := c.remote.EditTasks(ctx, tasks)
	if err != nil {
		return nil, err
	}

	_, err = c.Poll(ctx)
	if err != nil {
		return edited, err
	}

	return edited, nil
}

// Delete removes tasks remotely, then polls.
func (c *Cache) Delete(ctx context.Context, tasks []Task) error {
	err := c.remote.DeleteTasks(ctx, tasks)
	if err != nil {
		return err
	}

	_, err = c.Poll(ctx)

	return err
}

// Account returns the remote account summary with both timestamps replaced by
// what the cache has absorbed.
func (c *Cache) Account(ctx context.Context) (Account, error) {
	acct, err := c.remote.Account(ctx)
	if err != nil {
		return Account{}, err
	}

	acct.LastEdit = c.store.NewestUpdate
	acct.LastDelete = c.store.NewestDelete

	return acct, nil
}

// DeletedAfter passes through to the remote deletion feed. Nothing is cached.
func (c *Cache) DeletedAfter(ctx context.Context, after time.Time) ([]Deletion, error) {
	return c.remote.FetchDeletedAfter(ctx, after)
}
