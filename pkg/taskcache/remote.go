package taskcache

import (
	"context"
	"time"
)

// Remote is the task service the cache mirrors.
//
// Implementations own transport and authentication. Errors are returned to
// the caller of the cache operation unchanged; adapters should wrap transport
// failures with [ErrRemoteUnavailable].
type Remote interface {
	// FetchModifiedAfter returns tasks modified strictly after after, carrying
	// the core fields plus fields, restricted by completion.
	FetchModifiedAfter(ctx context.Context, after time.Time, fields FieldSet, completion Completion) ([]Task, error)

	// FetchDeletedAfter returns deletion notices strictly after after.
	FetchDeletedAfter(ctx context.Context, after time.Time) ([]Deletion, error)

	// AddTasks creates tasks and returns them with ids assigned.
	AddTasks(ctx context.Context, tasks []Task) ([]Task, error)

	// EditTasks applies the set fields of each task to the task with the same id.
	EditTasks(ctx context.Context, tasks []Task) ([]Task, error)

	// DeleteTasks deletes tasks by id.
	DeleteTasks(ctx context.Context, tasks []Task) error

	// Account returns the account summary.
	Account(ctx context.Context) (Account, error)
}

// Deletion is a notice that a task was removed remotely.
type Deletion struct {
	ID        int64     `json:"id"`
	DeletedAt time.Time `json:"stamp"`
}

// Account summarizes when the account last changed.
type Account struct {
	LastEdit   time.Time `json:"lastedit_task"`
	LastDelete time.Time `json:"lastdelete_task"`
}
