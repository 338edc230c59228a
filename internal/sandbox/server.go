// Package sandbox simulates the remote task service on top of SQLite.
//
// The server assigns ids, stamps modification times from its clock, keeps a
// log of deletions and reschedules repeating tasks that are completed with
// the reschedule flag, which is all the cache relies on. Times have
// one-second granularity like the real service.
package sandbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// Errors returned for rejected requests.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrMissingTitle = errors.New("task title is required")
	ErrIDOnAdd      = errors.New("new task must not have an id")
)

// Options configure [Open].
type Options struct {
	// Path is the SQLite database. ":memory:" gives a throwaway server.
	Path string

	// Now is the server clock. Defaults to [time.Now].
	Now func() time.Time

	// Logger receives one record per request. Nil discards them.
	Logger *slog.Logger
}

// Server implements [taskcache.Remote].
type Server struct {
	db  *sql.DB
	now func() time.Time
	log *slog.Logger

	mu sync.Mutex
}

var _ taskcache.Remote = (*Server)(nil)

// Open opens or creates the database at opts.Path.
func Open(ctx context.Context, opts Options) (*Server, error) {
	db, err := openSQLite(ctx, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", taskcache.ErrRemoteUnavailable, err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Server{db: db, now: now, log: log}, nil
}

// Close closes the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// stamp is the server time at one-second granularity.
func (s *Server) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *Server) request(op string) *slog.Logger {
	return s.log.With("op", op, "request", uuid.NewString())
}

// FetchModifiedAfter implements [taskcache.Remote].
func (s *Server) FetchModifiedAfter(ctx context.Context, after time.Time, fields taskcache.FieldSet, completion taskcache.Completion) ([]taskcache.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.request("fetch_modified")

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM tasks WHERE modified > ? ORDER BY id`, after.Unix())
	if err != nil {
		return nil, unavailable(err)
	}

	defer func() { _ = rows.Close() }()

	out := []taskcache.Task{}

	for rows.Next() {
		var body string

		err = rows.Scan(&body)
		if err != nil {
			return nil, unavailable(err)
		}

		t, err := decodeTask(body)
		if err != nil {
			return nil, err
		}

		if !completion.Admits(&t) {
			continue
		}

		out = append(out, t.Strip(fields))
	}

	err = rows.Err()
	if err != nil {
		return nil, unavailable(err)
	}

	log.Debug("fetched tasks", "after", after, "fields", fields.String(), "completion", completion, "count", len(out))

	return out, nil
}

// FetchDeletedAfter implements [taskcache.Remote].
func (s *Server) FetchDeletedAfter(ctx context.Context, after time.Time) ([]taskcache.Deletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.request("fetch_deleted")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, deleted_at FROM deletions WHERE deleted_at > ? ORDER BY seq`, after.Unix())
	if err != nil {
		return nil, unavailable(err)
	}

	defer func() { _ = rows.Close() }()

	out := []taskcache.Deletion{}

	for rows.Next() {
		var (
			id int64
			at int64
		)

		err = rows.Scan(&id, &at)
		if err != nil {
			return nil, unavailable(err)
		}

		out = append(out, taskcache.Deletion{ID: id, DeletedAt: time.Unix(at, 0).UTC()})
	}

	err = rows.Err()
	if err != nil {
		return nil, unavailable(err)
	}

	log.Debug("fetched deletions", "after", after, "count", len(out))

	return out, nil
}

// AddTasks implements [taskcache.Remote]. Every task needs a title and no id.
func (s *Server) AddTasks(ctx context.Context, tasks []taskcache.Task) ([]taskcache.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.request("add")
	now := s.stamp()

	for i, t := range tasks {
		if t.ID != 0 {
			return nil, fmt.Errorf("task %d: %w (got %d)", i, ErrIDOnAdd, t.ID)
		}

		if t.Title == nil || *t.Title == "" {
			return nil, fmt.Errorf("task %d: %w", i, ErrMissingTitle)
		}
	}

	out := make([]taskcache.Task, 0, len(tasks))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tasks {
			t = normalize(t)
			t.Modified = now

			added, err := insertTask(ctx, tx, t)
			if err != nil {
				return err
			}

			out = append(out, added)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("added tasks", "count", len(out))

	return out, nil
}

// EditTasks implements [taskcache.Remote].
//
// Set fields replace the stored ones. A zero completion date reopens the task.
// Completing a task that has a repeat rule with Reschedule set leaves a
// completed copy under a new id and reopens the original with its due date
// moved to the next occurrence.
func (s *Server) EditTasks(ctx context.Context, tasks []taskcache.Task) ([]taskcache.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.request("edit")
	now := s.stamp()
	out := make([]taskcache.Task, 0, len(tasks))
	rescheduled := 0

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, edit := range tasks {
			stored, err := selectTask(ctx, tx, edit.ID)
			if err != nil {
				return err
			}

			merged := normalize(merge(stored, edit))
			merged.Modified = now

			if edit.Reschedule && !stored.IsComplete() && merged.IsComplete() {
				next, ok := nextOccurrence(merged)
				if ok {
					done := merged.Clone()
					done.ID = 0
					done.Repeat = nil

					_, err = insertTask(ctx, tx, done)
					if err != nil {
						return err
					}

					merged = next
					rescheduled++
				}
			}

			err = updateTask(ctx, tx, merged)
			if err != nil {
				return err
			}

			out = append(out, merged)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("edited tasks", "count", len(out), "rescheduled", rescheduled)

	return out, nil
}

// DeleteTasks implements [taskcache.Remote]. Only ids are read.
func (s *Server) DeleteTasks(ctx context.Context, tasks []taskcache.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.request("delete")
	now := s.stamp()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tasks {
			res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID)
			if err != nil {
				return unavailable(err)
			}

			n, err := res.RowsAffected()
			if err != nil {
				return unavailable(err)
			}

			if n == 0 {
				return fmt.Errorf("%w: %d", ErrTaskNotFound, t.ID)
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO deletions (id, deleted_at) VALUES (?, ?)`, t.ID, now.Unix())
			if err != nil {
				return unavailable(err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info("deleted tasks", "count", len(tasks))

	return nil
}

// Account implements [taskcache.Remote].
func (s *Server) Account(ctx context.Context) (taskcache.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastEdit, lastDelete sql.NullInt64

	err := s.db.QueryRowContext(ctx, `SELECT MAX(modified) FROM tasks`).Scan(&lastEdit)
	if err != nil {
		return taskcache.Account{}, unavailable(err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT MAX(deleted_at) FROM deletions`).Scan(&lastDelete)
	if err != nil {
		return taskcache.Account{}, unavailable(err)
	}

	var acct taskcache.Account

	if lastEdit.Valid {
		acct.LastEdit = time.Unix(lastEdit.Int64, 0).UTC()
	}

	if lastDelete.Valid {
		acct.LastDelete = time.Unix(lastDelete.Int64, 0).UTC()
	}

	return acct, nil
}

func (s *Server) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}

	err = fn(tx)
	if err != nil {
		return errors.Join(err, ignoreDone(tx.Rollback()))
	}

	err = tx.Commit()
	if err != nil {
		return unavailable(err)
	}

	return nil
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}

func insertTask(ctx context.Context, tx *sql.Tx, t taskcache.Task) (taskcache.Task, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (modified, body) VALUES (?, '{}')`, t.Modified.Unix())
	if err != nil {
		return taskcache.Task{}, unavailable(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return taskcache.Task{}, unavailable(err)
	}

	t.ID = id

	err = updateTask(ctx, tx, t)
	if err != nil {
		return taskcache.Task{}, err
	}

	return t, nil
}

func updateTask(ctx context.Context, tx *sql.Tx, t taskcache.Task) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task %d: %w", t.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET modified = ?, body = ? WHERE id = ?`, t.Modified.Unix(), string(body), t.ID)
	if err != nil {
		return unavailable(err)
	}

	return nil
}

func selectTask(ctx context.Context, tx *sql.Tx, id int64) (taskcache.Task, error) {
	var body string

	err := tx.QueryRowContext(ctx, `SELECT body FROM tasks WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return taskcache.Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}

	if err != nil {
		return taskcache.Task{}, unavailable(err)
	}

	return decodeTask(body)
}

func decodeTask(body string) (taskcache.Task, error) {
	var t taskcache.Task

	err := json.Unmarshal([]byte(body), &t)
	if err != nil {
		return taskcache.Task{}, fmt.Errorf("decode stored task: %w", err)
	}

	return t, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", taskcache.ErrRemoteUnavailable, err)
}
