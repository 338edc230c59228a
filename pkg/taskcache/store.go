package taskcache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/natefinch/atomic"
)

// currentVersion is the store layout written by [Store.Save].
const currentVersion = 3

// freshWatermark seeds both watermarks of a new store. One day past the epoch
// so the one-second poll backoff never goes negative.
var freshWatermark = time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)

// pollBackoff is subtracted from the watermarks when polling, since the remote
// reports times with one-second granularity.
const pollBackoff = time.Second

// Config is the filter a store was built with.
type Config struct {
	Completion Completion
	Fields     FieldSet
}

// Store is the persisted state of a cache.
//
// Every task in Tasks is keyed by its id, satisfies Completion and carries
// only optional attributes in Fields. NewestUpdate and NewestDelete never move
// backwards.
type Store struct {
	Version      int
	Completion   Completion
	Fields       FieldSet
	Tasks        map[int64]Task
	NewestUpdate time.Time
	NewestDelete time.Time
}

// NewStore returns an empty store at the current version.
func NewStore(cfg Config) *Store {
	return &Store{
		Version:      currentVersion,
		Completion:   cfg.Completion,
		Fields:       cfg.Fields,
		Tasks:        make(map[int64]Task),
		NewestUpdate: freshWatermark,
		NewestDelete: freshWatermark,
	}
}

// Config returns the store's filter.
func (s *Store) Config() Config {
	return Config{Completion: s.Completion, Fields: s.Fields}
}

// sortedTasks returns the tasks ordered by id.
func (s *Store) sortedTasks() []Task {
	ids := make([]int64, 0, len(s.Tasks))
	for id := range s.Tasks {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	out := make([]Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Tasks[id].Clone())
	}

	return out
}

// storeDoc is the on-disk JSON layout. Versions 1 and 2 call the update
// watermark "newest"; version 1 has no filter keys.
type storeDoc struct {
	Version      int            `json:"version,omitempty"`
	Completion   *Completion    `json:"completion,omitempty"`
	Fields       *string        `json:"fields,omitempty"`
	Tasks        map[int64]Task `json:"tasks"`
	NewestUpdate *time.Time     `json:"newest_update,omitempty"`
	Newest       *time.Time     `json:"newest,omitempty"`
	NewestDelete *time.Time     `json:"newest_delete,omitempty"`
}

// Load reads a store from path.
//
// The store is returned at the version it was written with; run [Migrate]
// before use. Errors are *[StoreError] wrapping [ErrStorageMissing] when the
// file does not exist and [ErrStorageCorrupt] when it cannot be decoded.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &StoreError{Op: "load", Path: path, Err: ErrStorageMissing}
		}

		return nil, &StoreError{Op: "load", Path: path, Err: err}
	}

	s, err := decodeStore(data)
	if err != nil {
		return nil, &StoreError{Op: "load", Path: path, Err: fmt.Errorf("%w: %w", ErrStorageCorrupt, err)}
	}

	return s, nil
}

var (
	errUnknownVersion = errors.New("unknown version")
	errMissingTasks   = errors.New("missing tasks")
	errTaskKey        = errors.New("task key does not match id")
)

func decodeStore(data []byte) (*Store, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var doc storeDoc

	err := dec.Decode(&doc)
	if err != nil {
		return nil, err
	}

	if doc.Version < 0 || doc.Version > currentVersion {
		return nil, fmt.Errorf("%w %d", errUnknownVersion, doc.Version)
	}

	if doc.Tasks == nil {
		return nil, errMissingTasks
	}

	s := &Store{
		Version: doc.Version,
		Tasks:   doc.Tasks,
	}

	for key, t := range doc.Tasks {
		if t.ID == 0 || key != t.ID {
			return nil, fmt.Errorf("%w: key %d id %d", errTaskKey, key, t.ID)
		}
	}

	if doc.Completion != nil {
		s.Completion = *doc.Completion
	}

	if doc.Fields != nil {
		fields, err := ParseFieldSet(*doc.Fields)
		if err != nil {
			return nil, err
		}

		s.Fields = fields
	}

	switch {
	case doc.NewestUpdate != nil:
		s.NewestUpdate = *doc.NewestUpdate
	case doc.Newest != nil:
		s.NewestUpdate = *doc.Newest
	default:
		s.NewestUpdate = freshWatermark
	}

	if doc.NewestDelete != nil {
		s.NewestDelete = *doc.NewestDelete
	}

	return s, nil
}

// Save overwrites path with the store. The file is replaced atomically, so a
// crash leaves either the old or the new contents.
func (s *Store) Save(path string) error {
	fields := s.Fields.String()
	completion := s.Completion
	update := s.NewestUpdate
	deleted := s.NewestDelete

	doc := storeDoc{
		Version:      s.Version,
		Completion:   &completion,
		Fields:       &fields,
		Tasks:        s.Tasks,
		NewestUpdate: &update,
		NewestDelete: &deleted,
	}

	if doc.Tasks == nil {
		doc.Tasks = map[int64]Task{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return &StoreError{Op: "save", Path: path, Err: err}
	}

	err = os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return &StoreError{Op: "save", Path: path, Err: err}
	}

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return &StoreError{Op: "save", Path: path, Err: err}
	}

	return nil
}
