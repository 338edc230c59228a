package taskcache

import (
	"errors"
	"strconv"
	"strings"
)

// Error variables for cache operations.
var (
	ErrConfigConflict    = errors.New("configuration conflict")
	ErrUnsupportedField  = errors.New("unsupported field")
	ErrFieldNotCached    = errors.New("field not in cache")
	ErrStorageMissing    = errors.New("cache file not found")
	ErrStorageCorrupt    = errors.New("cache file corrupted")
	ErrRemoteUnavailable = errors.New("remote service unavailable")
	ErrInvalidCode       = errors.New("invalid enum code")
	ErrInvalidCompletion = errors.New("invalid completion filter")
)

// StoreError is returned by [Load] and [Store.Save].
//
// The underlying error message appears first, followed by the operation and
// path:
//
//	cache file corrupted: unexpected EOF (op=load path=/home/u/.tdcache/tasks.json)
//
// Use [errors.Is] with [ErrStorageMissing] or [ErrStorageCorrupt] to decide
// between creating a fresh store and aborting.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, "op="+e.Op)
	}

	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	if len(parts) == 0 {
		return cause
	}

	suffix := "(" + strings.Join(parts, " ") + ")"

	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// CodeError reports a wire code outside the range of an enumeration.
type CodeError struct {
	Kind string // "priority", "status" or "duedatemod"
	Code int
}

func (e *CodeError) Error() string {
	return ErrInvalidCode.Error() + ": " + e.Kind + " " + strconv.Itoa(e.Code)
}

// Unwrap returns [ErrInvalidCode].
func (*CodeError) Unwrap() error {
	return ErrInvalidCode
}
