package cli

import "errors"

// Error variables for CLI operations.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrCachePathEmpty     = errors.New("cache_path cannot be empty")
	ErrRemoteDBEmpty      = errors.New("remote_db cannot be empty")
	ErrInvalidLogLevel    = errors.New("invalid log_level")
	ErrIDRequired         = errors.New("task ID is required")
	ErrInvalidID          = errors.New("invalid task ID")
	ErrTitleRequired      = errors.New("--title is required")
	ErrNothingToEdit      = errors.New("no fields to change")
	ErrInvalidDate        = errors.New("invalid date (want YYYY-MM-DD)")
	ErrInvalidTime        = errors.New("invalid time (want YYYY-MM-DD or RFC 3339)")
	ErrInvalidEnum        = errors.New("invalid value")
	ErrTaskNotFound       = errors.New("task not found")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrLockTimeout        = errors.New("lock timeout")
	ErrUnbalancedQuote    = errors.New("unbalanced quote")
	ErrEmptyCommand       = errors.New("empty command")
	ErrUnexpectedArgs     = errors.New("unexpected arguments")
	ErrShellOperator      = errors.New("shell operators are not supported")
)
