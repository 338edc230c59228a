package taskcache

import (
	"fmt"
	"strings"
)

// Completion restricts which tasks are cached or returned by completion state.
type Completion uint8

const (
	// CompletionAny admits every task.
	CompletionAny Completion = iota
	// CompletionIncomplete admits tasks without a completion date.
	CompletionIncomplete
	// CompletionComplete admits tasks with a completion date.
	CompletionComplete
)

// ParseCompletion parses "any", "incomplete" or "complete". The empty string
// is [CompletionAny].
func ParseCompletion(s string) (Completion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return CompletionAny, nil
	case "incomplete":
		return CompletionIncomplete, nil
	case "complete":
		return CompletionComplete, nil
	default:
		return 0, fmt.Errorf("%w: %q (want any, incomplete or complete)", ErrInvalidCompletion, s)
	}
}

func (c Completion) String() string {
	switch c {
	case CompletionAny:
		return "any"
	case CompletionIncomplete:
		return "incomplete"
	case CompletionComplete:
		return "complete"
	default:
		return fmt.Sprintf("completion(%d)", uint8(c))
	}
}

// Admits reports whether t passes the filter.
func (c Completion) Admits(t *Task) bool {
	switch c {
	case CompletionIncomplete:
		return !t.IsComplete()
	case CompletionComplete:
		return t.IsComplete()
	default:
		return true
	}
}

// Narrows reports whether a store configured with c may be reopened with to.
// Only staying put or going from any to a specific filter is allowed.
func (c Completion) Narrows(to Completion) bool {
	return c == to || c == CompletionAny
}

// MarshalText implements [encoding.TextMarshaler].
func (c Completion) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (c *Completion) UnmarshalText(text []byte) error {
	v, err := ParseCompletion(string(text))
	if err != nil {
		return err
	}

	*c = v

	return nil
}
