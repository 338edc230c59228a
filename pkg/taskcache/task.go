package taskcache

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Task is the canonical in-memory shape of a remote task.
//
// A nil optional field is unset: either it was never fetched, or (on an edit
// request) it is left unchanged. The cache never fills in defaults for unset
// fields.
type Task struct {
	// ID is assigned by the remote. Zero for tasks that do not exist yet.
	ID int64 `json:"id"`

	Title    *string   `json:"title,omitempty"`
	Modified time.Time `json:"modified"`

	// Completed is the completion date. Nil means incomplete on fetched tasks
	// and unchanged on edit requests; a zero time on an edit request reopens
	// the task.
	Completed *time.Time `json:"completed,omitempty"`

	Tags            *[]string        `json:"tag,omitempty"`
	StartDate       *time.Time       `json:"startdate,omitempty"`
	DueDate         *time.Time       `json:"duedate,omitempty"`
	DueTime         *time.Time       `json:"duetime,omitempty"`
	Star            *bool            `json:"star,omitempty"`
	Priority        *Priority        `json:"priority,omitempty"`
	DueDateModifier *DueDateModifier `json:"duedatemod,omitempty"`
	Status          *Status          `json:"status,omitempty"`
	Length          *int             `json:"length,omitempty"`
	Note            *string          `json:"note,omitempty"`
	Repeat          *string          `json:"repeat,omitempty"`
	Parent          *int64           `json:"parent,omitempty"`
	FolderID        *int64           `json:"folder,omitempty"`
	ContextID       *int64           `json:"context,omitempty"`
	Meta            *string          `json:"meta,omitempty"`

	// Reschedule asks the remote to reschedule a repeating task that is being
	// completed. Only meaningful on edit requests; never cached.
	Reschedule bool `json:"-"`

	// Extra holds attributes the remote sent that this package does not know.
	// They are carried through untouched.
	Extra map[string]string `json:"extra,omitempty"`
}

// Ptr returns a pointer to v. Handy for building tasks.
func Ptr[T any](v T) *T {
	return &v
}

// IsComplete reports whether the task has a completion date.
func (t *Task) IsComplete() bool {
	return t.Completed != nil && !t.Completed.IsZero()
}

// Present returns the optional fields that are set.
func (t *Task) Present() FieldSet {
	var set FieldSet

	for f := range numFields {
		if t.isSet(f) {
			set |= 1 << f
		}
	}

	return set
}

func (t *Task) isSet(f Field) bool {
	switch f {
	case FieldTag:
		return t.Tags != nil
	case FieldStartDate:
		return t.StartDate != nil
	case FieldDueDate:
		return t.DueDate != nil
	case FieldDueTime:
		return t.DueTime != nil
	case FieldStar:
		return t.Star != nil
	case FieldPriority:
		return t.Priority != nil
	case FieldDueDateModifier:
		return t.DueDateModifier != nil
	case FieldStatus:
		return t.Status != nil
	case FieldLength:
		return t.Length != nil
	case FieldNote:
		return t.Note != nil
	case FieldRepeat:
		return t.Repeat != nil
	case FieldParent:
		return t.Parent != nil
	case FieldFolder:
		return t.FolderID != nil
	case FieldContext:
		return t.ContextID != nil
	case FieldMeta:
		return t.Meta != nil
	default:
		return false
	}
}

func (t *Task) clear(f Field) {
	switch f {
	case FieldTag:
		t.Tags = nil
	case FieldStartDate:
		t.StartDate = nil
	case FieldDueDate:
		t.DueDate = nil
	case FieldDueTime:
		t.DueTime = nil
	case FieldStar:
		t.Star = nil
	case FieldPriority:
		t.Priority = nil
	case FieldDueDateModifier:
		t.DueDateModifier = nil
	case FieldStatus:
		t.Status = nil
	case FieldLength:
		t.Length = nil
	case FieldNote:
		t.Note = nil
	case FieldRepeat:
		t.Repeat = nil
	case FieldParent:
		t.Parent = nil
	case FieldFolder:
		t.FolderID = nil
	case FieldContext:
		t.ContextID = nil
	case FieldMeta:
		t.Meta = nil
	}
}

// Strip returns a copy of t without the optional fields outside keep.
// Core fields and Extra are kept; Reschedule is dropped.
func (t Task) Strip(keep FieldSet) Task {
	out := t.Clone()
	out.Reschedule = false

	for f := range numFields {
		if !keep.Has(f) {
			out.clear(f)
		}
	}

	return out
}

// Clone returns a deep copy. Pointer fields of the copy never alias t.
func (t Task) Clone() Task {
	out := t
	out.Title = clonePtr(t.Title)
	out.Completed = clonePtr(t.Completed)
	out.StartDate = clonePtr(t.StartDate)
	out.DueDate = clonePtr(t.DueDate)
	out.DueTime = clonePtr(t.DueTime)
	out.Star = clonePtr(t.Star)
	out.Priority = clonePtr(t.Priority)
	out.DueDateModifier = clonePtr(t.DueDateModifier)
	out.Status = clonePtr(t.Status)
	out.Length = clonePtr(t.Length)
	out.Note = clonePtr(t.Note)
	out.Repeat = clonePtr(t.Repeat)
	out.Parent = clonePtr(t.Parent)
	out.FolderID = clonePtr(t.FolderID)
	out.ContextID = clonePtr(t.ContextID)
	out.Meta = clonePtr(t.Meta)

	if t.Tags != nil {
		tags := slices.Clone(*t.Tags)
		out.Tags = &tags
	}

	if t.Extra != nil {
		out.Extra = maps.Clone(t.Extra)
	}

	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

func (t Task) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "<Task id=%d", t.ID)

	if t.Title != nil {
		fmt.Fprintf(&b, " title=%q", *t.Title)
	}

	if !t.Modified.IsZero() {
		fmt.Fprintf(&b, " modified=%s", t.Modified.UTC().Format(time.RFC3339))
	}

	if t.IsComplete() {
		fmt.Fprintf(&b, " completed=%s", t.Completed.UTC().Format(time.DateOnly))
	}

	if present := t.Present(); present != 0 {
		fmt.Fprintf(&b, " fields=%s", present)
	}

	b.WriteString(">")

	return b.String()
}
