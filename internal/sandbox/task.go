package sandbox

import (
	"maps"
	"strings"
	"time"

	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// merge returns stored with every field set on edit copied over.
func merge(stored, edit taskcache.Task) taskcache.Task {
	out := stored.Clone()
	e := edit.Clone()

	setIf(&out.Title, e.Title)
	setIf(&out.Completed, e.Completed)
	setIf(&out.Tags, e.Tags)
	setIf(&out.StartDate, e.StartDate)
	setIf(&out.DueDate, e.DueDate)
	setIf(&out.DueTime, e.DueTime)
	setIf(&out.Star, e.Star)
	setIf(&out.Priority, e.Priority)
	setIf(&out.DueDateModifier, e.DueDateModifier)
	setIf(&out.Status, e.Status)
	setIf(&out.Length, e.Length)
	setIf(&out.Note, e.Note)
	setIf(&out.Repeat, e.Repeat)
	setIf(&out.Parent, e.Parent)
	setIf(&out.FolderID, e.FolderID)
	setIf(&out.ContextID, e.ContextID)
	setIf(&out.Meta, e.Meta)

	if len(e.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]string, len(e.Extra))
		}

		maps.Copy(out.Extra, e.Extra)
	}

	return out
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// normalize turns request-only encodings into stored ones.
func normalize(t taskcache.Task) taskcache.Task {
	if t.Completed != nil && t.Completed.IsZero() {
		t.Completed = nil
	}

	t.Reschedule = false

	return t
}

// nextOccurrence reopens a completed repeating task with its due date moved
// forward one period. The period starts at the due date, or at the completion
// date when the task has none. It reports false for tasks without a
// recognized repeat rule.
func nextOccurrence(t taskcache.Task) (taskcache.Task, bool) {
	if t.Repeat == nil || !t.IsComplete() {
		return taskcache.Task{}, false
	}

	base := *t.Completed
	if t.DueDate != nil {
		base = *t.DueDate
	}

	var next time.Time

	switch repeatFrequency(*t.Repeat) {
	case "DAILY":
		next = base.AddDate(0, 0, 1)
	case "WEEKLY":
		next = base.AddDate(0, 0, 7)
	case "MONTHLY":
		next = base.AddDate(0, 1, 0)
	case "YEARLY":
		next = base.AddDate(1, 0, 0)
	default:
		return taskcache.Task{}, false
	}

	out := t.Clone()
	out.Completed = nil
	out.DueDate = &next

	return out, true
}

// repeatFrequency extracts the frequency from "DAILY" or an RRULE such as
// "FREQ=WEEKLY;INTERVAL=1".
func repeatFrequency(rule string) string {
	rule = strings.ToUpper(strings.TrimSpace(rule))

	for part := range strings.SplitSeq(rule, ";") {
		if freq, ok := strings.CutPrefix(part, "FREQ="); ok {
			return freq
		}
	}

	return rule
}
