package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// formatTask renders one task as a single line:
//
//	12 [ ] Buy milk | duedate=2026-03-02 priority=high tag=a,b
func formatTask(t taskcache.Task) string {
	var b strings.Builder

	mark := " "
	if t.IsComplete() {
		mark = "x"
	}

	title := ""
	if t.Title != nil {
		title = *t.Title
	}

	fmt.Fprintf(&b, "%d [%s] %s", t.ID, mark, title)

	attrs := taskAttrs(t)
	if len(attrs) > 0 {
		b.WriteString(" | ")
		b.WriteString(strings.Join(attrs, " "))
	}

	return b.String()
}

func taskAttrs(t taskcache.Task) []string {
	var attrs []string

	add := func(name, value string) {
		attrs = append(attrs, name+"="+value)
	}

	if t.IsComplete() {
		add("completed", t.Completed.UTC().Format(time.DateOnly))
	}

	if t.Tags != nil {
		add("tag", strings.Join(*t.Tags, ","))
	}

	if t.StartDate != nil {
		add("startdate", t.StartDate.UTC().Format(time.DateOnly))
	}

	if t.DueDate != nil {
		add("duedate", t.DueDate.UTC().Format(time.DateOnly))
	}

	if t.DueTime != nil {
		add("duetime", t.DueTime.UTC().Format(time.RFC3339))
	}

	if t.Star != nil {
		add("star", strconv.FormatBool(*t.Star))
	}

	if t.Priority != nil {
		add("priority", t.Priority.String())
	}

	if t.DueDateModifier != nil {
		add("duedatemod", t.DueDateModifier.String())
	}

	if t.Status != nil {
		add("status", t.Status.String())
	}

	if t.Length != nil {
		add("length", strconv.Itoa(*t.Length))
	}

	if t.Note != nil {
		add("note", strconv.Quote(*t.Note))
	}

	if t.Repeat != nil {
		add("repeat", *t.Repeat)
	}

	if t.Parent != nil {
		add("parent", strconv.FormatInt(*t.Parent, 10))
	}

	if t.FolderID != nil {
		add("folder", strconv.FormatInt(*t.FolderID, 10))
	}

	if t.ContextID != nil {
		add("context", strconv.FormatInt(*t.ContextID, 10))
	}

	if t.Meta != nil {
		add("meta", strconv.Quote(*t.Meta))
	}

	keys := make([]string, 0, len(t.Extra))
	for k := range t.Extra {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		add(k, strconv.Quote(t.Extra[k]))
	}

	return attrs
}

func printTasks(o *IO, tasks []taskcache.Task, asJSON bool) error {
	if !asJSON {
		for _, t := range tasks {
			o.Println(formatTask(t))
		}

		return nil
	}

	for _, t := range tasks {
		err := o.JSON(t)
		if err != nil {
			return fmt.Errorf("task %d: %w", t.ID, err)
		}
	}

	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, arg)
	}

	return id, nil
}

func parseIDs(args []string) ([]taskcache.Task, error) {
	if len(args) == 0 {
		return nil, ErrIDRequired
	}

	tasks := make([]taskcache.Task, 0, len(args))

	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, taskcache.Task{ID: id})
	}

	return tasks, nil
}

// parseDate parses YYYY-MM-DD as midnight UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return t, nil
}

// parseTime accepts a date or an RFC 3339 timestamp.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// parseEnum matches s against the names of the codes lo..hi, or accepts a
// code directly.
func parseEnum[T fmt.Stringer](kind, s string, lo, hi int, fromCode func(int) (T, error)) (T, error) {
	if code, err := strconv.Atoi(s); err == nil {
		return fromCode(code)
	}

	var names []string

	for code := lo; code <= hi; code++ {
		v, err := fromCode(code)
		if err != nil {
			continue
		}

		if strings.EqualFold(v.String(), s) {
			return v, nil
		}

		names = append(names, v.String())
	}

	var zero T

	return zero, fmt.Errorf("%w for %s: %q (want %s)", ErrInvalidEnum, kind, s, strings.Join(names, "|"))
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
