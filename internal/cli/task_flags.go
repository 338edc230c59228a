package cli

import (
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// registerTaskFlags adds the task attribute flags shared by add and edit.
func registerTaskFlags(fs *flag.FlagSet) {
	fs.StringP("title", "t", "", "Title")
	fs.String("note", "", "Note")
	fs.String("tag", "", "Comma-separated tags")
	fs.String("start", "", "Start date (YYYY-MM-DD)")
	fs.String("due", "", "Due date (YYYY-MM-DD)")
	fs.String("due-time", "", "Due time (RFC 3339)")
	fs.String("due-mod", "", "Due date modifier (due-by|due-on|due-after|optionally)")
	fs.Bool("star", false, "Starred")
	fs.StringP("priority", "p", "", "Priority (negative|low|medium|high|top)")
	fs.String("status", "", "Status (none|next-action|active|planning|...)")
	fs.Int("length", 0, "Estimated length in minutes")
	fs.String("repeat", "", "Repeat rule (DAILY|WEEKLY|MONTHLY|YEARLY)")
	fs.Int64("parent", 0, "Parent task ID")
	fs.String("meta", "", "Free-form metadata")
}

// taskFromFlags builds a task holding only the flags that were set.
func taskFromFlags(fs *flag.FlagSet) (taskcache.Task, bool, error) {
	var (
		t       taskcache.Task
		changed bool
	)

	str := func(name string, dst **string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = &v
			changed = true
		}
	}

	str("title", &t.Title)
	str("note", &t.Note)
	str("repeat", &t.Repeat)
	str("meta", &t.Meta)

	if fs.Changed("tag") {
		v, _ := fs.GetString("tag")

		tags := []string{}

		for tag := range strings.SplitSeq(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}

		t.Tags = &tags
		changed = true
	}

	if err := setDate(fs, "start", &t.StartDate, &changed, parseDate); err != nil {
		return t, false, err
	}

	if err := setDate(fs, "due", &t.DueDate, &changed, parseDate); err != nil {
		return t, false, err
	}

	if err := setDate(fs, "due-time", &t.DueTime, &changed, parseTime); err != nil {
		return t, false, err
	}

	if fs.Changed("star") {
		v, _ := fs.GetBool("star")
		t.Star = &v
		changed = true
	}

	if fs.Changed("length") {
		v, _ := fs.GetInt("length")
		t.Length = &v
		changed = true
	}

	if fs.Changed("parent") {
		v, _ := fs.GetInt64("parent")
		t.Parent = &v
		changed = true
	}

	if fs.Changed("priority") {
		v, _ := fs.GetString("priority")

		p, err := parseEnum("priority", v, -1, 3, taskcache.PriorityFromCode)
		if err != nil {
			return t, false, err
		}

		t.Priority = &p
		changed = true
	}

	if fs.Changed("status") {
		v, _ := fs.GetString("status")

		s, err := parseEnum("status", v, 0, 10, taskcache.StatusFromCode)
		if err != nil {
			return t, false, err
		}

		t.Status = &s
		changed = true
	}

	if fs.Changed("due-mod") {
		v, _ := fs.GetString("due-mod")

		m, err := parseEnum("due-mod", v, 0, 3, taskcache.DueDateModifierFromCode)
		if err != nil {
			return t, false, err
		}

		t.DueDateModifier = &m
		changed = true
	}

	return t, changed, nil
}

func setDate(fs *flag.FlagSet, name string, dst **time.Time, changed *bool, parse func(string) (time.Time, error)) error {
	if !fs.Changed(name) {
		return nil
	}

	v, _ := fs.GetString(name)

	t, err := parse(v)
	if err != nil {
		return err
	}

	*dst = &t
	*changed = true

	return nil
}
