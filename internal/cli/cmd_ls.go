package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// LsCmd returns the ls command.
func LsCmd(sess *session) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.Int64("id", 0, "Show only the task with this ID")
	fs.String("completion", "", "Filter by completion (any|incomplete|complete)")
	fs.String("after", "", "Only tasks modified after this time (YYYY-MM-DD or RFC 3339)")
	fs.String("before", "", "Only tasks modified before this time (YYYY-MM-DD or RFC 3339)")
	fs.StringP("fields", "f", "", "Comma-separated optional fields to show (default: cached fields)")
	fs.Bool("json", false, "Print one JSON object per line")

	return &Command{
		Flags: fs,
		Usage: "ls [flags]",
		Args:  noArgs,
		Short: "List cached tasks",
		Long:  "Sync, then list cached tasks matching the filters, ordered by ID.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execLs(ctx, o, sess, fs)
		},
	}
}

func execLs(ctx context.Context, o *IO, sess *session, fs *flag.FlagSet) error {
	var q taskcache.Query

	q.ID, _ = fs.GetInt64("id")

	completion, _ := fs.GetString("completion")

	c, err := taskcache.ParseCompletion(completion)
	if err != nil {
		return err
	}

	q.Completion = c

	for name, dst := range map[string]*time.Time{"after": &q.After, "before": &q.Before} {
		if !fs.Changed(name) {
			continue
		}

		v, _ := fs.GetString(name)

		t, err := parseTime(v)
		if err != nil {
			return err
		}

		*dst = t
	}

	q.Fields = sess.cfg.Fields
	if fs.Changed("fields") {
		q.Fields, _ = fs.GetString("fields")
	}

	asJSON, _ := fs.GetBool("json")

	cache, err := sess.Cache(ctx)
	if err != nil {
		return err
	}

	tasks, err := cache.Read(ctx, q)
	if err != nil {
		return err
	}

	if q.ID != 0 && len(tasks) == 0 {
		o.Warn("no matching task", "check the ID with 'tdcache ls'")
	}

	return printTasks(o, tasks, asJSON)
}
