package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// AddCmd returns the add command.
func AddCmd(sess *session) *Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	registerTaskFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "add -t <title> [flags]",
		Short: "Create a task",
		Long:  "Create a task on the remote, then sync. Prints the created task.",
		Args:  noArgs,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			task, _, err := taskFromFlags(fs)
			if err != nil {
				return err
			}

			if task.Title == nil || *task.Title == "" {
				return ErrTitleRequired
			}

			cache, err := sess.Cache(ctx)
			if err != nil {
				return err
			}

			added, err := cache.Add(ctx, []taskcache.Task{task})
			if err != nil {
				return err
			}

			return printTasks(o, added, false)
		},
	}
}

// EditCmd returns the edit command.
func EditCmd(sess *session) *Command {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	registerTaskFlags(fs)
	fs.Bool("reopen", false, "Clear the completion date")

	return &Command{
		Flags: fs,
		Usage: "edit <id> [flags]",
		Short: "Change a task",
		Long:  "Change the given attributes of a task on the remote, then sync. Attributes not given are left alone.",
		Args:  oneID,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			task, changed, err := taskFromFlags(fs)
			if err != nil {
				return err
			}

			if reopen, _ := fs.GetBool("reopen"); reopen {
				task.Completed = &time.Time{}
				changed = true
			}

			if !changed {
				return ErrNothingToEdit
			}

			task.ID = id

			return editAndPrint(ctx, o, sess, []taskcache.Task{task})
		},
	}
}

// DoneCmd returns the done command.
func DoneCmd(sess *session) *Command {
	fs := flag.NewFlagSet("done", flag.ContinueOnError)
	fs.Bool("reschedule", false, "Reschedule repeating tasks instead of completing them in place")
	fs.String("date", "", "Completion date (YYYY-MM-DD, default today)")

	return &Command{
		Flags: fs,
		Usage: "done <id>... [flags]",
		Short: "Complete tasks",
		Long: "Mark tasks complete on the remote, then sync. With --reschedule a repeating task\n" +
			"stays open with its next due date and a completed copy is kept.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			tasks, err := parseIDs(args)
			if err != nil {
				return err
			}

			date := today()

			if fs.Changed("date") {
				v, _ := fs.GetString("date")

				date, err = parseDate(v)
				if err != nil {
					return err
				}
			}

			reschedule, _ := fs.GetBool("reschedule")

			for i := range tasks {
				tasks[i].Completed = &date
				tasks[i].Reschedule = reschedule
			}

			return editAndPrint(ctx, o, sess, tasks)
		},
	}
}

func editAndPrint(ctx context.Context, o *IO, sess *session, tasks []taskcache.Task) error {
	cache, err := sess.Cache(ctx)
	if err != nil {
		return err
	}

	edited, err := cache.Edit(ctx, tasks)
	if err != nil {
		return err
	}

	return printTasks(o, edited, false)
}

// RmCmd returns the rm command.
func RmCmd(sess *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <id>...",
		Short: "Delete tasks",
		Long:  "Delete tasks on the remote, then sync.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			tasks, err := parseIDs(args)
			if err != nil {
				return err
			}

			cache, err := sess.Cache(ctx)
			if err != nil {
				return err
			}

			err = cache.Delete(ctx, tasks)
			if err != nil {
				return err
			}

			for _, t := range tasks {
				o.Printf("deleted %d\n", t.ID)
			}

			return nil
		},
	}
}
