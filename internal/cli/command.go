package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one tdcache subcommand. The shell builds fresh instances for
// every line, so a Command is used for a single Run.
type Command struct {
	// Flags are the command's own flags. Global flags never reach here.
	Flags *flag.FlagSet

	// Usage starts with the command name, e.g. "done <id>... [flags]".
	Usage string

	// Short is the line shown in the command table; Long is the help body and
	// falls back to Short.
	Short string
	Long  string

	// Args checks the positional arguments before Exec. Nil accepts any.
	Args func(args []string) error

	// Exec runs the command after flags and arguments were checked.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// noArgs rejects positional arguments.
func noArgs(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: %s", ErrUnexpectedArgs, strings.Join(args, " "))
	}

	return nil
}

// oneID accepts exactly one positional argument, the task ID.
func oneID(args []string) error {
	switch len(args) {
	case 0:
		return ErrIDRequired
	case 1:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedArgs, strings.Join(args[1:], " "))
	}
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// writeHelp writes "tdcache <cmd> --help" output.
func (c *Command) writeHelp(w io.Writer) {
	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	_, _ = fmt.Fprintf(w, "Usage: tdcache %s\n\n%s\n", c.Usage, desc)

	if c.Flags.HasFlags() {
		_, _ = fmt.Fprintf(w, "\nFlags:\n%s", c.Flags.FlagUsages())
	}
}

// Run parses flags and arguments, then executes the command. Errors are
// printed here so they come out in the same place for every command.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(io.Discard)

	err := c.Flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		c.writeHelp(o.stdout())

		return 0
	}

	if err == nil && c.Args != nil {
		err = c.Args(c.Flags.Args())
	}

	if err != nil {
		o.Error(err)
		c.writeHelp(o.stdout())

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.Error(err)

		return 1
	}

	return 0
}

// commandTable renders the command list for the global usage, with the
// description column aligned to the longest usage.
func commandTable(cmds []*Command) string {
	width := 0
	for _, cmd := range cmds {
		width = max(width, len(cmd.Usage))
	}

	var b strings.Builder

	for i, cmd := range cmds {
		if i > 0 {
			b.WriteByte('\n')
		}

		fmt.Fprintf(&b, "  %-*s  %s", width, cmd.Usage, cmd.Short)
	}

	return b.String()
}
