package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// ShellCmd returns the shell command.
func ShellCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Args:  noArgs,
		Short: "Run commands interactively",
		Long: "Read commands line by line and run them against one open cache, holding the\n" +
			"cache lock until the shell exits. Type 'help' for commands, 'exit' to leave.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			if f, ok := a.stdin.(*os.File); ok && isTerminal(f) {
				return a.interactiveShell(ctx)
			}

			return a.scriptShell(ctx, o)
		},
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

// historyFile returns the path to the shell history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".tdcache_history")
}

func (a *app) interactiveShell(ctx context.Context) error {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)
	line.SetCompleter(a.complete)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	defer a.saveHistory(line)

	fprintln(a.out, "tdcache shell. Type 'help' for commands, 'exit' to leave.")

	for ctx.Err() == nil {
		input, err := line.Prompt("tdcache> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if a.runShellLine(ctx, input) {
			return nil
		}
	}

	return ctx.Err()
}

// scriptShell runs commands from a non-terminal stdin. A failing line is
// reported and the script continues; the shell warns once at the end.
func (a *app) scriptShell(ctx context.Context, o *IO) error {
	scanner := bufio.NewScanner(a.stdin)
	failed := 0

	for scanner.Scan() && ctx.Err() == nil {
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}

		args, err := splitArgs(input)
		if err != nil {
			fprintln(a.errOut, "error:", err)

			failed++

			continue
		}

		if isExit(args[0]) {
			break
		}

		if a.dispatch(ctx, args, false) != 0 {
			failed++
		}
	}

	err := scanner.Err()
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if failed > 0 {
		o.Warn(fmt.Sprintf("%d command(s) failed", failed), "see the errors above")
	}

	return ctx.Err()
}

// runShellLine runs one interactive line. Reports true when the shell should
// exit.
func (a *app) runShellLine(ctx context.Context, input string) bool {
	args, err := splitArgs(input)
	if err != nil {
		fprintln(a.errOut, "error:", err)

		return false
	}

	if isExit(args[0]) {
		return true
	}

	a.dispatch(ctx, args, false)

	return false
}

func isExit(name string) bool {
	return name == "exit" || name == "quit" || name == "q"
}

func (a *app) saveHistory(line *liner.State) {
	path := historyFile()
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}

	_, _ = line.WriteHistory(f)
	_ = f.Close()
}

// complete provides tab completion for command names.
func (a *app) complete(input string) []string {
	var out []string

	for _, cmd := range a.commands(false) {
		if strings.HasPrefix(cmd.Name(), input) {
			out = append(out, cmd.Name())
		}
	}

	for _, name := range []string{"help", "exit"} {
		if strings.HasPrefix(name, input) {
			out = append(out, name)
		}
	}

	return out
}

// splitArgs splits a shell line into words with POSIX-like quoting.
// Environment variables and backticks are left alone, and an unquoted shell
// operator (| & ; < >) is rejected rather than silently ending the line.
func splitArgs(input string) ([]string, error) {
	parser := shellwords.NewParser()

	args, err := parser.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnbalancedQuote, input)
	}

	if parser.Position >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrShellOperator, input)
	}

	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}

	return args, nil
}
