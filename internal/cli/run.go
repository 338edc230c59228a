package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns exit code.
//
// A value on sigCh cancels the running command; nil disables that.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	globals := newGlobalFlags()

	err := globals.fs.Parse(args[min(1, len(args)):])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out)

			return 0
		}

		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	remaining := globals.fs.Args()
	if len(remaining) == 0 {
		printUsage(out)

		return 0
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: globals.workDir,
		ConfigPath:      globals.configPath,
		Overrides:       globals.overrides(),
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	log, logCloser := newLogger(cfg, errOut)
	defer func() { _ = logCloser.Close() }()

	sess := newSession(cfg, log)
	a := &app{sess: sess, stdin: stdin, out: out, errOut: errOut}

	code := a.dispatch(ctx, remaining, true)

	err = sess.close()
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	return code
}

// app is what commands share: the session and the process streams.
type app struct {
	sess   *session
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer
}

// commands returns fresh command instances. FlagSets keep parse state, so the
// shell builds a new set for every line.
func (a *app) commands(allowShell bool) []*Command {
	cmds := []*Command{
		SyncCmd(a.sess),
		LsCmd(a.sess),
		AddCmd(a.sess),
		EditCmd(a.sess),
		DoneCmd(a.sess),
		RmCmd(a.sess),
		AccountCmd(a.sess),
		DeletedCmd(a.sess),
		PrintConfigCmd(&a.sess.cfg),
		ResetCmd(a.sess),
	}

	if allowShell {
		cmds = append(cmds, ShellCmd(a))
	}

	return cmds
}

// dispatch runs one command line and returns its exit code.
func (a *app) dispatch(ctx context.Context, args []string, allowShell bool) int {
	name := args[0]

	if name == "-h" || name == "--help" || name == "help" {
		printUsage(a.out)

		return 0
	}

	for _, cmd := range a.commands(allowShell) {
		if cmd.Name() != name {
			continue
		}

		o := NewIO(a.out, a.errOut)

		code := cmd.Run(ctx, o, args[1:])
		if code != 0 {
			return code
		}

		return o.Finish()
	}

	fprintln(a.errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))

	if allowShell {
		printUsage(a.errOut)
	}

	return 1
}

type globalFlags struct {
	fs         *flag.FlagSet
	workDir    string
	configPath string
}

func newGlobalFlags() *globalFlags {
	g := &globalFlags{fs: flag.NewFlagSet("tdcache", flag.ContinueOnError)}

	g.fs.SetInterspersed(false)
	g.fs.SetOutput(io.Discard)
	g.fs.StringVarP(&g.workDir, "cwd", "C", "", "Run as if started in `dir`")
	g.fs.StringVarP(&g.configPath, "config", "c", "", "Use specified config `file`")
	g.fs.String("cache", "", "Cache file path")
	g.fs.String("remote", "", "Remote database path")
	g.fs.String("completion", "", "Completion filter of the cache (any|incomplete|complete)")
	g.fs.String("fields", "", "Comma-separated optional fields to cache")
	g.fs.Bool("autosave", true, "Save the cache after every sync")
	g.fs.Bool("update-on-open", true, "Sync when the cache is opened")
	g.fs.String("log-file", "", "Write logs to `file` (rotated)")
	g.fs.String("log-level", "", "Log level (debug|info|warn|error)")

	return g
}

// overrides returns the flags the user actually passed as a config layer.
func (g *globalFlags) overrides() fileConfig {
	var layer fileConfig

	str := func(name string) *string {
		if !g.fs.Changed(name) {
			return nil
		}

		v, _ := g.fs.GetString(name)

		return &v
	}

	boolean := func(name string) *bool {
		if !g.fs.Changed(name) {
			return nil
		}

		v, _ := g.fs.GetBool(name)

		return &v
	}

	layer.CachePath = str("cache")
	layer.RemoteDB = str("remote")
	layer.Completion = str("completion")
	layer.Fields = str("fields")
	layer.Autosave = boolean("autosave")
	layer.UpdateOnOpen = boolean("update-on-open")
	layer.LogFile = str("log-file")
	layer.LogLevel = str("log-level")

	return layer
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer) {
	fprintln(w, `tdcache - local cache of a remote task list

Usage: tdcache [options] <command> [args]

Options:
  -C, --cwd <dir>          Run as if started in <dir>
  -c, --config <file>      Use specified config file
      --cache <path>       Cache file
      --remote <path>      Remote database
      --completion <c>     any|incomplete|complete
      --fields <list>      Optional fields to cache
      --autosave=<bool>    Save after every sync (default true)
      --update-on-open=<bool>
                           Sync when the cache is opened (default true)
      --log-file <file>    Write logs to a rotated file
      --log-level <level>  debug|info|warn|error

Commands:`)

	a := &app{sess: newSession(Config{}, nil)}
	fprintln(w, commandTable(a.commands(true)))
}
