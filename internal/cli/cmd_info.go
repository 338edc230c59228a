package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	flag "github.com/spf13/pflag"
)

// AccountCmd returns the account command.
func AccountCmd(sess *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("account", flag.ContinueOnError),
		Usage: "account",
		Args:  noArgs,
		Short: "Show account summary",
		Long:  "Show the account summary, with edit and delete times as far as the cache has caught up.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			cache, err := sess.Cache(ctx)
			if err != nil {
				return err
			}

			acct, err := cache.Account(ctx)
			if err != nil {
				return err
			}

			o.Println("last_edit=" + acct.LastEdit.UTC().Format(time.RFC3339))
			o.Println("last_delete=" + acct.LastDelete.UTC().Format(time.RFC3339))
			o.Printf("tasks=%d\n", cache.Len())

			return nil
		},
	}
}

// DeletedCmd returns the deleted command.
func DeletedCmd(sess *session) *Command {
	fset := flag.NewFlagSet("deleted", flag.ContinueOnError)
	fset.String("after", "", "Only deletions after this time (YYYY-MM-DD or RFC 3339)")

	return &Command{
		Flags: fset,
		Usage: "deleted [--after <time>]",
		Args:  noArgs,
		Short: "List remote deletions",
		Long:  "List deletion notices straight from the remote. The cache is not consulted.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			var after time.Time

			if fset.Changed("after") {
				v, _ := fset.GetString("after")

				t, err := parseTime(v)
				if err != nil {
					return err
				}

				after = t
			}

			cache, err := sess.Cache(ctx)
			if err != nil {
				return err
			}

			notices, err := cache.DeletedAfter(ctx, after)
			if err != nil {
				return err
			}

			for _, d := range notices {
				o.Printf("%d %s\n", d.ID, d.DeletedAt.UTC().Format(time.RFC3339))
			}

			return nil
		},
	}
}

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Args:  noArgs,
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			for _, line := range FormatConfig(*cfg) {
				o.Println(line)
			}

			o.Println("")
			o.Println("# sources")

			if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
				o.Println("(defaults only)")

				return nil
			}

			if cfg.Sources.Global != "" {
				o.Println("global_config=" + cfg.Sources.Global)
			}

			if cfg.Sources.Project != "" {
				o.Println("project_config=" + cfg.Sources.Project)
			}

			return nil
		},
	}
}

// ResetCmd returns the reset command.
func ResetCmd(sess *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("reset", flag.ContinueOnError),
		Usage: "reset",
		Args:  noArgs,
		Short: "Delete the cache file",
		Long:  "Delete the cache file. The next command rebuilds it from the remote.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			err := sess.Lock()
			if err != nil {
				return err
			}

			sess.Forget()

			path := sess.cfg.CachePathAbs

			err = os.Remove(path)
			if errors.Is(err, fs.ErrNotExist) {
				o.Warn("no cache file at "+path, "nothing to reset")

				return nil
			}

			if err != nil {
				return fmt.Errorf("remove cache: %w", err)
			}

			o.Println("removed " + path)

			return nil
		},
	}
}
