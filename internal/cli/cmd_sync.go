package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// SyncCmd returns the sync command.
func SyncCmd(sess *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("sync", flag.ContinueOnError),
		Usage: "sync",
		Args:  noArgs,
		Short: "Bring the cache up to date",
		Long:  "Fetch deletions and changes since the last sync and apply them to the cache.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			cache, err := sess.Cache(ctx)
			if err != nil {
				return err
			}

			res, err := cache.Poll(ctx)
			if err != nil {
				return err
			}

			o.Printf("synced: %d tasks (fetched %d changes, %d deletions; upserted %d, removed %d, evicted %d)\n",
				cache.Len(), res.Updates, res.Deletions, res.Upserted, res.Removed, res.Evicted)

			return nil
		},
	}
}
