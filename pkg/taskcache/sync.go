package taskcache

import (
	"context"
	"time"
)

// PollResult counts what a poll fetched and changed.
type PollResult struct {
	Deletions int // notices fetched
	Removed   int // cached tasks removed by notices
	Updates   int // tasks fetched
	Upserted  int // tasks inserted or replaced
	Evicted   int // fetched tasks dropped by the completion filter
}

// Poll brings the cache up to date with the remote.
//
// Deletions and updates are both fetched before anything is applied, so a
// remote failure leaves the cache untouched; the remote's error is returned
// as is. Updates are fetched without a completion filter so that a task
// leaving the cached completion state is evicted rather than left stale.
func (c *Cache) Poll(ctx context.Context) (PollResult, error) {
	s := c.store

	deletions, err := c.remote.FetchDeletedAfter(ctx, s.NewestDelete.Add(-pollBackoff))
	if err != nil {
		c.log.Debug("fetch deletions failed", "error", err)

		return PollResult{}, err
	}

	updates, err := c.remote.FetchModifiedAfter(ctx, s.NewestUpdate.Add(-pollBackoff), s.Fields, CompletionAny)
	if err != nil {
		c.log.Debug("fetch updates failed", "error", err)

		return PollResult{}, err
	}

	res := c.apply(deletions, updates)

	c.lastDeletions = deletions
	c.lastUpdates = cloneTasks(updates)

	c.log.Debug("polled",
		"deletions", res.Deletions, "removed", res.Removed,
		"updates", res.Updates, "upserted", res.Upserted, "evicted", res.Evicted,
		"newest_update", s.NewestUpdate, "newest_delete", s.NewestDelete)

	if c.autosave {
		err = c.Save()
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// apply merges fetched batches into the store. Deletions go first so a task
// deleted and recreated under the same id survives.
func (c *Cache) apply(deletions []Deletion, updates []Task) PollResult {
	s := c.store
	res := PollResult{Deletions: len(deletions), Updates: len(updates)}

	newestDelete := s.NewestDelete

	for _, d := range deletions {
		if _, ok := s.Tasks[d.ID]; ok {
			delete(s.Tasks, d.ID)

			res.Removed++
		}

		newestDelete = later(newestDelete, d.DeletedAt)
	}

	newestUpdate := s.NewestUpdate

	for _, t := range updates {
		newestUpdate = later(newestUpdate, t.Modified)

		if !s.Completion.Admits(&t) {
			delete(s.Tasks, t.ID)

			res.Evicted++

			continue
		}

		s.Tasks[t.ID] = t.Strip(s.Fields)
		res.Upserted++
	}

	s.NewestDelete = newestDelete
	s.NewestUpdate = newestUpdate

	return res
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}

	return a
}
