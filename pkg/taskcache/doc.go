// Package taskcache keeps a local, persistent mirror of the tasks held by a
// remote task service.
//
// Reads poll the remote for changes since the newest modification and
// deletion already absorbed, apply them, then answer from memory. Writes go to
// the remote first and are picked up by the poll that follows.
//
// A cache is opened with a completion filter and a set of optional fields.
// Both are recorded in the store file and may only be narrowed on reopen:
//
//	c, err := taskcache.Open(ctx, remote, taskcache.Options{
//		Path:       "tasks.json",
//		Completion: taskcache.CompletionIncomplete,
//		Fields:     "duedate,priority,tag",
//		Autosave:   true,
//	})
//	if err != nil {
//		return err
//	}
//
//	due, err := c.Read(ctx, taskcache.Query{Fields: "duedate"})
package taskcache
