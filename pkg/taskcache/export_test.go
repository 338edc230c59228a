package taskcache

// Exported internals for testing.
const (
	TestCurrentVersion = currentVersion
)

// TestFreshWatermark is the watermark of a new store.
var TestFreshWatermark = freshWatermark

// TestStore returns the store backing c.
func (c *Cache) TestStore() *Store {
	return c.store
}
