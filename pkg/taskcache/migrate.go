package taskcache

import "fmt"

// migration upgrades a store from version from to from+1.
type migration struct {
	from  int
	apply func(s *Store, assumed Config)
}

var migrations = []migration{
	{from: 0, apply: func(*Store, Config) {}},
	{from: 1, apply: func(s *Store, assumed Config) {
		// Version 1 stores did not record their filter, so trust the opener.
		s.Completion = assumed.Completion
		s.Fields = assumed.Fields
	}},
	{from: 2, apply: func(s *Store, _ Config) {
		s.NewestDelete = s.NewestUpdate
	}},
}

// Migrate upgrades s in place to the current version.
//
// assumed is the configuration the store is being opened with; it is the only
// record of the filter for stores written before the filter was persisted.
// A store newer than this package understands fails with [ErrStorageCorrupt].
func Migrate(s *Store, assumed Config) error {
	if s.Version > currentVersion || s.Version < 0 {
		return fmt.Errorf("%w: store version %d, supported up to %d", ErrStorageCorrupt, s.Version, currentVersion)
	}

	for _, m := range migrations {
		if s.Version != m.from {
			continue
		}

		m.apply(s, assumed)
		s.Version = m.from + 1
	}

	if s.Tasks == nil {
		s.Tasks = make(map[int64]Task)
	}

	return nil
}
