package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/calvinalkan/taskcache/internal/sandbox"
	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// session owns the resources of one tdcache invocation (or one shell). The
// lock, remote and cache are opened on first use and released by close.
type session struct {
	cfg Config
	log *slog.Logger

	lock   *cacheLock
	remote *sandbox.Server
	cache  *taskcache.Cache
}

func newSession(cfg Config, log *slog.Logger) *session {
	return &session{cfg: cfg, log: log}
}

// Lock takes the cache lock if not yet held.
func (s *session) Lock() error {
	if s.lock != nil {
		return nil
	}

	lock, err := acquireLock(s.cfg.CachePathAbs, LockTimeout)
	if err != nil {
		return err
	}

	s.lock = lock

	return nil
}

// Remote opens the remote if not yet open.
func (s *session) Remote(ctx context.Context) (*sandbox.Server, error) {
	if s.remote != nil {
		return s.remote, nil
	}

	remote, err := sandbox.Open(ctx, sandbox.Options{
		Path:   s.cfg.RemoteDBAbs,
		Logger: s.log.With("component", "remote"),
	})
	if err != nil {
		return nil, err
	}

	s.remote = remote

	return remote, nil
}

// Cache opens the cache, taking the lock and opening the remote first.
func (s *session) Cache(ctx context.Context) (*taskcache.Cache, error) {
	if s.cache != nil {
		return s.cache, nil
	}

	err := s.Lock()
	if err != nil {
		return nil, err
	}

	remote, err := s.Remote(ctx)
	if err != nil {
		return nil, err
	}

	cache, err := taskcache.Open(ctx, remote, taskcache.Options{
		Path:         s.cfg.CachePathAbs,
		Completion:   s.cfg.CompletionValue,
		Fields:       s.cfg.Fields,
		Autosave:     s.cfg.Autosave,
		UpdateOnOpen: s.cfg.UpdateOnOpen,
		Logger:       s.log.With("component", "cache"),
	})
	if err != nil {
		return nil, err
	}

	s.cache = cache

	return cache, nil
}

// Forget drops the open cache so the next Cache call reloads it from disk.
func (s *session) Forget() {
	s.cache = nil
}

// close saves an open cache when autosave is off, then releases everything.
func (s *session) close() error {
	var errs []error

	if s.cache != nil && !s.cfg.Autosave {
		errs = append(errs, s.cache.Save())
	}

	if s.remote != nil {
		errs = append(errs, s.remote.Close())
	}

	s.lock.release()

	s.cache, s.remote, s.lock = nil, nil, nil

	return errors.Join(errs...)
}
