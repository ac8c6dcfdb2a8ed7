package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/unicorn/internal/config"
	"github.com/aretw0/unicorn/pkg/adapters/file"
	"github.com/aretw0/unicorn/pkg/adapters/memory"
	"github.com/aretw0/unicorn/pkg/adapters/redis"
	"github.com/aretw0/unicorn/pkg/persistence/middleware"
	"github.com/aretw0/unicorn/pkg/ports"
	"github.com/aretw0/unicorn/pkg/session"
	"github.com/aretw0/unicorn/pkg/trie"
)

// setupSessions picks the session store from the config: Redis (with distributed
// locking) when an address is configured, then a sessions directory, then memory.
// The returned function releases the store.
func setupSessions(ctx context.Context, cfg *config.Config, t *trie.Trie, logger *slog.Logger, opts ...session.Option) (*session.Manager, func(), error) {
	opts = append(opts,
		session.WithTrigger(cfg.TriggerRune()),
		session.WithLogger(logger),
	)

	if cfg.Redis.Addr == "" {
		var store ports.SessionStore = memory.NewStore()
		if cfg.SessionsDir != "" {
			logger.Info("Using file session store", "dir", cfg.SessionsDir)
			store = file.NewStore(cfg.SessionsDir)
		} else {
			logger.Info("Using in-memory session store")
		}
		store, err := sealSessions(cfg, store, logger)
		if err != nil {
			return nil, nil, err
		}
		return session.NewManager(t, store, opts...), func() {}, nil
	}

	store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		redis.WithPrefix(cfg.Redis.Prefix),
		redis.WithTTL(cfg.Redis.TTL),
	)
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info("Using redis session store", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)

	opts = append(opts, session.WithLocker(redis.NewLocker(store.Client(), cfg.Redis.Prefix)))
	closer := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close redis client", "err", err)
		}
	}
	sealed, err := sealSessions(cfg, store, logger)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return session.NewManager(t, sealed, opts...), closer, nil
}

// sealSessions wraps store with encryption when a key is configured.
func sealSessions(cfg *config.Config, store ports.SessionStore, logger *slog.Logger) (ports.SessionStore, error) {
	active, fallbacks, err := cfg.EncryptionKeys()
	if err != nil || active == nil {
		return store, err
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallbacks})
	if err != nil {
		return nil, err
	}
	logger.Info("Session encryption enabled", "fallback_keys", len(fallbacks))
	return middleware.Chain(store, mw), nil
}

// watchTrie reloads the table into mgr whenever the file changes, until ctx is done.
// Broken edits are logged and the previous table stays in use.
func watchTrie(ctx context.Context, loader *file.Loader, mgr *session.Manager, logger *slog.Logger) error {
	changes, err := loader.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching mnemonic table", "path", loader.Path())

	go func() {
		for range changes {
			t, err := loader.Load(ctx)
			if err != nil {
				logger.Error("Reload failed, keeping previous table", "path", loader.Path(), "err", err)
				continue
			}
			mgr.SetTrie(t)
		}
	}()
	return nil
}
