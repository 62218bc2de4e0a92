package main

import (
	"crypto/sha256"
	"os"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/skein/pkg/adapters/memory"
	"github.com/aretw0/skein/pkg/adapters/redis"
	"github.com/aretw0/skein/pkg/persistence/middleware"
	"github.com/aretw0/skein/pkg/ports"
	"github.com/aretw0/skein/pkg/session"
)

// newSessionManager builds the session manager selected by --redis.
// With SKEIN_SESSION_KEY set, histories are encrypted at rest.
// The returned cleanup closes the Redis connection when one was opened.
func newSessionManager(cmd *cobra.Command) (*session.Manager, func()) {
	logger := newLogger(cmd)

	var store ports.HistoryStore
	cleanup := func() {}

	addr, _ := cmd.Flags().GetString("redis")
	var opts []session.Option
	if addr == "" {
		store = memory.NewStore()
	} else {
		client := backend.NewClient(&backend.Options{Addr: addr})
		store = redis.NewFromClient(client)
		opts = append(opts, session.WithLocker(redis.NewLocker(client, "skein:lock:")))
		cleanup = func() { _ = client.Close() }
	}

	if secret := os.Getenv("SKEIN_SESSION_KEY"); secret != "" {
		key := sha256.Sum256([]byte(secret))
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key[:]})(store)
	}

	opts = append(opts, session.WithLogger(logger))
	return session.NewManager(store, opts...), cleanup
}
