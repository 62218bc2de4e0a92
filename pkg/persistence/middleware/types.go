// Package middleware provides composable wrappers around a history
// store, adding encryption at rest and content scrubbing.
package middleware

import "github.com/aretw0/skein/pkg/ports"

// Middleware allows wrapping a HistoryStore to add behavior.
type Middleware func(ports.HistoryStore) ports.HistoryStore
