// Package sessionstore persists render session history in SQLite: one row
// per manifest render with its lifecycle status, current stage, final
// metrics, and failure message. A flock-based render lock keeps concurrent
// invocations from sharing the state directory.
package sessionstore
