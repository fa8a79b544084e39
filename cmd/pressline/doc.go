// Command pressline is the operator CLI for the production order tracker.
// It manages orders and lines directly against the SQLite store and can run
// the HTTP API with the scheduled baseline recompute via `pressline serve`.
package main
