// Package orders defines the production order domain model and its SQLite
// persistence. A Line is the system of record for stage position, substage
// position, entry timestamps, and accumulated per-stage durations; the store
// guards line updates with an optimistic revision check so concurrent
// transitions on the same line cannot both commit.
package orders
