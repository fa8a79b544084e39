// Package workflow implements the legal stage and substage transitions for an
// order line. Transition functions validate first and mutate only after every
// check passes, so a rejected move is an atomic no-op. Callers apply them to a
// snapshot read from the store and commit conditionally through the store's
// revision check, which provides the per-line mutual exclusion the transitions
// assume.
package workflow
