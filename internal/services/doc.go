// Package services defines the shared error taxonomy and context annotation
// helpers used by workflow stages.
//
// Stage code wraps failures with Wrap and one of the sentinel markers so the
// workflow manager can classify outcomes without string matching. Context
// helpers carry job, stage, and correlation identifiers across goroutine and
// process boundaries for structured logging.
package services
