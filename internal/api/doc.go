// Package api defines wire-format types and converters for the HTTP API and
// the CLI. It translates internal queue, workflow, gallery, and catalog
// models into transport-friendly DTOs so consumers never couple to internal
// types.
//
// DTOs use camelCase JSON tags. Internal enums (queue.Status) are exposed as
// lowercase strings, timestamps as RFC3339 with milliseconds, and scene
// overrides and durations pass through as json.RawMessage to avoid
// double-encoding.
package api
