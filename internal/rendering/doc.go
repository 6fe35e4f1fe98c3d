// Package rendering implements the render stage: it resolves and filters the
// verse text, composes the scene spec (palette, background, geometry, and
// the per-verse timing segments derived from the merged audio durations),
// and drives the ffmpeg renderer with progress persisted back to the queue.
package rendering
