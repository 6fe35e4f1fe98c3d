// Package audio fetches per-ayah recitation clips from EveryAyah and shapes
// them into a single track. Downloads are cached on disk and rate limited.
// The processor normalizes each clip to a target level, trims silence from
// both ends with short fades, and crossfades the clips together. Every clip
// after the first gives up the crossfade overlap, and the resulting effective
// durations drive verse timing downstream.
package audio
