// Package audioprep implements the audio preparation stage: it normalizes
// loudness, trims silence, applies fades and padding to each fetched clip,
// then merges the clips with a crossfade into the single track the renderer
// muxes. The merge's effective per-clip durations are persisted on the job
// so scene timing can be derived from them.
package audioprep
