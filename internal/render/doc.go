// Package render turns composed scene descriptions into video or image
// files by driving ffmpeg. The background comes from a lavfi source, verse
// lines become drawtext overlays gated by their timing windows, and the
// merged recitation track is muxed underneath.
package render
