// Package scene composes render-ready scene descriptions: color palettes,
// background styles, frame geometry, per-verse animation timing, and text
// wrapping. Everything here is pure computation; rendering them to pixels
// lives elsewhere.
package scene
