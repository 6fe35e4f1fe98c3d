// Package fonts validates configured font files and filters verse text down
// to code points the rendering fonts can display. Arabic shaping itself is
// left to the renderer's text stack.
package fonts
