// Package organizer finalizes completed renders by moving them into the
// gallery directory with collision-safe names, writing a JSON sidecar
// manifest per file, and cleaning the job's staging directory. It also
// provides the gallery listing used by the CLI and HTTP API.
package organizer
