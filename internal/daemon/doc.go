// Package daemon coordinates the long-running alforqand process.
//
// It wires configuration, queue storage, and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances,
// and serves the HTTP API plus a small embedded queue/gallery page on the
// configured bind address. Keep orchestration logic here: individual
// workflow stages live in their own packages.
package daemon
