// Package queue persists render jobs in SQLite and tracks their lifecycle
// from pending through fetching, audio preparation, rendering, organizing,
// and completion. Jobs are deduplicated by a fingerprint over the reciter
// and verse range, and processing states carry heartbeats so a restarted
// daemon can reclaim work abandoned mid-stage.
package queue
