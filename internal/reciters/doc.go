// Package reciters fetches, caches, and queries the EveryAyah recitation
// catalog. Network access runs behind a circuit breaker that is shared with
// the audio downloader so a flapping upstream trips both at once.
package reciters
