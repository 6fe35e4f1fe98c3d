// Package versefetch implements the first workflow stage: it resolves the
// requested verse range against the Quran dataset, looks up the reciter in
// the EveryAyah catalog, and downloads the per-ayah recitation clips into
// the audio cache.
//
// Downloads run concurrently behind the shared rate limiter and circuit
// breaker, and per-clip progress is persisted so the CLI and API show live
// fetch state. Validation failures (bad range, unknown reciter, missing
// verse text) are terminal; network failures surface as transient so the
// job can be retried.
package versefetch
