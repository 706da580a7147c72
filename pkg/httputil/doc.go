// Package httputil fetches remote layout matrices.
//
// # Overview
//
//   - [Fetcher]: downloads a matrix document with retries, a size limit
//     and conditional revalidation
//   - [Cache]: file-based JSON cache with TTL and namespaces
//   - [Retry]: exponential backoff for errors marked [RetryableError]
//
// # Fetching
//
//	f := httputil.NewFetcher(cache, logger)
//	m, err := f.FetchMatrix(ctx, "https://example.com/dashboard.yaml")
//
// The format follows the URL extension (.json, .yaml/.yml, .toml) and
// defaults to JSON. Network errors, 429 and 5xx responses are retried;
// 404 returns [ErrNotFound].
//
// # Caching
//
// A fresh cache entry is served without a request. A stale entry is
// revalidated with If-None-Match and If-Modified-Since, so an unchanged
// document costs one 304 round trip.
//
// Defaults:
//
//   - Cache directory: the per-user cache dir, e.g. ~/.cache/vizgrid/http/
//   - Max attempts: 3, first delay 1 second
//   - Max document size: 1 MiB
//
// The cache can be cleared with `vizgrid cache clear`.
package httputil
