// Package httputil provides retry helpers shared by every outbound call shed
// makes: registry lookups, web search and summarization.
//
// # Retry
//
// [Retry] re-runs an operation only when it failed with a [RetryableError].
// Clients mark transient failures (connection errors, 5xx responses, 429
// rate limits) with [Retryable]; everything else, such as a 404 for an
// unknown package, fails fast:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return client.Get(ctx, url, &v)
//	})
//
// The delay doubles after each failed attempt and the wait is abandoned as
// soon as ctx is cancelled.
package httputil
