// Package httputil provides retry support for HTTP API clients.
//
// # Overview
//
// [Retry] wraps requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] are retried, so the caller
// decides which failures are transient:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    if resp.StatusCode >= 500 {
//	        return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
//	    }
//	    return nil
//	})
//
// The delay doubles after each failed attempt. A rate limited response
// can carry the server's Retry-After value instead:
//
//	return &httputil.RetryableError{Err: err, RetryAfter: 30 * time.Second}
//
// Response caching lives in the cache package; this package only
// handles the retry loop.
package httputil
