// Package httputil provides the retry policy used by every supplier client.
//
// # Overview
//
// A supplier call is attempted through a [Policy], which retries transient
// transport failures and hands every other failure straight back:
//
//   - Network timeouts and refused or reset connections
//   - Responses the caller marked with [RetryableError] (5xx, 408, 429)
//
// Permanent failures such as 4xx responses or malformed bodies are not the
// policy's business; clients classify them before returning from the
// attempt.
//
// # Usage
//
//	err := httputil.DefaultPolicy().Do(ctx, func(attempt int) error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return err // timeouts are retried
//	    }
//	    defer resp.Body.Close()
//	    if resp.StatusCode >= 500 {
//	        return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
//	    }
//	    return json.NewDecoder(resp.Body).Decode(&v)
//	})
//
// # Backoff
//
// No delay precedes the first attempt. The delay before attempt n+1 is
// BaseDelay·2^(n-1), capped at MaxDelay and scaled by a random factor in
// [1-Jitter, 1+Jitter]. Once the budget is spent the last failure is
// returned inside an [ExhaustedError].
//
// # Configuration
//
// Default settings:
//
//   - Attempts: 3
//   - Base backoff: 1 second
//   - Max backoff: 30 seconds
//   - Jitter: ±20%
package httputil
