// Package retry re-sends idempotent Okta requests after transient failures.
//
// Rate-limited, server and network failures are retried up to the policy's
// attempt budget. Waits grow exponentially from WaitMin to WaitMax with added
// jitter, and a server Retry-After hint replaces the computed wait.
package retry
