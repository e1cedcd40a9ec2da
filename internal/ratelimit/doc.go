// Package ratelimit gates outgoing requests per Okta rate-limit bucket.
//
// Budgets come from the X-Rate-Limit-Remaining and X-Rate-Limit-Reset
// response headers. A bucket with no remaining budget admits nothing until
// its reset time has passed; a 429 closes the bucket even when the server sent
// no rate-limit headers. An optional per-minute ceiling, enforced with
// golang.org/x/time/rate, applies on top of the server budget.
package ratelimit
