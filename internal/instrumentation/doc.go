// Package instrumentation provides OpenTelemetry metrics and spans for the
// Okta client: HTTP attempts, retries, rate-limit suspensions, token
// exchanges and logical operations.
//
// Attribute sets stay low-cardinality (method, bucket, status, error kind,
// operation). User and application identifiers are never used as metric
// attributes.
package instrumentation
