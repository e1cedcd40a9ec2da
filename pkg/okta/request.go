package okta

import (
	"net/http"
	"net/url"
	"strings"
)

// Rate-limit buckets. Okta meters its management API per endpoint group.
const (
	BucketUsers = "users"
	BucketApps  = "apps"
	BucketLogs  = "logs"
	BucketToken = "token"
)

// QueryParam is a single query parameter. RequestSpec keeps parameters in
// insertion order so requests are reproducible.
type QueryParam struct {
	Key   string
	Value string
}

// RequestSpec describes one logical API request. It is a value type: the
// With* helpers return modified copies and never touch the receiver.
type RequestSpec struct {
	Method     string
	Path       string
	Query      []QueryParam
	Body       interface{}
	Bucket     string
	Idempotent bool
}

// NewRequest builds a RequestSpec. GET and HEAD requests are idempotent by
// default; every other method must opt in with WithIdempotent.
func NewRequest(method, path, bucket string) RequestSpec {
	return RequestSpec{
		Method:     method,
		Path:       path,
		Bucket:     bucket,
		Idempotent: method == http.MethodGet || method == http.MethodHead,
	}
}

// WithQuery returns a copy with key set to value. An existing key keeps its
// position; a new key is appended.
func (s RequestSpec) WithQuery(key, value string) RequestSpec {
	query := make([]QueryParam, 0, len(s.Query)+1)
	replaced := false

	for _, param := range s.Query {
		if param.Key == key {
			if !replaced {
				query = append(query, QueryParam{Key: key, Value: value})
				replaced = true
			}

			continue
		}

		query = append(query, param)
	}

	if !replaced {
		query = append(query, QueryParam{Key: key, Value: value})
	}

	s.Query = query

	return s
}

// WithQueryIf is WithQuery when value is non-empty.
func (s RequestSpec) WithQueryIf(key, value string) RequestSpec {
	if value == "" {
		return s
	}

	return s.WithQuery(key, value)
}

// WithBody returns a copy carrying body, encoded as JSON by the transport.
func (s RequestSpec) WithBody(body interface{}) RequestSpec {
	s.Body = body

	return s
}

// WithIdempotent returns a copy with the idempotency flag overridden.
func (s RequestSpec) WithIdempotent(idempotent bool) RequestSpec {
	s.Idempotent = idempotent

	return s
}

// QueryValue returns the value of key, or "" if absent.
func (s RequestSpec) QueryValue(key string) string {
	for _, param := range s.Query {
		if param.Key == key {
			return param.Value
		}
	}

	return ""
}

// EncodeQuery renders the query string in insertion order.
func (s RequestSpec) EncodeQuery() string {
	var builder strings.Builder

	for i, param := range s.Query {
		if i > 0 {
			builder.WriteByte('&')
		}

		builder.WriteString(url.QueryEscape(param.Key))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(param.Value))
	}

	return builder.String()
}

// RawResponse is an undecoded HTTP response.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ResponseMeta is the response metadata carried by a successful Result.
type ResponseMeta struct {
	StatusCode int
	Header     http.Header
}

// Result is the success variant of a core operation.
type Result[T any] struct {
	Value T
	Meta  ResponseMeta
}
