package okta_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID string `json:"id"`
}

// pageServer serves canned pages keyed by the "after" cursor.
type pageServer struct {
	pages    map[string]*okta.RawResponse
	requests []okta.RequestSpec
}

func (s *pageServer) fetch(_ context.Context, spec okta.RequestSpec) (*okta.RawResponse, error) {
	s.requests = append(s.requests, spec)

	resp, ok := s.pages[spec.QueryValue(okta.CursorParam)]
	if !ok {
		return nil, okta.CheckResponse(&okta.RawResponse{StatusCode: http.StatusNotFound})
	}

	return resp, nil
}

func linkHeader(cursor string) http.Header {
	header := http.Header{}
	header.Add(okta.HeaderLink, `<https://acme.okta.com/api/v1/logs?limit=2>; rel="self"`)

	if cursor != "" {
		header.Add(okta.HeaderLink, fmt.Sprintf(`<https://acme.okta.com/api/v1/logs?limit=2&after=%s>; rel="next"`, cursor))
	}

	return header
}

func threePages() *pageServer {
	return &pageServer{pages: map[string]*okta.RawResponse{
		"":  {StatusCode: http.StatusOK, Header: linkHeader("A"), Body: []byte(`[{"id":"1"},{"id":"2"}]`)},
		"A": {StatusCode: http.StatusOK, Header: linkHeader("B"), Body: []byte(`[{"id":"3"},{"id":"4"}]`)},
		"B": {StatusCode: http.StatusOK, Header: linkHeader(""), Body: []byte(`[{"id":"5"}]`)},
	}}
}

func ids(items []testItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}

	return out
}

func TestPager_ThreePageRoundTrip(t *testing.T) {
	t.Parallel()

	server := threePages()
	spec := okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs).WithQuery("limit", "2").WithQuery("filter", `eventType eq "x"`)
	pager := okta.NewPager[testItem](server.fetch, spec, nil, okta.PageOptions{})

	items, err := pager.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(items))

	require.Len(t, server.requests, 3)
	assert.Equal(t, "", server.requests[0].QueryValue("after"))
	assert.Equal(t, "A", server.requests[1].QueryValue("after"))
	assert.Equal(t, "B", server.requests[2].QueryValue("after"))

	for _, req := range server.requests {
		assert.Equal(t, "/logs", req.Path)
		assert.Equal(t, "2", req.QueryValue("limit"))
		assert.Equal(t, `eventType eq "x"`, req.QueryValue("filter"))
	}

	// The caller's request is untouched and the pager is not restartable.
	assert.Equal(t, "", spec.QueryValue("after"))

	_, err = pager.Next(context.Background())
	assert.ErrorIs(t, err, okta.ErrNoMorePages)
	assert.Len(t, server.requests, 3)
}

func TestPager_MaxItems(t *testing.T) {
	t.Parallel()

	server := threePages()
	pager := okta.NewPager[testItem](server.fetch, okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs), nil,
		okta.PageOptions{MaxItems: 3})

	items, err := pager.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(items))
	assert.Len(t, server.requests, 2)
}

func TestPager_MaxPages(t *testing.T) {
	t.Parallel()

	server := threePages()
	pager := okta.NewPager[testItem](server.fetch, okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs), nil,
		okta.PageOptions{MaxPages: 1})

	page, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", page.Next)

	_, err = pager.Next(context.Background())
	assert.ErrorIs(t, err, okta.ErrNoMorePages)
	assert.Len(t, server.requests, 1)
}

func TestPager_FailureTerminatesSequence(t *testing.T) {
	t.Parallel()

	server := threePages()
	server.pages["B"] = &okta.RawResponse{StatusCode: http.StatusOK, Body: []byte(`[{"id":`)}

	pager := okta.NewPager[testItem](server.fetch, okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs), nil, okta.PageOptions{})

	var seen []string

	var iterErr error

	for item, err := range pager.All(context.Background()) {
		if err != nil {
			iterErr = err

			break
		}

		seen = append(seen, item.ID)
	}

	assert.Equal(t, []string{"1", "2", "3", "4"}, seen)
	assert.True(t, okta.IsValidation(iterErr))

	_, err := pager.Next(context.Background())
	assert.Equal(t, iterErr, err)
	assert.Len(t, server.requests, 3)
}

func TestPager_FetchErrorIsSticky(t *testing.T) {
	t.Parallel()

	calls := 0
	fetch := func(context.Context, okta.RequestSpec) (*okta.RawResponse, error) {
		calls++

		return nil, okta.CheckResponse(&okta.RawResponse{StatusCode: http.StatusForbidden})
	}

	pager := okta.NewPager[testItem](fetch, okta.NewRequest(http.MethodGet, "/apps", okta.BucketApps), nil, okta.PageOptions{})

	_, err := pager.Next(context.Background())
	assert.True(t, okta.IsForbidden(err))

	_, err = pager.Next(context.Background())
	assert.True(t, okta.IsForbidden(err))
	assert.Equal(t, 1, calls)
}

func TestPager_CustomDecoder(t *testing.T) {
	t.Parallel()

	server := threePages()
	pager := okta.NewPager[any](server.fetch, okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs),
		okta.DecodeItemsAs[testItem], okta.PageOptions{})

	items, err := pager.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, testItem{ID: "5"}, items[4])
}

func TestPager_EarlyBreakStopsFetching(t *testing.T) {
	t.Parallel()

	server := threePages()
	pager := okta.NewPager[testItem](server.fetch, okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs), nil, okta.PageOptions{})

	for item, err := range pager.All(context.Background()) {
		require.NoError(t, err)

		if item.ID == "2" {
			break
		}
	}

	assert.Len(t, server.requests, 1)
}

func TestNextCursor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []string
		cursor string
	}{
		{"no header", nil, ""},
		{"self only", []string{`<https://a.okta.com/api/v1/users?limit=2>; rel="self"`}, ""},
		{
			"separate headers",
			[]string{`<https://a.okta.com/api/v1/users?limit=2>; rel="self"`, `<https://a.okta.com/api/v1/users?after=00u2&limit=2>; rel="next"`},
			"00u2",
		},
		{
			"comma joined",
			[]string{`<https://a.okta.com/api/v1/users?limit=2>; rel="self", <https://a.okta.com/api/v1/users?after=abc%3D%3D&limit=2>; rel="next"`},
			"abc==",
		},
		{"unquoted rel", []string{`<https://a.okta.com/api/v1/logs?after=1700000000_1>; rel=next`}, "1700000000_1"},
		{"next without cursor", []string{`<https://a.okta.com/api/v1/logs?limit=2>; rel="next"`}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			header := http.Header{}
			for _, v := range tt.values {
				header.Add(okta.HeaderLink, v)
			}

			assert.Equal(t, tt.cursor, okta.NextCursor(header))
		})
	}
}

func TestPager_ContextCancellationSurfaces(t *testing.T) {
	t.Parallel()

	fetch := func(ctx context.Context, _ okta.RequestSpec) (*okta.RawResponse, error) {
		return nil, okta.MapTransportError(ctx.Err())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pager := okta.NewPager[testItem](fetch, okta.NewRequest(http.MethodGet, "/logs", okta.BucketLogs), nil, okta.PageOptions{})

	_, err := pager.Next(ctx)
	assert.True(t, okta.IsTimeout(err))
	assert.True(t, errors.Is(err, context.Canceled))
}
