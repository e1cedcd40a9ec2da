package okta

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// CursorParam is the query parameter carrying the pagination cursor.
const CursorParam = "after"

// Page is one page of a list response. Next is the opaque cursor for the
// following page, or "" on the last page.
type Page[T any] struct {
	Items []T
	Next  string
	Meta  ResponseMeta
}

// PageOptions bounds a pagination run. Zero values mean no limit.
type PageOptions struct {
	MaxItems int
	MaxPages int
}

// PageFetcher sends one page request through the full pipeline and returns a
// 2xx response or a typed error.
type PageFetcher func(ctx context.Context, spec RequestSpec) (*RawResponse, error)

// PageDecoder decodes the items of one page.
type PageDecoder[T any] func(raw *RawResponse) ([]T, error)

// DecodeItems decodes a JSON array body into []T.
func DecodeItems[T any](raw *RawResponse) ([]T, error) {
	result, err := Decode[[]T](raw)
	if err != nil {
		return nil, err
	}

	return result.Value, nil
}

// DecodeItemsAs decodes a JSON array body into []T and exposes it as []any.
func DecodeItemsAs[T any](raw *RawResponse) ([]any, error) {
	items, err := DecodeItems[T](raw)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}

	return out, nil
}

// DecodeRawItems keeps each item as undecoded JSON.
func DecodeRawItems(raw *RawResponse) ([]json.RawMessage, error) {
	return DecodeItems[json.RawMessage](raw)
}

// Pager lazily walks a paginated list endpoint. It is finite and not
// restartable: once it returns ErrNoMorePages or an error, every later call
// returns the same.
type Pager[T any] struct {
	fetch  PageFetcher
	decode PageDecoder[T]
	opts   PageOptions

	mu    sync.Mutex
	spec  RequestSpec
	done  bool
	err   error
	pages int
	items int
}

// NewPager creates a pager starting at spec. A nil decode uses DecodeItems.
func NewPager[T any](fetch PageFetcher, spec RequestSpec, decode PageDecoder[T], opts PageOptions) *Pager[T] {
	if decode == nil {
		decode = DecodeItems[T]
	}

	return &Pager[T]{
		fetch:  fetch,
		decode: decode,
		opts:   opts,
		spec:   spec,
	}
}

// Next fetches the next page. It returns ErrNoMorePages when the sequence is
// exhausted. A failed fetch or decode ends the sequence and nothing from that
// page is returned.
func (p *Pager[T]) Next(ctx context.Context) (*Page[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}

	if p.done || (p.opts.MaxPages > 0 && p.pages >= p.opts.MaxPages) ||
		(p.opts.MaxItems > 0 && p.items >= p.opts.MaxItems) {
		p.done = true

		return nil, ErrNoMorePages
	}

	raw, err := p.fetch(ctx, p.spec)
	if err != nil {
		p.err = err

		return nil, err
	}

	items, err := p.decode(raw)
	if err != nil {
		p.err = err

		return nil, err
	}

	cursor := NextCursor(raw.Header)

	if p.opts.MaxItems > 0 {
		remaining := p.opts.MaxItems - p.items
		if len(items) >= remaining {
			items = items[:remaining]
			cursor = ""
		}
	}

	p.pages++
	p.items += len(items)

	if cursor == "" {
		p.done = true
	} else {
		p.spec = p.spec.WithQuery(CursorParam, cursor)
	}

	return &Page[T]{
		Items: items,
		Next:  cursor,
		Meta:  ResponseMeta{StatusCode: raw.StatusCode, Header: raw.Header},
	}, nil
}

// Pages iterates over the remaining pages. Iteration stops after the first
// error, which is yielded once.
func (p *Pager[T]) Pages(ctx context.Context) iter.Seq2[*Page[T], error] {
	return func(yield func(*Page[T], error) bool) {
		for {
			page, err := p.Next(ctx)
			if errors.Is(err, ErrNoMorePages) {
				return
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(page, nil) {
				return
			}
		}
	}
}

// All iterates over the remaining items across pages.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page, err := range p.Pages(ctx) {
			if err != nil {
				var zero T

				yield(zero, err)

				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// Collect drains the pager into a slice. On error the items of earlier pages
// are returned alongside it.
func (p *Pager[T]) Collect(ctx context.Context) ([]T, error) {
	var all []T

	for page, err := range p.Pages(ctx) {
		if err != nil {
			return all, err
		}

		all = append(all, page.Items...)
	}

	return all, nil
}

// NextLink returns the URL of the rel="next" entry of the Link headers.
func NextLink(header http.Header) string {
	for _, value := range header.Values(HeaderLink) {
		for _, entry := range strings.Split(value, ",") {
			parts := strings.Split(entry, ";")
			if len(parts) < 2 {
				continue
			}

			target := strings.TrimSpace(parts[0])
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}

			for _, attr := range parts[1:] {
				key, val, ok := strings.Cut(strings.TrimSpace(attr), "=")
				if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
					continue
				}

				for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(val), `"`)) {
					if rel == "next" {
						return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
					}
				}
			}
		}
	}

	return ""
}

// NextCursor extracts the cursor from the rel="next" link, or "".
func NextCursor(header http.Header) string {
	link := NextLink(header)
	if link == "" {
		return ""
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}

	return parsed.Query().Get(CursorParam)
}
