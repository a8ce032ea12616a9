package wp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lysyi3m/newsdesk/app/post"
)

var _ Source = (*FallbackSource)(nil)

// FallbackSource asks the primary source first and retries a failed request
// on the secondary one. When the secondary cannot serve the request kind the
// primary error is returned.
type FallbackSource struct {
	primary   Source
	secondary Source
}

func NewFallbackSource(primary, secondary Source) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary}
}

func (s *FallbackSource) FetchPostsByCategoryID(ctx context.Context, id int64, page, pageSize int) ([]post.Post, error) {
	return fallback(ctx, "category", func(src Source) ([]post.Post, error) {
		return src.FetchPostsByCategoryID(ctx, id, page, pageSize)
	}, s.primary, s.secondary)
}

func (s *FallbackSource) FetchPostsByDateRange(ctx context.Context, after, before string, page, pageSize int) ([]post.Post, error) {
	return fallback(ctx, "date_range", func(src Source) ([]post.Post, error) {
		return src.FetchPostsByDateRange(ctx, after, before, page, pageSize)
	}, s.primary, s.secondary)
}

func (s *FallbackSource) FetchPostsBySearch(ctx context.Context, query string) ([]post.Post, error) {
	return fallback(ctx, "search", func(src Source) ([]post.Post, error) {
		return src.FetchPostsBySearch(ctx, query)
	}, s.primary, s.secondary)
}

func (s *FallbackSource) FetchCategoryList(ctx context.Context) ([]Category, error) {
	return fallback(ctx, "categories", func(src Source) ([]Category, error) {
		return src.FetchCategoryList(ctx)
	}, s.primary, s.secondary)
}

func (s *FallbackSource) FetchPost(ctx context.Context, id int64) (*post.Post, error) {
	return fallback(ctx, "post", func(src Source) (*post.Post, error) {
		return src.FetchPost(ctx, id)
	}, s.primary, s.secondary)
}

func fallback[T any](ctx context.Context, kind string, call func(Source) (T, error), primary, secondary Source) (T, error) {
	result, err := call(primary)
	if err == nil || ctx.Err() != nil || errors.Is(err, ErrNotFound) {
		return result, err
	}

	slog.Warn("Primary source failed, trying fallback", "request", kind, "error", err)

	fallbackResult, fallbackErr := call(secondary)
	if errors.Is(fallbackErr, ErrUnsupported) {
		return result, err
	}
	return fallbackResult, fallbackErr
}
