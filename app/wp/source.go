package wp

import (
	"context"
	"errors"

	"github.com/lysyi3m/newsdesk/app/post"
)

var (
	// ErrUnsupported is returned by sources that cannot serve a request kind.
	ErrUnsupported = errors.New("operation not supported by source")
	ErrNotFound    = errors.New("not found")
)

// CategoryListPageSize is the page size used for the remote category list.
// The whole list is assumed to fit in one page.
const CategoryListPageSize = 100

type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int64  `json:"parent"`
	Count  int    `json:"count"`
}

// Source is the remote content source posts are read from.
type Source interface {
	FetchPostsByCategoryID(ctx context.Context, id int64, page, pageSize int) ([]post.Post, error)
	FetchPostsByDateRange(ctx context.Context, after, before string, page, pageSize int) ([]post.Post, error)
	FetchPostsBySearch(ctx context.Context, query string) ([]post.Post, error)
	FetchCategoryList(ctx context.Context) ([]Category, error)
	FetchPost(ctx context.Context, id int64) (*post.Post, error)
}
