// Package wptest provides an in-memory wp.Source for tests.
package wptest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/lysyi3m/newsdesk/app/post"
	"github.com/lysyi3m/newsdesk/app/wp"
)

// Source serves canned posts and records every call it receives. Set the
// function fields to override a request kind.
type Source struct {
	mu sync.Mutex

	Categories      []wp.Category
	CategoryErr     error
	PostsByCategory map[int64][]post.Post
	PostsBySearch   map[string][]post.Post
	Posts           map[int64]post.Post

	DateRangeFunc func(ctx context.Context, after, before string, page, pageSize int) ([]post.Post, error)
	CategoryFunc  func(ctx context.Context, id int64) ([]post.Post, error)

	categoryCalls []int64
	searchCalls   []string
	rangeCalls    []string
}

var _ wp.Source = (*Source)(nil)

func New() *Source {
	return &Source{
		PostsByCategory: make(map[int64][]post.Post),
		PostsBySearch:   make(map[string][]post.Post),
		Posts:           make(map[int64]post.Post),
	}
}

func (s *Source) FetchPostsByCategoryID(ctx context.Context, id int64, page, pageSize int) ([]post.Post, error) {
	s.mu.Lock()
	s.categoryCalls = append(s.categoryCalls, id)
	fn := s.CategoryFunc
	posts, ok := s.PostsByCategory[id]
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	if !ok {
		return nil, fmt.Errorf("no posts for category %d", id)
	}
	return post.Truncate(slices.Clone(posts), pageSize), nil
}

func (s *Source) FetchPostsByDateRange(ctx context.Context, after, before string, page, pageSize int) ([]post.Post, error) {
	s.mu.Lock()
	s.rangeCalls = append(s.rangeCalls, after)
	fn := s.DateRangeFunc
	s.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, after, before, page, pageSize)
}

func (s *Source) FetchPostsBySearch(ctx context.Context, query string) ([]post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls = append(s.searchCalls, query)
	return slices.Clone(s.PostsBySearch[query]), nil
}

func (s *Source) FetchCategoryList(ctx context.Context) ([]wp.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CategoryErr != nil {
		return nil, s.CategoryErr
	}
	return slices.Clone(s.Categories), nil
}

func (s *Source) FetchPost(ctx context.Context, id int64) (*post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Posts[id]
	if !ok {
		return nil, wp.ErrNotFound
	}
	return &p, nil
}

func (s *Source) CategoryCalls() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.categoryCalls)
}

func (s *Source) SearchCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.searchCalls)
}

func (s *Source) RangeCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rangeCalls)
}
