// Package feed pages through the news feed for one category at a time.
package feed

import (
	"context"
	"fmt"
	"slices"
	"sync"

	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

const (
	// PageSize is the number of articles requested per page
	PageSize = 10
	// LatestLimit caps the "more news" list shown next to an article
	LatestLimit = 30

	DefaultCategory = "all"
)

// NewsAPI is the part of the backend client the controller needs
type NewsAPI interface {
	News(ctx context.Context, category, page string, limit int) (*pkgapi.NewsPage, error)
	LatestNews(ctx context.Context, excludeID string, limit int) ([]pkgapi.Article, error)
}

// Controller holds the loaded articles of the current category
type Controller struct {
	api      NewsAPI
	category string
	nextPage string
	items    []pkgapi.Article
	hasMore  bool
	mu       sync.Mutex
}

// NewController creates a controller for the default category
func NewController(api NewsAPI) *Controller {
	return &Controller{api: api, category: DefaultCategory, hasMore: true}
}

// SetCategory switches the category and drops loaded items.
// Call Refresh afterwards.
func (c *Controller) SetCategory(category string) error {
	if !slices.Contains(pkgapi.Categories, category) {
		return fmt.Errorf("unknown category %q", category)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.category = category
	c.items = nil
	c.nextPage = ""
	c.hasMore = true
	return nil
}

// Category returns the current category
func (c *Controller) Category() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// Refresh loads the first page and replaces the loaded items
func (c *Controller) Refresh(ctx context.Context) ([]pkgapi.Article, error) {
	category := c.Category()

	page, err := c.api.News(ctx, category, "", PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load news: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// категорию могли сменить во время запроса
	if c.category != category {
		return slices.Clone(c.items), nil
	}
	c.items = slices.Clone(page.Results)
	c.nextPage = page.NextPage
	c.hasMore = page.NextPage != ""
	return slices.Clone(c.items), nil
}

// LoadMore appends the next page. Returns only the new articles;
// nothing is requested once the last page was loaded.
func (c *Controller) LoadMore(ctx context.Context) ([]pkgapi.Article, error) {
	c.mu.Lock()
	category, next, hasMore := c.category, c.nextPage, c.hasMore
	c.mu.Unlock()

	if !hasMore {
		return nil, nil
	}
	if next == "" {
		return c.Refresh(ctx)
	}

	page, err := c.api.News(ctx, category, next, PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load more news: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.category != category || c.nextPage != next {
		return nil, nil
	}
	c.items = append(c.items, page.Results...)
	c.nextPage = page.NextPage
	c.hasMore = page.NextPage != ""
	return slices.Clone(page.Results), nil
}

// Items returns a copy of the loaded articles
func (c *Controller) Items() []pkgapi.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// HasMore reports whether another page can be loaded
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Find returns a loaded article by id
func (c *Controller) Find(id string) (pkgapi.Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.items, func(a pkgapi.Article) bool { return a.ArticleID == id })
	if i < 0 {
		return pkgapi.Article{}, false
	}
	return c.items[i], true
}

// Latest returns recent articles other than excludeID
func (c *Controller) Latest(ctx context.Context, excludeID string) ([]pkgapi.Article, error) {
	articles, err := c.api.LatestNews(ctx, excludeID, LatestLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest news: %w", err)
	}

	// сервер может вернуть исключенную статью, фильтруем еще раз
	articles = slices.DeleteFunc(articles, func(a pkgapi.Article) bool { return a.ArticleID == excludeID })
	if len(articles) > LatestLimit {
		articles = articles[:LatestLimit]
	}
	return articles, nil
}
