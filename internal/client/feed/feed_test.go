package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

type newsCall struct {
	category string
	page     string
	limit    int
}

// fakeNews serves pages "", "p2", "p3" of three articles each
type fakeNews struct {
	err    error
	calls  []newsCall
	latest []pkgapi.Article
}

func articles(prefix string, n int) []pkgapi.Article {
	out := make([]pkgapi.Article, n)
	for i := range out {
		out[i] = pkgapi.Article{ArticleID: fmt.Sprintf("%s-%d", prefix, i), Title: prefix}
	}
	return out
}

func (f *fakeNews) News(_ context.Context, category, page string, limit int) (*pkgapi.NewsPage, error) {
	f.calls = append(f.calls, newsCall{category: category, page: page, limit: limit})
	if f.err != nil {
		return nil, f.err
	}
	switch page {
	case "":
		return &pkgapi.NewsPage{Results: articles(category+"-p1", 3), NextPage: "p2"}, nil
	case "p2":
		return &pkgapi.NewsPage{Results: articles(category+"-p2", 3), NextPage: "p3"}, nil
	default:
		return &pkgapi.NewsPage{Results: articles(category+"-p3", 3)}, nil
	}
}

func (f *fakeNews) LatestNews(_ context.Context, excludeID string, limit int) ([]pkgapi.Article, error) {
	return f.latest, f.err
}

func TestController_Paging(t *testing.T) {
	ctx := context.Background()
	api := &fakeNews{}
	c := NewController(api)

	items, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.True(t, c.HasMore())

	more, err := c.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, more, 3)
	assert.Equal(t, "all-p2-0", more[0].ArticleID)

	_, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, c.HasMore())
	assert.Len(t, c.Items(), 9)

	// последняя страница загружена, новых запросов нет
	more, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.Empty(t, more)
	assert.Len(t, api.calls, 3)

	for _, call := range api.calls {
		assert.Equal(t, PageSize, call.limit)
		assert.Equal(t, "all", call.category)
	}
	assert.Equal(t, []string{"", "p2", "p3"}, []string{api.calls[0].page, api.calls[1].page, api.calls[2].page})
}

func TestController_RefreshReplacesItems(t *testing.T) {
	ctx := context.Background()
	c := NewController(&fakeNews{})

	_, err := c.Refresh(ctx)
	require.NoError(t, err)
	_, err = c.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, c.Items(), 6)

	items, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.True(t, c.HasMore())
}

func TestController_SetCategory(t *testing.T) {
	ctx := context.Background()
	api := &fakeNews{}
	c := NewController(api)

	_, err := c.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, c.SetCategory("business"))
	assert.Empty(t, c.Items())
	assert.Equal(t, "business", c.Category())

	items, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "business-p1-0", items[0].ArticleID)

	assert.Error(t, c.SetCategory("sports"))
	assert.Equal(t, "business", c.Category())
}

func TestController_LoadMoreBeforeRefresh(t *testing.T) {
	api := &fakeNews{}
	c := NewController(api)

	items, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, "", api.calls[0].page)
}

func TestController_Error(t *testing.T) {
	apiErr := errors.New("boom")
	c := NewController(&fakeNews{err: apiErr})

	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, apiErr)
	assert.Empty(t, c.Items())
	assert.True(t, c.HasMore())
}

func TestController_FindAndLatest(t *testing.T) {
	ctx := context.Background()
	api := &fakeNews{latest: append(articles("latest", 31), pkgapi.Article{ArticleID: "all-p1-0"})}
	c := NewController(api)

	_, err := c.Refresh(ctx)
	require.NoError(t, err)

	a, ok := c.Find("all-p1-1")
	require.True(t, ok)
	assert.Equal(t, "all-p1", a.Title)

	_, ok = c.Find("missing")
	assert.False(t, ok)

	latest, err := c.Latest(ctx, "all-p1-0")
	require.NoError(t, err)
	assert.Len(t, latest, LatestLimit)
	for _, l := range latest {
		assert.NotEqual(t, "all-p1-0", l.ArticleID)
	}
}
