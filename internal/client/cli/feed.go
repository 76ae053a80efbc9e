package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newscoin/newscoin/internal/client/reader"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

const titleWidth = 70

func (c *Cli) runFeed(ctx context.Context, args []string) error {
	if len(args) > 0 {
		if err := c.feed.SetCategory(strings.ToLower(args[0])); err != nil {
			return fmt.Errorf("%w. Use one of: %s", err, categoryList())
		}
	}

	items, err := c.feed.Refresh(ctx)
	if err != nil {
		return describe(err, "Failed to load news")
	}

	c.io.Printf("=== News: %s ===\n", c.feed.Category())
	c.io.Println()
	if len(items) == 0 {
		c.io.Println("No news available right now.")
		return nil
	}
	c.printArticles(items, 1)

	n := len(items)
	for c.feed.HasMore() {
		input, err := c.io.ReadInput("Press Enter for more, 'q' to quit: ")
		if err != nil || strings.EqualFold(strings.TrimSpace(input), "q") {
			break
		}

		more, err := c.feed.LoadMore(ctx)
		if err != nil {
			return describe(err, "Failed to load more news")
		}
		c.printArticles(more, n+1)
		n += len(more)
	}

	if !c.feed.HasMore() {
		c.io.Println("-- end of feed --")
	}
	c.io.Println()
	c.io.Println("Run 'newscoin read <article-id>' to read an article.")
	return nil
}

func (c *Cli) printArticles(items []pkgapi.Article, start int) {
	for i, a := range items {
		c.io.Printf("%3d. %s\n     id: %s\n", start+i, truncate(a.Title, titleWidth), a.ArticleID)
	}
}

func (c *Cli) runRead(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing article ID. Usage: newscoin read <article-id>")
	}
	articleID := args[0]

	article, found := c.findArticle(ctx, articleID)
	if found {
		if err := c.render("article", article); err != nil {
			return err
		}
	} else {
		c.io.Printf("=== Article %s ===\n", articleID)
	}
	c.io.Println()

	if c.tracker == nil || !c.tracker.Start(ctx, articleID) {
		if !c.store.Current().Authenticated() {
			c.io.Println("Log in to earn coins for reading.")
		}
		c.printLatest(ctx, articleID)
		return nil
	}

	// старый результат не относится к этой статье
	select {
	case <-c.outcomes:
	default:
	}

	c.io.Printf("Keep reading for %s to earn coins. Press Enter to close the article.\n", c.dwell)

	closed := make(chan struct{})
	go func() {
		_, _ = c.io.ReadInput("")
		close(closed)
	}()

	select {
	case o := <-c.outcomes:
		c.printOutcome(o)
	case <-closed:
		c.tracker.Stop()
		c.io.Println("Article closed early, no coins earned.")
		return nil
	case <-ctx.Done():
		c.tracker.Stop()
		return ctx.Err()
	}

	c.printLatest(ctx, articleID)
	return nil
}

func (c *Cli) findArticle(ctx context.Context, id string) (pkgapi.Article, bool) {
	if a, ok := c.feed.Find(id); ok {
		return a, true
	}
	if _, err := c.feed.Refresh(ctx); err == nil {
		if a, ok := c.feed.Find(id); ok {
			return a, true
		}
	}
	latest, err := c.feed.Latest(ctx, "")
	if err != nil {
		return pkgapi.Article{}, false
	}
	for _, a := range latest {
		if a.ArticleID == id {
			return a, true
		}
	}
	return pkgapi.Article{}, false
}

func (c *Cli) printOutcome(o reader.Outcome) {
	c.io.Println()
	switch o.Status {
	case reader.StatusCredited:
		c.io.Printf("🎉 You earned %d coins!\n", o.CoinsEarned)
		if o.StreakBonus > 0 {
			c.io.Printf("🔥 +%d bonus coins for your 7-day streak!\n", o.StreakBonus)
		}
		if user := c.store.Current().User; user != nil {
			c.io.Printf("Balance: %d coins\n", user.Wallet.AvailableCoins)
		}
	case reader.StatusNoReward:
		c.io.Println("✓ Read recorded. No coins this time, the daily limit may be reached.")
	case reader.StatusAlreadyRead:
		c.io.Println("You already read this article today.")
	case reader.StatusNotFound:
		c.io.Println("✗ Article not found.")
	default:
		c.io.Printf("✗ Could not record the read: %v\n", describe(o.Err, "Track reading failed"))
	}
}

func (c *Cli) printLatest(ctx context.Context, excludeID string) {
	latest, err := c.feed.Latest(ctx, excludeID)
	if err != nil || len(latest) == 0 {
		return
	}

	c.io.Println()
	c.io.Println("=== Latest News ===")
	c.printArticles(latest, 1)
}
