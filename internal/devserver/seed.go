package devserver

import (
	"context"
	"fmt"
	"time"

	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/models"
)

type seedStory struct {
	category    string
	title       string
	description string
}

var seedStories = []seedStory{
	{"technology", "Open-source compilers get faster builds", "Incremental linking lands in the latest release."},
	{"technology", "Battery research promises week-long phones", "Solid-state cells pass the first durability tests."},
	{"technology", "City networks switch to IPv6 only", "Municipal Wi-Fi drops legacy addressing."},
	{"business", "Small exporters adopt digital invoices", "Paperless trade cuts customs delays in half."},
	{"business", "Coffee prices ease after record harvest", "Roasters expect cheaper retail beans by spring."},
	{"business", "Remote-first firms report lower churn", "A survey of 400 companies tracks retention."},
	{"health", "Short walks after meals steady blood sugar", "Ten minutes is enough, researchers say."},
	{"health", "Clinics pilot same-day test results", "Portable analyzers reach rural districts."},
	{"health", "Sleep regularity matters more than length", "A large cohort study links routine to mood."},
	{"education", "Schools trial four-day weeks", "Attendance rises in the first semester."},
	{"education", "Free courses teach data literacy to adults", "Libraries host evening cohorts."},
	{"education", "Student-built satellite reaches orbit", "The cubesat will photograph coastlines."},
	{"lifestyle", "Community gardens spread to rooftops", "Residents grow vegetables above busy streets."},
	{"lifestyle", "Repair cafes keep appliances out of landfill", "Volunteers fix toasters and lamps for free."},
	{"lifestyle", "Night trains return to popular routes", "Travelers trade flights for sleeper cabins."},
	{"world", "Coastal cities coordinate flood defenses", "Shared forecasting models go live."},
	{"world", "Rail link shortens cross-border commute", "The new line opens after six years of work."},
	{"world", "Reforestation project passes a million trees", "Local farmers manage the nurseries."},
}

// SeedArticles stores a fixed set of demo articles, one hour apart,
// ending at the start of the day of now. Existing articles are updated.
func SeedArticles(ctx context.Context, news storage.NewsStorage, now time.Time) (int, error) {
	base := now.UTC().Truncate(24 * time.Hour)
	counts := make(map[string]int)

	articles := make([]models.Article, 0, len(seedStories))
	for i, story := range seedStories {
		counts[story.category]++
		id := fmt.Sprintf("seed-%s-%d", story.category, counts[story.category])
		articles = append(articles, models.Article{
			ID:          id,
			Title:       story.title,
			Link:        "https://news.example.com/" + id,
			Description: story.description,
			Content:     story.description + " Full coverage continues in the linked article.",
			SourceID:    "newscoin-demo",
			Category:    story.category,
			Creator:     "NewsCoin Desk",
			PubDate:     base.Add(-time.Duration(i) * time.Hour),
		})
	}

	if err := news.SaveArticles(ctx, articles); err != nil {
		return 0, fmt.Errorf("failed to seed articles: %w", err)
	}
	return len(articles), nil
}
