package api

// Article is a news item as served by the feed endpoints
type Article struct {
	ArticleID   string   `json:"article_id"`
	Title       string   `json:"title"`
	Link        string   `json:"link,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	PubDate     string   `json:"pubDate,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	SourceID    string   `json:"source_id,omitempty"`
	Category    []string `json:"category,omitempty"`
	Creator     []string `json:"creator,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// NewsPage is one page of the feed; NextPage is empty on the last page
type NewsPage struct {
	NextPage string    `json:"nextPage,omitempty"`
	Results  []Article `json:"results"`
}

// Validate checks every article has an id
func (p NewsPage) Validate() error {
	for i, a := range p.Results {
		if a.ArticleID == "" {
			return malformed("results[%d].article_id is empty", i)
		}
	}
	return nil
}

// ReadRequest reports how long an article was on screen
type ReadRequest struct {
	TimeSpent int64 `json:"timeSpent" validate:"gte=0"`
}

// ReadData is the reward granted for a read
type ReadData struct {
	CoinsEarned int64 `json:"coinsEarned"`
	StreakBonus int64 `json:"streakBonus"`
}

// Categories served by /news/db
var Categories = []string{"all", "lifestyle", "health", "education", "business", "technology", "world"}
