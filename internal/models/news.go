package models

import "time"

// DayLayout formats the UTC day used for daily limits and streaks
const DayLayout = "2006-01-02"

// Article is a stored news item
type Article struct {
	PubDate     time.Time `json:"pub_date"`
	ID          string    `json:"article_id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"image_url"`
	SourceID    string    `json:"source_id"`
	Category    string    `json:"category"`
	Creator     string    `json:"creator"`
}

// ArticleFilter selects a page of articles, newest first
type ArticleFilter struct {
	// Category "all" or empty matches every article
	Category  string
	ExcludeID string
	Offset    uint64
	Limit     uint64
}

// Read is a credited article read
type Read struct {
	ReadAt      time.Time `json:"read_at"`
	UserID      string    `json:"user_id"`
	ArticleID   string    `json:"article_id"`
	Day         string    `json:"day"`
	TimeSpent   int64     `json:"time_spent"`
	Coins       int64     `json:"coins"`
	StreakBonus int64     `json:"streak_bonus"`
	// StreakDays is the user's streak after this read
	StreakDays int64 `json:"streak_days"`
}
