package storage

import (
	"context"

	"github.com/newscoin/newscoin/internal/models"
)

// NewsStorage defines interface for article persistence
type NewsStorage interface {
	// SaveArticles inserts or replaces articles by ID
	SaveArticles(ctx context.Context, articles []models.Article) error

	// ListArticles returns articles matching filter, newest first
	ListArticles(ctx context.Context, filter models.ArticleFilter) ([]models.Article, error)

	// GetArticle retrieves article by ID
	// Returns ErrArticleNotFound if article doesn't exist
	GetArticle(ctx context.Context, articleID string) (*models.Article, error)
}
