package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/models"
)

var articleColumns = []string{
	"id", "title", "link", "description", "content", "image_url",
	"source_id", "category", "creator", "pub_date",
}

// allCategories matches every article
const allCategories = "all"

// upsertArticle обновляет запись на месте, REPLACE удалил бы связанные reads
const upsertArticle = `ON CONFLICT(id) DO UPDATE SET
	title = excluded.title, link = excluded.link, description = excluded.description,
	content = excluded.content, image_url = excluded.image_url, source_id = excluded.source_id,
	category = excluded.category, creator = excluded.creator, pub_date = excluded.pub_date`

// SaveArticles inserts articles or updates them by ID
func (s *Storage) SaveArticles(ctx context.Context, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}

	qb := psq.Insert("articles").Columns(articleColumns...)
	for _, a := range articles {
		qb = qb.Values(a.ID, a.Title, a.Link, a.Description, a.Content, a.ImageURL,
			a.SourceID, a.Category, a.Creator, a.PubDate)
	}

	query, args, err := qb.Suffix(upsertArticle).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save articles: %w", err)
	}
	return nil
}

func applyArticleFilter(qb sq.SelectBuilder, filter models.ArticleFilter) sq.SelectBuilder {
	if filter.Category != "" && filter.Category != allCategories {
		qb = qb.Where(sq.Eq{"category": filter.Category})
	}
	if filter.ExcludeID != "" {
		qb = qb.Where(sq.NotEq{"id": filter.ExcludeID})
	}
	return qb
}

// ListArticles returns articles matching filter, newest first
func (s *Storage) ListArticles(ctx context.Context, filter models.ArticleFilter) ([]models.Article, error) {
	qb := applyArticleFilter(psq.Select(articleColumns...).From("articles"), filter).
		OrderBy("pub_date DESC", "id")
	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		qb = qb.Offset(filter.Offset)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build articles query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]models.Article, 0, filter.Limit)
	for rows.Next() {
		var a models.Article
		if err := scanArticle(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return articles, nil
}

// GetArticle retrieves article by ID
func (s *Storage) GetArticle(ctx context.Context, articleID string) (*models.Article, error) {
	query, args, err := psq.Select(articleColumns...).From("articles").Where(sq.Eq{"id": articleID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	var a models.Article
	if err := scanArticle(s.db.QueryRowContext(ctx, query, args...), &a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return &a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner, a *models.Article) error {
	return row.Scan(
		&a.ID,
		&a.Title,
		&a.Link,
		&a.Description,
		&a.Content,
		&a.ImageURL,
		&a.SourceID,
		&a.Category,
		&a.Creator,
		&a.PubDate,
	)
}
