package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/newscoin/newscoin/internal/config"
	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/models"
	"github.com/newscoin/newscoin/internal/validation"
	"github.com/newscoin/newscoin/pkg/api"
)

const (
	defaultFeedLimit   = 10
	defaultLatestLimit = 30
	maxFeedLimit       = 50
	// pubDateLayout формат даты публикации в ответах ленты
	pubDateLayout = "2006-01-02 15:04:05"
)

// NewsHandler serves the feed and credits reads
type NewsHandler struct {
	responder
	news    storage.NewsStorage
	rewards storage.RewardStorage
	users   storage.UserStorage
	now     func() time.Time
	cfg     config.Rewards
}

// NewNewsHandler создает handler ленты; now == nil означает time.Now
func NewNewsHandler(
	logger *slog.Logger,
	news storage.NewsStorage,
	rewards storage.RewardStorage,
	users storage.UserStorage,
	cfg config.Rewards,
	now func() time.Time,
) *NewsHandler {
	if now == nil {
		now = time.Now
	}
	return &NewsHandler{
		responder: responder{logger: logger},
		news:      news,
		rewards:   rewards,
		users:     users,
		now:       now,
		cfg:       cfg,
	}
}

// Feed обрабатывает GET /news/db?category=&limit=&page=
// page это смещение, которое сервер вернул в nextPage
func (h *NewsHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	category := query.Get("category")
	if category == "" {
		category = api.Categories[0]
	}
	if !slices.Contains(api.Categories, category) {
		h.sendError(w, "Invalid category", http.StatusBadRequest)
		return
	}

	limit, ok := parseLimit(query.Get("limit"), defaultFeedLimit)
	if !ok {
		h.sendError(w, "Invalid limit", http.StatusBadRequest)
		return
	}

	var offset uint64
	if page := query.Get("page"); page != "" {
		var err error
		offset, err = strconv.ParseUint(page, 10, 64)
		if err != nil {
			h.sendError(w, "Invalid page", http.StatusBadRequest)
			return
		}
	}

	// берем на одну статью больше, чтобы узнать есть ли следующая страница
	articles, err := h.news.ListArticles(ctx, models.ArticleFilter{
		Category: category,
		Offset:   offset,
		Limit:    limit + 1,
	})
	if err != nil {
		h.internalError(ctx, w, "failed to list articles", err)
		return
	}

	page := api.NewsPage{}
	if uint64(len(articles)) > limit {
		articles = articles[:limit]
		page.NextPage = strconv.FormatUint(offset+limit, 10)
	}
	page.Results = toAPIArticles(articles)

	sendData(h.responder, w, "", page, http.StatusOK)
}

// Latest обрабатывает GET /news/latest/feed?limit=&excludeId=
func (h *NewsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit, ok := parseLimit(query.Get("limit"), defaultLatestLimit)
	if !ok {
		h.sendError(w, "Invalid limit", http.StatusBadRequest)
		return
	}

	articles, err := h.news.ListArticles(ctx, models.ArticleFilter{
		ExcludeID: query.Get("excludeId"),
		Limit:     limit,
	})
	if err != nil {
		h.internalError(ctx, w, "failed to list latest articles", err)
		return
	}

	sendData(h.responder, w, "", api.NewsPage{Results: toAPIArticles(articles)}, http.StatusOK)
}

// MarkRead обрабатывает POST /news/{id}/read
// Начисляет монеты за прочтение с учетом дневного лимита и серии дней
func (h *NewsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserID(ctx)
	if !ok {
		h.sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.ReadRequest
	if err := decode(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	articleID := mux.Vars(r)["id"]
	if _, err := h.news.GetArticle(ctx, articleID); err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			h.sendError(w, "Article not found", http.StatusNotFound)
			return
		}
		h.internalError(ctx, w, "failed to get article", err)
		return
	}

	if req.TimeSpent < h.cfg.MinReadSeconds {
		h.sendError(w, fmt.Sprintf("Read for at least %d seconds to earn coins", h.cfg.MinReadSeconds),
			http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		h.internalError(ctx, w, "failed to get user", err)
		return
	}

	now := h.now().UTC()
	read := &models.Read{
		UserID:    user.ID,
		ArticleID: articleID,
		Day:       now.Format(models.DayLayout),
		TimeSpent: req.TimeSpent,
		ReadAt:    now,
	}

	readsToday, err := h.rewards.CountReads(ctx, user.ID, read.Day)
	if err != nil {
		h.internalError(ctx, w, "failed to count reads", err)
		return
	}
	h.applyRewards(user, read, readsToday, now)

	if err := h.rewards.RecordRead(ctx, read); err != nil {
		if errors.Is(err, storage.ErrAlreadyRead) {
			h.sendError(w, "Article already read", http.StatusBadRequest)
			return
		}
		h.internalError(ctx, w, "failed to record read", err)
		return
	}

	h.logger.InfoContext(ctx, "article read",
		slog.String("user_id", user.ID),
		slog.String("article_id", articleID),
		slog.Int64("coins", read.Coins),
		slog.Int64("streak_bonus", read.StreakBonus),
		slog.Int64("streak_days", read.StreakDays))

	h.payReferrer(ctx, user)

	message := "Coins earned"
	if read.Coins == 0 {
		message = "Daily reward limit reached"
	}
	sendData(h.responder, w, message, api.ReadData{
		CoinsEarned: read.Coins,
		StreakBonus: read.StreakBonus,
	}, http.StatusOK)
}

// applyRewards fills coins and streak of read
func (h *NewsHandler) applyRewards(user *models.User, read *models.Read, readsToday int64, now time.Time) {
	if readsToday < h.cfg.DailyReadLimit {
		read.Coins = h.cfg.ReadReward
	}

	yesterday := now.AddDate(0, 0, -1).Format(models.DayLayout)
	firstToday := user.LastReadDay != read.Day
	switch user.LastReadDay {
	case read.Day:
		read.StreakDays = user.StreakDays
	case yesterday:
		read.StreakDays = user.StreakDays + 1
	default:
		read.StreakDays = 1
	}

	// бонус за серию только при первом прочтении дня
	if firstToday && read.Coins > 0 && read.StreakDays%h.cfg.StreakDays == 0 {
		read.StreakBonus = h.cfg.StreakBonus
	}
}

// payReferrer начисляет бонус пригласившему, когда приглашенный
// прочитал ReferralReads статей. Ошибки только логируются.
func (h *NewsHandler) payReferrer(ctx context.Context, user *models.User) {
	if user.ReferredBy == "" {
		return
	}

	total, err := h.rewards.CountReads(ctx, user.ID, "")
	if err != nil {
		h.logger.WarnContext(ctx, "failed to count reads for referral", slog.Any("error", err))
		return
	}
	if total != h.cfg.ReferralReads {
		return
	}

	referrer, err := h.users.GetUserByReferralCode(ctx, user.ReferredBy)
	if err != nil {
		h.logger.WarnContext(ctx, "referrer not found", slog.String("code", user.ReferredBy), slog.Any("error", err))
		return
	}
	if err := h.rewards.CreditCoins(ctx, referrer.ID, h.cfg.ReferralBonus); err != nil {
		h.logger.WarnContext(ctx, "failed to pay referral bonus", slog.Any("error", err))
		return
	}

	h.logger.InfoContext(ctx, "referral bonus paid",
		slog.String("referrer_id", referrer.ID),
		slog.String("user_id", user.ID),
		slog.Int64("coins", h.cfg.ReferralBonus))
}

// parseLimit parses a positive limit, capped at maxFeedLimit
func parseLimit(raw string, def uint64) (uint64, bool) {
	if raw == "" {
		return def, true
	}
	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || limit == 0 {
		return 0, false
	}
	return min(limit, maxFeedLimit), true
}

func toAPIArticles(articles []models.Article) []api.Article {
	out := make([]api.Article, 0, len(articles))
	for _, a := range articles {
		item := api.Article{
			ArticleID:   a.ID,
			Title:       a.Title,
			Link:        a.Link,
			Description: a.Description,
			Content:     a.Content,
			PubDate:     a.PubDate.UTC().Format(pubDateLayout),
			ImageURL:    a.ImageURL,
			SourceID:    a.SourceID,
			Category:    []string{a.Category},
		}
		if a.Creator != "" {
			item.Creator = []string{a.Creator}
		}
		out = append(out, item)
	}
	return out
}
