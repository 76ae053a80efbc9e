package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/models"
	"github.com/newscoin/newscoin/internal/validation"
	"github.com/newscoin/newscoin/pkg/api"
)

// UserHandler serves the account, wallet and gift card endpoints
type UserHandler struct {
	responder
	users   storage.UserStorage
	rewards storage.RewardStorage
	now     func() time.Time
}

// NewUserHandler создает handler; now == nil означает time.Now
func NewUserHandler(logger *slog.Logger, users storage.UserStorage, rewards storage.RewardStorage, now func() time.Time) *UserHandler {
	if now == nil {
		now = time.Now
	}
	return &UserHandler{
		responder: responder{logger: logger},
		users:     users,
		rewards:   rewards,
		now:       now,
	}
}

// currentUser загружает пользователя из токена, пишет ответ при ошибке
func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	ctx := r.Context()

	userID, ok := UserID(ctx)
	if !ok {
		h.sendError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, "User not found", http.StatusNotFound)
			return nil, false
		}
		h.internalError(ctx, w, "failed to get user", err)
		return nil, false
	}
	return user, true
}

// Profile обрабатывает GET /user/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	referrals, err := h.users.CountReferrals(r.Context(), user.ReferralCode)
	if err != nil {
		h.internalError(r.Context(), w, "failed to count referrals", err)
		return
	}

	sendData(h.responder, w, "", api.ProfileData{
		User:   toAPIUser(user),
		Wallet: toAPIWallet(user),
		Referral: api.Referral{
			MyReferralCode: user.ReferralCode,
			TotalReferrals: referrals,
		},
	}, http.StatusOK)
}

// Wallet обрабатывает GET /user/wallet
func (h *UserHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	sendData(h.responder, w, "", api.WalletData{
		AvailableCoins: user.AvailableCoins,
		TotalEarned:    user.TotalEarned,
		TotalRedeemed:  user.TotalRedeemed,
	}, http.StatusOK)
}

// GiftCards обрабатывает GET /gift-cards
func (h *UserHandler) GiftCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cards, err := h.rewards.ListGiftCards(ctx)
	if err != nil {
		h.internalError(ctx, w, "failed to list gift cards", err)
		return
	}

	list := api.GiftCardList{GiftCards: make([]api.GiftCard, 0, len(cards))}
	for _, c := range cards {
		list.GiftCards = append(list.GiftCards, api.GiftCard{
			CardID:        c.ID,
			CardName:      c.Name,
			Brand:         c.Brand,
			Currency:      c.Currency,
			ImageURL:      c.ImageURL,
			CoinsRequired: c.CoinsRequired,
			Value:         c.Value,
		})
	}

	sendData(h.responder, w, "", list, http.StatusOK)
}

// Redeem обрабатывает POST /redeem
// Списывает монеты и создает заявку в статусе pending
func (h *UserHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserID(ctx)
	if !ok {
		h.sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.RedeemRequest
	if err := decode(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.DeliveryEmail = validation.NormalizeEmail(req.DeliveryEmail)
	if err := validation.Struct(req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	card, err := h.rewards.GetGiftCard(ctx, req.CardID)
	if err != nil {
		if errors.Is(err, storage.ErrGiftCardNotFound) {
			h.sendError(w, "Gift card not found", http.StatusNotFound)
			return
		}
		h.internalError(ctx, w, "failed to get gift card", err)
		return
	}

	redemption := &models.Redemption{
		ID:            uuid.New().String(),
		UserID:        userID,
		CardID:        card.ID,
		DeliveryEmail: req.DeliveryEmail,
		Status:        models.RedemptionPending,
		Coins:         card.CoinsRequired,
		CreatedAt:     h.now().UTC(),
	}

	if err := h.rewards.Redeem(ctx, redemption); err != nil {
		if errors.Is(err, storage.ErrInsufficientCoins) {
			h.sendError(w, "Insufficient coins", http.StatusBadRequest)
			return
		}
		h.internalError(ctx, w, "failed to redeem", err)
		return
	}

	h.logger.InfoContext(ctx, "gift card redeemed",
		slog.String("user_id", userID),
		slog.String("card_id", card.ID),
		slog.String("redeem_id", redemption.ID))

	sendData(h.responder, w, "Redemption request submitted", api.RedeemData{
		RedeemID: redemption.ID,
		Status:   redemption.Status,
	}, http.StatusOK)
}
