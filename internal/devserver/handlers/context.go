package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

// userIDKey ключ для хранения user_id в контексте
const userIDKey contextKey = "user_id"

// WithUserID returns ctx carrying the authenticated user
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID извлекает user_id из контекста запроса
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}
