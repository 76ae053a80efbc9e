// Package middleware holds the HTTP middleware of the development server.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/newscoin/newscoin/internal/devserver/handlers"
	"github.com/newscoin/newscoin/internal/devserver/token"
)

// Auth создает middleware для проверки access token
// Невалидный или просроченный токен дает 401, клиент обновляет его сам
func Auth(logger *slog.Logger, issuer *token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Ожидаем формат: "Bearer <token>"
			scheme, tokenString, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.WarnContext(ctx, "missing or malformed Authorization header", "path", r.URL.Path)
				handlers.SendError(w, "Authorization token required", http.StatusUnauthorized)
				return
			}

			claims, err := issuer.Validate(tokenString)
			if err != nil {
				logger.WarnContext(ctx, "invalid access token", slog.Any("error", err))
				handlers.SendError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			logger.DebugContext(ctx, "user authenticated", "user_id", claims.Subject)

			next.ServeHTTP(w, r.WithContext(handlers.WithUserID(ctx, claims.Subject)))
		})
	}
}
