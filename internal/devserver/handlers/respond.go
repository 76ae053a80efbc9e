package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/newscoin/newscoin/pkg/api"
)

// responder пишет JSON ответы в общем формате {success, message, data}
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendData отправляет успешный ответ с data
func sendData[T any](h responder, w http.ResponseWriter, message string, data T, statusCode int) {
	h.sendJSON(w, api.Envelope[T]{Success: true, Message: message, Data: data}, statusCode)
}

// sendMessage отправляет успешный ответ без data
func (h responder) sendMessage(w http.ResponseWriter, message string) {
	sendData(h, w, message, struct{}{}, http.StatusOK)
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}

// internalError логирует err и отвечает 500 без деталей
func (h responder) internalError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	h.sendError(w, "internal server error", http.StatusInternalServerError)
}

// sendNeedsVerification отвечает 403 с подсказкой клиенту открыть проверку email
func (h responder) sendNeedsVerification(w http.ResponseWriter, message string) {
	h.sendJSON(w, api.ErrorResponse{
		Error:   http.StatusText(http.StatusForbidden),
		Message: message,
		Data:    &api.ErrorData{NeedsVerification: true},
	}, http.StatusForbidden)
}

// SendError writes a failure body, used by middleware
func SendError(w http.ResponseWriter, message string, statusCode int) {
	responder{logger: slog.Default()}.sendError(w, message, statusCode)
}

// decode reads a JSON body into dst
func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
