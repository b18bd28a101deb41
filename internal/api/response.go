package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/go-chi/render"
)

// envelope - общий формат ответа API.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondData(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Success: true, Data: data})
}

func respondList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, envelope{Success: true, Data: items, Count: &n})
}

func respondMessage(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, envelope{Success: true, Message: message})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, statusOf(domain.KindOf(err)))
	render.JSON(w, r, envelope{Success: false, Message: domain.MessageOf(err)})
}

// decode разбирает JSON-тело запроса. Пустое тело дает пустую структуру.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return domain.InvalidArgument("Invalid JSON body")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
