package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/metrics"
	"github.com/UkralStul/forum-service/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 5 * time.Second
	pingInterval = 10 * time.Second
)

// Feed - источник событий о новых постах темы.
type Feed interface {
	Subscribe(topicID string) (<-chan *domain.Post, func())
}

// StreamHandler отдает новые посты темы по websocket.
type StreamHandler struct {
	svc      *service.Service
	feed     Feed
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewStreamHandler(svc *service.Service, feed Feed, log *slog.Logger) *StreamHandler {
	return &StreamHandler{
		svc:  svc,
		feed: feed,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")
	if err := h.svc.CheckTopic(r.Context(), topicID); err != nil {
		respondError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет ответ клиенту
		h.log.WarnContext(r.Context(), "websocket upgrade failed", "topic_id", topicID, "err", err)
		return
	}
	defer conn.Close()

	posts, cancel := h.feed.Subscribe(topicID)
	defer cancel()
	metrics.FeedSubscribers.Inc()
	defer metrics.FeedSubscribers.Dec()

	// Читаем только ради управляющих кадров и обнаружения закрытия
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case post, ok := <-posts:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(post); err != nil {
				h.log.DebugContext(r.Context(), "feed write failed", "topic_id", topicID, "err", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
