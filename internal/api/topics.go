package api

import (
	"net/http"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/service"
	"github.com/go-chi/chi/v5"
)

type TopicHandler struct {
	svc    *service.Service
	stream *StreamHandler
}

func NewTopicHandler(svc *service.Service, stream *StreamHandler) *TopicHandler {
	return &TopicHandler{svc: svc, stream: stream}
}

func (h *TopicHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	if h.stream != nil {
		r.Get("/{id}/stream", h.stream.ServeHTTP)
	}
	return r
}

type createTopicRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Author   string `json:"author"`
	// AuthorID - альтернативное имя поля author.
	AuthorID string `json:"authorId"`
}

type updateTopicRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	IsPinned *bool   `json:"isPinned"`
	IsLocked *bool   `json:"isLocked"`
}

// List поддерживает ?category= и ?sort=popular|recent.
func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topics, err := h.svc.ListTopics(r.Context(), q.Get("category"), q.Get("sort"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, topics)
}

func (h *TopicHandler) Get(w http.ResponseWriter, r *http.Request) {
	topic, err := h.svc.GetTopic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, topic)
}

func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	topic, err := h.svc.CreateTopic(r.Context(), service.CreateTopicInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		AuthorID: firstNonEmpty(req.Author, req.AuthorID),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, topic)
}

func (h *TopicHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTopicRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	topic, err := h.svc.UpdateTopic(r.Context(), chi.URLParam(r, "id"), domain.TopicPatch{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		IsPinned: req.IsPinned,
		IsLocked: req.IsLocked,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, topic)
}

func (h *TopicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteTopic(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, r, "Topic deleted successfully")
}
