package api

import (
	"net/http"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/service"
	"github.com/go-chi/chi/v5"
)

type PostHandler struct {
	svc *service.Service
}

func NewPostHandler(svc *service.Service) *PostHandler {
	return &PostHandler{svc: svc}
}

func (h *PostHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/topic/{topicId}", h.ListByTopic)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/vote", h.Vote)
	return r
}

type createPostRequest struct {
	Content string `json:"content"`
	Author  string `json:"author"`
	Topic   string `json:"topic"`
	// authorId и topicId принимаются как синонимы author и topic.
	AuthorID string `json:"authorId"`
	TopicID  string `json:"topicId"`
}

type updatePostRequest struct {
	Content string `json:"content"`
}

type voteRequest struct {
	VoteType string `json:"voteType"`
}

func (h *PostHandler) ListByTopic(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPostsByTopic(r.Context(), chi.URLParam(r, "topicId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, r, posts)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	post, err := h.svc.CreatePost(r.Context(), service.CreatePostInput{
		Content:  req.Content,
		AuthorID: firstNonEmpty(req.Author, req.AuthorID),
		TopicID:  firstNonEmpty(req.Topic, req.TopicID),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	post, err := h.svc.UpdatePost(r.Context(), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, post)
}

func (h *PostHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	post, err := h.svc.VotePost(r.Context(), chi.URLParam(r, "id"), domain.VoteType(req.VoteType))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, r, "Post deleted successfully")
}
