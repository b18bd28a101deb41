// Package service реализует операции форума поверх хранилища:
// валидация, модерация, запись, счетчики и подстановка авторов.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/UkralStul/forum-service/internal/counter"
	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/moderation"
	"github.com/UkralStul/forum-service/internal/storage"
	"github.com/google/uuid"
)

// Publisher получает каждый созданный пост.
type Publisher interface {
	Publish(post *domain.Post)
}

// AuthorInvalidator сбрасывает закэшированных авторов.
type AuthorInvalidator interface {
	Invalidate(ctx context.Context, ids ...string) error
}

// Service - оркестратор операций над пользователями, темами и постами.
type Service struct {
	store       storage.Storage
	counters    *counter.Maintainer
	authors     storage.AuthorSource
	invalidator AuthorInvalidator
	publisher   Publisher
	log         *slog.Logger
	now         func() time.Time
}

type Option func(*Service)

// WithAuthorSource подменяет источник авторов (кэш, лоадер). По умолчанию - само хранилище.
func WithAuthorSource(src storage.AuthorSource) Option {
	return func(s *Service) { s.authors = src }
}

func WithAuthorInvalidator(inv AuthorInvalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New собирает сервис. Хранилище передается явно, глобального состояния нет.
func New(store storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:    store,
		counters: counter.New(store),
		authors:  store,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fail переводит ошибки хранилища в прикладные категории.
// resource используется в сообщении "<resource> not found".
func (s *Service) fail(ctx context.Context, err error, resource string) error {
	var appErr *domain.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, storage.ErrNotFound):
		return domain.NotFound(resource)
	case errors.Is(err, moderation.ErrTopicLocked):
		return domain.Forbidden("Topic is locked, cannot add new posts")
	case errors.Is(err, storage.ErrDuplicateKey):
		return domain.Conflict("Username or email already exists")
	default:
		s.log.ErrorContext(ctx, "storage failure", "resource", resource, "err", err)
		return domain.Internal(err)
	}
}

func checkID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.InvalidArgument("Invalid " + what + " id")
	}
	return nil
}

// === Author enrichment ===

func (s *Service) loadAuthors(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	users, err := s.authors.GetUsersByIDs(ctx, unique)
	if err != nil {
		return nil, s.fail(ctx, err, "Author")
	}
	return users, nil
}

func (s *Service) topicViews(ctx context.Context, topics []*domain.Topic, withReputation bool) ([]*domain.TopicView, error) {
	ids := make([]string, len(topics))
	for i, t := range topics {
		ids[i] = t.AuthorID
	}
	users, err := s.loadAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]*domain.TopicView, len(topics))
	for i, t := range topics {
		views[i] = &domain.TopicView{Topic: t, Author: domain.AuthorOf(users[t.AuthorID], withReputation)}
	}
	return views, nil
}

func (s *Service) topicView(ctx context.Context, topic *domain.Topic, withReputation bool) (*domain.TopicView, error) {
	views, err := s.topicViews(ctx, []*domain.Topic{topic}, withReputation)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) postViews(ctx context.Context, posts []*domain.Post, withReputation bool) ([]*domain.PostView, error) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	users, err := s.loadAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]*domain.PostView, len(posts))
	for i, p := range posts {
		views[i] = &domain.PostView{Post: p, Author: domain.AuthorOf(users[p.AuthorID], withReputation)}
	}
	return views, nil
}

func (s *Service) postView(ctx context.Context, post *domain.Post, withReputation bool) (*domain.PostView, error) {
	views, err := s.postViews(ctx, []*domain.Post{post}, withReputation)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) invalidateAuthor(ctx context.Context, id string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, id); err != nil {
		s.log.WarnContext(ctx, "author cache invalidation failed", "user_id", id, "err", err)
	}
}
