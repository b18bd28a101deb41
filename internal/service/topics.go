package service

import (
	"context"
	"strings"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/metrics"
	"github.com/UkralStul/forum-service/internal/slug"
)

type CreateTopicInput struct {
	Title    string
	Content  string
	Category string
	AuthorID string
}

// ListTopics поддерживает сортировки popular и recent; прочие значения дают порядок хранилища.
func (s *Service) ListTopics(ctx context.Context, category, sort string) ([]*domain.TopicView, error) {
	filter := domain.TopicFilter{Category: category}
	switch domain.TopicSort(sort) {
	case domain.SortPopular, domain.SortRecent:
		filter.Sort = domain.TopicSort(sort)
	}

	topics, err := s.store.GetTopics(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, err, "Topic")
	}
	return s.topicViews(ctx, topics, false)
}

// GetTopic засчитывает просмотр и возвращает тему с репутацией автора.
func (s *Service) GetTopic(ctx context.Context, id string) (*domain.TopicView, error) {
	if err := checkID(id, "topic"); err != nil {
		return nil, err
	}
	topic, err := s.counters.TopicViewed(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err, "Topic")
	}
	metrics.TopicViews.Inc()
	return s.topicView(ctx, topic, true)
}

func (s *Service) CreateTopic(ctx context.Context, in CreateTopicInput) (*domain.TopicView, error) {
	if in.Title == "" || in.Content == "" || in.Category == "" || in.AuthorID == "" {
		return nil, domain.InvalidArgument("Title, content, category, and author are required")
	}
	if err := checkID(in.AuthorID, "author"); err != nil {
		return nil, err
	}

	topic, err := s.store.CreateTopic(ctx, &domain.Topic{
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
		AuthorID: in.AuthorID,
		Slug:     slug.Make(in.Title),
	})
	if err != nil {
		return nil, s.fail(ctx, err, "Topic")
	}
	s.log.InfoContext(ctx, "topic created", "topic_id", topic.ID, "slug", topic.Slug)
	return s.topicView(ctx, topic, false)
}

// UpdateTopic применяет переданные поля. Slug остается прежним даже при смене заголовка.
func (s *Service) UpdateTopic(ctx context.Context, id string, patch domain.TopicPatch) (*domain.TopicView, error) {
	if err := checkID(id, "topic"); err != nil {
		return nil, err
	}
	for name, v := range map[string]*string{"title": patch.Title, "content": patch.Content, "category": patch.Category} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, domain.InvalidArgument(name + " cannot be empty")
		}
	}

	topic, err := s.store.UpdateTopic(ctx, id, patch)
	if err != nil {
		return nil, s.fail(ctx, err, "Topic")
	}
	return s.topicView(ctx, topic, false)
}

// DeleteTopic удаляет тему без каскада: посты остаются.
func (s *Service) DeleteTopic(ctx context.Context, id string) (*domain.Topic, error) {
	if err := checkID(id, "topic"); err != nil {
		return nil, err
	}
	topic, err := s.store.DeleteTopic(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err, "Topic")
	}
	s.log.InfoContext(ctx, "topic deleted", "topic_id", topic.ID, "orphaned_posts", topic.PostCount)
	return topic, nil
}

// CheckTopic проверяет, что тема существует, не засчитывая просмотр.
func (s *Service) CheckTopic(ctx context.Context, id string) error {
	if err := checkID(id, "topic"); err != nil {
		return err
	}
	if _, err := s.store.GetTopicByID(ctx, id); err != nil {
		return s.fail(ctx, err, "Topic")
	}
	return nil
}
