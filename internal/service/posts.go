package service

import (
	"context"
	"strings"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/metrics"
	"github.com/UkralStul/forum-service/internal/moderation"
)

type CreatePostInput struct {
	Content  string
	AuthorID string
	TopicID  string
}

// ListPostsByTopic возвращает посты темы в порядке создания, с репутацией авторов.
func (s *Service) ListPostsByTopic(ctx context.Context, topicID string) ([]*domain.PostView, error) {
	if err := checkID(topicID, "topic"); err != nil {
		return nil, err
	}
	posts, err := s.store.GetPostsByTopicID(ctx, topicID)
	if err != nil {
		return nil, s.fail(ctx, err, "Topic")
	}
	return s.postViews(ctx, posts, true)
}

func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*domain.PostView, error) {
	if strings.TrimSpace(in.Content) == "" || in.AuthorID == "" || in.TopicID == "" {
		return nil, domain.InvalidArgument("Content, author, and topic are required")
	}
	if err := checkID(in.AuthorID, "author"); err != nil {
		return nil, err
	}
	if err := checkID(in.TopicID, "topic"); err != nil {
		return nil, err
	}

	topic, err := s.store.GetTopicByID(ctx, in.TopicID)
	if err != nil {
		return nil, s.fail(ctx, err, "Topic")
	}
	if err := moderation.Allow(moderation.CreatePost, topic); err != nil {
		metrics.ModerationRejections.Inc()
		return nil, s.fail(ctx, err, "Topic")
	}

	// Хранилище повторно проверяет блокировку в момент записи
	post, err := s.store.CreatePost(ctx, &domain.Post{
		Content:  in.Content,
		AuthorID: in.AuthorID,
		TopicID:  in.TopicID,
	})
	if err != nil {
		return nil, s.fail(ctx, err, "Topic")
	}
	metrics.PostsCreated.Inc()

	if err := s.counters.PostCreated(ctx, post); err != nil {
		metrics.CounterFailures.WithLabelValues("post_created").Inc()
		s.log.ErrorContext(ctx, "post created but counters not adjusted",
			"post_id", post.ID, "topic_id", post.TopicID, "err", err)
		return nil, domain.Internal(err)
	}

	if s.publisher != nil {
		s.publisher.Publish(post)
	}
	s.log.InfoContext(ctx, "post created", "post_id", post.ID, "topic_id", post.TopicID)
	return s.postView(ctx, post, false)
}

// UpdatePost меняет текст и помечает пост отредактированным.
func (s *Service) UpdatePost(ctx context.Context, id, content string) (*domain.PostView, error) {
	if err := checkID(id, "post"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.InvalidArgument("Content is required")
	}
	post, err := s.store.UpdatePostContent(ctx, id, content, s.now())
	if err != nil {
		return nil, s.fail(ctx, err, "Post")
	}
	return s.postView(ctx, post, false)
}

// VotePost добавляет один голос. Возвращается пост без подстановки автора.
func (s *Service) VotePost(ctx context.Context, id string, vote domain.VoteType) (*domain.Post, error) {
	if !vote.Valid() {
		return nil, domain.InvalidArgument(`Invalid vote type. Use "upvote" or "downvote"`)
	}
	if err := checkID(id, "post"); err != nil {
		return nil, err
	}
	post, err := s.counters.Vote(ctx, id, vote)
	if err != nil {
		return nil, s.fail(ctx, err, "Post")
	}
	metrics.Votes.WithLabelValues(string(vote)).Inc()
	return post, nil
}

// DeletePost удаляет пост и уменьшает счетчики темы и автора.
func (s *Service) DeletePost(ctx context.Context, id string) (*domain.Post, error) {
	if err := checkID(id, "post"); err != nil {
		return nil, err
	}
	post, err := s.store.DeletePost(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err, "Post")
	}
	metrics.PostsDeleted.Inc()

	if err := s.counters.PostDeleted(ctx, post); err != nil {
		metrics.CounterFailures.WithLabelValues("post_deleted").Inc()
		s.log.ErrorContext(ctx, "post deleted but counters not adjusted",
			"post_id", post.ID, "topic_id", post.TopicID, "err", err)
		return nil, domain.Internal(err)
	}
	return post, nil
}
