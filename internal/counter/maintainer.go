// Package counter поддерживает денормализованные счетчики тем, постов и пользователей.
package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/storage"
)

// Maintainer применяет компенсирующие изменения счетчиков.
// Все изменения - атомарные инкременты на стороне хранилища, поэтому
// параллельные запросы не теряют обновлений.
type Maintainer struct {
	store storage.CounterStore
}

func New(store storage.CounterStore) *Maintainer {
	return &Maintainer{store: store}
}

// PostCreated увеличивает postCount темы и автора. Автор может не
// существовать: ссылка на него не проверяется при создании поста.
func (m *Maintainer) PostCreated(ctx context.Context, post *domain.Post) error {
	if err := ignoreMissing(m.store.AdjustTopicPostCount(ctx, post.TopicID, 1)); err != nil {
		return fmt.Errorf("topic post count: %w", err)
	}
	if err := ignoreMissing(m.store.AdjustUserPostCount(ctx, post.AuthorID, 1)); err != nil {
		return fmt.Errorf("user post count: %w", err)
	}
	return nil
}

// PostDeleted уменьшает postCount темы и автора, не ниже нуля.
// Тема или автор могли быть удалены раньше поста: тогда это no-op.
func (m *Maintainer) PostDeleted(ctx context.Context, post *domain.Post) error {
	if err := ignoreMissing(m.store.AdjustTopicPostCount(ctx, post.TopicID, -1)); err != nil {
		return fmt.Errorf("topic post count: %w", err)
	}
	if err := ignoreMissing(m.store.AdjustUserPostCount(ctx, post.AuthorID, -1)); err != nil {
		return fmt.Errorf("user post count: %w", err)
	}
	return nil
}

// TopicViewed засчитывает один просмотр и возвращает обновленную тему.
func (m *Maintainer) TopicViewed(ctx context.Context, topicID string) (*domain.Topic, error) {
	return m.store.IncrementTopicViewCount(ctx, topicID)
}

// Vote проверяет тип голоса до любых изменений и добавляет ровно один голос.
func (m *Maintainer) Vote(ctx context.Context, postID string, vote domain.VoteType) (*domain.Post, error) {
	if !vote.Valid() {
		return nil, domain.InvalidArgument(`Invalid vote type. Use "upvote" or "downvote"`)
	}
	return m.store.IncrementPostVote(ctx, postID, vote)
}

func ignoreMissing(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
