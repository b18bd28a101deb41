package storage

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/forum-service/internal/domain"
)

var (
	// ErrNotFound - запись с указанным идентификатором отсутствует.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey - нарушено ограничение уникальности (username или email).
	ErrDuplicateKey = errors.New("duplicate key")
)

// Storage определяет контракт для хранилищ.
// Каждая операция атомарна в пределах одной записи; межсущностных транзакций нет.
type Storage interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (*domain.User, error)

	CreateTopic(ctx context.Context, topic *domain.Topic) (*domain.Topic, error)
	GetTopicByID(ctx context.Context, id string) (*domain.Topic, error)
	GetTopics(ctx context.Context, filter domain.TopicFilter) ([]*domain.Topic, error)
	UpdateTopic(ctx context.Context, id string, patch domain.TopicPatch) (*domain.Topic, error)
	DeleteTopic(ctx context.Context, id string) (*domain.Topic, error)

	// CreatePost - условная запись: тема должна существовать и быть открытой
	// в момент записи. Иначе ErrNotFound или moderation.ErrTopicLocked.
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	GetPostsByTopicID(ctx context.Context, topicID string) ([]*domain.Post, error)
	UpdatePostContent(ctx context.Context, id, content string, editedAt time.Time) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) (*domain.Post, error)

	CounterStore
	AuthorSource
}

// CounterStore - атомарные примитивы для денормализованных счетчиков.
// Уменьшение никогда не опускает значение ниже нуля.
type CounterStore interface {
	AdjustTopicPostCount(ctx context.Context, topicID string, delta int) error
	AdjustUserPostCount(ctx context.Context, userID string, delta int) error
	IncrementTopicViewCount(ctx context.Context, topicID string) (*domain.Topic, error)
	IncrementPostVote(ctx context.Context, postID string, vote domain.VoteType) (*domain.Post, error)
}

// AuthorSource загружает пользователей пачкой; отсутствующие id просто не попадают в карту.
type AuthorSource interface {
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}
