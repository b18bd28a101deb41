package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/moderation"
	"github.com/UkralStul/forum-service/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
// Наружу отдаются копии записей, поэтому вызывающий код не может изменить
// состояние в обход мьютекса.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*domain.User
	topics       map[string]*domain.Topic
	posts        map[string]*domain.Post
	userOrder    []string
	topicOrder   []string
	postsByTopic map[string][]string // map[topicID][]postID в порядке создания
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:        make(map[string]*domain.User),
		topics:       make(map[string]*domain.Topic),
		posts:        make(map[string]*domain.Post),
		postsByTopic: make(map[string][]string),
	}
}

func clampAdd(v, delta int) int {
	v += delta
	if v < 0 {
		return 0
	}
	return v
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyTopic(t *domain.Topic) *domain.Topic {
	c := *t
	return &c
}

func copyPost(p *domain.Post) *domain.Post {
	c := *p
	if p.EditedAt != nil {
		at := *p.EditedAt
		c.EditedAt = &at
	}
	return &c
}

// === User Methods ===

// uniqueLocked проверяет уникальность username и email. Вызывать под s.mu.
func (s *Store) uniqueLocked(selfID, username, email string) error {
	for id, u := range s.users {
		if id == selfID {
			continue
		}
		if u.Username == username || u.Email == email {
			return fmt.Errorf("user %q/%q: %w", username, email, storage.ErrDuplicateKey)
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.uniqueLocked("", user.Username, user.Email); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := copyUser(user)
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.JoinDate.IsZero() {
		u.JoinDate = now
	}
	s.users[u.ID] = u
	s.userOrder = append(s.userOrder, u.ID)
	return copyUser(u), nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return copyUser(u), nil
}

func (s *Store) GetUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		users = append(users, copyUser(s.users[id]))
	}
	return users, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = copyUser(u)
		}
	}
	return result, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}

	username, email := u.Username, u.Email
	if patch.Username != nil {
		username = *patch.Username
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if err := s.uniqueLocked(id, username, email); err != nil {
		return nil, err
	}

	u.Username, u.Email = username, email
	if patch.Reputation != nil {
		u.Reputation = *patch.Reputation
	}
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	delete(s.users, id)
	s.userOrder = removeID(s.userOrder, id)
	return u, nil
}

// === Topic Methods ===

func (s *Store) CreateTopic(ctx context.Context, topic *domain.Topic) (*domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t := copyTopic(topic)
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	s.topics[t.ID] = t
	s.topicOrder = append(s.topicOrder, t.ID)
	return copyTopic(t), nil
}

func (s *Store) GetTopicByID(ctx context.Context, id string) (*domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.topics[id]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", id, storage.ErrNotFound)
	}
	return copyTopic(t), nil
}

func (s *Store) GetTopics(ctx context.Context, filter domain.TopicFilter) ([]*domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make([]*domain.Topic, 0, len(s.topicOrder))
	for _, id := range s.topicOrder {
		t := s.topics[id]
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		topics = append(topics, copyTopic(t))
	}

	switch filter.Sort {
	case domain.SortPopular:
		sort.SliceStable(topics, func(i, j int) bool {
			return topics[i].ViewCount > topics[j].ViewCount
		})
	case domain.SortRecent:
		// Разворачиваем порядок вставки, чтобы записи с одинаковым временем
		// тоже шли от новых к старым
		for i, j := 0, len(topics)-1; i < j; i, j = i+1, j-1 {
			topics[i], topics[j] = topics[j], topics[i]
		}
		sort.SliceStable(topics, func(i, j int) bool {
			return topics[i].CreatedAt.After(topics[j].CreatedAt)
		})
	}
	return topics, nil
}

func (s *Store) UpdateTopic(ctx context.Context, id string, patch domain.TopicPatch) (*domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.topics[id]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", id, storage.ErrNotFound)
	}
	// Slug намеренно не пересчитывается при смене заголовка
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Content != nil {
		t.Content = *patch.Content
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.IsPinned != nil {
		t.IsPinned = *patch.IsPinned
	}
	if patch.IsLocked != nil {
		t.IsLocked = *patch.IsLocked
	}
	t.UpdatedAt = time.Now().UTC()
	return copyTopic(t), nil
}

// DeleteTopic не трогает посты темы: они остаются с висячей ссылкой.
func (s *Store) DeleteTopic(ctx context.Context, id string) (*domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.topics[id]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", id, storage.ErrNotFound)
	}
	delete(s.topics, id)
	s.topicOrder = removeID(s.topicOrder, id)
	return t, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Проверка темы и блокировки под тем же мьютексом, что и запись
	topic, ok := s.topics[post.TopicID]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", post.TopicID, storage.ErrNotFound)
	}
	if err := moderation.Allow(moderation.CreatePost, topic); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := copyPost(post)
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	s.posts[p.ID] = p
	s.postsByTopic[p.TopicID] = append(s.postsByTopic[p.TopicID], p.ID)
	return copyPost(p), nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	return copyPost(p), nil
}

func (s *Store) GetPostsByTopicID(ctx context.Context, topicID string) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.postsByTopic[topicID]
	posts := make([]*domain.Post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, copyPost(s.posts[id]))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *Store) UpdatePostContent(ctx context.Context, id, content string, editedAt time.Time) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	at := editedAt.UTC()
	p.Content = content
	p.IsEdited = true
	p.EditedAt = &at
	p.UpdatedAt = at
	return copyPost(p), nil
}

func (s *Store) DeletePost(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	delete(s.posts, id)
	s.postsByTopic[p.TopicID] = removeID(s.postsByTopic[p.TopicID], id)
	if len(s.postsByTopic[p.TopicID]) == 0 {
		delete(s.postsByTopic, p.TopicID)
	}
	return p, nil
}

// === Counter Methods ===

func (s *Store) AdjustTopicPostCount(ctx context.Context, topicID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.topics[topicID]
	if !ok {
		return fmt.Errorf("topic %s: %w", topicID, storage.ErrNotFound)
	}
	t.PostCount = clampAdd(t.PostCount, delta)
	return nil
}

func (s *Store) AdjustUserPostCount(ctx context.Context, userID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	u.PostCount = clampAdd(u.PostCount, delta)
	return nil
}

func (s *Store) IncrementTopicViewCount(ctx context.Context, topicID string) (*domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.topics[topicID]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", topicID, storage.ErrNotFound)
	}
	t.ViewCount++
	return copyTopic(t), nil
}

func (s *Store) IncrementPostVote(ctx context.Context, postID string, vote domain.VoteType) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postID, storage.ErrNotFound)
	}
	switch vote {
	case domain.VoteUp:
		p.Upvotes++
	case domain.VoteDown:
		p.Downvotes++
	default:
		return nil, fmt.Errorf("unknown vote type %q", vote)
	}
	return copyPost(p), nil
}
