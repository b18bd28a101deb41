package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/moderation"
	"github.com/UkralStul/forum-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Тесты гоняют тот же код на SQLite в памяти: диалект-зависима только блокировка строки.
func newTestStore(t *testing.T) (*Store, *domain.User, *domain.Topic) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Каждое новое соединение к :memory: - отдельная пустая база
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := NewWithDB(db)
	require.NoError(t, err)

	ctx := context.Background()
	user, err := store.CreateUser(ctx, &domain.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	topic, err := store.CreateTopic(ctx, &domain.Topic{
		Title:    "Test Topic",
		Content:  "Content",
		Category: "general",
		Slug:     "test-topic",
		AuthorID: user.ID,
	})
	require.NoError(t, err)
	return store, user, topic
}

func TestStore_CreateAndGet(t *testing.T) {
	store, user, topic := newTestStore(t)
	ctx := context.Background()

	assert.NotEmpty(t, user.ID)
	assert.False(t, user.JoinDate.IsZero())

	got, err := store.GetTopicByID(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, "test-topic", got.Slug)
	assert.Equal(t, user.ID, got.AuthorID)
	assert.False(t, got.IsLocked)

	_, err = store.GetTopicByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_DuplicateUser(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, &domain.User{Username: "alice", Email: "x@example.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	bob, err := store.CreateUser(ctx, &domain.User{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	email := "alice@example.com"
	_, err = store.UpdateUser(ctx, bob.ID, domain.UserPatch{Email: &email})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestStore_UpdateTopic_KeepsSlug(t *testing.T) {
	store, _, topic := newTestStore(t)
	ctx := context.Background()

	title := "Completely New Title"
	locked := true
	updated, err := store.UpdateTopic(ctx, topic.ID, domain.TopicPatch{Title: &title, IsLocked: &locked})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.True(t, updated.IsLocked)
	assert.Equal(t, "test-topic", updated.Slug)

	// Снятие флага тоже должно записываться (false - нулевое значение)
	unlocked := false
	updated, err = store.UpdateTopic(ctx, topic.ID, domain.TopicPatch{IsLocked: &unlocked})
	require.NoError(t, err)
	assert.False(t, updated.IsLocked)

	_, err = store.UpdateTopic(ctx, "missing", domain.TopicPatch{Title: &title})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CreatePost_Gate(t *testing.T) {
	store, user, topic := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, &domain.Post{Content: "hi", AuthorID: user.ID, TopicID: topic.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)

	locked := true
	_, err = store.UpdateTopic(ctx, topic.ID, domain.TopicPatch{IsLocked: &locked})
	require.NoError(t, err)

	_, err = store.CreatePost(ctx, &domain.Post{Content: "late", AuthorID: user.ID, TopicID: topic.ID})
	assert.ErrorIs(t, err, moderation.ErrTopicLocked)

	_, err = store.CreatePost(ctx, &domain.Post{Content: "lost", AuthorID: user.ID, TopicID: "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	posts, err := store.GetPostsByTopicID(ctx, topic.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestStore_Counters(t *testing.T) {
	store, user, topic := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AdjustTopicPostCount(ctx, topic.ID, 1))
	require.NoError(t, store.AdjustTopicPostCount(ctx, topic.ID, 1))
	require.NoError(t, store.AdjustTopicPostCount(ctx, topic.ID, -1))
	got, err := store.GetTopicByID(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PostCount)

	// Пол в нуле
	require.NoError(t, store.AdjustTopicPostCount(ctx, topic.ID, -1))
	require.NoError(t, store.AdjustTopicPostCount(ctx, topic.ID, -1))
	got, err = store.GetTopicByID(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.PostCount)

	require.NoError(t, store.AdjustUserPostCount(ctx, user.ID, 2))
	u, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, u.PostCount)

	assert.ErrorIs(t, store.AdjustTopicPostCount(ctx, "missing", -1), storage.ErrNotFound)

	viewed, err := store.IncrementTopicViewCount(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)
	viewed, err = store.IncrementTopicViewCount(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, viewed.ViewCount)
}

func TestStore_VoteAndEdit(t *testing.T) {
	store, user, topic := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, &domain.Post{Content: "hi", AuthorID: user.ID, TopicID: topic.ID})
	require.NoError(t, err)

	_, err = store.IncrementPostVote(ctx, post.ID, domain.VoteUp)
	require.NoError(t, err)
	voted, err := store.IncrementPostVote(ctx, post.ID, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 2, voted.Upvotes)
	assert.Equal(t, 0, voted.Downvotes)

	_, err = store.IncrementPostVote(ctx, "missing", domain.VoteDown)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	edited, err := store.UpdatePostContent(ctx, post.ID, "edited", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)
	assert.Equal(t, 2, edited.Upvotes)
}

func TestStore_ListTopics(t *testing.T) {
	store, user, first := newTestStore(t)
	ctx := context.Background()

	second, err := store.CreateTopic(ctx, &domain.Topic{Title: "B", Content: "c", Category: "go", Slug: "b", AuthorID: user.ID})
	require.NoError(t, err)
	_, err = store.IncrementTopicViewCount(ctx, second.ID)
	require.NoError(t, err)

	goTopics, err := store.GetTopics(ctx, domain.TopicFilter{Category: "go"})
	require.NoError(t, err)
	require.Len(t, goTopics, 1)
	assert.Equal(t, second.ID, goTopics[0].ID)

	popular, err := store.GetTopics(ctx, domain.TopicFilter{Sort: domain.SortPopular})
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, second.ID, popular[0].ID)
	assert.Equal(t, first.ID, popular[1].ID)
}

func TestStore_DeleteTopic_NoCascade(t *testing.T) {
	store, user, topic := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, &domain.Post{Content: "orphan", AuthorID: user.ID, TopicID: topic.ID})
	require.NoError(t, err)

	deleted, err := store.DeleteTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, topic.ID, deleted.ID)

	_, err = store.GetPostByID(ctx, post.ID)
	assert.NoError(t, err)

	_, err = store.DeleteTopic(ctx, topic.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	_, err = store.DeletePost(ctx, post.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_GetUsersByIDs(t *testing.T) {
	store, user, _ := newTestStore(t)
	ctx := context.Background()

	found, err := store.GetUsersByIDs(ctx, []string{user.ID, "ghost"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "alice", found[user.ID].Username)

	empty, err := store.GetUsersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
