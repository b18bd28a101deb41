package counter

import (
	"context"
	"testing"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Maintainer, *inmemory.Store, *domain.User, *domain.Topic, *domain.Post) {
	store := inmemory.New()
	ctx := context.Background()
	user, err := store.CreateUser(ctx, &domain.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	topic, err := store.CreateTopic(ctx, &domain.Topic{Title: "T", Content: "c", Category: "general", AuthorID: user.ID})
	require.NoError(t, err)
	post, err := store.CreatePost(ctx, &domain.Post{Content: "p", AuthorID: user.ID, TopicID: topic.ID})
	require.NoError(t, err)
	return New(store), store, user, topic, post
}

func TestMaintainer_PostCreatedAndDeleted(t *testing.T) {
	m, store, user, topic, post := setup(t)
	ctx := context.Background()

	require.NoError(t, m.PostCreated(ctx, post))
	tp, _ := store.GetTopicByID(ctx, topic.ID)
	u, _ := store.GetUserByID(ctx, user.ID)
	assert.Equal(t, 1, tp.PostCount)
	assert.Equal(t, 1, u.PostCount)

	require.NoError(t, m.PostDeleted(ctx, post))
	require.NoError(t, m.PostDeleted(ctx, post))
	tp, _ = store.GetTopicByID(ctx, topic.ID)
	u, _ = store.GetUserByID(ctx, user.ID)
	assert.Equal(t, 0, tp.PostCount)
	assert.Equal(t, 0, u.PostCount)
}

func TestMaintainer_PostDeleted_MissingTopicIsNoop(t *testing.T) {
	m, store, _, topic, post := setup(t)
	ctx := context.Background()

	_, err := store.DeleteTopic(ctx, topic.ID)
	require.NoError(t, err)

	assert.NoError(t, m.PostDeleted(ctx, post))
}

func TestMaintainer_Vote(t *testing.T) {
	m, store, _, _, post := setup(t)
	ctx := context.Background()

	voted, err := m.Vote(ctx, post.ID, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, voted.Upvotes)
	assert.Equal(t, 0, voted.Downvotes)

	voted, err = m.Vote(ctx, post.ID, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 1, voted.Upvotes)
	assert.Equal(t, 1, voted.Downvotes)

	// Неизвестный тип отклоняется без изменений
	_, err = m.Vote(ctx, post.ID, "sideways")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))

	p, _ := store.GetPostByID(ctx, post.ID)
	assert.Equal(t, 1, p.Upvotes)
	assert.Equal(t, 1, p.Downvotes)
}

func TestMaintainer_TopicViewed(t *testing.T) {
	m, _, _, topic, _ := setup(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		tp, err := m.TopicViewed(ctx, topic.ID)
		require.NoError(t, err)
		assert.Equal(t, i, tp.ViewCount)
	}
}
