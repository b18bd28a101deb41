package moderation

import (
	"testing"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	open := &domain.Topic{ID: "t1"}
	locked := &domain.Topic{ID: "t2", IsLocked: true}

	assert.NoError(t, Allow(CreatePost, open))
	assert.ErrorIs(t, Allow(CreatePost, locked), ErrTopicLocked)

	// Редактирование и смена флагов не блокируются
	assert.NoError(t, Allow(UpdatePost, locked))
	assert.NoError(t, Allow(UpdateTopic, locked))
}

func TestAllow_DoesNotMutateTopic(t *testing.T) {
	locked := &domain.Topic{ID: "t1", IsLocked: true, PostCount: 3}
	before := *locked

	_ = Allow(CreatePost, locked)
	assert.Equal(t, before, *locked)
}
