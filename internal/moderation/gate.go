// Package moderation решает, допустима ли операция над контентом темы.
package moderation

import (
	"errors"

	"github.com/UkralStul/forum-service/internal/domain"
)

// ErrTopicLocked возвращается при попытке писать в закрытую тему.
var ErrTopicLocked = errors.New("topic is locked, cannot add new posts")

// Operation - вид изменяющей операции.
type Operation int

const (
	CreatePost Operation = iota
	UpdatePost
	UpdateTopic
)

// Allow - чистая функция от текущего состояния темы.
// Изменение флагов isLocked/isPinned разрешено всегда, иначе закрытую тему
// нельзя было бы открыть.
func Allow(op Operation, topic *domain.Topic) error {
	if op == CreatePost && topic != nil && topic.IsLocked {
		return ErrTopicLocked
	}
	return nil
}
