package events

import (
	"sync"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/google/uuid"
)

const bufferSize = 16

// PostObserver хранит каналы для подписчиков на новые посты темы.
type PostObserver struct {
	mu sync.RWMutex
	//          map[topicID] map[subscriberID] channel
	subs map[string]map[string]chan *domain.Post
}

// NewPostObserver - конструктор наблюдателя.
func NewPostObserver() *PostObserver {
	return &PostObserver{
		subs: make(map[string]map[string]chan *domain.Post),
	}
}

// Subscribe подписывает на посты темы. Вызов cancel отписывает и закрывает канал.
func (o *PostObserver) Subscribe(topicID string) (<-chan *domain.Post, func()) {
	ch := make(chan *domain.Post, bufferSize)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[topicID] == nil {
		o.subs[topicID] = make(map[string]chan *domain.Post)
	}
	o.subs[topicID][subID] = ch
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if topicSubs, ok := o.subs[topicID]; ok {
				delete(topicSubs, subID)
				if len(topicSubs) == 0 {
					delete(o.subs, topicID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish рассылает пост подписчикам его темы, не блокируясь:
// если клиент не успевает читать, событие для него пропускается.
func (o *PostObserver) Publish(post *domain.Post) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, ch := range o.subs[post.TopicID] {
		select {
		case ch <- post:
		default:
		}
	}
}

// Subscribers возвращает число подписчиков темы.
func (o *PostObserver) Subscribers(topicID string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[topicID])
}
