// Package metrics объявляет Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_created_total",
		Help: "Number of posts created.",
	})

	PostsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_deleted_total",
		Help: "Number of posts deleted.",
	})

	Votes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_post_votes_total",
		Help: "Votes applied to posts by type.",
	}, []string{"type"})

	TopicViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_topic_views_total",
		Help: "Topic reads.",
	})

	ModerationRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_moderation_rejections_total",
		Help: "Post creations rejected because the topic is locked.",
	})

	// CounterFailures - компенсирующие обновления, которые не удалось применить
	// после уже зафиксированной записи.
	CounterFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_counter_adjust_failures_total",
		Help: "Denormalized counter adjustments that failed after the primary write.",
	}, []string{"event"})

	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "forum_feed_subscribers",
		Help: "Open websocket subscriptions to topic post feeds.",
	})
)
