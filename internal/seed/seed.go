// Package seed наполняет форум демонстрационными данными.
// Данные пишутся через сервис, поэтому счетчики остаются согласованными.
package seed

import (
	"context"
	"fmt"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/service"
	"github.com/brianvoe/gofakeit/v6"
)

var categories = []string{"general", "golang", "databases", "devops", "off-topic"}

type Options struct {
	Users         int
	Topics        int
	PostsPerTopic int
	// LockedTopics последних тем будут закрыты после наполнения.
	LockedTopics int
	// RandSeed фиксирует генератор; 0 - случайные данные.
	RandSeed int64
}

func DefaultOptions() Options {
	return Options{Users: 5, Topics: 4, PostsPerTopic: 3, LockedTopics: 1}
}

type Result struct {
	Users  []*domain.User
	Topics []*domain.TopicView
	Posts  int
}

// Demo создает пользователей, темы с постами и голосами.
func Demo(ctx context.Context, svc *service.Service, opts Options) (*Result, error) {
	if opts.Users <= 0 {
		return nil, fmt.Errorf("seed: at least one user is required")
	}
	f := gofakeit.New(opts.RandSeed)
	res := &Result{}

	for attempts := 0; len(res.Users) < opts.Users; attempts++ {
		if attempts > opts.Users*10 {
			return nil, fmt.Errorf("seed: could not generate %d distinct users", opts.Users)
		}
		u, err := svc.CreateUser(ctx, service.CreateUserInput{
			Username: fmt.Sprintf("%s%d", f.Username(), len(res.Users)),
			Email:    fmt.Sprintf("%d.%s", len(res.Users), f.Email()),
		})
		if domain.KindOf(err) == domain.KindInvalidArgument || domain.KindOf(err) == domain.KindConflict {
			// Сгенерированное имя не подошло, пробуем следующее
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
		res.Users = append(res.Users, u)
	}

	for i := 0; i < opts.Topics; i++ {
		author := res.Users[f.Number(0, len(res.Users)-1)]
		t, err := svc.CreateTopic(ctx, service.CreateTopicInput{
			Title:    f.Sentence(5),
			Content:  f.Paragraph(1, 3, 8, "\n"),
			Category: f.RandomString(categories),
			AuthorID: author.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("seed topic: %w", err)
		}
		res.Topics = append(res.Topics, t)

		for j := 0; j < opts.PostsPerTopic; j++ {
			poster := res.Users[f.Number(0, len(res.Users)-1)]
			p, err := svc.CreatePost(ctx, service.CreatePostInput{
				Content:  f.Sentence(12),
				AuthorID: poster.ID,
				TopicID:  t.ID,
			})
			if err != nil {
				return nil, fmt.Errorf("seed post: %w", err)
			}
			res.Posts++

			vote := domain.VoteUp
			if f.Bool() {
				vote = domain.VoteDown
			}
			if _, err := svc.VotePost(ctx, p.ID, vote); err != nil {
				return nil, fmt.Errorf("seed vote: %w", err)
			}
		}
	}

	locked := true
	for i := max(0, len(res.Topics)-opts.LockedTopics); i < len(res.Topics); i++ {
		t, err := svc.UpdateTopic(ctx, res.Topics[i].ID, domain.TopicPatch{IsLocked: &locked})
		if err != nil {
			return nil, fmt.Errorf("seed lock: %w", err)
		}
		res.Topics[i] = t
	}
	return res, nil
}
