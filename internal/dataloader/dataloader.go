package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	AuthorByID *dataloader.Loader
}

// NewLoaders создает лоадеры поверх источника авторов.
func NewLoaders(src storage.AuthorSource) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keys.Keys()

		// Один запрос к источнику на всю пачку
		users, err := src.GetUsersByIDs(ctx, ids)
		results := make([]*dataloader.Result, len(keys))
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Результат в том же порядке, что и ключи
		for i, id := range ids {
			results[i] = &dataloader.Result{Data: users[id]}
		}
		return results
	}

	return &Loaders{
		AuthorByID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond*1)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(src storage.AuthorSource, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(src))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithLoaders кладет лоадеры в контекст.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста; nil, если их там нет.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

// Source - storage.AuthorSource, который идет через лоадер запроса,
// а без него напрямую в fallback.
type Source struct {
	fallback storage.AuthorSource
}

func NewSource(fallback storage.AuthorSource) *Source {
	return &Source{fallback: fallback}
}

func (s *Source) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	l := For(ctx)
	if l == nil {
		return s.fallback.GetUsersByIDs(ctx, ids)
	}

	data, errs := l.AuthorByID.LoadMany(ctx, dataloader.NewKeysFromStrings(ids))()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	result := make(map[string]*domain.User, len(ids))
	for i, v := range data {
		if u, ok := v.(*domain.User); ok && u != nil {
			result[ids[i]] = u
		}
	}
	return result, nil
}
