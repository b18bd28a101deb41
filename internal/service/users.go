package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/forum-service/internal/domain"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
)

type CreateUserInput struct {
	Username string
	Email    string
}

func normalizeUsername(v string) (string, error) {
	v = strings.TrimSpace(v)
	if n := utf8.RuneCountInString(v); n < minUsernameLen || n > maxUsernameLen {
		return "", domain.InvalidArgument("Username must be between 3 and 30 characters")
	}
	return v, nil
}

func normalizeEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", domain.InvalidArgument("Email is required")
	}
	return v, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "User")
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := checkID(id, "user"); err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err, "User")
	}
	return user, nil
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if in.Username == "" || in.Email == "" {
		return nil, domain.InvalidArgument("Username and email are required")
	}
	username, err := normalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, &domain.User{Username: username, Email: email})
	if err != nil {
		return nil, s.fail(ctx, err, "User")
	}
	s.log.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if err := checkID(id, "user"); err != nil {
		return nil, err
	}
	if patch.Username != nil {
		v, err := normalizeUsername(*patch.Username)
		if err != nil {
			return nil, err
		}
		patch.Username = &v
	}
	if patch.Email != nil {
		v, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		patch.Email = &v
	}

	user, err := s.store.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, s.fail(ctx, err, "User")
	}
	s.invalidateAuthor(ctx, id)
	return user, nil
}

// DeleteUser не трогает темы и посты пользователя: при выводе автор будет пустым.
func (s *Service) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	if err := checkID(id, "user"); err != nil {
		return nil, err
	}
	user, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err, "User")
	}
	s.invalidateAuthor(ctx, id)
	return user, nil
}
