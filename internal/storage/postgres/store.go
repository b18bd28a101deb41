package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/moderation"
	"github.com/UkralStul/forum-service/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
// Счетчики обновляются одним UPDATE с выражением, без чтения-записи.
type Store struct {
	db *gorm.DB
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB оборачивает уже открытое соединение и выполняет миграцию схемы.
// Соединение должно быть открыто с TranslateError, иначе нарушения
// уникальности не распознаются.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&domain.User{}, &domain.Topic{}, &domain.Post{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate приводит ошибки GORM к ошибкам пакета storage.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, storage.ErrDuplicateKey)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	u.ID = ""
	if u.JoinDate.IsZero() {
		u.JoinDate = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, translate(err, "create user")
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user "+id)
	}
	return &user, nil
}

func (s *Store) GetUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, translate(err, "list users")
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	result := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []*domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err, "load users")
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	updates := map[string]interface{}{}
	if patch.Username != nil {
		updates["username"] = *patch.Username
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.Reputation != nil {
		updates["reputation"] = *patch.Reputation
	}

	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "update user "+id)
	}
	return &user, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, translate(err, "delete user "+id)
	}
	return &user, nil
}

// === Topic Methods ===

func (s *Store) CreateTopic(ctx context.Context, topic *domain.Topic) (*domain.Topic, error) {
	t := *topic
	t.ID = ""
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, translate(err, "create topic")
	}
	return &t, nil
}

func (s *Store) GetTopicByID(ctx context.Context, id string) (*domain.Topic, error) {
	var topic domain.Topic
	if err := s.db.WithContext(ctx).First(&topic, "id = ?", id).Error; err != nil {
		return nil, translate(err, "topic "+id)
	}
	return &topic, nil
}

func (s *Store) GetTopics(ctx context.Context, filter domain.TopicFilter) ([]*domain.Topic, error) {
	query := s.db.WithContext(ctx)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	switch filter.Sort {
	case domain.SortPopular:
		query = query.Order("view_count DESC").Order("created_at ASC")
	case domain.SortRecent:
		query = query.Order("created_at DESC")
	default:
		query = query.Order("created_at ASC")
	}

	var topics []*domain.Topic
	err := query.Find(&topics).Error
	return topics, translate(err, "list topics")
}

func (s *Store) UpdateTopic(ctx context.Context, id string, patch domain.TopicPatch) (*domain.Topic, error) {
	// slug сюда не попадает: он фиксируется при создании
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.IsPinned != nil {
		updates["is_pinned"] = *patch.IsPinned
	}
	if patch.IsLocked != nil {
		updates["is_locked"] = *patch.IsLocked
	}

	var topic domain.Topic
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&topic, "id = ?", id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&topic).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&topic, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "update topic "+id)
	}
	return &topic, nil
}

// DeleteTopic не удаляет посты темы.
func (s *Store) DeleteTopic(ctx context.Context, id string) (*domain.Topic, error) {
	var topic domain.Topic
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&topic, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&topic).Error
	})
	if err != nil {
		return nil, translate(err, "delete topic "+id)
	}
	return &topic, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	p := *post
	p.ID = ""

	// Проверяем существование темы и блокировку в одной транзакции с записью
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Select("id", "is_locked")
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var topic domain.Topic
		if err := q.First(&topic, "id = ?", p.TopicID).Error; err != nil {
			return translate(err, "topic "+p.TopicID)
		}
		if err := moderation.Allow(moderation.CreatePost, &topic); err != nil {
			return err
		}
		return translate(tx.Create(&p).Error, "create post")
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err, "post "+id)
	}
	return &post, nil
}

func (s *Store) GetPostsByTopicID(ctx context.Context, topicID string) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("created_at ASC").
		Find(&posts).Error
	return posts, translate(err, "list posts")
}

func (s *Store) UpdatePostContent(ctx context.Context, id, content string, editedAt time.Time) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
			"content":    content,
			"is_edited":  true,
			"edited_at":  editedAt.UTC(),
			"updated_at": editedAt.UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&post, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "update post "+id)
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return nil, translate(err, "delete post "+id)
	}
	return &post, nil
}

// === Counter Methods ===

// clampedAdd - выражение "column + delta", не опускающееся ниже нуля.
func clampedAdd(column string, delta int) clause.Expr {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s + ? < 0 THEN 0 ELSE %[1]s + ? END", column), delta, delta)
}

func (s *Store) adjust(ctx context.Context, model interface{}, id, column string, delta int) error {
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).UpdateColumn(column, clampedAdd(column, delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) AdjustTopicPostCount(ctx context.Context, topicID string, delta int) error {
	return translate(s.adjust(ctx, &domain.Topic{}, topicID, "post_count", delta), "topic "+topicID)
}

func (s *Store) AdjustUserPostCount(ctx context.Context, userID string, delta int) error {
	return translate(s.adjust(ctx, &domain.User{}, userID, "post_count", delta), "user "+userID)
}

func (s *Store) IncrementTopicViewCount(ctx context.Context, topicID string) (*domain.Topic, error) {
	var topic domain.Topic
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Topic{}).Where("id = ?", topicID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&topic, "id = ?", topicID).Error
	})
	if err != nil {
		return nil, translate(err, "topic "+topicID)
	}
	return &topic, nil
}

func (s *Store) IncrementPostVote(ctx context.Context, postID string, vote domain.VoteType) (*domain.Post, error) {
	var column string
	switch vote {
	case domain.VoteUp:
		column = "upvotes"
	case domain.VoteDown:
		column = "downvotes"
	default:
		return nil, fmt.Errorf("unknown vote type %q", vote)
	}

	var post domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Post{}).Where("id = ?", postID).
			UpdateColumn(column, gorm.Expr(column+" + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&post, "id = ?", postID).Error
	})
	if err != nil {
		return nil, translate(err, "post "+postID)
	}
	return &post, nil
}
