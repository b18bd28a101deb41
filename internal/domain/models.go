package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteType - направление голоса за пост.
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Valid сообщает, является ли значение допустимым типом голоса.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// User представляет участника форума.
type User struct {
	ID         string    `json:"id" gorm:"type:uuid;primary_key"`
	Username   string    `json:"username" gorm:"type:varchar(30);not null;uniqueIndex"`
	Email      string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Reputation int       `json:"reputation" gorm:"not null;default:0"`
	PostCount  int       `json:"postCount" gorm:"not null;default:0"`
	JoinDate   time.Time `json:"joinDate" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Topic представляет тему обсуждения.
type Topic struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Category  string    `json:"category" gorm:"type:varchar(100);not null;index"`
	Slug      string    `json:"slug" gorm:"type:varchar(255);not null;index"`
	AuthorID  string    `json:"authorId" gorm:"type:uuid;not null;index"`
	IsPinned  bool      `json:"isPinned" gorm:"not null;default:false"`
	IsLocked  bool      `json:"isLocked" gorm:"not null;default:false"`
	ViewCount int       `json:"viewCount" gorm:"not null;default:0"`
	PostCount int       `json:"postCount" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Post представляет сообщение внутри темы.
type Post struct {
	ID        string     `json:"id" gorm:"type:uuid;primary_key"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	AuthorID  string     `json:"authorId" gorm:"type:uuid;not null;index"`
	TopicID   string     `json:"topicId" gorm:"type:uuid;not null;index"`
	Upvotes   int        `json:"upvotes" gorm:"not null;default:0"`
	Downvotes int        `json:"downvotes" gorm:"not null;default:0"`
	IsEdited  bool       `json:"isEdited" gorm:"not null;default:false"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BeforeCreate выдает идентификатор, если он не задан заранее.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (t *Topic) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Author - ограниченная проекция пользователя для вывода рядом с контентом.
type Author struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Reputation *int   `json:"reputation,omitempty"`
}

// AuthorOf строит проекцию автора. Репутация включается только по запросу.
func AuthorOf(u *User, withReputation bool) *Author {
	if u == nil {
		return nil
	}
	a := &Author{ID: u.ID, Username: u.Username, Email: u.Email}
	if withReputation {
		rep := u.Reputation
		a.Reputation = &rep
	}
	return a
}

// TopicView - тема вместе с проекцией автора.
type TopicView struct {
	*Topic
	Author *Author `json:"author"`
}

// PostView - пост вместе с проекцией автора.
type PostView struct {
	*Post
	Author *Author `json:"author"`
}

// TopicSort - порядок выдачи списка тем.
type TopicSort string

const (
	SortDefault TopicSort = ""
	SortPopular TopicSort = "popular"
	SortRecent  TopicSort = "recent"
)

// TopicFilter - условия выборки тем.
type TopicFilter struct {
	Category string
	Sort     TopicSort
}

// TopicPatch - частичное обновление темы; nil означает "не менять".
type TopicPatch struct {
	Title    *string
	Content  *string
	Category *string
	IsPinned *bool
	IsLocked *bool
}

// UserPatch - частичное обновление пользователя.
type UserPatch struct {
	Username   *string
	Email      *string
	Reputation *int
}
