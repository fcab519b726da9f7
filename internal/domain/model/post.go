package model

import "time"

type PostStatus string

const (
	PostStatusPublished PostStatus = "published"
	PostStatusDraft     PostStatus = "draft"
)

func (s PostStatus) Valid() bool {
	return s == PostStatusPublished || s == PostStatusDraft
}

type Post struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	//"/uploads/<file>" 形式
	Thumbnail string `gorm:"type:varchar(500)" json:"thumbnail"`

	AuthorID  int64      `gorm:"not null;index" json:"author_id"`
	Author    *User      `gorm:"foreignKey:AuthorID" json:"-"`
	Tags      []Tag      `gorm:"many2many:post_tags" json:"tags"`
	Status    PostStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Views     int64      `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type TagStatus string

const (
	TagStatusActive   TagStatus = "active"
	TagStatusInactive TagStatus = "inactive"
)

func (s TagStatus) Valid() bool {
	return s == TagStatusActive || s == TagStatusInactive
}

type Tag struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Status      TagStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
