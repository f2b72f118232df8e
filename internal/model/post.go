package model

import "time"

// Post 对应 posts 表，社区帖子。帖子通过 post_filter_links 关联到若干分类节点。
type Post struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Image     *string   `gorm:"type:varchar(512)" json:"image,omitempty"`
	AuthorID  uint      `gorm:"not null;index" json:"authorId"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	Comments  int       `gorm:"not null;default:0" json:"comments"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// FilterIDs 不落库，由 post_filter_links 回填
	FilterIDs []string `gorm:"-" json:"filterIds"`
}

func (Post) TableName() string {
	return "posts"
}

// PostFilterLink 是帖子与分类节点的多对多关联。
type PostFilterLink struct {
	PostID   string `gorm:"type:varchar(36);primaryKey" json:"postId"`
	FilterID string `gorm:"type:varchar(36);primaryKey;index" json:"filterId"`
}

func (PostFilterLink) TableName() string {
	return "post_filter_links"
}
