package repository

import (
	"context"
	"fmt"

	"careerpath_go/internal/model"

	"gorm.io/gorm"
)

// PostRepository 帖子仓库接口
type PostRepository interface {
	// Create 在事务中写入帖子及其分类关联。
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// FindByFilterIDs 返回关联了任一 filterIDs 的帖子（去重），按创建时间倒序，最多 limit 条。
	FindByFilterIDs(ctx context.Context, filterIDs []string, limit int) ([]model.Post, error)
	// Delete 在事务中删除关联和帖子本身。
	Delete(ctx context.Context, id string) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	if post == nil {
		return fmt.Errorf("post is nil")
	}
	if post.ID == "" {
		return fmt.Errorf("post id is required")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if len(post.FilterIDs) == 0 {
			return nil
		}
		links := make([]model.PostFilterLink, 0, len(post.FilterIDs))
		for _, fid := range post.FilterIDs {
			links = append(links, model.PostFilterLink{PostID: post.ID, FilterID: fid})
		}
		return tx.Create(&links).Error
	})
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("post id is required")
	}

	var post model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	posts := []model.Post{post}
	if err := r.fillFilterIDs(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *postRepository) FindByFilterIDs(ctx context.Context, filterIDs []string, limit int) ([]model.Post, error) {
	if len(filterIDs) == 0 {
		return []model.Post{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var posts []model.Post
	sub := r.db.Model(&model.PostFilterLink{}).Select("post_id").Where("filter_id IN ?", filterIDs)
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := r.fillFilterIDs(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// fillFilterIDs 一次查询回填所有帖子的分类关联，避免 N+1。
func (r *postRepository) fillFilterIDs(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(posts))
	index := make(map[string]int, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
		index[posts[i].ID] = i
		posts[i].FilterIDs = []string{}
	}

	var links []model.PostFilterLink
	if err := r.db.WithContext(ctx).Where("post_id IN ?", ids).Find(&links).Error; err != nil {
		return err
	}
	for _, l := range links {
		if i, ok := index[l.PostID]; ok {
			posts[i].FilterIDs = append(posts[i].FilterIDs, l.FilterID)
		}
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("post id is required")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.PostFilterLink{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
