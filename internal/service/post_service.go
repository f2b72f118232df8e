package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careerpath_go/internal/model"
	"careerpath_go/internal/repository"
	"careerpath_go/internal/taxonomy"
	"careerpath_go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostIndex 是可选的帖子检索索引，按关联的分类 ID 过滤，不做相关性排序。
type PostIndex interface {
	IndexPost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error
	SearchByFilterIDs(ctx context.Context, filterIDs []string, limit int) ([]model.Post, error)
}

// CreatePostInput 是创建帖子的入参。
type CreatePostInput struct {
	Title     string
	Content   string
	Image     *string
	FilterIDs []string
}

// PostService 负责社区帖子，以及"按职业路径节点筛选帖子"这条查询路径。
type PostService interface {
	CreatePost(ctx context.Context, caller *model.User, in CreatePostInput) (*model.Post, error)
	DeletePost(ctx context.Context, caller *model.User, id string) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// PostsForFilter 返回关联到 nodeID 或其任一启用后代的帖子；停用节点对非管理员不存在。
	PostsForFilter(ctx context.Context, caller *model.User, nodeID string, limit int) ([]model.Post, error)
}

// PostServiceOptions 配置帖子服务。Index 为 nil 时直接走数据库关联查询。
type PostServiceOptions struct {
	Index            PostIndex
	MaxLinkedFilters int
	ListLimit        int
}

type postService struct {
	posts    repository.PostRepository
	filters  repository.FilterNodeRepository
	resolver DescendantResolver
	index    PostIndex
	maxLinks int
	limit    int
}

func NewPostService(posts repository.PostRepository, filters repository.FilterNodeRepository, resolver DescendantResolver, opts PostServiceOptions) PostService {
	if opts.ListLimit <= 0 {
		opts.ListLimit = 50
	}
	return &postService{
		posts:    posts,
		filters:  filters,
		resolver: resolver,
		index:    opts.Index,
		maxLinks: opts.MaxLinkedFilters,
		limit:    opts.ListLimit,
	}
}

// CreatePost 创建帖子并关联分类节点。
// 关联 ID 经过多选集合去重，超过上限的部分直接忽略；每个关联节点必须存在且启用。
func (s *postService) CreatePost(ctx context.Context, caller *model.User, in CreatePostInput) (*model.Post, error) {
	admin, err := RequireAdmin(caller)
	if err != nil {
		return nil, err
	}
	if s.posts == nil || s.filters == nil {
		return nil, ErrInternal
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}

	selection := taxonomy.NewSelection(s.maxLinks)
	for _, raw := range in.FilterIDs {
		if id := strings.TrimSpace(raw); id != "" {
			selection.Add(id)
		}
	}
	for _, id := range selection.IDs() {
		node, err := s.filters.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrFilterNotFound, id)
			}
			return nil, err
		}
		if !node.IsActive {
			return nil, fmt.Errorf("%w: %s is inactive", ErrFilterNotFound, id)
		}
	}

	post := &model.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Image:     normalizeOptionalText(in.Image),
		AuthorID:  admin.UserID,
		FilterIDs: selection.IDs(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	if s.index != nil {
		if err := s.index.IndexPost(ctx, post); err != nil {
			log.Warnf("PostService.CreatePost: failed to index post %s: %v", post.ID, err)
		}
	}
	return post, nil
}

// DeletePost 硬删除帖子。这是系统中唯一的删除操作，分类节点只能停用。
func (s *postService) DeletePost(ctx context.Context, caller *model.User, id string) error {
	if _, err := RequireAdmin(caller); err != nil {
		return err
	}
	if s.posts == nil {
		return ErrInternal
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if s.index != nil {
		if err := s.index.DeletePost(ctx, id); err != nil {
			log.Warnf("PostService.DeletePost: failed to remove post %s from index: %v", id, err)
		}
	}
	return nil
}

func (s *postService) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if s.posts == nil {
		return nil, ErrInternal
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidInput
	}
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// PostsForFilter 先把 nodeID 展开为 {nodeID} ∪ 全部启用后代，再取关联到其中任一节点的帖子。
// 例如选中 "IT & Software" 时，挂在三层之下 "React Developer" 上的帖子也会返回。
func (s *postService) PostsForFilter(ctx context.Context, caller *model.User, nodeID string, limit int) ([]model.Post, error) {
	if s.posts == nil || s.resolver == nil {
		return nil, ErrInternal
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	ids, err := s.resolver.ExpandWithDescendants(ctx, caller, nodeID)
	if err != nil {
		return nil, err
	}

	if s.index != nil {
		posts, err := s.index.SearchByFilterIDs(ctx, ids, limit)
		if err == nil {
			return posts, nil
		}
		log.Warnf("PostService.PostsForFilter: index search failed, falling back to database: %v", err)
	}
	return s.posts.FindByFilterIDs(ctx, ids, limit)
}
