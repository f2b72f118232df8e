package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careerpath_go/internal/model"
	"careerpath_go/internal/repository"

	"gorm.io/gorm"
)

// DefaultMaxDepth 是遍历深度上限。正常数据最多 5 跳（六种类型），上限只用于拦截绕过校验的脏数据。
const DefaultMaxDepth = 32

// childFetcher 返回某个节点的直接子节点。
type childFetcher func(ctx context.Context, parentID string) ([]model.FilterNode, error)

// walkDescendants 从 rootID 出发深度优先收集全部后代 ID（不含 rootID 本身）。
// visited 防止重复访问，maxDepth 限制递归深度；两者都是对无环不变量的兜底。
func walkDescendants(ctx context.Context, rootID string, maxDepth int, fetch childFetcher) ([]string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	visited := map[string]struct{}{rootID: {}}
	out := make([]string, 0)

	var walk func(id string, depth int) error
	walk = func(id string, depth int) error {
		children, err := fetch(ctx, id)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			return nil
		}
		if depth >= maxDepth {
			return fmt.Errorf("%w: below %s", ErrTaxonomyTooDeep, rootID)
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			out = append(out, child.ID)
			if err := walk(child.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(rootID, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// DescendantResolver 把一个节点展开为它下面全部启用的后代，
// 用于"按职业路径筛选帖子"时把选中节点扩展为整棵子树。
type DescendantResolver interface {
	// AllActiveDescendantIDs 返回经由一跳或多跳 parent 关系可达、且沿途都启用的节点 ID。
	AllActiveDescendantIDs(ctx context.Context, nodeID string) ([]string, error)
	// ExpandWithDescendants 返回 {nodeID} ∪ AllActiveDescendantIDs(nodeID)，节点必须存在。
	// 停用节点只对管理员可展开，其他调用方得到 ErrFilterNotFound。
	ExpandWithDescendants(ctx context.Context, caller *model.User, nodeID string) ([]string, error)
}

type descendantResolver struct {
	repo     repository.FilterNodeRepository
	maxDepth int
}

func NewDescendantResolver(repo repository.FilterNodeRepository, maxDepth int) DescendantResolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &descendantResolver{repo: repo, maxDepth: maxDepth}
}

func (r *descendantResolver) AllActiveDescendantIDs(ctx context.Context, nodeID string) ([]string, error) {
	if r.repo == nil {
		return nil, ErrInternal
	}
	nodeID = strings.TrimSpace(nodeID)
	if nodeID == "" {
		return nil, ErrInvalidInput
	}
	return walkDescendants(ctx, nodeID, r.maxDepth, r.activeChildren)
}

func (r *descendantResolver) ExpandWithDescendants(ctx context.Context, caller *model.User, nodeID string) ([]string, error) {
	if r.repo == nil {
		return nil, ErrInternal
	}
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	nodeID = strings.TrimSpace(nodeID)
	if nodeID == "" {
		return nil, ErrInvalidInput
	}
	node, err := r.repo.FindByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFilterNotFound
		}
		return nil, err
	}
	if node == nil || (!node.IsActive && !caller.IsAdmin()) {
		return nil, ErrFilterNotFound
	}

	ids, err := walkDescendants(ctx, nodeID, r.maxDepth, r.activeChildren)
	if err != nil {
		return nil, err
	}
	return append([]string{nodeID}, ids...), nil
}

func (r *descendantResolver) activeChildren(ctx context.Context, parentID string) ([]model.FilterNode, error) {
	return r.repo.FindByParentID(ctx, &parentID, true)
}
