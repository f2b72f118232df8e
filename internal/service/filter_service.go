package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"careerpath_go/internal/model"
	"careerpath_go/internal/repository"
	"careerpath_go/internal/taxonomy"
	"careerpath_go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxonomyCache 缓存启用节点的平铺快照，任何写操作后失效。
// gen 是缓存代数：Invalidate 会推进代数，SetActive 只在代数仍等于读取时的值才写入，
// 因此读取期间发生的变更不会被旧快照盖掉。
type TaxonomyCache interface {
	GetActive(ctx context.Context) (nodes []model.FilterNode, gen int64, hit bool, err error)
	SetActive(ctx context.Context, nodes []model.FilterNode, gen int64) (stored bool, err error)
	Invalidate(ctx context.Context) error
}

// ChangeNotifier 把分类树变更推送给实时客户端。
type ChangeNotifier interface {
	Publish(event model.FilterChangeEvent)
}

// MutationRecorder 记录写操作结果和级联规模。
type MutationRecorder interface {
	ObserveMutation(op string, err error)
	ObserveCascade(size int)
}

// CreateFilterInput 是创建节点的入参。Type 保留原始字符串，由规则引擎解析。
type CreateFilterInput struct {
	Name          string
	Type          string
	ParentID      *string
	Description   *string
	Requirements  *string
	AvgSalary     *string
	RelevantExams *string
	Image         *string
}

// UpdateFilterInput 的每个字段独立可选，nil 表示不修改；类型和父节点不可修改，因此不在这里。
type UpdateFilterInput struct {
	Name          *string
	Description   *string
	Requirements  *string
	AvgSalary     *string
	RelevantExams *string
	Image         *string
}

// ToggleResult 描述一次启停操作实际影响的节点。
type ToggleResult struct {
	ID       string   `json:"id"`
	IsActive bool     `json:"isActive"`
	Affected []string `json:"affected"`
}

// FilterTree 是树查询的结果。ExpandedIDs 仅在带搜索词时非空：搜索会展开全部节点。
type FilterTree struct {
	Roots       []*model.FilterTreeNode `json:"roots"`
	ExpandedIDs []string                `json:"expandedIds"`
	Total       int                     `json:"total"`
}

// FilterService 封装分类树领域逻辑：写操作（含规则校验、重名检查、级联停用）与读操作。
type FilterService interface {
	CreateNode(ctx context.Context, caller *model.User, in CreateFilterInput) (string, error)
	UpdateNode(ctx context.Context, caller *model.User, id string, in UpdateFilterInput) (*model.FilterNode, error)
	ToggleActive(ctx context.Context, caller *model.User, id string, active bool) (*ToggleResult, error)

	ChildrenOf(ctx context.Context, caller *model.User, parentID *string) ([]model.FilterNode, error)
	AllActive(ctx context.Context) ([]model.FilterNode, error)
	AllIncludingInactive(ctx context.Context, caller *model.User) ([]model.FilterNode, error)
	Tree(ctx context.Context, caller *model.User, query string, includeInactive bool) (*FilterTree, error)
	FindByID(ctx context.Context, caller *model.User, id string) (*model.FilterNode, error)
}

// FilterServiceOptions 中的依赖都可以为 nil，此时对应功能关闭。
type FilterServiceOptions struct {
	Cache    TaxonomyCache
	Notifier ChangeNotifier
	Metrics  MutationRecorder
	MaxDepth int
	Locale   string
}

type filterService struct {
	repo     repository.FilterNodeRepository
	cache    TaxonomyCache
	notifier ChangeNotifier
	metrics  MutationRecorder
	maxDepth int
	cmp      func(a, b string) int
	now      func() time.Time
}

func NewFilterService(repo repository.FilterNodeRepository, opts FilterServiceOptions) FilterService {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Locale == "" {
		opts.Locale = "en"
	}
	return &filterService{
		repo:     repo,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		maxDepth: opts.MaxDepth,
		cmp:      taxonomy.NameComparer(opts.Locale),
		now:      time.Now,
	}
}

// CreateNode 创建分类节点。
// 关键规则：
// 1. name 去除首尾空白后不能为空。
// 2. 有父节点时父节点必须存在，且类型必须是父类型的合法子类型。
// 3. 无父节点时类型必须是 qualification。
// 4. 同一父节点下名称不能重复（区分大小写）。
// 5. 新节点默认启用；父节点已停用时以停用状态创建，停用节点的全部后代都必须是停用的。
// 所有校验都在唯一一次插入之前完成，失败时不会有任何写入。
func (s *filterService) CreateNode(ctx context.Context, caller *model.User, in CreateFilterInput) (id string, err error) {
	defer func() { s.observe(model.FilterOpCreate, err) }()

	admin, err := RequireAdmin(caller)
	if err != nil {
		return "", err
	}
	if s.repo == nil {
		return "", ErrInternal
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	nodeType, ok := taxonomy.ParseFilterType(strings.TrimSpace(in.Type))
	if !ok {
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidInput, in.Type)
	}

	parentID := normalizeOptionalID(in.ParentID)
	active := true
	if parentID != nil {
		parent, err := s.findNode(ctx, *parentID)
		if err != nil {
			return "", err
		}
		if !taxonomy.CanParent(parent.Type, nodeType) {
			return "", fmt.Errorf("%w: a %s cannot be created under a %s", ErrInvalidInput, nodeType, parent.Type)
		}
		active = parent.IsActive
	} else if !taxonomy.IsValidRootType(nodeType) {
		return "", fmt.Errorf("%w: a %s cannot be a root node", ErrInvalidInput, nodeType)
	}

	if err := s.ensureUniqueSiblingName(ctx, parentID, name, ""); err != nil {
		return "", err
	}

	node := &model.FilterNode{
		ID:            uuid.NewString(),
		Name:          name,
		Type:          nodeType,
		ParentID:      parentID,
		Description:   normalizeOptionalText(in.Description),
		Requirements:  normalizeOptionalText(in.Requirements),
		AvgSalary:     normalizeOptionalText(in.AvgSalary),
		RelevantExams: normalizeOptionalText(in.RelevantExams),
		Image:         normalizeOptionalText(in.Image),
		Likes:         0,
		Comments:      0,
		IsActive:      active,
		CreatedBy:     admin.Username,
		UpdatedBy:     admin.Username,
	}
	if err := s.repo.Create(ctx, node); err != nil {
		if isDuplicateKey(err) {
			return "", ErrFilterNameConflict
		}
		return "", err
	}

	log.Infow("filter node created", "id", node.ID, "type", node.Type, "parent", model.ParentKeyOf(parentID), "by", admin.Username)
	s.afterMutation(ctx, model.FilterOpCreate, []string{node.ID})
	return node.ID, nil
}

// UpdateNode 局部更新节点的名称和描述类字段，只写入显式提供的字段。
// 可选文本字段传空串表示清空。
func (s *filterService) UpdateNode(ctx context.Context, caller *model.User, id string, in UpdateFilterInput) (updated *model.FilterNode, err error) {
	defer func() { s.observe(model.FilterOpUpdate, err) }()

	admin, err := RequireAdmin(caller)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, ErrInternal
	}

	node, err := s.findNode(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := repository.FilterNodePatch{
		Description:   trimOptional(in.Description),
		Requirements:  trimOptional(in.Requirements),
		AvgSalary:     trimOptional(in.AvgSalary),
		RelevantExams: trimOptional(in.RelevantExams),
		Image:         trimOptional(in.Image),
		UpdatedBy:     admin.Username,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		if name != node.Name {
			if err := s.ensureUniqueSiblingName(ctx, node.ParentID, name, node.ID); err != nil {
				return nil, err
			}
		}
		patch.Name = &name
	}
	if patch.IsEmpty() {
		return node, nil
	}

	if err := s.repo.Update(ctx, node.ID, patch); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrFilterNotFound
		case isDuplicateKey(err):
			return nil, ErrFilterNameConflict
		default:
			return nil, err
		}
	}

	s.afterMutation(ctx, model.FilterOpUpdate, []string{node.ID})
	return s.findNode(ctx, node.ID)
}

// ToggleActive 设置节点启用状态。
// 停用时深度优先收集全部后代并在一条语句中统一置为停用，不论它们之前的状态；
// 启用时只改当前节点，后代保持停用，需要逐个重新启用。
func (s *filterService) ToggleActive(ctx context.Context, caller *model.User, id string, active bool) (result *ToggleResult, err error) {
	op := model.FilterOpActivate
	if !active {
		op = model.FilterOpDeactivate
	}
	defer func() { s.observe(op, err) }()

	admin, err := RequireAdmin(caller)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, ErrInternal
	}

	node, err := s.findNode(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := []string{node.ID}
	if !active {
		descendants, err := walkDescendants(ctx, node.ID, s.maxDepth, s.allChildren)
		if err != nil {
			return nil, err
		}
		ids = append(ids, descendants...)
		if s.metrics != nil {
			s.metrics.ObserveCascade(len(descendants))
		}
	}

	if _, err := s.repo.SetActive(ctx, ids, active, admin.Username); err != nil {
		return nil, err
	}

	log.Infow("filter node active toggled", "id", node.ID, "active", active, "affected", len(ids), "by", admin.Username)
	s.afterMutation(ctx, op, ids)
	return &ToggleResult{ID: node.ID, IsActive: active, Affected: ids}, nil
}

// ChildrenOf 按父节点查询直接子节点；parentID 为 nil 时返回根节点。
// 非管理员只能看到启用节点。结果按名称做本地化排序。
func (s *filterService) ChildrenOf(ctx context.Context, caller *model.User, parentID *string) ([]model.FilterNode, error) {
	if s.repo == nil {
		return nil, ErrInternal
	}
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	nodes, err := s.repo.FindByParentID(ctx, normalizeOptionalID(parentID), !caller.IsAdmin())
	if err != nil {
		return nil, err
	}
	taxonomy.SortByName(nodes, taxonomy.FilterNodeAccessor.Name, s.cmp)
	return nodes, nil
}

// AllActive 返回全部启用节点的平铺列表，优先读缓存。缓存故障只记日志，不影响结果。
// 未命中时带着读取前的代数回填；读取缓存失败时拿不到代数，本次不回填。
func (s *filterService) AllActive(ctx context.Context) ([]model.FilterNode, error) {
	if s.repo == nil {
		return nil, ErrInternal
	}

	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		nodes, g, hit, err := s.cache.GetActive(ctx)
		switch {
		case err != nil:
			log.Warnf("FilterService.AllActive: cache read failed: %v", err)
		case hit:
			return nodes, nil
		default:
			gen, cacheable = g, true
		}
	}

	nodes, err := s.repo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	taxonomy.SortByName(nodes, taxonomy.FilterNodeAccessor.Name, s.cmp)

	if cacheable {
		stored, err := s.cache.SetActive(ctx, nodes, gen)
		if err != nil {
			log.Warnf("FilterService.AllActive: cache write failed: %v", err)
		} else if !stored {
			log.Debugf("FilterService.AllActive: taxonomy changed during read, snapshot not cached")
		}
	}
	return nodes, nil
}

func (s *filterService) AllIncludingInactive(ctx context.Context, caller *model.User) ([]model.FilterNode, error) {
	if _, err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, ErrInternal
	}

	nodes, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	taxonomy.SortByName(nodes, taxonomy.FilterNodeAccessor.Name, s.cmp)
	return nodes, nil
}

// Tree 在服务端复用客户端的树构建逻辑：构建、按搜索词裁剪、推导展开集合。
// includeInactive 仅管理员可用，停用节点保留在树中（前端置灰）。
// 非管理员的树只从合法根节点展开，被停用祖先截断的启用节点不会作为孤儿出现。
func (s *filterService) Tree(ctx context.Context, caller *model.User, query string, includeInactive bool) (*FilterTree, error) {
	var (
		nodes []model.FilterNode
		err   error
	)
	if includeInactive {
		nodes, err = s.AllIncludingInactive(ctx, caller)
	} else {
		if caller == nil {
			return nil, ErrUnauthenticated
		}
		nodes, err = s.AllActive(ctx)
	}
	if err != nil {
		return nil, err
	}

	roots := taxonomy.Build(nodes, taxonomy.FilterNodeAccessor, s.cmp)
	if !includeInactive {
		kept := roots[:0]
		for _, r := range roots {
			if r.Item.ParentID == nil {
				kept = append(kept, r)
			}
		}
		roots = kept
	}

	expand := taxonomy.NewExpandState()
	if strings.TrimSpace(query) != "" {
		roots = taxonomy.Prune(roots, taxonomy.QueryMatcher(query, taxonomy.FilterNodeAccessor))
		allIDs := make([]string, 0, len(nodes))
		for _, n := range nodes {
			allIDs = append(allIDs, n.ID)
		}
		expand.ApplySearch(query, allIDs)
	}

	return &FilterTree{
		Roots:       taxonomy.ToFilterTree(roots),
		ExpandedIDs: expand.IDs(),
		Total:       len(nodes),
	}, nil
}

// FindByID 返回单个节点；停用节点对非管理员不可见。
func (s *filterService) FindByID(ctx context.Context, caller *model.User, id string) (*model.FilterNode, error) {
	if s.repo == nil {
		return nil, ErrInternal
	}
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	node, err := s.findNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if !node.IsActive && !caller.IsAdmin() {
		return nil, ErrFilterNotFound
	}
	return node, nil
}

func (s *filterService) findNode(ctx context.Context, id string) (*model.FilterNode, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	node, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFilterNotFound
		}
		return nil, err
	}
	if node == nil {
		return nil, ErrFilterNotFound
	}
	return node, nil
}

// ensureUniqueSiblingName 是先查后写的重名检查；并发下可能同时通过，
// 由数据库联合唯一索引兜底并在写入时转换为 ErrFilterNameConflict。
func (s *filterService) ensureUniqueSiblingName(ctx context.Context, parentID *string, name, excludeID string) error {
	count, err := s.repo.CountSiblingsByName(ctx, parentID, name, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrFilterNameConflict
	}
	return nil
}

func (s *filterService) allChildren(ctx context.Context, parentID string) ([]model.FilterNode, error) {
	return s.repo.FindByParentID(ctx, &parentID, false)
}

func (s *filterService) afterMutation(ctx context.Context, op string, ids []string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warnf("FilterService: cache invalidate failed after %s: %v", op, err)
		}
	}
	if s.notifier != nil {
		s.notifier.Publish(model.FilterChangeEvent{
			Event: model.FilterEventChanged,
			Op:    op,
			IDs:   ids,
			At:    s.now(),
		})
	}
}

func (s *filterService) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMutation(op, err)
	}
}

// normalizeOptionalID 把可选字符串指针做标准化：
// 1. nil -> nil
// 2. 空白字符串 -> nil
// 3. 非空 -> trim 后返回新指针
func normalizeOptionalID(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeOptionalText 与 normalizeOptionalID 相同，用于创建时的描述类字段：空串视为未提供。
func normalizeOptionalText(raw *string) *string {
	return normalizeOptionalID(raw)
}

// trimOptional 用于更新：nil 表示不修改，空串表示清空，因此保留空串。
func trimOptional(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	return &trimmed
}
