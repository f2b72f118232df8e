package repository

import (
	"context"
	"fmt"

	"careerpath_go/internal/model"

	"gorm.io/gorm"
)

// FilterNodePatch 描述一次局部更新，nil 字段表示不修改。
type FilterNodePatch struct {
	Name          *string
	Description   *string
	Requirements  *string
	AvgSalary     *string
	RelevantExams *string
	Image         *string
	UpdatedBy     string
}

// IsEmpty 判断补丁是否没有任何业务字段。
func (p FilterNodePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Requirements == nil &&
		p.AvgSalary == nil && p.RelevantExams == nil && p.Image == nil
}

// FilterNodeRepository 定义分类节点的持久化操作。
// 节点是树形结构，通过 parent_id 实现父子关系；parent_id 索引即"按父节点"索引。
type FilterNodeRepository interface {
	Create(ctx context.Context, node *model.FilterNode) error
	FindByID(ctx context.Context, id string) (*model.FilterNode, error)
	FindAll(ctx context.Context) ([]model.FilterNode, error)
	FindAllActive(ctx context.Context) ([]model.FilterNode, error)
	// FindByParentID 查询直接子节点，parentID 为 nil 时查询根节点。
	FindByParentID(ctx context.Context, parentID *string, activeOnly bool) ([]model.FilterNode, error)
	// CountSiblingsByName 统计同一父节点下同名节点数量，excludeID 非空时排除自身。
	CountSiblingsByName(ctx context.Context, parentID *string, name, excludeID string) (int64, error)
	// Update 只更新补丁中非 nil 的字段。记录不存在时返回 gorm.ErrRecordNotFound。
	Update(ctx context.Context, id string, patch FilterNodePatch) error
	// SetActive 在一条语句中批量设置 is_active，级联停用因此不会出现"停用了一半"的中间态。
	SetActive(ctx context.Context, ids []string, active bool, actor string) (int64, error)
}

type filterNodeRepository struct {
	db *gorm.DB
}

func NewFilterNodeRepository(db *gorm.DB) FilterNodeRepository {
	return &filterNodeRepository{db: db}
}

func (r *filterNodeRepository) Create(ctx context.Context, node *model.FilterNode) error {
	if node == nil {
		return fmt.Errorf("filter node is nil")
	}
	if node.ID == "" {
		return fmt.Errorf("filter node id is required")
	}
	node.ParentKey = model.ParentKeyOf(node.ParentID)
	return r.db.WithContext(ctx).Create(node).Error
}

func (r *filterNodeRepository) FindByID(ctx context.Context, id string) (*model.FilterNode, error) {
	if id == "" {
		return nil, fmt.Errorf("filter node id is required")
	}

	var node model.FilterNode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *filterNodeRepository) FindAll(ctx context.Context) ([]model.FilterNode, error) {
	var nodes []model.FilterNode
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *filterNodeRepository) FindAllActive(ctx context.Context) ([]model.FilterNode, error) {
	var nodes []model.FilterNode
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *filterNodeRepository) FindByParentID(ctx context.Context, parentID *string, activeOnly bool) ([]model.FilterNode, error) {
	var nodes []model.FilterNode

	tx := r.db.WithContext(ctx)
	if parentID == nil {
		tx = tx.Where("parent_id IS NULL")
	} else {
		tx = tx.Where("parent_id = ?", *parentID)
	}
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}

	if err := tx.Order("name ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *filterNodeRepository) CountSiblingsByName(ctx context.Context, parentID *string, name, excludeID string) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.FilterNode{})
	if parentID == nil {
		tx = tx.Where("parent_id IS NULL")
	} else {
		tx = tx.Where("parent_id = ?", *parentID)
	}
	tx = tx.Where("name = ?", name)
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update 用 map 只写入显式提供的字段，避免零值覆盖其他字段。
func (r *filterNodeRepository) Update(ctx context.Context, id string, patch FilterNodePatch) error {
	if id == "" {
		return fmt.Errorf("filter node id is required")
	}

	fields := map[string]interface{}{"updated_by": patch.UpdatedBy}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	setOptional(fields, "description", patch.Description)
	setOptional(fields, "requirements", patch.Requirements)
	setOptional(fields, "avg_salary", patch.AvgSalary)
	setOptional(fields, "relevant_exams", patch.RelevantExams)
	setOptional(fields, "image", patch.Image)

	tx := r.db.WithContext(ctx).Model(&model.FilterNode{}).
		Where("id = ?", id).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// 未开启 clientFoundRows 时 MySQL 返回的是实际改变的行数，值没变也会是 0，需要再确认一次行是否存在
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.FilterNode{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// setOptional 空字符串表示清空该字段（写 NULL）。
func setOptional(fields map[string]interface{}, column string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		fields[column] = nil
		return
	}
	fields[column] = *v
}

func (r *filterNodeRepository) SetActive(ctx context.Context, ids []string, active bool, actor string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Model(&model.FilterNode{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": actor,
		})
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}
