package model

import "time"

// FilterType 是职业路径分类树的层级类型，按 qualification < category < sector <
// subSector < branch < role 的顺序排列，创建后不可修改。
type FilterType string

const (
	FilterTypeQualification FilterType = "qualification"
	FilterTypeCategory      FilterType = "category"
	FilterTypeSector        FilterType = "sector"
	FilterTypeSubSector     FilterType = "subSector"
	FilterTypeBranch        FilterType = "branch"
	FilterTypeRole          FilterType = "role"
)

// FilterTypes 按层级顺序列出全部类型。
var FilterTypes = []FilterType{
	FilterTypeQualification,
	FilterTypeCategory,
	FilterTypeSector,
	FilterTypeSubSector,
	FilterTypeBranch,
	FilterTypeRole,
}

// FilterNode 对应数据库中 filter_nodes 表，即职业路径分类树中的一个节点。
// 树形结构通过 ParentID 指向父节点实现；ParentKey 是 ParentID 的非空镜像（根节点为 ""），
// 与 Name 组成联合唯一索引，保证同一父节点下名称不重复（包括根节点之间）。
// Name 列使用 utf8mb4_bin，重名判断区分大小写。
type FilterNode struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(150) COLLATE utf8mb4_bin;not null;uniqueIndex:uk_filter_parent_name,priority:2" json:"name"`
	Type          FilterType `gorm:"type:varchar(20);not null;index" json:"type"`
	ParentID      *string    `gorm:"type:varchar(36);index" json:"parentId"`
	ParentKey     string     `gorm:"type:varchar(36);not null;default:'';uniqueIndex:uk_filter_parent_name,priority:1" json:"-"`
	Description   *string    `gorm:"type:text" json:"description,omitempty"`
	Requirements  *string    `gorm:"type:text" json:"requirements,omitempty"`
	AvgSalary     *string    `gorm:"type:varchar(100)" json:"avgSalary,omitempty"`
	RelevantExams *string    `gorm:"type:varchar(255)" json:"relevantExams,omitempty"`
	Image         *string    `gorm:"type:varchar(512)" json:"image,omitempty"`
	Likes         int        `gorm:"not null;default:0" json:"likes"`
	Comments      int        `gorm:"not null;default:0" json:"comments"`
	IsActive      bool       `gorm:"not null;index" json:"isActive"`
	CreatedBy     string     `gorm:"type:varchar(255);not null" json:"createdBy"`
	UpdatedBy     string     `gorm:"type:varchar(255);not null" json:"updatedBy"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定 GORM 使用的表名
func (FilterNode) TableName() string {
	return "filter_nodes"
}

// ParentKeyOf 把可选的父节点 ID 转成 parent_key 列的取值。
func ParentKeyOf(parentID *string) string {
	if parentID == nil {
		return ""
	}
	return *parentID
}

// FilterTreeNode 是分类树的响应节点。
// 与 FilterNode（数据库模型）的区别：
//   - 不含审计字段
//   - 增加了 Children 字段，用于嵌套子节点
type FilterTreeNode struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Type          FilterType        `json:"type"`
	ParentID      *string           `json:"parentId"`
	Description   *string           `json:"description,omitempty"`
	Requirements  *string           `json:"requirements,omitempty"`
	AvgSalary     *string           `json:"avgSalary,omitempty"`
	RelevantExams *string           `json:"relevantExams,omitempty"`
	Image         *string           `json:"image,omitempty"`
	Likes         int               `json:"likes"`
	Comments      int               `json:"comments"`
	IsActive      bool              `json:"isActive"`
	Children      []*FilterTreeNode `json:"children"`
}
