// Package taxonomy 包含职业路径分类树的纯逻辑：层级规则、树构建、搜索裁剪和界面状态。
// 这里不做任何 I/O，所有函数都可以脱离数据库和 HTTP 单独测试。
package taxonomy

import (
	"careerpath_go/internal/model"
)

// childTypeOf 是固定的父类型 -> 子类型表。role 是叶子，不在表中。
var childTypeOf = map[model.FilterType]model.FilterType{
	model.FilterTypeQualification: model.FilterTypeCategory,
	model.FilterTypeCategory:      model.FilterTypeSector,
	model.FilterTypeSector:        model.FilterTypeSubSector,
	model.FilterTypeSubSector:     model.FilterTypeBranch,
	model.FilterTypeBranch:        model.FilterTypeRole,
}

// LegalChildTypes 返回 parent 类型下允许创建的子节点类型；叶子类型或未知类型返回空切片。
func LegalChildTypes(parent model.FilterType) []model.FilterType {
	child, ok := childTypeOf[parent]
	if !ok {
		return []model.FilterType{}
	}
	return []model.FilterType{child}
}

// CanParent 判断 child 类型能否挂在 parent 类型之下。
func CanParent(parent, child model.FilterType) bool {
	for _, t := range LegalChildTypes(parent) {
		if t == child {
			return true
		}
	}
	return false
}

// IsValidRootType 只有 qualification 可以作为根节点。
func IsValidRootType(t model.FilterType) bool {
	return t == model.FilterTypeQualification
}

// IsLeafType 判断类型是否不能再有子节点。
func IsLeafType(t model.FilterType) bool {
	return IsKnownType(t) && len(LegalChildTypes(t)) == 0
}

// IsKnownType 判断是否属于六种合法类型之一。
func IsKnownType(t model.FilterType) bool {
	return Level(t) >= 0
}

// Level 返回类型在层级中的序号（qualification 为 0），未知类型返回 -1。
func Level(t model.FilterType) int {
	for i, known := range model.FilterTypes {
		if known == t {
			return i
		}
	}
	return -1
}

// ParseFilterType 把外部输入的字符串解析为 FilterType，大小写必须完全一致。
func ParseFilterType(raw string) (model.FilterType, bool) {
	t := model.FilterType(raw)
	return t, IsKnownType(t)
}
