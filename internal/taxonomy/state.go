package taxonomy

import (
	"sort"
	"strings"
)

// ExpandState 记录展开的节点 ID，与树的形状无关。
type ExpandState struct {
	expanded map[string]struct{}
}

func NewExpandState() *ExpandState {
	return &ExpandState{expanded: make(map[string]struct{})}
}

// Toggle 翻转节点的展开状态，返回翻转后的状态。
func (s *ExpandState) Toggle(id string) bool {
	if _, ok := s.expanded[id]; ok {
		delete(s.expanded, id)
		return false
	}
	s.expanded[id] = struct{}{}
	return true
}

func (s *ExpandState) IsExpanded(id string) bool {
	_, ok := s.expanded[id]
	return ok
}

// ApplySearch 在查询非空时用当前全量节点重新推导展开集合（全部展开），
// 查询为空时保持原状态不变。
func (s *ExpandState) ApplySearch(query string, allIDs []string) {
	if strings.TrimSpace(query) == "" {
		return
	}
	s.expanded = make(map[string]struct{}, len(allIDs))
	for _, id := range allIDs {
		s.expanded[id] = struct{}{}
	}
}

// IDs 返回排序后的展开 ID 列表。
func (s *ExpandState) IDs() []string {
	ids := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Selection 是多选集合，用于把帖子关联到分类节点。
// max <= 0 表示不限数量；超过上限的 Add 是空操作而不是错误。
type Selection struct {
	max   int
	order []string
	set   map[string]struct{}
}

func NewSelection(max int) *Selection {
	return &Selection{max: max, set: make(map[string]struct{})}
}

// Add 选中 id，返回是否真正加入。
func (s *Selection) Add(id string) bool {
	if _, ok := s.set[id]; ok {
		return false
	}
	if s.max > 0 && len(s.order) >= s.max {
		return false
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *Selection) Remove(id string) {
	if _, ok := s.set[id]; !ok {
		return
	}
	delete(s.set, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Toggle 已选则取消，未选则尝试选中；返回操作后是否处于选中状态。
func (s *Selection) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	return s.Add(id)
}

func (s *Selection) Has(id string) bool {
	_, ok := s.set[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.order)
}

// IDs 按选中顺序返回。
func (s *Selection) IDs() []string {
	return append([]string(nil), s.order...)
}
