package taxonomy

import (
	"slices"
	"strings"
	"sync"

	"careerpath_go/internal/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Node 是通用树节点。后台和移动端共用同一套构建逻辑，只是 T 不同。
type Node[T any] struct {
	Item     T
	Children []*Node[T]
}

// Accessor 描述如何从 T 中取出构建树所需的字段。
type Accessor[T any] struct {
	ID       func(T) string
	ParentID func(T) *string
	Name     func(T) string
	Type     func(T) string
}

// FilterNodeAccessor 是 model.FilterNode 的 Accessor。
var FilterNodeAccessor = Accessor[model.FilterNode]{
	ID:       func(n model.FilterNode) string { return n.ID },
	ParentID: func(n model.FilterNode) *string { return n.ParentID },
	Name:     func(n model.FilterNode) string { return n.Name },
	Type:     func(n model.FilterNode) string { return string(n.Type) },
}

// NameComparer 返回按 locale 排序的比较函数。collate.Collator 不是并发安全的，这里加锁后可共享。
func NameComparer(locale string) func(a, b string) int {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	c := collate.New(tag)
	var mu sync.Mutex
	return func(a, b string) int {
		mu.Lock()
		defer mu.Unlock()
		return c.CompareString(a, b)
	}
}

// SortByName 对平铺列表做稳定的按名称排序。
func SortByName[T any](items []T, name func(T) string, cmp func(a, b string) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp(name(a), name(b))
	})
}

// Build 把平铺节点列表构建为树。
// 实现采用两遍扫描：
// 1. 第一遍创建所有节点并放入 map（id -> node）
// 2. 第二遍按 parent 关系把子节点挂到父节点上
// 最后递归地按名称排序每一层 children。父节点不存在的孤儿节点作为根节点返回，避免节点丢失；
// parent 成环的节点从任何根都不可达，在环上断开一处，把断点提升为根节点。
func Build[T any](items []T, acc Accessor[T], cmp func(a, b string) int) []*Node[T] {
	nodes := make(map[string]*Node[T], len(items))
	for _, item := range items {
		nodes[acc.ID(item)] = &Node[T]{Item: item, Children: []*Node[T]{}}
	}

	roots := make([]*Node[T], 0)
	parentOf := make(map[*Node[T]]*Node[T], len(items))
	for _, item := range items {
		node := nodes[acc.ID(item)]
		if pid := acc.ParentID(item); pid != nil && *pid != "" {
			if parent, ok := nodes[*pid]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				parentOf[node] = parent
				continue
			}
		}
		roots = append(roots, node)
	}

	reached := make(map[*Node[T]]bool, len(nodes))
	var mark func(n *Node[T])
	mark = func(n *Node[T]) {
		if reached[n] {
			return
		}
		reached[n] = true
		for _, c := range n.Children {
			mark(c)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	for _, item := range items {
		node := nodes[acc.ID(item)]
		if reached[node] {
			continue
		}
		cut := cycleMember(node, parentOf)
		parent := parentOf[cut]
		parent.Children = slices.DeleteFunc(parent.Children, func(c *Node[T]) bool { return c == cut })
		delete(parentOf, cut)
		roots = append(roots, cut)
		mark(cut)
	}

	sortTree(roots, acc, cmp)
	return roots
}

// cycleMember 沿 parent 向上走，返回第一个重复出现的节点，它一定在环上。
// 调用方保证 n 不可达，因此链上每个节点都有父节点。
func cycleMember[T any](n *Node[T], parentOf map[*Node[T]]*Node[T]) *Node[T] {
	seen := make(map[*Node[T]]bool)
	for !seen[n] {
		seen[n] = true
		n = parentOf[n]
	}
	return n
}

func sortTree[T any](level []*Node[T], acc Accessor[T], cmp func(a, b string) int) {
	slices.SortStableFunc(level, func(a, b *Node[T]) int {
		return cmp(acc.Name(a.Item), acc.Name(b.Item))
	})
	for _, n := range level {
		sortTree(n.Children, acc, cmp)
	}
}

// Entry 是 Flatten 的输出：节点本身、它在树中的父节点 ID（根为空串）以及深度。
type Entry[T any] struct {
	Item   T
	Parent string
	Depth  int
}

// Flatten 以先序遍历把树还原为平铺列表。
func Flatten[T any](roots []*Node[T], acc Accessor[T]) []Entry[T] {
	out := make([]Entry[T], 0)
	var walk func(level []*Node[T], parent string, depth int)
	walk = func(level []*Node[T], parent string, depth int) {
		for _, n := range level {
			out = append(out, Entry[T]{Item: n.Item, Parent: parent, Depth: depth})
			walk(n.Children, acc.ID(n.Item), depth+1)
		}
	}
	walk(roots, "", 0)
	return out
}

// IDs 返回树中全部节点的 ID（先序）。
func IDs[T any](roots []*Node[T], acc Accessor[T]) []string {
	entries := Flatten(roots, acc)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, acc.ID(e.Item))
	}
	return ids
}

// Prune 按 match 自底向上裁剪树：节点自身匹配，或至少一个后代匹配时保留。
// 返回新树，不修改入参。
func Prune[T any](roots []*Node[T], match func(T) bool) []*Node[T] {
	out := make([]*Node[T], 0)
	for _, n := range roots {
		children := Prune(n.Children, match)
		if len(children) > 0 || match(n.Item) {
			out = append(out, &Node[T]{Item: n.Item, Children: children})
		}
	}
	return out
}

// QueryMatcher 构造大小写不敏感的子串匹配函数，匹配名称或类型。
// 空查询匹配一切。
func QueryMatcher[T any](query string, acc Accessor[T]) func(T) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(item T) bool {
		if q == "" {
			return true
		}
		if strings.Contains(strings.ToLower(acc.Name(item)), q) {
			return true
		}
		return acc.Type != nil && strings.Contains(strings.ToLower(acc.Type(item)), q)
	}
}

// ToFilterTree 把通用树转换为响应结构。
func ToFilterTree(roots []*Node[model.FilterNode]) []*model.FilterTreeNode {
	out := make([]*model.FilterTreeNode, 0, len(roots))
	for _, n := range roots {
		f := n.Item
		out = append(out, &model.FilterTreeNode{
			ID:            f.ID,
			Name:          f.Name,
			Type:          f.Type,
			ParentID:      f.ParentID,
			Description:   f.Description,
			Requirements:  f.Requirements,
			AvgSalary:     f.AvgSalary,
			RelevantExams: f.RelevantExams,
			Image:         f.Image,
			Likes:         f.Likes,
			Comments:      f.Comments,
			IsActive:      f.IsActive,
			Children:      ToFilterTree(n.Children),
		})
	}
	return out
}
