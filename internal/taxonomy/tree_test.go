package taxonomy

import (
	"testing"

	"careerpath_go/internal/model"

	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string {
	return &v
}

func fnode(id, name string, ft model.FilterType, parent *string) model.FilterNode {
	return model.FilterNode{ID: id, Name: name, Type: ft, ParentID: parent, IsActive: true}
}

var enCmp = NameComparer("en")

func TestBuild_Chain(t *testing.T) {
	items := []model.FilterNode{
		fnode("c", "C", model.FilterTypeSector, strPtr("b")),
		fnode("a", "A", model.FilterTypeQualification, nil),
		fnode("b", "B", model.FilterTypeCategory, strPtr("a")),
	}

	roots := Build(items, FilterNodeAccessor, enCmp)
	require.Len(t, roots, 1)
	require.Equal(t, "a", roots[0].Item.ID)
	require.Len(t, roots[0].Children, 1)
	require.Equal(t, "b", roots[0].Children[0].Item.ID)
	require.Len(t, roots[0].Children[0].Children, 1)
	require.Equal(t, "c", roots[0].Children[0].Children[0].Item.ID)
	require.Empty(t, roots[0].Children[0].Children[0].Children)
}

// 构建后再先序展开，节点集合和父子关系都应保持不变。
func TestBuild_FlattenRoundTrip(t *testing.T) {
	items := []model.FilterNode{
		fnode("grad", "Graduation", model.FilterTypeQualification, nil),
		fnode("school", "Class 12", model.FilterTypeQualification, nil),
		fnode("gov", "Government Jobs", model.FilterTypeCategory, strPtr("grad")),
		fnode("it", "IT & Software", model.FilterTypeCategory, strPtr("grad")),
		fnode("web", "Web", model.FilterTypeSector, strPtr("it")),
		fnode("fe", "Frontend", model.FilterTypeSubSector, strPtr("web")),
		fnode("react", "React Developer", model.FilterTypeBranch, strPtr("fe")),
	}

	roots := Build(items, FilterNodeAccessor, enCmp)
	entries := Flatten(roots, FilterNodeAccessor)
	require.Len(t, entries, len(items))

	got := make(map[string]string, len(entries))
	for _, e := range entries {
		got[e.Item.ID] = e.Parent
	}
	for _, item := range items {
		require.Contains(t, got, item.ID)
		require.Equal(t, model.ParentKeyOf(item.ParentID), got[item.ID], item.ID)
	}
}

func TestBuild_SortsEachLevelByName(t *testing.T) {
	items := []model.FilterNode{
		fnode("r", "Root", model.FilterTypeQualification, nil),
		fnode("z", "zoology", model.FilterTypeCategory, strPtr("r")),
		fnode("b", "Banking", model.FilterTypeCategory, strPtr("r")),
		fnode("a", "arts", model.FilterTypeCategory, strPtr("r")),
		fnode("e", "Égyptologie", model.FilterTypeCategory, strPtr("r")),
	}

	roots := Build(items, FilterNodeAccessor, enCmp)
	var names []string
	for _, c := range roots[0].Children {
		names = append(names, c.Item.Name)
	}
	require.Equal(t, []string{"arts", "Banking", "Égyptologie", "zoology"}, names)
}

func TestBuild_OrphanKeptAsRoot(t *testing.T) {
	items := []model.FilterNode{
		fnode("root", "Root", model.FilterTypeQualification, nil),
		fnode("orphan", "Orphan", model.FilterTypeCategory, strPtr("missing")),
	}
	roots := Build(items, FilterNodeAccessor, enCmp)
	require.Len(t, roots, 2)
	require.Equal(t, "orphan", roots[0].Item.ID)
}

// 绕过校验写入的 parent 环不能让节点从树里消失。
func TestBuild_ParentCycleKept(t *testing.T) {
	items := []model.FilterNode{
		fnode("a", "A", model.FilterTypeCategory, strPtr("b")),
		fnode("b", "B", model.FilterTypeSector, strPtr("a")),
		fnode("c", "C", model.FilterTypeSubSector, strPtr("b")),
		fnode("root", "Root", model.FilterTypeQualification, nil),
		fnode("self", "Self", model.FilterTypeCategory, strPtr("self")),
	}
	roots := Build(items, FilterNodeAccessor, enCmp)

	ids := IDs(roots, FilterNodeAccessor)
	require.ElementsMatch(t, []string{"a", "b", "c", "root", "self"}, ids)
	require.Len(t, ids, 5)

	require.Len(t, roots, 3)
	require.Equal(t, "a", roots[0].Item.ID)
	require.Len(t, roots[0].Children, 1)
	require.Equal(t, "b", roots[0].Children[0].Item.ID)
	require.Len(t, roots[0].Children[0].Children, 1)
	require.Equal(t, "c", roots[0].Children[0].Children[0].Item.ID)
}

func TestBuild_Empty(t *testing.T) {
	roots := Build([]model.FilterNode{}, FilterNodeAccessor, enCmp)
	require.NotNil(t, roots)
	require.Empty(t, roots)
	require.NotNil(t, ToFilterTree(roots))
}

// 只有叶子 "React Developer" 匹配时，保留完整祖先链并裁掉每一层的无关兄弟。
func TestPrune_KeepsAncestorChain(t *testing.T) {
	items := []model.FilterNode{
		fnode("grad", "Graduation", model.FilterTypeQualification, nil),
		fnode("it", "IT & Software", model.FilterTypeCategory, strPtr("grad")),
		fnode("gov", "Government Jobs", model.FilterTypeCategory, strPtr("grad")),
		fnode("web", "Web", model.FilterTypeSector, strPtr("it")),
		fnode("data", "Data", model.FilterTypeSector, strPtr("it")),
		fnode("react", "React Developer", model.FilterTypeSubSector, strPtr("web")),
		fnode("vue", "Vue Developer", model.FilterTypeSubSector, strPtr("web")),
		fnode("school", "Class 12", model.FilterTypeQualification, nil),
	}
	roots := Build(items, FilterNodeAccessor, enCmp)

	pruned := Prune(roots, QueryMatcher("react", FilterNodeAccessor))
	require.Len(t, pruned, 1)
	require.Equal(t, "grad", pruned[0].Item.ID)
	require.Len(t, pruned[0].Children, 1)
	require.Equal(t, "it", pruned[0].Children[0].Item.ID)
	require.Len(t, pruned[0].Children[0].Children, 1)
	require.Equal(t, "web", pruned[0].Children[0].Children[0].Item.ID)
	leaf := pruned[0].Children[0].Children[0].Children
	require.Len(t, leaf, 1)
	require.Equal(t, "react", leaf[0].Item.ID)

	// 原树未被修改
	require.Len(t, roots, 2)
}

// 节点出现在裁剪结果中，当且仅当它或某个后代匹配。
func TestPrune_Property(t *testing.T) {
	items := []model.FilterNode{
		fnode("q", "Graduation", model.FilterTypeQualification, nil),
		fnode("c1", "Engineering", model.FilterTypeCategory, strPtr("q")),
		fnode("c2", "Medical", model.FilterTypeCategory, strPtr("q")),
		fnode("s1", "Civil", model.FilterTypeSector, strPtr("c1")),
		fnode("s2", "Software", model.FilterTypeSector, strPtr("c1")),
		fnode("s3", "Nursing", model.FilterTypeSector, strPtr("c2")),
	}
	roots := Build(items, FilterNodeAccessor, enCmp)
	children := map[string][]string{}
	for _, it := range items {
		children[model.ParentKeyOf(it.ParentID)] = append(children[model.ParentKeyOf(it.ParentID)], it.ID)
	}
	byID := map[string]model.FilterNode{}
	for _, it := range items {
		byID[it.ID] = it
	}

	for _, query := range []string{"soft", "SECTOR", "medical", "gradu", "nothing", "category"} {
		match := QueryMatcher(query, FilterNodeAccessor)
		var survives func(id string) bool
		survives = func(id string) bool {
			if match(byID[id]) {
				return true
			}
			for _, c := range children[id] {
				if survives(c) {
					return true
				}
			}
			return false
		}

		kept := map[string]bool{}
		for _, id := range IDs(Prune(roots, match), FilterNodeAccessor) {
			kept[id] = true
		}
		for _, it := range items {
			require.Equal(t, survives(it.ID), kept[it.ID], "query=%q id=%s", query, it.ID)
		}
	}
}

func TestQueryMatcher_TypeAndBlank(t *testing.T) {
	n := fnode("x", "Pilot", model.FilterTypeSubSector, nil)
	require.True(t, QueryMatcher("subsector", FilterNodeAccessor)(n))
	require.True(t, QueryMatcher("  ", FilterNodeAccessor)(n))
	require.False(t, QueryMatcher("doctor", FilterNodeAccessor)(n))
}

func TestToFilterTree(t *testing.T) {
	items := []model.FilterNode{
		fnode("a", "A", model.FilterTypeQualification, nil),
		fnode("b", "B", model.FilterTypeCategory, strPtr("a")),
	}
	items[1].IsActive = false
	tree := ToFilterTree(Build(items, FilterNodeAccessor, enCmp))
	require.Len(t, tree, 1)
	require.True(t, tree[0].IsActive)
	require.Len(t, tree[0].Children, 1)
	require.False(t, tree[0].Children[0].IsActive)
	require.NotNil(t, tree[0].Children[0].Children)
}
