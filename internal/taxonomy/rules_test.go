package taxonomy

import (
	"testing"

	"careerpath_go/internal/model"

	"github.com/stretchr/testify/require"
)

func TestLegalChildTypes(t *testing.T) {
	cases := []struct {
		parent model.FilterType
		want   []model.FilterType
	}{
		{model.FilterTypeQualification, []model.FilterType{model.FilterTypeCategory}},
		{model.FilterTypeCategory, []model.FilterType{model.FilterTypeSector}},
		{model.FilterTypeSector, []model.FilterType{model.FilterTypeSubSector}},
		{model.FilterTypeSubSector, []model.FilterType{model.FilterTypeBranch}},
		{model.FilterTypeBranch, []model.FilterType{model.FilterTypeRole}},
		{model.FilterTypeRole, []model.FilterType{}},
		{model.FilterType("unknown"), []model.FilterType{}},
	}
	for _, tc := range cases {
		t.Run(string(tc.parent), func(t *testing.T) {
			require.Equal(t, tc.want, LegalChildTypes(tc.parent))
		})
	}
}

// 每个类型的合法子类型恰好是层级中的下一个。
func TestLegalChildTypes_FollowOrder(t *testing.T) {
	for i, parent := range model.FilterTypes {
		for j, child := range model.FilterTypes {
			require.Equal(t, j == i+1, CanParent(parent, child), "%s -> %s", parent, child)
		}
	}
}

func TestIsValidRootType(t *testing.T) {
	for _, ft := range model.FilterTypes {
		require.Equal(t, ft == model.FilterTypeQualification, IsValidRootType(ft), ft)
	}
	require.False(t, IsValidRootType("Qualification"))
}

func TestParseFilterType(t *testing.T) {
	ft, ok := ParseFilterType("subSector")
	require.True(t, ok)
	require.Equal(t, model.FilterTypeSubSector, ft)

	_, ok = ParseFilterType("subsector")
	require.False(t, ok)

	require.True(t, IsLeafType(model.FilterTypeRole))
	require.False(t, IsLeafType(model.FilterTypeBranch))
	require.False(t, IsLeafType("bogus"))
}
