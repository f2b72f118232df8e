package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"careerpath_go/internal/model"
	"careerpath_go/internal/service"
	applog "careerpath_go/pkg/log"
)

func TestMain(m *testing.M) {
	applog.Init("error", "console", "")
	os.Exit(m.Run())
}

// fakeFilterService 只实现导入用到的 CreateNode / ChildrenOf，重名按 (parent, name) 判断。
type fakeFilterService struct {
	service.FilterService
	nodes   []model.FilterNode
	failOn  string
	creates int
}

func (f *fakeFilterService) CreateNode(ctx context.Context, caller *model.User, in service.CreateFilterInput) (string, error) {
	if in.Name == f.failOn {
		return "", fmt.Errorf("%w: a role cannot be a root node", service.ErrInvalidInput)
	}
	key := model.ParentKeyOf(in.ParentID)
	for _, n := range f.nodes {
		if model.ParentKeyOf(n.ParentID) == key && n.Name == in.Name {
			return "", service.ErrFilterNameConflict
		}
	}
	f.creates++
	id := fmt.Sprintf("n%d", f.creates)
	f.nodes = append(f.nodes, model.FilterNode{ID: id, Name: in.Name, Type: model.FilterType(in.Type), ParentID: in.ParentID, AvgSalary: in.AvgSalary})
	return id, nil
}

func (f *fakeFilterService) ChildrenOf(ctx context.Context, caller *model.User, parentID *string) ([]model.FilterNode, error) {
	key := model.ParentKeyOf(parentID)
	out := []model.FilterNode{}
	for _, n := range f.nodes {
		if model.ParentKeyOf(n.ParentID) == key {
			out = append(out, n)
		}
	}
	return out, nil
}

var admin = &model.User{ID: 1, Username: "seeder", Role: model.RoleAdmin}

func TestLoad_SampleFile(t *testing.T) {
	nodes, err := Load(filepath.Join("..", "..", "configs", "taxonomy.sample.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(nodes) != 2 || nodes[0].Name != "Graduation" || nodes[0].Type != "qualification" {
		t.Fatalf("unexpected roots: %+v", nodes)
	}
	role := nodes[0].Children[0].Children[0].Children[0].Children[0].Children[0]
	if role.Name != "React Developer" || role.AvgSalary != "6-12 LPA" {
		t.Fatalf("unexpected leaf: %+v", role)
	}
}

func TestImport_CreatesTreeAndIsIdempotent(t *testing.T) {
	nodes, err := Load(filepath.Join("..", "..", "configs", "taxonomy.sample.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	svc := &fakeFilterService{}

	rep, err := Import(context.Background(), svc, admin, nodes)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if rep.Created != 13 || rep.Existed != 0 {
		t.Fatalf("unexpected first report: %+v", rep)
	}

	// 两个 "Government Jobs" 挂在不同父节点下，都要创建
	gov := 0
	for _, n := range svc.nodes {
		if n.Name == "Government Jobs" {
			gov++
		}
	}
	if gov != 2 {
		t.Fatalf("expect 2 Government Jobs nodes, got %d", gov)
	}

	rep, err = Import(context.Background(), svc, admin, nodes)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if rep.Created != 0 || rep.Existed != 13 {
		t.Fatalf("second import should reuse everything, got %+v", rep)
	}
}

func TestImport_StopsOnInvalidNode(t *testing.T) {
	svc := &fakeFilterService{failOn: "Bad"}
	nodes := []Node{{Name: "Bad", Type: "role"}, {Name: "Later", Type: "qualification"}}

	_, err := Import(context.Background(), svc, admin, nodes)
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expect ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), `"Bad"`) {
		t.Fatalf("error should name the node, got %v", err)
	}
	if svc.creates != 0 {
		t.Fatalf("nodes after the failure must not be created")
	}
}
