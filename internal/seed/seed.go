// Package seed 从嵌套 YAML 导入职业路径分类树。
// 所有节点都经由 FilterService.CreateNode 创建，层级规则和重名检查与管理接口完全一致。
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careerpath_go/internal/model"
	"careerpath_go/internal/service"
	"careerpath_go/pkg/log"

	"github.com/spf13/viper"
)

// Node 是种子文件中的一个节点。
type Node struct {
	Name          string `mapstructure:"name"`
	Type          string `mapstructure:"type"`
	Description   string `mapstructure:"description"`
	Requirements  string `mapstructure:"requirements"`
	AvgSalary     string `mapstructure:"avg_salary"`
	RelevantExams string `mapstructure:"relevant_exams"`
	Image         string `mapstructure:"image"`
	Children      []Node `mapstructure:"children"`
}

type file struct {
	Taxonomy []Node `mapstructure:"taxonomy"`
}

// Load 读取种子文件，格式由扩展名决定（yaml/json/toml 均可）。
func Load(path string) ([]Node, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return f.Taxonomy, nil
}

// Report 汇总一次导入的结果。
type Report struct {
	Created int
	Existed int
}

// Import 按深度优先顺序创建节点。同一父节点下已存在同名节点时复用它并继续导入子节点，
// 因此重复导入同一个文件是安全的。
func Import(ctx context.Context, svc service.FilterService, caller *model.User, nodes []Node) (Report, error) {
	var rep Report
	if err := importLevel(ctx, svc, caller, nil, nodes, &rep); err != nil {
		return rep, err
	}
	return rep, nil
}

func importLevel(ctx context.Context, svc service.FilterService, caller *model.User, parentID *string, nodes []Node, rep *Report) error {
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}

		id, err := svc.CreateNode(ctx, caller, service.CreateFilterInput{
			Name:          n.Name,
			Type:          n.Type,
			ParentID:      parentID,
			Description:   optional(n.Description),
			Requirements:  optional(n.Requirements),
			AvgSalary:     optional(n.AvgSalary),
			RelevantExams: optional(n.RelevantExams),
			Image:         optional(n.Image),
		})
		switch {
		case err == nil:
			rep.Created++
		case errors.Is(err, service.ErrFilterNameConflict):
			id, err = findSibling(ctx, svc, caller, parentID, n.Name)
			if err != nil {
				return err
			}
			rep.Existed++
		default:
			return fmt.Errorf("import %q (%s): %w", n.Name, n.Type, err)
		}

		if len(n.Children) > 0 {
			if err := importLevel(ctx, svc, caller, &id, n.Children, rep); err != nil {
				return err
			}
		}
	}
	return nil
}

func findSibling(ctx context.Context, svc service.FilterService, caller *model.User, parentID *string, name string) (string, error) {
	siblings, err := svc.ChildrenOf(ctx, caller, parentID)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	for _, s := range siblings {
		if s.Name == name {
			log.Infof("seed: %q already exists, reusing %s", name, s.ID)
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q reported as duplicate but not found", service.ErrInternal, name)
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
