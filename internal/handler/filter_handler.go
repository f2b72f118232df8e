package handler

import (
	"net/http"
	"strings"

	"careerpath_go/internal/model"
	"careerpath_go/internal/service"
	"careerpath_go/internal/taxonomy"

	"github.com/gin-gonic/gin"
)

// FilterHandler 负责职业路径分类树接口。
// 管理员路由和普通路由共用同一个 Handler，访问控制由路由组上的中间件和服务层共同保证。
type FilterHandler struct {
	filterService service.FilterService
	resolver      service.DescendantResolver
}

func NewFilterHandler(filterService service.FilterService, resolver service.DescendantResolver) *FilterHandler {
	return &FilterHandler{filterService: filterService, resolver: resolver}
}

// CreateFilterRequest 是创建节点的请求体。parentId 缺省或为空表示创建根节点。
type CreateFilterRequest struct {
	Name          string  `json:"name" binding:"required"`
	Type          string  `json:"type" binding:"required,filtertype"`
	ParentID      *string `json:"parentId"`
	Description   *string `json:"description"`
	Requirements  *string `json:"requirements"`
	AvgSalary     *string `json:"avgSalary"`
	RelevantExams *string `json:"relevantExams"`
	Image         *string `json:"image"`
}

// UpdateFilterRequest 只包含可修改字段；type 和 parentId 不可修改，传了也会被忽略。
type UpdateFilterRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Requirements  *string `json:"requirements"`
	AvgSalary     *string `json:"avgSalary"`
	RelevantExams *string `json:"relevantExams"`
	Image         *string `json:"image"`
}

// ToggleActiveRequest 用指针区分 "未传" 和 false。
type ToggleActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// ListAll 管理员查看全部节点（含停用）。
func (h *FilterHandler) ListAll(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	nodes, err := h.filterService.AllIncludingInactive(c.Request.Context(), user)
	if err != nil {
		respondError(c, "FilterHandler.ListAll", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Filters retrieved successfully",
		"data":    nodes,
	})
}

// ListActive 返回全部启用节点的平铺列表，供客户端自行建树。
func (h *FilterHandler) ListActive(c *gin.Context) {
	nodes, err := h.filterService.AllActive(c.Request.Context())
	if err != nil {
		respondError(c, "FilterHandler.ListActive", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Filter options retrieved successfully",
		"data":    nodes,
	})
}

// Children 返回 parentId 的直接子节点；不传 parentId 时返回根节点。
func (h *FilterHandler) Children(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	var parentID *string
	if raw, exists := c.GetQuery("parentId"); exists && strings.TrimSpace(raw) != "" {
		parentID = &raw
	}

	nodes, err := h.filterService.ChildrenOf(c.Request.Context(), user, parentID)
	if err != nil {
		respondError(c, "FilterHandler.Children", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Filter children retrieved successfully",
		"data":    nodes,
	})
}

// Tree 返回启用节点组成的树，q 非空时按名称或类型裁剪并展开全部节点。
func (h *FilterHandler) Tree(c *gin.Context) {
	h.tree(c, false)
}

// AdminTree 同 Tree，但包含停用节点，仅管理员可用。
func (h *FilterHandler) AdminTree(c *gin.Context) {
	h.tree(c, true)
}

func (h *FilterHandler) tree(c *gin.Context, includeInactive bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	tree, err := h.filterService.Tree(c.Request.Context(), user, c.Query("q"), includeInactive)
	if err != nil {
		respondError(c, "FilterHandler.Tree", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Filter tree retrieved successfully",
		"data":    tree,
	})
}

// Get 返回单个节点。
func (h *FilterHandler) Get(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	node, err := h.filterService.FindByID(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, "FilterHandler.Get", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Filter retrieved successfully",
		"data":    node,
	})
}

// Descendants 返回节点及其全部启用后代的 ID。
func (h *FilterHandler) Descendants(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	ids, err := h.resolver.ExpandWithDescendants(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, "FilterHandler.Descendants", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Descendants resolved successfully",
		"data": gin.H{
			"id":            ids[0],
			"descendantIds": ids[1:],
			"expandedIds":   ids,
		},
	})
}

// Create 创建节点，返回新节点 ID。
func (h *FilterHandler) Create(c *gin.Context) {
	var req CreateFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	id, err := h.filterService.CreateNode(c.Request.Context(), user, service.CreateFilterInput{
		Name:          req.Name,
		Type:          req.Type,
		ParentID:      req.ParentID,
		Description:   req.Description,
		Requirements:  req.Requirements,
		AvgSalary:     req.AvgSalary,
		RelevantExams: req.RelevantExams,
		Image:         req.Image,
	})
	if err != nil {
		respondError(c, "FilterHandler.Create", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Filter created successfully",
		"data":    gin.H{"id": id},
	})
}

// Update 局部更新节点。
func (h *FilterHandler) Update(c *gin.Context) {
	var req UpdateFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	node, err := h.filterService.UpdateNode(c.Request.Context(), user, c.Param("id"), service.UpdateFilterInput{
		Name:          req.Name,
		Description:   req.Description,
		Requirements:  req.Requirements,
		AvgSalary:     req.AvgSalary,
		RelevantExams: req.RelevantExams,
		Image:         req.Image,
	})
	if err != nil {
		respondError(c, "FilterHandler.Update", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Filter updated successfully",
		"data":    node,
	})
}

// ToggleActive 启用或停用节点。停用会级联到全部后代，启用只作用于当前节点。
func (h *FilterHandler) ToggleActive(c *gin.Context) {
	var req ToggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	result, err := h.filterService.ToggleActive(c.Request.Context(), user, c.Param("id"), *req.IsActive)
	if err != nil {
		respondError(c, "FilterHandler.ToggleActive", err)
		return
	}

	message := "Filter activated successfully"
	if !result.IsActive {
		message = "Filter and its descendants deactivated successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": message,
		"data":    result,
	})
}

// filterTypesResponse 列出合法类型和各自允许的子类型，供管理端渲染 "添加子节点" 菜单。
type filterTypesResponse struct {
	Type       model.FilterType   `json:"type"`
	Level      int                `json:"level"`
	ChildTypes []model.FilterType `json:"childTypes"`
	CanBeRoot  bool               `json:"canBeRoot"`
}

// Types 返回层级类型表，不需要登录态之外的任何数据。
func (h *FilterHandler) Types(c *gin.Context) {
	types := make([]filterTypesResponse, 0, len(model.FilterTypes))
	for _, t := range model.FilterTypes {
		types = append(types, filterTypesResponse{
			Type:       t,
			Level:      taxonomy.Level(t),
			ChildTypes: taxonomy.LegalChildTypes(t),
			CanBeRoot:  taxonomy.IsValidRootType(t),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Filter types retrieved successfully",
		"data":    types,
	})
}
