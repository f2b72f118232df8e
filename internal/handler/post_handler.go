package handler

import (
	"net/http"

	"careerpath_go/internal/service"

	"github.com/gin-gonic/gin"
)

// PostHandler 负责社区帖子接口，以及按分类节点筛选帖子。
type PostHandler struct {
	postService service.PostService
}

func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// CreatePostRequest 是发帖请求体。filterIds 超过上限的部分会被服务层忽略。
type CreatePostRequest struct {
	Title     string   `json:"title" binding:"required"`
	Content   string   `json:"content" binding:"required"`
	Image     *string  `json:"image"`
	FilterIDs []string `json:"filterIds"`
}

// Create 管理员发帖。
func (h *PostHandler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), user, service.CreatePostInput{
		Title:     req.Title,
		Content:   req.Content,
		Image:     req.Image,
		FilterIDs: req.FilterIDs,
	})
	if err != nil {
		respondError(c, "PostHandler.Create", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Post created successfully",
		"data":    post,
	})
}

func (h *PostHandler) Delete(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, "PostHandler.Delete", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Post deleted successfully",
	})
}

func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.postService.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "PostHandler.Get", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Post retrieved successfully",
		"data":    post,
	})
}

// ForFilter 返回关联到节点或其任一启用后代的帖子。
func (h *PostHandler) ForFilter(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		respondBadRequest(c, "Invalid limit parameter")
		return
	}

	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	posts, err := h.postService.PostsForFilter(c.Request.Context(), user, c.Param("id"), limit)
	if err != nil {
		respondError(c, "PostHandler.ForFilter", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Posts retrieved successfully",
		"data":    posts,
	})
}
