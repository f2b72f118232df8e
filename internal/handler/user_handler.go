package handler

import (
	"net/http"
	"time"

	"careerpath_go/internal/service"
	"careerpath_go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责注册、登录、登出和个人信息接口。
// 管理员身份只能通过命令行授予，这里没有修改角色的接口。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建 UserHandler。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest 是注册接口请求体。
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest 是登录接口请求体。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProfileResponse 是个人信息接口响应结构，isAdmin 供前端决定是否展示管理入口。
type ProfileResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Register 处理用户注册请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: failed to bind request: %v", err)
		respondBadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, "Register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "User registered successfully",
		"data":    user,
	})
}

// Login 处理登录请求并返回 access/refresh token。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: failed to bind request: %v", err)
		respondBadRequest(c, "Invalid request body")
		return
	}

	accessToken, refreshToken, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, "Login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Login successful",
		"data": gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
	})
}

// GetProfile 返回当前登录用户信息。
// 用户对象由 AuthMiddleware 注入到上下文中。
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Profile retrieved successfully",
		"data": ProfileResponse{
			ID:        user.ID,
			Username:  user.Username,
			Role:      user.Role,
			IsAdmin:   user.IsAdmin(),
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
	})
}

// Logout 把当前 access token 加入黑名单。
func (h *UserHandler) Logout(c *gin.Context) {
	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		log.Warnf("Logout: invalid authorization header: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "Invalid authorization header",
		})
		return
	}

	if err := h.userService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, "Logout", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Logout successful",
	})
}
