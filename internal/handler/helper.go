package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"careerpath_go/internal/model"
	"careerpath_go/internal/service"
	"careerpath_go/pkg/log"

	"github.com/gin-gonic/gin"
)

// mapServiceError 把 Service 层哨兵错误转换为 HTTP 状态码和对外消息。
// 校验错误原样返回，消息里带有具体的非法组合（例如 "a sector cannot be created under a qualification"）。
func mapServiceError(err error) (httpStatus int, message string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthenticated"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden: Only admin can access this resource"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrFilterNotFound):
		return http.StatusNotFound, "Filter node not found"
	case errors.Is(err, service.ErrFilterNameConflict):
		return http.StatusConflict, "A filter node with this name already exists under the same parent"
	case errors.Is(err, service.ErrPostNotFound):
		return http.StatusNotFound, "Post not found"
	case errors.Is(err, service.ErrTaxonomyTooDeep):
		return http.StatusInternalServerError, "Taxonomy data is inconsistent"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respondError 记录并写出服务层错误。5xx 记 error 级别，其余记 warn。
func respondError(c *gin.Context, scope string, err error) {
	status, msg := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s: %v", scope, err)
	} else {
		log.Warnf("%s: %v", scope, err)
	}
	c.JSON(status, gin.H{
		"code":    status,
		"message": msg,
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    http.StatusBadRequest,
		"message": message,
	})
}

// extractBearerToken 从 Authorization 请求头提取 Bearer Token。
func extractBearerToken(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}

// getUserFromContext 从 Gin 上下文中读取 AuthMiddleware 注入的用户对象。
// 上下文异常时直接写错误响应并返回 false，调用方只需 `if !ok { return }`。
func getUserFromContext(c *gin.Context) (*model.User, bool) {
	userVal, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "User not found in context",
		})
		return nil, false
	}

	user, ok := userVal.(*model.User)
	if !ok || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to get user profile",
		})
		return nil, false
	}
	return user, true
}

// queryLimit 解析 ?limit=，缺省或非法时返回 0，由服务层套用默认上限。
func queryLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
