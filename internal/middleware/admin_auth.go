package middleware

import (
	"errors"
	"net/http"

	"careerpath_go/internal/model"
	"careerpath_go/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware 在路由层拦截非管理员，必须挂在 AuthMiddleware 之后。
// 服务层的写操作仍会再次校验管理员声明，这里只是让 /admin 路由组尽早失败。
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get("user")
		if !exists {
			abortWith(c, http.StatusUnauthorized, "User not found in context")
			return
		}
		user, ok := userVal.(*model.User)
		if !ok {
			abortWith(c, http.StatusInternalServerError, "Failed to get user profile")
			return
		}

		if _, err := service.RequireAdmin(user); err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				abortWith(c, http.StatusUnauthorized, "Unauthenticated")
				return
			}
			abortWith(c, http.StatusForbidden, "Forbidden: Only admin can access this resource")
			return
		}
		c.Next()
	}
}
