package middleware

import (
	"errors"
	"net/http"
	"strings"

	"careerpath_go/internal/service"
	"careerpath_go/pkg/log"
	"careerpath_go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 是 JWT 认证中间件，用于保护需要登录才能访问的接口。
// 工作流程：
//  1. 从请求头 Authorization 中提取 Bearer Token（WebSocket 握手时也接受 ?token=）
//  2. 验证签名、有效期和签发方，且必须是 access token
//  3. 检查 token 是否在黑名单中（已登出 token 不再可用）
//  4. 根据 Token 中的用户名重新加载用户，管理员声明以数据库中的角色为准
//  5. 将 claims 和 user 注入到 Gin 上下文中，后续 Handler 通过 c.Get("user") 获取
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService, blacklist service.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtManager == nil || userService == nil || blacklist == nil {
			abortWith(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		tokenString, err := requestToken(c)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		claims, err := jwtManager.VerifyAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, token.ErrWrongTokenType) {
				abortWith(c, http.StatusUnauthorized, "Invalid token type")
				return
			}
			abortWith(c, http.StatusUnauthorized, "Invalid or expired access token")
			return
		}

		ctx := c.Request.Context()
		revoked, err := blacklist.Contains(ctx, tokenString)
		if err != nil {
			log.Errorf("AuthMiddleware: failed to check token blacklist: %v", err)
			abortWith(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if revoked {
			abortWith(c, http.StatusUnauthorized, "Invalid or expired access token")
			return
		}

		// 即使 Token 有效，用户也可能已被删除或降级
		user, err := userService.GetProfile(ctx, claims.Username)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				abortWith(c, http.StatusUnauthorized, "User not found")
				return
			}
			log.Errorf("AuthMiddleware: failed to load user %q: %v", claims.Username, err)
			abortWith(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if user == nil {
			abortWith(c, http.StatusUnauthorized, "User not found")
			return
		}

		c.Set("claims", claims)
		c.Set("user", user)
		c.Next()
	}
}

// requestToken 优先读取 Authorization 头。浏览器的 WebSocket API 不能设置请求头，
// 所以仅在升级请求上退回到 query 参数。
func requestToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" && c.IsWebsocket() {
		if t := strings.TrimSpace(c.Query("token")); t != "" {
			return t, nil
		}
	}
	return extractBearerToken(header)
}

// extractBearerToken 从 Authorization 请求头中提取 Bearer Token。
// 使用 strings.EqualFold 做大小写不敏感比较，兼容 "bearer"、"BEARER" 等写法。
func extractBearerToken(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}
