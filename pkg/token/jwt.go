package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer 写入 iss 声明
const Issuer = "careerpath"

// TokenType 用于区分访问令牌和刷新令牌，防止拿 refresh token 冒充 access token
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrWrongTokenType token 合法但类型不符（例如把 refresh token 当 access token 用）
var ErrWrongTokenType = errors.New("token: wrong token type")

// JWTManager 负责签发和校验 HS256 JWT
type JWTManager struct {
	secretKey            []byte
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
}

// CustomClaims 携带调用方身份；Role 就是管理员声明的来源，但鉴权时仍以数据库中的用户为准
type CustomClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// RemainingTTL 返回距过期的剩余时间，没有 exp 或已过期时返回 0
func (c *CustomClaims) RemainingTTL(now time.Time) time.Duration {
	if c == nil || c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Time.Sub(now); d > 0 {
		return d
	}
	return 0
}

func NewJWTManager(secretKey string, accessTokenDuration, refreshTokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:            []byte(secretKey),
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
	}
}

func (manager *JWTManager) sign(userID uint, username, role, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.secretKey)
}

// GenerateToken 生成一对访问令牌和刷新令牌
func (manager *JWTManager) GenerateToken(userID uint, username, role string) (string, string, error) {
	now := time.Now()
	access, err := manager.sign(userID, username, role, TokenTypeAccess, now, manager.accessTokenDuration)
	if err != nil {
		return "", "", err
	}
	refresh, err := manager.sign(userID, username, role, TokenTypeRefresh, now, manager.refreshTokenDuration)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// VerifyToken 校验签名、有效期和签发方，不区分 token 类型
func (manager *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return manager.secretKey, nil
	},
		// 只允许 HS256，拦截 alg=none 或 alg=RS256 之类的篡改
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("token: unexpected claims type")
	}
	return claims, nil
}

// VerifyAccessToken 在 VerifyToken 基础上要求 token 类型为 access
func (manager *JWTManager) VerifyAccessToken(tokenString string) (*CustomClaims, error) {
	claims, err := manager.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
