package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"careerpath_go/internal/model"
	"careerpath_go/internal/repository"
	"careerpath_go/pkg/hash"
	"careerpath_go/pkg/log"
	"careerpath_go/pkg/token"

	"gorm.io/gorm"
)

// TokenBlacklist 保存已登出的 token，直到它们自然过期。
type TokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

// UserService 是身份提供方的适配层：只负责产生调用方身份和管理员声明。
type UserService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error)
	Logout(ctx context.Context, accessToken string) error
	GetProfile(ctx context.Context, username string) (*model.User, error)
	// EnsureAdmin 创建管理员，或把已存在的用户提升为管理员（供命令行使用）。
	EnsureAdmin(ctx context.Context, username, password string) (*model.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	JWTManager *token.JWTManager
	blacklist  TokenBlacklist
}

func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager, blacklist TokenBlacklist) UserService {
	return &userService{
		userRepo:   userRepo,
		JWTManager: jwtManager,
		blacklist:  blacklist,
	}
}

func (s *userService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	// 1. 检查用户是否存在
	existingUser, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		// 查无记录是正常分支，继续注册
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	// 2. 密码进行哈希
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. 用户存入数据库生成id
	newUser := &model.User{
		Username: username,
		Password: hashedPassword,
		Role:     model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return newUser, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error) {
	if s.JWTManager == nil {
		return "", "", ErrInternal
	}
	// 1. 检查用户是否存在
	existingUser, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 用户不存在，返回统一的凭证错误，防止用户枚举
			return "", "", ErrInvalidCredentials
		}
		log.Errorf("Login: failed to query user %q: %v", username, err)
		return "", "", ErrInternal
	}
	if existingUser == nil {
		return "", "", ErrInvalidCredentials
	}

	// 2. 检查密码是否正确
	if !hash.CheckPasswordHash(password, existingUser.Password) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成JWT令牌（使用数据库中的 Username，避免大小写/规范化不一致）
	accessToken, refreshToken, err = s.JWTManager.GenerateToken(existingUser.ID, existingUser.Username, existingUser.Role)
	if err != nil {
		log.Errorf("Login: failed to generate token for user %q: %v", existingUser.Username, err)
		return "", "", ErrInternal
	}
	return accessToken, refreshToken, nil
}

// Logout 把 access token 加入黑名单，TTL 取 token 剩余有效期。
func (s *userService) Logout(ctx context.Context, accessToken string) error {
	if s.JWTManager == nil || s.blacklist == nil {
		return ErrInternal
	}
	claims, err := s.JWTManager.VerifyAccessToken(accessToken)
	if err != nil || claims == nil {
		return ErrUnauthenticated
	}

	ttl := claims.RemainingTTL(time.Now())
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.blacklist.Add(ctx, accessToken, ttl); err != nil {
		log.Errorf("Logout: failed to blacklist token for user %q: %v", claims.Username, err)
		return ErrInternal
	}
	return nil
}

func (s *userService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Errorf("GetProfile: failed to query user %q: %v", username, err)
		return nil, ErrInternal
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, username, password string) (*model.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	switch {
	case err == nil && existing != nil:
		if existing.IsAdmin() {
			return existing, nil
		}
		if err := s.userRepo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			return nil, err
		}
		existing.Role = model.RoleAdmin
		return existing, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	user, err := s.Register(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRole(ctx, user.ID, model.RoleAdmin); err != nil {
		return nil, err
	}
	user.Role = model.RoleAdmin
	return user, nil
}
