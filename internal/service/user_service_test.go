package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"careerpath_go/internal/model"
	"careerpath_go/pkg/hash"
	"careerpath_go/pkg/token"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	findByUsernameFn func(username string) (*model.User, error)
	createFn         func(user *model.User) error
	findByIDFn       func(userID uint) (*model.User, error)
	updateRoleFn     func(userID uint, role string) error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createFn != nil {
		return f.createFn(user)
	}
	return nil
}
func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if f.findByUsernameFn != nil {
		return f.findByUsernameFn(username)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) FindByID(ctx context.Context, userID uint) (*model.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(userID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) UpdateRole(ctx context.Context, userID uint, role string) error {
	if f.updateRoleFn != nil {
		return f.updateRoleFn(userID, role)
	}
	return nil
}

type fakeBlacklist struct {
	tokens map[string]time.Duration
	addErr error
}

func (b *fakeBlacklist) Add(ctx context.Context, tok string, ttl time.Duration) error {
	if b.addErr != nil {
		return b.addErr
	}
	if b.tokens == nil {
		b.tokens = map[string]time.Duration{}
	}
	b.tokens[tok] = ttl
	return nil
}

func (b *fakeBlacklist) Contains(ctx context.Context, tok string) (bool, error) {
	_, ok := b.tokens[tok]
	return ok, nil
}

func newJWT() *token.JWTManager {
	return token.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
}

func TestUserService_Register_Success(t *testing.T) {
	repo := &fakeUserRepo{
		createFn: func(user *model.User) error {
			user.ID = 1
			return nil
		},
	}
	svc := NewUserService(repo, newJWT(), &fakeBlacklist{})

	u, err := svc.Register(context.Background(), " alice ", "123456")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.ID != 1 || u.Username != "alice" || u.Role != model.RoleUser {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Password == "123456" || !hash.CheckPasswordHash("123456", u.Password) {
		t.Fatalf("password is not hashed correctly")
	}
}

func TestUserService_Register_UserAlreadyExists(t *testing.T) {
	repo := &fakeUserRepo{
		findByUsernameFn: func(username string) (*model.User, error) {
			return &model.User{ID: 1, Username: "alice"}, nil
		},
	}
	svc := NewUserService(repo, newJWT(), nil)

	_, err := svc.Register(context.Background(), "alice", "123456")
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expect ErrUserAlreadyExists, got %v", err)
	}
}

func TestUserService_Register_DuplicateKeyOnCreate(t *testing.T) {
	repo := &fakeUserRepo{
		createFn: func(user *model.User) error {
			return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice'"}
		},
	}
	svc := NewUserService(repo, newJWT(), nil)

	_, err := svc.Register(context.Background(), "alice", "123456")
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expect ErrUserAlreadyExists, got %v", err)
	}
}

func TestUserService_Register_InvalidInput(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{}, newJWT(), nil)

	if _, err := svc.Register(context.Background(), "  ", "123456"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expect ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "alice", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expect ErrInvalidInput, got %v", err)
	}
}

func TestUserService_Register_DBErrorOnFind(t *testing.T) {
	repo := &fakeUserRepo{
		findByUsernameFn: func(username string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewUserService(repo, newJWT(), nil)

	if _, err := svc.Register(context.Background(), "alice", "123456"); err == nil {
		t.Fatalf("expect error for DB failure, got nil")
	}
}

func TestUserService_Login_Success(t *testing.T) {
	pwd, _ := hash.HashPassword("123456")
	jm := newJWT()
	repo := &fakeUserRepo{
		findByUsernameFn: func(username string) (*model.User, error) {
			return &model.User{ID: 1, Username: "alice", Password: pwd, Role: model.RoleAdmin}, nil
		},
	}
	svc := NewUserService(repo, jm, nil)

	access, refresh, err := svc.Login(context.Background(), "alice", "123456")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatalf("tokens should not be empty")
	}
	claims, err := jm.VerifyToken(access)
	if err != nil {
		t.Fatalf("VerifyToken(access) error = %v", err)
	}
	if claims.Username != "alice" || claims.Role != model.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestUserService_Login_Failures(t *testing.T) {
	pwd, _ := hash.HashPassword("correct-password")
	cases := []struct {
		name   string
		repo   *fakeUserRepo
		pwd    string
		expect error
	}{
		{
			name:   "user not found",
			repo:   &fakeUserRepo{},
			pwd:    "123456",
			expect: ErrInvalidCredentials,
		},
		{
			name: "wrong password",
			repo: &fakeUserRepo{findByUsernameFn: func(string) (*model.User, error) {
				return &model.User{ID: 1, Username: "alice", Password: pwd}, nil
			}},
			pwd:    "wrong-password",
			expect: ErrInvalidCredentials,
		},
		{
			name: "db error",
			repo: &fakeUserRepo{findByUsernameFn: func(string) (*model.User, error) {
				return nil, errors.New("connection refused")
			}},
			pwd:    "123456",
			expect: ErrInternal,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewUserService(tc.repo, newJWT(), nil)
			_, _, err := svc.Login(context.Background(), "alice", tc.pwd)
			if !errors.Is(err, tc.expect) {
				t.Fatalf("expect %v, got %v", tc.expect, err)
			}
		})
	}
}

func TestUserService_Login_NilJWTManager(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{}, nil, nil)

	_, _, err := svc.Login(context.Background(), "alice", "123456")
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expect ErrInternal for nil JWTManager, got %v", err)
	}
}

func TestUserService_Logout_BlacklistsToken(t *testing.T) {
	jm := newJWT()
	bl := &fakeBlacklist{}
	svc := NewUserService(&fakeUserRepo{}, jm, bl)

	access, _, err := jm.GenerateToken(1, "alice", model.RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if err := svc.Logout(context.Background(), access); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	ttl, ok := bl.tokens[access]
	if !ok {
		t.Fatalf("token should be blacklisted")
	}
	if ttl <= 0 || ttl > 15*time.Minute {
		t.Fatalf("ttl should be the remaining token life, got %v", ttl)
	}

	if err := svc.Logout(context.Background(), "not-a-token"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expect ErrUnauthenticated, got %v", err)
	}

	bl.addErr = errors.New("redis down")
	if err := svc.Logout(context.Background(), access); !errors.Is(err, ErrInternal) {
		t.Fatalf("expect ErrInternal, got %v", err)
	}
}

func TestUserService_GetProfile(t *testing.T) {
	repo := &fakeUserRepo{
		findByUsernameFn: func(username string) (*model.User, error) {
			switch username {
			case "alice":
				return &model.User{ID: 1, Username: "alice", Role: model.RoleUser}, nil
			case "broken":
				return nil, errors.New("db down")
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewUserService(repo, newJWT(), nil)
	ctx := context.Background()

	u, err := svc.GetProfile(ctx, "alice")
	if err != nil || u.ID != 1 {
		t.Fatalf("unexpected user %+v err=%v", u, err)
	}
	if _, err := svc.GetProfile(ctx, "no-user"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expect ErrUserNotFound, got %v", err)
	}
	if _, err := svc.GetProfile(ctx, "broken"); !errors.Is(err, ErrInternal) {
		t.Fatalf("expect ErrInternal, got %v", err)
	}
}

func TestUserService_EnsureAdmin_PromotesExisting(t *testing.T) {
	var promoted uint
	repo := &fakeUserRepo{
		findByUsernameFn: func(username string) (*model.User, error) {
			return &model.User{ID: 7, Username: "alice", Role: model.RoleUser}, nil
		},
		updateRoleFn: func(userID uint, role string) error {
			if role != model.RoleAdmin {
				t.Fatalf("unexpected role %q", role)
			}
			promoted = userID
			return nil
		},
	}
	svc := NewUserService(repo, newJWT(), nil)

	u, err := svc.EnsureAdmin(context.Background(), "alice", "ignored")
	if err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if promoted != 7 || !u.IsAdmin() {
		t.Fatalf("user should be promoted, got %+v", u)
	}
}

func TestUserService_EnsureAdmin_CreatesNew(t *testing.T) {
	var promoted uint
	repo := &fakeUserRepo{
		createFn: func(user *model.User) error {
			user.ID = 3
			return nil
		},
		updateRoleFn: func(userID uint, role string) error {
			promoted = userID
			return nil
		},
	}
	svc := NewUserService(repo, newJWT(), nil)

	u, err := svc.EnsureAdmin(context.Background(), "root", "secret")
	if err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if promoted != 3 || u.Role != model.RoleAdmin {
		t.Fatalf("new user should be admin, got %+v", u)
	}
}
