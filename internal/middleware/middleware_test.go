package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"careerpath_go/internal/model"
	"careerpath_go/internal/service"
	applog "careerpath_go/pkg/log"
	"careerpath_go/pkg/token"

	"github.com/gin-gonic/gin"
)

type fakeUserService struct {
	service.UserService
	users      map[string]*model.User
	profileErr error
}

func (f *fakeUserService) GetProfile(_ context.Context, username string) (*model.User, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return u, nil
}

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) Add(_ context.Context, t string, _ time.Duration) error {
	f.revoked[t] = true
	return nil
}

func (f *fakeBlacklist) Contains(_ context.Context, t string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[t], nil
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	applog.Init("error", "console", "")
	m.Run()
}

type authFixture struct {
	jwt       *token.JWTManager
	users     *fakeUserService
	blacklist *fakeBlacklist
	router    *gin.Engine
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		jwt: token.NewJWTManager("test-secret", 15*time.Minute, time.Hour),
		users: &fakeUserService{users: map[string]*model.User{
			"root":    {ID: 1, Username: "root", Role: model.RoleAdmin},
			"student": {ID: 2, Username: "student", Role: model.RoleUser},
		}},
		blacklist: &fakeBlacklist{revoked: map[string]bool{}},
	}

	r := gin.New()
	r.Use(RequestLogger(true))
	authed := r.Group("/api", AuthMiddleware(f.jwt, f.users, f.blacklist))
	authed.GET("/me", func(c *gin.Context) {
		u, _ := c.Get("user")
		c.JSON(http.StatusOK, gin.H{"username": u.(*model.User).Username})
	})
	authed.GET("/admin/ping", AdminAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	f.router = r
	return f
}

func (f *authFixture) tokens(t *testing.T, userID uint, username, role string) (string, string) {
	t.Helper()
	access, refresh, err := f.jwt.GenerateToken(userID, username, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return access, refresh
}

func (f *authFixture) get(path, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Success(t *testing.T) {
	f := newAuthFixture()
	access, _ := f.tokens(t, 2, "student", model.RoleUser)

	w := f.get("/api/me", "Bearer "+access)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "student") {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}

	// 大小写不敏感
	w = f.get("/api/me", "bearer "+access)
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200 for lowercase scheme, got %d", w.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	f := newAuthFixture()
	access, refresh := f.tokens(t, 2, "student", model.RoleUser)
	other := token.NewJWTManager("other-secret", time.Minute, time.Minute)
	forged, _, _ := other.GenerateToken(2, "student", model.RoleAdmin)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + access},
		{"refresh token", "Bearer " + refresh},
		{"forged signature", "Bearer " + forged},
		{"garbage", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		w := f.get("/api/me", tc.header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expect 401, got %d", tc.name, w.Code)
		}
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	f := newAuthFixture()
	access, _ := f.tokens(t, 2, "student", model.RoleUser)
	f.blacklist.revoked[access] = true

	if w := f.get("/api/me", "Bearer "+access); w.Code != http.StatusUnauthorized {
		t.Fatalf("expect 401 for revoked token, got %d", w.Code)
	}

	f.blacklist.err = errors.New("redis down")
	if w := f.get("/api/me", "Bearer "+access); w.Code != http.StatusInternalServerError {
		t.Fatalf("expect 500 when blacklist unavailable, got %d", w.Code)
	}
}

func TestAuthMiddleware_UserGone(t *testing.T) {
	f := newAuthFixture()
	access, _ := f.tokens(t, 9, "ghost", model.RoleUser)

	if w := f.get("/api/me", "Bearer "+access); w.Code != http.StatusUnauthorized {
		t.Fatalf("expect 401 for deleted user, got %d", w.Code)
	}

	f.users.profileErr = errors.New("db down")
	if w := f.get("/api/me", "Bearer "+access); w.Code != http.StatusInternalServerError {
		t.Fatalf("expect 500 on lookup failure, got %d", w.Code)
	}
}

func TestAuthMiddleware_QueryTokenOnlyForWebsocket(t *testing.T) {
	f := newAuthFixture()
	access, _ := f.tokens(t, 2, "student", model.RoleUser)

	w := f.get("/api/me?token="+access, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("query token must be ignored for plain requests, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me?token="+access, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expect query token accepted on upgrade, got %d", w.Code)
	}
}

func TestAuthMiddleware_MissingDependencies(t *testing.T) {
	r := gin.New()
	r.GET("/x", AuthMiddleware(nil, nil, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expect 500, got %d", w.Code)
	}
}

// 管理员声明以数据库为准：token 里写着 ADMIN 也不行
func TestAdminAuthMiddleware_UsesLiveRole(t *testing.T) {
	f := newAuthFixture()
	adminAccess, _ := f.tokens(t, 1, "root", model.RoleAdmin)
	staleAccess, _ := f.tokens(t, 2, "student", model.RoleAdmin)

	if w := f.get("/api/admin/ping", "Bearer "+adminAccess); w.Code != http.StatusOK {
		t.Fatalf("expect 200 for admin, got %d", w.Code)
	}
	if w := f.get("/api/admin/ping", "Bearer "+staleAccess); w.Code != http.StatusForbidden {
		t.Fatalf("expect 403 for demoted user, got %d", w.Code)
	}
}

func TestAdminAuthMiddleware_NoUser(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminAuthMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expect 401, got %d", w.Code)
	}
}

func TestRequestLogger_PreservesBody(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(true))
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, body)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"IT"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"IT"`) {
		t.Fatalf("body must survive logging, got %d %s", w.Code, w.Body.String())
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", maxLoggedBody+10)
	if got := truncate([]byte(long)); !strings.HasSuffix(got, "...(truncated)") || len(got) != maxLoggedBody+len("...(truncated)") {
		t.Fatalf("unexpected truncation: len=%d", len(got))
	}
	if got := truncate([]byte("short")); got != "short" {
		t.Fatalf("short body must be kept: %q", got)
	}
}
