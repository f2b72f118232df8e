package main

import (
	"context"
	"net/http"
	"time"

	"careerpath_go/internal/cache"
	"careerpath_go/internal/config"
	"careerpath_go/internal/handler"
	"careerpath_go/internal/metrics"
	"careerpath_go/internal/middleware"
	"careerpath_go/internal/realtime"
	"careerpath_go/internal/repository"
	"careerpath_go/internal/search"
	"careerpath_go/internal/service"
	"careerpath_go/pkg/database"
	"careerpath_go/pkg/log"
	"careerpath_go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// app 持有一次进程运行期间的全部依赖，serve / seed 共用同一套装配。
type app struct {
	cfg config.Config

	db        *gorm.DB
	rdb       *redis.Client
	jwt       *token.JWTManager
	blacklist *cache.TokenBlacklist
	hub       *realtime.Hub
	metrics   *metrics.Collector

	resolver      service.DescendantResolver
	filterService service.FilterService
	postService   service.PostService
	userService   service.UserService
}

func newApp(cfg config.Config) *app {
	a := &app{cfg: cfg}

	a.db = database.InitMySQL(cfg.Database.MySQL.DSN, cfg.Database.MySQL.LogLevel)
	a.rdb = database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	a.jwt = token.NewJWTManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpireHours)*time.Hour,
		time.Duration(cfg.JWT.RefreshTokenExpireDays)*24*time.Hour,
	)
	a.blacklist = cache.NewTokenBlacklist(a.rdb)
	a.hub = realtime.NewHub()
	a.metrics = metrics.New()

	filterRepo := repository.NewFilterNodeRepository(a.db)
	postRepo := repository.NewPostRepository(a.db)
	userRepo := repository.NewUserRepository(a.db)

	a.resolver = service.NewDescendantResolver(filterRepo, cfg.Taxonomy.MaxDepth)
	a.filterService = service.NewFilterService(filterRepo, service.FilterServiceOptions{
		Cache:    cache.NewTaxonomyCache(a.rdb, cfg.Taxonomy.CacheTTL()),
		Notifier: a.hub,
		Metrics:  a.metrics,
		MaxDepth: cfg.Taxonomy.MaxDepth,
		Locale:   cfg.Taxonomy.Locale,
	})

	postOpts := service.PostServiceOptions{
		MaxLinkedFilters: cfg.Post.MaxLinkedFilters,
		ListLimit:        cfg.Post.ListLimit,
	}
	if idx := a.postIndex(); idx != nil {
		postOpts.Index = idx
	}
	a.postService = service.NewPostService(postRepo, filterRepo, a.resolver, postOpts)
	a.userService = service.NewUserService(userRepo, a.jwt, a.blacklist)
	return a
}

// postIndex 在配置了 Elasticsearch 时返回帖子索引；连接或建索引失败时降级为数据库查询。
func (a *app) postIndex() *search.PostIndex {
	esCfg := a.cfg.Elasticsearch
	if !esCfg.Enabled() {
		log.Info("Elasticsearch not configured, post lookups use MySQL")
		return nil
	}
	client, err := database.InitElasticsearch(esCfg.Addresses, esCfg.Username, esCfg.Password)
	if err != nil {
		log.Warnf("Elasticsearch unavailable, falling back to MySQL: %v", err)
		return nil
	}

	idx := search.NewPostIndex(client, esCfg.PostIndex)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := idx.EnsureIndex(ctx); err != nil {
		log.Warnf("failed to prepare post index %q, falling back to MySQL: %v", esCfg.PostIndex, err)
		return nil
	}
	return idx
}

func (a *app) router() *gin.Engine {
	gin.SetMode(a.cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(a.cfg.Server.LogBodies), a.metrics.Middleware(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	userHandler := handler.NewUserHandler(a.userService)
	filterHandler := handler.NewFilterHandler(a.filterService, a.resolver)
	postHandler := handler.NewPostHandler(a.postService)

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		users.POST("/register", userHandler.Register)
		users.POST("/login", userHandler.Login)
	}

	authed := api.Group("", middleware.AuthMiddleware(a.jwt, a.userService, a.blacklist))
	{
		authed.POST("/users/logout", userHandler.Logout)
		authed.GET("/users/me", userHandler.GetProfile)

		filters := authed.Group("/filters")
		filters.GET("", filterHandler.ListActive)
		filters.GET("/types", filterHandler.Types)
		filters.GET("/children", filterHandler.Children)
		filters.GET("/tree", filterHandler.Tree)
		filters.GET("/ws", a.hub.ServeWS)
		filters.GET("/:id", filterHandler.Get)
		filters.GET("/:id/descendants", filterHandler.Descendants)
		filters.GET("/:id/posts", postHandler.ForFilter)

		authed.GET("/posts/:id", postHandler.Get)
	}

	admin := authed.Group("/admin", middleware.AdminAuthMiddleware())
	{
		admin.GET("/filters", filterHandler.ListAll)
		admin.POST("/filters", filterHandler.Create)
		admin.GET("/filters/tree", filterHandler.AdminTree)
		admin.PATCH("/filters/:id", filterHandler.Update)
		admin.PUT("/filters/:id/active", filterHandler.ToggleActive)

		admin.POST("/posts", postHandler.Create)
		admin.DELETE("/posts/:id", postHandler.Delete)
	}
	return r
}

// close 释放外部连接，顺序与创建相反。
func (a *app) close() {
	a.hub.Close()
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Warnf("failed to close redis client: %v", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Warnf("failed to close mysql pool: %v", err)
		}
	}
}
