// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 CAREERPATH_DATABASE_MYSQL_DSN 覆盖 database.mysql.dsn。
const EnvPrefix = "CAREERPATH"

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Taxonomy      TaxonomyConfig      `mapstructure:"taxonomy"`
	Post          PostConfig          `mapstructure:"post"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// LogBodies 为 true 时请求日志记录请求体和响应体
	LogBodies bool `mapstructure:"log_bodies"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
	// LogLevel 控制 gorm SQL 日志：silent/error/warn/info
	LogLevel string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// ElasticsearchConfig 为空地址时不启用帖子索引，直接走数据库。
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	PostIndex string   `mapstructure:"post_index"`
}

func (c ElasticsearchConfig) Enabled() bool {
	return len(c.Addresses) > 0
}

type TaxonomyConfig struct {
	MaxDepth        int    `mapstructure:"max_depth"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
	Locale          string `mapstructure:"locale"`
}

func (c TaxonomyConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

type PostConfig struct {
	MaxLinkedFilters int `mapstructure:"max_linked_filters"`
	ListLimit        int `mapstructure:"list_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.log_bodies", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_path", "")
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.mysql.log_level", "warn")
	v.SetDefault("database.redis.addr", "127.0.0.1:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_expire_hours", 24)
	v.SetDefault("jwt.refresh_token_expire_days", 7)
	v.SetDefault("elasticsearch.addresses", []string{})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.post_index", "careerpath_posts")
	v.SetDefault("taxonomy.max_depth", 32)
	v.SetDefault("taxonomy.cache_ttl_seconds", 300)
	v.SetDefault("taxonomy.locale", "en")
	v.SetDefault("post.max_linked_filters", 10)
	v.SetDefault("post.list_limit", 50)
}

// Load 读取 YAML 配置文件，环境变量（含 .env 文件中的）优先于文件。
// configPath 为空时只使用默认值和环境变量。
func Load(configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查启动必需的配置项。
func (c Config) Validate() error {
	var errs []error
	if c.Database.MySQL.DSN == "" {
		errs = append(errs, errors.New("database.mysql.dsn is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Taxonomy.MaxDepth <= 0 {
		errs = append(errs, errors.New("taxonomy.max_depth must be positive"))
	}
	if c.Post.ListLimit <= 0 {
		errs = append(errs, errors.New("post.list_limit must be positive"))
	}
	return errors.Join(errs...)
}

// Init 加载配置到全局 Conf，失败时 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Errorf("fatal error config: %w", err))
	}
	Conf = cfg
}
