package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	SSH     SSHConfig     `mapstructure:"ssh"`
	Report  ReportConfig  `mapstructure:"report"`
	Output  OutputConfig  `mapstructure:"output"`
	Storage StorageConfig `mapstructure:"storage"`
	History HistoryConfig `mapstructure:"history"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	// Modes 配置文件声明的自定义报表模式
	Modes []ModeConfig `mapstructure:"modes"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RunnerConfig 命令执行方式
type RunnerConfig struct {
	// Type ssh | exec | replay
	Type string `mapstructure:"type"`
	// Shell 本机执行时的命令前缀，例如 ["vsh", "-c"]
	Shell []string `mapstructure:"shell"`
	// ReplayDir 回放目录，文件名为命令的 slug
	ReplayDir string `mapstructure:"replay_dir"`
	// Timeout 单条命令超时
	Timeout time.Duration `mapstructure:"timeout"`
	// OutputFilter 原始输出的行过滤（移除分页提示等）
	OutputFilter OutputFilterConfig `mapstructure:"output_filter"`
}

// SSHConfig SSH配置
type SSHConfig struct {
	// Timeout 不直接映射顶层 ssh.timeout（避免与嵌套块冲突）；在 Load 中手动填充
	Timeout           time.Duration `mapstructure:"-"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxIdle           int           `mapstructure:"max_idle"`
	MaxActive         int           `mapstructure:"max_active"`
	MaxSessions       int           `mapstructure:"max_sessions"`
}

// ReportConfig 报表默认项
type ReportConfig struct {
	Platform    string `mapstructure:"platform"`
	DefaultMode string `mapstructure:"default_mode"`
	// DetectVersion 执行 show version 并记录版本
	DetectVersion bool `mapstructure:"detect_version"`
	// DescriptionCap 接口描述最大字符数
	DescriptionCap int `mapstructure:"description_cap"`
	// Strict 主命令失败时返回错误而不是空报表
	Strict bool `mapstructure:"strict"`
}

// OutputConfig 报表输出配置
type OutputConfig struct {
	// Backend 归档后端：local | minio
	Backend        string `mapstructure:"backend"`
	BaseDir        string `mapstructure:"base_dir"`
	Prefix         string `mapstructure:"prefix"`
	MkdirIfMissing bool   `mapstructure:"mkdir_if_missing"`
}

// StorageConfig 对象存储配置
type StorageConfig struct {
	Minio MinioConfig `mapstructure:"minio"`
}

// MinioConfig 对象存储配置（报表归档）
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// HistoryConfig 运行记录配置
type HistoryConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis配置；Host 为空表示不启用
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// TTL 分类缓存有效期
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ModeConfig 自定义模式，令牌使用 "." "%name" "&name" 记法
type ModeConfig struct {
	Name          string            `mapstructure:"name"`
	Title         string            `mapstructure:"title"`
	Command       string            `mapstructure:"command"`
	NonZero       string            `mapstructure:"nonzero"`
	CompositeZero map[string]string `mapstructure:"composite_zero"`
	MinVersion    string            `mapstructure:"min_version"`
	Boundary      BoundaryConfig    `mapstructure:"boundary"`
	Rules         []RuleConfig      `mapstructure:"rules"`
}

// BoundaryConfig 边界行校验
type BoundaryConfig struct {
	Checks     []FieldCheckConfig `mapstructure:"checks"`
	NotPresent []string           `mapstructure:"not_present"`
}

// FieldCheckConfig 字段位置校验
type FieldCheckConfig struct {
	Index  int    `mapstructure:"index"`
	Equals string `mapstructure:"equals"`
}

// RuleConfig 行规则
type RuleConfig struct {
	Counts   []int           `mapstructure:"counts"`
	Patterns []PatternConfig `mapstructure:"patterns"`
}

// PatternConfig 候选模式；heading 为空时不产生列
type PatternConfig struct {
	Heading []string `mapstructure:"heading"`
	Tokens  []string `mapstructure:"tokens"`
}

// OutputFilterConfig 输出过滤器配置
type OutputFilterConfig struct {
	// Prefixes: 移除以这些字符串开头的行
	Prefixes []string `mapstructure:"prefixes"`
	// Contains: 移除包含这些子串的行（例如 --More--）
	Contains []string `mapstructure:"contains"`
	// CaseInsensitive: 忽略大小写匹配（默认启用）
	CaseInsensitive bool `mapstructure:"case_insensitive"`
	// TrimSpace: 比较前移除首尾空格（默认启用）
	TrimSpace bool `mapstructure:"trim_space"`
}

var globalConfig *Config

// Load 加载配置文件；未指定路径且找不到默认文件时只使用默认值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 设置默认值
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	// 设置环境变量前缀
	v.SetEnvPrefix("INTREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 兼容嵌套：ssh.timeout.timeout_all
	if v.IsSet("ssh.timeout.timeout_all") {
		if to := v.GetDuration("ssh.timeout.timeout_all"); to > 0 {
			config.SSH.Timeout = to
		}
	}
	// 拆分的握手超时（dial/auth，单位秒）合并为 ConnectTimeout
	dialSec := v.GetInt("ssh.timeout.dial_timeout")
	authSec := v.GetInt("ssh.timeout.auth_timeout")
	if dialSec > 0 || authSec > 0 {
		config.SSH.ConnectTimeout = time.Duration(dialSec+authSec) * time.Second
	}

	// 环境变量替换
	config = replaceEnvVars(config)

	globalConfig = &config
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 18080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	// 默认在设备本机通过 vsh 执行
	v.SetDefault("runner.type", "exec")
	v.SetDefault("runner.shell", []string{"vsh", "-c"})
	v.SetDefault("runner.replay_dir", "./testdata/replay")
	v.SetDefault("runner.timeout", 60*time.Second)
	// 默认输出过滤规则：大小写不敏感，去除首尾空格
	v.SetDefault("runner.output_filter.case_insensitive", true)
	v.SetDefault("runner.output_filter.trim_space", true)
	v.SetDefault("runner.output_filter.prefixes", []string{"--more--"})
	v.SetDefault("runner.output_filter.contains", []string{"--more--"})

	v.SetDefault("ssh.timeout.timeout_all", 60*time.Second)
	v.SetDefault("ssh.timeout.dial_timeout", 2)
	v.SetDefault("ssh.timeout.auth_timeout", 5)
	v.SetDefault("ssh.keep_alive_interval", 30*time.Second)
	v.SetDefault("ssh.cleanup_interval", 30*time.Second)
	v.SetDefault("ssh.idle_timeout", 5*time.Minute)
	v.SetDefault("ssh.max_idle", 8)
	v.SetDefault("ssh.max_active", 32)
	v.SetDefault("ssh.max_sessions", 4)

	v.SetDefault("report.platform", "cisco_mds")
	v.SetDefault("report.default_mode", "physical")
	v.SetDefault("report.detect_version", false)
	v.SetDefault("report.description_cap", 65)
	v.SetDefault("report.strict", false)

	v.SetDefault("output.backend", "local")
	v.SetDefault("output.base_dir", "./data/reports")
	v.SetDefault("output.prefix", "intreport")
	v.SetDefault("output.mkdir_if_missing", true)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.sqlite.path", "./data/intreport.db")
	v.SetDefault("history.sqlite.conn_max_lifetime", time.Hour)

	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.pool_size", 10)
	v.SetDefault("cache.redis.dial_timeout", 5*time.Second)
	v.SetDefault("cache.redis.read_timeout", 3*time.Second)
	v.SetDefault("cache.redis.write_timeout", 3*time.Second)
	v.SetDefault("cache.redis.ttl", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file_path", "./logs/intreport.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
}

// Get 获取全局配置
func Get() *Config {
	return globalConfig
}

// replaceEnvVars 替换 ${VAR} 形式的敏感配置
func replaceEnvVars(config Config) Config {
	config.Storage.Minio.AccessKey = expandEnv(config.Storage.Minio.AccessKey)
	config.Storage.Minio.SecretKey = expandEnv(config.Storage.Minio.SecretKey)
	config.Cache.Redis.Password = expandEnv(config.Cache.Redis.Password)
	return config
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
	}
	return s
}

// GetServerAddr 获取服务器地址
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
