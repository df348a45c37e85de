package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lmstfy   LmstfyConfig   `mapstructure:"lmstfy"`
	Services ServicesConfig `mapstructure:"services"`
	Safety   SafetyConfig   `mapstructure:"safety"`
	Match    MatchConfig    `mapstructure:"match"`
	Ops      OpsConfig      `mapstructure:"ops"`
	Workers  []WorkerConfig `mapstructure:"workers"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig Lmstfy 配置
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

// ServicesConfig 外部风格服务配置
type ServicesConfig struct {
	Scorer  ServiceEndpoint `mapstructure:"scorer"`  // 两两配对打分服务
	Trust   ServiceEndpoint `mapstructure:"trust"`   // 信任过滤服务（Pass A）
	Safety  ServiceEndpoint `mapstructure:"safety"`  // 安全校验服务（Pass B）
	Signals SignalsEndpoint `mapstructure:"signals"` // 风格信号服务
}

// ServiceEndpoint HTTP 服务端点
type ServiceEndpoint struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SignalsEndpoint 风格信号服务端点（带本地缓存）
type SignalsEndpoint struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`   // 信号拉取超时（超时=信息不足，非错误）
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 本地 TTL 缓存
}

// SafetyConfig 安全校验配置（Pass B）
type SafetyConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RolloutPercent int           `mapstructure:"rollout_percent"` // hash(user_id)%100 < percent 才启用
	PolicyVersion  string        `mapstructure:"policy_version"`  // 判定缓存的内容寻址版本
	TopK           int           `mapstructure:"top_k"`           // 风险子集上限
	DryRun         bool          `mapstructure:"dry_run"`         // 请求偏好；服务端 effective_dry_run 优先
	VerdictTTL     time.Duration `mapstructure:"verdict_ttl"`     // Redis 判定缓存 TTL
}

// MatchConfig 匹配流水线调参
type MatchConfig struct {
	PerSlotCap             int     `mapstructure:"per_slot_cap"`               // 每槽位候选上限
	MaxCombosPerTrack      int     `mapstructure:"max_combos_per_track"`       // 每条生成轨道的组合上限
	MaxReasons             int     `mapstructure:"max_reasons"`                // 每个组合携带的解释条数上限
	IncludeLowTier         bool    `mapstructure:"include_low_tier"`           // 是否让 LOW 档参与组合
	NearOutfitQuota        int     `mapstructure:"near_outfit_quota"`          // near 桶多样性选择配额
	MaxSuggestions         int     `mapstructure:"max_suggestions"`            // 建议气泡条数上限
	WeakSlotMinBestScore   float64 `mapstructure:"weak_slot_min_best_score"`   // 槽位判弱阈值：最高分
	WeakSlotMinMediumCount int     `mapstructure:"weak_slot_min_medium_count"` // 槽位判弱阈值：MEDIUM 及以上候选数
}

// OpsConfig 运维接口配置（健康检查 + 流水线预览）
type OpsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// WorkerConfig Worker 配置
type WorkerConfig struct {
	Name          string           `mapstructure:"name"`
	QueueName     string           `mapstructure:"queue_name"`
	CallbackQueue string           `mapstructure:"callback_queue"` // 回调队列名称
	Subscriber    SubscriberConfig `mapstructure:"subscriber"`
	Processor     ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Rate         time.Duration `mapstructure:"rate"`          // 拉取速率
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults 填充未显式配置的默认值
func (c *Config) applyDefaults() {
	if c.Services.Signals.Timeout == 0 {
		c.Services.Signals.Timeout = 10 * time.Second
	}
	if c.Services.Signals.CacheTTL == 0 {
		c.Services.Signals.CacheTTL = 5 * time.Minute
	}
	if c.Safety.TopK == 0 {
		c.Safety.TopK = 10
	}
	if c.Safety.VerdictTTL == 0 {
		c.Safety.VerdictTTL = 12 * time.Hour
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if len(c.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}
	if c.Services.Scorer.BaseURL == "" {
		return fmt.Errorf("services.scorer.base_url is required")
	}
	if c.Safety.Enabled && c.Safety.PolicyVersion == "" {
		return fmt.Errorf("safety.policy_version is required when safety is enabled")
	}
	if c.Safety.RolloutPercent < 0 || c.Safety.RolloutPercent > 100 {
		return fmt.Errorf("safety.rollout_percent must be within [0, 100]")
	}
	return nil
}
