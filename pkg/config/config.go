package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Guardian  GuardianConfig  `mapstructure:"guardian"`
	Hive      HiveConfig      `mapstructure:"hive"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Abuse     AbuseConfig     `mapstructure:"abuse"`
	Bot       BotConfig       `mapstructure:"bot"`
}

type ServerConfig struct {
	Port      int `mapstructure:"port"`
	BodyLimit int `mapstructure:"body_limit"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PipelineConfig struct {
	// Deadline bounds the whole request; every collaborator call inside it
	// carries its own shorter timeout.
	Deadline    time.Duration `mapstructure:"deadline"`
	Temperature float64       `mapstructure:"temperature"`
	TaskType    string        `mapstructure:"task_type"`
}

type GuardianConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type HiveConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Token              string        `mapstructure:"token"`
	Timeout            time.Duration `mapstructure:"timeout"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type AbuseConfig struct {
	// BlockThreshold is the score at or above which an IP counts as blocked.
	BlockThreshold int           `mapstructure:"block_threshold"`
	TTL            time.Duration `mapstructure:"ttl"`
	// IncrementTimeout bounds each fire-and-forget score increment.
	IncrementTimeout time.Duration `mapstructure:"increment_timeout"`
}

type BotConfig struct {
	// Threshold on the client-data suspicion score above which an
	// unverifiable caller is classified as a bot.
	Threshold float64 `mapstructure:"threshold"`
}

// Load reads config.yaml from the given path (falling back to ./config and
// the working directory) and overlays environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file is fine, env vars and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("pipeline.deadline", 30*time.Second)
	v.SetDefault("pipeline.temperature", 0.7)
	v.SetDefault("pipeline.task_type", "chat")
	v.SetDefault("guardian.timeout", 5*time.Second)
	v.SetDefault("hive.timeout", 20*time.Second)
	v.SetDefault("hive.breaker_max_failures", 5)
	v.SetDefault("hive.breaker_timeout", 30*time.Second)
	v.SetDefault("rate_limit.limit", 20)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("abuse.block_threshold", 50)
	v.SetDefault("abuse.ttl", 24*time.Hour)
	v.SetDefault("abuse.increment_timeout", 2*time.Second)
	v.SetDefault("bot.threshold", 0.6)
}
