// Package config loads deployment settings from a YAML file and environment
// variables. Every key has a default, so a zero-config start works against a
// local Ollama and an on-disk BadgerDB.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyDataDir        = "storage.data_dir"
	KeyInMemory       = "storage.in_memory"
	KeyEmbeddingHost  = "ai.embedding.host"
	KeyEmbeddingModel = "ai.embedding.model"
	KeyExtractorHost  = "ai.extractor.host"
	KeyExtractorModel = "ai.extractor.model"
	KeySessionBackend = "session.backend" // "badger" or "redis"
	KeySessionTTL     = "session.ttl"
	KeyHistoryLimit   = "session.history_limit"
	KeyRedisAddr      = "session.redis.addr"
	KeyRedisPassword  = "session.redis.password"
	KeyRedisDB        = "session.redis.db"
	KeyMessageLimit   = "limits.messages_per_window"
	KeySearchLimit    = "limits.searches_per_window"
	KeyRateWindow     = "limits.window"
	KeyMaxResults     = "query.max_results"
	KeyDeadline       = "query.deadline"
	KeyResultTTL      = "cache.result_ttl"
	KeyEmbedTTL       = "cache.embedding_ttl"
)

// Config is the resolved deployment configuration.
type Config struct {
	DataDir        string
	InMemory       bool
	EmbeddingHost  string
	EmbeddingModel string
	ExtractorHost  string
	ExtractorModel string
	SessionBackend string
	SessionTTL     time.Duration
	HistoryLimit   int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MessageLimit   int64
	SearchLimit    int64
	RateWindow     time.Duration
	MaxResults     int
	Deadline       time.Duration
	ResultTTL      time.Duration
	EmbedTTL       time.Duration
}

// Load reads configuration from path (optional) and the environment.
// Environment variables override file values; dots become underscores, so
// KeySessionBackend reads from SESSION_BACKEND.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		DataDir:        v.GetString(KeyDataDir),
		InMemory:       v.GetBool(KeyInMemory),
		EmbeddingHost:  v.GetString(KeyEmbeddingHost),
		EmbeddingModel: v.GetString(KeyEmbeddingModel),
		ExtractorHost:  v.GetString(KeyExtractorHost),
		ExtractorModel: v.GetString(KeyExtractorModel),
		SessionBackend: v.GetString(KeySessionBackend),
		SessionTTL:     v.GetDuration(KeySessionTTL),
		HistoryLimit:   v.GetInt(KeyHistoryLimit),
		RedisAddr:      v.GetString(KeyRedisAddr),
		RedisPassword:  v.GetString(KeyRedisPassword),
		RedisDB:        v.GetInt(KeyRedisDB),
		MessageLimit:   v.GetInt64(KeyMessageLimit),
		SearchLimit:    v.GetInt64(KeySearchLimit),
		RateWindow:     v.GetDuration(KeyRateWindow),
		MaxResults:     v.GetInt(KeyMaxResults),
		Deadline:       v.GetDuration(KeyDeadline),
		ResultTTL:      v.GetDuration(KeyResultTTL),
		EmbedTTL:       v.GetDuration(KeyEmbedTTL),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case "badger", "redis":
	default:
		return fmt.Errorf("session backend must be badger or redis, got %q", c.SessionBackend)
	}
	if c.SessionBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("redis session backend needs %s", KeyRedisAddr)
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("max results must be non-negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeyInMemory, false)
	v.SetDefault(KeyEmbeddingHost, "http://localhost:11434/v1")
	v.SetDefault(KeyEmbeddingModel, "embeddinggemma")
	v.SetDefault(KeyExtractorHost, "http://localhost:11434/v1")
	v.SetDefault(KeyExtractorModel, "qwen2.5:3b")
	v.SetDefault(KeySessionBackend, "badger")
	v.SetDefault(KeySessionTTL, 30*time.Minute)
	v.SetDefault(KeyHistoryLimit, 10)
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyMessageLimit, 200)
	v.SetDefault(KeySearchLimit, 50)
	v.SetDefault(KeyRateWindow, time.Hour)
	v.SetDefault(KeyMaxResults, 10)
	v.SetDefault(KeyDeadline, 5*time.Second)
	v.SetDefault(KeyResultTTL, time.Hour)
	v.SetDefault(KeyEmbedTTL, 24*time.Hour)
}
