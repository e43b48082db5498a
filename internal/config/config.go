package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Env var names used as overrides.
const (
	EnvConfigFile      = "MANGA_CONFIG"
	EnvEnv             = "ENV"
	EnvHTTPPort        = "MANGA_HTTP_PORT"
	EnvStoreBackend    = "MANGA_STORE"
	EnvCompression     = "MANGA_COMPRESSION"
	EnvDBDriver        = "MANGA_DB_DRIVER"
	EnvDBDSN           = "MANGA_DB_DSN"
	EnvRedisAddr       = "MANGA_REDIS_ADDR"
	EnvRedisPassword   = "MANGA_REDIS_PASSWORD"
	EnvRedisDB         = "MANGA_REDIS_DB"
	EnvKafkaBrokers    = "MANGA_KAFKA_BROKERS"
	EnvKafkaTopic      = "MANGA_KAFKA_TOPIC"
	EnvLogLevel        = "MANGA_LOG_LEVEL"
	EnvLogFormat       = "MANGA_LOG_FORMAT"
	EnvLogFile         = "MANGA_LOG_FILE"
	EnvBackupKeep      = "MANGA_BACKUP_KEEP"
	EnvBackupSchedule  = "MANGA_BACKUP_SCHEDULE"
	EnvRateLimit       = "MANGA_RATE_LIMIT"
	EnvRateBurst       = "MANGA_RATE_BURST"
	EnvAllowedOrigins  = "MANGA_ALLOWED_ORIGINS"
	EnvPublishCacheTTL = "MANGA_PUBLISH_CACHE_TTL"
	EnvPublishCache    = "MANGA_PUBLISH_CACHE"
)

// Store backends.
const (
	StoreGorm   = "gorm"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Published record caches.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type HTTPConfig struct {
	Port           string   `yaml:"port"`
	RateLimit      float64  `yaml:"rate_limit"` // requests per second, 0 disables throttling
	RateBurst      int      `yaml:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"`     // gorm, memory or redis
	Compression string `yaml:"compression"` // none, gzip, brotli or lz4
}

type DBConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers string `yaml:"brokers"` // empty disables change events
	Topic   string `yaml:"topic"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type BackupConfig struct {
	Keep     int    `yaml:"keep"`
	Schedule string `yaml:"schedule"` // cron spec
}

type PublishConfig struct {
	Cache    string        `yaml:"cache"` // memory or redis
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type Config struct {
	Env     string        `yaml:"env"`
	HTTP    HTTPConfig    `yaml:"http"`
	Store   StoreConfig   `yaml:"store"`
	DB      DBConfig      `yaml:"db"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Log     LogConfig     `yaml:"log"`
	Backup  BackupConfig  `yaml:"backup"`
	Publish PublishConfig `yaml:"publish"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Port:           "4020",
			RateLimit:      50,
			RateBurst:      100,
			AllowedOrigins: []string{"*"},
		},
		Store: StoreConfig{Backend: StoreGorm, Compression: "gzip"},
		DB:    DBConfig{Driver: "sqlite", DSN: ".tmp/db/manga.db"},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{Topic: "manga.project.changes"},
		Log:   LogConfig{Level: "info", Format: "text", MaxSizeMB: 10, MaxBackups: 3},
		Backup: BackupConfig{
			Keep:     20,
			Schedule: "@every 10m",
		},
		Publish: PublishConfig{Cache: CacheMemory, CacheTTL: time.Minute},
	}
}

// LoadConfig reads .env, then the optional YAML file named by MANGA_CONFIG,
// then applies environment overrides on top.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("error loading .env file: %v", err)
	}

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			logrus.Warnf("error loading config file %s: %v", path, err)
		}
	}
	applyEnvOverrides(cfg)

	return cfg
}

// LoadFile merges a YAML config file into cfg. Keys missing from the file
// keep their current value.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Env, EnvEnv)
	setString(&cfg.HTTP.Port, EnvHTTPPort)
	setString(&cfg.Store.Backend, EnvStoreBackend)
	setString(&cfg.Store.Compression, EnvCompression)
	setString(&cfg.DB.Driver, EnvDBDriver)
	setString(&cfg.DB.DSN, EnvDBDSN)
	setString(&cfg.Redis.Addr, EnvRedisAddr)
	setString(&cfg.Redis.Password, EnvRedisPassword)
	setInt(&cfg.Redis.DB, EnvRedisDB)
	setString(&cfg.Kafka.Brokers, EnvKafkaBrokers)
	setString(&cfg.Kafka.Topic, EnvKafkaTopic)
	setString(&cfg.Log.Level, EnvLogLevel)
	setString(&cfg.Log.Format, EnvLogFormat)
	setString(&cfg.Log.File, EnvLogFile)
	setInt(&cfg.Backup.Keep, EnvBackupKeep)
	setString(&cfg.Backup.Schedule, EnvBackupSchedule)
	setInt(&cfg.HTTP.RateBurst, EnvRateBurst)
	setString(&cfg.Publish.Cache, EnvPublishCache)

	if v := strings.TrimSpace(os.Getenv(EnvRateLimit)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HTTP.RateLimit = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAllowedOrigins)); v != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v := strings.TrimSpace(os.Getenv(EnvPublishCacheTTL)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Publish.CacheTTL = d
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
