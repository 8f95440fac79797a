package config

import (
	"VoiceShelf/pkg/logger"
	"VoiceShelf/pkg/util"
	"log"
	"os"
	"time"
)

// config/config.go
type Config struct {
	DBDriver           string        `env:"DB_DRIVER"`
	DSN                string        `env:"DSN"`
	Addr               string        `env:"ADDR"`
	Mode               string        `env:"MODE"`
	APIPrefix          string        `env:"API_PREFIX"`
	AuthPrefix         string        `env:"AUTH_PREFIX"`
	MonitorPrefix      string        `env:"MONITOR_PREFIX"`
	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionExpireDays  int           `env:"SESSION_EXPIRE_DAYS"`
	DefaultLanguage    string        `env:"DEFAULT_LANGUAGE"`
	BotnoiBaseURL      string        `env:"BOTNOI_BASE_URL"`
	SynthTimeout       time.Duration `env:"SYNTH_TIMEOUT"`
	UploadMaxBytes     int64         `env:"UPLOAD_MAX_BYTES"`
	ExtractCacheSize   int           `env:"EXTRACT_CACHE_SIZE"`
	CacheType          string        `env:"CACHE_TYPE"`
	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB"`
	CredentialCacheTTL time.Duration `env:"CREDENTIAL_CACHE_TTL"`
	RateLimit          string        `env:"RATE_LIMIT"`
	SearchEnabled      bool          `env:"SEARCH_ENABLED"`
	SearchPath         string        `env:"SEARCH_PATH"`
	StorageType        string        `env:"STORAGE_TYPE"`
	StorageDir         string        `env:"STORAGE_DIR"`
	MediaPrefix        string        `env:"MEDIA_PREFIX"`
	MinioEndpoint      string        `env:"MINIO_ENDPOINT"`
	MinioAccessKey     string        `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey     string        `env:"MINIO_SECRET_KEY"`
	MinioBucket        string        `env:"MINIO_BUCKET"`
	MinioUseSSL        bool          `env:"MINIO_USE_SSL"`
	MinioPublicBase    string        `env:"MINIO_PUBLIC_BASE"`
	BackupEnabled      bool          `env:"BACKUP_ENABLED"`
	BackupPath         string        `env:"BACKUP_PATH"`
	BackupSchedule     string        `env:"BACKUP_SCHEDULE"`

	Log logger.LogConfig
}

var GlobalConfig *Config

func Load() error {
	// 1. .env files per APP_ENV
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. global config
	GlobalConfig = &Config{
		DBDriver:          util.GetEnv("DB_DRIVER"),
		DSN:               util.GetEnv("DSN"),
		Addr:              stringOr(util.GetEnv("ADDR"), ":8080"),
		Mode:              stringOr(util.GetEnv("MODE"), "release"),
		APIPrefix:         stringOr(util.GetEnv("API_PREFIX"), "/api"),
		AuthPrefix:        stringOr(util.GetEnv("AUTH_PREFIX"), "/auth"),
		MonitorPrefix:     stringOr(util.GetEnv("MONITOR_PREFIX"), "/metrics"),
		SessionSecret:     util.GetEnv("SESSION_SECRET"),
		SessionExpireDays: intOr(util.GetIntEnv("SESSION_EXPIRE_DAYS"), 7),
		DefaultLanguage:   stringOr(util.GetEnv("DEFAULT_LANGUAGE"), "th"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		BotnoiBaseURL:      util.GetEnv("BOTNOI_BASE_URL"),
		SynthTimeout:       durationOr(util.GetDurationEnv("SYNTH_TIMEOUT"), 60*time.Second),
		UploadMaxBytes:     int64(intOr(util.GetIntEnv("UPLOAD_MAX_BYTES"), 20<<20)),
		ExtractCacheSize:   intOr(util.GetIntEnv("EXTRACT_CACHE_SIZE"), 64),
		CacheType:          stringOr(util.GetEnv("CACHE_TYPE"), "local"),
		RedisAddr:          util.GetEnv("REDIS_ADDR"),
		RedisPassword:      util.GetEnv("REDIS_PASSWORD"),
		RedisDB:            int(util.GetIntEnv("REDIS_DB")),
		CredentialCacheTTL: durationOr(util.GetDurationEnv("CREDENTIAL_CACHE_TTL"), 5*time.Minute),
		RateLimit:          stringOr(util.GetEnv("RATE_LIMIT"), "30-M"),
		SearchEnabled:      util.GetBoolEnv("SEARCH_ENABLED"),
		SearchPath:         util.GetEnv("SEARCH_PATH"),
		StorageType:        stringOr(util.GetEnv("STORAGE_TYPE"), "local"),
		StorageDir:         stringOr(util.GetEnv("STORAGE_DIR"), "media"),
		MediaPrefix:        stringOr(util.GetEnv("MEDIA_PREFIX"), "/media"),
		MinioEndpoint:      util.GetEnv("MINIO_ENDPOINT"),
		MinioAccessKey:     util.GetEnv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     util.GetEnv("MINIO_SECRET_KEY"),
		MinioBucket:        stringOr(util.GetEnv("MINIO_BUCKET"), "voiceshelf"),
		MinioUseSSL:        util.GetBoolEnv("MINIO_USE_SSL"),
		MinioPublicBase:    util.GetEnv("MINIO_PUBLIC_BASE"),
		BackupEnabled:      util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:         stringOr(util.GetEnv("BACKUP_PATH"), "backups"),
		BackupSchedule:     stringOr(util.GetEnv("BACKUP_SCHEDULE"), "0 3 * * *"),
	}
	if GlobalConfig.SessionSecret == "" {
		log.Printf("SESSION_SECRET is empty, sessions will not survive a restart")
	}
	return nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v int64, def int) int {
	if v <= 0 {
		return def
	}
	return int(v)
}

func durationOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
