package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Storage   StorageConfig
	Ledger    LedgerConfig
	Artifacts ArtifactsConfig
	Platform  PlatformConfig
	Redis     RedisConfig
	Cache     CacheConfig
	CORS      CORSConfig
	Log       LogConfig
	Digest    DigestConfig
}

// StorageConfig locates the flat files backing the ledger.
type StorageConfig struct {
	DataDir       string
	RosterFile    string
	LedgerFile    string
	PendingFile   string
	SequenceFile  string
	InterviewFile string
	VersionFile   string
	BackupDir     string
	BackupRetain  int
}

// LedgerConfig holds point change limits.
type LedgerConfig struct {
	PointLimit       int
	CommentMaxLength int
}

// ArtifactsConfig controls rendered charts and exports.
type ArtifactsConfig struct {
	Dir           string
	SigningSecret string
	TTL           time.Duration
	RenderTimeout time.Duration
}

// PlatformConfig describes how the chat platform adapter authenticates and which roles it maps.
type PlatformConfig struct {
	TokenSecret  string
	MemberRole   string
	ApproverRole string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig tunes cached read models.
type CacheConfig struct {
	TTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level     string
	Format    string
	File      string
	Retention time.Duration
}

// DigestConfig schedules the nightly rankings digest.
type DigestConfig struct {
	Enabled  bool
	Times    []string
	Webhooks []string
	Retries  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	dataDir := v.GetString("DATA_DIR")
	cfg.Storage = StorageConfig{
		DataDir:       dataDir,
		RosterFile:    inDir(dataDir, v.GetString("ROSTER_FILE")),
		LedgerFile:    inDir(dataDir, v.GetString("LEDGER_FILE")),
		PendingFile:   inDir(dataDir, v.GetString("PENDING_FILE")),
		SequenceFile:  inDir(dataDir, v.GetString("PENDING_SEQUENCE_FILE")),
		InterviewFile: inDir(dataDir, v.GetString("INTERVIEW_FILE")),
		VersionFile:   inDir(dataDir, v.GetString("SCHEMA_VERSION_FILE")),
		BackupDir:     inDir(dataDir, v.GetString("BACKUP_DIR")),
		BackupRetain:  v.GetInt("BACKUP_RETAIN"),
	}
	if cfg.Storage.BackupRetain <= 0 {
		cfg.Storage.BackupRetain = 20
	}

	cfg.Ledger = LedgerConfig{
		PointLimit:       v.GetInt("POINT_LIMIT"),
		CommentMaxLength: v.GetInt("COMMENT_MAX_LENGTH"),
	}

	cfg.Artifacts = ArtifactsConfig{
		Dir:           inDir(dataDir, v.GetString("ARTIFACT_DIR")),
		SigningSecret: v.GetString("ARTIFACT_SIGNING_SECRET"),
		TTL:           parseDuration(v.GetString("ARTIFACT_TTL"), 30*time.Minute),
		RenderTimeout: parseDuration(v.GetString("RENDER_TIMEOUT"), 10*time.Second),
	}

	cfg.Platform = PlatformConfig{
		TokenSecret:  v.GetString("PLATFORM_TOKEN_SECRET"),
		MemberRole:   v.GetString("ROLE_MEMBER"),
		ApproverRole: v.GetString("ROLE_APPROVER"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{TTL: parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute)}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:     v.GetString("LOG_LEVEL"),
		Format:    v.GetString("LOG_FORMAT"),
		File:      v.GetString("LOG_FILE"),
		Retention: parseDuration(v.GetString("LOG_RETENTION"), 72*time.Hour),
	}

	cfg.Digest = DigestConfig{
		Enabled:  v.GetBool("DIGEST_ENABLED"),
		Times:    splitAndTrim(v.GetString("DIGEST_TIMES")),
		Webhooks: splitAndTrim(v.GetString("DIGEST_WEBHOOKS")),
		Retries:  v.GetInt("DIGEST_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DATA_DIR", ".")
	v.SetDefault("ROSTER_FILE", "pledges.csv")
	v.SetDefault("LEDGER_FILE", "Points.csv")
	v.SetDefault("PENDING_FILE", "PendingPoints.csv")
	v.SetDefault("PENDING_SEQUENCE_FILE", "pending.seq")
	v.SetDefault("INTERVIEW_FILE", "interviews.csv")
	v.SetDefault("SCHEMA_VERSION_FILE", "schema_version")
	v.SetDefault("BACKUP_DIR", "backups")
	v.SetDefault("BACKUP_RETAIN", 20)

	v.SetDefault("POINT_LIMIT", 35)
	v.SetDefault("COMMENT_MAX_LENGTH", 500)

	v.SetDefault("ARTIFACT_DIR", "artifacts")
	v.SetDefault("ARTIFACT_SIGNING_SECRET", "dev_artifacts_secret")
	v.SetDefault("ARTIFACT_TTL", "30m")
	v.SetDefault("RENDER_TIMEOUT", "10s")

	v.SetDefault("PLATFORM_TOKEN_SECRET", "dev_platform_secret")
	v.SetDefault("ROLE_MEMBER", "Brother")
	v.SetDefault("ROLE_APPROVER", "VP Internal")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "bot.log")
	v.SetDefault("LOG_RETENTION", "72h")

	v.SetDefault("DIGEST_ENABLED", false)
	v.SetDefault("DIGEST_TIMES", "05:00,06:00")
	v.SetDefault("DIGEST_WEBHOOKS", "")
	v.SetDefault("DIGEST_RETRIES", 3)
}

func inDir(dir, name string) string {
	if name == "" || filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
