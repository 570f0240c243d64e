// Package config loads the service configuration from defaults, an optional
// YAML file, an optional .env file and VIDTUBE_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/vidtube/backend/internal/validation"
)

const (
	// EnvPrefix prefixes every environment variable the service reads.
	EnvPrefix = "VIDTUBE_"
	// FileEnvVar names the variable holding the optional YAML config path.
	FileEnvVar = EnvPrefix + "CONFIG_FILE"
	// DotEnvVar names the variable holding the optional .env path.
	DotEnvVar = EnvPrefix + "ENV_FILE"
)

// ObjectStoreConfig addresses the S3-compatible bucket holding media.
type ObjectStoreConfig struct {
	Bucket        string `koanf:"bucket"`
	Region        string `koanf:"region"`
	Endpoint      string `koanf:"endpoint" validate:"omitempty,url"`
	PublicBaseURL string `koanf:"public_base_url" validate:"omitempty,url"`
}

// Config captures the runtime configuration for the backend service.
type Config struct {
	AppPort       int    `koanf:"port" validate:"gte=1,lte=65535"`
	MongoURI      string `koanf:"mongo_uri" validate:"required,uri"`
	MongoDatabase string `koanf:"mongo_database" validate:"required"`
	LogLevel      string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat     string `koanf:"log_format" validate:"oneof=json console"`

	AccessTokenSecret  string        `koanf:"access_token_secret" validate:"required"`
	AccessTokenTTL     time.Duration `koanf:"access_token_ttl" validate:"gt=0"`
	RefreshTokenSecret string        `koanf:"refresh_token_secret" validate:"required"`
	RefreshTokenTTL    time.Duration `koanf:"refresh_token_ttl" validate:"gt=0"`
	SecureCookies      bool          `koanf:"secure_cookies"`

	CORSOrigins        []string `koanf:"cors_origins"`
	RateLimitPerMinute int      `koanf:"rate_limit_per_minute" validate:"gte=0"`
	AuthRateLimit      float64  `koanf:"auth_rate_limit" validate:"gte=0"`
	AuthRateBurst      int      `koanf:"auth_rate_burst" validate:"gte=0"`

	UploadDir      string        `koanf:"upload_dir"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes" validate:"gt=0"`
	FFProbePath    string        `koanf:"ffprobe_path"`
	ProbeTimeout   time.Duration `koanf:"probe_timeout" validate:"gt=0"`

	ViewWorkers   int `koanf:"view_workers" validate:"gte=1"`
	ViewQueueSize int `koanf:"view_queue_size" validate:"gte=1"`

	ObjectStore ObjectStoreConfig `koanf:"object_store"`
}

// Defaults returns the configuration used for local development.
func Defaults() Config {
	return Config{
		AppPort:            8000,
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "vidtube",
		LogLevel:           "info",
		LogFormat:          "json",
		AccessTokenTTL:     24 * time.Hour,
		RefreshTokenTTL:    10 * 24 * time.Hour,
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: 300,
		AuthRateLimit:      1,
		AuthRateBurst:      5,
		UploadDir:          os.TempDir(),
		MaxUploadBytes:     512 << 20,
		FFProbePath:        "ffprobe",
		ProbeTimeout:       15 * time.Second,
		ViewWorkers:        2,
		ViewQueueSize:      256,
		ObjectStore:        ObjectStoreConfig{Region: "us-east-1"},
	}
}

// sliceKeys are read from comma-separated environment values.
var sliceKeys = []string{"cors_origins"}

// Load reads the configuration and validates it.
func Load() (Config, error) {
	if err := loadDotEnv(os.Getenv(DotEnvVar)); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(FileEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSlices(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports missing secrets and out-of-range settings.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// loadDotEnv applies a .env file without overriding variables that are
// already set. A missing default file is ignored.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// envKey maps VIDTUBE_OBJECT_STORE__BUCKET to object_store.bucket and
// VIDTUBE_MONGO_URI to mongo_uri. Koanf drops variables mapped to "".
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	switch key {
	case "config_file", "env_file":
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
