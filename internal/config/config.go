package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type FilesConfig struct {
	RootDir  string `yaml:"root_dir"`
	FontPath string `yaml:"font_path"` // TTF для PDF; пусто = Helvetica
}

type StorageConfig struct {
	Driver        string `yaml:"driver"` // local | s3
	Bucket        string `yaml:"bucket"`
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type SearchConfig struct {
	ElasticURL  string `yaml:"elastic_url"`
	IndexPrefix string `yaml:"index_prefix"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	JWT   JWTConfig `yaml:"jwt"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	App struct {
		FrontendURL string `yaml:"frontend_url"`
	} `yaml:"app"`
	Analysis struct {
		Delay time.Duration `yaml:"delay"`
	} `yaml:"analysis"`
	Files   FilesConfig   `yaml:"files"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Log     LogConfig     `yaml:"log"`
}

// LoadConfig reads .env, then the YAML file, then applies env overrides.
// A missing YAML file is not an error; defaults and env still apply.
func LoadConfig() *Config {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := Load(path)
	if err != nil {
		panic("Failed to parse config: " + err.Error())
	}
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./files"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
	}
	if cfg.Search.IndexPrefix == "" {
		cfg.Search.IndexPrefix = "metrika"
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.JWT.Secret = "change-me"
	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.JWT.RefreshTTL = 30 * 24 * time.Hour
	cfg.App.FrontendURL = "https://metrika.vercel.app"
	cfg.Analysis.Delay = 2 * time.Second
	cfg.Files.RootDir = "./files"
	cfg.Storage.Driver = "local"
	cfg.Storage.Region = "auto"
	cfg.Log = LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30}
	return cfg
}

func applyEnv(c *Config) {
	envOverrideInt(&c.Server.Port, "PORT")
	envOverride(&c.Database.DSN, "DATABASE_URL")
	envOverride(&c.JWT.Secret, "JWT_SECRET")
	envOverride(&c.Email.SMTPHost, "SMTP_HOST")
	envOverrideInt(&c.Email.SMTPPort, "SMTP_PORT")
	envOverride(&c.Email.SMTPUser, "SMTP_USER")
	envOverride(&c.Email.SMTPPassword, "SMTP_PASSWORD")
	envOverride(&c.Email.FromEmail, "SMTP_FROM")
	envOverride(&c.App.FrontendURL, "FRONTEND_URL")
	envOverride(&c.Files.RootDir, "FILES_ROOT_DIR")
	envOverride(&c.Files.FontPath, "PDF_FONT_PATH")
	envOverride(&c.Storage.Driver, "STORAGE_DRIVER")
	envOverride(&c.Storage.Bucket, "S3_BUCKET")
	envOverride(&c.Storage.Endpoint, "S3_ENDPOINT")
	envOverride(&c.Storage.Region, "S3_REGION")
	envOverride(&c.Storage.AccessKey, "S3_ACCESS_KEY_ID")
	envOverride(&c.Storage.SecretKey, "S3_SECRET_ACCESS_KEY")
	envOverride(&c.Storage.PublicBaseURL, "S3_PUBLIC_BASE_URL")
	envOverride(&c.Search.ElasticURL, "ELASTIC_URL")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	if v := os.Getenv("ANALYSIS_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Analysis.Delay = d
		}
	}
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
