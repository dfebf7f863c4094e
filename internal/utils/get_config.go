package utils

import (
	"errors"
	"os"
	"strconv"
	"sync"

	"foodgram/internal/logging"

	"gopkg.in/yaml.v2"
)

type Config struct {
	// Application
	AppPort   string `yaml:"APP_PORT"`
	AppURL    string `yaml:"APP_URL"`
	LogLevel  string `yaml:"LOG_LEVEL"`
	LogFormat string `yaml:"LOG_FORMAT"`
	LogFile   string `yaml:"LOG_FILE"`
	PageSize  string `yaml:"PAGE_SIZE"`

	// HTTP limits
	RateLimitMax string `yaml:"RATE_LIMIT_MAX"`
	CORSOrigins  string `yaml:"CORS_ORIGINS"`

	// Database configuration
	DBDriver   string `yaml:"DB_DRIVER"`
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`
	DBPath     string `yaml:"DB_PATH"`

	// JWT
	JWTSecret     string `yaml:"JWT_SECRET"`
	JWTTTLMinutes string `yaml:"JWT_TTL_MINUTES"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// Media storage
	StorageDriver string `yaml:"STORAGE_DRIVER"`
	MediaRoot     string `yaml:"MEDIA_ROOT"`
	MediaURL      string `yaml:"MEDIA_URL"`

	// UTF-8 TrueType font for PDF shopping lists
	PDFFontPath string `yaml:"PDF_FONT_PATH"`

	// AWS S3 configuration
	AWSS3Bucket   string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region   string `yaml:"AWS_S3_REGION"`
	AWSAccessKey  string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `yaml:"AWS_SECRET_KEY"`
	AWSS3Endpoint string `yaml:"AWS_S3_ENDPOINT"`
}

var (
	config   Config
	configMu sync.RWMutex
)

func defaultConfig() Config {
	return Config{
		AppPort:       "8080",
		AppURL:        "http://localhost:8080",
		LogLevel:      "info",
		LogFormat:     "json",
		PageSize:      "6",
		RateLimitMax:  "100",
		CORSOrigins:   "*",
		DBDriver:      "postgres",
		DBPort:        "5432",
		DBPath:        "foodgram.db",
		JWTTTLMinutes: "1440",
		SMTPPort:      "587",
		StorageDriver: "local",
		MediaRoot:     "./media",
		MediaURL:      "/media",
	}
}

// fields maps every config key to its backing value.
func (c *Config) fields() map[string]*string {
	return map[string]*string{
		"APP_PORT":           &c.AppPort,
		"APP_URL":            &c.AppURL,
		"LOG_LEVEL":          &c.LogLevel,
		"LOG_FORMAT":         &c.LogFormat,
		"LOG_FILE":           &c.LogFile,
		"PAGE_SIZE":          &c.PageSize,
		"RATE_LIMIT_MAX":     &c.RateLimitMax,
		"CORS_ORIGINS":       &c.CORSOrigins,
		"DB_DRIVER":          &c.DBDriver,
		"DB_USER":            &c.DBUser,
		"DB_NAME":            &c.DBName,
		"DB_PASSWORD":        &c.DBPassword,
		"DB_PORT":            &c.DBPort,
		"DB_HOST":            &c.DBHost,
		"DB_PATH":            &c.DBPath,
		"JWT_SECRET":         &c.JWTSecret,
		"JWT_TTL_MINUTES":    &c.JWTTTLMinutes,
		"SMTP_HOST":          &c.SMTPHost,
		"SMTP_PORT":          &c.SMTPPort,
		"SMTP_SENDER_NAME":   &c.SMTPSenderName,
		"SMTP_AUTH_EMAIL":    &c.SMTPAuthEmail,
		"SMTP_AUTH_PASSWORD": &c.SMTPAuthPassword,
		"STORAGE_DRIVER":     &c.StorageDriver,
		"MEDIA_ROOT":         &c.MediaRoot,
		"MEDIA_URL":          &c.MediaURL,
		"PDF_FONT_PATH":      &c.PDFFontPath,
		"AWS_S3_BUCKET":      &c.AWSS3Bucket,
		"AWS_S3_REGION":      &c.AWSS3Region,
		"AWS_ACCESS_KEY":     &c.AWSAccessKey,
		"AWS_SECRET_KEY":     &c.AWSSecretKey,
		"AWS_S3_ENDPOINT":    &c.AWSS3Endpoint,
	}
}

// LoadConfig reads the YAML file at path on top of the defaults. A missing
// file is not an error. Environment variables named like the YAML keys take
// precedence over the file.
func LoadConfig(path string) error {
	cfg := defaultConfig()

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return err
		}
	case errors.Is(err, os.ErrNotExist):
		logging.Warn().Str("path", path).Msg("config file not found, using defaults and environment")
	default:
		return err
	}

	for key, value := range cfg.fields() {
		if env, ok := os.LookupEnv(key); ok {
			*value = env
		}
	}

	configMu.Lock()
	config = cfg
	configMu.Unlock()
	return nil
}

func GetConfig(key string) string {
	configMu.RLock()
	defer configMu.RUnlock()

	if value, ok := config.fields()[key]; ok {
		return *value
	}
	return ""
}

func GetConfigInt(key string, fallback int) int {
	value, err := strconv.Atoi(GetConfig(key))
	if err != nil {
		return fallback
	}
	return value
}
