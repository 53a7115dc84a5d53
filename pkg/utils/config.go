package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	Reset    ResetConfig
	Face     FaceConfig
	Security SecurityConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host          string
	Port          string
	Name          string
	User          string
	Password      string
	SSLMode       string
	MaxConns      int32
	AutoMigrate   bool
	MigrationsDir string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
	Issuer      string
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type ResetConfig struct {
	ExpiryMinutes int
	URLBase       string
}

type FaceConfig struct {
	Enabled        bool
	ModelDir       string
	UseCNN         bool
	MatchThreshold float64
	UploadDir      string
	MaxUploadMB    int64
}

type SecurityConfig struct {
	BcryptCost      int
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// MinSecretLength is the shortest JWT signing key accepted at startup.
const MinSecretLength = 32

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "ecom-backend")
	v.SetDefault("PORT", "8000")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("JWT_EXPIRY_HOURS", 7)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("RESET_TOKEN_EXPIRY_MINUTES", 10)
	v.SetDefault("RESET_URL_BASE", "http://localhost:3000/#/reset-password/")
	v.SetDefault("FACE_ENABLED", true)
	v.SetDefault("FACE_MODEL_DIR", "models/")
	v.SetDefault("FACE_USE_CNN", false)
	v.SetDefault("FACE_MATCH_THRESHOLD", 0.6)
	v.SetDefault("UPLOAD_DIR", os.TempDir())
	v.SetDefault("UPLOAD_MAX_MB", 5)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("LOGIN_RATE_LIMIT", 20)
	v.SetDefault("LOGIN_RATE_WINDOW", "1m")

	// .env is optional; the environment always wins
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			Name:          v.GetString("DB_NAME"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASS"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			MaxConns:      v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate:   v.GetBool("DB_AUTO_MIGRATE"),
			MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
			Issuer:      v.GetString("APP_NAME"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
		Reset: ResetConfig{
			ExpiryMinutes: v.GetInt("RESET_TOKEN_EXPIRY_MINUTES"),
			URLBase:       v.GetString("RESET_URL_BASE"),
		},
		Face: FaceConfig{
			Enabled:        v.GetBool("FACE_ENABLED"),
			ModelDir:       v.GetString("FACE_MODEL_DIR"),
			UseCNN:         v.GetBool("FACE_USE_CNN"),
			MatchThreshold: v.GetFloat64("FACE_MATCH_THRESHOLD"),
			UploadDir:      v.GetString("UPLOAD_DIR"),
			MaxUploadMB:    v.GetInt64("UPLOAD_MAX_MB"),
		},
		Security: SecurityConfig{
			BcryptCost:      v.GetInt("BCRYPT_COST"),
			LoginRateLimit:  v.GetInt("LOGIN_RATE_LIMIT"),
			LoginRateWindow: v.GetDuration("LOGIN_RATE_WINDOW"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings that must be correct before the server starts.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.Secret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.JWT.ExpiryHours <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_HOURS must be positive"))
	}
	if c.Security.BcryptCost < MinBcryptCost || c.Security.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", MinBcryptCost, bcrypt.MaxCost))
	}
	if c.Reset.ExpiryMinutes <= 0 {
		errs = append(errs, errors.New("RESET_TOKEN_EXPIRY_MINUTES must be positive"))
	}
	if c.Face.Enabled {
		if c.Face.ModelDir == "" {
			errs = append(errs, errors.New("FACE_MODEL_DIR is required when FACE_ENABLED is set"))
		}
		if c.Face.MatchThreshold <= 0 {
			errs = append(errs, errors.New("FACE_MATCH_THRESHOLD must be positive"))
		}
	}
	if c.Face.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_MB must be positive"))
	}

	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
