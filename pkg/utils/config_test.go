package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.AllowedOrigins)
	assert.Equal(t, 7, cfg.JWT.ExpiryHours)
	assert.Equal(t, 10, cfg.Reset.ExpiryMinutes)
	assert.Equal(t, 0.6, cfg.Face.MatchThreshold)
	assert.Equal(t, 10, cfg.Security.BcryptCost)
	assert.Equal(t, time.Minute, cfg.Security.LoginRateWindow)
	assert.Equal(t, 10*time.Second, cfg.App.ShutdownTimeout)
}

func TestLoadConfig_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	env := "JWT_SECRET=" + testSecret + "\nDB_NAME=shop\nFACE_ENABLED=false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Database.Name)
	assert.False(t, cfg.Face.Enabled)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestConfigValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		JWT:      JWTConfig{Secret: strings.Repeat("s", MinSecretLength - 1), ExpiryHours: 7},
		Security: SecurityConfig{BcryptCost: 4},
		Reset:    ResetConfig{ExpiryMinutes: 10},
		Face:     FaceConfig{Enabled: true, MatchThreshold: 0, MaxUploadMB: 5},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"JWT_SECRET", "BCRYPT_COST", "FACE_MODEL_DIR", "FACE_MATCH_THRESHOLD"} {
		assert.Contains(t, err.Error(), want)
	}
}
