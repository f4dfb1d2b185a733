package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecrets(t *testing.T, dir string, secrets map[string]string) {
	t.Helper()
	for name, value := range secrets {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0o600))
	}
}

func devSecrets() map[string]string {
	return map[string]string{
		"db_user":        "flarelog",
		"db_password":    "dev-password",
		"jwt_secret":     "dev-jwt-secret",
		"redis_password": "",
		"db_host":        "localhost",
		"db_port":        "5432",
		"db_name":        "flarelog",
		"db_ssl_mode":    "disable",
		"redis_host":     "localhost",
		"redis_port":     "6379",
		"redis_url":      "",
		"server_port":    "8080",
		"server_host":    "0.0.0.0",
	}
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "")

	t.Run("defaults to development", func(t *testing.T) {
		t.Setenv("ENV", "")
		assert.Equal(t, Development, GetEnvironment())
		assert.True(t, IsDevelopment())
	})

	t.Run("production", func(t *testing.T) {
		t.Setenv("ENV", "production")
		assert.Equal(t, Production, GetEnvironment())
		assert.True(t, IsProduction())
	})

	t.Run("CI wins over ENV", func(t *testing.T) {
		t.Setenv("CI", "true")
		t.Setenv("ENV", "production")
		assert.Equal(t, CI, GetEnvironment())
		assert.True(t, IsCI())
	})
}

func TestLoadConfigFromSecretFiles(t *testing.T) {
	dir := t.TempDir()
	writeSecrets(t, dir, devSecrets())

	t.Setenv("CI", "")
	t.Setenv("ENV", "development")
	t.Setenv("SECRETS_DIR", dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "flarelog", cfg.DBUser)
	assert.Equal(t, "dev-password", cfg.DBPassword)
	assert.Equal(t, "dev-jwt-secret", cfg.JWTSecret)
	assert.Equal(t, "disable", cfg.DBSSLMode)
}

func TestLoadConfigMissingSecret(t *testing.T) {
	dir := t.TempDir()
	secrets := devSecrets()
	delete(secrets, "jwt_secret")
	writeSecrets(t, dir, secrets)

	t.Setenv("CI", "")
	t.Setenv("ENV", "development")
	t.Setenv("SECRETS_DIR", dir)

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidateConfig(t *testing.T) {
	valid := &Config{
		ServerPort: "8080",
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "flarelog",
		DBPassword: "secret",
		DBName:     "flarelog",
		JWTSecret:  "jwt",
	}
	assert.NoError(t, ValidateConfig(valid))

	t.Run("missing required field", func(t *testing.T) {
		cfg := *valid
		cfg.DBHost = ""
		err := ValidateConfig(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_host")
	})

	t.Run("missing secrets reported together", func(t *testing.T) {
		cfg := *valid
		cfg.DBPassword = ""
		cfg.JWTSecret = ""
		err := ValidateConfig(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_password")
		assert.Contains(t, err.Error(), "jwt_secret")
	})
}
