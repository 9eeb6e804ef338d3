package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "id123")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret456")
	t.Setenv("REDDIT_USER_AGENT", "harvester-test/0.1")
	t.Setenv("COLLECTOR_MODE", "api")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "id123", cfg.ClientID)
	assert.Equal(t, "secret456", cfg.ClientSecret)
	assert.Equal(t, "api", cfg.Mode)
	assert.NoError(t, cfg.ValidateForAPI())
}

func TestLoadDefaultMode(t *testing.T) {
	t.Setenv("COLLECTOR_MODE", "placeholder")
	os.Unsetenv("COLLECTOR_MODE")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.Mode)
}

func TestValidateForAPI(t *testing.T) {
	creds := Credentials{ClientID: "id", UserAgent: "ua"}
	err := creds.ValidateForAPI()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
