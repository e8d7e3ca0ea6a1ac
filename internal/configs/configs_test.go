package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"ENVIRONMENT", "PORT", "REPLAY_HISTORY", "PUBLIC_DIR", "ALLOWED_ORIGINS",
		"AVATAR_SOURCE", "AVATAR_BASE_URL",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_AVATAR_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.ReplayHistory)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, AvatarSourceRandom, cfg.AvatarSource)
	assert.Equal(t, "https://source.unsplash.com/random", cfg.AvatarBaseURL)
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port string
	}{
		{name: "not a number", port: "eight"},
		{name: "privileged", port: "80"},
		{name: "out of range", port: "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PORT", tt.port)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ParsesOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfig_ReplayHistoryToggle(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPLAY_HISTORY", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.ReplayHistory)

	t.Setenv("REPLAY_HISTORY", "maybe")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_AvatarSourceValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("AVATAR_SOURCE", "carrier-pigeon")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_S3SourceRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("AVATAR_SOURCE", AvatarSourceS3)

	_, err := LoadConfig()
	require.Error(t, err, "missing S3 settings must be rejected")

	t.Setenv("S3_BUCKET_NAME", "avatars")
	t.Setenv("S3_ENDPOINT", "https://s3.example")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "avatars/", cfg.S3AvatarPrefix, "prefix defaults when unset")
}
