/*
Package configs is responsible for loading and parsing the application's configuration.

All settings come from environment variables with development-friendly defaults:
server environment and port, CORS allowed origins, history replay, and the avatar
provider selection (random image URLs or an S3-hosted avatar gallery).
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Avatar provider selection values for AVATAR_SOURCE.
const (
	// AvatarSourceRandom serves random stock image URLs, no external service setup.
	AvatarSourceRandom = "random"

	// AvatarSourceS3 presigns download URLs for avatar objects in an S3 bucket.
	AvatarSourceS3 = "s3"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// ReplayHistory controls whether the in-memory message log is replayed to
	// newly connected clients.
	ReplayHistory bool

	// PublicDir, when set, is served as static assets from the HTTP root.
	PublicDir string

	// Security Settings
	AllowedOrigins []string

	// Avatar Provider Settings
	AvatarSource  string
	AvatarBaseURL string

	// S3 settings, required only when AvatarSource is "s3".
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3AvatarPrefix    string
}

// LoadConfig reads and parses the application configuration from environment
// variables, applying defaults and validating types and ranges.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	replayStr := os.Getenv("REPLAY_HISTORY")
	if replayStr == "" {
		replayStr = "true"
	}
	replay, err := strconv.ParseBool(replayStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REPLAY_HISTORY environment variable: %w", err)
	}
	cfg.ReplayHistory = replay

	cfg.PublicDir = os.Getenv("PUBLIC_DIR")

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Avatar Provider Settings ---
	cfg.AvatarSource = os.Getenv("AVATAR_SOURCE")
	if cfg.AvatarSource == "" {
		cfg.AvatarSource = AvatarSourceRandom
	}
	if cfg.AvatarSource != AvatarSourceRandom && cfg.AvatarSource != AvatarSourceS3 {
		return nil, fmt.Errorf("invalid AVATAR_SOURCE %q: must be %q or %q", cfg.AvatarSource, AvatarSourceRandom, AvatarSourceS3)
	}

	cfg.AvatarBaseURL = os.Getenv("AVATAR_BASE_URL")
	if cfg.AvatarBaseURL == "" {
		cfg.AvatarBaseURL = "https://source.unsplash.com/random"
	}

	if cfg.AvatarSource == AvatarSourceS3 {
		cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
		if cfg.S3BucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME environment variable is required when AVATAR_SOURCE is %q", AvatarSourceS3)
		}

		cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
		if cfg.S3Endpoint == "" {
			return nil, fmt.Errorf("S3_ENDPOINT environment variable is required when AVATAR_SOURCE is %q", AvatarSourceS3)
		}

		cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
		if cfg.S3AccessKeyID == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY_ID environment variable is required when AVATAR_SOURCE is %q", AvatarSourceS3)
		}

		cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
		if cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("S3_SECRET_ACCESS_KEY environment variable is required when AVATAR_SOURCE is %q", AvatarSourceS3)
		}

		cfg.S3AvatarPrefix = os.Getenv("S3_AVATAR_PREFIX")
		if cfg.S3AvatarPrefix == "" {
			cfg.S3AvatarPrefix = "avatars/"
		}
	}

	return cfg, nil
}
