package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "hubspace-bridge"
	EnvFileName = "config.env"
)

// Config holds everything the bridge needs to talk to the Hubspace cloud.
// All fields have working defaults; the hosts only need overriding in tests.
type Config struct {
	Port string

	AuthHost    string
	AuthRealm   string
	ClientID    string
	RedirectURI string
	UserAgent   string

	// ApiHost serves the user profile and metadevice resources. Metadevice
	// calls are routed through ApiHost but carry DataHost in the Host header,
	// which is how the Hubspace app reaches the semantics service.
	ApiHost  string
	DataHost string

	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// FromEnv builds a Config from environment variables, falling back to the
// defaults the Hubspace Android app uses.
func FromEnv() Config {
	return Config{
		Port:                 getenv("PORT", "3000"),
		AuthHost:             getenv("AUTH_HOST", "accounts.hubspaceconnect.com"),
		AuthRealm:            getenv("AUTH_REALM", "thd"),
		ClientID:             getenv("CLIENT_ID", "hubspace_android"),
		RedirectURI:          getenv("REDIRECT_URI", "hubspace-app://loginredirect"),
		UserAgent:            getenv("USER_AGENT", "Dart/3.1 (dart:io)"),
		ApiHost:              getenv("API_HOST", "api2.afero.net"),
		DataHost:             getenv("DATA_HOST", "semantics2.afero.net"),
		SessionIdleTTL:       getdur("SESSION_IDLE_TTL", time.Hour),
		SessionSweepInterval: getdur("SESSION_SWEEP_INTERVAL", time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
