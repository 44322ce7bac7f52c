package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	APIURL      string
	FrontendURL string
	CORSOrigins []string
	// Sessions
	JWTSecret  string
	SessionTTL time.Duration
	LinkSecret string
	// Storage
	StorageType      string
	LocalStoragePath string
	DataSourceName   string
	S3BucketName     string
	RedisURL         string
	// GitHub OAuth, used when OIDC is not configured
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string
	// OIDC (Google or any other issuer)
	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

func Load() Config {
	return Config{
		Addr:        getenv("LISTEN_ADDR", ":3002"),
		APIURL:      getenv("LIST_API_URL", "http://localhost:3001/api"),
		FrontendURL: getenv("FRONTEND_URL", "/"),
		CORSOrigins: getenvList("CORS_ORIGINS", []string{"https://*", "http://*"}),

		JWTSecret:  getenv("JWT_SECRET", ""),
		SessionTTL: time.Duration(getenvInt("SESSION_TTL_SECONDS", 30*24*3600)) * time.Second,
		LinkSecret: getenv("LINK_SECRET", ""),

		StorageType:      getenv("STORAGE_TYPE", "memory"),
		LocalStoragePath: getenv("LOCAL_STORAGE_PATH", "./data"),
		DataSourceName:   getenv("DATA_SOURCE_NAME", "listsync.db"),
		S3BucketName:     getenv("S3_BUCKET_NAME", ""),
		RedisURL:         getenv("REDIS_URL", "redis://localhost:6379/0"),

		GitHubClientID:     getenv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getenv("GITHUB_CLIENT_SECRET", ""),
		GitHubRedirectURL:  getenv("GITHUB_REDIRECT_URL", ""),

		OIDCIssuerURL:    getenv("OIDC_ISSUER_URL", ""),
		OIDCClientID:     getenv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getenv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getenv("OIDC_REDIRECT_URL", ""),
	}
}

// OIDCConfigured reports whether an OIDC issuer is set up.
func (c Config) OIDCConfigured() bool {
	return c.OIDCIssuerURL != "" && c.OIDCClientID != ""
}

// GitHubConfigured reports whether GitHub OAuth is set up.
func (c Config) GitHubConfigured() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
