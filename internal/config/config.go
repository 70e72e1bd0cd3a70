// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBaseURL   string
	ListenAddr   string
	DBPath       string
	SecretKey    []byte
	StockPoll    time.Duration
	RefreshDelay time.Duration
	// StorefrontSessionFirst makes storefront pages use the storefront
	// customer session even when an admin session exists.
	StorefrontSessionFirst bool
	CORSOrigins            []string
}

// HasSecretKey reports whether session values can be encrypted.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) == 32
}

// LoadDotEnv loads variables from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables and returns a validated Config.
// TIENDAPANEL_API_BASE_URL is required. Optional variables with defaults:
// TIENDAPANEL_LISTEN_ADDR (127.0.0.1:8080), TIENDAPANEL_DB_PATH (tiendapanel.db),
// TIENDAPANEL_STOCK_POLL_INTERVAL (60s), TIENDAPANEL_REFRESH_DELAY (1s),
// TIENDAPANEL_STOREFRONT_SESSION_FIRST (false). TIENDAPANEL_SECRET_KEY (64 hex
// chars) and TIENDAPANEL_CORS_ORIGINS (comma separated) have no default.
func Load() (*Config, error) {
	baseURL := strings.TrimSpace(os.Getenv("TIENDAPANEL_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("TIENDAPANEL_API_BASE_URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("TIENDAPANEL_API_BASE_URL must be an absolute URL, got %q", baseURL)
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("TIENDAPANEL_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "tiendapanel.db"
	if v, ok := os.LookupEnv("TIENDAPANEL_DB_PATH"); ok {
		dbPath = v
	}

	stockPoll, err := durationEnv("TIENDAPANEL_STOCK_POLL_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}
	if stockPoll <= 0 {
		return nil, fmt.Errorf("TIENDAPANEL_STOCK_POLL_INTERVAL must be positive, got %s", stockPoll)
	}

	refreshDelay, err := durationEnv("TIENDAPANEL_REFRESH_DELAY", time.Second)
	if err != nil {
		return nil, err
	}

	var secretKey []byte
	if v := strings.TrimSpace(os.Getenv("TIENDAPANEL_SECRET_KEY")); v != "" {
		secretKey, err = hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("TIENDAPANEL_SECRET_KEY is not valid hex: %w", err)
		}
		if len(secretKey) != 32 {
			return nil, fmt.Errorf("TIENDAPANEL_SECRET_KEY must decode to 32 bytes, got %d", len(secretKey))
		}
	}

	storefrontFirst := false
	if v, ok := os.LookupEnv("TIENDAPANEL_STOREFRONT_SESSION_FIRST"); ok && v != "" {
		storefrontFirst, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TIENDAPANEL_STOREFRONT_SESSION_FIRST has invalid boolean %q: %w", v, err)
		}
	}

	origins := []string{}
	if v, ok := os.LookupEnv("TIENDAPANEL_CORS_ORIGINS"); ok && v != "" {
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	return &Config{
		APIBaseURL:             baseURL,
		ListenAddr:             listenAddr,
		DBPath:                 dbPath,
		SecretKey:              secretKey,
		StockPoll:              stockPoll,
		RefreshDelay:           refreshDelay,
		StorefrontSessionFirst: storefrontFirst,
		CORSOrigins:            origins,
	}, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, parsed)
	}
	return parsed, nil
}
