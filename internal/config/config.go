package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Trakt
	TraktClientID     string
	TraktClientSecret string

	// Sync
	TrendingPageSize  int    // rows per trending page (default: 20)
	WatchedSyncCron   string // schedule for the watched-show sync
	TrendingSyncCron  string // schedule for the trending refresh
	PendingUploadCron string // schedule for pushing pending watch entries

	// Server
	ServerPort string

	// Paths
	TokenFile    string // $CONFIG_DIR/token.json
	DatabaseFile string // $CONFIG_DIR/showsync.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("TRENDING_PAGE_SIZE", 20)
	viper.SetDefault("WATCHED_SYNC_CRON", "0 */6 * * *")
	viper.SetDefault("TRENDING_SYNC_CRON", "0 */12 * * *")
	viper.SetDefault("PENDING_UPLOAD_CRON", "*/15 * * * *")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "showsync")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// Trakt
		TraktClientID:     viper.GetString("TRAKT_CLIENT_ID"),
		TraktClientSecret: viper.GetString("TRAKT_CLIENT_SECRET"),

		// Sync
		TrendingPageSize:  viper.GetInt("TRENDING_PAGE_SIZE"),
		WatchedSyncCron:   viper.GetString("WATCHED_SYNC_CRON"),
		TrendingSyncCron:  viper.GetString("TRENDING_SYNC_CRON"),
		PendingUploadCron: viper.GetString("PENDING_UPLOAD_CRON"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Paths
		TokenFile:    filepath.Join(configDir, "token.json"),
		DatabaseFile: filepath.Join(configDir, "showsync.db"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.TraktClientID == "" {
		return nil, fmt.Errorf("TRAKT_CLIENT_ID is required")
	}
	if config.TraktClientSecret == "" {
		return nil, fmt.Errorf("TRAKT_CLIENT_SECRET is required")
	}
	if config.TrendingPageSize <= 0 {
		return nil, fmt.Errorf("TRENDING_PAGE_SIZE must be positive")
	}

	return config, nil
}
