package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DatabaseURL string

	// Auth configuration
	JWTSecret   string
	TokenExpiry time.Duration

	// Economy configuration
	StartingCoins int64

	// GitHub API configuration
	GitHubTimeout time.Duration
	GitHubToken   string // optional server token for anonymous descriptor fetches

	// LLM configuration
	GeminiAPIKey string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Server
		Port: os.Getenv("PORT"),

		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Auth
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenExpiry: 15 * 24 * time.Hour,

		// Economy defaults
		StartingCoins: 100,

		// GitHub
		GitHubTimeout: 15 * time.Second,
		GitHubToken:   os.Getenv("GITHUB_TOKEN"),

		// LLM
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if coins := os.Getenv("STARTING_COINS"); coins != "" {
		if parsedCoins, err := strconv.ParseInt(coins, 10, 64); err == nil {
			config.StartingCoins = parsedCoins
		}
	}
	if timeout := os.Getenv("GITHUB_TIMEOUT_SECONDS"); timeout != "" {
		if parsedTimeout, err := strconv.Atoi(timeout); err == nil {
			config.GitHubTimeout = time.Duration(parsedTimeout) * time.Second
		}
	}
	if expiry := os.Getenv("TOKEN_EXPIRY_HOURS"); expiry != "" {
		if parsedExpiry, err := strconv.Atoi(expiry); err == nil {
			config.TokenExpiry = time.Duration(parsedExpiry) * time.Hour
		}
	}

	// Set defaults if not specified
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}
