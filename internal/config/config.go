// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Cache      CacheConfig
	AI         AIConfig
	Pagination PaginationConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	// Debug exposes internal error causes in 500 responses.
	Debug bool
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	// LoginRate is the per-IP login attempt rate (attempts per second).
	LoginRate  float64
	LoginBurst int
}

// DatabaseConfig holds relational store configuration.
type DatabaseConfig struct {
	// DataPath is the directory for the database and the generated key file.
	DataPath string
	// Path is the SQLite file (default: {DataPath}/bookshelf.db).
	Path string
}

// AuthConfig holds token configuration.
type AuthConfig struct {
	// SecretKey signs access tokens. Loaded or generated under DataPath when empty.
	SecretKey           []byte
	AccessTokenDuration time.Duration
}

// CacheConfig holds Redis cache configuration.
type CacheConfig struct {
	Enabled   bool
	Host      string
	Port      int
	DB        int
	Password  string
	TTL       time.Duration
	ScanCount int
}

// Addr returns host:port.
func (c CacheConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AIConfig holds summarizer configuration. BaseURL points at any
// OpenAI-compatible chat completions API.
type AIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// PaginationConfig bounds list endpoints.
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	debug := fs.String("debug", "", "Expose internal error details (default: false)")
	dataPath := fs.String("data-path", "", "Directory for the database and key file")
	dbPath := fs.String("database-path", "", "SQLite database file")

	serverPort := fs.String("port", "", "Server port (default: 8000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 30m)")

	redisHost := fs.String("redis-host", "", "Redis host (default: localhost)")
	redisPort := fs.String("redis-port", "", "Redis port (default: 6379)")
	cacheTTL := fs.String("cache-ttl", "", "Recommendation cache TTL (default: 1h)")

	aiModel := fs.String("ai-model", "", "Summarization model")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Name:        getConfigValue("", "APP_NAME", "Bookshelf"),
			Version:     getConfigValue("", "APP_VERSION", "1.0.0"),
			Environment: getConfigValue(*env, "ENV", getConfigValue("", "ENVIRONMENT", "development")),
			Debug:       getBoolConfigValue(*debug, "DEBUG", false),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", getConfigValue("", "PORT", "8000")),
			AllowedOrigins: splitList(getConfigValue("", "ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8000")),
			LoginRate:      getFloatConfigValue("", "LOGIN_RATE", 1),
			LoginBurst:     getIntConfigValue("", "LOGIN_BURST", 5),
		},
		Database: DatabaseConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Path:     getConfigValue(*dbPath, "DATABASE_PATH", ""),
		},
		Auth: AuthConfig{
			SecretKey: []byte(getConfigValue("", "SECRET_KEY", "")),
		},
		Cache: CacheConfig{
			Enabled:   getBoolConfigValue("", "CACHE_ENABLED", true),
			Host:      getConfigValue(*redisHost, "REDIS_HOST", "localhost"),
			Port:      getIntConfigValue(*redisPort, "REDIS_PORT", 6379),
			DB:        getIntConfigValue("", "REDIS_DB", 0),
			Password:  getConfigValue("", "REDIS_PASSWORD", ""),
			ScanCount: getIntConfigValue("", "CACHE_SCAN_COUNT", 100),
		},
		AI: AIConfig{
			APIKey:      getConfigValue("", "AI_API_KEY", getConfigValue("", "GROQ_API_KEY", "")),
			BaseURL:     getConfigValue("", "AI_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getConfigValue(*aiModel, "AI_MODEL", getConfigValue("", "GROQ_MODEL", "llama-3.3-70b-versatile")),
			MaxTokens:   getIntConfigValue("", "AI_MAX_TOKENS", 500),
			Temperature: getFloatConfigValue("", "AI_TEMPERATURE", 0.7),
		},
		Pagination: PaginationConfig{
			DefaultPageSize: getIntConfigValue("", "DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getIntConfigValue("", "MAX_PAGE_SIZE", 100),
		},
	}

	durations := []struct {
		name   string
		flag   string
		envKey string
		def    string
		dst    *time.Duration
	}{
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", "60s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"access token duration", *accessTokenDuration, "ACCESS_TOKEN_DURATION", accessTokenDefault(), &cfg.Auth.AccessTokenDuration},
		{"cache ttl", *cacheTTL, "CACHE_TTL", "1h", &cfg.Cache.TTL},
		{"ai timeout", "", "AI_TIMEOUT", "30s", &cfg.AI.Timeout},
	}
	for _, d := range durations {
		v, err := parseDuration(getConfigValue(d.flag, d.envKey, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.ScanCount <= 0 {
		return fmt.Errorf("cache scan count must be positive, got %d", c.Cache.ScanCount)
	}

	if c.Pagination.DefaultPageSize < 1 || c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d",
			c.Pagination.DefaultPageSize, c.Pagination.MaxPageSize)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be within [0, 2], got %v", c.AI.Temperature)
	}

	return nil
}

// accessTokenDefault honors ACCESS_TOKEN_EXPIRE_MINUTES when set.
func accessTokenDefault() string {
	if m := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			return strconv.Itoa(n) + "m"
		}
	}
	return "30m"
}

// parseDuration accepts Go durations and bare integers as seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves DataPath (default ~/Bookshelf) and the database file under it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataPath, err := expandPath(c.Database.DataPath, filepath.Join(homeDir, "Bookshelf"))
	if err != nil {
		return err
	}
	c.Database.DataPath = dataPath

	dbPath, err := expandPath(c.Database.Path, filepath.Join(dataPath, "bookshelf.db"))
	if err != nil {
		return err
	}
	c.Database.Path = dbPath
	return nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
