package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for cache, state, notes and CSV files
	RobinhoodAPIURL  string
	NummusAPIURL     string // Robinhood crypto API host
	RobinhoodToken   string
	LogLevel         string
	Port             int
	DevMode          bool
	MarketTimezone   string // IANA name, defaults to America/New_York
	Accounts         map[string]string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		if _, err := os.Stat("../data"); err == nil {
			dataDir = "../data"
		} else {
			dataDir = "./data"
		}
	}

	cfg := &Config{
		DataDir:         dataDir,
		Port:            getEnvAsInt("PORT", 5001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		RobinhoodAPIURL: getEnv("ROBINHOOD_API_URL", "https://api.robinhood.com"),
		NummusAPIURL:    getEnv("NUMMUS_API_URL", "https://nummus.robinhood.com"),
		RobinhoodToken:  getEnv("ROBINHOOD_TOKEN", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MarketTimezone:  getEnv("MARKET_TIMEZONE", "America/New_York"),
	}

	accounts, err := loadAccounts(dataDir)
	if err != nil {
		return nil, err
	}
	cfg.Accounts = accounts

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}

	// Note: token optional at startup, brokerage calls will fail until set

	return nil
}

// AccountNames returns configured account display names in stable order.
func (c *Config) AccountNames() []string {
	names := make([]string, 0, len(c.Accounts))
	for name := range c.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AccountNumber resolves a display name to a brokerage account number.
func (c *Config) AccountNumber(name string) (string, bool) {
	number, ok := c.Accounts[name]
	return number, ok
}

// loadAccounts reads the display-name to account-number map.
// The ACCOUNTS env var ("NAME=number,NAME=number") takes precedence over
// accounts.json in the data directory.
func loadAccounts(dataDir string) (map[string]string, error) {
	accounts := make(map[string]string)

	if raw := os.Getenv("ACCOUNTS"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return nil, fmt.Errorf("invalid ACCOUNTS entry %q", pair)
			}
			accounts[parts[0]] = parts[1]
		}
		return accounts, nil
	}

	path := filepath.Join(dataDir, "accounts.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return accounts, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return accounts, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
