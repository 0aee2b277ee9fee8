package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

// Store backends.
const (
	BackendMongo   = "mongo"
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
)

// Config contains all configuration parameters for the application.
// Note: JWTSecret may be prompted at runtime - use GetJWTSecretBytes()
type Config struct {
	Port          string        `envconfig:"PORT" default:"8080"`
	MongoURI      string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string        `envconfig:"MONGO_DATABASE" default:"Login"`
	MongoTimeout  time.Duration `envconfig:"MONGO_TIMEOUT" default:"10s"`
	StoreBackend  string        `envconfig:"STORE_BACKEND" default:"mongo"`
	BlockBackend  string        `envconfig:"BLOCK_BACKEND" default:"mongo"`
	LevelDBPath   string        `envconfig:"LEVELDB_PATH" default:"./data/blocks"`
	JWTSecret     string        `envconfig:"JWT_SECRET"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
	MineThreshold int           `envconfig:"MINE_THRESHOLD" default:"1"`
	WelcomeGrant  string        `envconfig:"WELCOME_GRANT" default:"100"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads and validates configuration without touching the global
// instance.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks backend names and numeric settings.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q", BackendMongo, BackendMemory)
	}
	switch c.BlockBackend {
	case BackendMongo, BackendLevelDB, BackendMemory:
	default:
		return fmt.Errorf("BLOCK_BACKEND must be %q, %q or %q", BackendMongo, BackendLevelDB, BackendMemory)
	}
	// A durable chain replayed into fresh in-memory accounts would reference
	// accounts that no longer exist.
	if c.StoreBackend == BackendMemory && c.BlockBackend != BackendMemory {
		return errors.New("STORE_BACKEND=memory requires BLOCK_BACKEND=memory")
	}
	if c.MineThreshold < 1 {
		return errors.New("MINE_THRESHOLD must be at least 1")
	}
	grant, err := decimal.NewFromString(c.WelcomeGrant)
	if err != nil || grant.IsNegative() {
		return fmt.Errorf("WELCOME_GRANT must be a non-negative decimal, got %q", c.WelcomeGrant)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetMineThreshold returns how many pending transfers trigger mining
func GetMineThreshold() int {
	return Get().MineThreshold
}

// GetWelcomeGrant returns the initial balance of new accounts
func GetWelcomeGrant() decimal.Decimal {
	// validated in Load
	return decimal.RequireFromString(Get().WelcomeGrant)
}

// GetTokenTTL returns session token lifetime
func GetTokenTTL() time.Duration {
	return Get().TokenTTL
}

var secretBytes []byte

// PromptForJWTSecret prompts for the token signing secret in the terminal
// when JWT_SECRET is not set. The secret is read without echoing and stored
// in memory. Call this at startup before the server begins handling
// requests.
func PromptForJWTSecret() error {
	if s := Get().JWTSecret; s != "" {
		secretBytes = []byte(s)
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("JWT_SECRET is not set and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Enter JWT secret: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("secret cannot be empty")
	}

	secretBytes = make([]byte, len(raw))
	copy(secretBytes, raw)
	clear(raw)
	return nil
}

// GetJWTSecretBytes returns the secret stored by PromptForJWTSecret.
// Caller must zero the returned slice after use for security.
func GetJWTSecretBytes() ([]byte, error) {
	if len(secretBytes) == 0 {
		return nil, errors.New("secret not set: call PromptForJWTSecret at startup")
	}
	out := make([]byte, len(secretBytes))
	copy(out, secretBytes)
	return out, nil
}
