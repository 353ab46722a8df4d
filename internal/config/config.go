package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server      ServerConfig
	App         AppConfig
	InventoryDB InventoryDBConfig
	AccountsDB  AccountsDBConfig
	Redis       RedisConfig
	Sync        SyncConfig
	Scheduler   SchedulerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"600s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"gemhub-inventory-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// InventoryDBConfig holds inventory store settings.
type InventoryDBConfig struct {
	Type string `envconfig:"INVENTORY_DB_TYPE" default:"mongodb"` // mongodb or sqlite
	Path string `envconfig:"INVENTORY_DB_PATH" default:"./data/inventory.db"`

	MongoURI           string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase      string `envconfig:"MONGODB_DATABASE" default:"gemhub"`
	MongoCollection    string `envconfig:"MONGODB_COLLECTION" default:"diamonds"`
	SupplierCollection string `envconfig:"MONGODB_SUPPLIER_COLLECTION" default:"supplier_configs"`
}

// AccountsDBConfig holds MySQL connection settings for supplier accounts.
type AccountsDBConfig struct {
	Host     string `envconfig:"ACCOUNTS_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"ACCOUNTS_DB_PORT" default:"3306"`
	Name     string `envconfig:"ACCOUNTS_DB_NAME" default:"gemhub"`
	User     string `envconfig:"ACCOUNTS_DB_USER" default:"root"`
	Password string `envconfig:"ACCOUNTS_DB_PASS" default:""`
}

// RedisConfig holds Redis settings for tokens and event publishing.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Channel  string `envconfig:"REDIS_EVENT_CHANNEL" default:"gemhub:inventory:events"`
}

// SyncConfig holds sync engine settings.
type SyncConfig struct {
	FetchTimeout    time.Duration `envconfig:"SYNC_FETCH_TIMEOUT" default:"5m"`
	TransferTimeout time.Duration `envconfig:"SYNC_TRANSFER_TIMEOUT" default:"5m"`
	Disposition     string        `envconfig:"SYNC_DISPOSITION" default:"archive"` // archive or delete
}

// SchedulerConfig holds auto-sync scheduler settings.
type SchedulerConfig struct {
	Enabled  bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"5m"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN returns the MySQL data source name.
func (d *AccountsDBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
