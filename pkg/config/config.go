package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	LiveKit  LiveKitConfig
	Telemed  TelemedConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	Enabled      bool
	AccessSecret string
	Issuer       string
	AdminRoles   []string // roles allowed to trigger a manual cleanup
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// LiveKitConfig holds LiveKit configuration
type LiveKitConfig struct {
	Enabled   bool
	URL       string
	APIKey    string
	APISecret string
	UseMock   bool
	TokenTTL  time.Duration
}

// TelemedConfig holds the video call request settings, read with the TELEMED_ prefix
type TelemedConfig struct {
	StoreDriver           string        `envconfig:"STORE_DRIVER" default:"memory"`
	BrokerDriver          string        `envconfig:"BROKER_DRIVER" default:"memory"`
	EventsChannel         string        `envconfig:"EVENTS_CHANNEL" default:"telemed:video-call-events"`
	CleanupSchedule       string        `envconfig:"CLEANUP_SCHEDULE" default:"@every 1h"`
	CleanupMaxAge         time.Duration `envconfig:"CLEANUP_MAX_AGE" default:"24h"`
	FilterPendingByCallee bool          `envconfig:"FILTER_PENDING_BY_CALLEE" default:"false"`
	ArchiveOnCleanup      bool          `envconfig:"ARCHIVE_ON_CLEANUP" default:"false"`
	RoomPrefix            string        `envconfig:"ROOM_PREFIX" default:"SmartMed"`

	// client side
	APIBaseURL   string        `envconfig:"API_BASE_URL" default:"http://localhost:8081/api/telemed"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"3s"`
	WaitInterval time.Duration `envconfig:"WAIT_INTERVAL" default:"2s"`
	WaitTimeout  time.Duration `envconfig:"WAIT_TIMEOUT" default:"30s"`
	JitsiDomain  string        `envconfig:"JITSI_DOMAIN" default:"meet.jit.si"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8081"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", "http://localhost:5173"),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "smartmed"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Enabled:      getEnvAsBool("AUTH_ENABLED", false),
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			Issuer:       getEnv("JWT_ISSUER", "smartmed"),
			AdminRoles:   getEnvAsSlice("AUTH_ADMIN_ROLES", "admin"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "telemed-archive"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
		LiveKit: LiveKitConfig{
			Enabled:   getEnvAsBool("LIVEKIT_ENABLED", false),
			URL:       getEnv("LIVEKIT_URL", "ws://localhost:7880"),
			APIKey:    getEnv("LIVEKIT_API_KEY", "devkey"),
			APISecret: getEnv("LIVEKIT_API_SECRET", "secret"),
			UseMock:   getEnvAsBool("LIVEKIT_USE_MOCK", true),
			TokenTTL:  getEnvAsDuration("LIVEKIT_TOKEN_TTL", "2h"),
		},
	}

	if err := envconfig.Process("telemed", &config.Telemed); err != nil {
		return nil, fmt.Errorf("failed to parse TELEMED_* settings: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Telemed.StoreDriver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("TELEMED_STORE_DRIVER must be memory or postgres, got %q", c.Telemed.StoreDriver)
	}
	switch c.Telemed.BrokerDriver {
	case "memory", "redis":
	default:
		return fmt.Errorf("TELEMED_BROKER_DRIVER must be memory or redis, got %q", c.Telemed.BrokerDriver)
	}
	if c.Telemed.CleanupMaxAge <= 0 {
		return fmt.Errorf("TELEMED_CLEANUP_MAX_AGE must be positive")
	}
	if c.Telemed.PollInterval <= 0 || c.Telemed.WaitInterval <= 0 || c.Telemed.WaitTimeout <= 0 {
		return fmt.Errorf("TELEMED poll and wait intervals must be positive")
	}
	if c.Auth.Enabled && c.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required when AUTH_ENABLED is set")
	}
	if c.LiveKit.Enabled && !c.LiveKit.UseMock && (c.LiveKit.APIKey == "" || c.LiveKit.APISecret == "") {
		return fmt.Errorf("LIVEKIT_API_KEY and LIVEKIT_API_SECRET are required")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func getEnvAsSlice(key string, defaultValue string) []string {
	parts := strings.Split(getEnv(key, defaultValue), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
