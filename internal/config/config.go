package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Media      MediaConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port               string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead        time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite       time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle        time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host            string        `envconfig:"POSTGRES_HOST" required:"true"`
	Port            string        `envconfig:"POSTGRES_PORT" default:"5432"`
	User            string        `envconfig:"POSTGRES_USER" required:"true"`
	Password        string        `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName          string        `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode         string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"5m"`
	AutoMigrate     bool          `envconfig:"POSTGRES_AUTO_MIGRATE" default:"true"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// JWTConfig controls token signing and lifetimes.
type JWTConfig struct {
	Secret     string        `envconfig:"JWT_SECRET" required:"true"`
	Issuer     string        `envconfig:"JWT_ISSUER" default:"storefront-catalog"`
	AccessTTL  time.Duration `envconfig:"JWT_ACCESS_TTL" default:"60m"`
	RefreshTTL time.Duration `envconfig:"JWT_REFRESH_TTL" default:"24h"`
}

// RedisConfig points at the refresh-token blacklist. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled reports whether a Redis address was configured.
func (rc *RedisConfig) Enabled() bool {
	return strings.TrimSpace(rc.Addr) != ""
}

const (
	MediaBackendLocal = "local"
	MediaBackendMinio = "minio"
)

// MediaConfig selects and configures the blob store for uploaded images.
type MediaConfig struct {
	Backend        string `envconfig:"MEDIA_BACKEND" default:"local"`
	Root           string `envconfig:"MEDIA_ROOT" default:"./media"`
	URLPrefix      string `envconfig:"MEDIA_URL_PREFIX" default:"/media/"`
	PublicBaseURL  string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	MaxUploadBytes int64  `envconfig:"MEDIA_MAX_UPLOAD_BYTES" default:"10485760"`

	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET" default:"catalog-media"`
	MinioRegion    string `envconfig:"MINIO_REGION"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinioPublicURL string `envconfig:"MINIO_PUBLIC_URL"`
}

// SeedConfig is read only by the admin seeding command.
type SeedConfig struct {
	Email     string `envconfig:"SEED_ADMIN_EMAIL" required:"true"`
	Password  string `envconfig:"SEED_ADMIN_PASSWORD" required:"true"`
	FirstName string `envconfig:"SEED_ADMIN_FIRST_NAME" default:"Admin"`
	LastName  string `envconfig:"SEED_ADMIN_LAST_NAME" default:"User"`
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	switch c.Media.Backend {
	case MediaBackendLocal:
	case MediaBackendMinio:
		if c.Media.MinioEndpoint == "" || c.Media.MinioAccessKey == "" || c.Media.MinioSecretKey == "" {
			return fmt.Errorf("MEDIA_BACKEND=minio requires MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
	default:
		return fmt.Errorf("invalid MEDIA_BACKEND: %q", c.Media.Backend)
	}
	if c.Media.MaxUploadBytes <= 0 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_BYTES must be positive")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("JWT token lifetimes must be positive")
	}
	return nil
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	var loaded Config
	if err := envconfig.Process("", &loaded); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := loaded.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log.Printf("Configuration loaded successfully for APP_ENV: %s", loaded.AppEnv)
	return &loaded, nil
}

// LoadSeed reads the admin seeding variables.
func LoadSeed() (*SeedConfig, error) {
	var sc SeedConfig
	if err := envconfig.Process("", &sc); err != nil {
		return nil, fmt.Errorf("failed to process seed configuration: %w", err)
	}
	if strings.TrimSpace(sc.Email) == "" || sc.Password == "" {
		return nil, fmt.Errorf("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must not be empty")
	}
	return &sc, nil
}

// LoadPostgres reads only the database group, for commands that need nothing else.
func LoadPostgres() (*PostgresConfig, error) {
	var pc PostgresConfig
	if err := envconfig.Process("", &pc); err != nil {
		return nil, fmt.Errorf("failed to process postgres configuration: %w", err)
	}
	return &pc, nil
}
