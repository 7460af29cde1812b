package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Log       LogConfig
	Auth      AuthConfig
	Authority AuthorityConfig
	Bulk      BulkConfig
	RefCache  RefCacheConfig
	Backup    BackupConfig
	Seller    SellerConfig
}

// SellerConfig holds the seller-side snapshot fields stamped onto every
// invoice at creation time.
type SellerConfig struct {
	NTN      string `mapstructure:"ntn"`
	Name     string `mapstructure:"name"`
	Province string `mapstructure:"province"`
	Address  string `mapstructure:"address"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds JWT validation settings. Tokens are issued by an external
// identity service; this service only validates them.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// AuthorityConfig holds settings for the external tax authority client.
type AuthorityConfig struct {
	Environment   string `mapstructure:"environment"` // sandbox or production
	SandboxURL    string `mapstructure:"sandbox_url"`
	ProductionURL string `mapstructure:"production_url"`
	Token         string `mapstructure:"token"`
	TimeoutSecs   int    `mapstructure:"timeout_secs"`
}

// BaseURL returns the authority endpoint for the configured environment.
func (a *AuthorityConfig) BaseURL() string {
	if a.Environment == "production" {
		return a.ProductionURL
	}
	return a.SandboxURL
}

// BulkConfig holds bulk ingestion settings.
type BulkConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
	MaxRows   int `mapstructure:"max_rows"`
}

// RefCacheConfig holds reference cache settings.
type RefCacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// BackupConfig holds post-mutation backup sink settings.
type BackupConfig struct {
	Provider  string `mapstructure:"provider"` // s3 or noop
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Load reads configuration from environment variables with the TAXLINK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TAXLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "taxlink")
	v.SetDefault("db.password", "taxlink_secret")
	v.SetDefault("db.name", "taxlink_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.issuer", "taxlink")

	// Authority defaults
	v.SetDefault("authority.environment", "sandbox")
	v.SetDefault("authority.sandbox_url", "https://sandbox.authority.gov/di_data/v1/di/postinvoicedata")
	v.SetDefault("authority.production_url", "https://authority.gov/di_data/v1/di/postinvoicedata")
	v.SetDefault("authority.token", "")
	v.SetDefault("authority.timeout_secs", 60)

	// Bulk defaults
	v.SetDefault("bulk.chunk_size", 100)
	v.SetDefault("bulk.max_rows", 10000)

	// Reference cache defaults
	v.SetDefault("refcache.ttl", "5m")

	// Seller snapshot defaults
	v.SetDefault("seller.ntn", "")
	v.SetDefault("seller.name", "")
	v.SetDefault("seller.province", "")
	v.SetDefault("seller.address", "")

	// Backup defaults
	v.SetDefault("backup.provider", "noop")
	v.SetDefault("backup.region", "us-east-1")
	v.SetDefault("backup.bucket", "taxlink-backups")
	v.SetDefault("backup.endpoint", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "TAXLINK_SERVER_PORT",
		"server.read_timeout":      "TAXLINK_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "TAXLINK_SERVER_WRITE_TIMEOUT",
		"server.environment":       "TAXLINK_SERVER_ENVIRONMENT",
		"db.host":                  "TAXLINK_DB_HOST",
		"db.port":                  "TAXLINK_DB_PORT",
		"db.user":                  "TAXLINK_DB_USER",
		"db.password":              "TAXLINK_DB_PASSWORD",
		"db.name":                  "TAXLINK_DB_NAME",
		"db.sslmode":               "TAXLINK_DB_SSLMODE",
		"db.max_open":              "TAXLINK_DB_MAX_OPEN",
		"db.max_idle":              "TAXLINK_DB_MAX_IDLE",
		"log.level":                "TAXLINK_LOG_LEVEL",
		"log.format":               "TAXLINK_LOG_FORMAT",
		"auth.jwt_secret":          "TAXLINK_AUTH_JWT_SECRET",
		"auth.issuer":              "TAXLINK_AUTH_ISSUER",
		"authority.environment":    "TAXLINK_AUTHORITY_ENVIRONMENT",
		"authority.sandbox_url":    "TAXLINK_AUTHORITY_SANDBOX_URL",
		"authority.production_url": "TAXLINK_AUTHORITY_PRODUCTION_URL",
		"authority.token":          "TAXLINK_AUTHORITY_TOKEN",
		"authority.timeout_secs":   "TAXLINK_AUTHORITY_TIMEOUT_SECS",
		"bulk.chunk_size":          "TAXLINK_BULK_CHUNK_SIZE",
		"bulk.max_rows":            "TAXLINK_BULK_MAX_ROWS",
		"refcache.ttl":             "TAXLINK_REFCACHE_TTL",
		"backup.provider":          "TAXLINK_BACKUP_PROVIDER",
		"backup.region":            "TAXLINK_BACKUP_REGION",
		"backup.bucket":            "TAXLINK_BACKUP_BUCKET",
		"backup.endpoint":          "TAXLINK_BACKUP_ENDPOINT",
		"backup.access_key":        "TAXLINK_BACKUP_ACCESS_KEY",
		"backup.secret_key":        "TAXLINK_BACKUP_SECRET_KEY",
		"seller.ntn":               "TAXLINK_SELLER_NTN",
		"seller.name":              "TAXLINK_SELLER_NAME",
		"seller.province":          "TAXLINK_SELLER_PROVINCE",
		"seller.address":           "TAXLINK_SELLER_ADDRESS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TAXLINK_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TAXLINK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Auth = AuthConfig{
		JWTSecret: v.GetString("auth.jwt_secret"),
		Issuer:    v.GetString("auth.issuer"),
	}
	cfg.Authority = AuthorityConfig{
		Environment:   v.GetString("authority.environment"),
		SandboxURL:    v.GetString("authority.sandbox_url"),
		ProductionURL: v.GetString("authority.production_url"),
		Token:         v.GetString("authority.token"),
		TimeoutSecs:   v.GetInt("authority.timeout_secs"),
	}
	cfg.Bulk = BulkConfig{
		ChunkSize: v.GetInt("bulk.chunk_size"),
		MaxRows:   v.GetInt("bulk.max_rows"),
	}
	cfg.RefCache = RefCacheConfig{
		TTL: v.GetDuration("refcache.ttl"),
	}
	cfg.Seller = SellerConfig{
		NTN:      v.GetString("seller.ntn"),
		Name:     v.GetString("seller.name"),
		Province: v.GetString("seller.province"),
		Address:  v.GetString("seller.address"),
	}
	cfg.Backup = BackupConfig{
		Provider:  v.GetString("backup.provider"),
		Region:    v.GetString("backup.region"),
		Bucket:    v.GetString("backup.bucket"),
		Endpoint:  v.GetString("backup.endpoint"),
		AccessKey: v.GetString("backup.access_key"),
		SecretKey: v.GetString("backup.secret_key"),
	}

	return cfg, nil
}
