package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration
type Config struct {
	Server  ServerConfig
	REST    RESTConfig
	SIMD    SIMDConfig
	Planner PlannerConfig
	Writer  WriterConfig
	Logging LoggingConfig
}

// RESTConfig holds the REST API surface configuration (hosted separately
// from the gRPC health/reflection server's Server.Address()).
type RESTConfig struct {
	Enabled          bool
	Host             string
	Port             int
	CORSEnabled      bool
	CORSOrigins      []string
	AuthEnabled      bool
	JWTSecret        string
	PublicPaths      []string
	AdminPaths       []string
	RateLimitEnabled bool
	RateLimitPerSec  float64
	RateLimitBurst   int
	RateLimitPerIP   bool
	RateLimitPerUser bool
	RateLimitGlobal  bool
}

// ServerConfig holds the gRPC health/reflection server configuration
type ServerConfig struct {
	Host            string        // Server host (default: "0.0.0.0")
	Port            int           // Server port (default: 8080)
	MaxConnections  int           // Max concurrent connections
	RequestTimeout  time.Duration // Request timeout
	ShutdownTimeout time.Duration // Graceful shutdown timeout
	EnableTLS       bool          // Enable TLS
	CertFile        string        // TLS certificate file
	KeyFile         string        // TLS key file
	JWTSecret       string        // HS256 signing secret for bearer auth
}

// SIMDConfig holds distance-kernel dispatch configuration.
type SIMDConfig struct {
	ForceScalar bool // force the scalar dispatch tier, for reproducible testing (ZVEC_SIMD_FORCE_SCALAR)
}

// PlannerConfig holds query-plan-cache configuration.
type PlannerConfig struct {
	CacheCapacity int           // Max plan cache entries (default: 100)
	CacheTTL      time.Duration // informational only; plancache.Cache itself carries no TTL (see DESIGN.md)
}

// WriterConfig holds ForwardWriter configuration.
type WriterConfig struct {
	MaxRowsPerBatch int    // default row-group size
	OutputDir       string // directory ForwardWriter backends persist to
	Overwrite       bool   // allow overwriting an existing output file
}

// LoggingConfig holds structured-logger configuration.
type LoggingConfig struct {
	Level string // DEBUG, INFO, WARN, or ERROR (default: INFO)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxConnections:  1000,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			EnableTLS:       false,
		},
		SIMD: SIMDConfig{
			ForceScalar: false,
		},
		Planner: PlannerConfig{
			CacheCapacity: 100,
			CacheTTL:      5 * time.Minute,
		},
		Writer: WriterConfig{
			MaxRowsPerBatch: 1024,
			OutputDir:       "./data",
			Overwrite:       false,
		},
		REST: RESTConfig{
			Enabled:          true,
			Host:             "0.0.0.0",
			Port:             8081,
			CORSEnabled:      true,
			CORSOrigins:      []string{"*"},
			AuthEnabled:      false,
			RateLimitEnabled: true,
			RateLimitPerSec:  100,
			RateLimitBurst:   200,
			RateLimitPerIP:   true,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := Default()

	// Server configuration
	if host := os.Getenv("ZVEC_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("ZVEC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if maxConn := os.Getenv("ZVEC_MAX_CONNECTIONS"); maxConn != "" {
		if mc, err := strconv.Atoi(maxConn); err == nil {
			cfg.Server.MaxConnections = mc
		}
	}
	if timeout := os.Getenv("ZVEC_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			cfg.Server.RequestTimeout = t
		}
	}
	if enableTLS := os.Getenv("ZVEC_ENABLE_TLS"); enableTLS == "true" {
		cfg.Server.EnableTLS = true
		cfg.Server.CertFile = os.Getenv("ZVEC_TLS_CERT")
		cfg.Server.KeyFile = os.Getenv("ZVEC_TLS_KEY")
	}
	if secret := os.Getenv("ZVEC_JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}

	// SIMD configuration
	if force := os.Getenv("ZVEC_SIMD_FORCE_SCALAR"); force == "true" {
		cfg.SIMD.ForceScalar = true
	}

	// Planner configuration
	if capacity := os.Getenv("ZVEC_PLANCACHE_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			cfg.Planner.CacheCapacity = c
		}
	}
	if ttl := os.Getenv("ZVEC_PLANCACHE_TTL"); ttl != "" {
		if t, err := time.ParseDuration(ttl); err == nil {
			cfg.Planner.CacheTTL = t
		}
	}

	// REST configuration
	if enabled := os.Getenv("ZVEC_REST_ENABLED"); enabled == "false" {
		cfg.REST.Enabled = false
	}
	if host := os.Getenv("ZVEC_REST_HOST"); host != "" {
		cfg.REST.Host = host
	}
	if port := os.Getenv("ZVEC_REST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.REST.Port = p
		}
	}
	if authEnabled := os.Getenv("ZVEC_REST_AUTH_ENABLED"); authEnabled == "true" {
		cfg.REST.AuthEnabled = true
		cfg.REST.JWTSecret = os.Getenv("ZVEC_JWT_SECRET")
	}

	// Writer configuration
	if rows := os.Getenv("ZVEC_WRITER_MAX_ROWS_PER_BATCH"); rows != "" {
		if r, err := strconv.Atoi(rows); err == nil {
			cfg.Writer.MaxRowsPerBatch = r
		}
	}
	if dir := os.Getenv("ZVEC_WRITER_OUTPUT_DIR"); dir != "" {
		cfg.Writer.OutputDir = dir
	}
	if overwrite := os.Getenv("ZVEC_WRITER_OVERWRITE"); overwrite == "true" {
		cfg.Writer.Overwrite = true
	}

	// Logging configuration
	if level := os.Getenv("ZVEC_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("invalid max connections: %d (must be > 0)", c.Server.MaxConnections)
	}
	if c.Server.EnableTLS {
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
	}

	// Planner validation
	if c.Planner.CacheCapacity < 1 {
		return fmt.Errorf("invalid plan cache capacity: %d (must be > 0)", c.Planner.CacheCapacity)
	}

	// Writer validation
	if c.Writer.MaxRowsPerBatch < 1 {
		return fmt.Errorf("invalid writer max rows per batch: %d (must be > 0)", c.Writer.MaxRowsPerBatch)
	}
	if c.Writer.OutputDir == "" {
		return fmt.Errorf("writer output directory not specified")
	}

	// REST validation
	if c.REST.Enabled {
		if c.REST.Port < 1 || c.REST.Port > 65535 {
			return fmt.Errorf("invalid REST port: %d (must be 1-65535)", c.REST.Port)
		}
		if c.REST.AuthEnabled && c.REST.JWTSecret == "" {
			return fmt.Errorf("REST auth enabled but JWT secret not specified")
		}
	}

	return nil
}

// Address returns the server address (host:port)
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
