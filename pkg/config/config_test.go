package config

import (
	"os"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Test Server defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections != 1000 {
		t.Errorf("Expected max connections 1000, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("Expected request timeout 30s, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.EnableTLS {
		t.Error("Expected TLS disabled by default")
	}

	// Test SIMD defaults
	if cfg.SIMD.ForceScalar {
		t.Error("Expected SIMD force-scalar disabled by default")
	}

	// Test Planner defaults
	if cfg.Planner.CacheCapacity != 100 {
		t.Errorf("Expected plan cache capacity 100, got %d", cfg.Planner.CacheCapacity)
	}
	if cfg.Planner.CacheTTL != 5*time.Minute {
		t.Errorf("Expected plan cache TTL 5m, got %v", cfg.Planner.CacheTTL)
	}

	// Test Writer defaults
	if cfg.Writer.MaxRowsPerBatch != 1024 {
		t.Errorf("Expected writer max rows per batch 1024, got %d", cfg.Writer.MaxRowsPerBatch)
	}
	if cfg.Writer.OutputDir != "./data" {
		t.Errorf("Expected output dir ./data, got %s", cfg.Writer.OutputDir)
	}
	if cfg.Writer.Overwrite {
		t.Error("Expected overwrite disabled by default")
	}

	// Test REST defaults
	if !cfg.REST.Enabled {
		t.Error("Expected REST enabled by default")
	}
	if cfg.REST.Port != 8081 {
		t.Errorf("Expected REST port 8081, got %d", cfg.REST.Port)
	}
	if !cfg.REST.CORSEnabled {
		t.Error("Expected REST CORS enabled by default")
	}
	if cfg.REST.AuthEnabled {
		t.Error("Expected REST auth disabled by default")
	}
	if !cfg.REST.RateLimitEnabled {
		t.Error("Expected REST rate limiting enabled by default")
	}

	// Test Logging defaults
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected log level INFO, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	envVars := []string{
		"ZVEC_HOST", "ZVEC_PORT", "ZVEC_MAX_CONNECTIONS",
		"ZVEC_REQUEST_TIMEOUT", "ZVEC_ENABLE_TLS",
		"ZVEC_SIMD_FORCE_SCALAR",
		"ZVEC_PLANCACHE_CAPACITY", "ZVEC_PLANCACHE_TTL",
		"ZVEC_WRITER_MAX_ROWS_PER_BATCH", "ZVEC_WRITER_OUTPUT_DIR", "ZVEC_WRITER_OVERWRITE",
	}

	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	os.Setenv("ZVEC_HOST", "127.0.0.1")
	os.Setenv("ZVEC_PORT", "9090")
	os.Setenv("ZVEC_MAX_CONNECTIONS", "5000")
	os.Setenv("ZVEC_REQUEST_TIMEOUT", "60s")
	os.Setenv("ZVEC_ENABLE_TLS", "true")

	os.Setenv("ZVEC_SIMD_FORCE_SCALAR", "true")

	os.Setenv("ZVEC_PLANCACHE_CAPACITY", "5000")
	os.Setenv("ZVEC_PLANCACHE_TTL", "10m")

	os.Setenv("ZVEC_WRITER_MAX_ROWS_PER_BATCH", "4096")
	os.Setenv("ZVEC_WRITER_OUTPUT_DIR", "/var/lib/zvec")
	os.Setenv("ZVEC_WRITER_OVERWRITE", "true")

	os.Setenv("ZVEC_REST_HOST", "127.0.0.1")
	os.Setenv("ZVEC_REST_PORT", "9091")
	defer os.Unsetenv("ZVEC_REST_HOST")
	defer os.Unsetenv("ZVEC_REST_PORT")

	os.Setenv("ZVEC_LOG_LEVEL", "DEBUG")
	defer os.Unsetenv("ZVEC_LOG_LEVEL")

	cfg := LoadFromEnv()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections != 5000 {
		t.Errorf("Expected max connections 5000, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("Expected request timeout 60s, got %v", cfg.Server.RequestTimeout)
	}
	if !cfg.Server.EnableTLS {
		t.Error("Expected TLS enabled")
	}

	if !cfg.SIMD.ForceScalar {
		t.Error("Expected SIMD force-scalar enabled")
	}

	if cfg.Planner.CacheCapacity != 5000 {
		t.Errorf("Expected plan cache capacity 5000, got %d", cfg.Planner.CacheCapacity)
	}
	if cfg.Planner.CacheTTL != 10*time.Minute {
		t.Errorf("Expected plan cache TTL 10m, got %v", cfg.Planner.CacheTTL)
	}

	if cfg.Writer.MaxRowsPerBatch != 4096 {
		t.Errorf("Expected writer max rows per batch 4096, got %d", cfg.Writer.MaxRowsPerBatch)
	}
	if cfg.Writer.OutputDir != "/var/lib/zvec" {
		t.Errorf("Expected output dir /var/lib/zvec, got %s", cfg.Writer.OutputDir)
	}
	if !cfg.Writer.Overwrite {
		t.Error("Expected overwrite enabled")
	}

	if cfg.REST.Host != "127.0.0.1" {
		t.Errorf("Expected REST host 127.0.0.1, got %s", cfg.REST.Host)
	}
	if cfg.REST.Port != 9091 {
		t.Errorf("Expected REST port 9091, got %d", cfg.REST.Port)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected log level DEBUG, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	originalPort := os.Getenv("ZVEC_PORT")
	defer func() {
		if originalPort == "" {
			os.Unsetenv("ZVEC_PORT")
		} else {
			os.Setenv("ZVEC_PORT", originalPort)
		}
	}()

	os.Setenv("ZVEC_PORT", "invalid")
	cfg := LoadFromEnv()

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080 for invalid value, got %d", cfg.Server.Port)
	}
}

func TestLoadFromEnv_DefaultsWhenNotSet(t *testing.T) {
	envVars := []string{
		"ZVEC_HOST", "ZVEC_PORT", "ZVEC_MAX_CONNECTIONS",
		"ZVEC_REQUEST_TIMEOUT", "ZVEC_ENABLE_TLS",
		"ZVEC_SIMD_FORCE_SCALAR",
		"ZVEC_PLANCACHE_CAPACITY", "ZVEC_PLANCACHE_TTL",
		"ZVEC_WRITER_MAX_ROWS_PER_BATCH", "ZVEC_WRITER_OUTPUT_DIR", "ZVEC_WRITER_OVERWRITE",
	}

	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				os.Setenv(key, value)
			}
		}
	}()

	cfg := LoadFromEnv()
	defaults := Default()

	if cfg.Server.Host != defaults.Server.Host {
		t.Errorf("Expected default host, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != defaults.Server.Port {
		t.Errorf("Expected default port, got %d", cfg.Server.Port)
	}
	if cfg.Planner.CacheCapacity != defaults.Planner.CacheCapacity {
		t.Errorf("Expected default plan cache capacity, got %d", cfg.Planner.CacheCapacity)
	}
	if cfg.Writer.OutputDir != defaults.Writer.OutputDir {
		t.Errorf("Expected default output dir, got %s", cfg.Writer.OutputDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "Valid default config",
			config:  Default(),
			wantErr: false,
		},
		{
			name: "Invalid port (too low)",
			config: &Config{
				Server:  ServerConfig{Port: 0},
				Planner: PlannerConfig{CacheCapacity: 1},
				Writer:  WriterConfig{MaxRowsPerBatch: 1, OutputDir: "./data"},
			},
			wantErr: true,
		},
		{
			name: "Invalid port (too high)",
			config: &Config{
				Server:  ServerConfig{Port: 70000},
				Planner: PlannerConfig{CacheCapacity: 1},
				Writer:  WriterConfig{MaxRowsPerBatch: 1, OutputDir: "./data"},
			},
			wantErr: true,
		},
		{
			name: "Invalid plan cache capacity",
			config: &Config{
				Server:  ServerConfig{Port: 8080, MaxConnections: 1},
				Planner: PlannerConfig{CacheCapacity: 0},
				Writer:  WriterConfig{MaxRowsPerBatch: 1, OutputDir: "./data"},
			},
			wantErr: true,
		},
		{
			name: "Invalid writer max rows per batch",
			config: &Config{
				Server:  ServerConfig{Port: 8080, MaxConnections: 1},
				Planner: PlannerConfig{CacheCapacity: 100},
				Writer:  WriterConfig{MaxRowsPerBatch: 0, OutputDir: "./data"},
			},
			wantErr: true,
		},
		{
			name: "Missing writer output dir",
			config: &Config{
				Server:  ServerConfig{Port: 8080, MaxConnections: 1},
				Planner: PlannerConfig{CacheCapacity: 100},
				Writer:  WriterConfig{MaxRowsPerBatch: 1024, OutputDir: ""},
			},
			wantErr: true,
		},
		{
			name: "Invalid REST port",
			config: &Config{
				Server:  ServerConfig{Port: 8080, MaxConnections: 1},
				Planner: PlannerConfig{CacheCapacity: 1},
				Writer:  WriterConfig{MaxRowsPerBatch: 1, OutputDir: "./data"},
				REST:    RESTConfig{Enabled: true, Port: 0},
			},
			wantErr: true,
		},
		{
			name: "REST auth enabled without JWT secret",
			config: &Config{
				Server:  ServerConfig{Port: 8080, MaxConnections: 1},
				Planner: PlannerConfig{CacheCapacity: 1},
				Writer:  WriterConfig{MaxRowsPerBatch: 1, OutputDir: "./data"},
				REST:    RESTConfig{Enabled: true, Port: 8081, AuthEnabled: true, JWTSecret: ""},
			},
			wantErr: true,
		},
		{
			name: "REST disabled skips its own validation",
			config: &Config{
				Server:  ServerConfig{Port: 8080, MaxConnections: 1},
				Planner: PlannerConfig{CacheCapacity: 1},
				Writer:  WriterConfig{MaxRowsPerBatch: 1, OutputDir: "./data"},
				REST:    RESTConfig{Enabled: false, Port: 0},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "localhost",
		Port: 8080,
	}

	addr := cfg.Address()
	expected := "localhost:8080"

	if addr != expected {
		t.Errorf("Expected address %s, got %s", expected, addr)
	}

	defaultCfg := Default()
	addr = defaultCfg.Server.Address()
	expected = "0.0.0.0:8080"

	if addr != expected {
		t.Errorf("Expected default address %s, got %s", expected, addr)
	}
}
