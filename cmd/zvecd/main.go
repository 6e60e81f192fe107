package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	grpcserver "github.com/zvecdb/zvec-core/pkg/api/grpc"
	"github.com/zvecdb/zvec-core/pkg/api/rest"
	"github.com/zvecdb/zvec-core/pkg/api/rest/middleware"
	"github.com/zvecdb/zvec-core/pkg/config"
	"github.com/zvecdb/zvec-core/pkg/observability"
	"github.com/zvecdb/zvec-core/pkg/tenant"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		host        = flag.String("host", "", "gRPC health server host (overrides config/env)")
		port        = flag.Int("port", 0, "gRPC health server port (overrides config/env)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("zvec-core daemon v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	printBanner()

	cfg := config.LoadFromEnv()
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		observability.Fatalf("Invalid configuration: %v", err)
	}

	observability.SetGlobalLogger(observability.NewLogger(observability.ParseLogLevel(cfg.Logging.Level), os.Stdout))

	observability.Info("Initializing tenant registry...")
	tenants := tenant.NewManager()
	quota := tenant.DefaultQuota()
	quota.PlanCacheSize = cfg.Planner.CacheCapacity
	if _, err := tenants.CreateTenant("default", quota); err != nil {
		observability.Fatalf("Failed to create default tenant namespace: %v", err)
	}

	observability.Info("Initializing gRPC health/reflection server...")
	grpcServer, err := grpcserver.NewServer(cfg)
	if err != nil {
		observability.Fatalf("Failed to create gRPC server: %v", err)
	}

	printStartupInfo(cfg)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		observability.Info("Starting gRPC health/reflection server...")
		if err := grpcServer.Start(); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	var restServer *rest.Server
	if cfg.REST.Enabled {
		restConfig := rest.Config{
			Host:        cfg.REST.Host,
			Port:        cfg.REST.Port,
			CORSEnabled: cfg.REST.CORSEnabled,
			CORSOrigins: cfg.REST.CORSOrigins,
			Auth: middleware.AuthConfig{
				Enabled:     cfg.REST.AuthEnabled,
				JWTSecret:   cfg.REST.JWTSecret,
				PublicPaths: cfg.REST.PublicPaths,
				AdminPaths:  cfg.REST.AdminPaths,
			},
			RateLimit: middleware.RateLimitConfig{
				Enabled:        cfg.REST.RateLimitEnabled,
				RequestsPerSec: cfg.REST.RateLimitPerSec,
				Burst:          cfg.REST.RateLimitBurst,
				PerIP:          cfg.REST.RateLimitPerIP,
				PerUser:        cfg.REST.RateLimitPerUser,
				GlobalLimit:    cfg.REST.RateLimitGlobal,
			},
		}

		restServer, err = rest.NewServer(restConfig, tenants)
		if err != nil {
			observability.Fatalf("Failed to create REST server: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			observability.Info("Starting REST API server...")
			if err := restServer.Start(); err != nil {
				errChan <- fmt.Errorf("REST server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	observability.Info("Servers are ready. Press Ctrl+C to stop.")
	select {
	case sig := <-sigChan:
		observability.Infof("Received signal: %v", sig)
	case err := <-errChan:
		observability.Errorf("Server error: %v", err)
	}

	observability.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if restServer != nil {
		if err := restServer.Stop(ctx); err != nil {
			observability.Errorf("Error stopping REST server: %v", err)
		}
	}

	if err := grpcServer.Stop(); err != nil {
		observability.Errorf("Error stopping gRPC server: %v", err)
	}

	wg.Wait()

	observability.Info("Servers stopped. Goodbye!")
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   ________   _______  _______  _____                     ║
║  |___  /\ \ / /  ___|/ ______|/ ___  \                    ║
║     / /  \ V /| |__ | |       | /   \ |                   ║
║    / /    > < |  __|| |       | |   | |                   ║
║   / /__  / . \| |___| |______ | \___/ |                   ║
║  /_____|/_/ \_\_____(\_______)\______/                    ║
║                                                           ║
║   Columnar vector-search query engine                    ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("Version: %s (commit: %s)\n\n", version, commit)
}

func printStartupInfo(cfg *config.Config) {
	fmt.Println("\n╔════════════════════════════════════════════════════════╗")
	fmt.Println("║            gRPC Health/Reflection Server               ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Address:          %-35s ║\n", cfg.Server.Address())
	fmt.Printf("║ TLS Enabled:      %-35v ║\n", cfg.Server.EnableTLS)
	fmt.Printf("║ Max Connections:  %-35d ║\n", cfg.Server.MaxConnections)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║            REST Query API Configuration                ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.REST.Enabled)
	if cfg.REST.Enabled {
		fmt.Printf("║ Address:          %-35s ║\n", fmt.Sprintf("%s:%d", cfg.REST.Host, cfg.REST.Port))
		fmt.Printf("║ Auth Enabled:     %-35v ║\n", cfg.REST.AuthEnabled)
		fmt.Printf("║ CORS Enabled:     %-35v ║\n", cfg.REST.CORSEnabled)
		fmt.Printf("║ Rate Limiting:    %-35v ║\n", cfg.REST.RateLimitEnabled)
		if cfg.REST.RateLimitEnabled {
			fmt.Printf("║ Rate:             %-35s ║\n", fmt.Sprintf("%.1f req/s (burst: %d)", cfg.REST.RateLimitPerSec, cfg.REST.RateLimitBurst))
		}
		fmt.Printf("║ API Docs:         %-35s ║\n", fmt.Sprintf("http://%s:%d/docs", cfg.REST.Host, cfg.REST.Port))
	}
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║            Query Planner / Kernel Configuration        ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Plan cache size:  %-35d ║\n", cfg.Planner.CacheCapacity)
	fmt.Printf("║ SIMD force-scalar:%-35v ║\n", cfg.SIMD.ForceScalar)
	fmt.Printf("║ Writer output dir:%-35s ║\n", cfg.Writer.OutputDir)
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func showUsage() {
	fmt.Println("zvecd - columnar vector-search query engine daemon")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  zvecd [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help             Show this help message")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -host HOST        gRPC health server host (default: 0.0.0.0)")
	fmt.Println("  -port PORT        gRPC health server port (default: 8080)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  ZVEC_HOST                    gRPC health server host")
	fmt.Println("  ZVEC_PORT                    gRPC health server port")
	fmt.Println("  ZVEC_MAX_CONNECTIONS         Max concurrent gRPC connections")
	fmt.Println("  ZVEC_REQUEST_TIMEOUT         Request timeout (e.g., 30s)")
	fmt.Println("  ZVEC_ENABLE_TLS              Enable TLS (true/false)")
	fmt.Println("  ZVEC_TLS_CERT                TLS certificate file")
	fmt.Println("  ZVEC_TLS_KEY                 TLS key file")
	fmt.Println("  ZVEC_JWT_SECRET              JWT signing secret for REST auth")
	fmt.Println("  ZVEC_SIMD_FORCE_SCALAR       Force the scalar kernel tier (true/false)")
	fmt.Println("  ZVEC_PLANCACHE_CAPACITY      Query plan cache capacity")
	fmt.Println("  ZVEC_PLANCACHE_TTL           Plan cache TTL value (e.g., 5m); stored in the config only, cache entries never expire")
	fmt.Println("  ZVEC_WRITER_MAX_ROWS_PER_BATCH  ForwardWriter row-group size")
	fmt.Println("  ZVEC_WRITER_OUTPUT_DIR       ForwardWriter output directory")
	fmt.Println("  ZVEC_WRITER_OVERWRITE        Allow overwriting existing output (true/false)")
	fmt.Println("  ZVEC_REST_ENABLED            Enable the REST query API (true/false)")
	fmt.Println("  ZVEC_REST_HOST               REST API host")
	fmt.Println("  ZVEC_REST_PORT               REST API port")
	fmt.Println("  ZVEC_REST_AUTH_ENABLED       Enable bearer auth on the REST API (true/false)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Start with default configuration")
	fmt.Println("  zvecd")
	fmt.Println()
	fmt.Println("  # Start on a custom REST port")
	fmt.Println("  ZVEC_REST_PORT=9000 zvecd")
	fmt.Println()
}
