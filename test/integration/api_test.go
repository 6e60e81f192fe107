package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	grpcserver "github.com/zvecdb/zvec-core/pkg/api/grpc"
	"github.com/zvecdb/zvec-core/pkg/api/rest"
	"github.com/zvecdb/zvec-core/pkg/api/rest/middleware"
	"github.com/zvecdb/zvec-core/pkg/config"
	"github.com/zvecdb/zvec-core/pkg/tenant"
)

func setupTestServers(t *testing.T) (baseURL string, cleanup func()) {
	cfg := config.Default()
	cfg.Server.Port = 50052
	cfg.REST.Port = 18081

	tenants := tenant.NewManager()
	if _, err := tenants.CreateTenant("default", tenant.DefaultQuota()); err != nil {
		t.Fatalf("Failed to create default tenant: %v", err)
	}

	grpcSrv, err := grpcserver.NewServer(cfg)
	if err != nil {
		t.Fatalf("Failed to create gRPC health server: %v", err)
	}
	if err := grpcSrv.Start(); err != nil {
		t.Fatalf("Failed to start gRPC health server: %v", err)
	}

	restSrv, err := rest.NewServer(rest.Config{
		Host:        cfg.REST.Host,
		Port:        cfg.REST.Port,
		CORSEnabled: cfg.REST.CORSEnabled,
		CORSOrigins: cfg.REST.CORSOrigins,
		Auth:        middleware.AuthConfig{Enabled: false},
		RateLimit:   middleware.RateLimitConfig{Enabled: false},
	}, tenants)
	if err != nil {
		grpcSrv.Stop()
		t.Fatalf("Failed to create REST server: %v", err)
	}

	go restSrv.Start()
	time.Sleep(100 * time.Millisecond)

	cleanup = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		restSrv.Stop(ctx)
		grpcSrv.Stop()
	}

	return fmt.Sprintf("http://%s:%d", cfg.REST.Host, cfg.REST.Port), cleanup
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to encode request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	return resp, decoded
}

func TestHealthCheck(t *testing.T) {
	baseURL, cleanup := setupTestServers(t)
	defer cleanup()

	resp, err := http.Get(baseURL + "/v1/health")
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestQueryExecutesAgainstTenantNamespace(t *testing.T) {
	baseURL, cleanup := setupTestServers(t)
	defer cleanup()

	resp, decoded := postJSON(t, baseURL+"/v1/query", map[string]interface{}{
		"namespace": "default",
		"query":     "SELECT id FROM docs",
		"ids":       []int{1, 2, 3},
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", resp.StatusCode, decoded)
	}

	batch, ok := decoded["Batch"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected a Batch field in the response, got %v", decoded)
	}
	if batch["Columns"] == nil {
		t.Error("Expected the result batch to carry columns")
	}
}

func TestQueryUnknownNamespaceReturnsNotFound(t *testing.T) {
	baseURL, cleanup := setupTestServers(t)
	defer cleanup()

	resp, _ := postJSON(t, baseURL+"/v1/query", map[string]interface{}{
		"namespace": "does-not-exist",
		"query":     "SELECT id FROM docs",
		"ids":       []int{1},
	})

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown namespace, got %d", resp.StatusCode)
	}
}

func TestDistanceEndpoint(t *testing.T) {
	baseURL, cleanup := setupTestServers(t)
	defer cleanup()

	// Two 3-dim f32 vectors packed little-endian: stored is 1 row, query is 1 row.
	stored := []byte{
		0x00, 0x00, 0x80, 0x3f, // 1.0
		0x00, 0x00, 0x00, 0x40, // 2.0
		0x00, 0x00, 0x40, 0x40, // 3.0
	}
	query := stored

	resp, decoded := postJSON(t, baseURL+"/v1/distance", map[string]interface{}{
		"element": "f32",
		"op":      "ip",
		"dim":     3,
		"m":       1,
		"n":       1,
		"stored":  stored,
		"query":   query,
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %v", resp.StatusCode, decoded)
	}
	if decoded["matrix"] == nil {
		t.Error("Expected a distance matrix in the response")
	}
}
