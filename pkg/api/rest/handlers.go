package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zvecdb/zvec-core/internal/simd"
	"github.com/zvecdb/zvec-core/pkg/engine"
	"github.com/zvecdb/zvec-core/pkg/observability"
	"github.com/zvecdb/zvec-core/pkg/tenant"
)

// Handler serves the query/distance REST surface directly against
// pkg/engine and the tenant registry: there is no gRPC client in the
// loop (spec.md's ExecuteQuery/ComputeDistance kernels are called
// in-process; see DESIGN.md "Decision: gRPC scope").
type Handler struct {
	tenants *tenant.Manager
}

// NewHandler creates a new REST API handler bound to a tenant registry.
func NewHandler(tenants *tenant.Manager) *Handler {
	return &Handler{tenants: tenants}
}

// HealthCheck handles GET /v1/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"status": "SERVING"}, http.StatusOK)
}

// GetStats handles GET /v1/stats and GET /v1/stats/{namespace}
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/stats")
	namespace := strings.TrimPrefix(path, "/")

	if namespace == "" {
		tenants := h.tenants.ListTenants()
		out := make(map[string]interface{}, len(tenants))
		for _, t := range tenants {
			out[t.Namespace] = namespaceStats(t)
		}
		writeJSON(w, out, http.StatusOK)
		return
	}

	t, err := h.tenants.GetTenant(namespace)
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, namespaceStats(t), http.StatusOK)
}

func namespaceStats(t *tenant.Tenant) map[string]interface{} {
	stats := t.Engine.Cache.Stats()
	return map[string]interface{}{
		"vector_count":     t.Usage.VectorCount,
		"plancache_hits":   stats.Hits,
		"plancache_misses": stats.Misses,
		"usage_pct":        t.GetUsagePercentage(),
	}
}

// queryRequest is the JSON body for POST /v1/query.
type queryRequest struct {
	Namespace string   `json:"namespace"`
	Query     string   `json:"query"`
	IDs       []uint64 `json:"ids"`
}

// Query handles POST /v1/query: ExecuteQuery against a namespace.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Namespace == "" {
		req.Namespace = "default"
	}

	t, err := h.tenants.GetTenant(req.Namespace)
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := t.CheckRateLimit(); err != nil {
		writeError(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	start := time.Now()
	result, err := t.Engine.ExecuteQuery(req.Query, req.IDs)
	duration := time.Since(start)
	if err != nil {
		observability.RecordQuery(req.Namespace, duration, 0, err)
		observability.RecordQueryError(req.Namespace, "execution")
		writeError(w, fmt.Sprintf("Query failed: %v", err), http.StatusBadRequest)
		return
	}
	observability.RecordQuery(req.Namespace, duration, result.Batch.NumRows(), nil)

	writeJSON(w, result, http.StatusOK)
}

// distanceRequest is the JSON body for POST /v1/distance.
type distanceRequest struct {
	Element string `json:"element"` // "f32", "f16", "i8", "i4"
	Op      string `json:"op"`      // "ip" or "negip"
	Dim     int    `json:"dim"`
	M       int    `json:"m"`
	N       int    `json:"n"`
	Stored  []byte `json:"stored"` // base64 in JSON
	Query   []byte `json:"query"`
}

// Distance handles POST /v1/distance: a raw dense distance-matrix
// computation, bypassing SQL entirely.
func (h *Handler) Distance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req distanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	element, err := parseElementType(req.Element)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	op, err := parseOp(req.Op)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := engine.ComputeDistance(engine.DistanceRequest{
		Element: element,
		Op:      op,
		Dim:     req.Dim,
		M:       req.M,
		N:       req.N,
		Stored:  req.Stored,
		Query:   req.Query,
	})
	if err != nil {
		writeError(w, fmt.Sprintf("ComputeDistance failed: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{"matrix": out}, http.StatusOK)
}

// sparseDistanceRequest is the JSON body for POST /v1/distance/sparse.
type sparseDistanceRequest struct {
	Element string `json:"element"` // "f32" or "f16"
	Stored  []byte `json:"stored"`
	Query   []byte `json:"query"`
}

// SparseDistance handles POST /v1/distance/sparse: MinusIP over two
// on-wire sparse buffers.
func (h *Handler) SparseDistance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sparseDistanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	element, err := parseElementType(req.Element)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := engine.ComputeSparseDistance(engine.SparseDistanceRequest{
		Element: element,
		Stored:  req.Stored,
		Query:   req.Query,
	})
	if err != nil {
		writeError(w, fmt.Sprintf("ComputeSparseDistance failed: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{"minus_ip": result}, http.StatusOK)
}

func parseElementType(s string) (simd.ElementType, error) {
	switch strings.ToLower(s) {
	case "f32", "":
		return simd.F32, nil
	case "f16":
		return simd.F16, nil
	case "i8":
		return simd.I8, nil
	case "i4":
		return simd.I4, nil
	default:
		return 0, fmt.Errorf("unknown element type %q", s)
	}
}

func parseOp(s string) (simd.Op, error) {
	switch strings.ToLower(s) {
	case "ip", "":
		return simd.IP, nil
	case "negip":
		return simd.NegIP, nil
	default:
		return 0, fmt.Errorf("unknown op %q", s)
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}

// ServeDocs serves the OpenAPI/Swagger documentation
func ServeDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	content, err := os.ReadFile("docs/api/openapi.yaml")
	if err != nil {
		writeError(w, "OpenAPI spec not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ServeSwaggerUI serves the Swagger UI HTML page
func ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	html := `<!DOCTYPE html>
<html>
<head>
    <title>zvec-core Query API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/docs/openapi.yaml",
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIBundle.SwaggerUIStandalonePreset
                ],
                layout: "BaseLayout"
            });
        };
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// ParseIntQuery parses an integer query parameter
func ParseIntQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
