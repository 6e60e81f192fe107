package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const version = "1.0.0"

var (
	serverAddr string
	namespace  string
	timeout    time.Duration
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	flag.StringVar(&serverAddr, "server", "http://localhost:8081", "REST API base URL")
	flag.StringVar(&namespace, "namespace", "default", "namespace to query")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	command := os.Args[1]

	switch command {
	case "query":
		handleQuery(os.Args[2:])
	case "distance":
		handleDistance(os.Args[2:])
	case "sparse-distance":
		handleSparseDistance(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "health":
		handleHealth(os.Args[2:])
	case "version":
		fmt.Printf("zvecctl version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showUsage()
		os.Exit(1)
	}
}

func handleQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	var (
		sql    = fs.String("sql", "", "SELECT statement to plan and execute (required)")
		idsStr = fs.String("ids", "", "comma-separated row ids, e.g. 1,2,3")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	if *sql == "" {
		fmt.Println("Error: -sql is required")
		fs.Usage()
		os.Exit(1)
	}

	ids := parseUint64CSV(*idsStr)

	body := map[string]interface{}{
		"namespace": namespace,
		"query":     *sql,
		"ids":       ids,
	}
	printResponse(post("/v1/query", body))
}

func handleDistance(args []string) {
	fs := flag.NewFlagSet("distance", flag.ExitOnError)
	var (
		element = fs.String("element", "f32", "element type: f32, f16, i8, i4")
		op      = fs.String("op", "ip", "op: ip or negip")
		dim     = fs.Int("dim", 0, "vector dimension (required)")
		m       = fs.Int("m", 1, "number of stored vectors")
		n       = fs.Int("n", 1, "number of query vectors")
		stored  = fs.String("stored", "", "base64-encoded stored buffer (required)")
		query   = fs.String("query", "", "base64-encoded query buffer (required)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.Parse(args)

	if *dim == 0 || *stored == "" || *query == "" {
		fmt.Println("Error: -dim, -stored and -query are required")
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{
		"element": *element,
		"op":      *op,
		"dim":     *dim,
		"m":       *m,
		"n":       *n,
		"stored":  *stored,
		"query":   *query,
	}
	printResponse(post("/v1/distance", body))
}

func handleSparseDistance(args []string) {
	fs := flag.NewFlagSet("sparse-distance", flag.ExitOnError)
	var (
		element = fs.String("element", "f32", "element type: f32 or f16")
		stored  = fs.String("stored", "", "base64-encoded stored sparse buffer (required)")
		query   = fs.String("query", "", "base64-encoded query sparse buffer (required)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.Parse(args)

	if *stored == "" || *query == "" {
		fmt.Println("Error: -stored and -query are required")
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{
		"element": *element,
		"stored":  *stored,
		"query":   *query,
	}
	printResponse(post("/v1/distance/sparse", body))
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.StringVar(&namespace, "namespace", namespace, "namespace")
	fs.Parse(args)

	printResponse(get("/v1/stats/" + namespace))
}

func handleHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "REST API base URL")
	fs.Parse(args)

	printResponse(get("/v1/health"))
}

func post(path string, body map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(serverAddr+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func get(path string) ([]byte, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(serverAddr + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func printResponse(data []byte, err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(pretty.String())
}

func parseUint64CSV(s string) []uint64 {
	if s == "" {
		return nil
	}
	var ids []uint64
	var current uint64
	hasDigit := false
	flush := func() {
		if hasDigit {
			ids = append(ids, current)
		}
		current, hasDigit = 0, false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			current = current*10 + uint64(r-'0')
			hasDigit = true
		case r == ',':
			flush()
		}
	}
	flush()
	return ids
}

func showUsage() {
	fmt.Println("zvecctl - CLI for the zvec-core REST query API")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  zvecctl <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  query            Plan and execute a SELECT against a namespace")
	fmt.Println("  distance         Compute a dense distance matrix")
	fmt.Println("  sparse-distance  Compute a sparse minus-inner-product distance")
	fmt.Println("  stats            Show plan-cache and usage stats for a namespace")
	fmt.Println("  health           Check REST API health")
	fmt.Println("  version          Show version information")
	fmt.Println("  help             Show this help message")
	fmt.Println()
	fmt.Println("Options (given after the command):")
	fmt.Println("  -server URL       REST API base URL, every command that sends a request (default: http://localhost:8081)")
	fmt.Println("  -namespace NAME   Namespace, for query and stats only (default: default)")
	fmt.Println("Requests time out after 30s; the timeout is not settable from the command line.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  zvecctl query -sql \"SELECT id, vector FROM docs\" -ids 1,2,3")
	fmt.Println("  zvecctl distance -element f32 -dim 128 -m 1 -n 1 -stored <base64> -query <base64>")
	fmt.Println("  zvecctl stats -namespace default")
	fmt.Println()
}
