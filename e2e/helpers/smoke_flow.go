// Command smoke_flow checks a running tasker gateway end to end without
// touching a model: health, operation listing and the rejection paths.
//
// Usage: smoke_flow -gateway http://127.0.0.1:PORT
//
// Exit codes:
//
//	0 = all checks passed
//	1 = a check failed
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	gwclient "github.com/dohr-michael/tasker/clients/gateway"
)

func main() {
	gatewayURL := flag.String("gateway", "http://127.0.0.1:8000", "Gateway base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *gatewayURL); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("PASS")
}

func run(ctx context.Context, gatewayURL string) error {
	client := gwclient.New(gatewayURL, 10*time.Second)

	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	fmt.Println("CHECK gateway healthy")

	resp, err := client.Run(ctx, "   ")
	if err != nil {
		return fmt.Errorf("run empty: %w", err)
	}
	if err := expect(resp, http.StatusBadRequest, "empty_task"); err != nil {
		return fmt.Errorf("run empty: %w", err)
	}
	fmt.Printf("CHECK empty task rejected (run %s)\n", resp.RunID)

	checks := []struct {
		path   string
		status int
		kind   string
	}{
		{"/etc/passwd", http.StatusBadRequest, "path_invalid"},
		{"/data/../etc/passwd", http.StatusBadRequest, "path_invalid"},
		{"/data/does-not-exist.txt", http.StatusNotFound, "path_not_found"},
	}
	for _, c := range checks {
		resp, err := client.Read(ctx, c.path)
		if err != nil {
			return fmt.Errorf("read %s: %w", c.path, err)
		}
		if err := expect(resp, c.status, c.kind); err != nil {
			return fmt.Errorf("read %s: %w", c.path, err)
		}
		fmt.Printf("CHECK read %s -> %d %s\n", c.path, c.status, c.kind)
	}

	return nil
}

func expect(resp *gwclient.Response, status int, kind string) error {
	if resp.Status != status {
		return fmt.Errorf("status %d, want %d: %s", resp.Status, status, resp.Body)
	}
	var body struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if body.Kind != kind {
		return fmt.Errorf("kind %q, want %q", body.Kind, kind)
	}
	return nil
}
