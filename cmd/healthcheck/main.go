// Command healthcheck checks a running panel from inside its container. It
// exits 0 when the JSON API reports ok and the login page renders.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultAddr = "127.0.0.1:8080"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := check(ctx, &http.Client{}, normalizeAddr(os.Getenv("TIENDAPANEL_LISTEN_ADDR"))); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

// check requires /api/v1/health to answer {"status":"ok"} and /login to
// answer 200 with HTML.
func check(ctx context.Context, client *http.Client, addr string) error {
	base := "http://" + addr

	var health struct {
		Status string `json:"status"`
	}
	if err := get(ctx, client, base+"/api/v1/health", func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&health)
	}); err != nil {
		return err
	}
	if health.Status != "ok" {
		return fmt.Errorf("api health status %q", health.Status)
	}

	return get(ctx, client, base+"/login", func(resp *http.Response) error {
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			return fmt.Errorf("login page content type %q", ct)
		}
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	})
}

func get(ctx context.Context, client *http.Client, target string, read func(*http.Response) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", target, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %d", target, resp.StatusCode)
	}
	if err := read(resp); err != nil {
		return errors.Join(fmt.Errorf("read %s", target), err)
	}
	return nil
}

// normalizeAddr points the check at loopback when the panel binds all
// interfaces.
func normalizeAddr(raw string) string {
	if raw == "" {
		return defaultAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
