package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

var defaultPorts = map[string]string{
	"https":     "443",
	"http":      "80",
	"redis":     "6379",
	"rediss":    "6379",
	"postgres":  "5432",
	"mysql":     "3306",
	"sqlserver": "1433",
}

// PingService checks if a service is reachable at the given URL with a TCP dial
func PingService(ctx context.Context, serviceURL string) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	host := parsedURL.Hostname()
	if host == "" {
		return fmt.Errorf("invalid URL: no host in %q", serviceURL)
	}

	port := parsedURL.Port()
	if port == "" {
		if port = defaultPorts[parsedURL.Scheme]; port == "" {
			port = "80"
		}
	}

	address := net.JoinHostPort(host, port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(authzURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()
	return PingService(ctx, authzURL)
}
