package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urlclick/shortener/internal/model"
)

// DefaultEndpoint is the ipinfo-style lookup service.
// GET <endpoint>/<ip>/json returns {"country": ..., "city": ...}.
const DefaultEndpoint = "https://ipinfo.io"

// IsLocal reports whether an IP is loopback or private and therefore
// skipped for geolocation.
func IsLocal(ip string) bool {
	return ip == "::1" ||
		strings.HasPrefix(ip, "127.") ||
		strings.HasPrefix(ip, "192.168.") ||
		strings.HasPrefix(ip, "10.") ||
		strings.HasPrefix(ip, "172.")
}

// Client looks up geolocation for public IPs. The HTTP client carries
// a hard timeout so a slow lookup service cannot stall a redirect.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Config holds geolocation client settings
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewClient creates a geolocation client
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Lookup fetches {country, city} for a public IP. Callers treat any
// error as "no geolocation" and continue; it must never fail a request.
func (c *Client) Lookup(ctx context.Context, ip string) (model.GeoInfo, error) {
	url := fmt.Sprintf("%s/%s/json", c.endpoint, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.GeoInfo{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.GeoInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GeoInfo{}, fmt.Errorf("geoip: lookup for %s returned status %d", ip, resp.StatusCode)
	}

	var info model.GeoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.GeoInfo{}, fmt.Errorf("geoip: decoding response: %w", err)
	}

	return info, nil
}
