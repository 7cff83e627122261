// Package flags evaluates feature flags against an external flag-management
// service, with a file-based fallback for when the service is unreachable.
package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures a flag Client.
type Config struct {
	// BaseURL of the flag-management service, e.g. http://flags.internal:8200.
	BaseURL string
	// Timeout per evaluation request.
	Timeout time.Duration
	// CacheTTL is how long an evaluation is reused before asking again.
	CacheTTL time.Duration
	// Fallback holds flag states used when the service cannot answer.
	Fallback map[string]bool

	Log *slog.Logger
}

// Client asks the flag service whether a flag is enabled. Evaluations are
// cached for a short TTL; on any failure the fallback map answers, and flags
// absent from it evaluate to the caller's default.
type Client struct {
	httpClient *http.Client
	baseURL    string
	ttl        time.Duration
	fallback   map[string]bool
	log        *slog.Logger

	mu    sync.Mutex
	cache map[string]cachedFlag
}

type cachedFlag struct {
	enabled bool
	expires time.Time
}

type flagResponse struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		ttl:        ttl,
		fallback:   cfg.Fallback,
		log:        log,
		cache:      map[string]cachedFlag{},
	}
}

// Enabled reports whether the flag is on. def answers when neither the
// service nor the fallback knows the flag.
func (c *Client) Enabled(ctx context.Context, key string, def bool) bool {
	if enabled, ok := c.cached(key); ok {
		return enabled
	}

	enabled, err := c.evaluate(ctx, key)
	if err != nil {
		c.log.Warn("flag evaluation failed, using fallback", "flag", key, "error", err.Error())

		if enabled, ok := c.fallback[key]; ok {
			return enabled
		}
		return def
	}

	c.store(key, enabled)

	return enabled
}

func (c *Client) cached(key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expires) {
		return false, false
	}

	return entry.enabled, true
}

func (c *Client) store(key string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = cachedFlag{enabled: enabled, expires: time.Now().Add(c.ttl)}
}

func (c *Client) evaluate(ctx context.Context, key string) (bool, error) {
	if c.baseURL == "" {
		return false, fmt.Errorf("no flag service configured")
	}

	endpoint := c.baseURL + "/v1/flags/" + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build flag request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call flag service: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("flag service returned %d", res.StatusCode)
	}

	var body flagResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode flag response: %w", err)
	}

	return body.Enabled, nil
}

// LoadFile reads a fallback flag file of the form `flag-name: true`.
func LoadFile(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flag file: %w", err)
	}

	var flags map[string]bool
	if err := yaml.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf("parse flag file: %w", err)
	}

	return flags, nil
}
