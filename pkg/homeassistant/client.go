// Package homeassistant reads entities and notification services from the
// Home Assistant REST API.
package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adconfigurator/api/pkg/cache"
	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/values"
)

const (
	defaultTimeout = 10 * time.Second
	notifyDomain   = "notify"
)

// APIError is returned when Home Assistant answers with a non-2xx status
type APIError struct {
	Path       string
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("home assistant API error on %s: %s", e.Path, e.Status)
}

// Entity is an entity reduced to what a picker needs
type Entity struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Domain string `json:"domain"`
}

// NotifyService is a notify.* service offered as a notification target
type NotifyService struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// state mirrors one element of GET /api/states
type state struct {
	EntityID   string `json:"entity_id"`
	Attributes struct {
		FriendlyName string `json:"friendly_name"`
	} `json:"attributes"`
}

// serviceDomain mirrors one element of GET /api/services
type serviceDomain struct {
	Domain   string                   `json:"domain"`
	Services map[string]serviceDetail `json:"services"`
}

type serviceDetail struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Client talks to one Home Assistant instance
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after ten seconds
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCache keeps raw responses in store for ttl. A nil store disables caching.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// NewClient creates a client. Quotes left around the URL or token by form
// encoding are removed, as is a trailing slash on the URL.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(values.StripQuotes(baseURL), "/"),
		token:      values.StripQuotes(token),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the cleaned base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListEntities returns the entities whose domain is one of domains, or all
// entities when domains is empty
func (c *Client) ListEntities(ctx context.Context, domains []string) ([]Entity, error) {
	var states []state
	if err := c.fetch(ctx, "states", &states); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(domains))
	for _, domain := range domains {
		if domain = strings.TrimSpace(domain); domain != "" {
			wanted[domain] = true
		}
	}

	entities := make([]Entity, 0, len(states))
	for _, s := range states {
		domain := EntityDomain(s.EntityID)
		if len(wanted) > 0 && !wanted[domain] {
			continue
		}
		label := s.Attributes.FriendlyName
		if label == "" {
			label = s.EntityID
		}
		entities = append(entities, Entity{Value: s.EntityID, Label: label, Domain: domain})
	}
	return entities, nil
}

// ListNotificationServices returns the services of the notify domain sorted
// by label
func (c *Client) ListNotificationServices(ctx context.Context) ([]NotifyService, error) {
	var domains []serviceDomain
	if err := c.fetch(ctx, "services", &domains); err != nil {
		return nil, err
	}

	services := []NotifyService{}
	for _, d := range domains {
		if d.Domain != notifyDomain {
			continue
		}
		for name, detail := range d.Services {
			label := detail.Name
			if label == "" {
				label = detail.Description
			}
			if label == "" {
				label = ServiceLabel(name)
			}
			services = append(services, NotifyService{Value: notifyDomain + "." + name, Label: label})
		}
		break
	}

	sort.Slice(services, func(i, j int) bool {
		a, b := strings.ToLower(services[i].Label), strings.ToLower(services[j].Label)
		if a != b {
			return a < b
		}
		return services[i].Value < services[j].Value
	})
	return services, nil
}

// EntityDomain returns the part of an entity id before the first dot
func EntityDomain(entityID string) string {
	domain, _, _ := strings.Cut(entityID, ".")
	return domain
}

// ServiceLabel turns mobile_app_pixel into "Mobile App Pixel"
func ServiceLabel(name string) string {
	words := strings.Split(name, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func (c *Client) fetch(ctx context.Context, path string, dest interface{}) error {
	key := cache.Key(path, c.baseURL, c.token)
	if c.cache != nil {
		if err := c.cache.Get(ctx, key, dest); err == nil {
			return nil
		} else if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheExpired) {
			logging.Logger.Debug("Ignoring unreadable cache entry",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/"+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach home assistant: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Path: path, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode home assistant %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode home assistant %s: %w", path, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
			logging.Logger.Debug("Failed to cache home assistant response",
				zap.String("path", path),
				zap.Error(err))
		}
	}
	return nil
}
