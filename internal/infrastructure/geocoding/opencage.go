// Package geocoding turns report coordinates into a human-readable address.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/civiclens/civiclens/internal/shared/config"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

type Address struct {
	Formatted string `json:"formatted"`
	Road      string `json:"road,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Country   string `json:"country,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
}

// FallbackAddress formats the coordinates themselves.
func FallbackAddress(lat, lng float64) Address {
	return Address{Formatted: fmt.Sprintf("%.6f, %.6f", lat, lng)}
}

// OpenCageClient never fails: without a key, or when the API misbehaves, it
// returns FallbackAddress. Successful lookups are cached by rounded coordinate.
type OpenCageClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	cache      *gocache.Cache
	logger     logger.Interface
}

func NewOpenCageClient(cfg config.GeocodingConfig, httpClient *http.Client, log logger.Interface) *OpenCageClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &OpenCageClient{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		httpClient: httpClient,
		cache:      gocache.New(ttl, ttl/2),
		logger:     log.Named("geocoding"),
	}
}

type openCageResponse struct {
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Results []struct {
		Formatted  string         `json:"formatted"`
		Components map[string]any `json:"components"`
	} `json:"results"`
}

func (c *OpenCageClient) ReverseGeocode(ctx context.Context, lat, lng float64) Address {
	if c.apiKey == "" {
		return FallbackAddress(lat, lng)
	}

	cacheKey := fmt.Sprintf("%.5f,%.5f", lat, lng)
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(Address)
	}

	addr, err := c.lookup(ctx, lat, lng)
	if err != nil {
		c.logger.Warnw("reverse geocoding failed, using coordinates",
			"lat", lat,
			"lng", lng,
			"error", err,
		)
		return FallbackAddress(lat, lng)
	}

	c.cache.SetDefault(cacheKey, addr)
	return addr
}

func (c *OpenCageClient) lookup(ctx context.Context, lat, lng float64) (Address, error) {
	q := url.Values{}
	q.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+"+"+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("key", c.apiKey)
	q.Set("language", "en")
	q.Set("no_annotations", "1")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Address{}, fmt.Errorf("failed to build geocoding request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var body openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Address{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(body.Results) == 0 {
		return Address{}, fmt.Errorf("geocoding returned no results")
	}

	r := body.Results[0]
	return Address{
		Formatted: r.Formatted,
		Road:      firstComponent(r.Components, "road", "pedestrian", "footway", "path"),
		City:      firstComponent(r.Components, "city", "town", "village", "county", "municipality"),
		State:     firstComponent(r.Components, "state"),
		Country:   firstComponent(r.Components, "country"),
		Postcode:  firstComponent(r.Components, "postcode"),
	}, nil
}

func firstComponent(components map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := components[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
