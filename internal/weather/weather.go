package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/byteowlz/trackr/internal/cache"
	"github.com/byteowlz/trackr/internal/fetcher"
	"github.com/byteowlz/trackr/internal/logging"
)

const (
	DefaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"
	DefaultCacheTTL = 600 * time.Second
	DefaultTimeout  = 10 * time.Second
)

var ErrMissingAPIKey = errors.New("weather: API key not configured")

// Band is a temperature range with its display colour.
type Band struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var (
	BandCold = Band{Name: "cold", Color: "#3498db"}
	BandMild = Band{Name: "mild", Color: "#2ecc71"}
	BandWarm = Band{Name: "warm", Color: "#f39c12"}
	BandHot  = Band{Name: "hot", Color: "#e74c3c"}
)

// BandFor classifies a Celsius temperature.
func BandFor(tempC float64) Band {
	switch {
	case tempC <= 0:
		return BandCold
	case tempC <= 15:
		return BandMild
	case tempC <= 30:
		return BandWarm
	default:
		return BandHot
	}
}

type Reading struct {
	City      string    `json:"city"`
	TempC     float64   `json:"temp_c"`
	Band      Band      `json:"band"`
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}

type Client struct {
	APIKey   string
	Endpoint string
	CacheTTL time.Duration
	Timeout  time.Duration
	Log      *logging.Logger

	fetcher *fetcher.Fetcher
	cache   cache.Cache
	now     func() time.Time
}

func NewClient(apiKey string, f *fetcher.Fetcher, c cache.Cache) *Client {
	if c == nil {
		c = cache.Nop{}
	}
	return &Client{
		APIKey:   apiKey,
		Endpoint: DefaultEndpoint,
		CacheTTL: DefaultCacheTTL,
		Timeout:  DefaultTimeout,
		Log:      logging.Discard(),
		fetcher:  f,
		cache:    c,
		now:      time.Now,
	}
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

// Current returns the temperature for city, served from cache while fresh.
func (c *Client) Current(ctx context.Context, city string) (*Reading, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, errors.New("weather: city is required")
	}

	key := "weather:" + strings.ToLower(city)
	if cached, ok, err := c.cache.Get(ctx, key); err != nil {
		c.Log.Warnf("weather cache read failed: %v", err)
	} else if ok {
		var r Reading
		if json.Unmarshal(cached, &r) == nil {
			r.Cached = true
			return &r, nil
		}
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.APIKey)
	q.Set("units", "metric")

	result, err := c.fetcher.Fetch(ctx, c.Endpoint+"?"+q.Encode(), fetcher.Options{
		Mode:      fetcher.FetchModeStatic,
		Timeout:   c.Timeout,
		UserAgent: "trackr-weather",
	})
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}

	var resp currentResponse
	if err := json.Unmarshal([]byte(result.Body), &resp); err != nil {
		return nil, fmt.Errorf("weather: failed to parse response: %w", err)
	}
	if resp.Main.Temp == nil {
		return nil, errors.New("weather: response has no main.temp")
	}

	reading := &Reading{
		City:      city,
		TempC:     *resp.Main.Temp,
		Band:      BandFor(*resp.Main.Temp),
		FetchedAt: c.now(),
	}

	if data, err := json.Marshal(reading); err == nil {
		if err := c.cache.Set(ctx, key, data, c.CacheTTL); err != nil {
			c.Log.Warnf("weather cache write failed: %v", err)
		}
	}

	return reading, nil
}
