package fx

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/commercesignal/engine/internal/cache"
	"github.com/commercesignal/engine/internal/model"
)

// Client fetches live rates from an exchange-rate API, caching responses and
// falling back to a static table when the API misbehaves.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	cache    *cache.TTL
	cacheTTL time.Duration
	fallback *StaticProvider
	log      zerolog.Logger
}

// ClientConfig carries the knobs for NewClient.
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	CacheTTL      time.Duration
	RatePerSec    float64
	FallbackRates map[string]float64
	Logger        zerolog.Logger
}

// NewClient builds an FX client. FallbackRates may be nil, in which case API
// failures surface as errors instead of degrading to static rates.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.RatePerSec == 0 {
		cfg.RatePerSec = 2
	}
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		cache:    cache.NewTTL(cfg.CacheTTL),
		cacheTTL: cfg.CacheTTL,
		log:      cfg.Logger.With().Str("component", "fx").Logger(),
	}
	if cfg.FallbackRates != nil {
		c.fallback = NewStaticProvider(cfg.FallbackRates)
	}
	return c
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// RateAt returns the FROM->TO rate. Historical lookups are served from the
// latest table; the API has no history endpoint.
func (c *Client) RateAt(from, to string, _ time.Time) (float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return 1, nil
	}

	if cached, ok := c.cache.Get(pairKey(from, to)); ok {
		return cached.(float64), nil
	}

	rates, err := c.fetchRates(from)
	if err != nil {
		if c.fallback != nil {
			c.log.Warn().Err(err).Str("from", from).Str("to", to).
				Msg("rate API unavailable, using fallback table")
			return c.fallback.RateAt(from, to, time.Time{})
		}
		return 0, err
	}

	rateTo, ok := rates[to]
	if !ok {
		if c.fallback != nil {
			return c.fallback.RateAt(from, to, time.Time{})
		}
		return 0, fmt.Errorf("currency %s not in rate table: %w", to, model.ErrUpstream)
	}

	// Cache both directions so the reverse conversion skips a second call.
	c.cache.Set(pairKey(from, to), rateTo, c.cacheTTL)
	if rateTo > 0 {
		c.cache.Set(pairKey(to, from), 1/rateTo, c.cacheTTL)
	}
	return rateTo, nil
}

func (c *Client) fetchRates(base string) (map[string]float64, error) {
	if delay := c.limiter.Reserve().Delay(); delay > 0 {
		time.Sleep(delay)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, base)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates for %s: %w", base, model.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned %d for %s: %w",
			resp.StatusCode, base, model.ErrUpstream)
	}

	reader, err := decompressedReader(resp)
	if err != nil {
		return nil, err
	}

	var parsed ratesResponse
	if err := json.NewDecoder(reader).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding rate response: %w", model.ErrUpstream)
	}
	if len(parsed.Rates) == 0 {
		return nil, fmt.Errorf("empty rate table for %s: %w", base, model.ErrUpstream)
	}
	return parsed.Rates, nil
}

func decompressedReader(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		return gz, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
