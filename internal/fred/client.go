// Package fred is a client for the FRED series observations API.
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rewired-gh/macropanel/internal/logger"
	"github.com/rewired-gh/macropanel/internal/models"
)

const (
	DefaultBaseURL = "https://api.stlouisfed.org/fred"

	FrequencyQuarterly = "q"
	AggregationAverage = "avg"

	// missingValue is how the provider marks an observation with no data.
	missingValue = "."
	dateLayout   = "2006-01-02"
)

// ClientConfig holds connection and resilience settings.
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	// BreakerFailures is the number of consecutive failed requests that opens the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultClientConfig returns settings for the public FRED endpoint. APIKey is left empty.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:         DefaultBaseURL,
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryDelayBase:  time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// APIError is a request the provider refused. It is not retried.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fred api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("fred api error: status %d: %s", e.StatusCode, e.Message)
}

// Client provides access to the FRED API.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	gate       *Gate
	breaker    *gobreaker.CircuitBreaker
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// NewClient creates a FRED client whose requests all pass through gate.
func NewClient(cfg ClientConfig, gate *Gate) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &models.InvalidConfigError{Param: "fred.api_key", Value: "", Reason: "must be set"}
	}
	if gate == nil {
		return nil, errors.New("fred client requires a request gate")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	st := gobreaker.Settings{
		Name:    "fred",
		Timeout: cfg.BreakerCooldown,
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || errors.As(err, &apiErr) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}
	if cfg.BreakerFailures > 0 {
		failures := cfg.BreakerFailures
		st.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		}
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		gate:    gate,
		breaker: gobreaker.NewCircuitBreaker(st),
	}, nil
}

// FetchSeries retrieves all observations of one series at the given frequency and
// aggregation. Missing values are NaN.
// While the breaker is open the call waits out the cooldown and tries again, so
// every series still gets a request of its own.
func (c *Client) FetchSeries(ctx context.Context, seriesID, frequency, aggregation string) ([]models.Observation, error) {
	for {
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetchObservations(ctx, seriesID, frequency, aggregation)
		})
		if err == nil {
			return out.([]models.Observation), nil
		}
		if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, err
		}

		logger.Debug("Breaker %s for %s, waiting %v", c.breaker.State(), seriesID, c.breakerWait())
		if werr := sleepCtx(ctx, c.breakerWait()); werr != nil {
			return nil, fmt.Errorf("fred unavailable: %w", errors.Join(err, werr))
		}
	}
}

// breakerWait is how long a caller pauses before asking an open breaker again.
func (c *Client) breakerWait() time.Duration {
	if c.cfg.BreakerCooldown > 0 {
		return c.cfg.BreakerCooldown
	}
	return 60 * time.Second // gobreaker's default open timeout
}

func (c *Client) fetchObservations(ctx context.Context, seriesID, frequency, aggregation string) ([]models.Observation, error) {
	u, err := url.Parse(c.cfg.BaseURL + "/series/observations")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("series_id", seriesID)
	q.Set("api_key", c.cfg.APIKey)
	q.Set("file_type", "json")
	if frequency != "" {
		q.Set("frequency", frequency)
	}
	if aggregation != "" {
		q.Set("aggregation_method", aggregation)
	}
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch observations for %s: %w", seriesID, err)
	}
	defer resp.Body.Close()

	var body observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode observations for %s: %w", seriesID, err)
	}
	return parseObservations(body)
}

func parseObservations(body observationsResponse) ([]models.Observation, error) {
	obs := make([]models.Observation, 0, len(body.Observations))
	for _, o := range body.Observations {
		date, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid observation date %q: %w", o.Date, err)
		}
		value := math.NaN()
		if o.Value != missingValue && o.Value != "" {
			value, err = strconv.ParseFloat(o.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid observation value %q on %s: %w", o.Value, o.Date, err)
			}
		}
		obs = append(obs, models.Observation{Date: date, Value: value})
	}
	return obs, nil
}

// doRequest performs HTTP request with retry logic. Every attempt waits on the gate.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i <= c.cfg.MaxRetries; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, time.Duration(i)*c.cfg.RetryDelayBase); err != nil {
				return nil, err
			}
		}
		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.Debug("Request attempt %d failed: %v", i+1, err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			logger.Debug("Request attempt %d failed: %v", i+1, lastErr)
			continue
		}

		if resp.StatusCode >= 400 {
			defer resp.Body.Close()
			return nil, decodeAPIError(resp)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body errorResponse
	if json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.ErrorCode
		apiErr.Message = body.ErrorMessage
	}
	return apiErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
