package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/shopspring/decimal"
)

// rateClient fetches a quote from an HTTP rate provider. Both providers
// in use expose the same shape: GET {base}/rate?from=&to=&date= returning
// {"rate": "<decimal>"}.
type rateClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func newRateClient(baseURL string, logger *slog.Logger) *rateClient {
	return &rateClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		logger:     logger,
	}
}

func (c *rateClient) fetch(ctx context.Context, from, to model.CurrencyCode, at time.Time) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("from", string(from))
	q.Set("to", string(to))
	q.Set("date", at.UTC().Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rate?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Rate string `json:"rate"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("unmarshal response: %w", err)
	}

	rate, err := decimal.NewFromString(out.Rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate %q: %w", out.Rate, err)
	}
	return rate, nil
}

// HTTPOracleSource quotes oracle-tracked tokens from an HTTP provider.
type HTTPOracleSource struct {
	client *rateClient
}

func NewHTTPOracleSource(baseURL string, logger *slog.Logger) *HTTPOracleSource {
	return &HTTPOracleSource{client: newRateClient(baseURL, logger.With("component", "oracle_source"))}
}

func (s *HTTPOracleSource) OracleRate(ctx context.Context, from, to model.CurrencyCode, at time.Time) (decimal.Decimal, error) {
	return s.client.fetch(ctx, from, to, at)
}

// HTTPFxSource quotes fiat pairs from an HTTP provider.
type HTTPFxSource struct {
	client *rateClient
}

func NewHTTPFxSource(baseURL string, logger *slog.Logger) *HTTPFxSource {
	return &HTTPFxSource{client: newRateClient(baseURL, logger.With("component", "fx_source"))}
}

func (s *HTTPFxSource) FxRate(ctx context.Context, from, to model.CurrencyCode, at time.Time) (decimal.Decimal, error) {
	return s.client.fetch(ctx, from, to, at)
}
