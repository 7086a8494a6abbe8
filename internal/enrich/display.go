// Package enrich holds the best-effort external lookups the event builder
// uses: counterparty display metadata and NFT metadata. Nothing in this
// package may fail an event; a failed lookup degrades to empty metadata.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/cache"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
)

// DisplayInfo is human-readable counterparty metadata.
type DisplayInfo struct {
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// DisplayLookup resolves display metadata for an address.
type DisplayLookup interface {
	LookupDisplayInfo(ctx context.Context, addr common.Address) (DisplayInfo, error)
}

const (
	displayCacheCapacity = 8192
	displayCacheTTL      = time.Hour
)

// CachedDisplayLookup caches display lookups and swallows failures.
// A miss or an upstream error both resolve to empty metadata.
type CachedDisplayLookup struct {
	src    DisplayLookup
	cache  *cache.LRU[common.Address, DisplayInfo]
	logger *slog.Logger
}

func NewCachedDisplayLookup(src DisplayLookup, logger *slog.Logger) *CachedDisplayLookup {
	return &CachedDisplayLookup{
		src:    src,
		cache:  cache.NewLRU[common.Address, DisplayInfo](displayCacheCapacity, displayCacheTTL),
		logger: logger.With("component", "display_lookup"),
	}
}

// Lookup never fails. Negative results are cached too, so a flapping
// upstream does not get hammered per event.
func (l *CachedDisplayLookup) Lookup(ctx context.Context, addr common.Address) DisplayInfo {
	if info, ok := l.cache.Get(addr); ok {
		return info
	}
	info, err := l.src.LookupDisplayInfo(ctx, addr)
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues("display").Inc()
		l.logger.Debug("display lookup failed", "address", addr.Hex(), "error", err)
		return DisplayInfo{}
	}
	l.cache.Put(addr, info)
	return info
}

// HTTPDisplayLookup resolves display metadata from an HTTP directory
// service: GET {base}/address/{hex} returning DisplayInfo JSON. A 404 is
// a successful empty result.
type HTTPDisplayLookup struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPDisplayLookup(baseURL string) *HTTPDisplayLookup {
	return &HTTPDisplayLookup{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

func (l *HTTPDisplayLookup) LookupDisplayInfo(ctx context.Context, addr common.Address) (DisplayInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/address/"+addr.Hex(), nil)
	if err != nil {
		return DisplayInfo{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return DisplayInfo{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return DisplayInfo{}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return DisplayInfo{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return DisplayInfo{}, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var info DisplayInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return DisplayInfo{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return info, nil
}
