package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// NftMetadataFetcher resolves external metadata for one non-fungible token.
type NftMetadataFetcher interface {
	FetchNftMetadata(ctx context.Context, contract common.Address, tokenID *big.Int) (model.Nft, error)
}

const nftFetchConcurrency = 8

// NftEnricher fans metadata fetches out per token and joins the results.
// A token whose fetch fails is dropped from the result and logged; its
// siblings are unaffected.
type NftEnricher struct {
	fetcher NftMetadataFetcher
	logger  *slog.Logger
}

func NewNftEnricher(fetcher NftMetadataFetcher, logger *slog.Logger) *NftEnricher {
	return &NftEnricher{
		fetcher: fetcher,
		logger:  logger.With("component", "nft_enricher"),
	}
}

// Enrich resolves metadata for every nft in parallel. The returned slice
// preserves input order minus the tokens whose fetch failed.
func (e *NftEnricher) Enrich(ctx context.Context, nfts []model.Nft) []model.Nft {
	enriched := make([]*model.Nft, len(nfts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nftFetchConcurrency)
	for i, nft := range nfts {
		i, nft := i, nft
		g.Go(func() error {
			meta, err := e.fetcher.FetchNftMetadata(gctx, nft.ContractAddress, nft.TokenID)
			if err != nil {
				metrics.EnrichmentFailures.WithLabelValues("nft").Inc()
				e.logger.Warn("nft metadata fetch failed, dropping token from event",
					"contract", nft.ContractAddress.Hex(), "tokenId", nft.TokenID, "error", err)
				return nil
			}
			meta.ContractAddress = nft.ContractAddress
			meta.TokenID = nft.TokenID
			// Each goroutine owns exactly its own slot.
			enriched[i] = &meta
			return nil
		})
	}
	// Goroutines never return errors; failures are per-token.
	_ = g.Wait()

	out := make([]model.Nft, 0, len(nfts))
	for _, n := range enriched {
		if n != nil {
			out = append(out, *n)
		}
	}
	return out
}

// HTTPNftMetadataFetcher fetches NFT metadata over HTTP:
// GET {base}/nft/{contract}/{tokenId} returning the model.Nft JSON shape.
type HTTPNftMetadataFetcher struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPNftMetadataFetcher(baseURL string) *HTTPNftMetadataFetcher {
	return &HTTPNftMetadataFetcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

func (f *HTTPNftMetadataFetcher) FetchNftMetadata(ctx context.Context, contract common.Address, tokenID *big.Int) (model.Nft, error) {
	url := fmt.Sprintf("%s/nft/%s/%s", f.baseURL, contract.Hex(), tokenID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.Nft{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.Nft{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Nft{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Nft{}, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var nft model.Nft
	if err := json.Unmarshal(body, &nft); err != nil {
		return model.Nft{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return nft, nil
}
