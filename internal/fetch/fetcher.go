// Package fetch obtains raw per-address transfer batches from the
// transfer-indexing service, page by page.
package fetch

import (
	"context"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/ethereum/go-ethereum/common"
)

// PageInfo carries pagination state for a transfer batch.
type PageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// Batch is one page of raw transactions for a single address, grouped by
// transaction hash upstream.
type Batch struct {
	Transactions []model.RawTransaction
	PageInfo     PageInfo
}

// TransferFetcher retrieves raw transfer pages. An empty cursor requests
// the first page.
type TransferFetcher interface {
	FetchRawTransfers(ctx context.Context, address common.Address, cursor string) (Batch, error)
}

// All walks every page for an address and concatenates the transactions.
func All(ctx context.Context, f TransferFetcher, address common.Address) ([]model.RawTransaction, error) {
	var out []model.RawTransaction
	cursor := ""
	for {
		batch, err := f.FetchRawTransfers(ctx, address, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, batch.Transactions...)
		if !batch.PageInfo.HasNextPage {
			return out, nil
		}
		cursor = batch.PageInfo.EndCursor
	}
}
