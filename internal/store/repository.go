package store

import (
	"context"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/ethereum/go-ethereum/common"
)

// TokenRepository provides access to the supported-token registry data.
type TokenRepository interface {
	List(ctx context.Context) ([]model.Token, error)
	Upsert(ctx context.Context, token *model.Token) error
	FindByAddress(ctx context.Context, address common.Address) (*model.Token, error)
}
