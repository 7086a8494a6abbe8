package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/currency"
	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/enrich"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decimals assumed for a fee currency missing from the token registry.
const fallbackFeeDecimals = 18

// Builder turns classified transactions into output events. Amount
// scaling and sign conventions are exact; local-currency pricing and
// display/NFT metadata are best-effort and never fail an event.
type Builder struct {
	resolver      *currency.Resolver
	display       *enrich.CachedDisplayLookup
	nfts          *enrich.NftEnricher
	localCurrency model.CurrencyCode
	logger        *slog.Logger
}

// NewBuilder creates a Builder. resolver, display, and nfts may be nil;
// the corresponding enrichment is then skipped entirely.
func NewBuilder(resolver *currency.Resolver, display *enrich.CachedDisplayLookup, nfts *enrich.NftEnricher, localCurrency model.CurrencyCode, logger *slog.Logger) *Builder {
	return &Builder{
		resolver:      resolver,
		display:       display,
		nfts:          nfts,
		localCurrency: localCurrency,
		logger:        logger.With("component", "event_builder"),
	}
}

// displayValue converts a base-unit value to display units using the
// token's decimal count.
func displayValue(token model.Token, tr model.Transfer) decimal.Decimal {
	return decimal.NewFromBigInt(tr.Value, -int32(token.Decimals))
}

func (b *Builder) amount(c *Context, tr model.Transfer, outgoing bool) (model.Amount, error) {
	token, ok := c.Tokens.ByAddress(tr.TokenAddress)
	if !ok {
		return model.Amount{}, fmt.Errorf("token %s not in registry", tr.TokenAddress.Hex())
	}
	v := displayValue(token, tr)
	if outgoing {
		v = v.Neg()
	}
	return model.Amount{Value: v, CurrencyCode: token.Symbol}, nil
}

// attachLocal prices the amount in the configured local currency. An
// unpriceable amount keeps its event; the optional field is just omitted.
func (b *Builder) attachLocal(ctx context.Context, a *model.Amount, at time.Time, overrides map[currency.Pair]decimal.Decimal) {
	if b.resolver == nil || b.localCurrency == "" {
		return
	}
	rate, err := b.resolver.GetExchangeRate(ctx, a.CurrencyCode, b.localCurrency, at, overrides)
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues("local_amount").Inc()
		b.logger.Debug("local amount unpriceable", "currency", a.CurrencyCode, "error", err)
		return
	}
	a.Local = &model.LocalAmount{
		Value:        a.Value.Mul(rate),
		CurrencyCode: b.localCurrency,
		ExchangeRate: rate,
	}
}

func (b *Builder) feeAmounts(ctx context.Context, c *Context, tx *model.Transaction) []model.FeeAmount {
	fees := tx.Fees()
	out := make([]model.FeeAmount, 0, len(fees))
	for _, f := range fees {
		decimals := int32(fallbackFeeDecimals)
		if token, ok := c.Tokens.BySymbol(f.CurrencyCode); ok {
			decimals = int32(token.Decimals)
		}
		amt := model.Amount{
			Value:        decimal.NewFromBigInt(f.Value, -decimals),
			CurrencyCode: f.CurrencyCode,
		}
		b.attachLocal(ctx, &amt, tx.Timestamp, nil)
		out = append(out, model.FeeAmount{Type: f.Type, Amount: amt})
	}
	return out
}

// transferEvent builds a one-legged movement. Fees attach only to the
// user's outgoing legs.
func (b *Builder) transferEvent(ctx context.Context, c *Context, tx *model.Transaction, typ model.EventType, tr model.Transfer, counterparty common.Address, outgoing bool) (model.Event, error) {
	amount, err := b.amount(c, tr, outgoing)
	if err != nil {
		return nil, err
	}
	b.attachLocal(ctx, &amount, tx.Timestamp, nil)

	var info enrich.DisplayInfo
	if b.display != nil {
		info = b.display.Lookup(ctx, counterparty)
	}

	ev := &model.TokenTransferEvent{
		ID:        uuid.New(),
		Type:      typ,
		TxHash:    tx.Hash,
		Block:     tx.Block,
		Timestamp: tx.Timestamp,
		Amount:    amount,
		Address:   counterparty,
		Name:      info.Name,
		ImageURL:  info.ImageURL,
		Comment:   tx.Comment(),
	}
	if outgoing {
		ev.Fees = b.feeAmounts(ctx, c, tx)
	}
	return ev, nil
}

// exchangeEvent builds a two-legged trade. Both legs carry positive
// magnitudes; the executed in/out ratio overrides derived rates when
// pricing the legs, since it reflects this exact trade.
func (b *Builder) exchangeEvent(ctx context.Context, c *Context, tx *model.Transaction, out, in model.Transfer) (model.Event, error) {
	outToken, ok := c.Tokens.ByAddress(out.TokenAddress)
	if !ok {
		return nil, fmt.Errorf("token %s not in registry", out.TokenAddress.Hex())
	}
	inToken, ok := c.Tokens.ByAddress(in.TokenAddress)
	if !ok {
		return nil, fmt.Errorf("token %s not in registry", in.TokenAddress.Hex())
	}

	outVal := displayValue(outToken, out)
	inVal := displayValue(inToken, in)
	overrides := impliedRates(outToken.Symbol, outVal, inToken.Symbol, inVal)

	outAmount := model.Amount{Value: outVal, CurrencyCode: outToken.Symbol}
	inAmount := model.Amount{Value: inVal, CurrencyCode: inToken.Symbol}
	b.attachLocal(ctx, &outAmount, tx.Timestamp, overrides)
	b.attachLocal(ctx, &inAmount, tx.Timestamp, overrides)

	return &model.TokenExchangeEvent{
		ID:        uuid.New(),
		TxHash:    tx.Hash,
		Block:     tx.Block,
		Timestamp: tx.Timestamp,
		InAmount:  inAmount,
		OutAmount: outAmount,
		Fees:      b.feeAmounts(ctx, c, tx),
	}, nil
}

// impliedRates derives the executed rate of a trade in both directions.
func impliedRates(outCode model.CurrencyCode, outVal decimal.Decimal, inCode model.CurrencyCode, inVal decimal.Decimal) map[currency.Pair]decimal.Decimal {
	if outVal.IsZero() || inVal.IsZero() {
		return nil
	}
	return map[currency.Pair]decimal.Decimal{
		{From: outCode, To: inCode}: inVal.Div(outVal),
		{From: inCode, To: outCode}: outVal.Div(inVal),
	}
}

// nftEvent builds a non-fungible movement from the matched direction's
// transfers, metadata-enriched when an enricher is configured.
func (b *Builder) nftEvent(ctx context.Context, tx *model.Transaction, typ model.EventType, transfers []model.Transfer) (model.Event, error) {
	nfts := make([]model.Nft, 0, len(transfers))
	for _, tr := range transfers {
		nfts = append(nfts, model.Nft{TokenID: tr.TokenID, ContractAddress: tr.TokenAddress})
	}
	if b.nfts != nil {
		nfts = b.nfts.Enrich(ctx, nfts)
	}
	return &model.NftTransferEvent{
		ID:        uuid.New(),
		Type:      typ,
		TxHash:    tx.Hash,
		Block:     tx.Block,
		Timestamp: tx.Timestamp,
		Nfts:      nfts,
	}, nil
}
