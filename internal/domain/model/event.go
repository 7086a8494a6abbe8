package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventSent           EventType = "SENT"
	EventReceived       EventType = "RECEIVED"
	EventEscrowSent     EventType = "ESCROW_SENT"
	EventEscrowReceived EventType = "ESCROW_RECEIVED"
	EventExchange       EventType = "EXCHANGE"
	EventNftSent        EventType = "NFT_SENT"
	EventNftReceived    EventType = "NFT_RECEIVED"
)

// Event is the terminal output of the pipeline. Implementations are built
// once from a classified transaction and never mutated afterwards.
type Event interface {
	EventType() EventType
	Time() time.Time
	TransactionHash() string
}

// LocalAmount is an Amount converted into the caller's local currency.
// It is best-effort enrichment: an unpriceable amount is omitted, never a
// reason to drop the event.
type LocalAmount struct {
	Value        decimal.Decimal `json:"value"`
	CurrencyCode CurrencyCode    `json:"currencyCode"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
}

// Amount is a display-scaled token amount. Value is signed: negative for
// the user's outgoing leg, positive for incoming.
type Amount struct {
	Value        decimal.Decimal `json:"value"`
	CurrencyCode CurrencyCode    `json:"currencyCode"`
	Local        *LocalAmount    `json:"localAmount,omitempty"`
}

type FeeAmount struct {
	Type   FeeType `json:"type"`
	Amount Amount  `json:"amount"`
}

// TokenTransferEvent is a one-legged movement: sent, received, or either
// side of an escrowed invite.
type TokenTransferEvent struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	TxHash    string         `json:"transactionHash"`
	Block     int64          `json:"block"`
	Timestamp time.Time      `json:"timestamp"`
	Amount    Amount         `json:"amount"`
	Address   common.Address `json:"address"` // counterparty
	Name      string         `json:"name,omitempty"`
	ImageURL  string         `json:"imageUrl,omitempty"`
	Comment   string         `json:"comment,omitempty"`
	Fees      []FeeAmount    `json:"fees,omitempty"`
}

func (e *TokenTransferEvent) EventType() EventType    { return e.Type }
func (e *TokenTransferEvent) Time() time.Time         { return e.Timestamp }
func (e *TokenTransferEvent) TransactionHash() string { return e.TxHash }

// TokenExchangeEvent is a two-legged trade; both legs carry positive
// magnitudes, direction is implied by in/out.
type TokenExchangeEvent struct {
	ID        uuid.UUID   `json:"id"`
	TxHash    string      `json:"transactionHash"`
	Block     int64       `json:"block"`
	Timestamp time.Time   `json:"timestamp"`
	InAmount  Amount      `json:"inAmount"`
	OutAmount Amount      `json:"outAmount"`
	Fees      []FeeAmount `json:"fees,omitempty"`
}

func (e *TokenExchangeEvent) EventType() EventType    { return EventExchange }
func (e *TokenExchangeEvent) Time() time.Time         { return e.Timestamp }
func (e *TokenExchangeEvent) TransactionHash() string { return e.TxHash }

type NftAttribute struct {
	TraitType string `json:"traitType"`
	Value     string `json:"value"`
}

// Nft describes one non-fungible token, optionally enriched with external
// metadata.
type Nft struct {
	TokenID         *big.Int       `json:"tokenId"`
	ContractAddress common.Address `json:"contractAddress"`
	TokenURI        string         `json:"tokenUri,omitempty"`
	Name            string         `json:"name,omitempty"`
	ImageURL        string         `json:"imageUrl,omitempty"`
	Attributes      []NftAttribute `json:"attributes,omitempty"`
}

type NftTransferEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	TxHash    string    `json:"transactionHash"`
	Block     int64     `json:"block"`
	Timestamp time.Time `json:"timestamp"`
	Nfts      []Nft     `json:"nfts"`
}

func (e *NftTransferEvent) EventType() EventType    { return e.Type }
func (e *NftTransferEvent) Time() time.Time         { return e.Timestamp }
func (e *NftTransferEvent) TransactionHash() string { return e.TxHash }
