package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/ethereum/go-ethereum/common"
)

// Wire shapes as delivered by the transfer indexer. Big integers travel
// as decimal strings, byte payloads as 0x-prefixed hex, timestamps as
// unix seconds.
type wireTransfer struct {
	From         string `json:"from"`
	To           string `json:"to"`
	FromAccount  string `json:"fromAccount,omitempty"`
	ToAccount    string `json:"toAccount,omitempty"`
	TokenAddress string `json:"tokenAddress"`
	Value        string `json:"value"`
	TokenType    string `json:"tokenType"`
	TokenID      string `json:"tokenId,omitempty"`
}

type wireTransaction struct {
	Hash                string         `json:"hash"`
	Block               int64          `json:"block"`
	Timestamp           int64          `json:"timestamp"`
	GasPrice            string         `json:"gasPrice"`
	GasUsed             string         `json:"gasUsed"`
	FeeCurrency         string         `json:"feeCurrency,omitempty"`
	GatewayFee          string         `json:"gatewayFee,omitempty"`
	GatewayFeeRecipient string         `json:"gatewayFeeRecipient,omitempty"`
	Input               string         `json:"input,omitempty"`
	Transfers           []wireTransfer `json:"transfers"`
}

type wireBatch struct {
	Transactions []wireTransaction `json:"transactions"`
	PageInfo     PageInfo          `json:"pageInfo"`
}

// HTTPTransferFetcher fetches transfer pages from the indexing service:
// GET {base}/transfers?address=&cursor= returning a wireBatch.
type HTTPTransferFetcher struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewHTTPTransferFetcher(baseURL string, logger *slog.Logger) *HTTPTransferFetcher {
	return &HTTPTransferFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		logger:     logger.With("component", "transfer_fetcher"),
	}
}

func (f *HTTPTransferFetcher) FetchRawTransfers(ctx context.Context, address common.Address, cursor string) (Batch, error) {
	q := url.Values{}
	q.Set("address", address.Hex())
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/transfers?"+q.Encode(), nil)
	if err != nil {
		return Batch{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Batch{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Batch{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Batch{}, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var wire wireBatch
	if err := json.Unmarshal(body, &wire); err != nil {
		return Batch{}, fmt.Errorf("unmarshal response: %w", err)
	}

	return decodeBatch(wire)
}

func decodeBatch(wire wireBatch) (Batch, error) {
	batch := Batch{
		Transactions: make([]model.RawTransaction, 0, len(wire.Transactions)),
		PageInfo:     wire.PageInfo,
	}
	for _, wt := range wire.Transactions {
		tx, err := decodeTransaction(wt)
		if err != nil {
			return Batch{}, fmt.Errorf("tx %s: %w", wt.Hash, err)
		}
		batch.Transactions = append(batch.Transactions, tx)
	}
	return batch, nil
}

func decodeTransaction(wt wireTransaction) (model.RawTransaction, error) {
	gasPrice, err := decodeBig(wt.GasPrice, "gasPrice")
	if err != nil {
		return model.RawTransaction{}, err
	}
	gasUsed, err := decodeBig(wt.GasUsed, "gasUsed")
	if err != nil {
		return model.RawTransaction{}, err
	}

	tx := model.RawTransaction{
		Hash:        wt.Hash,
		Block:       wt.Block,
		Timestamp:   time.Unix(wt.Timestamp, 0).UTC(),
		GasPrice:    gasPrice,
		GasUsed:     gasUsed,
		FeeCurrency: model.CurrencyCode(wt.FeeCurrency),
		Input:       common.FromHex(wt.Input),
	}

	if wt.GatewayFee != "" {
		if tx.GatewayFee, err = decodeBig(wt.GatewayFee, "gatewayFee"); err != nil {
			return model.RawTransaction{}, err
		}
	}
	if wt.GatewayFeeRecipient != "" {
		if !common.IsHexAddress(wt.GatewayFeeRecipient) {
			return model.RawTransaction{}, fmt.Errorf("invalid gatewayFeeRecipient %q", wt.GatewayFeeRecipient)
		}
		recipient := common.HexToAddress(wt.GatewayFeeRecipient)
		tx.GatewayFeeRecipient = &recipient
	}

	tx.Transfers = make([]model.Transfer, 0, len(wt.Transfers))
	for _, wtr := range wt.Transfers {
		tr, err := decodeTransfer(wtr)
		if err != nil {
			return model.RawTransaction{}, err
		}
		tx.Transfers = append(tx.Transfers, tr)
	}
	return tx, nil
}

func decodeTransfer(wt wireTransfer) (model.Transfer, error) {
	value, err := decodeBig(wt.Value, "transfer value")
	if err != nil {
		return model.Transfer{}, err
	}
	tr := model.Transfer{
		From:         common.HexToAddress(wt.From),
		To:           common.HexToAddress(wt.To),
		FromAccount:  common.HexToAddress(wt.FromAccount),
		ToAccount:    common.HexToAddress(wt.ToAccount),
		TokenAddress: common.HexToAddress(wt.TokenAddress),
		Value:        value,
		TokenType:    model.TokenType(wt.TokenType),
	}
	if tr.TokenType == "" {
		tr.TokenType = model.TokenFungible
	}
	if wt.TokenID != "" {
		if tr.TokenID, err = decodeBig(wt.TokenID, "tokenId"); err != nil {
			return model.Transfer{}, err
		}
	}
	return tr, nil
}

func decodeBig(s, field string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", field, s)
	}
	return v, nil
}
