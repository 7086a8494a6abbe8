package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/ethereum/go-ethereum/common"
)

// TokenRepo is the postgres-backed supported-token registry. Addresses
// are stored as lowercase hex strings and parsed back on read.
type TokenRepo struct {
	db *DB
}

func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

const tokenColumns = `id, address, symbol, name, decimals, token_type, peg_code, oracle_backed, created_at, updated_at`

func scanToken(scan func(...any) error) (*model.Token, error) {
	var t model.Token
	var address string
	var pegCode sql.NullString
	if err := scan(
		&t.ID, &address, &t.Symbol, &t.Name, &t.Decimals, &t.TokenType,
		&pegCode, &t.OracleBacked, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Address = common.HexToAddress(address)
	t.PegCode = model.CurrencyCode(pegCode.String)
	return &t, nil
}

// List returns every supported token.
func (r *TokenRepo) List(ctx context.Context) ([]model.Token, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.Token
	for rows.Next() {
		t, err := scanToken(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list tokens scan: %w", err)
		}
		tokens = append(tokens, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tokens rows: %w", err)
	}
	return tokens, nil
}

// Upsert inserts or updates a token keyed by its contract address,
// filling in the generated ID on insert.
func (r *TokenRepo) Upsert(ctx context.Context, t *model.Token) error {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var pegCode sql.NullString
	if t.PegCode != "" {
		pegCode = sql.NullString{String: string(t.PegCode), Valid: true}
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tokens (address, symbol, name, decimals, token_type, peg_code, oracle_backed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			decimals = EXCLUDED.decimals,
			token_type = EXCLUDED.token_type,
			peg_code = EXCLUDED.peg_code,
			oracle_backed = EXCLUDED.oracle_backed,
			updated_at = now()
		RETURNING id
	`, storedAddress(t.Address), t.Symbol, t.Name, t.Decimals, t.TokenType, pegCode, t.OracleBacked,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// FindByAddress returns the token at the given contract address, or nil
// when it is not registered.
func (r *TokenRepo) FindByAddress(ctx context.Context, address common.Address) (*model.Token, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE address = $1
	`, storedAddress(address))

	t, err := scanToken(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find token by address: %w", err)
	}
	return t, nil
}

// storedAddress normalizes an address for storage and lookups.
func storedAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
