package ledgerbook

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// PostgresBook stores token mappings in PostgreSQL.
type PostgresBook struct {
	db *pgxpool.Pool
}

// NewPostgresBook builds a token book backed by PostgreSQL.
func NewPostgresBook(db *pgxpool.Pool) *PostgresBook {
	return &PostgresBook{db: db}
}

// Add upserts a token mapping.
func (b *PostgresBook) Add(ctx context.Context, token Token) error {
	_, err := b.db.Exec(ctx, `INSERT INTO tokens (asset, system_address, core_token, name)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (asset) DO UPDATE SET system_address = $2, core_token = $3, name = $4`,
		string(token.Asset), string(token.SystemAddress), int64(token.CoreToken), token.Name)
	return err
}

// InfoFor fetches the settlement mapping for an asset.
func (b *PostgresBook) InfoFor(ctx context.Context, asset chain.Address) (Token, error) {
	row := b.db.QueryRow(ctx, `SELECT asset, system_address, core_token, name
        FROM tokens WHERE asset = $1`, string(asset))
	var t Token
	var assetStr, systemStr string
	var coreToken int64
	if err := row.Scan(&assetStr, &systemStr, &coreToken, &t.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, ErrTokenNotAdded
		}
		return Token{}, err
	}
	t.Asset = chain.Address(assetStr)
	t.SystemAddress = chain.Address(systemStr)
	t.CoreToken = uint64(coreToken)
	return t, nil
}
