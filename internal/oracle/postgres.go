package oracle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// Postgres stores the last ingested settlement-layer snapshot. An external
// poller (or the admin ingest endpoint) upserts rows; domain reads are served
// from whatever was last written.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed oracle snapshot store.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) SpotBalance(ctx context.Context, account chain.Address, token uint64) (SpotBalance, error) {
	const query = `SELECT total, hold, entry_ntl FROM core_spot_balances WHERE account = $1 AND token = $2`
	var b SpotBalance
	if err := p.db.QueryRow(ctx, query, string(account), int64(token)).Scan(&b.Total, &b.Hold, &b.EntryNtl); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SpotBalance{}, nil
		}
		return SpotBalance{}, err
	}
	return b, nil
}

func (p *Postgres) Withdrawable(ctx context.Context, account chain.Address) (uint64, error) {
	const query = `SELECT amount FROM core_withdrawable WHERE account = $1`
	var amount uint64
	if err := p.db.QueryRow(ctx, query, string(account)).Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return amount, nil
}

func (p *Postgres) VaultEquity(ctx context.Context, account, vault chain.Address) (VaultEquity, error) {
	const query = `SELECT equity, locked_until FROM core_vault_equity WHERE account = $1 AND vault = $2`
	var e VaultEquity
	if err := p.db.QueryRow(ctx, query, string(account), string(vault)).Scan(&e.Equity, &e.LockedUntil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VaultEquity{}, nil
		}
		return VaultEquity{}, err
	}
	return e, nil
}

func (p *Postgres) UserExists(ctx context.Context, account chain.Address) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM core_users WHERE account = $1)`
	var exists bool
	if err := p.db.QueryRow(ctx, query, string(account)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertSpotBalance writes a spot balance snapshot row.
func (p *Postgres) UpsertSpotBalance(ctx context.Context, account chain.Address, token uint64, b SpotBalance) error {
	_, err := p.db.Exec(ctx, `INSERT INTO core_spot_balances (account, token, total, hold, entry_ntl)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (account, token) DO UPDATE SET total = $3, hold = $4, entry_ntl = $5`,
		string(account), int64(token), b.Total, b.Hold, b.EntryNtl)
	return err
}

// UpsertWithdrawable writes the withdrawable snapshot for an account.
func (p *Postgres) UpsertWithdrawable(ctx context.Context, account chain.Address, amount uint64) error {
	_, err := p.db.Exec(ctx, `INSERT INTO core_withdrawable (account, amount) VALUES ($1, $2)
        ON CONFLICT (account) DO UPDATE SET amount = $2`, string(account), amount)
	return err
}

// UpsertVaultEquity writes a vault equity snapshot row.
func (p *Postgres) UpsertVaultEquity(ctx context.Context, account, vault chain.Address, e VaultEquity) error {
	_, err := p.db.Exec(ctx, `INSERT INTO core_vault_equity (account, vault, equity, locked_until)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (account, vault) DO UPDATE SET equity = $3, locked_until = $4`,
		string(account), string(vault), e.Equity, e.LockedUntil)
	return err
}

// UpsertUser marks settlement-layer presence for an account.
func (p *Postgres) UpsertUser(ctx context.Context, account chain.Address) error {
	_, err := p.db.Exec(ctx, `INSERT INTO core_users (account) VALUES ($1)
        ON CONFLICT (account) DO NOTHING`, string(account))
	return err
}
