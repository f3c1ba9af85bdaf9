package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// PostgresRepository stores wallet state in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) error {
	_, err := r.db.Exec(ctx, `INSERT INTO wallets (id, token_id, next_action_block, created_at)
        VALUES ($1, $2, $3, $4)`, string(w.ID), int64(w.TokenID), int64(w.NextActionBlock), w.CreatedAt.UTC())
	return err
}

// Get fetches a wallet by id.
func (r *PostgresRepository) Get(ctx context.Context, id chain.Address) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT id, token_id, next_action_block, created_at
        FROM wallets WHERE id = $1`, string(id))
	var w Wallet
	var idStr string
	var tokenID, nextBlock int64
	var createdAt time.Time
	if err := row.Scan(&idStr, &tokenID, &nextBlock, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = chain.Address(idStr)
	w.TokenID = uint64(tokenID)
	w.NextActionBlock = uint64(nextBlock)
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

func (r *PostgresRepository) IsModuleEnabled(ctx context.Context, id, module chain.Address) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM wallet_modules WHERE wallet_id = $1 AND module = $2)`
	var enabled bool
	if err := r.db.QueryRow(ctx, query, string(id), string(module)).Scan(&enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (r *PostgresRepository) SetModuleEnabled(ctx context.Context, id, module chain.Address, enabled bool) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if enabled {
		_, err := r.db.Exec(ctx, `INSERT INTO wallet_modules (wallet_id, module) VALUES ($1, $2)
            ON CONFLICT DO NOTHING`, string(id), string(module))
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM wallet_modules WHERE wallet_id = $1 AND module = $2`,
		string(id), string(module))
	return err
}

func (r *PostgresRepository) IsDelegateAllowed(ctx context.Context, id, module, delegate chain.Address) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM wallet_delegations
        WHERE wallet_id = $1 AND module = $2 AND delegate = $3)`
	var allowed bool
	if err := r.db.QueryRow(ctx, query, string(id), string(module), string(delegate)).Scan(&allowed); err != nil {
		return false, err
	}
	return allowed, nil
}

func (r *PostgresRepository) SetDelegateAllowed(ctx context.Context, id, module, delegate chain.Address, allowed bool) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if allowed {
		_, err := r.db.Exec(ctx, `INSERT INTO wallet_delegations (wallet_id, module, delegate)
            VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, string(id), string(module), string(delegate))
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM wallet_delegations
        WHERE wallet_id = $1 AND module = $2 AND delegate = $3`,
		string(id), string(module), string(delegate))
	return err
}

// UseBlock claims the height with a conditional update so two competing
// transactions for the same wallet cannot both succeed at one height.
func (r *PostgresRepository) UseBlock(ctx context.Context, id chain.Address, height uint64) error {
	tag, err := r.db.Exec(ctx, `UPDATE wallets SET next_action_block = $2 + 1
        WHERE id = $1 AND next_action_block <= $2`, string(id), int64(height))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrBlockAlreadyUsed
	}
	return nil
}

// ReleaseBlock restores the claim to prev, but only while the wallet still
// holds the slot claimed at height.
func (r *PostgresRepository) ReleaseBlock(ctx context.Context, id chain.Address, height, prev uint64) error {
	_, err := r.db.Exec(ctx, `UPDATE wallets SET next_action_block = $3
        WHERE id = $1 AND next_action_block = $2 + 1`, string(id), int64(height), int64(prev))
	return err
}
