package registry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// PostgresRepository stores the ownership index and allowlist in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NextTokenID reserves the next ownership token id.
func (r *PostgresRepository) NextTokenID(ctx context.Context) (uint64, error) {
	var id int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('wallet_token_seq')`).Scan(&id); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateAccount inserts a token↔wallet binding.
func (r *PostgresRepository) CreateAccount(ctx context.Context, acct Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO registry_accounts (token_id, wallet_id, controller, created_at)
        VALUES ($1, $2, $3, $4)`,
		int64(acct.TokenID), string(acct.WalletID), string(acct.Controller), acct.CreatedAt.UTC())
	return err
}

// AccountByToken fetches the account bound to an ownership token.
func (r *PostgresRepository) AccountByToken(ctx context.Context, tokenID uint64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT token_id, wallet_id, controller, created_at
        FROM registry_accounts WHERE token_id = $1`, int64(tokenID))
	return scanAccount(row)
}

// AccountByWallet fetches the account owning a wallet address.
func (r *PostgresRepository) AccountByWallet(ctx context.Context, walletID chain.Address) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT token_id, wallet_id, controller, created_at
        FROM registry_accounts WHERE wallet_id = $1`, string(walletID))
	return scanAccount(row)
}

// SetController records an ownership transfer.
func (r *PostgresRepository) SetController(ctx context.Context, tokenID uint64, controller chain.Address) error {
	tag, err := r.db.Exec(ctx, `UPDATE registry_accounts SET controller = $2 WHERE token_id = $1`,
		int64(tokenID), string(controller))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AllowModule adds a module to the global allowlist.
func (r *PostgresRepository) AllowModule(ctx context.Context, module chain.Address) error {
	_, err := r.db.Exec(ctx, `INSERT INTO registry_modules (module) VALUES ($1)
        ON CONFLICT DO NOTHING`, string(module))
	return err
}

// DisallowModule removes a module from the global allowlist. Wallets that
// already enabled it keep it; only future enabling is blocked.
func (r *PostgresRepository) DisallowModule(ctx context.Context, module chain.Address) error {
	_, err := r.db.Exec(ctx, `DELETE FROM registry_modules WHERE module = $1`, string(module))
	return err
}

// IsModuleAllowed reports allowlist membership.
func (r *PostgresRepository) IsModuleAllowed(ctx context.Context, module chain.Address) (bool, error) {
	var allowed bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM registry_modules WHERE module = $1)`,
		string(module)).Scan(&allowed); err != nil {
		return false, err
	}
	return allowed, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var acct Account
	var tokenID int64
	var walletID, controller string
	var createdAt time.Time
	if err := row.Scan(&tokenID, &walletID, &controller, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	acct.TokenID = uint64(tokenID)
	acct.WalletID = chain.Address(walletID)
	acct.Controller = chain.Address(controller)
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}
