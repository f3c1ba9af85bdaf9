package flashloan

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// ErrInsufficientDeposit indicates a withdrawal larger than the depositor's
// ledger entry (the underflow guard).
var ErrInsufficientDeposit = errors.New("insufficient deposit")

// DepositLedger tracks per-(asset, depositor) liquidity contributions. It is
// independent of any in-flight loan bookkeeping: there is no outstanding-loan
// ledger, solvency is checked against present balances at each request.
type DepositLedger interface {
	Credit(ctx context.Context, asset, depositor chain.Address, amount uint64) error
	Debit(ctx context.Context, asset, depositor chain.Address, amount uint64) error
	Amount(ctx context.Context, asset, depositor chain.Address) (uint64, error)
}

type depositKey struct {
	asset     chain.Address
	depositor chain.Address
}

type memoryLedger struct {
	mu       sync.Mutex
	deposits map[depositKey]uint64
}

// NewMemoryLedger constructs an in-memory deposit ledger for tests and dev mode.
func NewMemoryLedger() DepositLedger {
	return &memoryLedger{deposits: make(map[depositKey]uint64)}
}

func (l *memoryLedger) Credit(_ context.Context, asset, depositor chain.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deposits[depositKey{asset, depositor}] += amount
	return nil
}

func (l *memoryLedger) Debit(_ context.Context, asset, depositor chain.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := depositKey{asset, depositor}
	if l.deposits[key] < amount {
		return ErrInsufficientDeposit
	}
	l.deposits[key] -= amount
	return nil
}

func (l *memoryLedger) Amount(_ context.Context, asset, depositor chain.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deposits[depositKey{asset, depositor}], nil
}

// PostgresLedger stores deposit entries in PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger builds a deposit ledger backed by PostgreSQL.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Credit(ctx context.Context, asset, depositor chain.Address, amount uint64) error {
	_, err := l.db.Exec(ctx, `INSERT INTO flashloan_deposits (asset, depositor, amount)
        VALUES ($1, $2, $3)
        ON CONFLICT (asset, depositor) DO UPDATE SET amount = flashloan_deposits.amount + $3`,
		string(asset), string(depositor), int64(amount))
	return err
}

func (l *PostgresLedger) Debit(ctx context.Context, asset, depositor chain.Address, amount uint64) error {
	tag, err := l.db.Exec(ctx, `UPDATE flashloan_deposits SET amount = amount - $3
        WHERE asset = $1 AND depositor = $2 AND amount >= $3`,
		string(asset), string(depositor), int64(amount))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientDeposit
	}
	return nil
}

func (l *PostgresLedger) Amount(ctx context.Context, asset, depositor chain.Address) (uint64, error) {
	var amount int64
	err := l.db.QueryRow(ctx, `SELECT amount FROM flashloan_deposits
        WHERE asset = $1 AND depositor = $2`, string(asset), string(depositor)).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return uint64(amount), nil
}
