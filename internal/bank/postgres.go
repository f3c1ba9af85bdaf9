package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBank persists balance postings in PostgreSQL ensuring double-entry
// consistency across asset accounts.
type PostgresBank struct {
	db *pgxpool.Pool
}

// NewPostgresBank constructs a Postgres-backed bank implementation.
func NewPostgresBank(db *pgxpool.Pool) *PostgresBank {
	return &PostgresBank{db: db}
}

// EnsureAccount guarantees an account exists for the provided code.
func (b *PostgresBank) EnsureAccount(ctx context.Context, code string) error {
	_, err := b.db.Exec(ctx, `INSERT INTO bank_accounts (id, code) VALUES ($1, $2)
        ON CONFLICT (code) DO NOTHING`, uuid.New(), code)
	return err
}

// Balance returns the summed balance for the specified account code. Unknown
// accounts read as zero.
func (b *PostgresBank) Balance(ctx context.Context, code string) (int64, error) {
	const query = `
        SELECT COALESCE(SUM(e.amount), 0)
        FROM bank_entries e
        INNER JOIN bank_accounts a ON a.id = e.account_id
        WHERE a.code = $1`
	var balance int64
	if err := b.db.QueryRow(ctx, query, code).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

// Transfer records a balanced posting between two accounts.
func (b *PostgresBank) Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransactionResult, error) {
	if amount <= 0 {
		return TransactionResult{}, fmt.Errorf("amount must be positive")
	}

	tx, err := b.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransactionResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	fromAccountID, err := accountIDForCode(ctx, tx, fromCode)
	if err != nil {
		return TransactionResult{}, err
	}
	toAccountID, err := accountIDForCode(ctx, tx, toCode)
	if err != nil {
		return TransactionResult{}, err
	}

	const existingTxQuery = `SELECT id FROM bank_transactions WHERE client_tx_id = $1 AND kind = $2`
	var existingTxID uuid.UUID
	if err := tx.QueryRow(ctx, existingTxQuery, clientTxID, kind).Scan(&existingTxID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return TransactionResult{}, err
		}
	} else {
		fromBal, err := balanceForAccount(ctx, tx, fromAccountID)
		if err != nil {
			return TransactionResult{}, err
		}
		toBal, err := balanceForAccount(ctx, tx, toAccountID)
		if err != nil {
			return TransactionResult{}, err
		}
		return TransactionResult{TransactionID: existingTxID.String(), FromBalance: fromBal, ToBalance: toBal}, ErrDuplicateTransaction
	}

	fromBalance, err := balanceForAccount(ctx, tx, fromAccountID)
	if err != nil {
		return TransactionResult{}, err
	}
	if fromBalance < amount {
		return TransactionResult{}, ErrInsufficientFunds
	}

	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO bank_transactions (id, client_tx_id, kind, status) VALUES ($1, $2, $3, $4)`, txID, clientTxID, kind, StatusCompleted); err != nil {
		return TransactionResult{}, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO bank_entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, fromAccountID, -amount); err != nil {
		return TransactionResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO bank_entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, toAccountID, amount); err != nil {
		return TransactionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransactionResult{}, err
	}

	fromBal, err := b.Balance(ctx, fromCode)
	if err != nil {
		return TransactionResult{}, err
	}
	toBal, err := b.Balance(ctx, toCode)
	if err != nil {
		return TransactionResult{}, err
	}

	return TransactionResult{TransactionID: txID.String(), FromBalance: fromBal, ToBalance: toBal}, nil
}

// ExternalIn credits an account with value arriving from outside the EVM side,
// parking the offsetting entry in the external suspense account.
func (b *PostgresBank) ExternalIn(ctx context.Context, code, clientTxID string, amount int64) (MovementResult, error) {
	return b.externalMovement(ctx, code, clientTxID, amount, "external_in")
}

// ExternalOut debits an account for value leaving the EVM side, crediting the
// external suspense account.
func (b *PostgresBank) ExternalOut(ctx context.Context, code, clientTxID string, amount int64) (MovementResult, error) {
	return b.externalMovement(ctx, code, clientTxID, amount, "external_out")
}

func (b *PostgresBank) externalMovement(ctx context.Context, code, clientTxID string, amount int64, kind string) (MovementResult, error) {
	if amount <= 0 {
		return MovementResult{}, fmt.Errorf("amount must be positive")
	}

	tx, err := b.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return MovementResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	accountID, err := accountIDForCode(ctx, tx, code)
	if err != nil {
		return MovementResult{}, err
	}
	suspenseID, err := accountIDForCode(ctx, tx, ExternalSuspenseAccountCode)
	if err != nil {
		return MovementResult{}, err
	}

	const existingQuery = `SELECT id, status FROM bank_transactions WHERE client_tx_id = $1 AND kind = $2`
	var existingTxID uuid.UUID
	var existingStatus string
	if err := tx.QueryRow(ctx, existingQuery, clientTxID, kind).Scan(&existingTxID, &existingStatus); err == nil {
		bal, balErr := balanceForAccount(ctx, tx, accountID)
		if balErr != nil {
			return MovementResult{}, balErr
		}
		return MovementResult{TransactionID: existingTxID.String(), AccountBalance: bal, Status: existingStatus}, ErrDuplicateTransaction
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return MovementResult{}, err
	}

	accountAmount := amount
	if kind == "external_out" {
		balance, err := balanceForAccount(ctx, tx, accountID)
		if err != nil {
			return MovementResult{}, err
		}
		if balance < amount {
			return MovementResult{}, ErrInsufficientFunds
		}
		accountAmount = -amount
	}

	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO bank_transactions (id, client_tx_id, kind, status) VALUES ($1, $2, $3, $4)`, txID, clientTxID, kind, StatusPendingSettlement); err != nil {
		return MovementResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO bank_entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, accountID, accountAmount); err != nil {
		return MovementResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO bank_entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, suspenseID, -accountAmount); err != nil {
		return MovementResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return MovementResult{}, err
	}

	balance, err := b.Balance(ctx, code)
	if err != nil {
		return MovementResult{}, err
	}

	return MovementResult{TransactionID: txID.String(), AccountBalance: balance, Status: StatusPendingSettlement}, nil
}

func accountIDForCode(ctx context.Context, tx pgx.Tx, code string) (uuid.UUID, error) {
	// Create the row on first use so transfers never race EnsureAccount.
	if _, err := tx.Exec(ctx, `INSERT INTO bank_accounts (id, code) VALUES ($1, $2)
        ON CONFLICT (code) DO NOTHING`, uuid.New(), code); err != nil {
		return uuid.Nil, err
	}
	const query = `SELECT id FROM bank_accounts WHERE code = $1 FOR UPDATE`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, code).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("account %s not found", code)
		}
		return uuid.Nil, err
	}
	return id, nil
}

func balanceForAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM bank_entries WHERE account_id = $1`
	var balance int64
	if err := tx.QueryRow(ctx, query, accountID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}
