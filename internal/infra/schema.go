package infra

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables the repositories expect. Statements are
// idempotent so startup can run them unconditionally.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS bank_accounts (
    id   UUID PRIMARY KEY,
    code TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS bank_transactions (
    id           UUID PRIMARY KEY,
    client_tx_id TEXT NOT NULL,
    kind         TEXT NOT NULL,
    status       TEXT NOT NULL,
    UNIQUE (client_tx_id, kind)
);
CREATE TABLE IF NOT EXISTS bank_entries (
    id             UUID PRIMARY KEY,
    transaction_id UUID NOT NULL REFERENCES bank_transactions (id),
    account_id     UUID NOT NULL REFERENCES bank_accounts (id),
    amount         BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS bank_entries_account_idx ON bank_entries (account_id);

CREATE SEQUENCE IF NOT EXISTS wallet_token_seq;
CREATE TABLE IF NOT EXISTS registry_accounts (
    token_id   BIGINT PRIMARY KEY,
    wallet_id  TEXT NOT NULL UNIQUE,
    controller TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS registry_modules (
    module TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS wallets (
    id                TEXT PRIMARY KEY,
    token_id          BIGINT NOT NULL UNIQUE,
    next_action_block BIGINT NOT NULL DEFAULT 0,
    created_at        TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS wallet_modules (
    wallet_id TEXT NOT NULL REFERENCES wallets (id),
    module    TEXT NOT NULL,
    PRIMARY KEY (wallet_id, module)
);
CREATE TABLE IF NOT EXISTS wallet_delegations (
    wallet_id TEXT NOT NULL REFERENCES wallets (id),
    module    TEXT NOT NULL,
    delegate  TEXT NOT NULL,
    PRIMARY KEY (wallet_id, module, delegate)
);

CREATE TABLE IF NOT EXISTS tokens (
    asset          TEXT PRIMARY KEY,
    system_address TEXT NOT NULL,
    core_token     BIGINT NOT NULL,
    name           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS module_gates (
    name       TEXT PRIMARY KEY,
    next_block BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS flashloan_deposits (
    asset     TEXT NOT NULL,
    depositor TEXT NOT NULL,
    amount    BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (asset, depositor)
);

CREATE TABLE IF NOT EXISTS core_users (
    account TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS core_spot_balances (
    account   TEXT NOT NULL,
    token     BIGINT NOT NULL,
    total     BIGINT NOT NULL DEFAULT 0,
    hold      BIGINT NOT NULL DEFAULT 0,
    entry_ntl BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (account, token)
);
CREATE TABLE IF NOT EXISTS core_withdrawable (
    account TEXT PRIMARY KEY,
    amount  BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS core_vault_equity (
    account      TEXT NOT NULL,
    vault        TEXT NOT NULL,
    equity       BIGINT NOT NULL DEFAULT 0,
    locked_until BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (account, vault)
);
`
	_, err := db.Exec(ctx, schema)
	return err
}
