package activation

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrOneActionPerBlock indicates the module-wide block slot is already taken.
var ErrOneActionPerBlock = errors.New("one action per block")

// Gate is the module-wide single-flight guard: at most one activation per
// block across all callers, since cross-layer settlement assumes at most one
// send in flight per block from this module.
type Gate interface {
	Use(ctx context.Context, height uint64) error
	// Release undoes a Use at the given height so an aborted activation does
	// not burn the slot for every other caller. No-op if the slot has since
	// been claimed again.
	Release(ctx context.Context, height uint64) error
}

// MemoryGate keeps the next free height in memory. A fresh gate starts at 0,
// so the genesis block is usable.
type MemoryGate struct {
	mu   sync.Mutex
	next uint64
}

// NewMemoryGate builds a gate for tests and dev mode.
func NewMemoryGate() *MemoryGate {
	return &MemoryGate{}
}

// Use claims the height; it fails if the height was already claimed.
func (g *MemoryGate) Use(_ context.Context, height uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if height < g.next {
		return ErrOneActionPerBlock
	}
	g.next = height + 1
	return nil
}

// Release returns the slot claimed at height.
func (g *MemoryGate) Release(_ context.Context, height uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next == height+1 {
		g.next = height
	}
	return nil
}

// PostgresGate keeps the next free height in a named row, claimed with a
// conditional update.
type PostgresGate struct {
	db   *pgxpool.Pool
	name string
}

// NewPostgresGate builds a durable gate under the given name.
func NewPostgresGate(db *pgxpool.Pool, name string) *PostgresGate {
	return &PostgresGate{db: db, name: name}
}

// Use claims the height for the named gate.
func (g *PostgresGate) Use(ctx context.Context, height uint64) error {
	if _, err := g.db.Exec(ctx, `INSERT INTO module_gates (name, next_block) VALUES ($1, 0)
        ON CONFLICT (name) DO NOTHING`, g.name); err != nil {
		return err
	}
	tag, err := g.db.Exec(ctx, `UPDATE module_gates SET next_block = $2 + 1
        WHERE name = $1 AND next_block <= $2`, g.name, int64(height))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOneActionPerBlock
	}
	return nil
}

// Release returns the slot claimed at height, unless it was claimed again.
func (g *PostgresGate) Release(ctx context.Context, height uint64) error {
	_, err := g.db.Exec(ctx, `UPDATE module_gates SET next_block = $2
        WHERE name = $1 AND next_block = $2 + 1`, g.name, int64(height))
	return err
}
