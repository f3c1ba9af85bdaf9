package ledgerbook

import (
	"context"
	"sync"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

type memoryBook struct {
	mu     sync.RWMutex
	tokens map[chain.Address]Token
}

// NewMemory constructs an in-memory token book for tests and dev mode.
func NewMemory() Book {
	return &memoryBook{tokens: make(map[chain.Address]Token)}
}

func (b *memoryBook) Add(_ context.Context, token Token) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token.Asset] = token
	return nil
}

func (b *memoryBook) InfoFor(_ context.Context, asset chain.Address) (Token, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	token, ok := b.tokens[asset]
	if !ok {
		return Token{}, ErrTokenNotAdded
	}
	return token, nil
}
