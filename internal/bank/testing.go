package bank

// SeedBalance is a test helper that seeds the balance for an account when
// using the in-memory bank.
func SeedBalance(b Bank, code string, amount int64) {
	if mem, ok := b.(*inMemoryBank); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[code] = amount
	}
}
