package ledger

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
)

// MemoryReader is an in-process ledger. It is used by tests and by the
// memory dev mode of the binary.
type MemoryReader struct {
	mu       sync.RWMutex
	accounts map[string][]byte
	errs     map[string]error
	reads    int
}

// Ensure MemoryReader implements AccountReader.
var _ AccountReader = (*MemoryReader)(nil)

// NewMemoryReader creates an empty memory ledger.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{
		accounts: make(map[string][]byte),
		errs:     make(map[string]error),
	}
}

func newMemoryFromOptions(opts Options) (AccountReader, error) {
	r := NewMemoryReader()
	for address, encoded := range opts.Accounts {
		data, err := hex.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAccountData, address, err)
		}
		r.Set(address, data)
	}
	return r, nil
}

// Set stores a copy of data under address and clears any injected error.
func (m *MemoryReader) Set(address string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[address] = append([]byte(nil), data...)
	delete(m.errs, address)
}

// Delete removes an account.
func (m *MemoryReader) Delete(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, address)
}

// FailWith makes subsequent reads of address return err until Set is called.
func (m *MemoryReader) FailWith(address string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[address] = err
}

// Reads returns the number of GetAccountInfo calls served.
func (m *MemoryReader) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

// GetAccountInfo returns a copy of the stored account data.
func (m *MemoryReader) GetAccountInfo(ctx context.Context, address string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++

	if err, ok := m.errs[address]; ok {
		return nil, err
	}
	data, ok := m.accounts[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return append([]byte(nil), data...), nil
}
