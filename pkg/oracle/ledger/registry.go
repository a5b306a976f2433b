package ledger

import (
	"fmt"
	"sort"
	"sync"
)

const (
	// KindSolana reads accounts over Solana JSON-RPC.
	KindSolana = "solana"
	// KindMemory keeps accounts in process memory.
	KindMemory = "memory"
)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

func init() {
	Register(KindSolana, newSolanaFromOptions)
	Register(KindMemory, newMemoryFromOptions)
}

// Register adds a reader factory to the registry
func Register(kind string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[kind] = factory
}

// Create creates a new reader instance by kind
func Create(kind string, opts Options) (AccountReader, error) {
	mu.RLock()
	factory, ok := registry[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	return factory(opts)
}

// List returns all registered kinds, sorted
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
