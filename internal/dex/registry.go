package dex

import (
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/model"
)

// Registry caches pool records by address.
type Registry struct {
	mu   sync.RWMutex
	data map[solana.PublicKey]model.Pool
}

func NewRegistry() *Registry {
	return &Registry{data: make(map[solana.PublicKey]model.Pool)}
}

func (r *Registry) Get(address solana.PublicKey) (model.Pool, bool) {
	r.mu.RLock()
	pool, ok := r.data[address]
	r.mu.RUnlock()
	return pool, ok
}

func (r *Registry) Set(pool model.Pool) {
	r.mu.Lock()
	r.data[pool.Address] = pool
	r.mu.Unlock()
}

// ByMints finds the pool trading the given pair in either order.
func (r *Registry) ByMints(mintA, mintB solana.PublicKey) (model.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pool := range r.data {
		if pool.HasMints(mintA, mintB) {
			return pool, true
		}
	}
	return model.Pool{}, false
}

// All returns every pool sorted by address.
func (r *Registry) All() []model.Pool {
	r.mu.RLock()
	pools := make([]model.Pool, 0, len(r.data))
	for _, pool := range r.data {
		pools = append(pools, pool)
	}
	r.mu.RUnlock()

	sort.Slice(pools, func(i, j int) bool {
		return pools[i].Address.String() < pools[j].Address.String()
	})
	return pools
}
