// Package ownership tracks which party holds each deposit certificate.
// The ledger queries the current holder at call time for every operation, so
// transferring a certificate immediately moves authorization with it.
package ownership

import (
	"fmt"
	"sort"
	"sync"

	"TermVault/internal/model"
)

// Registry maps certificate ids to their current holder and maintains a
// per-holder index for enumeration.
type Registry struct {
	mu      sync.Mutex
	holders map[int64]string
	byOwner map[string]map[int64]struct{}
}

// NewRegistry creates an empty ownership registry.
func NewRegistry() *Registry {
	return &Registry{
		holders: make(map[int64]string),
		byOwner: make(map[string]map[int64]struct{}),
	}
}

// Mint assigns a freshly issued certificate to a holder.
func (r *Registry) Mint(id int64, holder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder == "" {
		return fmt.Errorf("holder must not be empty: %w", model.ErrInvalidParameters)
	}
	if _, ok := r.holders[id]; ok {
		return fmt.Errorf("certificate %d already minted: %w", id, model.ErrInvalidParameters)
	}
	r.holders[id] = holder
	r.index(holder)[id] = struct{}{}
	return nil
}

// Burn removes a certificate from the registry. Only used to roll back a
// failed open; settled certificates keep their holder entry for history.
func (r *Registry) Burn(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	holder, ok := r.holders[id]
	if !ok {
		return
	}
	delete(r.holders, id)
	delete(r.byOwner[holder], id)
}

// Transfer moves a certificate to a new holder. from must be the current
// holder; all subsequent operations on id authorize against to.
func (r *Registry) Transfer(id int64, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.holders[id]
	if !ok {
		return fmt.Errorf("certificate %d: %w", id, model.ErrDepositNotFound)
	}
	if current != from {
		return fmt.Errorf("certificate %d held by another party: %w", id, model.ErrNotHolder)
	}
	if to == "" {
		return fmt.Errorf("new holder must not be empty: %w", model.ErrInvalidParameters)
	}
	delete(r.byOwner[current], id)
	r.holders[id] = to
	r.index(to)[id] = struct{}{}
	return nil
}

// CurrentHolder returns the party authorized to act on the certificate.
func (r *Registry) CurrentHolder(id int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	holder, ok := r.holders[id]
	if !ok {
		return "", fmt.Errorf("certificate %d: %w", id, model.ErrDepositNotFound)
	}
	return holder, nil
}

// DepositsOf returns the certificate ids held by holder, ordered by id.
func (r *Registry) DepositsOf(holder string) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.byOwner[holder]))
	for id := range r.byOwner[holder] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) index(holder string) map[int64]struct{} {
	m, ok := r.byOwner[holder]
	if !ok {
		m = make(map[int64]struct{})
		r.byOwner[holder] = m
	}
	return m
}
