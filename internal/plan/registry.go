package plan

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"TermVault/internal/calculator"
	"TermVault/internal/model"
)

// Registry is the administrator-managed catalog of savings plans.
//
// Plans are never hard-deleted: disabling hides a plan from new deposits
// while existing deposits keep running on their locked terms. TenorDays is
// frozen at creation; changing it would redefine maturity for certificates
// already referencing the plan id.
type Registry struct {
	mu     sync.Mutex
	plans  map[int64]*model.SavingPlan
	nextID int64
	clock  func() time.Time
}

// NewRegistry creates an empty plan registry.
func NewRegistry() *Registry {
	return &Registry{
		plans:  make(map[int64]*model.SavingPlan),
		nextID: 1,
		clock:  time.Now,
	}
}

// WithClock overrides the registry clock for deterministic tests.
func (r *Registry) WithClock(clock func() time.Time) {
	if clock != nil {
		r.clock = clock
	}
}

// Create validates ranges and registers a new plan, returning it.
func (r *Registry) Create(tenorDays, aprBps, minDeposit, maxDeposit, penaltyBps int64) (*model.SavingPlan, error) {
	if err := validateTerms(aprBps, minDeposit, maxDeposit, penaltyBps); err != nil {
		return nil, err
	}
	if tenorDays <= 0 {
		return nil, fmt.Errorf("tenor must be positive: %w", model.ErrInvalidParameters)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	p := &model.SavingPlan{
		ID:              r.nextID,
		TenorDays:       tenorDays,
		APRBps:          aprBps,
		MinDeposit:      minDeposit,
		MaxDeposit:      maxDeposit,
		EarlyPenaltyBps: penaltyBps,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.plans[p.ID] = p
	r.nextID++
	out := *p
	return &out, nil
}

// Update mutates a plan's rate, penalty, and deposit bounds. Tenor is not
// updatable. Existing certificates are unaffected: they carry a locked rate.
func (r *Registry) Update(id, aprBps, penaltyBps, minDeposit, maxDeposit int64) (*model.SavingPlan, error) {
	if err := validateTerms(aprBps, minDeposit, maxDeposit, penaltyBps); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %d: %w", id, model.ErrPlanNotFound)
	}
	p.APRBps = aprBps
	p.EarlyPenaltyBps = penaltyBps
	p.MinDeposit = minDeposit
	p.MaxDeposit = maxDeposit
	p.UpdatedAt = r.clock()
	out := *p
	return &out, nil
}

// SetActive toggles a plan's visibility to new deposits.
func (r *Registry) SetActive(id int64, active bool) (*model.SavingPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %d: %w", id, model.ErrPlanNotFound)
	}
	p.Active = active
	p.UpdatedAt = r.clock()
	out := *p
	return &out, nil
}

// Get returns a copy of the plan with the given id.
func (r *Registry) Get(id int64) (*model.SavingPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %d: %w", id, model.ErrPlanNotFound)
	}
	out := *p
	return &out, nil
}

// List returns all plans ordered by id.
func (r *Registry) List() []*model.SavingPlan {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.SavingPlan, 0, len(r.plans))
	for _, p := range r.plans {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore inserts a previously persisted plan, keeping the id counter ahead
// of every restored id. Used only during startup recovery.
func (r *Registry) Restore(p *model.SavingPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.plans[cp.ID] = &cp
	if cp.ID >= r.nextID {
		r.nextID = cp.ID + 1
	}
}

func validateTerms(aprBps, minDeposit, maxDeposit, penaltyBps int64) error {
	if aprBps <= 0 || aprBps > calculator.BpsDenominator {
		return fmt.Errorf("apr %d outside (0, 10000]: %w", aprBps, model.ErrInvalidParameters)
	}
	if penaltyBps < 0 || penaltyBps > calculator.BpsDenominator {
		return fmt.Errorf("penalty %d outside [0, 10000]: %w", penaltyBps, model.ErrInvalidParameters)
	}
	if minDeposit < 0 || maxDeposit < 0 {
		return fmt.Errorf("deposit bounds must not be negative: %w", model.ErrInvalidParameters)
	}
	if maxDeposit > 0 && minDeposit > maxDeposit {
		return fmt.Errorf("min deposit %d above max %d: %w", minDeposit, maxDeposit, model.ErrInvalidParameters)
	}
	return nil
}
