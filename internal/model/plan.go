package model

import "time"

// SavingPlan defines the terms a deposit can be opened under.
// TenorDays is fixed after creation; rate, penalty, bounds, and the active
// flag may be edited by an administrator without touching open deposits.
type SavingPlan struct {
	ID                int64     `json:"id"`
	TenorDays         int64     `json:"tenor_days"`
	APRBps            int64     `json:"apr_bps"`
	MinDeposit        int64     `json:"min_deposit"`
	MaxDeposit        int64     `json:"max_deposit"` // 0 means unbounded
	EarlyPenaltyBps   int64     `json:"early_penalty_bps"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AllowsAmount reports whether amount falls inside the plan's deposit bounds.
func (p *SavingPlan) AllowsAmount(amount int64) bool {
	if amount < p.MinDeposit {
		return false
	}
	if p.MaxDeposit > 0 && amount > p.MaxDeposit {
		return false
	}
	return true
}
