package model

import "time"

// VaultState tracks the two reserve pools.
//
// PrincipalBalance must always equal the sum of principals of ACTIVE
// certificates. InterestReserved is the portion of InterestBalance already
// promised to active deposits at maturity; it must never exceed
// InterestBalance.
type VaultState struct {
	PrincipalBalance int64     `json:"principal_balance"`
	InterestBalance  int64     `json:"interest_balance"`
	InterestReserved int64     `json:"interest_reserved"`
	MinHealthBps     int64     `json:"min_health_bps"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AvailableInterest is the unreserved surplus of the interest pool.
func (s *VaultState) AvailableInterest() int64 {
	return s.InterestBalance - s.InterestReserved
}
