package vault

import (
	"fmt"
	"log"
	"sync"

	"TermVault/internal/calculator"
	"TermVault/internal/model"
)

// Vault handles dual-pool reserve accounting with concurrency safety.
//
// The principal pool always equals the sum of active deposit principals and
// is never at risk. The interest pool is operator-funded float, partitioned
// into reserved (promised to active deposits) and available surplus. Every
// mutation re-establishes interestReserved <= interestBalance; the compound
// transition methods apply a whole certificate transition's effect under a
// single lock acquisition so a failed transition leaves no partial change.
type Vault struct {
	mu       sync.Mutex
	state    *model.VaultState
	filePath string
}

// New creates a Vault, loading or initializing state from disk.
func New(filePath string, minHealthBps int64) (*Vault, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	if minHealthBps > 0 {
		state.MinHealthBps = minHealthBps
	}

	v := &Vault{state: state, filePath: filePath}
	if err := v.save(); err != nil {
		return nil, err
	}
	return v, nil
}

// State returns a copy of the current vault state.
func (v *Vault) State() model.VaultState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return *v.state
}

// DepositPrincipal adds locked principal to the principal pool.
func (v *Vault) DepositPrincipal(amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if amount <= 0 {
		return fmt.Errorf("principal deposit must be positive: %w", model.ErrInvalidParameters)
	}
	v.state.PrincipalBalance += amount
	v.persist()
	return nil
}

// WithdrawPrincipal removes principal from the principal pool.
func (v *Vault) WithdrawPrincipal(amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.debitPrincipal(amount); err != nil {
		return err
	}
	v.persist()
	return nil
}

// FundInterest adds operator float to the interest pool.
func (v *Vault) FundInterest(amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if amount <= 0 {
		return fmt.Errorf("interest funding must be positive: %w", model.ErrInvalidParameters)
	}
	v.state.InterestBalance += amount
	v.persist()
	return nil
}

// WithdrawInterest removes unreserved surplus from the interest pool. Funds
// already promised to active deposits are not withdrawable.
func (v *Vault) WithdrawInterest(amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if amount <= 0 {
		return fmt.Errorf("interest withdrawal must be positive: %w", model.ErrInvalidParameters)
	}
	if amount > v.state.InterestBalance-v.state.InterestReserved {
		return fmt.Errorf("surplus %d below requested %d: %w",
			v.state.InterestBalance-v.state.InterestReserved, amount, model.ErrLiquidity)
	}
	v.state.InterestBalance -= amount
	v.persist()
	return nil
}

// Reserve commits part of the interest pool to a deposit's maturity payout.
func (v *Vault) Reserve(amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.reserve(amount); err != nil {
		return err
	}
	v.persist()
	return nil
}

// Release un-commits previously reserved interest.
func (v *Vault) Release(amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.release(amount); err != nil {
		return err
	}
	v.persist()
	return nil
}

// LockPrincipal applies a deposit open: takes principal into the principal
// pool and reserves the deposit's full estimated maturity interest. Fails
// without effect when the interest pool cannot back the new promise; this is
// the primary backpressure against unbacked liability.
func (v *Vault) LockPrincipal(principal, estInterest int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.reserve(estInterest); err != nil {
		return err
	}
	v.state.PrincipalBalance += principal
	v.persist()
	return nil
}

// UnlockPrincipal reverses LockPrincipal. Used to roll back an open whose
// external asset transfer failed after the vault effect was applied.
func (v *Vault) UnlockPrincipal(principal, estInterest int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.debitPrincipal(principal); err != nil {
		return err
	}
	if err := v.release(estInterest); err != nil {
		return err
	}
	v.persist()
	return nil
}

// SettleMature applies a maturity withdrawal: pays out the full principal and
// the full-term interest, releasing the reservation that backed it.
func (v *Vault) SettleMature(principal, interest int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if interest > v.state.InterestBalance {
		return fmt.Errorf("interest pool %d below payout %d: %w",
			v.state.InterestBalance, interest, model.ErrLiquidity)
	}
	if err := v.debitPrincipal(principal); err != nil {
		return err
	}
	if err := v.release(interest); err != nil {
		v.state.PrincipalBalance += principal
		return err
	}
	v.state.InterestBalance -= interest
	v.persist()
	return nil
}

// UnsettleMature reverses SettleMature for transfer-failure rollback.
func (v *Vault) UnsettleMature(principal, interest int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.InterestBalance += interest
	if err := v.reserve(interest); err != nil {
		v.state.InterestBalance -= interest
		return err
	}
	v.state.PrincipalBalance += principal
	v.persist()
	return nil
}

// SettleEarly applies an early withdrawal: pays out the principal and the
// pro-rata interest, credits the penalty back into the interest pool, and
// releases the full original reservation (the unused portion becomes newly
// available surplus).
func (v *Vault) SettleEarly(principal, proRataInterest, penaltyCredit, reservedRelease int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if proRataInterest > v.state.InterestBalance {
		return fmt.Errorf("interest pool %d below payout %d: %w",
			v.state.InterestBalance, proRataInterest, model.ErrLiquidity)
	}
	if err := v.debitPrincipal(principal); err != nil {
		return err
	}
	if err := v.release(reservedRelease); err != nil {
		v.state.PrincipalBalance += principal
		return err
	}
	v.state.InterestBalance += penaltyCredit - proRataInterest
	v.persist()
	return nil
}

// UnsettleEarly reverses SettleEarly for transfer-failure rollback.
func (v *Vault) UnsettleEarly(principal, proRataInterest, penaltyCredit, reservedRelease int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.InterestBalance -= penaltyCredit - proRataInterest
	if err := v.reserve(reservedRelease); err != nil {
		v.state.InterestBalance += penaltyCredit - proRataInterest
		return err
	}
	v.state.PrincipalBalance += principal
	v.persist()
	return nil
}

// Rollover applies a renewal: the matured certificate's full-term interest is
// compounded into principal (moved between pools), the old reservation is
// released, and the new certificate's estimated interest is reserved. The
// whole exchange either fits the interest pool or fails without effect.
func (v *Vault) Rollover(compoundInterest, oldReserved, newEstInterest int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if oldReserved > v.state.InterestReserved {
		return fmt.Errorf("release %d exceeds reserved %d: %w",
			oldReserved, v.state.InterestReserved, model.ErrInvalidParameters)
	}
	if compoundInterest > v.state.InterestBalance {
		return fmt.Errorf("interest pool %d below compounded %d: %w",
			v.state.InterestBalance, compoundInterest, model.ErrLiquidity)
	}
	newBalance := v.state.InterestBalance - compoundInterest
	newReserved := v.state.InterestReserved - oldReserved + newEstInterest
	if newReserved > newBalance {
		return fmt.Errorf("reserving %d would exceed interest pool %d: %w",
			newReserved, newBalance, model.ErrLiquidity)
	}
	v.state.InterestBalance = newBalance
	v.state.InterestReserved = newReserved
	v.state.PrincipalBalance += compoundInterest
	v.persist()
	return nil
}

// UnwindRollover reverses Rollover for rollback of a renewal whose later
// steps failed.
func (v *Vault) UnwindRollover(compoundInterest, oldReserved, newEstInterest int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if compoundInterest > 0 {
		if err := v.debitPrincipal(compoundInterest); err != nil {
			return err
		}
		v.state.InterestBalance += compoundInterest
	}
	v.state.InterestReserved += oldReserved - newEstInterest
	v.persist()
	return nil
}

// HealthRatio returns interest pool coverage of promised interest, in bps.
func (v *Vault) HealthRatio() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return calculator.HealthRatio(v.state.InterestBalance, v.state.InterestReserved)
}

// IsHealthy reports whether coverage meets the operator-set minimum.
// Informational only; it never blocks an operation.
func (v *Vault) IsHealthy() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	min := v.state.MinHealthBps
	if min <= 0 {
		min = calculator.BpsDenominator
	}
	return calculator.HealthRatio(v.state.InterestBalance, v.state.InterestReserved) >= min
}

func (v *Vault) debitPrincipal(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("principal withdrawal must be positive: %w", model.ErrInvalidParameters)
	}
	if amount > v.state.PrincipalBalance {
		return fmt.Errorf("principal pool %d below requested %d: %w",
			v.state.PrincipalBalance, amount, model.ErrLiquidity)
	}
	v.state.PrincipalBalance -= amount
	return nil
}

func (v *Vault) reserve(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("reserve amount must not be negative: %w", model.ErrInvalidParameters)
	}
	if v.state.InterestReserved+amount > v.state.InterestBalance {
		return fmt.Errorf("reserving %d would exceed interest pool %d (reserved %d): %w",
			amount, v.state.InterestBalance, v.state.InterestReserved, model.ErrLiquidity)
	}
	v.state.InterestReserved += amount
	return nil
}

func (v *Vault) release(amount int64) error {
	if amount < 0 || amount > v.state.InterestReserved {
		return fmt.Errorf("release %d exceeds reserved %d: %w",
			amount, v.state.InterestReserved, model.ErrInvalidParameters)
	}
	v.state.InterestReserved -= amount
	return nil
}

func (v *Vault) persist() {
	if err := v.save(); err != nil {
		log.Printf("[ERROR] failed to save vault state: %v", err)
	}
}

func (v *Vault) save() error {
	return SaveState(v.filePath, v.state)
}
