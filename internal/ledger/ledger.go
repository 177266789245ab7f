// Package ledger implements the deposit certificate state machine and
// orchestrates every mutation of plans, ownership, and the reserve vault.
// All entry points authorize the caller first, honor the global pause flag,
// and either fully commit or leave no observable change: in-memory state is
// mutated before any external asset transfer is issued, and rolled back if
// that transfer fails.
package ledger

import (
	"fmt"
	"log"
	"sync"
	"time"

	"TermVault/internal/calculator"
	"TermVault/internal/model"
	"TermVault/internal/ownership"
	"TermVault/internal/plan"
	"TermVault/internal/store"
	"TermVault/internal/token"
	"TermVault/internal/vault"
)

// Options wires the ledger's collaborators.
type Options struct {
	Plans        *plan.Registry
	Vault        *vault.Vault
	Owners       *ownership.Registry
	Asset        token.Asset
	Store        store.Store
	Admin        string // administrator account identity
	VaultAccount string // asset account holding locked funds
	Clock        func() time.Time
}

// Ledger is the single writer over all certificate state. One operation runs
// at a time; operations on different ids are ordered only by lock acquisition.
type Ledger struct {
	mu     sync.Mutex
	plans  *plan.Registry
	vault  *vault.Vault
	owners *ownership.Registry
	asset  token.Asset
	store  store.Store

	admin   string
	account string
	clock   func() time.Time

	paused bool
	nextID int64
	certs  map[int64]*model.DepositCertificate
}

// WithdrawResult reports the amounts moved by a withdraw or early withdraw.
type WithdrawResult struct {
	DepositID int64 `json:"deposit_id"`
	Principal int64 `json:"principal"`
	Interest  int64 `json:"interest"`
	Penalty   int64 `json:"penalty"`
	Payout    int64 `json:"payout"`
}

// AutoRenewCandidate identifies a matured certificate flagged for renewal.
type AutoRenewCandidate struct {
	DepositID int64
	Holder    string
}

// New creates a Ledger.
func New(opts Options) *Ledger {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{
		plans:   opts.Plans,
		vault:   opts.Vault,
		owners:  opts.Owners,
		asset:   opts.Asset,
		store:   opts.Store,
		admin:   opts.Admin,
		account: opts.VaultAccount,
		clock:   clock,
		nextID:  1,
		certs:   make(map[int64]*model.DepositCertificate),
	}
}

// Restore reloads persisted certificates and re-mints their holders.
// Must be called before the ledger starts serving.
func (l *Ledger) Restore(recs []store.CertificateRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var activePrincipal int64
	for _, rec := range recs {
		c := *rec.Certificate
		l.certs[c.ID] = &c
		if c.ID >= l.nextID {
			l.nextID = c.ID + 1
		}
		if err := l.owners.Mint(c.ID, rec.Holder); err != nil {
			return fmt.Errorf("restore holder of certificate %d: %w", c.ID, err)
		}
		if c.Status == model.StatusActive {
			activePrincipal += c.Principal
		}
	}

	if vs := l.vault.State(); vs.PrincipalBalance != activePrincipal {
		log.Printf("[WARN] principal pool %d does not match active certificates total %d",
			vs.PrincipalBalance, activePrincipal)
	}
	return nil
}

// Pause halts all mutating entry points. Views stay available.
func (l *Ledger) Pause(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return err
	}
	l.paused = true
	log.Printf("[WARN] ledger paused by %s", caller)
	return nil
}

// Unpause resumes mutating entry points.
func (l *Ledger) Unpause(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return err
	}
	l.paused = false
	log.Printf("[INFO] ledger unpaused by %s", caller)
	return nil
}

// Paused reports the pause flag.
func (l *Ledger) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// CreatePlan registers a new savings plan. Administrator only.
func (l *Ledger) CreatePlan(caller string, tenorDays, aprBps, minDeposit, maxDeposit, penaltyBps int64) (*model.SavingPlan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := l.plans.Create(tenorDays, aprBps, minDeposit, maxDeposit, penaltyBps)
	if err != nil {
		return nil, err
	}
	l.persistPlan(p)
	log.Printf("[INFO] plan %d created: tenor=%dd apr=%dbps penalty=%dbps", p.ID, p.TenorDays, p.APRBps, p.EarlyPenaltyBps)
	return p, nil
}

// UpdatePlan edits a plan's rate, penalty, and bounds. Open certificates keep
// their locked rate. Administrator only.
func (l *Ledger) UpdatePlan(caller string, id, aprBps, penaltyBps, minDeposit, maxDeposit int64) (*model.SavingPlan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := l.plans.Update(id, aprBps, penaltyBps, minDeposit, maxDeposit)
	if err != nil {
		return nil, err
	}
	l.persistPlan(p)
	return p, nil
}

// EnablePlan toggles a plan's visibility to new deposits. Administrator only.
func (l *Ledger) EnablePlan(caller string, id int64, active bool) (*model.SavingPlan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := l.plans.SetActive(id, active)
	if err != nil {
		return nil, err
	}
	l.persistPlan(p)
	return p, nil
}

// FundVault moves amount from the administrator's account into the interest
// pool. Administrator only.
func (l *Ledger) FundVault(caller string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return err
	}
	if err := l.vault.FundInterest(amount); err != nil {
		return err
	}
	if err := l.asset.TransferFrom(caller, l.account, amount); err != nil {
		if rbErr := l.vault.WithdrawInterest(amount); rbErr != nil {
			log.Printf("[ERROR] rollback of vault funding failed: %v", rbErr)
		}
		return fmt.Errorf("fund vault: %w", err)
	}
	l.recordVaultEvent(model.VaultEventFunded, amount, "interest pool funded")
	return nil
}

// WithdrawVault pays unreserved interest-pool surplus back to the
// administrator. Administrator only.
func (l *Ledger) WithdrawVault(caller string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireAdmin(caller); err != nil {
		return err
	}
	if err := l.vault.WithdrawInterest(amount); err != nil {
		return err
	}
	if err := l.asset.Transfer(l.account, caller, amount); err != nil {
		if rbErr := l.vault.FundInterest(amount); rbErr != nil {
			log.Printf("[ERROR] rollback of vault withdrawal failed: %v", rbErr)
		}
		return fmt.Errorf("withdraw vault: %w", err)
	}
	l.recordVaultEvent(model.VaultEventWithdrawn, amount, "surplus withdrawn")
	return nil
}

// OpenDeposit locks amount under the plan's current terms and issues a new
// certificate to the caller. The full estimated maturity interest is reserved
// up front; the open is refused when the interest pool cannot back it.
func (l *Ledger) OpenDeposit(caller string, planID, amount int64, autoRenew bool) (*model.DepositCertificate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureRunning(); err != nil {
		return nil, err
	}

	p, err := l.plans.Get(planID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, fmt.Errorf("plan %d: %w", planID, model.ErrPlanDisabled)
	}
	if amount <= 0 || !p.AllowsAmount(amount) {
		return nil, fmt.Errorf("amount %d outside plan %d bounds [%d, %d]: %w",
			amount, planID, p.MinDeposit, p.MaxDeposit, model.ErrAmountOutOfRange)
	}

	estInterest, err := calculator.Interest(amount, p.APRBps, p.TenorDays)
	if err != nil {
		return nil, fmt.Errorf("estimate interest: %w", err)
	}

	if err := l.vault.LockPrincipal(amount, estInterest); err != nil {
		return nil, err
	}

	now := l.clock()
	cert := &model.DepositCertificate{
		ID:           l.nextID,
		PlanID:       planID,
		Principal:    amount,
		OpenedAt:     now,
		MaturityAt:   now.Add(time.Duration(p.TenorDays) * 24 * time.Hour),
		LockedAPRBps: p.APRBps,
		AutoRenew:    autoRenew,
		Status:       model.StatusActive,
		UpdatedAt:    now,
	}
	if err := l.owners.Mint(cert.ID, caller); err != nil {
		l.unlockVault(amount, estInterest)
		return nil, err
	}
	l.certs[cert.ID] = cert
	l.nextID++

	// State is committed; now pull the principal in. A failed transfer
	// unwinds everything above.
	if err := l.asset.TransferFrom(caller, l.account, amount); err != nil {
		delete(l.certs, cert.ID)
		l.nextID--
		l.owners.Burn(cert.ID)
		l.unlockVault(amount, estInterest)
		return nil, fmt.Errorf("pull principal: %w", err)
	}

	l.persistCertificate(cert, caller)
	l.recordDepositEvent(&model.DepositEvent{
		DepositID: cert.ID,
		Type:      model.EventOpened,
		Holder:    caller,
		Principal: amount,
		Interest:  estInterest,
		Note:      fmt.Sprintf("plan %d, locked %d bps", planID, cert.LockedAPRBps),
	})
	l.checkHealth()

	out := *cert
	return &out, nil
}

// Withdraw pays out principal plus the full-term interest on a matured
// certificate and closes it.
func (l *Ledger) Withdraw(caller string, id int64) (*WithdrawResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureRunning(); err != nil {
		return nil, err
	}

	cert, holder, err := l.activeCertificateOf(caller, id)
	if err != nil {
		return nil, err
	}
	now := l.clock()
	if !cert.Matured(now) {
		return nil, fmt.Errorf("certificate %d matures at %s: %w", id, cert.MaturityAt.UTC(), model.ErrNotMatured)
	}

	p, err := l.plans.Get(cert.PlanID)
	if err != nil {
		return nil, err
	}
	// Interest is capped at the full-term amount no matter how long past
	// maturity the withdrawal happens.
	interest, err := calculator.Interest(cert.Principal, cert.LockedAPRBps, p.TenorDays)
	if err != nil {
		return nil, fmt.Errorf("full-term interest: %w", err)
	}

	if err := l.vault.SettleMature(cert.Principal, interest); err != nil {
		return nil, err
	}
	cert.Status = model.StatusWithdrawn
	cert.UpdatedAt = now

	payout := cert.Principal + interest
	if err := l.asset.Transfer(l.account, holder, payout); err != nil {
		cert.Status = model.StatusActive
		cert.UpdatedAt = now
		if rbErr := l.vault.UnsettleMature(cert.Principal, interest); rbErr != nil {
			log.Printf("[ERROR] rollback of withdraw %d failed: %v", id, rbErr)
		}
		return nil, fmt.Errorf("pay out deposit %d: %w", id, err)
	}

	l.persistCertificate(cert, holder)
	l.recordDepositEvent(&model.DepositEvent{
		DepositID: id,
		Type:      model.EventWithdrawn,
		Holder:    holder,
		Principal: cert.Principal,
		Interest:  interest,
	})

	return &WithdrawResult{
		DepositID: id,
		Principal: cert.Principal,
		Interest:  interest,
		Payout:    payout,
	}, nil
}

// EarlyWithdraw closes an unmatured certificate, paying pro-rata interest for
// the elapsed days minus the plan's penalty on principal. The payout never
// goes negative; the penalty proceeds replenish the interest pool. The full
// original reservation is released regardless of the smaller amount paid.
func (l *Ledger) EarlyWithdraw(caller string, id int64) (*WithdrawResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureRunning(); err != nil {
		return nil, err
	}

	cert, holder, err := l.activeCertificateOf(caller, id)
	if err != nil {
		return nil, err
	}
	now := l.clock()
	if cert.Matured(now) {
		return nil, fmt.Errorf("certificate %d matured at %s: %w", id, cert.MaturityAt.UTC(), model.ErrAlreadyMatured)
	}

	p, err := l.plans.Get(cert.PlanID)
	if err != nil {
		return nil, err
	}
	elapsed := cert.ElapsedDays(now, p.TenorDays)
	proRata, err := calculator.Interest(cert.Principal, cert.LockedAPRBps, elapsed)
	if err != nil {
		return nil, fmt.Errorf("pro-rata interest: %w", err)
	}
	penalty, err := calculator.Penalty(cert.Principal, p.EarlyPenaltyBps)
	if err != nil {
		return nil, fmt.Errorf("penalty: %w", err)
	}
	estInterest, err := calculator.Interest(cert.Principal, cert.LockedAPRBps, p.TenorDays)
	if err != nil {
		return nil, fmt.Errorf("reserved estimate: %w", err)
	}

	// Floor the payout at zero: the penalty can consume principal and
	// accrued interest but never puts the holder in debt.
	gross := cert.Principal + proRata
	applied := penalty
	if applied > gross {
		applied = gross
	}
	payout := gross - applied

	if err := l.vault.SettleEarly(cert.Principal, proRata, applied, estInterest); err != nil {
		return nil, err
	}
	cert.Status = model.StatusEarlyWithdrawn
	cert.UpdatedAt = now

	if payout > 0 {
		if err := l.asset.Transfer(l.account, holder, payout); err != nil {
			cert.Status = model.StatusActive
			cert.UpdatedAt = now
			if rbErr := l.vault.UnsettleEarly(cert.Principal, proRata, applied, estInterest); rbErr != nil {
				log.Printf("[ERROR] rollback of early withdraw %d failed: %v", id, rbErr)
			}
			return nil, fmt.Errorf("pay out deposit %d: %w", id, err)
		}
	}

	l.persistCertificate(cert, holder)
	l.recordDepositEvent(&model.DepositEvent{
		DepositID: id,
		Type:      model.EventEarlyWithdrawn,
		Holder:    holder,
		Principal: cert.Principal,
		Interest:  proRata,
		Penalty:   applied,
		Note:      fmt.Sprintf("day %d of %d", elapsed, p.TenorDays),
	})

	return &WithdrawResult{
		DepositID: id,
		Principal: cert.Principal,
		Interest:  proRata,
		Penalty:   applied,
		Payout:    payout,
	}, nil
}

// Renew compounds a matured certificate's full-term interest into a new
// certificate instead of paying it out.
//
// With useCurrentPlanRate false the new certificate reuses the old plan id at
// the old locked rate, ignoring any live plan edits; this is the auto-renew
// contract. With true it adopts targetPlanID's (or the same plan's) current
// rate and tenor, and that plan must be active.
func (l *Ledger) Renew(caller string, id int64, useCurrentPlanRate bool, targetPlanID int64) (*model.DepositCertificate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureRunning(); err != nil {
		return nil, err
	}

	cert, holder, err := l.activeCertificateOf(caller, id)
	if err != nil {
		return nil, err
	}
	now := l.clock()
	if !cert.Matured(now) {
		return nil, fmt.Errorf("certificate %d matures at %s: %w", id, cert.MaturityAt.UTC(), model.ErrNotMatured)
	}

	oldPlan, err := l.plans.Get(cert.PlanID)
	if err != nil {
		return nil, err
	}
	interest, err := calculator.Interest(cert.Principal, cert.LockedAPRBps, oldPlan.TenorDays)
	if err != nil {
		return nil, fmt.Errorf("full-term interest: %w", err)
	}

	newPlanID := cert.PlanID
	newRate := cert.LockedAPRBps
	newTenor := oldPlan.TenorDays
	if useCurrentPlanRate {
		if targetPlanID != 0 {
			newPlanID = targetPlanID
		}
		target, err := l.plans.Get(newPlanID)
		if err != nil {
			return nil, err
		}
		if !target.Active {
			return nil, fmt.Errorf("plan %d: %w", newPlanID, model.ErrPlanDisabled)
		}
		newRate = target.APRBps
		newTenor = target.TenorDays
	}

	newPrincipal := cert.Principal + interest
	newEstInterest, err := calculator.Interest(newPrincipal, newRate, newTenor)
	if err != nil {
		return nil, fmt.Errorf("estimate renewal interest: %w", err)
	}

	if err := l.vault.Rollover(interest, interest, newEstInterest); err != nil {
		return nil, err
	}

	renewed := &model.DepositCertificate{
		ID:           l.nextID,
		PlanID:       newPlanID,
		Principal:    newPrincipal,
		OpenedAt:     now,
		MaturityAt:   now.Add(time.Duration(newTenor) * 24 * time.Hour),
		LockedAPRBps: newRate,
		AutoRenew:    cert.AutoRenew,
		Status:       model.StatusActive,
		UpdatedAt:    now,
	}
	if err := l.owners.Mint(renewed.ID, holder); err != nil {
		if rbErr := l.vault.UnwindRollover(interest, interest, newEstInterest); rbErr != nil {
			log.Printf("[ERROR] rollback of renew %d failed: %v", id, rbErr)
		}
		return nil, err
	}
	l.certs[renewed.ID] = renewed
	l.nextID++
	cert.Status = model.StatusRenewed
	cert.UpdatedAt = now

	l.persistCertificate(cert, holder)
	l.persistCertificate(renewed, holder)
	l.recordDepositEvent(&model.DepositEvent{
		DepositID: id,
		Type:      model.EventRenewed,
		Holder:    holder,
		Principal: cert.Principal,
		Interest:  interest,
		Note:      fmt.Sprintf("renewed into certificate %d", renewed.ID),
	})
	l.recordDepositEvent(&model.DepositEvent{
		DepositID: renewed.ID,
		Type:      model.EventOpened,
		Holder:    holder,
		Principal: newPrincipal,
		Interest:  newEstInterest,
		Note:      fmt.Sprintf("renewal of certificate %d, locked %d bps", id, newRate),
	})
	l.checkHealth()

	out := *renewed
	return &out, nil
}

// SetAutoRenew flips the auto-renew flag on an active certificate. No funds move.
func (l *Ledger) SetAutoRenew(caller string, id int64, autoRenew bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureRunning(); err != nil {
		return err
	}

	cert, holder, err := l.activeCertificateOf(caller, id)
	if err != nil {
		return err
	}
	cert.AutoRenew = autoRenew
	cert.UpdatedAt = l.clock()

	l.persistCertificate(cert, holder)
	l.recordDepositEvent(&model.DepositEvent{
		DepositID: id,
		Type:      model.EventAutoRenewSet,
		Holder:    holder,
		Note:      fmt.Sprintf("auto_renew=%t", autoRenew),
	})
	return nil
}

// TransferCertificate hands a certificate to a new holder, moving
// authorization for all subsequent operations with it.
func (l *Ledger) TransferCertificate(caller string, id int64, newHolder string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureRunning(); err != nil {
		return err
	}

	cert, _, err := l.activeCertificateOf(caller, id)
	if err != nil {
		return err
	}
	if err := l.owners.Transfer(id, caller, newHolder); err != nil {
		return err
	}

	l.persistCertificate(cert, newHolder)
	l.recordDepositEvent(&model.DepositEvent{
		DepositID: id,
		Type:      model.EventTransferred,
		Holder:    newHolder,
		Note:      fmt.Sprintf("from %s", caller),
	})
	return nil
}

// GetPlan returns the plan with the given id.
func (l *Ledger) GetPlan(id int64) (*model.SavingPlan, error) {
	return l.plans.Get(id)
}

// ListPlans returns all plans.
func (l *Ledger) ListPlans() []*model.SavingPlan {
	return l.plans.List()
}

// GetDeposit returns a copy of the certificate and its current holder.
func (l *Ledger) GetDeposit(id int64) (*model.DepositCertificate, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cert, ok := l.certs[id]
	if !ok {
		return nil, "", fmt.Errorf("certificate %d: %w", id, model.ErrDepositNotFound)
	}
	holder, err := l.owners.CurrentHolder(id)
	if err != nil {
		return nil, "", err
	}
	out := *cert
	return &out, holder, nil
}

// CalculateInterest returns the interest accrued so far on an active
// certificate: zero immediately after opening, the full-term amount at
// maturity, and never more than that afterwards. Terminal certificates
// accrue nothing.
func (l *Ledger) CalculateInterest(id int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cert, ok := l.certs[id]
	if !ok {
		return 0, fmt.Errorf("certificate %d: %w", id, model.ErrDepositNotFound)
	}
	if cert.Status != model.StatusActive {
		return 0, nil
	}
	p, err := l.plans.Get(cert.PlanID)
	if err != nil {
		return 0, err
	}
	elapsed := cert.ElapsedDays(l.clock(), p.TenorDays)
	return calculator.Interest(cert.Principal, cert.LockedAPRBps, elapsed)
}

// DepositsOf returns the certificate ids held by holder.
func (l *Ledger) DepositsOf(holder string) []int64 {
	return l.owners.DepositsOf(holder)
}

// VaultState returns a copy of the reserve vault's balances.
func (l *Ledger) VaultState() model.VaultState {
	return l.vault.State()
}

// HealthRatio returns the vault's interest coverage in bps.
func (l *Ledger) HealthRatio() int64 {
	return l.vault.HealthRatio()
}

// IsHealthy reports whether coverage meets the configured minimum.
func (l *Ledger) IsHealthy() bool {
	return l.vault.IsHealthy()
}

// SnapshotVault records the current vault balances as a durable event and
// returns them. Driven by the scheduler; informational only.
func (l *Ledger) SnapshotVault() model.VaultState {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.vault.State()
	l.recordVaultEvent(model.VaultEventSnapshot, 0, "scheduled snapshot")
	return st
}

// AutoRenewDue lists active, matured certificates flagged for auto-renewal.
func (l *Ledger) AutoRenewDue() []AutoRenewCandidate {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	var due []AutoRenewCandidate
	for id, cert := range l.certs {
		if cert.Status != model.StatusActive || !cert.AutoRenew || !cert.Matured(now) {
			continue
		}
		holder, err := l.owners.CurrentHolder(id)
		if err != nil {
			log.Printf("[ERROR] certificate %d has no holder: %v", id, err)
			continue
		}
		due = append(due, AutoRenewCandidate{DepositID: id, Holder: holder})
	}
	return due
}

func (l *Ledger) ensureRunning() error {
	if l.paused {
		return model.ErrHalted
	}
	return nil
}

// requireAdmin authorizes administrator entry points. These stay available
// while paused: the pause flag exists so the administrator can stop holder
// traffic and still fund the vault or adjust plans.
func (l *Ledger) requireAdmin(caller string) error {
	if caller != l.admin {
		return fmt.Errorf("caller %q: %w", caller, model.ErrNotAdmin)
	}
	return nil
}

// activeCertificateOf authorizes caller as the current holder of an active
// certificate. The holder is read from the ownership registry at call time,
// never cached, so a transfer takes effect immediately.
func (l *Ledger) activeCertificateOf(caller string, id int64) (*model.DepositCertificate, string, error) {
	cert, ok := l.certs[id]
	if !ok {
		return nil, "", fmt.Errorf("certificate %d: %w", id, model.ErrDepositNotFound)
	}
	holder, err := l.owners.CurrentHolder(id)
	if err != nil {
		return nil, "", err
	}
	if caller != holder {
		return nil, "", fmt.Errorf("certificate %d: %w", id, model.ErrNotHolder)
	}
	if cert.Status != model.StatusActive {
		return nil, "", fmt.Errorf("certificate %d is %s: %w", id, cert.Status, model.ErrNotActive)
	}
	return cert, holder, nil
}

func (l *Ledger) unlockVault(principal, estInterest int64) {
	if err := l.vault.UnlockPrincipal(principal, estInterest); err != nil {
		log.Printf("[ERROR] vault unlock rollback failed: %v", err)
	}
}

// checkHealth surfaces low reserve coverage to operators after operations
// that grow the reserved amount. Informational only.
func (l *Ledger) checkHealth() {
	if l.vault.IsHealthy() {
		return
	}
	st := l.vault.State()
	log.Printf("[WARN] reserve health low: balance=%d reserved=%d ratio=%dbps",
		st.InterestBalance, st.InterestReserved, l.vault.HealthRatio())
	l.recordVaultEvent(model.VaultEventLowHealth, 0, "coverage below configured minimum")
}

func (l *Ledger) persistPlan(p *model.SavingPlan) {
	if err := l.store.SavePlan(p); err != nil {
		log.Printf("[ERROR] failed to persist plan %d: %v", p.ID, err)
	}
}

func (l *Ledger) persistCertificate(c *model.DepositCertificate, holder string) {
	if err := l.store.SaveCertificate(c, holder); err != nil {
		log.Printf("[ERROR] failed to persist certificate %d: %v", c.ID, err)
	}
}

func (l *Ledger) recordDepositEvent(evt *model.DepositEvent) {
	if err := l.store.RecordDepositEvent(evt); err != nil {
		log.Printf("[ERROR] failed to record deposit event %s/%d: %v", evt.Type, evt.DepositID, err)
	}
}

func (l *Ledger) recordVaultEvent(typ model.VaultEventType, amount int64, note string) {
	st := l.vault.State()
	if err := l.store.RecordVaultEvent(&model.VaultEvent{
		Type:           typ,
		Amount:         amount,
		PrincipalAfter: st.PrincipalBalance,
		InterestAfter:  st.InterestBalance,
		ReservedAfter:  st.InterestReserved,
		Note:           note,
	}); err != nil {
		log.Printf("[ERROR] failed to record vault event %s: %v", typ, err)
	}
}
