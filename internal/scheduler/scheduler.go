package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"TermVault/internal/ledger"
	"TermVault/internal/notifier"
)

// Scheduler manages all cron tasks: the auto-renew sweep over matured
// certificates and the periodic reserve-health check.
type Scheduler struct {
	Cron     *cron.Cron
	Ledger   *ledger.Ledger
	Notifier notifier.Notifier
	Ctx      context.Context

	healthAlerted bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, l *ledger.Ledger, n notifier.Notifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Ledger:   l,
		Notifier: n,
		Ctx:      ctx,
	}
}

// RegisterAll registers the renew sweep, health check, and vault snapshot tasks.
func (s *Scheduler) RegisterAll(renewCron, healthCron, snapshotCron string) error {
	if _, err := s.Cron.AddFunc(renewCron, s.renewSweep); err != nil {
		return fmt.Errorf("register renew sweep: %w", err)
	}
	if _, err := s.Cron.AddFunc(healthCron, s.healthCheck); err != nil {
		return fmt.Errorf("register health check: %w", err)
	}
	if _, err := s.Cron.AddFunc(snapshotCron, s.snapshot); err != nil {
		return fmt.Errorf("register vault snapshot: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunRenewSweepNow executes the sweep immediately (manual trigger).
func (s *Scheduler) RunRenewSweepNow() {
	s.renewSweep()
}

// renewSweep rolls every matured, auto-renew-flagged certificate into a new
// term at its locked rate. Individual failures (a paused ledger, a drained
// interest pool) skip that certificate and leave it withdrawable.
func (s *Scheduler) renewSweep() {
	due := s.Ledger.AutoRenewDue()
	if len(due) == 0 {
		return
	}
	log.Printf("[INFO] auto-renew sweep: %d certificate(s) due", len(due))

	renewed := 0
	for _, c := range due {
		cert, err := s.Ledger.Renew(c.Holder, c.DepositID, false, 0)
		if err != nil {
			log.Printf("[WARN] auto-renew of certificate %d skipped: %v", c.DepositID, err)
			continue
		}
		log.Printf("[INFO] certificate %d renewed into %d (principal %d)", c.DepositID, cert.ID, cert.Principal)
		renewed++
	}
	if renewed < len(due) {
		s.trySend(fmt.Sprintf("Auto-renew sweep: %d/%d renewed, rest skipped (see logs).", renewed, len(due)))
	}
}

// healthCheck alerts operators when reserve coverage drops below the
// configured minimum, once per low-health episode.
func (s *Scheduler) healthCheck() {
	if s.Ledger.IsHealthy() {
		s.healthAlerted = false
		return
	}
	if s.healthAlerted {
		return
	}
	s.healthAlerted = true

	st := s.Ledger.VaultState()
	log.Printf("[WARN] reserve health below minimum: balance=%d reserved=%d", st.InterestBalance, st.InterestReserved)
	if err := s.Notifier.SendHealthAlert(st, s.Ledger.HealthRatio()); err != nil {
		log.Printf("[ERROR] notifier send: %v", err)
	}
}

// snapshot records the vault balances as a durable event and reports them to
// operators.
func (s *Scheduler) snapshot() {
	st := s.Ledger.SnapshotVault()
	log.Printf("[INFO] vault snapshot: principal=%d interest=%d reserved=%d",
		st.PrincipalBalance, st.InterestBalance, st.InterestReserved)
	if err := s.Notifier.SendVaultStatus(st); err != nil {
		log.Printf("[ERROR] notifier send: %v", err)
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Send(text); err != nil {
		log.Printf("[ERROR] notifier send: %v", err)
	}
}
