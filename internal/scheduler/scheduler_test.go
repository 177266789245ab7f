package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"TermVault/internal/ledger"
	"TermVault/internal/model"
	"TermVault/internal/ownership"
	"TermVault/internal/plan"
	"TermVault/internal/store"
	"TermVault/internal/token"
	"TermVault/internal/vault"
)

const unit = int64(1_000_000)

type captureStore struct {
	*store.NoopStore
	vaultEvents []*model.VaultEvent
}

func (c *captureStore) RecordVaultEvent(evt *model.VaultEvent) error {
	c.vaultEvents = append(c.vaultEvents, evt)
	return nil
}

type captureNotifier struct {
	texts    []string
	alerts   int
	statuses []model.VaultState
}

func (n *captureNotifier) Send(text string) error {
	n.texts = append(n.texts, text)
	return nil
}

func (n *captureNotifier) SendHealthAlert(model.VaultState, int64) error {
	n.alerts++
	return nil
}

func (n *captureNotifier) SendVaultStatus(st model.VaultState) error {
	n.statuses = append(n.statuses, st)
	return nil
}

func newTestLedger(t *testing.T, cs *captureStore) *ledger.Ledger {
	t.Helper()
	v, err := vault.New(filepath.Join(t.TempDir(), "vault_state.json"), 12000)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	bank := token.NewBank()
	bank.Mint("operator", 1_000_000*unit)
	bank.Mint("alice", 100_000*unit)
	return ledger.New(ledger.Options{
		Plans:        plan.NewRegistry(),
		Vault:        v,
		Owners:       ownership.NewRegistry(),
		Asset:        bank,
		Store:        cs,
		Admin:        "operator",
		VaultAccount: "vault",
		Clock:        func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
}

func TestRegisterAll(t *testing.T) {
	l := newTestLedger(t, &captureStore{NoopStore: store.NewNoopStore()})
	s := NewScheduler(context.Background(), l, &captureNotifier{})
	if err := s.RegisterAll("0 0 1 * * *", "0 0 * * * *", "0 0 0 * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := len(s.Cron.Entries()); got != 3 {
		t.Errorf("got %d cron entries, want 3", got)
	}

	s = NewScheduler(context.Background(), l, &captureNotifier{})
	if err := s.RegisterAll("not a cron spec", "0 0 * * * *", "0 0 0 * * *"); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestSnapshot_RecordsVaultEventAndReports(t *testing.T) {
	cs := &captureStore{NoopStore: store.NewNoopStore()}
	l := newTestLedger(t, cs)
	if err := l.FundVault("operator", 1000*unit); err != nil {
		t.Fatalf("fund vault: %v", err)
	}
	n := &captureNotifier{}
	s := NewScheduler(context.Background(), l, n)

	s.snapshot()

	var snaps []*model.VaultEvent
	for _, evt := range cs.vaultEvents {
		if evt.Type == model.VaultEventSnapshot {
			snaps = append(snaps, evt)
		}
	}
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshot events, want 1", len(snaps))
	}
	if snaps[0].InterestAfter != 1000*unit {
		t.Errorf("interest after: got %d, want %d", snaps[0].InterestAfter, 1000*unit)
	}
	if len(n.statuses) != 1 || n.statuses[0].InterestBalance != 1000*unit {
		t.Fatalf("status report: got %+v, want one with interest %d", n.statuses, 1000*unit)
	}
}

func TestHealthCheck_AlertsOncePerEpisode(t *testing.T) {
	cs := &captureStore{NoopStore: store.NewNoopStore()}
	l := newTestLedger(t, cs)
	p, err := l.CreatePlan("operator", 90, 800, 0, 0, 500)
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	// 200 units of funding against a ~197.26 unit reservation puts coverage
	// just above 100%, below the configured 120% minimum.
	if err := l.FundVault("operator", 200*unit); err != nil {
		t.Fatalf("fund vault: %v", err)
	}
	if _, err := l.OpenDeposit("alice", p.ID, 10_000*unit, false); err != nil {
		t.Fatalf("open deposit: %v", err)
	}
	if l.IsHealthy() {
		t.Fatal("setup: expected coverage below minimum")
	}

	n := &captureNotifier{}
	s := NewScheduler(context.Background(), l, n)

	s.healthCheck()
	s.healthCheck()
	if n.alerts != 1 {
		t.Fatalf("got %d alerts for one low-health episode, want 1", n.alerts)
	}

	// Recovering and dropping again opens a new episode.
	if err := l.FundVault("operator", 1000*unit); err != nil {
		t.Fatalf("refund vault: %v", err)
	}
	s.healthCheck()
	if err := l.WithdrawVault("operator", 1000*unit); err != nil {
		t.Fatalf("drain vault: %v", err)
	}
	s.healthCheck()
	if n.alerts != 2 {
		t.Fatalf("got %d alerts after recovery and relapse, want 2", n.alerts)
	}
}
