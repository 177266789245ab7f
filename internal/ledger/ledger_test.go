package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"TermVault/internal/calculator"
	"TermVault/internal/model"
	"TermVault/internal/ownership"
	"TermVault/internal/plan"
	"TermVault/internal/store"
	"TermVault/internal/token"
	"TermVault/internal/vault"
)

const (
	admin     = "admin"
	vaultAcct = "vault"
	alice     = "alice"
	bob       = "bob"

	unit = int64(1_000_000) // 6-decimal asset
)

type fixture struct {
	t      *testing.T
	now    time.Time
	ledger *Ledger
	bank   *token.Bank
	vault  *vault.Vault
	plans  *plan.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, now: time.Unix(1_700_000_000, 0)}

	v, err := vault.New(filepath.Join(t.TempDir(), "vault_state.json"), 12000)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	f.vault = v

	f.plans = plan.NewRegistry()
	f.plans.WithClock(f.clock)

	f.bank = token.NewBank()
	f.bank.Mint(admin, 1_000_000*unit)
	f.bank.Mint(alice, 100_000*unit)
	f.bank.Mint(bob, 100_000*unit)

	f.ledger = New(Options{
		Plans:        f.plans,
		Vault:        f.vault,
		Owners:       ownership.NewRegistry(),
		Asset:        f.bank,
		Store:        store.NewNoopStore(),
		Admin:        admin,
		VaultAccount: vaultAcct,
		Clock:        f.clock,
	})
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advanceDays(d int64) {
	f.now = f.now.Add(time.Duration(d) * 24 * time.Hour)
}

// standardPlan creates a 90-day plan at 800 bps with a 500 bps early penalty
// and funds the interest pool with 1000 units.
func (f *fixture) standardPlan() *model.SavingPlan {
	f.t.Helper()
	p, err := f.ledger.CreatePlan(admin, 90, 800, 0, 0, 500)
	if err != nil {
		f.t.Fatalf("create plan: %v", err)
	}
	if err := f.ledger.FundVault(admin, 1000*unit); err != nil {
		f.t.Fatalf("fund vault: %v", err)
	}
	return p
}

func (f *fixture) assertInvariants() {
	f.t.Helper()
	st := f.vault.State()
	if st.InterestReserved > st.InterestBalance {
		f.t.Errorf("invariant broken: reserved %d > interest balance %d", st.InterestReserved, st.InterestBalance)
	}
	if st.PrincipalBalance < 0 || st.InterestBalance < 0 || st.InterestReserved < 0 {
		f.t.Errorf("negative pool: %+v", st)
	}
}

func TestOpenWithdraw_RoundTrip(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()

	principal := 10_000 * unit
	cert, err := f.ledger.OpenDeposit(alice, p.ID, principal, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if cert.ID != 1 || cert.Status != model.StatusActive || cert.LockedAPRBps != 800 {
		t.Fatalf("unexpected certificate: %+v", cert)
	}

	// Immediately after opening nothing has accrued.
	if got, _ := f.ledger.CalculateInterest(cert.ID); got != 0 {
		t.Errorf("expected 0 accrued at open, got %d", got)
	}

	// Full estimated interest is reserved up front: 197.260273 units.
	const fullInterest = 197_260_273
	st := f.vault.State()
	if st.PrincipalBalance != principal {
		t.Errorf("principal pool %d != %d", st.PrincipalBalance, principal)
	}
	if st.InterestReserved != fullInterest {
		t.Errorf("reserved %d != %d", st.InterestReserved, fullInterest)
	}

	// At maturity the accrual equals the full-term formula and stops growing.
	f.advanceDays(90)
	if got, _ := f.ledger.CalculateInterest(cert.ID); got != fullInterest {
		t.Errorf("expected %d at maturity, got %d", fullInterest, got)
	}
	f.advanceDays(30)
	if got, _ := f.ledger.CalculateInterest(cert.ID); got != fullInterest {
		t.Errorf("accrual grew past maturity: %d", got)
	}

	interestBefore := f.vault.State().InterestBalance
	balanceBefore := f.bank.BalanceOf(alice)

	res, err := f.ledger.Withdraw(alice, cert.ID)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Payout != principal+fullInterest {
		t.Errorf("payout %d != principal+interest %d", res.Payout, principal+fullInterest)
	}
	if got := f.bank.BalanceOf(alice) - balanceBefore; got != res.Payout {
		t.Errorf("holder received %d, expected %d", got, res.Payout)
	}

	st = f.vault.State()
	if st.PrincipalBalance != 0 {
		t.Errorf("principal pool should be empty, got %d", st.PrincipalBalance)
	}
	if interestBefore-st.InterestBalance != fullInterest {
		t.Errorf("interest pool decreased by %d, expected exactly %d", interestBefore-st.InterestBalance, fullInterest)
	}
	if st.InterestReserved != 0 {
		t.Errorf("reservation not released: %d", st.InterestReserved)
	}
	f.assertInvariants()
}

func TestOpenDeposit_Validation(t *testing.T) {
	f := newFixture(t)
	f.standardPlan()
	bounded, err := f.ledger.CreatePlan(admin, 30, 600, 100*unit, 1000*unit, 0)
	if err != nil {
		t.Fatal(err)
	}
	disabled, _ := f.ledger.CreatePlan(admin, 30, 600, 0, 0, 0)
	f.ledger.EnablePlan(admin, disabled.ID, false)

	tests := []struct {
		name   string
		planID int64
		amount int64
		want   error
	}{
		{"unknown plan", 99, 100 * unit, model.ErrPlanNotFound},
		{"disabled plan", disabled.ID, 100 * unit, model.ErrPlanDisabled},
		{"below minimum", bounded.ID, 99 * unit, model.ErrAmountOutOfRange},
		{"above maximum", bounded.ID, 1001 * unit, model.ErrAmountOutOfRange},
		{"zero amount", bounded.ID, 0, model.ErrAmountOutOfRange},
	}
	for _, tt := range tests {
		if _, err := f.ledger.OpenDeposit(alice, tt.planID, tt.amount, false); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestOpenDeposit_LiquidityRejection(t *testing.T) {
	f := newFixture(t)
	p, err := f.ledger.CreatePlan(admin, 90, 800, 0, 0, 500)
	if err != nil {
		t.Fatal(err)
	}
	// Fund less than the 197.260273 units the deposit would reserve.
	if err := f.ledger.FundVault(admin, 100*unit); err != nil {
		t.Fatal(err)
	}

	vaultBefore := f.vault.State()
	aliceBefore := f.bank.BalanceOf(alice)

	_, err = f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)
	if !errors.Is(err, model.ErrLiquidity) {
		t.Fatalf("expected liquidity error, got %v", err)
	}

	// Nothing moved and no certificate exists.
	vaultAfter := f.vault.State()
	if vaultBefore.PrincipalBalance != vaultAfter.PrincipalBalance ||
		vaultBefore.InterestBalance != vaultAfter.InterestBalance ||
		vaultBefore.InterestReserved != vaultAfter.InterestReserved {
		t.Errorf("vault mutated by failed open: before %+v after %+v", vaultBefore, vaultAfter)
	}
	if f.bank.BalanceOf(alice) != aliceBefore {
		t.Error("holder balance changed on failed open")
	}
	if _, _, err := f.ledger.GetDeposit(1); !errors.Is(err, model.ErrDepositNotFound) {
		t.Errorf("no certificate should exist, got %v", err)
	}
}

func TestOpenDeposit_TransferFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()

	vaultBefore := f.vault.State()
	// carol has no balance, so pulling the principal fails after the vault
	// effect was applied; everything must unwind.
	_, err := f.ledger.OpenDeposit("carol", p.ID, 10_000*unit, false)
	if !errors.Is(err, model.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	vaultAfter := f.vault.State()
	if vaultBefore.PrincipalBalance != vaultAfter.PrincipalBalance ||
		vaultBefore.InterestReserved != vaultAfter.InterestReserved {
		t.Errorf("vault not rolled back: before %+v after %+v", vaultBefore, vaultAfter)
	}

	// The id was not consumed.
	cert, err := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)
	if err != nil {
		t.Fatal(err)
	}
	if cert.ID != 1 {
		t.Errorf("expected id 1 after rollback, got %d", cert.ID)
	}
}

func TestWithdraw_Guards(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	cert, err := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.ledger.Withdraw(alice, cert.ID); !errors.Is(err, model.ErrNotMatured) {
		t.Errorf("expected not matured, got %v", err)
	}

	f.advanceDays(90)
	if _, err := f.ledger.Withdraw(bob, cert.ID); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected unauthorized for non-holder, got %v", err)
	}
	if _, err := f.ledger.Withdraw(alice, 99); !errors.Is(err, model.ErrDepositNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	if _, err := f.ledger.Withdraw(alice, cert.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	// Terminal: a second withdraw and every other lifecycle op must fail.
	if _, err := f.ledger.Withdraw(alice, cert.ID); !errors.Is(err, model.ErrState) {
		t.Errorf("second withdraw: expected state error, got %v", err)
	}
	if _, err := f.ledger.EarlyWithdraw(alice, cert.ID); !errors.Is(err, model.ErrState) {
		t.Errorf("early withdraw on terminal: expected state error, got %v", err)
	}
	if _, err := f.ledger.Renew(alice, cert.ID, false, 0); !errors.Is(err, model.ErrState) {
		t.Errorf("renew on terminal: expected state error, got %v", err)
	}
	if err := f.ledger.SetAutoRenew(alice, cert.ID, true); !errors.Is(err, model.ErrState) {
		t.Errorf("setAutoRenew on terminal: expected state error, got %v", err)
	}
}

func TestEarlyWithdraw_MidTerm(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()

	principal := 10_000 * unit
	cert, err := f.ledger.OpenDeposit(alice, p.ID, principal, false)
	if err != nil {
		t.Fatal(err)
	}
	poolBefore := f.vault.State().InterestBalance

	f.advanceDays(45)
	res, err := f.ledger.EarlyWithdraw(alice, cert.ID)
	if err != nil {
		t.Fatalf("early withdraw: %v", err)
	}

	const proRata = 98_630_136 // 45 of 90 days at 800 bps
	penalty := 500 * unit      // 500 bps of principal
	if res.Interest != proRata {
		t.Errorf("pro-rata interest %d != %d", res.Interest, proRata)
	}
	if res.Penalty != penalty {
		t.Errorf("penalty %d != %d", res.Penalty, penalty)
	}
	if want := principal + proRata - penalty; res.Payout != want {
		t.Errorf("payout %d != %d", res.Payout, want)
	}

	st := f.vault.State()
	// The full original reservation is released regardless of the smaller
	// amount actually paid, and the penalty replenishes the pool.
	if st.InterestReserved != 0 {
		t.Errorf("reservation not fully released: %d", st.InterestReserved)
	}
	if want := poolBefore - proRata + penalty; st.InterestBalance != want {
		t.Errorf("interest pool %d != %d", st.InterestBalance, want)
	}
	if st.PrincipalBalance != 0 {
		t.Errorf("principal pool should be empty, got %d", st.PrincipalBalance)
	}
	f.assertInvariants()
}

func TestEarlyWithdraw_AfterMaturityFails(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	cert, _ := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)

	f.advanceDays(90)
	if _, err := f.ledger.EarlyWithdraw(alice, cert.ID); !errors.Is(err, model.ErrAlreadyMatured) {
		t.Errorf("expected already matured, got %v", err)
	}
}

func TestEarlyWithdraw_PayoutFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	// 100% penalty wipes out principal plus accrued interest.
	p, err := f.ledger.CreatePlan(admin, 90, 800, 0, 0, 10000)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.ledger.FundVault(admin, 1000*unit); err != nil {
		t.Fatal(err)
	}
	cert, err := f.ledger.OpenDeposit(alice, p.ID, 100*unit, false)
	if err != nil {
		t.Fatal(err)
	}

	f.advanceDays(10)
	balanceBefore := f.bank.BalanceOf(alice)
	res, err := f.ledger.EarlyWithdraw(alice, cert.ID)
	if err != nil {
		t.Fatalf("early withdraw: %v", err)
	}
	if res.Payout != 0 {
		t.Errorf("payout should floor at zero, got %d", res.Payout)
	}
	if res.Penalty != res.Principal+res.Interest {
		t.Errorf("penalty should cap at principal+interest: %+v", res)
	}
	if f.bank.BalanceOf(alice) != balanceBefore {
		t.Error("holder should receive nothing")
	}
	f.assertInvariants()
}

func TestRenew_AutoKeepsLockedRate(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()

	principal := 10_000 * unit
	cert, err := f.ledger.OpenDeposit(alice, p.ID, principal, true)
	if err != nil {
		t.Fatal(err)
	}

	// Live plan rate changes before renewal; the auto-renew contract must
	// ignore it.
	if _, err := f.ledger.UpdatePlan(admin, p.ID, 1000, 500, 0, 0); err != nil {
		t.Fatal(err)
	}

	f.advanceDays(90)
	const fullInterest = 197_260_273
	renewed, err := f.ledger.Renew(alice, cert.ID, false, 0)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed.LockedAPRBps != 800 {
		t.Errorf("auto-renew must keep the locked 800 bps, got %d", renewed.LockedAPRBps)
	}
	if renewed.Principal != principal+fullInterest {
		t.Errorf("compounded principal %d != %d", renewed.Principal, principal+fullInterest)
	}
	if !renewed.AutoRenew {
		t.Error("auto-renew flag should carry over")
	}

	old, _, err := f.ledger.GetDeposit(cert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.Status != model.StatusRenewed {
		t.Errorf("old certificate should be RENEWED, got %s", old.Status)
	}

	st := f.vault.State()
	if st.PrincipalBalance != renewed.Principal {
		t.Errorf("principal pool %d != compounded principal %d", st.PrincipalBalance, renewed.Principal)
	}
	wantReserved, _ := calculator.Interest(renewed.Principal, 800, 90)
	if st.InterestReserved != wantReserved {
		t.Errorf("new reservation %d != %d", st.InterestReserved, wantReserved)
	}
	f.assertInvariants()
}

func TestRenew_ManualUsesCurrentRate(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	cert, err := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.UpdatePlan(admin, p.ID, 1000, 500, 0, 0); err != nil {
		t.Fatal(err)
	}

	f.advanceDays(90)
	renewed, err := f.ledger.Renew(alice, cert.ID, true, 0)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed.LockedAPRBps != 1000 {
		t.Errorf("manual renew must adopt the live 1000 bps, got %d", renewed.LockedAPRBps)
	}
}

func TestRenew_TargetPlan(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	target, err := f.ledger.CreatePlan(admin, 180, 1200, 0, 0, 300)
	if err != nil {
		t.Fatal(err)
	}
	cert, _ := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)

	f.advanceDays(90)
	renewed, err := f.ledger.Renew(alice, cert.ID, true, target.ID)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed.PlanID != target.ID || renewed.LockedAPRBps != 1200 {
		t.Errorf("expected target plan terms, got %+v", renewed)
	}
	if got := renewed.MaturityAt.Sub(renewed.OpenedAt); got != 180*24*time.Hour {
		t.Errorf("expected 180-day term, got %s", got)
	}
}

func TestRenew_DisabledTargetFails(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	target, _ := f.ledger.CreatePlan(admin, 180, 1200, 0, 0, 300)
	f.ledger.EnablePlan(admin, target.ID, false)
	cert, _ := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)

	f.advanceDays(90)
	if _, err := f.ledger.Renew(alice, cert.ID, true, target.ID); !errors.Is(err, model.ErrPlanDisabled) {
		t.Errorf("expected plan disabled, got %v", err)
	}

	// The auto-renew path ignores the disabled flag on its own plan: the
	// original commitment survives an admin disable.
	f.ledger.EnablePlan(admin, p.ID, false)
	if _, err := f.ledger.Renew(alice, cert.ID, false, 0); err != nil {
		t.Errorf("locked-rate renew should ignore plan disable: %v", err)
	}
}

func TestTransferCertificate_MovesAuthorization(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	cert, _ := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)

	if err := f.ledger.TransferCertificate(bob, cert.ID, bob); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("non-holder transfer must fail, got %v", err)
	}
	if err := f.ledger.TransferCertificate(alice, cert.ID, bob); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	f.advanceDays(90)
	if _, err := f.ledger.Withdraw(alice, cert.ID); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("previous holder must lose authorization, got %v", err)
	}
	res, err := f.ledger.Withdraw(bob, cert.ID)
	if err != nil {
		t.Fatalf("new holder withdraw: %v", err)
	}
	if f.bank.BalanceOf(bob) != 100_000*unit+res.Payout {
		t.Error("payout should go to the new holder")
	}
}

func TestSetAutoRenew_AndSweepList(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	cert, _ := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)

	if err := f.ledger.SetAutoRenew(bob, cert.ID, true); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("non-holder flag flip must fail, got %v", err)
	}
	if err := f.ledger.SetAutoRenew(alice, cert.ID, true); err != nil {
		t.Fatal(err)
	}

	if due := f.ledger.AutoRenewDue(); len(due) != 0 {
		t.Errorf("nothing is due before maturity, got %v", due)
	}
	f.advanceDays(90)
	due := f.ledger.AutoRenewDue()
	if len(due) != 1 || due[0].DepositID != cert.ID || due[0].Holder != alice {
		t.Fatalf("expected [{%d %s}], got %v", cert.ID, alice, due)
	}
}

func TestPause_GatesMutationsOnly(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	cert, _ := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false)

	if err := f.ledger.Pause(alice); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("non-admin pause must fail, got %v", err)
	}
	if err := f.ledger.Pause(admin); err != nil {
		t.Fatal(err)
	}

	if _, err := f.ledger.OpenDeposit(alice, p.ID, 100*unit, false); !errors.Is(err, model.ErrHalted) {
		t.Errorf("expected halted, got %v", err)
	}
	f.advanceDays(90)
	if _, err := f.ledger.Withdraw(alice, cert.ID); !errors.Is(err, model.ErrHalted) {
		t.Errorf("expected halted, got %v", err)
	}

	// Views stay available while paused.
	if _, _, err := f.ledger.GetDeposit(cert.ID); err != nil {
		t.Errorf("view blocked by pause: %v", err)
	}
	if _, err := f.ledger.CalculateInterest(cert.ID); err != nil {
		t.Errorf("view blocked by pause: %v", err)
	}

	if err := f.ledger.Unpause(admin); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.Withdraw(alice, cert.ID); err != nil {
		t.Errorf("withdraw after unpause: %v", err)
	}
}

func TestAdminGuards(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ledger.CreatePlan(alice, 90, 800, 0, 0, 500); !errors.Is(err, model.ErrNotAdmin) {
		t.Errorf("expected not admin, got %v", err)
	}
	if err := f.ledger.FundVault(alice, 100); !errors.Is(err, model.ErrNotAdmin) {
		t.Errorf("expected not admin, got %v", err)
	}
	if err := f.ledger.WithdrawVault(alice, 100); !errors.Is(err, model.ErrNotAdmin) {
		t.Errorf("expected not admin, got %v", err)
	}
}

func TestWithdrawVault_OnlySurplus(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()
	if _, err := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, false); err != nil {
		t.Fatal(err)
	}

	st := f.vault.State()
	surplus := st.InterestBalance - st.InterestReserved
	if err := f.ledger.WithdrawVault(admin, surplus+1); !errors.Is(err, model.ErrLiquidity) {
		t.Errorf("withdrawing into reserved funds must fail, got %v", err)
	}
	if err := f.ledger.WithdrawVault(admin, surplus); err != nil {
		t.Errorf("surplus withdrawal: %v", err)
	}
	f.assertInvariants()
}

func TestPrincipalPoolTracksActiveCertificates(t *testing.T) {
	f := newFixture(t)
	p := f.standardPlan()

	a, _ := f.ledger.OpenDeposit(alice, p.ID, 3_000*unit, false)
	b, _ := f.ledger.OpenDeposit(bob, p.ID, 5_000*unit, false)
	if st := f.vault.State(); st.PrincipalBalance != 8_000*unit {
		t.Fatalf("principal pool %d != 8000 units", st.PrincipalBalance)
	}

	f.advanceDays(45)
	if _, err := f.ledger.EarlyWithdraw(alice, a.ID); err != nil {
		t.Fatal(err)
	}
	if st := f.vault.State(); st.PrincipalBalance != 5_000*unit {
		t.Errorf("principal pool %d != remaining active principal", st.PrincipalBalance)
	}

	f.advanceDays(45)
	if _, err := f.ledger.Withdraw(bob, b.ID); err != nil {
		t.Fatal(err)
	}
	if st := f.vault.State(); st.PrincipalBalance != 0 {
		t.Errorf("principal pool %d != 0 with no active certificates", st.PrincipalBalance)
	}
	f.assertInvariants()
}

func TestRestore_RebuildsState(t *testing.T) {
	dir := t.TempDir()
	db, err := store.NewSQLiteStore(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	defer db.Close()

	f := newFixture(t)
	f.ledger.store = db
	p := f.standardPlan()
	cert, err := f.ledger.OpenDeposit(alice, p.ID, 10_000*unit, true)
	if err != nil {
		t.Fatal(err)
	}

	recs, err := db.LoadCertificates()
	if err != nil {
		t.Fatal(err)
	}
	plans, err := db.LoadPlans()
	if err != nil {
		t.Fatal(err)
	}

	// Fresh collaborators, same vault snapshot: the restored ledger resumes
	// with intact state.
	registry := plan.NewRegistry()
	for _, pl := range plans {
		registry.Restore(pl)
	}
	restored := New(Options{
		Plans:        registry,
		Vault:        f.vault,
		Owners:       ownership.NewRegistry(),
		Asset:        f.bank,
		Store:        db,
		Admin:        admin,
		VaultAccount: vaultAcct,
		Clock:        f.clock,
	})
	if err := restored.Restore(recs); err != nil {
		t.Fatalf("restore: %v", err)
	}

	got, holder, err := restored.GetDeposit(cert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if holder != alice || got.Principal != cert.Principal || got.LockedAPRBps != 800 || !got.AutoRenew {
		t.Errorf("restored certificate mismatch: %+v holder=%s", got, holder)
	}

	f.advanceDays(90)
	if _, err := restored.Withdraw(alice, cert.ID); err != nil {
		t.Errorf("withdraw on restored ledger: %v", err)
	}
}
