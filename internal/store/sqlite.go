package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"TermVault/internal/model"
)

// SQLiteStore persists ledger state and event history to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (reporting reads while
	// the service writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id                INTEGER PRIMARY KEY,
			tenor_days        INTEGER NOT NULL,
			apr_bps           INTEGER NOT NULL,
			min_deposit       INTEGER NOT NULL,
			max_deposit       INTEGER NOT NULL,
			early_penalty_bps INTEGER NOT NULL,
			active            INTEGER NOT NULL,
			created_at        INTEGER NOT NULL,
			updated_at        INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS certificates (
			id             INTEGER PRIMARY KEY,
			holder         TEXT NOT NULL,
			plan_id        INTEGER NOT NULL,
			principal      INTEGER NOT NULL,
			opened_at      INTEGER NOT NULL,
			maturity_at    INTEGER NOT NULL,
			locked_apr_bps INTEGER NOT NULL,
			auto_renew     INTEGER NOT NULL,
			status         TEXT NOT NULL,
			updated_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cert_holder ON certificates(holder)`,
		`CREATE INDEX IF NOT EXISTS idx_cert_status ON certificates(status)`,

		`CREATE TABLE IF NOT EXISTS deposit_events (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			deposit_id INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			holder     TEXT,
			principal  INTEGER,
			interest   INTEGER,
			penalty    INTEGER,
			note       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposit_events_ts ON deposit_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_deposit_events_id ON deposit_events(deposit_id)`,

		`CREATE TABLE IF NOT EXISTS vault_events (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			event_type      TEXT NOT NULL,
			amount          INTEGER,
			principal_after INTEGER,
			interest_after  INTEGER,
			reserved_after  INTEGER,
			note            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vault_events_ts ON vault_events(timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// SavePlan upserts a plan row.
func (s *SQLiteStore) SavePlan(p *model.SavingPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO plans
		(id, tenor_days, apr_bps, min_deposit, max_deposit, early_penalty_bps, active, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			apr_bps=excluded.apr_bps,
			min_deposit=excluded.min_deposit,
			max_deposit=excluded.max_deposit,
			early_penalty_bps=excluded.early_penalty_bps,
			active=excluded.active,
			updated_at=excluded.updated_at`,
		p.ID, p.TenorDays, p.APRBps, p.MinDeposit, p.MaxDeposit,
		p.EarlyPenaltyBps, boolToInt(p.Active), p.CreatedAt.Unix(), p.UpdatedAt.Unix(),
	)
	return err
}

// SaveCertificate upserts a certificate row together with its current holder.
func (s *SQLiteStore) SaveCertificate(c *model.DepositCertificate, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO certificates
		(id, holder, plan_id, principal, opened_at, maturity_at, locked_apr_bps, auto_renew, status, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			holder=excluded.holder,
			auto_renew=excluded.auto_renew,
			status=excluded.status,
			updated_at=excluded.updated_at`,
		c.ID, holder, c.PlanID, c.Principal, c.OpenedAt.Unix(), c.MaturityAt.Unix(),
		c.LockedAPRBps, boolToInt(c.AutoRenew), string(c.Status), c.UpdatedAt.Unix(),
	)
	return err
}

// LoadPlans reads the full plan table, ordered by id.
func (s *SQLiteStore) LoadPlans() ([]*model.SavingPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, tenor_days, apr_bps, min_deposit, max_deposit,
		early_penalty_bps, active, created_at, updated_at FROM plans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SavingPlan
	for rows.Next() {
		var p model.SavingPlan
		var active int
		var created, updated int64
		if err := rows.Scan(&p.ID, &p.TenorDays, &p.APRBps, &p.MinDeposit, &p.MaxDeposit,
			&p.EarlyPenaltyBps, &active, &created, &updated); err != nil {
			return nil, err
		}
		p.Active = active != 0
		p.CreatedAt = time.Unix(created, 0)
		p.UpdatedAt = time.Unix(updated, 0)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// LoadCertificates reads the full certificate table, ordered by id.
func (s *SQLiteStore) LoadCertificates() ([]CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, holder, plan_id, principal, opened_at, maturity_at,
		locked_apr_bps, auto_renew, status, updated_at FROM certificates ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CertificateRecord
	for rows.Next() {
		var c model.DepositCertificate
		var holder, status string
		var autoRenew int
		var opened, maturity, updated int64
		if err := rows.Scan(&c.ID, &holder, &c.PlanID, &c.Principal, &opened, &maturity,
			&c.LockedAPRBps, &autoRenew, &status, &updated); err != nil {
			return nil, err
		}
		c.OpenedAt = time.Unix(opened, 0)
		c.MaturityAt = time.Unix(maturity, 0)
		c.AutoRenew = autoRenew != 0
		c.Status = model.CertificateStatus(status)
		c.UpdatedAt = time.Unix(updated, 0)
		out = append(out, CertificateRecord{Certificate: &c, Holder: holder})
	}
	return out, rows.Err()
}

// RecordDepositEvent appends a certificate lifecycle event.
func (s *SQLiteStore) RecordDepositEvent(evt *model.DepositEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO deposit_events
		(id, timestamp, deposit_id, event_type, holder, principal, interest, penalty, note)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), evt.DepositID, string(evt.Type),
		evt.Holder, evt.Principal, evt.Interest, evt.Penalty, evt.Note,
	)
	return err
}

// RecordVaultEvent appends a reserve balance event.
func (s *SQLiteStore) RecordVaultEvent(evt *model.VaultEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO vault_events
		(id, timestamp, event_type, amount, principal_after, interest_after, reserved_after, note)
		VALUES (?,?,?,?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), string(evt.Type), evt.Amount,
		evt.PrincipalAfter, evt.InterestAfter, evt.ReservedAfter, evt.Note,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
