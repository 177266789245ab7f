package store

import "TermVault/internal/model"

// CertificateRecord pairs a persisted certificate with its current holder.
type CertificateRecord struct {
	Certificate *model.DepositCertificate
	Holder      string
}

// Store persists the plan table, certificate table, and event history.
// In-memory state is authoritative; the store is a durable mirror reloaded
// at startup.
type Store interface {
	SavePlan(p *model.SavingPlan) error
	SaveCertificate(c *model.DepositCertificate, holder string) error
	LoadPlans() ([]*model.SavingPlan, error)
	LoadCertificates() ([]CertificateRecord, error)
	RecordDepositEvent(evt *model.DepositEvent) error
	RecordVaultEvent(evt *model.VaultEvent) error
	Close() error
}
