package store

import "TermVault/internal/model"

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) SavePlan(_ *model.SavingPlan) error                         { return nil }
func (n *NoopStore) SaveCertificate(_ *model.DepositCertificate, _ string) error { return nil }
func (n *NoopStore) LoadPlans() ([]*model.SavingPlan, error)                    { return nil, nil }
func (n *NoopStore) LoadCertificates() ([]CertificateRecord, error)             { return nil, nil }
func (n *NoopStore) RecordDepositEvent(_ *model.DepositEvent) error             { return nil }
func (n *NoopStore) RecordVaultEvent(_ *model.VaultEvent) error                 { return nil }
func (n *NoopStore) Close() error                                               { return nil }
