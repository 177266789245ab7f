package model

import "time"

// CertificateStatus is the lifecycle state of a deposit certificate.
type CertificateStatus string

const (
	StatusActive         CertificateStatus = "ACTIVE"
	StatusWithdrawn      CertificateStatus = "WITHDRAWN"
	StatusEarlyWithdrawn CertificateStatus = "EARLY_WITHDRAWN"
	StatusRenewed        CertificateStatus = "RENEWED"
)

// Terminal reports whether the status can never transition again.
// Every status except ACTIVE is terminal.
func (s CertificateStatus) Terminal() bool {
	return s != StatusActive
}

// DepositCertificate records one deposit's terms and state. The APR is locked
// at open time; later plan edits never change an open certificate. Holder
// authorization lives in the ownership registry, not here.
type DepositCertificate struct {
	ID           int64             `json:"id"`
	PlanID       int64             `json:"plan_id"`
	Principal    int64             `json:"principal"`
	OpenedAt     time.Time         `json:"opened_at"`
	MaturityAt   time.Time         `json:"maturity_at"`
	LockedAPRBps int64             `json:"locked_apr_bps"`
	AutoRenew    bool              `json:"auto_renew"`
	Status       CertificateStatus `json:"status"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Matured reports whether the certificate's term has ended at the given time.
func (c *DepositCertificate) Matured(now time.Time) bool {
	return !now.Before(c.MaturityAt)
}

// ElapsedDays returns whole days since the certificate opened, capped at the
// plan tenor so accrual never exceeds the promised term.
func (c *DepositCertificate) ElapsedDays(now time.Time, tenorDays int64) int64 {
	secs := now.Unix() - c.OpenedAt.Unix()
	if secs < 0 {
		return 0
	}
	days := secs / 86400
	if days > tenorDays {
		return tenorDays
	}
	return days
}
