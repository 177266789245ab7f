package model

// DepositEventType labels a certificate lifecycle transition.
type DepositEventType string

const (
	EventOpened         DepositEventType = "OPENED"
	EventWithdrawn      DepositEventType = "WITHDRAWN"
	EventEarlyWithdrawn DepositEventType = "EARLY_WITHDRAWN"
	EventRenewed        DepositEventType = "RENEWED"
	EventTransferred    DepositEventType = "TRANSFERRED"
	EventAutoRenewSet   DepositEventType = "AUTO_RENEW_SET"
)

// VaultEventType labels a reserve pool balance change.
type VaultEventType string

const (
	VaultEventFunded     VaultEventType = "FUNDED"
	VaultEventWithdrawn  VaultEventType = "WITHDRAWN"
	VaultEventLowHealth  VaultEventType = "LOW_HEALTH"
	VaultEventSnapshot   VaultEventType = "SNAPSHOT"
)

// DepositEvent records one lifecycle transition of one certificate.
type DepositEvent struct {
	DepositID int64
	Type      DepositEventType
	Holder    string
	Principal int64
	Interest  int64
	Penalty   int64
	Note      string
}

// VaultEvent records a reserve balance change or health observation.
type VaultEvent struct {
	Type           VaultEventType
	Amount         int64
	PrincipalAfter int64
	InterestAfter  int64
	ReservedAfter  int64
	Note           string
}
