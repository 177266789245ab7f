package notifier

import (
	"log"

	"TermVault/internal/model"
)

// Notifier pushes operator alerts.
type Notifier interface {
	Send(text string) error
	SendHealthAlert(st model.VaultState, healthBps int64) error
	SendVaultStatus(st model.VaultState) error
}

// LogNotifier writes alerts to the process log. Used when Telegram is not
// configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(text string) error {
	log.Printf("[WARN] alert: %s", text)
	return nil
}

func (n *LogNotifier) SendHealthAlert(st model.VaultState, healthBps int64) error {
	return n.Send(FormatHealthAlert(&st, healthBps))
}

func (n *LogNotifier) SendVaultStatus(st model.VaultState) error {
	return n.Send(FormatVaultStatus(&st))
}
