package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"TermVault/internal/model"
)

// assetDecimals is the display precision of the deposit asset.
const assetDecimals = 6

// FormatAmount renders a base-unit amount as a human-readable decimal.
func FormatAmount(units int64) string {
	div := int64(1)
	for i := 0; i < assetDecimals; i++ {
		div *= 10
	}
	whole := units / div
	frac := units % div
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%s.%06d", humanize.Comma(whole), frac)
}

// FormatHealthAlert formats a low reserve-coverage alert for operators.
func FormatHealthAlert(st *model.VaultState, healthBps int64) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("⚠️ <b>TermVault reserve health low</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Interest pool: %s\n", FormatAmount(st.InterestBalance)))
	b.WriteString(fmt.Sprintf("Reserved: %s\n", FormatAmount(st.InterestReserved)))
	if healthBps == math.MaxInt64 {
		b.WriteString("Coverage: unbounded (nothing reserved)\n")
	} else {
		b.WriteString(fmt.Sprintf("Coverage: %.2f%% (minimum %.2f%%)\n",
			float64(healthBps)/100, float64(st.MinHealthBps)/100))
	}
	b.WriteString("\nFund the interest pool to restore headroom for new deposits.")
	return b.String()
}

// FormatVaultStatus formats the vault balances for periodic status reports.
func FormatVaultStatus(st *model.VaultState) string {
	var b strings.Builder

	b.WriteString("🏦 <b>Vault status</b>\n")
	b.WriteString(fmt.Sprintf("Principal pool: %s\n", FormatAmount(st.PrincipalBalance)))
	b.WriteString(fmt.Sprintf("Interest pool: %s (reserved %s, available %s)\n",
		FormatAmount(st.InterestBalance),
		FormatAmount(st.InterestReserved),
		FormatAmount(st.AvailableInterest())))
	return b.String()
}
