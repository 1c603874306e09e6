package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is printed for values that could not be computed.
const NotAvailable = "n/a"

// FormatMoney renders an integer amount with thousands separators.
func FormatMoney(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	b.WriteString(sign)
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}

// FormatMoneyPtr renders an optional amount.
func FormatMoneyPtr(amount *int64) string {
	if amount == nil {
		return NotAvailable
	}
	return FormatMoney(*amount)
}

// FormatGap renders a signed price gap, e.g. "+2,000".
func FormatGap(gap *int64) string {
	if gap == nil {
		return NotAvailable
	}
	if *gap > 0 {
		return "+" + FormatMoney(*gap)
	}
	return FormatMoney(*gap)
}

// FormatGapPct renders a signed gap percentage with two decimals.
func FormatGapPct(pct *float64) string {
	if pct == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%+.2f%%", *pct)
}

// FormatRank renders an optional exposure rank.
func FormatRank(rank *int) string {
	if rank == nil {
		return "-"
	}
	return "#" + strconv.Itoa(*rank)
}

// FormatAge renders how long before now t happened, e.g. "3h ago".
func FormatAge(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}
	age := now.Sub(*t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

// FormatFileSize formats bytes into a human-readable size.
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
