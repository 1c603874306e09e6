package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/model"
)

const maxTitleWidth = 40

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = TableHeaderStyle.Render(h)
		rules[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))
	return tw
}

// RenderQueue writes the action queue as a table.
func RenderQueue(w io.Writer, items []model.ActionQueueItem, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, FormatSuccess("Nothing to do: no product needs a price change."))
		return err
	}

	tw := newTable(w, "#", "SEVERITY", "PRODUCT", "ISSUE", "PRICE", "LOWEST", "GAP", "GAP %", "RANK", "REFRESHED")
	for i, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			SeverityStyle(item.Severity).Render(string(item.Severity)),
			Truncate(item.ProductID+" "+item.ProductName, maxTitleWidth),
			item.IssueType,
			FormatMoney(item.SellingPrice),
			FormatMoneyPtr(item.LowestTotal),
			FormatGap(item.PriceGap),
			FormatGapPct(item.PriceGapPct),
			FormatRank(item.ExposureRank),
			FreshnessStyle(item.Freshness).Render(FormatAge(item.LastRefreshedAt, now)))
	}
	return tw.Flush()
}

// RenderLocked writes the locked products view as a table.
func RenderLocked(w io.Writer, items []model.ActionQueueItem, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No price-locked products."))
		return err
	}

	tw := newTable(w, "PRODUCT", "REASON", "PRICE", "LOWEST", "GAP", "GAP %", "REFRESHED")
	for _, item := range items {
		reason := item.PriceLockReason
		if reason == "" {
			reason = SubtleStyle.Render("(no reason)")
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			LockIcon,
			Truncate(item.ProductID+" "+item.ProductName, maxTitleWidth),
			reason,
			FormatMoney(item.SellingPrice),
			FormatMoneyPtr(item.LowestTotal),
			FormatGap(item.PriceGap),
			FormatGapPct(item.PriceGapPct),
			FreshnessStyle(item.Freshness).Render(FormatAge(item.LastRefreshedAt, now)))
	}
	return tw.Flush()
}

// RenderCompetitors writes a ranked competitor table. Rows that did not take
// part in ranking show their relevance reason instead of a rank.
func RenderCompetitors(w io.Writer, rows []model.CompetitorRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No listings crawled yet."))
		return err
	}

	tw := newTable(w, "RANK", "SELLER", "TITLE", "ITEM", "SHIPPING", "TOTAL", "EXPOSURE", "KEY")
	for _, row := range rows {
		rank := fmt.Sprintf("%d", row.Rank)
		if !row.IsRanked() {
			rank = SubtleStyle.Render(string(row.RelevanceReason))
		}
		seller := row.SellerName
		if row.IsOwn {
			seller = BoldStyle.Render(seller + " (you)")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t#%d\t%s\n",
			rank,
			seller,
			Truncate(row.Title, maxTitleWidth),
			FormatMoney(row.ItemPrice),
			formatShipping(row),
			FormatMoney(row.TotalPrice),
			row.ExposureRank,
			row.ListingKey)
	}
	return tw.Flush()
}

func formatShipping(row model.CompetitorRow) string {
	switch {
	case row.ShippingOverridden:
		return FormatMoney(row.ShippingFee) + " (manual)"
	case row.ShippingFeeType == model.ShippingFree:
		return "free"
	case row.ShippingFeeType == model.ShippingKnown:
		return FormatMoney(row.ShippingFee)
	default:
		return WarningStyle.Render(string(row.ShippingFeeType))
	}
}

// RenderProduct writes a product's status line followed by its ranked
// competitor table.
func RenderProduct(w io.Writer, report engine.ProductReport, now time.Time) error {
	p := report.Product
	status := string(report.Status.DisplayStatus())
	if p.IsPriceLocked {
		status = LockIcon + " locked"
		if p.PriceLockReason != "" {
			status += " (" + p.PriceLockReason + ")"
		}
	} else if !report.Status.HasCompetitors() {
		status = "no competitors"
	}

	header := fmt.Sprintf("%s  %s\n", BoldStyle.Render(p.ID), p.Name) +
		fmt.Sprintf("Status:    %s\n", StatusStyle(report.Status.DisplayStatus()).Render(status)) +
		fmt.Sprintf("Price:     %s\n", FormatMoney(p.SellingPrice)) +
		fmt.Sprintf("Lowest:    %s\n", FormatMoneyPtr(report.Status.LowestTotal)) +
		fmt.Sprintf("Gap:       %s (%s)\n", FormatGap(report.Status.PriceGap), FormatGapPct(report.Status.PriceGapPct)) +
		fmt.Sprintf("Exposure:  %s\n", FormatRank(report.OwnExposureRank)) +
		fmt.Sprintf("Refreshed: %s\n", FormatAge(report.LastRefreshedAt, now))
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	return RenderCompetitors(w, report.Competitors)
}

// RenderSummary writes an account's status counts in a box.
func RenderSummary(w io.Writer, accountID string, s engine.Summary) error {
	body := fmt.Sprintf("  • Winning:        %s\n", SuccessStyle.Render(fmt.Sprint(s.Winning))) +
		fmt.Sprintf("  • Losing:         %s (close: %d)\n", ErrorStyle.Render(fmt.Sprint(s.Losing)), s.Close) +
		fmt.Sprintf("  • No competitors: %d\n", s.NoCompetitors) +
		fmt.Sprintf("  • Locked:         %d\n", s.Locked) +
		fmt.Sprintf("  • Total:          %d", s.Total)
	_, err := fmt.Fprintln(w, RenderBox("Account "+accountID, body))
	return err
}
