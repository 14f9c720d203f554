package domain

import (
	"fmt"
	"slices"
	"time"

	"jidokhae/internal/domain/entities"
	"jidokhae/pkg/tz"
)

// DefaultRefundRules apply when a meeting has no policy of its own and no
// default policy exists for its type: full refund up to 3 days before, half
// 2 days before, nothing afterwards.
var DefaultRefundRules = []entities.RefundRule{
	{DaysBefore: 3, Percent: 100},
	{DaysBefore: 2, Percent: 50},
	{DaysBefore: 0, Percent: 0},
}

// RefundPercent picks the first rule, by descending DaysBefore, whose
// threshold the cancellation meets. Days are Seoul calendar days between
// cancelAt and meetingStart.
func RefundPercent(rules []entities.RefundRule, meetingStart, cancelAt time.Time) int {
	days := tz.DaysBetween(cancelAt, meetingStart)
	if days < 0 {
		return 0
	}
	sorted := slices.Clone(rules)
	slices.SortFunc(sorted, func(a, b entities.RefundRule) int { return b.DaysBefore - a.DaysBefore })
	for _, r := range sorted {
		if days >= r.DaysBefore {
			return clampPercent(r.Percent)
		}
	}
	return 0
}

// RefundAmount floors to whole won.
func RefundAmount(amount int64, percent int) int64 {
	percent = clampPercent(percent)
	if amount <= 0 || percent == 0 {
		return 0
	}
	return amount * int64(percent) / 100
}

func clampPercent(p int) int {
	return min(max(p, 0), 100)
}

// ValidateRefundRules requires at least one rule, non-negative unique
// DaysBefore values and percents within 0..100.
func ValidateRefundRules(rules []entities.RefundRule) error {
	if len(rules) == 0 {
		return Invalid("refund policy needs at least one rule")
	}
	seen := make(map[int]bool, len(rules))
	for _, r := range rules {
		if r.DaysBefore < 0 {
			return Invalid("days_before must be >= 0 (got %d)", r.DaysBefore)
		}
		if r.Percent < 0 || r.Percent > 100 {
			return Invalid("percent must be within 0..100 (got %d)", r.Percent)
		}
		if seen[r.DaysBefore] {
			return Invalid("duplicate days_before %d", r.DaysBefore)
		}
		seen[r.DaysBefore] = true
	}
	return nil
}

// DescribeRefundRules renders rules for notifications, e.g. "3일 전 100%, 2일 전 50%".
func DescribeRefundRules(rules []entities.RefundRule) string {
	sorted := slices.Clone(rules)
	slices.SortFunc(sorted, func(a, b entities.RefundRule) int { return b.DaysBefore - a.DaysBefore })
	out := ""
	for i, r := range sorted {
		if i > 0 {
			out += ", "
		}
		if r.DaysBefore == 0 {
			out += fmt.Sprintf("당일 %d%%", r.Percent)
			continue
		}
		out += fmt.Sprintf("%d일 전 %d%%", r.DaysBefore, r.Percent)
	}
	return out
}
