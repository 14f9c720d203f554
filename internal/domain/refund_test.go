package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jidokhae/internal/domain/entities"
	"jidokhae/pkg/tz"
)

func TestRefundPercentDefaultBoundaries(t *testing.T) {
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, tz.Seoul)

	cases := []struct {
		name     string
		cancelAt time.Time
		want     int
	}{
		{"a week before", time.Date(2026, 10, 13, 10, 0, 0, 0, tz.Seoul), 100},
		{"three days before, last minute", time.Date(2026, 10, 17, 23, 59, 0, 0, tz.Seoul), 100},
		{"two days before, first minute", time.Date(2026, 10, 18, 0, 0, 0, 0, tz.Seoul), 50},
		{"one day before", time.Date(2026, 10, 19, 12, 0, 0, 0, tz.Seoul), 0},
		{"same day", time.Date(2026, 10, 20, 9, 0, 0, 0, tz.Seoul), 0},
		{"after the meeting", time.Date(2026, 10, 21, 9, 0, 0, 0, tz.Seoul), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RefundPercent(DefaultRefundRules, start, tc.cancelAt))
		})
	}
}

func TestRefundPercentIgnoresRuleOrder(t *testing.T) {
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, tz.Seoul)
	rules := []entities.RefundRule{
		{DaysBefore: 1, Percent: 30},
		{DaysBefore: 7, Percent: 100},
		{DaysBefore: 3, Percent: 70},
	}

	assert.Equal(t, 100, RefundPercent(rules, start, start.AddDate(0, 0, -8)))
	assert.Equal(t, 70, RefundPercent(rules, start, start.AddDate(0, 0, -5)))
	assert.Equal(t, 30, RefundPercent(rules, start, start.AddDate(0, 0, -1)))
	assert.Equal(t, 0, RefundPercent(rules, start, start))
}

func TestRefundPercentClampsAndEmpty(t *testing.T) {
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, tz.Seoul)

	assert.Equal(t, 100, RefundPercent([]entities.RefundRule{{DaysBefore: 0, Percent: 150}}, start, start))
	assert.Equal(t, 0, RefundPercent(nil, start, start.AddDate(0, 0, -10)))
}

func TestRefundAmount(t *testing.T) {
	assert.Equal(t, int64(15000), RefundAmount(15000, 100))
	assert.Equal(t, int64(7500), RefundAmount(15000, 50))
	assert.Equal(t, int64(3299), RefundAmount(9999, 33))
	assert.Equal(t, int64(0), RefundAmount(15000, 0))
	assert.Equal(t, int64(0), RefundAmount(0, 100))
}

func TestValidateRefundRules(t *testing.T) {
	assert.NoError(t, ValidateRefundRules(DefaultRefundRules))

	for name, rules := range map[string][]entities.RefundRule{
		"empty":        nil,
		"negative day": {{DaysBefore: -1, Percent: 10}},
		"over 100":     {{DaysBefore: 1, Percent: 101}},
		"duplicate":    {{DaysBefore: 2, Percent: 50}, {DaysBefore: 2, Percent: 30}},
	} {
		err := ValidateRefundRules(rules)
		assert.Equal(t, CodeValidation, CodeOf(err), name)
	}
}

func TestDescribeRefundRules(t *testing.T) {
	assert.Equal(t, "3일 전 100%, 2일 전 50%, 당일 0%", DescribeRefundRules(DefaultRefundRules))
}
