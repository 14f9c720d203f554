package domain

import "jidokhae/internal/domain/entities"

// ActivityStats are the counters badge rules look at.
type ActivityStats struct {
	Attended        int
	Reviews         int
	PraisesReceived int
	PraisesGiven    int
}

type badgeRule struct {
	badge entities.BadgeType
	met   func(ActivityStats) bool
}

var badgeRules = []badgeRule{
	{entities.BadgeFirstMeeting, func(s ActivityStats) bool { return s.Attended >= 1 }},
	{entities.BadgeRegular5, func(s ActivityStats) bool { return s.Attended >= 5 }},
	{entities.BadgeRegular10, func(s ActivityStats) bool { return s.Attended >= 10 }},
	{entities.BadgeFirstReview, func(s ActivityStats) bool { return s.Reviews >= 1 }},
	{entities.BadgePraised5, func(s ActivityStats) bool { return s.PraisesReceived >= 5 }},
	{entities.BadgePraiseGiver, func(s ActivityStats) bool { return s.PraisesGiven >= 5 }},
}

// EligibleBadges lists every badge the stats satisfy, in rule order.
func EligibleBadges(s ActivityStats) []entities.BadgeType {
	var out []entities.BadgeType
	for _, r := range badgeRules {
		if r.met(s) {
			out = append(out, r.badge)
		}
	}
	return out
}
