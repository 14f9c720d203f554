package entities

import (
	"time"

	"github.com/google/uuid"
)

type BadgeType string

const (
	BadgeFirstMeeting BadgeType = "first_meeting"
	BadgeRegular5     BadgeType = "regular_5"
	BadgeRegular10    BadgeType = "regular_10"
	BadgeFirstReview  BadgeType = "first_review"
	BadgePraised5     BadgeType = "praised_5"
	BadgePraiseGiver  BadgeType = "praise_giver"
)

type Badge struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      BadgeType `json:"badge_type"`
	AwardedAt time.Time `json:"awarded_at"`
}
