package input

import (
	"context"

	"github.com/google/uuid"

	"jidokhae/internal/domain/entities"
)

type ReviewInput struct {
	Rating   int    `json:"rating"`
	Content  string `json:"content"`
	IsPublic bool   `json:"is_public"`
}

type PraiseInput struct {
	ToUserID uuid.UUID `json:"to_user_id"`
	PhraseID string    `json:"phrase_id"`
	Message  string    `json:"message"`
}

type ReviewUseCase interface {
	Write(ctx context.Context, userID, meetingID uuid.UUID, in ReviewInput) (*entities.Review, error)
	ListForMeeting(ctx context.Context, meetingID, viewer uuid.UUID) ([]entities.Review, error)
	MyReviews(ctx context.Context, userID uuid.UUID) ([]entities.Review, error)
}

type PraiseUseCase interface {
	Give(ctx context.Context, fromUserID, meetingID uuid.UUID, in PraiseInput) (*entities.Praise, error)
	Received(ctx context.Context, userID uuid.UUID) ([]entities.Praise, error)
	Given(ctx context.Context, userID uuid.UUID) ([]entities.Praise, error)
	Phrases() []entities.PraisePhrase
}

type BadgeUseCase interface {
	// Evaluate awards every newly earned badge and returns those.
	Evaluate(ctx context.Context, userID uuid.UUID) ([]entities.Badge, error)
	List(ctx context.Context, userID uuid.UUID) ([]entities.Badge, error)
}
