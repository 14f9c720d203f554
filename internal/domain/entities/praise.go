package entities

import (
	"time"

	"github.com/google/uuid"
)

type Praise struct {
	ID         uuid.UUID `json:"id"`
	MeetingID  uuid.UUID `json:"meeting_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	PhraseID   string    `json:"phrase_id"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PraisePhrase is one of the preset compliments a member can send.
type PraisePhrase struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

var PraisePhrases = []PraisePhrase{
	{ID: "insightful", Text: "깊이 있는 해석이 인상적이었어요"},
	{ID: "good_listener", Text: "다른 사람의 이야기를 잘 들어주셨어요"},
	{ID: "warm", Text: "따뜻한 분위기를 만들어 주셨어요"},
	{ID: "new_view", Text: "새로운 시각을 알려주셨어요"},
	{ID: "well_prepared", Text: "책을 정말 꼼꼼히 읽어 오셨어요"},
}

func FindPraisePhrase(id string) (PraisePhrase, bool) {
	for _, p := range PraisePhrases {
		if p.ID == id {
			return p, true
		}
	}
	return PraisePhrase{}, false
}
