package input

import (
	"context"

	"jidokhae/internal/domain/entities"
)

type RefundPolicyInput struct {
	Name        string                `json:"name"`
	MeetingType entities.MeetingType  `json:"meeting_type"`
	Rules       []entities.RefundRule `json:"rules"`
	IsDefault   bool                  `json:"is_default"`
}

type RefundPolicyUseCase interface {
	List(ctx context.Context) ([]entities.RefundPolicy, error)
	Create(ctx context.Context, in RefundPolicyInput) (*entities.RefundPolicy, error)
}

// JobResult summarizes one sweep.
type JobResult struct {
	Job       string `json:"job"`
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// Add folds r into the receiver's counters.
func (j *JobResult) Add(r JobResult) {
	j.Processed += r.Processed
	j.Sent += r.Sent
	j.Skipped += r.Skipped
	j.Failed += r.Failed
}

type CronUseCase interface {
	Run(ctx context.Context, job string) (*JobResult, error)
	Jobs() []string
}
