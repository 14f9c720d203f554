package application

import (
	"context"
	"strings"
	"time"

	"jidokhae/internal/domain"
	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/input"
	"jidokhae/internal/ports/output"
)

var _ input.RefundPolicyUseCase = (*RefundPolicyService)(nil)

type RefundPolicyService struct {
	policies output.RefundPolicyRepository
	now      func() time.Time
}

func NewRefundPolicyService(policies output.RefundPolicyRepository) *RefundPolicyService {
	return &RefundPolicyService{policies: policies, now: time.Now}
}

func (s *RefundPolicyService) List(ctx context.Context) ([]entities.RefundPolicy, error) {
	return s.policies.List(ctx)
}

func (s *RefundPolicyService) Create(ctx context.Context, in input.RefundPolicyInput) (*entities.RefundPolicy, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	if !in.MeetingType.Valid() {
		return nil, domain.Invalid("unknown meeting type %q", in.MeetingType)
	}
	if err := domain.ValidateRefundRules(in.Rules); err != nil {
		return nil, err
	}
	p := &entities.RefundPolicy{
		Name:        name,
		MeetingType: in.MeetingType,
		Rules:       in.Rules,
		IsDefault:   in.IsDefault,
		CreatedAt:   s.now(),
	}
	if err := s.policies.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
