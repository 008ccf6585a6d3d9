package services

import (
	"context"
	"fmt"

	"github.com/prestaflow/prestaflow-api/internal/models"
	"github.com/prestaflow/prestaflow-api/internal/repository"
)

type FinancieraService struct {
	repo     repository.FinancieraRepository
	auditSvc *AuditService
}

func NewFinancieraService(repo repository.FinancieraRepository, auditSvc *AuditService) *FinancieraService {
	return &FinancieraService{repo: repo, auditSvc: auditSvc}
}

func (s *FinancieraService) FindByID(ctx context.Context, id uint) (*models.Financiera, error) {
	financiera, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return financiera, nil
}

func (s *FinancieraService) List(ctx context.Context, query *repository.ListQuery) ([]models.Financiera, int64, error) {
	return s.repo.List(ctx, query)
}

// UpdatePoliciesInput carries the default policy changes for a financiera.
// Changes only affect loans originated afterwards.
type UpdatePoliciesInput struct {
	DefaultLateFeeEnabled *bool    `json:"default_late_fee_enabled"`
	DefaultLateFeePct     *float64 `json:"default_late_fee_pct"`
	DefaultGraceDays      *int     `json:"default_grace_days"`
	DefaultPayoffEnabled  *bool    `json:"default_payoff_enabled"`
	DefaultPayoffPct      *float64 `json:"default_payoff_pct"`
}

func (s *FinancieraService) UpdatePolicies(ctx context.Context, id uint, input UpdatePoliciesInput, actorID uint) (*models.Financiera, error) {
	financiera, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if input.DefaultLateFeeEnabled != nil {
		financiera.DefaultLateFeeEnabled = *input.DefaultLateFeeEnabled
	}
	if input.DefaultLateFeePct != nil {
		financiera.DefaultLateFeePct = *input.DefaultLateFeePct
	}
	if input.DefaultGraceDays != nil {
		financiera.DefaultGraceDays = *input.DefaultGraceDays
	}
	if input.DefaultPayoffEnabled != nil {
		financiera.DefaultPayoffEnabled = *input.DefaultPayoffEnabled
	}
	if input.DefaultPayoffPct != nil {
		financiera.DefaultPayoffPct = *input.DefaultPayoffPct
	}

	if err := s.repo.Update(ctx, financiera); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "UPDATE", "Financiera", financiera.ID,
		fmt.Sprintf("Políticas de %s actualizadas", financiera.Name), "", "")

	return financiera, nil
}
