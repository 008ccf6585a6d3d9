package services

import (
	"context"
	"fmt"

	"github.com/prestaflow/prestaflow-api/internal/models"
	"github.com/prestaflow/prestaflow-api/internal/repository"
)

type BorrowerService struct {
	repo     repository.BorrowerRepository
	loanRepo repository.LoanRepository
	auditSvc *AuditService
}

func NewBorrowerService(repo repository.BorrowerRepository, loanRepo repository.LoanRepository, auditSvc *AuditService) *BorrowerService {
	return &BorrowerService{repo: repo, loanRepo: loanRepo, auditSvc: auditSvc}
}

func (s *BorrowerService) FindByID(ctx context.Context, financieraID, id uint) (*models.Borrower, error) {
	borrower, err := s.repo.FindByID(ctx, financieraID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return borrower, nil
}

func (s *BorrowerService) List(ctx context.Context, financieraID uint, query *repository.ListQuery) ([]models.Borrower, int64, error) {
	return s.repo.List(ctx, financieraID, query)
}

// CreateBorrowerInput carries borrower creation data
type CreateBorrowerInput struct {
	FinancieraID uint
	FullName     string  `json:"full_name"`
	Identity     string  `json:"identity"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email"`
	Address      *string `json:"address"`
	Note         *string `json:"note"`
}

func (s *BorrowerService) Create(ctx context.Context, input CreateBorrowerInput, actorID uint) (*models.Borrower, error) {
	if existing, err := s.repo.FindByIdentity(ctx, input.FinancieraID, input.Identity); err == nil && existing != nil {
		return nil, ErrDuplicate
	}

	borrower := &models.Borrower{
		FinancieraID: input.FinancieraID,
		FullName:     input.FullName,
		Identity:     input.Identity,
		Phone:        input.Phone,
		Email:        input.Email,
		Address:      input.Address,
		Note:         input.Note,
	}
	if err := s.repo.Create(ctx, borrower); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "CREATE", "Borrower", borrower.ID,
		fmt.Sprintf("Cliente %s registrado", borrower.FullName), "", "")

	return borrower, nil
}

// UpdateBorrowerInput carries borrower update data; nil fields stay unchanged
type UpdateBorrowerInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	Note     *string `json:"note"`
}

func (s *BorrowerService) Update(ctx context.Context, financieraID, id uint, input UpdateBorrowerInput, actorID uint) (*models.Borrower, error) {
	borrower, err := s.repo.FindByID(ctx, financieraID, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if input.FullName != nil {
		borrower.FullName = *input.FullName
	}
	if input.Phone != nil {
		borrower.Phone = *input.Phone
	}
	if input.Email != nil {
		borrower.Email = input.Email
	}
	if input.Address != nil {
		borrower.Address = input.Address
	}
	if input.Note != nil {
		borrower.Note = input.Note
	}

	if err := s.repo.Update(ctx, borrower); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "UPDATE", "Borrower", borrower.ID,
		fmt.Sprintf("Cliente %s actualizado", borrower.FullName), "", "")

	return borrower, nil
}

// Discard soft-deletes a borrower. Borrowers with collectible loans are kept.
func (s *BorrowerService) Discard(ctx context.Context, financieraID, id, actorID uint) error {
	borrower, err := s.repo.FindByID(ctx, financieraID, id)
	if err != nil {
		return ErrNotFound
	}

	loans, err := s.loanRepo.FindByBorrower(ctx, financieraID, borrower.ID)
	if err != nil {
		return err
	}
	for _, loan := range loans {
		if !loan.IsTerminal() {
			return ErrBorrowerHasLoans
		}
	}

	if err := s.repo.Discard(ctx, financieraID, id); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, "DELETE", "Borrower", id,
		fmt.Sprintf("Cliente %s descartado", borrower.FullName), "", "")
	return nil
}
