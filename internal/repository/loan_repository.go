package repository

import (
	"context"
	"strings"
	"time"

	"github.com/prestaflow/prestaflow-api/internal/models"
	"gorm.io/gorm"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	FindByID(ctx context.Context, financieraID, id uint) (*models.Loan, error)
	FindByIDWithDetails(ctx context.Context, financieraID, id uint) (*models.Loan, error)
	FindByNumber(ctx context.Context, financieraID uint, number string) (*models.Loan, error)
	FindByBorrower(ctx context.Context, financieraID, borrowerID uint) ([]models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	Update(ctx context.Context, loan *models.Loan) error
	List(ctx context.Context, query *LoanQuery) ([]models.Loan, int64, error)
	FindCollectible(ctx context.Context, financieraID uint) ([]models.Loan, error)
	GetStats(ctx context.Context, financieraID uint) (*LoanStats, error)
}

// LoanQuery extends ListQuery with loan-specific filters
type LoanQuery struct {
	*ListQuery
	FinancieraID uint
	BorrowerID   uint
	Status       string
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) FindByID(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("financiera_id = ?", financieraID).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDWithDetails(ctx context.Context, financieraID, id uint) (*models.Loan, error) {
	var loan models.Loan
	// Borrower and Creator come in via Joins; Installments and Payments are
	// one-to-many so they stay as Preloads.
	err := r.db.WithContext(ctx).
		Where("loans.financiera_id = ?", financieraID).
		Joins("Borrower").
		Joins("Creator").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByNumber(ctx context.Context, financieraID uint, number string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("financiera_id = ? AND number = ?", financieraID, number).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByBorrower(ctx context.Context, financieraID, borrowerID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("financiera_id = ? AND borrower_id = ?", financieraID, borrowerID).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

func (r *loanRepository) List(ctx context.Context, query *LoanQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("loans.financiera_id = ?", query.FinancieraID)

	if query.BorrowerID > 0 {
		db = db.Where("loans.borrower_id = ?", query.BorrowerID)
	}

	// Status filter, single or multiple via status_in
	if query.Filters != nil {
		if val, ok := query.Filters["status_in"]; ok && val != "" {
			statuses := strings.Split(val, ",")
			for i, s := range statuses {
				statuses[i] = strings.TrimSpace(s)
			}
			db = db.Where("loans.status IN ?", statuses)
		}
	}
	if (query.Filters == nil || query.Filters["status_in"] == "") && query.Status != "" {
		db = db.Where("loans.status = ?", query.Status)
	}

	if query.Filters != nil {
		if val, ok := query.Filters["start_date"]; ok && val != "" {
			db = db.Where("loans.created_at >= ?", val)
		}
		if val, ok := query.Filters["end_date"]; ok && val != "" {
			if len(val) == 10 { // YYYY-MM-DD
				val += " 23:59:59"
			}
			db = db.Where("loans.created_at <= ?", val)
		}
	}

	// Search joins only for filtering; borrower loads via Preload below
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN borrowers ON borrowers.id = loans.borrower_id").
			Where("loans.number ILIKE ? OR borrowers.full_name ILIKE ? OR borrowers.identity ILIKE ?",
				search, search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("loans.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Borrower").
		Preload("Creator").
		Find(&loans).Error
	return loans, total, err
}

// FindCollectible returns active and delinquent loans. A zero financieraID
// spans every tenant, the shape the background jobs need.
func (r *loanRepository) FindCollectible(ctx context.Context, financieraID uint) ([]models.Loan, error) {
	var loans []models.Loan
	db := r.db.WithContext(ctx).
		Where("status IN ?", []string{models.LoanStatusActive, models.LoanStatusDelinquent})
	if financieraID > 0 {
		db = db.Where("financiera_id = ?", financieraID)
	}
	err := db.Find(&loans).Error
	return loans, err
}

// LoanStats holds the count of loans by status
type LoanStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Active     int64 `json:"active"`
	Delinquent int64 `json:"delinquent"`
	Completed  int64 `json:"completed"`
}

func (r *loanRepository) GetStats(ctx context.Context, financieraID uint) (*LoanStats, error) {
	type result struct {
		Status string
		Count  int64
	}
	var results []result
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("financiera_id = ?", financieraID).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	stats := &LoanStats{}
	for _, res := range results {
		stats.Total += res.Count
		switch res.Status {
		case models.LoanStatusPending:
			stats.Pending = res.Count
		case models.LoanStatusActive:
			stats.Active = res.Count
		case models.LoanStatusDelinquent:
			stats.Delinquent = res.Count
		case models.LoanStatusCompleted:
			stats.Completed = res.Count
		}
	}
	return stats, nil
}

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Installment, error)
	FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error)
	CreateBatch(ctx context.Context, installments []models.Installment) error
	Update(ctx context.Context, installment *models.Installment) error
	DeleteByLoan(ctx context.Context, loanID uint) error
	FindOverdue(ctx context.Context, financieraID uint, asOf time.Time) ([]models.Installment, error)
	FindDueSoon(ctx context.Context, financieraID uint, from, to time.Time) ([]models.Installment, error)
	CountByLoan(ctx context.Context, loanID uint) (int64, error)
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) FindByID(ctx context.Context, id uint) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.WithContext(ctx).
		Preload("Loan").
		First(&installment, id).Error
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

func (r *installmentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("sequence ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []models.Installment) error {
	return r.db.WithContext(ctx).Create(&installments).Error
}

func (r *installmentRepository) Update(ctx context.Context, installment *models.Installment) error {
	return r.db.WithContext(ctx).Save(installment).Error
}

func (r *installmentRepository) DeleteByLoan(ctx context.Context, loanID uint) error {
	return r.db.WithContext(ctx).Where("loan_id = ?", loanID).Delete(&models.Installment{}).Error
}

// FindOverdue returns unpaid installments past their due date on collectible
// loans, with the owning loan preloaded for policy access. A zero
// financieraID spans every tenant.
func (r *installmentRepository) FindOverdue(ctx context.Context, financieraID uint, asOf time.Time) ([]models.Installment, error) {
	var installments []models.Installment
	db := r.db.WithContext(ctx).
		Joins("JOIN loans ON loans.id = installments.loan_id").
		Where("loans.status IN ?",
			[]string{models.LoanStatusActive, models.LoanStatusDelinquent})
	if financieraID > 0 {
		db = db.Where("loans.financiera_id = ?", financieraID)
	}
	err := db.
		Where("installments.due_date < ? AND installments.status NOT IN ?", asOf,
			[]string{models.InstallmentStatusPaid, models.InstallmentStatusWaived}).
		Preload("Loan").
		Order("installments.due_date ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) FindDueSoon(ctx context.Context, financieraID uint, from, to time.Time) ([]models.Installment, error) {
	var installments []models.Installment
	db := r.db.WithContext(ctx).
		Joins("JOIN loans ON loans.id = installments.loan_id").
		Where("loans.status IN ?", []string{models.LoanStatusActive, models.LoanStatusDelinquent})
	if financieraID != 0 {
		db = db.Where("loans.financiera_id = ?", financieraID)
	}
	err := db.
		Where("installments.due_date >= ? AND installments.due_date <= ?", from, to).
		Where("installments.status IN ?",
			[]string{models.InstallmentStatusPending, models.InstallmentStatusPartiallyPaid}).
		Preload("Loan.Borrower").
		Order("installments.due_date ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) CountByLoan(ctx context.Context, loanID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("loan_id = ?", loanID).
		Count(&count).Error
	return count, err
}
