package repository

import (
	"context"
	"time"

	"github.com/prestaflow/prestaflow-api/internal/models"
	"gorm.io/gorm"
)

// BorrowerRepository defines the interface for borrower data access
type BorrowerRepository interface {
	FindByID(ctx context.Context, financieraID, id uint) (*models.Borrower, error)
	FindByIdentity(ctx context.Context, financieraID uint, identity string) (*models.Borrower, error)
	Create(ctx context.Context, borrower *models.Borrower) error
	Update(ctx context.Context, borrower *models.Borrower) error
	Discard(ctx context.Context, financieraID, id uint) error
	List(ctx context.Context, financieraID uint, query *ListQuery) ([]models.Borrower, int64, error)
}

type borrowerRepository struct {
	db *gorm.DB
}

// NewBorrowerRepository creates a new borrower repository
func NewBorrowerRepository(db *gorm.DB) BorrowerRepository {
	return &borrowerRepository{db: db}
}

func (r *borrowerRepository) FindByID(ctx context.Context, financieraID, id uint) (*models.Borrower, error) {
	var borrower models.Borrower
	err := r.db.WithContext(ctx).
		Where("financiera_id = ? AND discarded_at IS NULL", financieraID).
		Preload("Loans").
		First(&borrower, id).Error
	if err != nil {
		return nil, err
	}
	return &borrower, nil
}

func (r *borrowerRepository) FindByIdentity(ctx context.Context, financieraID uint, identity string) (*models.Borrower, error) {
	var borrower models.Borrower
	err := r.db.WithContext(ctx).
		Where("financiera_id = ? AND identity = ? AND discarded_at IS NULL", financieraID, identity).
		First(&borrower).Error
	if err != nil {
		return nil, err
	}
	return &borrower, nil
}

func (r *borrowerRepository) Create(ctx context.Context, borrower *models.Borrower) error {
	return r.db.WithContext(ctx).Create(borrower).Error
}

func (r *borrowerRepository) Update(ctx context.Context, borrower *models.Borrower) error {
	return r.db.WithContext(ctx).Save(borrower).Error
}

func (r *borrowerRepository) Discard(ctx context.Context, financieraID, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Borrower{}).
		Where("financiera_id = ? AND id = ?", financieraID, id).
		Update("discarded_at", time.Now()).Error
}

func (r *borrowerRepository) List(ctx context.Context, financieraID uint, query *ListQuery) ([]models.Borrower, int64, error) {
	var borrowers []models.Borrower
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Borrower{}).
		Where("financiera_id = ? AND discarded_at IS NULL", financieraID)

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("full_name ILIKE ? OR identity ILIKE ? OR phone ILIKE ?", search, search, search)
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
		db = db.Order("full_name ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&borrowers).Error
	return borrowers, total, err
}
