package repository

import (
	"context"

	"github.com/prestaflow/prestaflow-api/internal/models"
	"gorm.io/gorm"
)

// FinancieraRepository defines the interface for financiera data access
type FinancieraRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Financiera, error)
	FindByRTN(ctx context.Context, rtn string) (*models.Financiera, error)
	Create(ctx context.Context, financiera *models.Financiera) error
	Update(ctx context.Context, financiera *models.Financiera) error
	List(ctx context.Context, query *ListQuery) ([]models.Financiera, int64, error)
}

type financieraRepository struct {
	db *gorm.DB
}

// NewFinancieraRepository creates a new financiera repository
func NewFinancieraRepository(db *gorm.DB) FinancieraRepository {
	return &financieraRepository{db: db}
}

func (r *financieraRepository) FindByID(ctx context.Context, id uint) (*models.Financiera, error) {
	var financiera models.Financiera
	err := r.db.WithContext(ctx).First(&financiera, id).Error
	if err != nil {
		return nil, err
	}
	return &financiera, nil
}

func (r *financieraRepository) FindByRTN(ctx context.Context, rtn string) (*models.Financiera, error) {
	var financiera models.Financiera
	err := r.db.WithContext(ctx).Where("rtn = ?", rtn).First(&financiera).Error
	if err != nil {
		return nil, err
	}
	return &financiera, nil
}

func (r *financieraRepository) Create(ctx context.Context, financiera *models.Financiera) error {
	return r.db.WithContext(ctx).Create(financiera).Error
}

func (r *financieraRepository) Update(ctx context.Context, financiera *models.Financiera) error {
	return r.db.WithContext(ctx).Save(financiera).Error
}

func (r *financieraRepository) List(ctx context.Context, query *ListQuery) ([]models.Financiera, int64, error) {
	var financieras []models.Financiera
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Financiera{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("name ILIKE ? OR rtn ILIKE ? OR email ILIKE ?", search, search, search)
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
		db = db.Order("created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&financieras).Error
	return financieras, total, err
}
