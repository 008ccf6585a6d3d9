package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prestaflow/prestaflow-api/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	FindByID(ctx context.Context, financieraID, id uint) (*models.Payment, error)
	FindByReceiptNumber(ctx context.Context, financieraID uint, receipt string) (*models.Payment, error)
	FindByLoan(ctx context.Context, loanID uint) ([]models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	List(ctx context.Context, query *PaymentQuery) ([]models.Payment, int64, error)
	NextReceiptNumber(ctx context.Context, financieraID uint, year int) (string, error)
	GetDailySummary(ctx context.Context, financieraID uint, day time.Time) (*models.DailyCollectionSummary, error)
}

// PaymentQuery extends ListQuery with payment-specific filters
type PaymentQuery struct {
	*ListQuery
	FinancieraID uint
	LoanID       uint
	Status       string
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, financieraID, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("payments.financiera_id = ?", financieraID).
		Preload("Loan.Borrower").
		Preload("Installment").
		Preload("RegisteredBy").
		Preload("VoidedBy").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByReceiptNumber(ctx context.Context, financieraID uint, receipt string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("financiera_id = ? AND receipt_number = ?", financieraID, receipt).
		Preload("Loan.Borrower").
		Preload("Installment").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Preload("Installment").
		Preload("RegisteredBy").
		Order("paid_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) List(ctx context.Context, query *PaymentQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("payments.financiera_id = ?", query.FinancieraID)

	if query.LoanID > 0 {
		db = db.Where("payments.loan_id = ?", query.LoanID)
	}

	statusFilter := query.Status
	if statusFilter == "" && query.Filters != nil {
		statusFilter = query.Filters["status"]
	}
	if statusFilter != "" {
		if strings.Contains(statusFilter, ",") {
			db = db.Where("payments.status IN ?", strings.Split(statusFilter, ","))
		} else {
			db = db.Where("payments.status = ?", statusFilter)
		}
	}

	if query.Filters != nil {
		if val, ok := query.Filters["start_date"]; ok && val != "" {
			db = db.Where("payments.paid_at >= ?", val)
		}
		if val, ok := query.Filters["end_date"]; ok && val != "" {
			if len(val) == 10 { // YYYY-MM-DD
				val += " 23:59:59"
			}
			db = db.Where("payments.paid_at <= ?", val)
		}
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("JOIN loans ON loans.id = payments.loan_id").
			Joins("JOIN borrowers ON borrowers.id = loans.borrower_id").
			Where("payments.receipt_number ILIKE ? OR loans.number ILIKE ? OR borrowers.full_name ILIKE ?",
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
		db = db.Order("payments.paid_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Loan.Borrower").
		Preload("Installment").
		Preload("RegisteredBy").
		Find(&payments).Error
	return payments, total, err
}

// NextReceiptNumber allocates the next receipt number for the financiera, in
// the form REC-YYYY-NNNNN. The sequence restarts each year.
func (r *paymentRepository) NextReceiptNumber(ctx context.Context, financieraID uint, year int) (string, error) {
	prefix := fmt.Sprintf("REC-%d-", year)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("financiera_id = ? AND receipt_number LIKE ?", financieraID, prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// GetDailySummary aggregates confirmed and voided payments for one calendar
// day. Confirmed totals exclude voided payments entirely.
func (r *paymentRepository) GetDailySummary(ctx context.Context, financieraID uint, day time.Time) (*models.DailyCollectionSummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	summary := &models.DailyCollectionSummary{Date: start}

	type confirmedRow struct {
		Count          int64
		TotalCollected float64
		TotalLateFee   float64
		TotalInterest  float64
		TotalPrincipal float64
	}
	var confirmed confirmedRow
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COUNT(*) as count, "+
			"COALESCE(SUM(amount), 0) as total_collected, "+
			"COALESCE(SUM(late_fee_amount), 0) as total_late_fee, "+
			"COALESCE(SUM(interest_amount), 0) as total_interest, "+
			"COALESCE(SUM(principal_amount), 0) as total_principal").
		Where("financiera_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?",
			financieraID, models.PaymentStatusConfirmed, start, end).
		Scan(&confirmed).Error
	if err != nil {
		return nil, err
	}

	summary.PaymentCount = int(confirmed.Count)
	summary.TotalCollected = confirmed.TotalCollected
	summary.TotalLateFee = confirmed.TotalLateFee
	summary.TotalInterest = confirmed.TotalInterest
	summary.TotalPrincipal = confirmed.TotalPrincipal

	type voidedRow struct {
		Count  int64
		Amount float64
	}
	var voided voidedRow
	err = r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COUNT(*) as count, COALESCE(SUM(amount), 0) as amount").
		Where("financiera_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?",
			financieraID, models.PaymentStatusVoided, start, end).
		Scan(&voided).Error
	if err != nil {
		return nil, err
	}

	summary.VoidedCount = int(voided.Count)
	summary.VoidedAmount = voided.Amount

	return summary, nil
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	FindByUser(ctx context.Context, userID uint, query *ListQuery) ([]models.Notification, int64, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkAsRead(ctx context.Context, userID, id uint) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID uint, query *ListQuery) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID)

	if query.Filters != nil && query.Filters["unread"] == "true" {
		db = db.Where("read_at IS NULL")
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("created_at DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", time.Now()).Error
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now()).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if query.Filters != nil {
		if val, ok := query.Filters["entity"]; ok && val != "" {
			db = db.Where("entity = ?", val)
		}
		if val, ok := query.Filters["action"]; ok && val != "" {
			db = db.Where("action = ?", val)
		}
		if val, ok := query.Filters["user_id"]; ok && val != "" {
			db = db.Where("user_id = ?", val)
		}
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("created_at DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("User").Find(&entries).Error
	return entries, total, err
}
