package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prestaflow/prestaflow-api/internal/middleware"
	"github.com/prestaflow/prestaflow-api/internal/repository"
	"github.com/prestaflow/prestaflow-api/internal/services"
	"github.com/prestaflow/prestaflow-api/internal/storage"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	exportService  *services.ExportService
	storage        *storage.LocalStorage
}

func NewPaymentHandler(paymentService *services.PaymentService, exportService *services.ExportService, storage *storage.LocalStorage) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, exportService: exportService, storage: storage}
}

// @Summary List Payments
// @Description Get a paginated list of payments for the current financiera
// @Tags Payments
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := &repository.PaymentQuery{
		ListQuery:    repository.NewListQuery(),
		FinancieraID: middleware.GetFinancieraID(c),
		Status:       c.Query("status"),
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Filters["method"] = c.Query("method")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	if loanID, err := strconv.ParseUint(c.Query("loan_id"), 10, 32); err == nil {
		query.LoanID = uint(loanID)
	}

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	payments, total, err := h.paymentService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, p := range payments {
		responses = append(responses, p.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Payment
// @Description Get a payment by ID
// @Tags Payments
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} models.PaymentResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	payment, err := h.paymentService.FindByID(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pago no encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

type RegisterPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required"`
	Method    string  `json:"method" binding:"required"`
	Reference *string `json:"reference"`
	Note      *string `json:"note"`
	PaidAt    *string `json:"paid_at"`
}

// @Summary Register Payment
// @Description Collect an amount against one installment; the waterfall splits it into mora, interest and principal
// @Tags Payments
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param installment_id path int true "Installment ID"
// @Param request body RegisterPaymentRequest true "Payment Data"
// @Success 201 {object} models.PaymentResponse
// @Security BearerAuth
// @Router /loans/{loan_id}/installments/{installment_id}/payments [post]
func (h *PaymentHandler) Register(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	installmentID, _ := strconv.ParseUint(c.Param("installment_id"), 10, 32)

	var req RegisterPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var paidAt *time.Time
	if req.PaidAt != nil && *req.PaidAt != "" {
		parsed, err := parseDate(*req.PaidAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha de pago inválida"})
			return
		}
		paidAt = &parsed
	}

	payment, err := h.paymentService.Register(c.Request.Context(), services.RegisterPaymentInput{
		FinancieraID:  middleware.GetFinancieraID(c),
		LoanID:        uint(loanID),
		InstallmentID: uint(installmentID),
		Amount:        req.Amount,
		Method:        req.Method,
		Reference:     req.Reference,
		Note:          req.Note,
		PaidAt:        paidAt,
		ActorID:       middleware.GetUserID(c),
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment.ToResponse(), "message": "Pago registrado"})
}

type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Void Payment
// @Description Reverse a confirmed payment and restore the balances it moved (Admin)
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param body body VoidPaymentRequest true "Void reason"
// @Success 200 {object} models.PaymentResponse
// @Security BearerAuth
// @Router /payments/{payment_id}/void [post]
func (h *PaymentHandler) Void(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	var req VoidPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La razón es requerida"})
		return
	}

	payment, err := h.paymentService.Void(c.Request.Context(),
		middleware.GetFinancieraID(c), uint(id), req.Reason, middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse(), "message": "Pago anulado"})
}

// @Summary Payment Receipt PDF
// @Description Download the receipt for a payment; voided receipts carry an ANULADO stamp
// @Tags Payments
// @Produce application/pdf
// @Param payment_id path int true "Payment ID"
// @Success 200 {file} file "receipt.pdf"
// @Security BearerAuth
// @Router /payments/{payment_id}/receipt.pdf [get]
func (h *PaymentHandler) ReceiptPDF(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	payment, err := h.paymentService.FindByID(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pago no encontrado"})
		return
	}

	data, filename, err := h.exportService.ReceiptPDF(c.Request.Context(), payment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary Daily Collection Summary
// @Description Get collection totals for one day, split by bucket
// @Tags Payments
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} models.DailyCollectionSummary
// @Security BearerAuth
// @Router /payments/daily_summary [get]
func (h *PaymentHandler) DailySummary(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha inválida"})
			return
		}
		day = parsed
	}

	summary, err := h.paymentService.GetDailySummary(c.Request.Context(), middleware.GetFinancieraID(c), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// @Summary Daily Collection Summary PDF
// @Description Download the daily collection summary as PDF
// @Tags Payments
// @Produce application/pdf
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {file} file "daily_summary.pdf"
// @Security BearerAuth
// @Router /payments/daily_summary.pdf [get]
func (h *PaymentHandler) DailySummaryPDF(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha inválida"})
			return
		}
		day = parsed
	}

	summary, err := h.paymentService.GetDailySummary(c.Request.Context(), middleware.GetFinancieraID(c), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	currency := c.DefaultQuery("currency", "HNL")
	data, filename, err := h.exportService.DailySummaryPDF(c.Request.Context(), summary, currency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary Upload Payment Voucher
// @Description Upload the transfer voucher image/pdf for a payment
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param voucher formData file true "Voucher File"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id}/voucher [post]
func (h *PaymentHandler) UploadVoucher(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	financieraID := middleware.GetFinancieraID(c)

	if _, err := h.paymentService.FindByID(c.Request.Context(), financieraID, uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pago no encontrado"})
		return
	}

	file, header, err := c.Request.FormFile("voucher")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Archivo requerido"})
		return
	}
	defer file.Close()

	if c.Request.ContentLength > 0 && c.Request.ContentLength > storage.MaxFileSize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Archivo demasiado grande"})
		return
	}

	if !storage.IsValidContentType(header.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo de archivo inválido"})
		return
	}

	path, err := h.storage.Upload(file, header, "vouchers")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al guardar archivo"})
		return
	}

	if err := h.paymentService.UpdateVoucherPath(c.Request.Context(), financieraID, uint(id), path); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comprobante subido exitosamente"})
}

// @Summary Download Payment Voucher
// @Description Download the transfer voucher of a payment
// @Tags Payments
// @Produce application/octet-stream
// @Param payment_id path int true "Payment ID"
// @Success 200 {file} file "voucher"
// @Security BearerAuth
// @Router /payments/{payment_id}/voucher [get]
func (h *PaymentHandler) DownloadVoucher(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	payment, err := h.paymentService.FindByID(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil || payment.VoucherPath == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comprobante no encontrado"})
		return
	}

	fullPath, err := h.storage.SafeFullPath(*payment.VoucherPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comprobante no encontrado"})
		return
	}

	c.File(fullPath)
}
