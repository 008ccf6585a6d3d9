package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prestaflow/prestaflow-api/internal/middleware"
	"github.com/prestaflow/prestaflow-api/internal/repository"
	"github.com/prestaflow/prestaflow-api/internal/services"
)

type LoanHandler struct {
	loanService   *services.LoanService
	exportService *services.ExportService
}

func NewLoanHandler(loanService *services.LoanService, exportService *services.ExportService) *LoanHandler {
	return &LoanHandler{loanService: loanService, exportService: exportService}
}

// statusForError maps service errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrExcessAmount),
		errors.Is(err, services.ErrAlreadySettled),
		errors.Is(err, services.ErrAlreadyVoided),
		errors.Is(err, services.ErrAlreadyScheduled),
		errors.Is(err, services.ErrNotCollectible),
		errors.Is(err, services.ErrBorrowerHasLoans),
		errors.Is(err, services.ErrDuplicate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseDate accepts plain dates and RFC3339 timestamps
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// @Summary List Loans
// @Description Get a paginated list of loans for the current financiera
// @Tags Loans
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param borrower_id query int false "Filter by borrower"
// @Param search_term query string false "Search term"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	query := &repository.LoanQuery{
		ListQuery:    repository.NewListQuery(),
		FinancieraID: middleware.GetFinancieraID(c),
		Status:       c.Query("status"),
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Filters["status_in"] = c.Query("status_in")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	if borrowerID, err := strconv.ParseUint(c.Query("borrower_id"), 10, 32); err == nil {
		query.BorrowerID = uint(borrowerID)
	}

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, l := range loans {
		responses = append(responses, l.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Loan Stats
// @Description Get loan counts by status for the current financiera
// @Tags Loans
// @Produce json
// @Success 200 {object} repository.LoanStats
// @Security BearerAuth
// @Router /loans/stats [get]
func (h *LoanHandler) Stats(c *gin.Context) {
	stats, err := h.loanService.GetStats(c.Request.Context(), middleware.GetFinancieraID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Get Loan
// @Description Get a loan with its installments and payments
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.FindByIDWithDetails(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Préstamo no encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

type SimulateLoanRequest struct {
	Principal    float64 `json:"principal" binding:"required"`
	NominalRate  float64 `json:"nominal_rate"`
	RatePeriod   string  `json:"rate_period" binding:"required"`
	Term         int     `json:"term" binding:"required"`
	Frequency    string  `json:"frequency" binding:"required"`
	Method       string  `json:"method" binding:"required"`
	FirstDueDate string  `json:"first_due_date" binding:"required"`
}

// @Summary Simulate Loan
// @Description Generate an amortization schedule without creating a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body SimulateLoanRequest true "Loan Terms"
// @Success 200 {object} finance.Schedule
// @Security BearerAuth
// @Router /loans/simulate [post]
func (h *LoanHandler) Simulate(c *gin.Context) {
	var req SimulateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	firstDueDate, err := parseDate(req.FirstDueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha de primera cuota inválida"})
		return
	}

	schedule, err := h.loanService.Simulate(c.Request.Context(), services.SimulateLoanInput{
		Principal:    req.Principal,
		NominalRate:  req.NominalRate,
		RatePeriod:   req.RatePeriod,
		Term:         req.Term,
		Frequency:    req.Frequency,
		Method:       req.Method,
		FirstDueDate: firstDueDate,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

type CreateLoanRequest struct {
	BorrowerID   uint    `json:"borrower_id" binding:"required"`
	Principal    float64 `json:"principal" binding:"required"`
	NominalRate  float64 `json:"nominal_rate"`
	RatePeriod   string  `json:"rate_period" binding:"required"`
	Term         int     `json:"term" binding:"required"`
	Frequency    string  `json:"frequency" binding:"required"`
	Method       string  `json:"method" binding:"required"`
	FirstDueDate string  `json:"first_due_date" binding:"required"`
	Note         *string `json:"note"`

	LateFeePct      *float64 `json:"late_fee_pct"`
	LateFeeGrace    *int     `json:"late_fee_grace"`
	PayoffPctPerDay *float64 `json:"payoff_pct_per_day"`
}

// @Summary Create Loan
// @Description Originate a loan with its amortization schedule
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body CreateLoanRequest true "Loan Data"
// @Success 201 {object} models.LoanResponse
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req CreateLoanRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	firstDueDate, err := parseDate(req.FirstDueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha de primera cuota inválida"})
		return
	}

	loan, err := h.loanService.Create(c.Request.Context(), services.CreateLoanInput{
		FinancieraID:    middleware.GetFinancieraID(c),
		BorrowerID:      req.BorrowerID,
		Principal:       req.Principal,
		NominalRate:     req.NominalRate,
		RatePeriod:      req.RatePeriod,
		Term:            req.Term,
		Frequency:       req.Frequency,
		Method:          req.Method,
		FirstDueDate:    firstDueDate,
		Note:            req.Note,
		LateFeePct:      req.LateFeePct,
		LateFeeGrace:    req.LateFeeGrace,
		PayoffPctPerDay: req.PayoffPctPerDay,
	}, middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse()})
}

// @Summary Generate Schedule
// @Description Generate the installment plan for a loan that has none yet
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans/{loan_id}/schedule [post]
func (h *LoanHandler) GenerateSchedule(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	installments, err := h.loanService.GenerateSchedule(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, inst := range installments {
		responses = append(responses, inst.ToResponse())
	}
	c.JSON(http.StatusCreated, gin.H{"installments": responses})
}

// @Summary List Installments
// @Description Get the installment plan of a loan
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans/{loan_id}/installments [get]
func (h *LoanHandler) Installments(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.FindByIDWithDetails(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Préstamo no encontrado"})
		return
	}

	var responses []interface{}
	for _, inst := range loan.Installments {
		responses = append(responses, inst.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"installments": responses})
}

// @Summary List Overdue Installments
// @Description Get every overdue installment with its mora projected to today
// @Tags Loans
// @Produce json
// @Param as_of query string false "Projection date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments/overdue [get]
func (h *LoanHandler) OverdueInstallments(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha inválida"})
			return
		}
		asOf = parsed
	}

	installments, err := h.loanService.ListOverdueInstallments(c.Request.Context(), middleware.GetFinancieraID(c), asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, inst := range installments {
		responses = append(responses, inst.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"installments": responses, "as_of": asOf.Format("2006-01-02")})
}

// @Summary Refresh Installment Mora
// @Description Recompute and persist the late fee of one installment as of today
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param installment_id path int true "Installment ID"
// @Success 200 {object} models.InstallmentResponse
// @Security BearerAuth
// @Router /loans/{loan_id}/installments/{installment_id}/refresh_mora [post]
func (h *LoanHandler) RefreshInstallmentMora(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	installmentID, _ := strconv.ParseUint(c.Param("installment_id"), 10, 32)

	installment, err := h.loanService.RefreshInstallmentMora(c.Request.Context(),
		middleware.GetFinancieraID(c), uint(loanID), uint(installmentID), time.Now())
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"installment": installment.ToResponse()})
}

// @Summary Approve Loan
// @Description Approve a pending loan
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Security BearerAuth
// @Router /loans/{loan_id}/approve [post]
func (h *LoanHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.Approve(c.Request.Context(), middleware.GetFinancieraID(c), uint(id), middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse(), "message": "Préstamo aprobado"})
}

// @Summary Activate Loan
// @Description Disburse an approved loan and start collection
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Security BearerAuth
// @Router /loans/{loan_id}/activate [post]
func (h *LoanHandler) Activate(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.Activate(c.Request.Context(), middleware.GetFinancieraID(c), uint(id), middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse(), "message": "Préstamo activado"})
}

type CancelLoanRequest struct {
	Reason *string `json:"reason"`
}

// @Summary Cancel Loan
// @Description Cancel a loan that was never disbursed
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param body body CancelLoanRequest false "Cancellation reason (optional)"
// @Success 200 {object} models.LoanResponse
// @Security BearerAuth
// @Router /loans/{loan_id}/cancel [post]
func (h *LoanHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	var req CancelLoanRequest
	c.ShouldBindJSON(&req)

	loan, err := h.loanService.Cancel(c.Request.Context(), middleware.GetFinancieraID(c), uint(id), req.Reason, middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse(), "message": "Préstamo cancelado"})
}

// @Summary Early Payoff Quote
// @Description Project the discounted settlement for paying the loan off now
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param as_of query string false "Quote date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} finance.Payoff
// @Security BearerAuth
// @Router /loans/{loan_id}/payoff [get]
func (h *LoanHandler) Payoff(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha inválida"})
			return
		}
		asOf = parsed
	}

	payoff, err := h.loanService.EarlyPayoff(c.Request.Context(), middleware.GetFinancieraID(c), uint(id), asOf)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payoff": payoff})
}

type WaiveInstallmentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Waive Installment
// @Description Forgive whatever remains outstanding on one installment (Admin)
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param installment_id path int true "Installment ID"
// @Param body body WaiveInstallmentRequest true "Waive reason"
// @Success 200 {object} models.InstallmentResponse
// @Security BearerAuth
// @Router /loans/{loan_id}/installments/{installment_id}/waive [post]
func (h *LoanHandler) WaiveInstallment(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	installmentID, _ := strconv.ParseUint(c.Param("installment_id"), 10, 32)

	var req WaiveInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La razón es requerida"})
		return
	}

	installment, err := h.loanService.WaiveInstallment(c.Request.Context(),
		middleware.GetFinancieraID(c), uint(loanID), uint(installmentID),
		req.Reason, middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"installment": installment.ToResponse(), "message": "Cuota condonada"})
}

// @Summary Export Schedule CSV
// @Description Download the installment plan as CSV
// @Tags Loans
// @Produce text/csv
// @Param loan_id path int true "Loan ID"
// @Success 200 {file} file "schedule.csv"
// @Security BearerAuth
// @Router /loans/{loan_id}/schedule.csv [get]
func (h *LoanHandler) ScheduleCSV(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.FindByIDWithDetails(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Préstamo no encontrado"})
		return
	}

	data, filename, err := h.exportService.ScheduleCSV(c.Request.Context(), loan)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary Export Schedule XLSX
// @Description Download the installment plan as an Excel workbook
// @Tags Loans
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param loan_id path int true "Loan ID"
// @Success 200 {file} file "schedule.xlsx"
// @Security BearerAuth
// @Router /loans/{loan_id}/schedule.xlsx [get]
func (h *LoanHandler) ScheduleXLSX(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.FindByIDWithDetails(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Préstamo no encontrado"})
		return
	}

	data, filename, err := h.exportService.ScheduleXLSX(c.Request.Context(), loan)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
