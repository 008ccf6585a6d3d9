package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prestaflow/prestaflow-api/internal/middleware"
	"github.com/prestaflow/prestaflow-api/internal/repository"
	"github.com/prestaflow/prestaflow-api/internal/services"
)

type BorrowerHandler struct {
	borrowerService *services.BorrowerService
}

func NewBorrowerHandler(borrowerService *services.BorrowerService) *BorrowerHandler {
	return &BorrowerHandler{borrowerService: borrowerService}
}

// @Summary List Borrowers
// @Description Get a paginated list of borrowers for the current financiera
// @Tags Borrowers
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /borrowers [get]
func (h *BorrowerHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")

	borrowers, total, err := h.borrowerService.List(c.Request.Context(), middleware.GetFinancieraID(c), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, b := range borrowers {
		responses = append(responses, b.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"borrowers": responses, "pagination": gin.H{
		"page":     query.Page,
		"per_page": query.PerPage,
		"total":    total,
	}})
}

// @Summary Get Borrower
// @Description Get a borrower by ID
// @Tags Borrowers
// @Produce json
// @Param borrower_id path int true "Borrower ID"
// @Success 200 {object} models.BorrowerResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /borrowers/{borrower_id} [get]
func (h *BorrowerHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("borrower_id"), 10, 32)
	borrower, err := h.borrowerService.FindByID(c.Request.Context(), middleware.GetFinancieraID(c), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cliente no encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"borrower": borrower.ToResponse()})
}

// @Summary Create Borrower
// @Description Register a new borrower
// @Tags Borrowers
// @Accept json
// @Produce json
// @Param request body services.CreateBorrowerInput true "Borrower Data"
// @Success 201 {object} models.BorrowerResponse
// @Security BearerAuth
// @Router /borrowers [post]
func (h *BorrowerHandler) Create(c *gin.Context) {
	var input services.CreateBorrowerInput
	if err := BindNestedOrFlat(c, "borrower", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.FinancieraID = middleware.GetFinancieraID(c)

	borrower, err := h.borrowerService.Create(c.Request.Context(), input, middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"borrower": borrower.ToResponse()})
}

// @Summary Update Borrower
// @Description Update an existing borrower
// @Tags Borrowers
// @Accept json
// @Produce json
// @Param borrower_id path int true "Borrower ID"
// @Param request body services.UpdateBorrowerInput true "Borrower Data"
// @Success 200 {object} models.BorrowerResponse
// @Security BearerAuth
// @Router /borrowers/{borrower_id} [put]
func (h *BorrowerHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("borrower_id"), 10, 32)
	var input services.UpdateBorrowerInput
	if err := BindNestedOrFlat(c, "borrower", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	borrower, err := h.borrowerService.Update(c.Request.Context(), middleware.GetFinancieraID(c), uint(id), input, middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"borrower": borrower.ToResponse()})
}

// @Summary Delete Borrower
// @Description Soft delete a borrower without open loans
// @Tags Borrowers
// @Produce json
// @Param borrower_id path int true "Borrower ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /borrowers/{borrower_id} [delete]
func (h *BorrowerHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("borrower_id"), 10, 32)
	if err := h.borrowerService.Discard(c.Request.Context(), middleware.GetFinancieraID(c), uint(id), middleware.GetUserID(c)); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cliente eliminado"})
}

type FinancieraHandler struct {
	financieraService *services.FinancieraService
}

func NewFinancieraHandler(financieraService *services.FinancieraService) *FinancieraHandler {
	return &FinancieraHandler{financieraService: financieraService}
}

// @Summary Get Financiera
// @Description Get the current financiera with its default policies
// @Tags Financieras
// @Produce json
// @Success 200 {object} models.FinancieraResponse
// @Security BearerAuth
// @Router /financiera [get]
func (h *FinancieraHandler) Show(c *gin.Context) {
	financiera, err := h.financieraService.FindByID(c.Request.Context(), middleware.GetFinancieraID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Financiera no encontrada"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"financiera": financiera.ToResponse()})
}

// @Summary Update Policies
// @Description Update the financiera's default late fee and payoff policies (Admin). Running loans keep the policy frozen at origination.
// @Tags Financieras
// @Accept json
// @Produce json
// @Param request body services.UpdatePoliciesInput true "Policy Data"
// @Success 200 {object} models.FinancieraResponse
// @Security BearerAuth
// @Router /financiera/policies [put]
func (h *FinancieraHandler) UpdatePolicies(c *gin.Context) {
	var input services.UpdatePoliciesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	financiera, err := h.financieraService.UpdatePolicies(c.Request.Context(), middleware.GetFinancieraID(c), input, middleware.GetUserID(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"financiera": financiera.ToResponse(), "message": "Políticas actualizadas"})
}

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary List Notifications
// @Description Get a paginated list of notifications for the current user
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	userID := middleware.GetUserID(c)
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["unread"] = c.Query("unread")

	notifications, total, err := h.notificationService.FindByUser(c.Request.Context(), userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, n := range notifications {
		responses = append(responses, n.ToResponse())
	}

	unread, _ := h.notificationService.CountUnread(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{
		"notifications": responses,
		"unread_count":  unread,
		"pagination":    gin.H{"total": total},
	})
}

// @Summary Mark Notification Read
// @Description Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param notification_id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/{notification_id} [put]
func (h *NotificationHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("notification_id"), 10, 32)
	if err := h.notificationService.MarkAsRead(c.Request.Context(), middleware.GetUserID(c), uint(id)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notificación marcada como leída"})
}

// @Summary Mark All Notifications Read
// @Description Mark all notifications as read for current user
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/mark_all_as_read [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todas las notificaciones marcadas como leídas"})
}

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description Get a paginated list of system audit logs
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(50)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	offset := (page - 1) * perPage

	logs, total, err := h.auditService.List(c.Request.Context(), perPage, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"audits": logs, "pagination": gin.H{"total": total, "page": page, "per_page": perPage}})
}
