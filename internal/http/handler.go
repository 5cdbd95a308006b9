package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/payments-service/internal/http/middleware"
	"github.com/nurpe/payments-service/internal/model"
	"github.com/nurpe/payments-service/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	contracts   *service.ContractService
	payments    *service.PaymentService
	reports     *service.ReportService
	clientLimit int
	log         zerolog.Logger
}

func NewHandler(
	contracts *service.ContractService,
	payments *service.PaymentService,
	reports *service.ReportService,
	clientLimit int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		contracts:   contracts,
		payments:    payments,
		reports:     reports,
		clientLimit: clientLimit,
		log:         log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", h.health)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/jobs/unpaid", h.listUnpaidJobs)
	protected.POST("/jobs/:job_id/pay", h.payJob)
	protected.GET("/jobs/:job_id/receipt", h.jobReceipt)
	protected.POST("/balances/deposit/:userId", h.deposit)

	admin := router.Group("/admin")
	admin.GET("/best-profession", h.bestProfession)
	admin.GET("/best-client", h.bestClient)
	admin.GET("/best-profession/export", h.exportBestProfession)
	admin.GET("/best-client/export", h.exportBestClient)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	contract, err := h.contracts.GetContract(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var status *model.ContractStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		value := model.ContractStatus(strings.ToLower(raw))
		status = &value
	}

	contracts, err := h.contracts.ListContracts(c.Request.Context(), principal, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) listUnpaidJobs(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	jobs, err := h.contracts.ListUnpaidJobs(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) payJob(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	jobID, err := parseID(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	if err := h.payments.PayJob(c.Request.Context(), jobID, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job successfully paid"})
}

func (h *Handler) jobReceipt(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	jobID, err := parseID(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	result, err := h.payments.Receipt(c.Request.Context(), jobID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type depositRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

func (h *Handler) deposit(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	userID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.payments.Deposit(c.Request.Context(), userID, req.Amount, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deposit executed successfully!"})
}

func (h *Handler) bestProfession(c *gin.Context) {
	h.ranking(c, model.ReportRoleContractor, model.ReportAttributeProfession, 0)
}

func (h *Handler) bestClient(c *gin.Context) {
	h.ranking(c, model.ReportRoleClient, model.ReportAttributeID, h.clientLimit)
}

func (h *Handler) exportBestProfession(c *gin.Context) {
	h.exportRanking(c, model.ReportRoleContractor, model.ReportAttributeProfession, 0)
}

func (h *Handler) exportBestClient(c *gin.Context) {
	h.exportRanking(c, model.ReportRoleClient, model.ReportAttributeID, h.clientLimit)
}

func (h *Handler) ranking(c *gin.Context, role model.ReportRole, defaultAttribute model.ReportAttribute, defaultLimit int) {
	input, ok := h.rankingInput(c, role, defaultAttribute, defaultLimit)
	if !ok {
		return
	}

	report, err := h.reports.BestByAttribute(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	body := make([]gin.H, 0, len(report.Rows))
	for _, row := range report.Rows {
		body = append(body, gin.H{
			string(report.Attribute): row.Key,
			"amountPaid":             row.AmountPaid,
		})
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) exportRanking(c *gin.Context, role model.ReportRole, defaultAttribute model.ReportAttribute, defaultLimit int) {
	input, ok := h.rankingInput(c, role, defaultAttribute, defaultLimit)
	if !ok {
		return
	}

	result, err := h.reports.Export(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

// rankingInput reads start, end, limit and groupBy from the query string.
// It writes the 400 response itself when they are malformed. A bare date as
// end covers that whole day; an instant is used as is.
func (h *Handler) rankingInput(
	c *gin.Context,
	role model.ReportRole,
	defaultAttribute model.ReportAttribute,
	defaultLimit int,
) (service.BestByAttributeInput, bool) {
	start, _, err := parseDate(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return service.BestByAttributeInput{}, false
	}
	end, endIsDate, err := parseDate(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return service.BestByAttributeInput{}, false
	}

	limit := defaultLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return service.BestByAttributeInput{}, false
		}
		limit = parsed
	}

	attribute := defaultAttribute
	if raw := strings.TrimSpace(c.Query("groupBy")); raw != "" {
		attribute = model.ReportAttribute(raw)
	}

	return service.BestByAttributeInput{
		Role:        role,
		Attribute:   attribute,
		PeriodStart: start,
		PeriodEnd:   end,
		Limit:       limit,
		WholeEndDay: endIsDate,
	}, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, service.ErrDepositCapExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The client cannot deposit more than 25% of his total of jobs to pay"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidInput
	}
	return id, nil
}

// parseDate accepts a bare date or an instant. The second result reports a
// bare date.
func parseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, service.ErrInvalidInput
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, true, nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, false, nil
		}
	}
	return time.Time{}, false, service.ErrInvalidInput
}
