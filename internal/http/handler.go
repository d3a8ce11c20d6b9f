package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/cleaning-contracts/internal/http/middleware"
	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

type Handler struct {
	services *service.Services
	log      zerolog.Logger
}

func NewHandler(services *service.Services, log zerolog.Logger) *Handler {
	return &Handler{services: services, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	public := router.Group("/public")
	public.GET("/contracts/:id", h.getPublicContract)
	public.POST("/contracts/:id/sign", h.signAsClient)
	public.POST("/contracts/:id/revision", h.requestRevision)
	public.POST("/contracts/:id/bookings", h.book)
	public.POST("/contracts/:id/schedules/:scheduleId/respond", h.respondToSchedule)
	public.GET("/proposals/:id", h.getProposal)
	public.POST("/proposals/:id/accept", h.acceptProposal)
	public.POST("/proposals/:id/counter", h.counterProposal)
	public.POST("/clients/:id/quote", h.submitQuote)

	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/pricing", h.getPricing)
	protected.PUT("/pricing", h.savePricing)
	protected.POST("/quotes/preview", h.previewQuote)

	protected.POST("/clients", h.createClient)
	protected.GET("/clients", h.listClients)
	protected.GET("/clients/:id", h.getClient)
	protected.POST("/clients/:id/quote/review", h.reviewQuote)
	protected.POST("/clients/:id/contract", h.createContractFromQuote)

	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/:id", h.getContract)
	protected.PATCH("/contracts/:id", h.updateContract)
	protected.DELETE("/contracts/:id", h.deleteContract)
	protected.POST("/contracts/:id/sign", h.signAsProvider)
	protected.PATCH("/contracts/:id/status", h.updateContractStatus)
	protected.POST("/contracts/:id/cancel", h.cancelContract)
	protected.GET("/contracts/:id/pdf", h.contractPDF)
	protected.POST("/contracts/:id/invoice/resend", h.resendInvoice)
	protected.POST("/contracts/:id/billing/retry", h.retryBilling)
	protected.GET("/contracts/:id/failures", h.listFailures)
	protected.POST("/contracts/:id/proposals", h.propose)
	protected.GET("/contracts/:id/proposals", h.listProposals)
	protected.POST("/contracts/:id/visits/generate", h.generateVisits)

	protected.GET("/schedules", h.listSchedules)
	protected.POST("/schedules/:id/accept", h.acceptSchedule)
	protected.POST("/schedules/:id/request-change", h.requestChange)
	protected.POST("/schedules/:id/cancel", h.cancelSchedule)

	protected.GET("/visits", h.listVisits)
	protected.GET("/visits/export", h.exportVisits)
	protected.GET("/visits/:id", h.getVisit)
	protected.POST("/visits/:id/start", h.startVisit)
	protected.POST("/visits/:id/photos", h.addVisitPhotos)
	protected.POST("/visits/:id/complete", h.completeVisit)
	protected.POST("/visits/:id/mark-paid", h.markVisitPaid)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPrecondition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func principal(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
	}
	return p, ok
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// dateQuery reads an optional date filter. ok is false once a response has
// been written.
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	parsed, err := parseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &parsed, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

// contractQuery resolves an optional contract_id query parameter to the
// internal id, enforcing ownership.
func (h *Handler) contractQuery(c *gin.Context, p model.Principal) (*uint64, bool) {
	raw := strings.TrimSpace(c.Query("contract_id"))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
		return nil, false
	}
	details, err := h.services.Contracts.Get(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return &details.Contract.ID, true
}

func sendFile(c *gin.Context, contentType, fileName string, content []byte) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, contentType, content)
}
