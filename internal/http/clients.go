package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

func (h *Handler) getPricing(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	cfg, err := h.services.Pricing.GetConfig(c.Request.Context(), p)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) savePricing(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req model.PricingConfig
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.services.Pricing.SaveConfig(c.Request.Context(), p, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) previewQuote(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var job model.JobInput
	if !bindJSON(c, &job) {
		return
	}
	result, err := h.services.Pricing.Preview(c.Request.Context(), p, job)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) createClient(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.CreateClientInput
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.services.Clients.Create(c.Request.Context(), p, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *Handler) listClients(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var status *model.ClientStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := model.ClientStatus(strings.ToLower(raw))
		status = &s
	}
	clients, err := h.services.Clients.List(c.Request.Context(), p, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}

func (h *Handler) getClient(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	client, err := h.services.Clients.Get(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) submitQuote(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.SubmitQuoteInput
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.services.Clients.SubmitQuote(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) reviewQuote(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.ReviewQuoteInput
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.services.Clients.ReviewQuote(c.Request.Context(), p, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) createContractFromQuote(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	contract, err := h.services.Contracts.CreateFromQuote(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}
