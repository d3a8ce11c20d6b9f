package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/repository"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

func (h *Handler) createContract(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req service.CreateContractInput
	if !bindJSON(c, &req) {
		return
	}
	contract, err := h.services.Contracts.Create(c.Request.Context(), p, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (h *Handler) listContracts(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var filter repository.ContractFilter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := model.ParseContractStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("client_id")); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
			return
		}
		client, err := h.services.Clients.Get(c.Request.Context(), p, clientID)
		if err != nil {
			h.handleError(c, err)
			return
		}
		filter.ClientID = &client.ID
	}
	contracts, err := h.services.Contracts.List(c.Request.Context(), p, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contracts})
}

func (h *Handler) getContract(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	details, err := h.services.Contracts.Get(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) getPublicContract(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	details, err := h.services.Contracts.GetForClient(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) updateContract(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateContractInput
	if !bindJSON(c, &req) {
		return
	}
	contract, err := h.services.Contracts.UpdateTerms(c.Request.Context(), p, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) deleteContract(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.services.Contracts.Delete(c.Request.Context(), p, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func signInput(c *gin.Context) (service.SignInput, bool) {
	var req service.SignInput
	if !bindJSON(c, &req) {
		return req, false
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()
	return req, true
}

func (h *Handler) signAsProvider(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	req, ok := signInput(c)
	if !ok {
		return
	}
	contract, err := h.services.Contracts.SignAsProvider(c.Request.Context(), p, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) signAsClient(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	req, ok := signInput(c)
	if !ok {
		return
	}
	contract, err := h.services.Contracts.SignAsClient(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) requestRevision(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.RevisionInput
	if !bindJSON(c, &req) {
		return
	}
	contract, err := h.services.Contracts.RequestRevision(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) updateContractStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	contract, err := h.services.Contracts.UpdateStatus(c.Request.Context(), p, id, req.Status, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelContract(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	contract, err := h.services.Contracts.Cancel(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) contractPDF(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	content, fileName, err := h.services.Contracts.RenderPDF(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, "application/pdf", fileName, content)
}

func (h *Handler) resendInvoice(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	contract, err := h.services.Contracts.ResendInvoice(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) retryBilling(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	outcome, err := h.services.Contracts.RetryBilling(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) listFailures(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	failures, err := h.services.Contracts.ListFailures(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": failures})
}
