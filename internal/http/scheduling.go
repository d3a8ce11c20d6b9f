package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/repository"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

func (h *Handler) propose(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.ProposeInput
	if !bindJSON(c, &req) {
		return
	}
	proposal, err := h.services.Scheduling.Propose(c.Request.Context(), p, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

func (h *Handler) listProposals(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	proposals, err := h.services.Scheduling.ListProposals(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": proposals})
}

func (h *Handler) getProposal(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	proposal, err := h.services.Scheduling.GetProposal(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (h *Handler) acceptProposal(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.AcceptSlotInput
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.services.Scheduling.AcceptProposal(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) counterProposal(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.CounterInput
	if !bindJSON(c, &req) {
		return
	}
	proposal, err := h.services.Scheduling.CounterProposal(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (h *Handler) book(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.BookInput
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.services.Scheduling.Book(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (h *Handler) respondToSchedule(c *gin.Context) {
	contractID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	scheduleID, ok := uintParam(c, "scheduleId")
	if !ok {
		return
	}
	var req service.RespondInput
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.services.Scheduling.RespondToSchedule(c.Request.Context(), contractID, scheduleID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) listSchedules(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var filter repository.ScheduleFilter
	if filter.ContractID, ok = h.contractQuery(c, p); !ok {
		return
	}
	if raw := strings.TrimSpace(c.Query("approval_status")); raw != "" {
		status := model.ApprovalStatus(strings.ToLower(raw))
		filter.ApprovalStatus = &status
	}
	if filter.From, ok = dateQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = dateQuery(c, "to"); !ok {
		return
	}
	schedules, err := h.services.Scheduling.ListSchedules(c.Request.Context(), p, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": schedules})
}

func (h *Handler) acceptSchedule(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	schedule, err := h.services.Scheduling.AcceptSchedule(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) requestChange(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req service.ChangeInput
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.services.Scheduling.RequestChange(c.Request.Context(), p, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) cancelSchedule(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	schedule, err := h.services.Scheduling.CancelSchedule(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}
