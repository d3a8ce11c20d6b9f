package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/repository"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) generateVisits(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	visits, err := h.services.Visits.Generate(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": visits, "generated": len(visits)})
}

func (h *Handler) visitFilter(c *gin.Context, p model.Principal) (repository.VisitFilter, bool) {
	var filter repository.VisitFilter
	var ok bool
	if filter.ContractID, ok = h.contractQuery(c, p); !ok {
		return filter, false
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.VisitStatus(strings.ToLower(raw))
		filter.Status = &status
	}
	if filter.From, ok = dateQuery(c, "from"); !ok {
		return filter, false
	}
	if filter.To, ok = dateQuery(c, "to"); !ok {
		return filter, false
	}
	return filter, true
}

func (h *Handler) listVisits(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	filter, ok := h.visitFilter(c, p)
	if !ok {
		return
	}
	visits, err := h.services.Visits.List(c.Request.Context(), p, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": visits})
}

func (h *Handler) exportVisits(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	filter, ok := h.visitFilter(c, p)
	if !ok {
		return
	}
	content, err := h.services.Visits.ExportLedger(c.Request.Context(), p, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	fileName := fmt.Sprintf("visits_%s.xlsx", time.Now().UTC().Format("20060102"))
	sendFile(c, xlsxContentType, fileName, content)
}

func (h *Handler) getVisit(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	visit, err := h.services.Visits.Get(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

func (h *Handler) startVisit(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	visit, err := h.services.Visits.Start(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

func (h *Handler) addVisitPhotos(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.PhotosInput
	if !bindJSON(c, &req) {
		return
	}
	visit, err := h.services.Visits.AddPhotos(c.Request.Context(), p, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

func (h *Handler) completeVisit(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.CompleteVisitInput
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	result, err := h.services.Visits.Complete(c.Request.Context(), p, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) markVisitPaid(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	visit, err := h.services.Visits.MarkPaid(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}
