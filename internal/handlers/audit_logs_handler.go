package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finzie/booking-coordinator/internal/audit"
	"github.com/finzie/booking-coordinator/internal/httperr"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	logs *audit.Logger
}

func NewAuditLogsHandler(logs *audit.Logger) *AuditLogsHandler {
	return &AuditLogsHandler{logs: logs}
}

// List serves GET /api/admin/audit-logs.
func (h *AuditLogsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	f := audit.Filter{
		SubmissionID: c.Query("submissionId"),
		Action:       c.Query("action"),
		Entity:       c.Query("entity"),
		Page:         page,
		Limit:        limit,
	}

	// from/to are whole days; to is inclusive
	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		f.From = from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		f.To = to.Add(24 * time.Hour)
	}

	logs, total, err := h.logs.Search(c.Request.Context(), f)
	if err != nil {
		httperr.Respond(c, httperr.Persistence("audit_list_failed", err))
		return
	}

	c.JSON(200, gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"logs":  logs,
	})
}
