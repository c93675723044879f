package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/httpresp"
	"github.com/finzie/booking-coordinator/internal/middleware"
	"github.com/finzie/booking-coordinator/internal/models"
	ucAvailability "github.com/finzie/booking-coordinator/internal/usecase/availability"
)

// ======================================================
// HANDLER
// ======================================================

type AvailabilityHandler struct {
	set *ucAvailability.SetAvailability
	get *ucAvailability.GetAvailability
}

func NewAvailabilityHandler(
	set *ucAvailability.SetAvailability,
	get *ucAvailability.GetAvailability,
) *AvailabilityHandler {
	return &AvailabilityHandler{set: set, get: get}
}

// ======================================================
// REQUESTS
// ======================================================

type SetAvailabilityRequest struct {
	SubmissionID string        `json:"submissionId" binding:"required"`
	Availability []models.Slot `json:"availability"`
	Timezone     string        `json:"timezone"`
}

// ======================================================
// SET (freelancer)
// ======================================================

func (h *AvailabilityHandler) Set(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "submissionId is required")
		return
	}

	res, err := h.set.Execute(c.Request.Context(), middleware.CurrentIdentity(c), ucAvailability.SetAvailabilityInput{
		SubmissionID: req.SubmissionID,
		Timezone:     req.Timezone,
		Slots:        req.Availability,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(200, gin.H{
		"success":    true,
		"slotsCount": res.SlotsCount,
		"datesCount": res.DatesCount,
	})
}

// ======================================================
// GET
// ======================================================

func (h *AvailabilityHandler) GetOwn(c *gin.Context) {
	h.show(c, ucAvailability.ViewFreelancer)
}

func (h *AvailabilityHandler) GetForClient(c *gin.Context) {
	h.show(c, ucAvailability.ViewClient)
}

func (h *AvailabilityHandler) show(c *gin.Context, view ucAvailability.View) {
	id := c.Query("submissionId")
	if id == "" {
		httperr.BadRequest(c, "missing_submission_id", "submissionId is required")
		return
	}

	out, err := h.get.Execute(c.Request.Context(), middleware.CurrentIdentity(c), id, view)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, out)
}
