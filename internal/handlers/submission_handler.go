package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/finzie/booking-coordinator/internal/dto"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/httpresp"
	"github.com/finzie/booking-coordinator/internal/middleware"
	ucScheduling "github.com/finzie/booking-coordinator/internal/usecase/scheduling"
	ucSubmission "github.com/finzie/booking-coordinator/internal/usecase/submission"
)

// ======================================================
// HANDLER
// ======================================================

type SubmissionHandler struct {
	get      *ucSubmission.GetSubmission
	selected *ucSubmission.SetSelected
	complete *ucSubmission.CompleteMeeting
	link     *ucScheduling.CreateSchedulingLink
}

func NewSubmissionHandler(
	get *ucSubmission.GetSubmission,
	selected *ucSubmission.SetSelected,
	complete *ucSubmission.CompleteMeeting,
	link *ucScheduling.CreateSchedulingLink,
) *SubmissionHandler {
	return &SubmissionHandler{
		get:      get,
		selected: selected,
		complete: complete,
		link:     link,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type SelectRequest struct {
	Notes string `json:"notes"`
}

// ======================================================
// GET
// ======================================================

func (h *SubmissionHandler) Get(c *gin.Context) {
	s, err := h.get.Execute(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, dto.NewSubmissionDTO(s))
}

// ======================================================
// SELECT
// ======================================================

func (h *SubmissionHandler) Select(c *gin.Context) {
	var req SelectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, "invalid_request", "Request body is not valid JSON")
			return
		}
	}

	s, err := h.selected.Execute(c.Request.Context(), middleware.CurrentIdentity(c), ucSubmission.SetSelectedInput{
		SubmissionID: c.Param("id"),
		Notes:        req.Notes,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, dto.NewSubmissionDTO(s))
}

// ======================================================
// COMPLETE
// ======================================================

func (h *SubmissionHandler) Complete(c *gin.Context) {
	s, err := h.complete.Execute(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, dto.NewSubmissionDTO(s))
}

// ======================================================
// SCHEDULING LINK
// ======================================================

func (h *SubmissionHandler) CreateSchedulingLink(c *gin.Context) {
	res, err := h.link.Execute(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, res)
}
