package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/finzie/booking-coordinator/internal/dto"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/httpresp"
	"github.com/finzie/booking-coordinator/internal/middleware"
	ucMeeting "github.com/finzie/booking-coordinator/internal/usecase/meeting"
)

type MeetingHandler struct {
	list *ucMeeting.ListMeetings
}

func NewMeetingHandler(list *ucMeeting.ListMeetings) *MeetingHandler {
	return &MeetingHandler{list: list}
}

// List serves GET /api/meetings?submissionId=.
func (h *MeetingHandler) List(c *gin.Context) {
	id := c.Query("submissionId")
	if id == "" {
		httperr.BadRequest(c, "missing_submission_id", "submissionId is required")
		return
	}

	ms, err := h.list.Execute(c.Request.Context(), middleware.CurrentIdentity(c), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, dto.NewMeetingList(ms))
}
