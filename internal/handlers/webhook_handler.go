package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/infra/calendly"
	ucMeeting "github.com/finzie/booking-coordinator/internal/usecase/meeting"
)

const maxWebhookBody = 1 << 20

// WebhookHandler accepts signed Calendly deliveries. The body is read raw
// because the signature covers the exact bytes.
type WebhookHandler struct {
	verifier  *calendly.Verifier
	reconcile *ucMeeting.Reconcile
}

func NewWebhookHandler(verifier *calendly.Verifier, reconcile *ucMeeting.Reconcile) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, reconcile: reconcile}
}

func (h *WebhookHandler) Calendly(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		httperr.Write(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Webhook body is too large")
		return
	}

	if err := h.verifier.Verify(c.GetHeader(calendly.SignatureHeader), body); err != nil {
		log.Printf("[webhook] rejected delivery: %v", err)
		httperr.Respond(c, err)
		return
	}

	ev, err := calendly.ParseWebhook(body)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	res, err := h.reconcile.Execute(c.Request.Context(), ev)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received":  true,
		"action":    res.Action,
		"meetingId": res.MeetingID,
	})
}
