package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finzie/booking-coordinator/internal/audit"
	"github.com/finzie/booking-coordinator/internal/auth"
	"github.com/finzie/booking-coordinator/internal/infra/archive"
	"github.com/finzie/booking-coordinator/internal/infra/calendly"
	"github.com/finzie/booking-coordinator/internal/infra/lock"
	"github.com/finzie/booking-coordinator/internal/infra/repository"
	"github.com/finzie/booking-coordinator/internal/middleware"
	"github.com/finzie/booking-coordinator/internal/models"
	"github.com/finzie/booking-coordinator/internal/notify"
	"github.com/finzie/booking-coordinator/internal/testdb"
	ucAvailability "github.com/finzie/booking-coordinator/internal/usecase/availability"
	ucMeeting "github.com/finzie/booking-coordinator/internal/usecase/meeting"
	ucSubmission "github.com/finzie/booking-coordinator/internal/usecase/submission"
)

const webhookSecret = "whsec-test"

var (
	clientID     = auth.Identity{ID: "c-1", Email: "hiring@acme.test", Role: auth.RoleClient}
	freelancerID = auth.Identity{ID: "f-1", Email: "dev@freelance.test", Role: auth.RoleFreelancer}
	adminID      = auth.Identity{ID: "a-1", Email: "ops@finzie.test", Role: auth.RoleAdmin}
)

type nopNotifier struct{}

func (nopNotifier) Notify(notify.Notification) {}

// as injects a fixed identity in place of the session middleware.
func as(id auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextIdentity, id)
		c.Next()
	}
}

func do(r *gin.Engine, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func submissionHandler(db *gorm.DB) *SubmissionHandler {
	subs := repository.NewSubmissionGormRepository(db)
	return NewSubmissionHandler(
		ucSubmission.NewGetSubmission(subs),
		ucSubmission.NewSetSelected(subs, audit.Nop{}),
		ucSubmission.NewCompleteMeeting(subs, audit.Nop{}),
		nil,
	)
}

func TestSubmissionHandler_GetAndSelect(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "new", false)
	h := submissionHandler(db)

	r := newEngine()
	r.GET("/as-client/:id", as(clientID), h.Get)
	r.POST("/as-client/:id/select", as(clientID), h.Select)
	r.POST("/as-freelancer/:id/select", as(freelancerID), h.Select)

	w := do(r, http.MethodGet, "/as-client/"+fx.Submission.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["formTitle"] != "Go backend engineer" || got["clientName"] != "Acme Corp" {
		t.Fatalf("unexpected body %v", got)
	}

	w = do(r, http.MethodPost, "/as-freelancer/"+fx.Submission.ID+"/select", []byte(`{}`), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/as-client/"+fx.Submission.ID+"/select", []byte(`{"notes":"strong Go"}`), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("select: %d %s", w.Code, w.Body.String())
	}
	got = decode(t, w)
	if got["status"] != "selected" || got["isSelected"] != true || got["selectionNotes"] != "strong Go" {
		t.Fatalf("unexpected body %v", got)
	}

	w = do(r, http.MethodGet, "/as-client/missing", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func availabilityHandler(db *gorm.DB) *AvailabilityHandler {
	subs := repository.NewSubmissionGormRepository(db)
	avRepo := repository.NewAvailabilityGormRepository(db)
	return NewAvailabilityHandler(
		ucAvailability.NewSetAvailability(subs, avRepo, repository.NewGormTransactor(db), lock.NewLocalLocker(), audit.Nop{}),
		ucAvailability.NewGetAvailability(subs, avRepo),
	)
}

func TestAvailabilityHandler_SetAndRead(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "selected", true)
	h := availabilityHandler(db)

	r := newEngine()
	r.POST("/freelancer/availability", as(freelancerID), h.Set)
	r.GET("/freelancer/availability", as(freelancerID), h.GetOwn)
	r.GET("/availability", as(clientID), h.GetForClient)

	day := func(n int) string { return time.Now().UTC().AddDate(0, 0, n).Format("2006-01-02") }
	body, _ := json.Marshal(gin.H{
		"submissionId": fx.Submission.ID,
		"timezone":     "UTC",
		"availability": []models.Slot{
			{Date: day(3), StartTime: "10:00", EndTime: "11:00"},
			{Date: day(4), StartTime: "14:00", EndTime: "15:30"},
			{Date: day(5), StartTime: "09:00", EndTime: "09:45"},
		},
	})

	w := do(r, http.MethodPost, "/freelancer/availability", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("set: %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["success"] != true || got["slotsCount"] != float64(3) || got["datesCount"] != float64(3) {
		t.Fatalf("unexpected body %v", got)
	}

	w = do(r, http.MethodGet, "/freelancer/availability?submissionId="+fx.Submission.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get own: %d %s", w.Code, w.Body.String())
	}
	if got := decode(t, w); got["isBulk"] != true {
		t.Fatalf("expected bulk view, got %v", got)
	}

	w = do(r, http.MethodGet, "/availability?submissionId="+fx.Submission.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get client: %d %s", w.Code, w.Body.String())
	}
	slots := decode(t, w)["availability"].([]any)
	if len(slots) != 3 {
		t.Fatalf("expected 3 open slots, got %d", len(slots))
	}
}

func TestAvailabilityHandler_BadRequests(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "selected", true)
	h := availabilityHandler(db)

	r := newEngine()
	r.POST("/freelancer/availability", as(freelancerID), h.Set)
	r.GET("/freelancer/availability", as(freelancerID), h.GetOwn)

	w := do(r, http.MethodPost, "/freelancer/availability", []byte(`{"availability":[]}`), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without submissionId, got %d", w.Code)
	}

	body, _ := json.Marshal(gin.H{"submissionId": fx.Submission.ID, "availability": []models.Slot{}})
	w = do(r, http.MethodPost, "/freelancer/availability", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", w.Code)
	}
	if msg := decode(t, w)["message"]; msg == "" {
		t.Fatalf("expected the broken rule as message")
	}

	w = do(r, http.MethodGet, "/freelancer/availability", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without query, got %d", w.Code)
	}
}

func webhookEngine(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	avRepo := repository.NewAvailabilityGormRepository(db)
	reconcile := ucMeeting.NewReconcile(
		repository.NewSubmissionGormRepository(db),
		repository.NewMeetingGormRepository(db),
		ucAvailability.NewSlotBooker(avRepo, lock.NewLocalLocker()),
		repository.NewGormTransactor(db),
		audit.Nop{},
		nopNotifier{},
		archive.Nop{},
	)
	h := NewWebhookHandler(calendly.NewVerifier(webhookSecret, 3*time.Minute), reconcile)

	r := newEngine()
	r.POST("/webhooks/calendly", h.Calendly)
	return r
}

func createdPayload(submissionID string) []byte {
	return []byte(`{
	  "event": "invitee.created",
	  "payload": {
	    "event": {"uuid": "EVT-H1", "start_time": "2030-01-04T14:00:00Z", "end_time": "2030-01-04T15:00:00Z"},
	    "invitee": {"name": "Acme Corp", "email": "hiring@acme.test"},
	    "questions_and_answers": [{"question": "Submission", "answer": "` + submissionID + `", "position": 0}]
	  }
	}`)
}

func TestWebhookHandler_Signature(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "calendly_link_shared", true)
	r := webhookEngine(t, db)
	body := createdPayload(fx.Submission.ID)

	w := do(r, http.MethodPost, "/webhooks/calendly", body, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without signature, got %d", w.Code)
	}

	bad := calendly.SignatureFor("other-secret", time.Now(), body)
	w = do(r, http.MethodPost, "/webhooks/calendly", body, map[string]string{calendly.SignatureHeader: bad})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a foreign signature, got %d", w.Code)
	}

	var count int64
	db.Model(&models.Meeting{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected deliveries must not write, found %d meetings", count)
	}
}

func TestWebhookHandler_CreatedThenRedelivered(t *testing.T) {
	db := testdb.Open(t)
	fx := testdb.Seed(t, db, "calendly_link_shared", true)
	r := webhookEngine(t, db)
	body := createdPayload(fx.Submission.ID)
	sig := map[string]string{calendly.SignatureHeader: calendly.SignatureFor(webhookSecret, time.Now(), body)}

	w := do(r, http.MethodPost, "/webhooks/calendly", body, sig)
	if w.Code != http.StatusOK {
		t.Fatalf("created: %d %s", w.Code, w.Body.String())
	}
	if got := decode(t, w); got["received"] != true || got["action"] != "created" {
		t.Fatalf("unexpected body %v", got)
	}

	w = do(r, http.MethodPost, "/webhooks/calendly", body, sig)
	if got := decode(t, w); w.Code != http.StatusOK || got["action"] != "duplicate" {
		t.Fatalf("expected duplicate ack, got %d %v", w.Code, got)
	}

	var s models.Submission
	if err := db.First(&s, "id = ?", fx.Submission.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if s.Status != "meeting_scheduled" {
		t.Fatalf("expected meeting_scheduled, got %s", s.Status)
	}
}

func TestWebhookHandler_MalformedAndUnknown(t *testing.T) {
	db := testdb.Open(t)
	r := webhookEngine(t, db)

	body := []byte(`{"event": "invitee.created", "payload": {"event": {}}}`)
	sig := map[string]string{calendly.SignatureHeader: calendly.SignatureFor(webhookSecret, time.Now(), body)}
	if w := do(r, http.MethodPost, "/webhooks/calendly", body, sig); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed event, got %d", w.Code)
	}

	body = []byte(`{"event": "routing_form_submission.created", "payload": {}}`)
	sig = map[string]string{calendly.SignatureHeader: calendly.SignatureFor(webhookSecret, time.Now(), body)}
	w := do(r, http.MethodPost, "/webhooks/calendly", body, sig)
	if got := decode(t, w); w.Code != http.StatusOK || got["action"] != "ignored" {
		t.Fatalf("expected ignored ack, got %d %v", w.Code, got)
	}
}

func TestAuditLogsHandler_FiltersBySubmission(t *testing.T) {
	db := testdb.Open(t)
	rows := []models.AuditLog{
		{SubmissionID: "sub-1", Actor: "calendly", Action: "meeting_created", Entity: "meeting"},
		{SubmissionID: "sub-1", Actor: "hiring@acme.test", Action: "submission_selected", Entity: "submission"},
		{SubmissionID: "sub-2", Actor: "calendly", Action: "meeting_created", Entity: "meeting"},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	h := NewAuditLogsHandler(audit.New(db))
	r := newEngine()
	r.GET("/admin/audit-logs", as(adminID), h.List)

	w := do(r, http.MethodGet, "/admin/audit-logs?submissionId=sub-1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["total"] != float64(2) || len(got["logs"].([]any)) != 2 {
		t.Fatalf("unexpected body %v", got)
	}

	w = do(r, http.MethodGet, "/admin/audit-logs?submissionId=sub-1&action=meeting_created&limit=1", nil, nil)
	got = decode(t, w)
	if got["total"] != float64(1) || got["limit"] != float64(1) {
		t.Fatalf("unexpected filtered body %v", got)
	}
}
