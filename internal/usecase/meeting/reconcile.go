package meeting

import (
	"context"
	"log"
	"time"

	"gorm.io/datatypes"

	"github.com/finzie/booking-coordinator/internal/audit"
	"github.com/finzie/booking-coordinator/internal/domain"
	dm "github.com/finzie/booking-coordinator/internal/domain/meeting"
	sub "github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/infra/archive"
	"github.com/finzie/booking-coordinator/internal/models"
	"github.com/finzie/booking-coordinator/internal/notify"
	"github.com/finzie/booking-coordinator/internal/timezone"
)

// SlotMarker books and frees availability slots by start instant.
type SlotMarker interface {
	Claim(ctx context.Context, submissionID string, start time.Time) (bool, error)
	Release(ctx context.Context, submissionID string, start time.Time) (bool, error)
}

type Action string

const (
	ActionCreated     Action = "created"
	ActionCanceled    Action = "canceled"
	ActionRescheduled Action = "rescheduled"
	ActionNoShow      Action = "no_show"
	ActionIgnored     Action = "ignored"
	ActionDuplicate   Action = "duplicate"
)

type Result struct {
	Action       Action `json:"action"`
	MeetingID    string `json:"meetingId,omitempty"`
	SubmissionID string `json:"submissionId,omitempty"`
}

// Reconcile applies provider booking events to meetings, submissions and
// availability slots. Every event is keyed by the provider event uuid so
// redeliveries are no-ops.
type Reconcile struct {
	submissions sub.Repository
	meetings    dm.Repository
	slots       SlotMarker
	tx          domain.Transactor
	audit       audit.Recorder
	notifier    notify.Notifier
	archiver    archive.PayloadArchiver
	now         func() time.Time

	archiveTimeout time.Duration
}

func NewReconcile(
	submissions sub.Repository,
	meetings dm.Repository,
	slots SlotMarker,
	tx domain.Transactor,
	audit audit.Recorder,
	notifier notify.Notifier,
	archiver archive.PayloadArchiver,
) *Reconcile {
	return &Reconcile{
		submissions: submissions,
		meetings:    meetings,
		slots:       slots,
		tx:          tx,
		audit:       audit,
		notifier:    notifier,
		archiver:    archiver,
		now:         timezone.Now,

		archiveTimeout: 5 * time.Second,
	}
}

func (uc *Reconcile) Execute(ctx context.Context, ev dm.BookingEvent) (*Result, error) {
	if !ev.Kind.Known() {
		log.Printf("[webhook] ignoring %q", ev.Kind)
		return &Result{Action: ActionIgnored}, nil
	}

	// placeholder ids belong to links that were never booked
	if dm.IsPendingEventID(ev.EventUUID) {
		return nil, httperr.InvalidInput("invalid_event_uuid", "Event uuid uses the reserved pending prefix")
	}

	uc.archive(ctx, ev)

	switch ev.Kind {
	case dm.KindCreated:
		return uc.created(ctx, ev)
	case dm.KindCanceled:
		return uc.canceled(ctx, ev)
	case dm.KindRescheduled:
		return uc.rescheduled(ctx, ev)
	default:
		return uc.noShow(ctx, ev)
	}
}

// ======================================================
// invitee.created
// ======================================================

func (uc *Reconcile) created(ctx context.Context, ev dm.BookingEvent) (*Result, error) {
	existing, err := uc.meetings.GetByEventID(ctx, ev.EventUUID)
	if err != nil {
		return nil, err
	}

	submissionID := ev.Correlation.SubmissionID
	if submissionID == "" && existing != nil {
		submissionID = existing.SubmissionID
	}
	if submissionID == "" {
		return nil, httperr.NotFound("submission_not_resolved", "Could not resolve a submission for this booking")
	}

	s, err := uc.submissions.GetSubmissionWithForm(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		_, outcome, err := dm.Transition(dm.Status(existing.Status), dm.KindCreated)
		if err != nil {
			return nil, err
		}
		if outcome == dm.Noop || (existing.Status == string(dm.StatusScheduled) && sameSlot(existing, ev)) {
			return &Result{Action: ActionDuplicate, MeetingID: existing.ID, SubmissionID: s.ID}, nil
		}
	}

	// a scheduled meeting re-announced at a new time has moved
	moved := existing != nil &&
		existing.Status == string(dm.StatusScheduled) &&
		existing.StartTime != nil &&
		!existing.StartTime.Equal(ev.Start)

	now := uc.now()
	var meetingID string

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		fields := uc.bookingFields(ev)
		fields["status"] = string(dm.StatusScheduled)

		switch {
		case existing != nil:
			meetingID = existing.ID
			if _, err := uc.meetings.UpdateByEventID(ctx, ev.EventUUID, dm.AllowedFrom(dm.KindCreated), fields); err != nil {
				return err
			}

		default:
			pending, err := uc.meetings.FindPendingForSubmission(ctx, s.ID)
			if err != nil {
				return err
			}
			if pending != nil {
				meetingID = pending.ID
				fields["event_id"] = ev.EventUUID
				if err := uc.meetings.UpdateByID(ctx, pending.ID, fields); err != nil {
					return err
				}
				break
			}

			m := uc.newMeeting(ctx, ev, s)
			if err := uc.meetings.UpsertByEventID(ctx, m); err != nil {
				return err
			}
			meetingID = m.ID
			// On conflict the insert turns into an update and m.ID is not the row id.
			if stored, err := uc.meetings.GetByEventID(ctx, ev.EventUUID); err == nil && stored != nil {
				meetingID = stored.ID
			}
		}

		return uc.advance(ctx, s, sub.EventMeetingBooked, now, map[string]any{
			"calendly_link": "",
		})
	})
	if err != nil {
		return nil, err
	}

	if moved {
		uc.release(ctx, s.ID, *existing.StartTime)
		uc.claim(ctx, s.ID, ev.Start)
		uc.record(s, "meeting_rescheduled", meetingID, ev)
		uc.notify(notify.KindMeetingRescheduled, s, ev)
		return &Result{Action: ActionRescheduled, MeetingID: meetingID, SubmissionID: s.ID}, nil
	}

	uc.claim(ctx, s.ID, ev.Start)
	uc.record(s, "meeting_booked", meetingID, ev)
	uc.notify(notify.KindMeetingScheduled, s, ev)

	return &Result{Action: ActionCreated, MeetingID: meetingID, SubmissionID: s.ID}, nil
}

// ======================================================
// invitee.canceled
// ======================================================

func (uc *Reconcile) canceled(ctx context.Context, ev dm.BookingEvent) (*Result, error) {
	existing, s, err := uc.resolveExisting(ctx, ev)
	if err != nil {
		return nil, err
	}

	_, outcome, err := dm.Transition(dm.Status(existing.Status), dm.KindCanceled)
	if err != nil {
		return nil, err
	}
	if outcome == dm.Noop {
		return &Result{Action: ActionDuplicate, MeetingID: existing.ID, SubmissionID: s.ID}, nil
	}

	now := uc.now()
	applied := false

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := uc.meetings.UpdateByEventID(ctx, ev.EventUUID, dm.AllowedFrom(dm.KindCanceled), map[string]any{
			"status":        string(dm.StatusCanceled),
			"canceled_at":   now,
			"cancel_reason": ev.CancelReason,
			"raw_payload":   rawJSON(ev.Raw),
		})
		if err != nil || !ok {
			return err
		}
		applied = true

		return uc.advance(ctx, s, sub.EventMeetingCanceled, now, nil)
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return &Result{Action: ActionDuplicate, MeetingID: existing.ID, SubmissionID: s.ID}, nil
	}

	if existing.StartTime != nil {
		uc.release(ctx, s.ID, *existing.StartTime)
	}
	uc.record(s, "meeting_canceled", existing.ID, ev)
	uc.notify(notify.KindMeetingCanceled, s, ev)

	return &Result{Action: ActionCanceled, MeetingID: existing.ID, SubmissionID: s.ID}, nil
}

// ======================================================
// invitee.rescheduled
// ======================================================

func (uc *Reconcile) rescheduled(ctx context.Context, ev dm.BookingEvent) (*Result, error) {
	existing, s, err := uc.resolveExisting(ctx, ev)
	if err != nil {
		return nil, err
	}

	if _, _, err := dm.Transition(dm.Status(existing.Status), dm.KindRescheduled); err != nil {
		return nil, err
	}
	if sameSlot(existing, ev) {
		return &Result{Action: ActionDuplicate, MeetingID: existing.ID, SubmissionID: s.ID}, nil
	}

	patch := map[string]any{
		"start_time":  ev.Start,
		"end_time":    ev.End,
		"raw_payload": rawJSON(ev.Raw),
	}
	if ev.Timezone != "" {
		patch["timezone"] = ev.Timezone
	}
	if ev.MeetingURL != "" {
		patch["meeting_url"] = ev.MeetingURL
	}
	if ev.CancelURL != "" {
		patch["cancel_url"] = ev.CancelURL
	}
	if ev.RescheduleURL != "" {
		patch["reschedule_url"] = ev.RescheduleURL
	}

	ok, err := uc.meetings.UpdateByEventID(ctx, ev.EventUUID, dm.AllowedFrom(dm.KindRescheduled), patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httperr.Conflict("invalid_meeting_transition", "Meeting is no longer scheduled")
	}

	if existing.StartTime != nil {
		uc.release(ctx, s.ID, *existing.StartTime)
	}
	uc.claim(ctx, s.ID, ev.Start)
	uc.record(s, "meeting_rescheduled", existing.ID, ev)
	uc.notify(notify.KindMeetingRescheduled, s, ev)

	return &Result{Action: ActionRescheduled, MeetingID: existing.ID, SubmissionID: s.ID}, nil
}

// ======================================================
// invitee.no_show
// ======================================================

func (uc *Reconcile) noShow(ctx context.Context, ev dm.BookingEvent) (*Result, error) {
	existing, s, err := uc.resolveExisting(ctx, ev)
	if err != nil {
		return nil, err
	}

	_, outcome, err := dm.Transition(dm.Status(existing.Status), dm.KindNoShow)
	if err != nil {
		return nil, err
	}
	if outcome == dm.Noop {
		return &Result{Action: ActionDuplicate, MeetingID: existing.ID, SubmissionID: s.ID}, nil
	}

	ok, err := uc.meetings.UpdateByEventID(ctx, ev.EventUUID, dm.AllowedFrom(dm.KindNoShow), map[string]any{
		"status":     string(dm.StatusNoShow),
		"no_show_at": uc.now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Action: ActionDuplicate, MeetingID: existing.ID, SubmissionID: s.ID}, nil
	}

	uc.record(s, "meeting_no_show", existing.ID, ev)
	uc.notify(notify.KindMeetingNoShow, s, ev)

	return &Result{Action: ActionNoShow, MeetingID: existing.ID, SubmissionID: s.ID}, nil
}

// ======================================================
// HELPERS
// ======================================================

// resolveExisting loads the meeting for ev and its submission. Both must exist.
func (uc *Reconcile) resolveExisting(ctx context.Context, ev dm.BookingEvent) (*models.Meeting, *models.Submission, error) {
	existing, err := uc.meetings.GetByEventID(ctx, ev.EventUUID)
	if err != nil {
		return nil, nil, err
	}
	if existing == nil {
		return nil, nil, httperr.NotFound("meeting_not_found", "No meeting is recorded for this event")
	}

	submissionID := existing.SubmissionID
	if submissionID == "" {
		submissionID = ev.Correlation.SubmissionID
	}
	if submissionID == "" {
		return nil, nil, httperr.NotFound("submission_not_resolved", "Could not resolve a submission for this booking")
	}

	s, err := uc.submissions.GetSubmissionWithForm(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	return existing, s, nil
}

// advance moves the submission but tolerates a lifecycle that has already
// moved on; the meeting record stays authoritative for the booking.
func (uc *Reconcile) advance(ctx context.Context, s *models.Submission, ev sub.Event, now time.Time, patch map[string]any) error {
	_, err := sub.Advance(ctx, uc.submissions, s, ev, now, patch)
	if httperr.IsKind(err, httperr.KindForbidden) {
		log.Printf("[webhook] submission %s is %s, skipping %s", s.ID, s.Status, ev)
		return nil
	}
	return err
}

func (uc *Reconcile) bookingFields(ev dm.BookingEvent) map[string]any {
	return map[string]any{
		"start_time":     ev.Start,
		"end_time":       ev.End,
		"timezone":       ev.Timezone,
		"invitee_name":   ev.InviteeName,
		"invitee_email":  ev.InviteeEmail,
		"meeting_url":    ev.MeetingURL,
		"cancel_url":     ev.CancelURL,
		"reschedule_url": ev.RescheduleURL,
		"raw_payload":    rawJSON(ev.Raw),
	}
}

func (uc *Reconcile) newMeeting(ctx context.Context, ev dm.BookingEvent, s *models.Submission) *models.Meeting {
	start, end := ev.Start, ev.End
	m := &models.Meeting{
		EventID:       ev.EventUUID,
		Status:        string(dm.StatusScheduled),
		StartTime:     &start,
		EndTime:       &end,
		Timezone:      ev.Timezone,
		InviteeName:   ev.InviteeName,
		InviteeEmail:  ev.InviteeEmail,
		MeetingURL:    ev.MeetingURL,
		CancelURL:     ev.CancelURL,
		RescheduleURL: ev.RescheduleURL,
		FormID:        s.FormID,
		SubmissionID:  s.ID,
		ClientID:      ev.Correlation.ClientID,
		RawPayload:    rawJSON(ev.Raw),
	}
	if s.Form != nil && m.ClientID == "" {
		m.ClientID = s.Form.ClientID
	}
	if f, err := uc.submissions.GetFreelancerByEmail(ctx, s.Email); err == nil {
		m.FreelancerID = f.ID
	}
	return m
}

func (uc *Reconcile) claim(ctx context.Context, submissionID string, start time.Time) {
	ok, err := uc.slots.Claim(ctx, submissionID, start)
	if err != nil {
		log.Printf("[webhook] claim slot %s for %s: %v", start.Format(time.RFC3339), submissionID, err)
		return
	}
	if !ok {
		log.Printf("[webhook] no availability slot starts at %s for %s", start.Format(time.RFC3339), submissionID)
	}
}

func (uc *Reconcile) release(ctx context.Context, submissionID string, start time.Time) {
	if _, err := uc.slots.Release(ctx, submissionID, start); err != nil {
		log.Printf("[webhook] release slot %s for %s: %v", start.Format(time.RFC3339), submissionID, err)
	}
}

func (uc *Reconcile) archive(ctx context.Context, ev dm.BookingEvent) {
	if len(ev.Raw) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, uc.archiveTimeout)
	defer cancel()

	if err := uc.archiver.Archive(ctx, archive.Key(ev.EventUUID, uc.now()), ev.Raw); err != nil {
		log.Printf("[webhook] archive %s: %v", ev.EventUUID, err)
	}
}

func (uc *Reconcile) record(s *models.Submission, action, meetingID string, ev dm.BookingEvent) {
	uc.audit.Dispatch(audit.Event{
		SubmissionID: s.ID,
		Actor:        "calendly",
		Action:       action,
		Entity:       "meeting",
		EntityID:     meetingID,
		Metadata: map[string]any{
			"eventUuid":        ev.EventUUID,
			"start":            ev.Start,
			"fromDescription":  ev.Correlation.FromDescription,
			"submissionStatus": s.Status,
		},
	})
}

func (uc *Reconcile) notify(kind notify.Kind, s *models.Submission, ev dm.BookingEvent) {
	n := notify.Notification{
		Kind:            kind,
		SubmissionID:    s.ID,
		FreelancerEmail: s.Email,
		Data: map[string]any{
			"start":      ev.Start,
			"end":        ev.End,
			"timezone":   ev.Timezone,
			"meetingUrl": ev.MeetingURL,
			"reason":     ev.CancelReason,
		},
	}
	if s.Form != nil && s.Form.Client != nil {
		n.ClientEmail = s.Form.Client.Email
	}
	uc.notifier.Notify(n)
}

func sameSlot(m *models.Meeting, ev dm.BookingEvent) bool {
	return m.StartTime != nil && m.EndTime != nil &&
		m.StartTime.Equal(ev.Start) && m.EndTime.Equal(ev.End)
}

func rawJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}
