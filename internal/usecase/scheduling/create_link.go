package scheduling

import (
	"context"
	"log"
	"time"

	"github.com/finzie/booking-coordinator/internal/audit"
	"github.com/finzie/booking-coordinator/internal/auth"
	"github.com/finzie/booking-coordinator/internal/domain"
	"github.com/finzie/booking-coordinator/internal/domain/meeting"
	sub "github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/infra/calendly"
	"github.com/finzie/booking-coordinator/internal/models"
	"github.com/finzie/booking-coordinator/internal/notify"
	"github.com/finzie/booking-coordinator/internal/timezone"
)

// LinkCreator is the provider call that mints a booking link.
type LinkCreator interface {
	CreateSchedulingLink(ctx context.Context, req calendly.LinkRequest) (*calendly.Link, error)
}

// LinkResult is returned when a link is minted. A one-off link has no
// invitee yet, so CancelURL and RescheduleURL stay empty here; they are
// filled on the meeting by the invitee.created webhook.
type LinkResult struct {
	BookingURL    string `json:"bookingUrl"`
	CancelURL     string `json:"cancelUrl"`
	RescheduleURL string `json:"rescheduleUrl"`
	MeetingID     string `json:"meetingId"`
}

type CreateSchedulingLink struct {
	submissions sub.Repository
	meetings    meeting.Repository
	gateway     LinkCreator
	tx          domain.Transactor
	audit       audit.Recorder
	notifier    notify.Notifier
	now         func() time.Time
}

func NewCreateSchedulingLink(
	submissions sub.Repository,
	meetings meeting.Repository,
	gateway LinkCreator,
	tx domain.Transactor,
	audit audit.Recorder,
	notifier notify.Notifier,
) *CreateSchedulingLink {
	return &CreateSchedulingLink{
		submissions: submissions,
		meetings:    meetings,
		gateway:     gateway,
		tx:          tx,
		audit:       audit,
		notifier:    notifier,
		now:         timezone.Now,
	}
}

func (uc *CreateSchedulingLink) Execute(
	ctx context.Context,
	caller auth.Identity,
	submissionID string,
) (*LinkResult, error) {

	s, err := uc.submissions.GetSubmissionWithForm(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if !sub.CanManage(caller, s) {
		return nil, httperr.Forbidden("forbidden", "Only the client who owns this form can request a scheduling link")
	}

	if _, err := sub.Transition(sub.Status(s.Status), s.IsSelected, sub.EventLinkShared); err != nil {
		return nil, err
	}

	req := calendly.LinkRequest{
		SubmissionID: s.ID,
		FormID:       s.FormID,
	}
	if s.Form != nil {
		req.ClientID = s.Form.ClientID
		if s.Form.Client != nil {
			req.InviteeName = s.Form.Client.Name
			req.InviteeEmail = s.Form.Client.Email
		}
	}

	var freelancerID string
	f, err := uc.submissions.GetFreelancerByEmail(ctx, s.Email)
	switch {
	case err == nil:
		freelancerID = f.ID
		req.OwnerURI = f.CalendlyEventTypeURI
	case httperr.IsKind(err, httperr.KindNotFound):
		log.Printf("[scheduling] no freelancer profile for submission %s, using default event type", s.ID)
	default:
		return nil, err
	}

	link, err := uc.gateway.CreateSchedulingLink(ctx, req)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	m := &models.Meeting{
		EventID:      meeting.PendingEventID(now.UnixMilli(), s.ID),
		Status:       string(meeting.StatusPending),
		BookingURL:   link.BookingURL,
		ClientID:     req.ClientID,
		FreelancerID: freelancerID,
		FormID:       s.FormID,
		SubmissionID: s.ID,
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.meetings.Create(ctx, m); err != nil {
			return err
		}
		_, err := sub.Advance(ctx, uc.submissions, s, sub.EventLinkShared, now, map[string]any{
			"calendly_link": link.BookingURL,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		SubmissionID: s.ID,
		Actor:        caller.Email,
		Action:       "calendly_link_shared",
		Entity:       "meeting",
		EntityID:     m.ID,
	})

	uc.notifier.Notify(notify.Notification{
		Kind:            notify.KindLinkShared,
		SubmissionID:    s.ID,
		FreelancerEmail: s.Email,
		ClientEmail:     req.InviteeEmail,
		Data:            map[string]string{"bookingUrl": link.BookingURL},
	})

	return &LinkResult{
		BookingURL: link.BookingURL,
		MeetingID:  m.ID,
	}, nil
}
