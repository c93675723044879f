package meeting

import (
	"context"

	"github.com/finzie/booking-coordinator/internal/auth"
	dm "github.com/finzie/booking-coordinator/internal/domain/meeting"
	sub "github.com/finzie/booking-coordinator/internal/domain/submission"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/models"
)

type ListMeetings struct {
	submissions sub.Repository
	meetings    dm.Repository
}

func NewListMeetings(
	submissions sub.Repository,
	meetings dm.Repository,
) *ListMeetings {
	return &ListMeetings{
		submissions: submissions,
		meetings:    meetings,
	}
}

func (uc *ListMeetings) Execute(
	ctx context.Context,
	caller auth.Identity,
	submissionID string,
) ([]models.Meeting, error) {

	s, err := uc.submissions.GetSubmissionWithForm(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if !sub.CanView(caller, s) {
		return nil, httperr.Forbidden("forbidden", "You do not have access to this submission")
	}

	return uc.meetings.ListBySubmission(ctx, s.ID)
}
