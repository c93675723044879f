package meeting

import (
	"context"
	"log"
	"time"

	dm "github.com/finzie/booking-coordinator/internal/domain/meeting"
	"github.com/finzie/booking-coordinator/internal/timezone"
)

const ReasonLinkExpired = "link_expired"

// SweepPending cancels placeholder meetings whose link was never booked.
type SweepPending struct {
	meetings dm.Repository
	ttl      time.Duration
	now      func() time.Time
}

func NewSweepPending(meetings dm.Repository, ttl time.Duration) *SweepPending {
	return &SweepPending{
		meetings: meetings,
		ttl:      ttl,
		now:      timezone.Now,
	}
}

func (uc *SweepPending) Execute(ctx context.Context) (int64, error) {
	now := uc.now()
	n, err := uc.meetings.ExpirePending(ctx, now.Add(-uc.ttl), now, ReasonLinkExpired)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[sweep] expired %d pending meetings older than %s", n, uc.ttl)
	}
	return n, nil
}
