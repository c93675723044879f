// Package notify fans lifecycle notifications out to an outbound queue.
// Delivery is fire-and-forget: a failed or dropped notification never
// affects the request that produced it.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

type Kind string

const (
	KindMeetingScheduled   Kind = "meeting_scheduled"
	KindMeetingCanceled    Kind = "meeting_canceled"
	KindMeetingRescheduled Kind = "meeting_rescheduled"
	KindMeetingNoShow      Kind = "meeting_no_show"
	KindLinkShared         Kind = "calendly_link_shared"
)

// Notification is addressed to the freelancer and the client of a submission.
type Notification struct {
	Kind            Kind      `json:"kind"`
	SubmissionID    string    `json:"submissionId"`
	FreelancerEmail string    `json:"freelancerEmail,omitempty"`
	ClientEmail     string    `json:"clientEmail,omitempty"`
	Data            any       `json:"data,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Notifier interface {
	Notify(n Notification)
}

// Sink delivers one notification.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

type Dispatcher struct {
	sink    Sink
	queue   chan Notification
	done    chan struct{}
	timeout time.Duration
}

func NewDispatcher(sink Sink) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Notification, 100),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Send(ctx, n); err != nil {
			log.Printf("[notify] %s for %s: %v", n.Kind, n.SubmissionID, err)
		}
		cancel()
	}
}

func (d *Dispatcher) Notify(n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	select {
	case d.queue <- n:
	default:
		log.Printf("[notify] queue full, dropping %s for %s", n.Kind, n.SubmissionID)
	}
}

func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}

const QueueKey = "finzie:notifications"

// RedisQueue pushes notifications as JSON onto a Redis list consumed by the
// mailer.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: QueueKey}
}

func (q *RedisQueue) Send(ctx context.Context, n Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, q.key, b).Err()
}

// LogSink writes notifications to the process log.
type LogSink struct{}

func (LogSink) Send(_ context.Context, n Notification) error {
	log.Printf("[notify] %s submission=%s freelancer=%s client=%s", n.Kind, n.SubmissionID, n.FreelancerEmail, n.ClientEmail)
	return nil
}
