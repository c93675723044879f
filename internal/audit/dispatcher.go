package audit

import "log"

// Event is one lifecycle fact to persist in audit_logs.
type Event struct {
	SubmissionID string
	Actor        string
	Action       string
	Entity       string
	EntityID     string
	Metadata     any
}

// Recorder accepts audit events without blocking the caller.
type Recorder interface {
	Dispatch(ev Event)
}

type Dispatcher struct {
	logger *Logger
	queue  chan Event
	done   chan struct{}
}

func NewDispatcher(logger *Logger) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		queue:  make(chan Event, 100),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.logger.Log(ev); err != nil {
			log.Printf("[audit] %s %s: %v", ev.Action, ev.SubmissionID, err)
		}
	}
}

// Dispatch drops the event when the queue is full; audit never fails a request.
func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.queue <- ev:
	default:
		log.Printf("[audit] queue full, dropping %s for %s", ev.Action, ev.SubmissionID)
	}
}

// Close drains pending events and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}

// Nop discards events.
type Nop struct{}

func (Nop) Dispatch(Event) {}
