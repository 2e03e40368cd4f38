package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/parse"
)

// Event is one message received from a chat transport.
type Event struct {
	ID           string    `json:"id,omitempty"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Channel      string    `json:"channel"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	FromBot      bool      `json:"from_bot,omitempty"`
}

// Result is what processing an event produced.
type Result struct {
	EventID string
	Ignored bool
	Outcome attendance.Outcome
	Err     error // ledger consistency violation
}

// Reply renders the message to post back to the employee, or false when
// nothing should be sent.
func (r Result) Reply(mention string, confirmSuccess bool) (string, bool) {
	switch {
	case r.Ignored:
		return "", false
	case r.Err != nil:
		return fmt.Sprintf("%s, something went wrong recording that. Please contact an administrator.", mention), true
	case r.Outcome.Applied && !confirmSuccess:
		return "", false
	}
	return r.Outcome.Message(mention), true
}

// Classifier maps message text to an intent.
type Classifier interface {
	Classify(text string) parse.Intent
}

// Applier applies an intent to an employee's session.
type Applier interface {
	Apply(ctx context.Context, employeeID, displayName string, intent parse.Intent, at time.Time) (attendance.Outcome, error)
}

type job struct {
	event Event
	done  chan Result
}

// Dispatcher funnels events from any number of transports into a single
// worker, so events are handled one at a time in arrival order.
type Dispatcher struct {
	channel    string
	classifier Classifier
	machine    Applier
	jobs       chan job
	now        func() time.Time
}

// NewDispatcher creates a dispatcher that only handles messages posted in channel.
func NewDispatcher(channel string, classifier Classifier, machine Applier, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		channel:    channel,
		classifier: classifier,
		machine:    machine,
		jobs:       make(chan job, queueSize), // Buffered channel
		now:        time.Now,
	}
}

// Start launches the worker goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.worker(ctx)
}

func (d *Dispatcher) worker(ctx context.Context) {
	log.Println("Dispatcher worker started")
	for {
		select {
		case j := <-d.jobs:
			// Events run to completion even if the submitter gave up waiting.
			j.done <- d.Handle(context.WithoutCancel(ctx), j.event)
		case <-ctx.Done():
			log.Println("Dispatcher worker shutting down")
			return
		}
	}
}

// Submit queues ev for the worker and waits for its result. The event is
// still processed if ctx ends after it was queued.
func (d *Dispatcher) Submit(ctx context.Context, ev Event) (Result, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	j := job{event: ev, done: make(chan Result, 1)}

	select {
	case d.jobs <- j:
	case <-ctx.Done():
		return Result{EventID: ev.ID}, fmt.Errorf("event %s not queued: %w", ev.ID, ctx.Err())
	}

	select {
	case res := <-j.done:
		return res, nil
	case <-ctx.Done():
		return Result{EventID: ev.ID}, fmt.Errorf("event %s queued but result not awaited: %w", ev.ID, ctx.Err())
	}
}

// Handle processes ev on the calling goroutine. Callers other than the
// worker must not run concurrently with a started dispatcher.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) Result {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	res := Result{EventID: ev.ID}

	if ev.FromBot || ev.Channel != d.channel {
		res.Ignored = true
		return res
	}

	at := ev.Timestamp
	if at.IsZero() {
		at = d.now()
	}

	intent := d.classifier.Classify(ev.Text)
	out, err := d.machine.Apply(ctx, ev.EmployeeID, ev.EmployeeName, intent, at.UTC())
	if err != nil {
		log.Printf("ERROR event %s from %s (%s): %v", ev.ID, ev.EmployeeName, ev.EmployeeID, err)
		res.Err = err
		return res
	}
	res.Outcome = out

	if out.Applied {
		log.Printf("Event %s: %s %s at %s %s", ev.ID, ev.EmployeeName, out.Effect, out.LocalDate, out.LocalTime)
	} else {
		log.Printf("Event %s: rejected %q from %s: %s", ev.ID, ev.Text, ev.EmployeeName, out.Reason)
	}
	return res
}
