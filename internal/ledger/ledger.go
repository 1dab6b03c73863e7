// Package ledger records the payment and activity event stream for a
// debate run.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// Recorder accumulates one payment record and one activity event per
// billable step, in emission order. It is a pure projection of the
// controller's step transitions: it never deduplicates, reorders, or
// batches. Owned by a single run; not safe for concurrent use.
type Recorder struct {
	payer    string
	payments []core.PaymentRecord
	events   []core.ActivityEvent
}

// NewRecorder creates a recorder that bills steps to the given payer.
func NewRecorder(payer string) *Recorder {
	if payer == "" {
		payer = "user"
	}
	return &Recorder{payer: payer}
}

// RecordStep emits the payment/event pair for one completed step.
// Failed steps are still billed: the invocation was attempted and the
// event stream is the caller's only evidence of degraded quality.
func (r *Recorder) RecordStep(role core.Role, round int, amount float64, success bool) {
	now := time.Now()

	r.payments = append(r.payments, core.PaymentRecord{
		ID:        uuid.NewString(),
		From:      r.payer,
		To:        role.AgentName(),
		Amount:    amount,
		Role:      role,
		Round:     round,
		CreatedAt: now,
	})

	eventType := core.EventStepCompleted
	description := fmt.Sprintf("%s completed round %d", role.AgentName(), round)
	if !success {
		eventType = core.EventStepFailed
		description = fmt.Sprintf("%s failed in round %d", role.AgentName(), round)
	}

	r.events = append(r.events, core.ActivityEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		Role:        role,
		AgentName:   role.AgentName(),
		Round:       round,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	})
}

// Payments returns the ordered payment records emitted so far.
func (r *Recorder) Payments() []core.PaymentRecord {
	return r.payments
}

// Events returns the ordered activity events emitted so far.
func (r *Recorder) Events() []core.ActivityEvent {
	return r.events
}

// LastEvent returns the most recently emitted event, or nil.
func (r *Recorder) LastEvent() *core.ActivityEvent {
	if len(r.events) == 0 {
		return nil
	}
	return &r.events[len(r.events)-1]
}

// TotalPaid returns the sum of all payment amounts emitted so far.
func (r *Recorder) TotalPaid() float64 {
	var total float64
	for _, p := range r.payments {
		total += p.Amount
	}
	return total
}
