package ledger

import (
	"math"
	"testing"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

func TestRecordStep(t *testing.T) {
	rec := NewRecorder("wallet-1")

	rec.RecordStep(core.RoleModerator, 0, 0.01, true)
	rec.RecordStep(core.RoleDebaterPro, 1, 0.02, true)
	rec.RecordStep(core.RoleJudge, 1, 0.03, false)

	payments := rec.Payments()
	events := rec.Events()

	if len(payments) != 3 {
		t.Fatalf("wrong payment count: got %d, want 3", len(payments))
	}
	if len(events) != 3 {
		t.Fatalf("wrong event count: got %d, want 3", len(events))
	}

	t.Run("PaymentFields", func(t *testing.T) {
		p := payments[0]
		if p.From != "wallet-1" {
			t.Errorf("wrong payer: got %q", p.From)
		}
		if p.To != "Moderator" {
			t.Errorf("wrong payee: got %q", p.To)
		}
		if p.Amount != 0.01 {
			t.Errorf("wrong amount: got %f", p.Amount)
		}
		if p.ID == "" {
			t.Error("payment ID is empty")
		}
	})

	t.Run("EmissionOrder", func(t *testing.T) {
		wantRoles := []core.Role{core.RoleModerator, core.RoleDebaterPro, core.RoleJudge}
		for i, want := range wantRoles {
			if payments[i].Role != want {
				t.Errorf("payment %d: got role %s, want %s", i, payments[i].Role, want)
			}
			if events[i].Role != want {
				t.Errorf("event %d: got role %s, want %s", i, events[i].Role, want)
			}
		}
	})

	t.Run("FailureMarked", func(t *testing.T) {
		if events[2].Type != core.EventStepFailed {
			t.Errorf("failed step should emit %s, got %s", core.EventStepFailed, events[2].Type)
		}
		if events[1].Type != core.EventStepCompleted {
			t.Errorf("successful step should emit %s, got %s", core.EventStepCompleted, events[1].Type)
		}
	})

	t.Run("FailedStepStillBilled", func(t *testing.T) {
		if payments[2].Amount != 0.03 {
			t.Errorf("failed step payment amount wrong: got %f", payments[2].Amount)
		}
	})

	t.Run("TotalPaid", func(t *testing.T) {
		if got := rec.TotalPaid(); math.Abs(got-0.06) > 1e-9 {
			t.Errorf("wrong total: got %f, want 0.06", got)
		}
	})
}

func TestDefaultPayer(t *testing.T) {
	rec := NewRecorder("")
	rec.RecordStep(core.RoleSummarizer, 0, 0.01, true)

	if rec.Payments()[0].From != "user" {
		t.Errorf("empty payer should default to user, got %q", rec.Payments()[0].From)
	}
}

func TestLastEvent(t *testing.T) {
	rec := NewRecorder("user")
	if rec.LastEvent() != nil {
		t.Error("empty recorder should have no last event")
	}

	rec.RecordStep(core.RoleModerator, 0, 0.01, true)
	last := rec.LastEvent()
	if last == nil || last.Role != core.RoleModerator {
		t.Errorf("wrong last event: %+v", last)
	}
}
