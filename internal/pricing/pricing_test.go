package pricing

import (
	"math"
	"testing"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDefaultTableValid(t *testing.T) {
	if err := DefaultTable().Validate(); err != nil {
		t.Fatalf("default table should validate: %v", err)
	}
}

func TestTableValidate(t *testing.T) {
	t.Run("MissingRole", func(t *testing.T) {
		table := DefaultTable()
		delete(table.RoleCosts, core.RoleJudge)
		if err := table.Validate(); err == nil {
			t.Error("expected error for missing role")
		}
	})

	t.Run("NegativeCost", func(t *testing.T) {
		table := DefaultTable()
		table.RoleCosts[core.RoleModerator] = -0.01
		if err := table.Validate(); err == nil {
			t.Error("expected error for negative cost")
		}
	})

	t.Run("FeeOutOfRange", func(t *testing.T) {
		table := DefaultTable()
		table.PlatformFeePct = 150
		if err := table.Validate(); err == nil {
			t.Error("expected error for fee > 100")
		}
	})
}

func TestEstimate(t *testing.T) {
	table := DefaultTable()

	t.Run("OneRound", func(t *testing.T) {
		breakdown := table.Estimate(1)

		// moderator + (pro + con + fact + judge) + verdict + summarizer
		wantSubtotal := 0.010 + 0.020 + 0.020 + 0.015 + 0.030 + 0.030 + 0.010
		if !almostEqual(breakdown.AgentSubtotal, wantSubtotal) {
			t.Errorf("wrong subtotal: got %f, want %f", breakdown.AgentSubtotal, wantSubtotal)
		}

		wantFee := wantSubtotal * 0.10
		if !almostEqual(breakdown.PlatformFee, wantFee) {
			t.Errorf("wrong fee: got %f, want %f", breakdown.PlatformFee, wantFee)
		}
		if !almostEqual(breakdown.Total, wantSubtotal+wantFee) {
			t.Errorf("wrong total: got %f", breakdown.Total)
		}
		if breakdown.Rounds != 1 {
			t.Errorf("wrong rounds: got %d", breakdown.Rounds)
		}
	})

	t.Run("MonotonicInRounds", func(t *testing.T) {
		one := table.Estimate(1).Total
		two := table.Estimate(2).Total
		three := table.Estimate(3).Total

		if !(one < two && two < three) {
			t.Errorf("estimate not monotonic: %f, %f, %f", one, two, three)
		}
	})

	t.Run("ZeroRounds", func(t *testing.T) {
		breakdown := table.Estimate(0)
		// moderator + verdict + summarizer only
		wantSubtotal := 0.010 + 0.030 + 0.010
		if !almostEqual(breakdown.AgentSubtotal, wantSubtotal) {
			t.Errorf("wrong subtotal: got %f, want %f", breakdown.AgentSubtotal, wantSubtotal)
		}
	})

	t.Run("JudgeCountIncludesVerdict", func(t *testing.T) {
		breakdown := table.Estimate(3)
		for _, step := range breakdown.Steps {
			if step.Role == core.RoleJudge && step.Count != 4 {
				t.Errorf("judge count should be rounds+1: got %d", step.Count)
			}
		}
	})
}

func TestValidateBalance(t *testing.T) {
	table := DefaultTable()
	total := table.Estimate(3).Total

	tests := []struct {
		name    string
		balance float64
		want    bool
	}{
		{"ExactBalance", total, true},
		{"Surplus", total + 1, true},
		{"Shortfall", total - 0.001, false},
		{"Zero", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.ValidateBalance(tt.balance, 3); got != tt.want {
				t.Errorf("ValidateBalance(%f, 3) = %v, want %v", tt.balance, got, tt.want)
			}
		})
	}
}
