// Package pricing computes debate costs and validates budgets.
package pricing

import (
	"fmt"
	"math"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// Table is an immutable pricing table: fixed cost per invocation keyed
// by role, plus a platform fee percentage applied to the agent subtotal.
// Injected into the estimator and engine at construction; never mutated.
type Table struct {
	RoleCosts      map[core.Role]float64
	PlatformFeePct float64
}

// DefaultTable returns the built-in pricing table. Amounts are in USD.
func DefaultTable() Table {
	return Table{
		RoleCosts: map[core.Role]float64{
			core.RoleModerator:   0.010,
			core.RoleDebaterPro:  0.020,
			core.RoleDebaterCon:  0.020,
			core.RoleFactChecker: 0.015,
			core.RoleJudge:       0.030,
			core.RoleSummarizer:  0.010,
		},
		PlatformFeePct: 10,
	}
}

// Cost returns the fixed price of one invocation for the role.
func (t Table) Cost(role core.Role) float64 {
	return t.RoleCosts[role]
}

// Validate checks that the table prices every role and the fee is sane.
func (t Table) Validate() error {
	for _, role := range core.AllRoles {
		cost, ok := t.RoleCosts[role]
		if !ok {
			return fmt.Errorf("pricing table missing role: %s", role)
		}
		if cost < 0 {
			return fmt.Errorf("negative cost for role %s: %f", role, cost)
		}
	}
	if t.PlatformFeePct < 0 || t.PlatformFeePct > 100 {
		return fmt.Errorf("platform fee percentage out of range: %f", t.PlatformFeePct)
	}
	return nil
}

// Estimate computes the cost breakdown for a debate of the given round
// count: 1 moderator + rounds x (pro + con + fact-check + judge score)
// + 1 judge verdict + 1 summarizer, plus the platform fee on the agent
// subtotal. The verdict step is billed at the judge's price.
func (t Table) Estimate(rounds int) *core.CostBreakdown {
	if rounds < 0 {
		rounds = 0
	}

	steps := []core.StepCost{
		{Role: core.RoleModerator, Count: 1, Unit: t.Cost(core.RoleModerator)},
		{Role: core.RoleDebaterPro, Count: rounds, Unit: t.Cost(core.RoleDebaterPro)},
		{Role: core.RoleDebaterCon, Count: rounds, Unit: t.Cost(core.RoleDebaterCon)},
		{Role: core.RoleFactChecker, Count: rounds, Unit: t.Cost(core.RoleFactChecker)},
		// Judge scores each round and delivers the verdict.
		{Role: core.RoleJudge, Count: rounds + 1, Unit: t.Cost(core.RoleJudge)},
		{Role: core.RoleSummarizer, Count: 1, Unit: t.Cost(core.RoleSummarizer)},
	}

	var subtotal float64
	for i := range steps {
		steps[i].Subtotal = round4(float64(steps[i].Count) * steps[i].Unit)
		subtotal += steps[i].Subtotal
	}
	subtotal = round4(subtotal)

	fee := round4(subtotal * t.PlatformFeePct / 100)

	return &core.CostBreakdown{
		Rounds:        rounds,
		Steps:         steps,
		AgentSubtotal: subtotal,
		PlatformFee:   fee,
		Total:         round4(subtotal + fee),
	}
}

// ValidateBalance reports whether the balance covers a debate of the
// given round count. Callers gate execution pessimistically with the
// configured maximum rounds, since the realized round count is only
// known after the run completes.
func (t Table) ValidateBalance(balance float64, rounds int) bool {
	return balance >= t.Estimate(rounds).Total
}

// round4 rounds to 4 decimal places, enough for sub-cent USD pricing.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
