package agent

import (
	"context"
	"fmt"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// MockInvoker returns scripted responses per role, cycling when a role
// is invoked more times than it has responses. Roles listed in Fail
// always error. Used in tests and for offline runs.
type MockInvoker struct {
	Responses map[core.Role][]string
	Fail      map[core.Role]bool

	calls map[core.Role]int
}

// Invoke returns the next scripted response for the role.
func (m *MockInvoker) Invoke(ctx context.Context, role core.Role, prompt string) (string, error) {
	if m.Fail[role] {
		return "", &InvocationError{Role: role, Message: "scripted failure"}
	}

	responses := m.Responses[role]
	if len(responses) == 0 {
		return fmt.Sprintf("%s response", role.AgentName()), nil
	}

	if m.calls == nil {
		m.calls = make(map[core.Role]int)
	}
	idx := m.calls[role] % len(responses)
	m.calls[role]++
	return responses[idx], nil
}

// NewOfflineInvoker returns a mock invoker with canned responses that
// exercise the full protocol, including valid structured output for
// the judge and fact checker. Lets the tool run end to end without any
// model CLI installed.
func NewOfflineInvoker() *MockInvoker {
	return &MockInvoker{
		Responses: map[core.Role][]string{
			core.RoleModerator: {
				"Welcome to today's debate. Our pro and con debaters will argue the topic across structured rounds, with fact-checking and judging after each round.",
			},
			core.RoleDebaterPro: {
				"The evidence strongly supports this position. Adopting it yields measurable benefits, and the main objections rest on outdated assumptions.",
				"My opponent's concerns are understandable but overstated. The transition costs are one-time, while the benefits compound year over year.",
				"To close: every major objection raised has a practical mitigation, while the status quo carries growing, unmitigated risk.",
			},
			core.RoleDebaterCon: {
				"The proposal overlooks significant risks. Implementation costs are routinely underestimated, and the claimed benefits rely on best-case assumptions.",
				"Calling these costs one-time ignores maintenance and second-order effects. Prudence favors incremental steps over sweeping change.",
				"To close: the burden of proof sits with the side proposing change, and that burden has not been met.",
			},
			core.RoleFactChecker: {
				`{"claims":[{"claim":"Benefits compound year over year","source":"debater_pro","verdict":"unverifiable","explanation":"Projection, not an established fact."},{"claim":"Implementation costs are routinely underestimated","source":"debater_con","verdict":"accurate","explanation":"Consistent with published cost-overrun studies."}],"overallAssessment":"Both sides mixed solid claims with speculation."}`,
			},
			core.RoleJudge: {
				`{"proScore":7,"conScore":6,"reasoning":"Pro presented more concrete evidence; con's risk framing was effective but less specific.","needsMoreRounds":true}`,
				`{"proScore":6,"conScore":7,"reasoning":"Con's rebuttal on costs landed; pro repeated earlier points.","needsMoreRounds":true}`,
				`{"proScore":7,"conScore":5,"reasoning":"Pro's closing tied mitigations to each objection; con relied on burden-of-proof framing.","needsMoreRounds":false}`,
				"Weighing all rounds, the pro side prevailed on evidence quality and responsiveness to objections, though the con side's cost critique was the strongest single argument of the debate.",
			},
			core.RoleSummarizer: {
				"The debate weighed concrete benefits against implementation risk. The fact checker found both sides mixed verified claims with speculation. On cumulative scoring the pro side prevailed narrowly.",
			},
		},
	}
}
