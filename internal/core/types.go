// Package core contains the core domain types for agora.
package core

import (
	"time"
)

// Role identifies one of the six fixed debate participants.
type Role string

const (
	RoleModerator   Role = "moderator"
	RoleDebaterPro  Role = "debater_pro"
	RoleDebaterCon  Role = "debater_con"
	RoleFactChecker Role = "fact_checker"
	RoleJudge       Role = "judge"
	RoleSummarizer  Role = "summarizer"
)

// AllRoles lists every debate role in protocol order.
var AllRoles = []Role{
	RoleModerator,
	RoleDebaterPro,
	RoleDebaterCon,
	RoleFactChecker,
	RoleJudge,
	RoleSummarizer,
}

// Valid reports whether the role is one of the six known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleModerator, RoleDebaterPro, RoleDebaterCon, RoleFactChecker, RoleJudge, RoleSummarizer:
		return true
	}
	return false
}

// agentNames maps each role to its display name.
var agentNames = map[Role]string{
	RoleModerator:   "Moderator",
	RoleDebaterPro:  "Pro Debater",
	RoleDebaterCon:  "Con Debater",
	RoleFactChecker: "Fact Checker",
	RoleJudge:       "Judge",
	RoleSummarizer:  "Summarizer",
}

// AgentName returns the display name for the role's agent.
func (r Role) AgentName() string {
	if name, ok := agentNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Winner is the outcome of a completed debate.
type Winner string

const (
	WinnerPro Winner = "pro"
	WinnerCon Winner = "con"
	WinnerTie Winner = "tie"
)

// ClaimSource identifies which debater a fact-checked claim came from.
type ClaimSource string

const (
	SourcePro ClaimSource = "debater_pro"
	SourceCon ClaimSource = "debater_con"
)

// ClaimVerdict is the fact checker's ruling on a single claim.
type ClaimVerdict string

const (
	VerdictAccurate     ClaimVerdict = "accurate"
	VerdictMisleading   ClaimVerdict = "misleading"
	VerdictFalse        ClaimVerdict = "false"
	VerdictUnverifiable ClaimVerdict = "unverifiable"
)

// RoundScore is the judge's structured scoring for one round.
// Field tags match the JSON shape the judge is prompted to emit.
type RoundScore struct {
	ProScore        int    `json:"proScore"`
	ConScore        int    `json:"conScore"`
	Reasoning       string `json:"reasoning"`
	NeedsMoreRounds bool   `json:"needsMoreRounds"`
}

// ClaimVerification is one fact-checked claim from a debater's argument.
type ClaimVerification struct {
	Claim       string       `json:"claim"`
	Source      ClaimSource  `json:"source"`
	Verdict     ClaimVerdict `json:"verdict"`
	Explanation string       `json:"explanation"`
}

// FactCheckResult is the fact checker's structured output for one round.
type FactCheckResult struct {
	Claims            []ClaimVerification `json:"claims"`
	OverallAssessment string              `json:"overallAssessment"`
}

// Contribution records one agent's output for one step of the debate.
// Round is 0 for introduction, verdict, and summary steps. Immutable
// once created.
type Contribution struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	AgentName string           `json:"agent_name"`
	Round     int              `json:"round"`
	Content   string           `json:"content"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Score     *RoundScore      `json:"score,omitempty"`
	FactCheck *FactCheckResult `json:"fact_check,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// DebateState is the mutable aggregate owned by the round controller
// for the duration of one run. Not safe for concurrent use; each run
// owns its own instance.
type DebateState struct {
	Topic         string          `json:"topic"`
	CurrentRound  int             `json:"current_round"`
	MaxRounds     int             `json:"max_rounds"`
	Contributions []*Contribution `json:"contributions"`
	Scores        []*RoundScore   `json:"scores"`
	IsComplete    bool            `json:"is_complete"`
}

// Totals returns the cumulative pro and con scores across all completed rounds.
func (s *DebateState) Totals() (pro, con int) {
	for _, sc := range s.Scores {
		pro += sc.ProScore
		con += sc.ConScore
	}
	return pro, con
}

// Winner derives the debate outcome from the cumulative totals.
func (s *DebateState) Winner() Winner {
	pro, con := s.Totals()
	switch {
	case pro > con:
		return WinnerPro
	case con > pro:
		return WinnerCon
	default:
		return WinnerTie
	}
}

// RoundRecord is one completed round in the final transcript.
type RoundRecord struct {
	Number      int              `json:"number"`
	ProArgument string           `json:"pro_argument"`
	ConArgument string           `json:"con_argument"`
	FactCheck   *FactCheckResult `json:"fact_check,omitempty"`
	Score       *RoundScore      `json:"score,omitempty"`
}

// Transcript is the final, caller-facing record of a completed debate.
type Transcript struct {
	Topic       string        `json:"topic"`
	Rounds      []RoundRecord `json:"rounds"`
	Verdict     string        `json:"verdict"`
	Summary     string        `json:"summary"`
	Winner      Winner        `json:"winner"`
	TotalRounds int           `json:"total_rounds"`
}

// StepCost is one line of a cost breakdown: how many invocations of a
// role and what they cost in total.
type StepCost struct {
	Role     Role    `json:"role"`
	Count    int     `json:"count"`
	Unit     float64 `json:"unit"`
	Subtotal float64 `json:"subtotal"`
}

// CostBreakdown is a read-only cost snapshot for a given round count.
// Computed pessimistically before a run to gate on budget, and again
// at the realized round count after completion.
type CostBreakdown struct {
	Rounds        int        `json:"rounds"`
	Steps         []StepCost `json:"steps"`
	AgentSubtotal float64    `json:"agent_subtotal"`
	PlatformFee   float64    `json:"platform_fee"`
	Total         float64    `json:"total"`
}

// PaymentRecord is the settlement record for one billable step.
type PaymentRecord struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Role      Role      `json:"role"`
	Round     int       `json:"round"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType classifies activity events.
type EventType string

const (
	EventStepCompleted EventType = "step_completed"
	EventStepFailed    EventType = "step_failed"
)

// ActivityEvent mirrors one controller step for external consumers.
// Exactly one event is emitted per billable step, in emission order.
type ActivityEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Role        Role      `json:"role"`
	AgentName   string    `json:"agent_name"`
	Round       int       `json:"round"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunResult is the full output bundle of one debate run.
type RunResult struct {
	ID            string          `json:"id"`
	Topic         string          `json:"topic"`
	Transcript    *Transcript     `json:"transcript"`
	Contributions []*Contribution `json:"contributions"`
	Payments      []PaymentRecord `json:"payments"`
	Events        []ActivityEvent `json:"events"`
	Cost          *CostBreakdown  `json:"cost"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// RunSummary is a lightweight representation for listing archived runs.
type RunSummary struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Winner      Winner    `json:"winner"`
	TotalRounds int       `json:"total_rounds"`
	TotalCost   float64   `json:"total_cost"`
	CreatedAt   time.Time `json:"created_at"`
}
