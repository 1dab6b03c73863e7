// Package engine orchestrates scripted debate runs between role agents.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redwing-381/ethglb-p1-sub001/internal/agent"
	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
	"github.com/redwing-381/ethglb-p1-sub001/internal/ledger"
	"github.com/redwing-381/ethglb-p1-sub001/internal/pricing"
)

// DefaultMaxRounds is the round ceiling used when none is configured.
const DefaultMaxRounds = 3

// StepCallback is called after each controller step with the emitted
// activity event and the recorded contribution.
type StepCallback func(event core.ActivityEvent, contribution *core.Contribution)

// Options configures one debate run.
type Options struct {
	// MaxRounds is the hard ceiling on debate rounds.
	MaxRounds int

	// Budget is the caller's available balance. The run refuses to
	// start unless it covers the pessimistic estimate at MaxRounds.
	Budget float64

	// Payer is the identity billed for each step.
	Payer string
}

// Engine drives the debate protocol:
//
//	Introduction -> (Pro -> Con -> FactCheck -> Judge)* -> Verdict -> Summary
//
// Each step runs strictly in sequence because every step after the
// introduction consumes the full accumulated context. Individual step
// failures are recorded and the run always reaches completion; the only
// aborting errors are precondition violations before the first step.
type Engine struct {
	invoker agent.Invoker
	prices  pricing.Table
	prompts *agent.Prompts
}

// New creates an engine using the given invoker and pricing table.
func New(invoker agent.Invoker, prices pricing.Table) (*Engine, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	if err := prices.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing table: %w", err)
	}

	prompts, err := agent.NewPrompts()
	if err != nil {
		return nil, fmt.Errorf("failed to build prompts: %w", err)
	}

	return &Engine{
		invoker: invoker,
		prices:  prices,
		prompts: prompts,
	}, nil
}

// Estimate returns the cost breakdown for a debate of the given round count.
func (e *Engine) Estimate(rounds int) *core.CostBreakdown {
	return e.prices.Estimate(rounds)
}

// ValidateBalance reports whether the balance covers a debate of the
// given round count, using the same pessimistic gate Run applies.
func (e *Engine) ValidateBalance(balance float64, rounds int) bool {
	return e.prices.ValidateBalance(balance, rounds)
}

// Run executes one full debate on the topic. The returned RunResult is
// always fully populated once the preconditions pass, even if every
// individual step failed.
func (e *Engine) Run(ctx context.Context, topic string, opts Options, callback StepCallback) (*core.RunResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	// Pessimistic gating: the realized round count is only known after
	// the run, so the budget must cover the ceiling.
	estimate := e.prices.Estimate(maxRounds)
	if !e.prices.ValidateBalance(opts.Budget, maxRounds) {
		return nil, fmt.Errorf("insufficient balance: have %.4f, need %.4f for %d round(s)",
			opts.Budget, estimate.Total, maxRounds)
	}

	slog.Info("Starting debate", "topic", topic, "max_rounds", maxRounds, "estimated_cost", estimate.Total)

	start := time.Now()
	state := &core.DebateState{
		Topic:     topic,
		MaxRounds: maxRounds,
	}
	recorder := ledger.NewRecorder(opts.Payer)

	// Introduction: topic only, no context. Advisory, never gating.
	e.runStep(ctx, state, recorder, agent.StepIntroduction, 0, agent.PromptData{Topic: topic}, callback)

	for round := 1; ; round++ {
		state.CurrentRound = round

		e.runStep(ctx, state, recorder, agent.StepProArgument, round, agent.PromptData{
			Topic:   topic,
			Round:   round,
			Context: core.BuildContext(state.Contributions),
		}, callback)

		// Con sees pro's argument for this round through the rebuilt context.
		e.runStep(ctx, state, recorder, agent.StepConArgument, round, agent.PromptData{
			Topic:   topic,
			Round:   round,
			Context: core.BuildContext(state.Contributions),
		}, callback)

		e.runStep(ctx, state, recorder, agent.StepFactCheck, round, agent.PromptData{
			Topic:   topic,
			Round:   round,
			Context: core.BuildContext(state.Contributions),
		}, callback)

		judge := e.runStep(ctx, state, recorder, agent.StepScore, round, agent.PromptData{
			Topic:   topic,
			Round:   round,
			Context: core.BuildContext(state.Contributions),
		}, callback)

		score := e.scoreFromContribution(judge)
		judge.Score = score
		state.Scores = append(state.Scores, score)

		// The judge's needsMoreRounds signal is informational only;
		// the round ceiling is authoritative.
		if round >= maxRounds {
			break
		}
	}

	pro, con := state.Totals()
	rounds := len(state.Scores)

	// Verdict: free-text judge reasoning over the transcript and totals.
	verdict := e.runStep(ctx, state, recorder, agent.StepVerdict, 0, agent.PromptData{
		Topic:    topic,
		Round:    rounds,
		Context:  core.BuildContext(state.Contributions),
		ProTotal: pro,
		ConTotal: con,
	}, callback)

	summary := e.runStep(ctx, state, recorder, agent.StepSummary, 0, agent.PromptData{
		Topic:   topic,
		Context: core.BuildContext(state.Contributions),
	}, callback)

	state.IsComplete = true

	transcript := buildTranscript(state, verdict.Content, summary.Content)

	slog.Info("Debate completed",
		"topic", topic,
		"rounds", rounds,
		"winner", transcript.Winner,
		"total_paid", recorder.TotalPaid(),
	)

	return &core.RunResult{
		ID:            core.GenerateID(),
		Topic:         topic,
		Transcript:    transcript,
		Contributions: state.Contributions,
		Payments:      recorder.Payments(),
		Events:        recorder.Events(),
		Cost:          e.prices.Estimate(rounds),
		CreatedAt:     start,
		CompletedAt:   time.Now(),
	}, nil
}

// runStep executes one controller step: build the prompt, invoke the
// agent, record the contribution, and emit the payment/event pair. A
// failed invocation produces a failed contribution; it never aborts the
// run.
func (e *Engine) runStep(ctx context.Context, state *core.DebateState, recorder *ledger.Recorder, step agent.Step, round int, data agent.PromptData, callback StepCallback) *core.Contribution {
	role, err := step.Role()
	if err != nil {
		// Unreachable with the fixed step sequence; guard anyway.
		role = core.RoleModerator
	}

	contribution := &core.Contribution{
		ID:        core.GenerateID(),
		Role:      role,
		AgentName: role.AgentName(),
		Round:     round,
		CreatedAt: time.Now(),
	}

	prompt, err := e.prompts.Build(step, data)
	if err == nil {
		var content string
		content, err = e.invoker.Invoke(ctx, role, prompt)
		if err == nil {
			contribution.Content = content
			contribution.Success = true
		}
	}
	if err != nil {
		slog.Error("Step failed", "step", step, "role", role, "round", round, "error", err)
		contribution.Error = err.Error()
	}

	if step == agent.StepFactCheck && contribution.Success {
		contribution.FactCheck = core.ParseFactCheck(contribution.Content)
	}

	state.Contributions = append(state.Contributions, contribution)
	recorder.RecordStep(role, round, e.prices.Cost(role), contribution.Success)

	if callback != nil {
		callback(*recorder.LastEvent(), contribution)
	}

	return contribution
}

// scoreFromContribution coerces a judge contribution into a RoundScore.
// Invocation failures yield the neutral default so the round loop never
// stalls on a missing score.
func (e *Engine) scoreFromContribution(judge *core.Contribution) *core.RoundScore {
	if !judge.Success {
		return &core.RoundScore{
			ProScore:        5,
			ConScore:        5,
			Reasoning:       "Judge failed to respond",
			NeedsMoreRounds: false,
		}
	}
	return core.ParseRoundScore(judge.Content)
}

// buildTranscript assembles the final caller-facing transcript from the
// completed state.
func buildTranscript(state *core.DebateState, verdict, summary string) *core.Transcript {
	rounds := make([]core.RoundRecord, 0, len(state.Scores))
	for i := 1; i <= len(state.Scores); i++ {
		record := core.RoundRecord{Number: i, Score: state.Scores[i-1]}
		for _, c := range state.Contributions {
			if c.Round != i {
				continue
			}
			switch c.Role {
			case core.RoleDebaterPro:
				record.ProArgument = c.Content
			case core.RoleDebaterCon:
				record.ConArgument = c.Content
			case core.RoleFactChecker:
				record.FactCheck = c.FactCheck
			}
		}
		rounds = append(rounds, record)
	}

	return &core.Transcript{
		Topic:       state.Topic,
		Rounds:      rounds,
		Verdict:     verdict,
		Summary:     summary,
		Winner:      state.Winner(),
		TotalRounds: len(state.Scores),
	}
}
