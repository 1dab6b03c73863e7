package agent

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// PromptData carries the values available to step templates.
type PromptData struct {
	Topic    string
	Round    int
	Context  string
	ProTotal int
	ConTotal int
}

// systemPrompts holds the per-role system prompt prepended to every
// step prompt for that role.
var systemPrompts = map[core.Role]string{
	core.RoleModerator: `You are the moderator of a structured debate. Your approach:
- Frame the topic neutrally and set expectations
- Do not take a side
- Keep introductions brief and engaging`,
	core.RoleDebaterPro: `You are the PRO debater. Your approach:
- Argue in favor of the topic with your strongest points
- Use concrete evidence and examples
- Rebut the opposing side's arguments directly
- Stay persuasive but factual`,
	core.RoleDebaterCon: `You are the CON debater. Your approach:
- Argue against the topic with your strongest points
- Use concrete evidence and examples
- Rebut the opposing side's arguments directly
- Stay persuasive but factual`,
	core.RoleFactChecker: `You are the fact checker. Your approach:
- Identify the key factual claims made by each debater
- Rule each claim accurate, misleading, false, or unverifiable
- Explain each ruling in one sentence
- Be strictly neutral`,
	core.RoleJudge: `You are the judge. Your approach:
- Score each side on argument strength, evidence, and rebuttals
- Be impartial; do not reward style over substance
- Explain your scoring briefly`,
	core.RoleSummarizer: `You are the summarizer. Your approach:
- Capture the main arguments of both sides objectively
- Note the fact-check findings and the outcome
- Keep it concise`,
}

// stepTemplates holds the instruction template for each step.
var stepTemplates = map[Step]string{
	StepIntroduction: `Introduce a debate on the topic: "{{.Topic}}"

Welcome the audience, state the topic, and explain that a pro debater and a con debater will argue across rounds with fact-checking and judging.`,

	StepProArgument: `This is round {{.Round}} of the debate on: "{{.Topic}}"

Debate so far:
{{.Context}}

Present your strongest argument IN FAVOR of the topic for this round. Address any opposing points already made.`,

	StepConArgument: `This is round {{.Round}} of the debate on: "{{.Topic}}"

Debate so far:
{{.Context}}

Present your strongest argument AGAINST the topic for this round. Address the pro debater's argument from this round directly.`,

	StepFactCheck: `This is round {{.Round}} of the debate on: "{{.Topic}}"

Debate so far:
{{.Context}}

Fact-check the claims made by both debaters in this round.

Respond with a JSON object in this exact shape:
{"claims":[{"claim":"...","source":"debater_pro","verdict":"accurate","explanation":"..."}],"overallAssessment":"..."}

Valid source values: debater_pro, debater_con. Valid verdict values: accurate, misleading, false, unverifiable.`,

	StepScore: `This is round {{.Round}} of the debate on: "{{.Topic}}"

Debate so far:
{{.Context}}

Score this round. Rate each side from 1 to 10.

Respond with a JSON object in this exact shape:
{"proScore":7,"conScore":5,"reasoning":"...","needsMoreRounds":false}`,

	StepVerdict: `The debate on "{{.Topic}}" has concluded after {{.Round}} round(s).

Full debate:
{{.Context}}

Cumulative scores: PRO {{.ProTotal}}, CON {{.ConTotal}}.

Deliver your final verdict. Explain which side prevailed and why, referencing the strongest arguments and the fact-check findings.`,

	StepSummary: `Summarize the debate on: "{{.Topic}}"

Full debate:
{{.Context}}

Provide a brief, objective summary of the main arguments on each side, the fact-check findings, and the outcome.`,
}

// Prompts builds the full prompt for each debate step from the role's
// system prompt and the step's instruction template.
type Prompts struct {
	templates map[Step]*template.Template
}

// NewPrompts parses the built-in step templates.
func NewPrompts() (*Prompts, error) {
	templates := make(map[Step]*template.Template, len(stepTemplates))
	for step, text := range stepTemplates {
		tmpl, err := template.New(string(step)).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template for step %s: %w", step, err)
		}
		templates[step] = tmpl
	}
	return &Prompts{templates: templates}, nil
}

// Build renders the full prompt for a step: the executing role's system
// prompt followed by the rendered step instructions.
func (p *Prompts) Build(step Step, data PromptData) (string, error) {
	tmpl, ok := p.templates[step]
	if !ok {
		return "", fmt.Errorf("no template for step: %s", step)
	}

	role, err := step.Role()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template for step %s: %w", step, err)
	}

	return fmt.Sprintf("%s\n\n%s", systemPrompts[role], buf.String()), nil
}
