// Package agent provides the agent invocation layer: prompt
// construction per debate step and pluggable invokers that run the
// underlying model for a role.
package agent

import (
	"context"
	"fmt"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// Invoker executes one agent invocation for a role. Implementations
// are treated as black boxes that may fail; the controller records
// failures and proceeds.
type Invoker interface {
	Invoke(ctx context.Context, role core.Role, prompt string) (string, error)
}

// Step identifies one kind of controller step. Steps map onto roles,
// but not 1:1: the judge both scores rounds and delivers the verdict.
type Step string

const (
	StepIntroduction Step = "introduction"
	StepProArgument  Step = "pro_argument"
	StepConArgument  Step = "con_argument"
	StepFactCheck    Step = "fact_check"
	StepScore        Step = "score"
	StepVerdict      Step = "verdict"
	StepSummary      Step = "summary"
)

// StepRoles maps each step to the role that executes it.
var StepRoles = map[Step]core.Role{
	StepIntroduction: core.RoleModerator,
	StepProArgument:  core.RoleDebaterPro,
	StepConArgument:  core.RoleDebaterCon,
	StepFactCheck:    core.RoleFactChecker,
	StepScore:        core.RoleJudge,
	StepVerdict:      core.RoleJudge,
	StepSummary:      core.RoleSummarizer,
}

// Role returns the role that executes the step.
func (s Step) Role() (core.Role, error) {
	role, ok := StepRoles[s]
	if !ok {
		return "", fmt.Errorf("unknown step: %s", s)
	}
	return role, nil
}

// InvocationError represents a failed agent invocation.
type InvocationError struct {
	Role    core.Role
	Message string
	Err     error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s agent error: %s: %v", e.Role, e.Message, e.Err)
	}
	return fmt.Sprintf("%s agent error: %s", e.Role, e.Message)
}

// Unwrap returns the underlying error.
func (e *InvocationError) Unwrap() error {
	return e.Err
}
