package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

func TestStepRoles(t *testing.T) {
	tests := []struct {
		step Step
		want core.Role
	}{
		{StepIntroduction, core.RoleModerator},
		{StepProArgument, core.RoleDebaterPro},
		{StepConArgument, core.RoleDebaterCon},
		{StepFactCheck, core.RoleFactChecker},
		{StepScore, core.RoleJudge},
		{StepVerdict, core.RoleJudge},
		{StepSummary, core.RoleSummarizer},
	}

	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			role, err := tt.step.Role()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if role != tt.want {
				t.Errorf("got %s, want %s", role, tt.want)
			}
		})
	}

	t.Run("UnknownStep", func(t *testing.T) {
		if _, err := Step("warmup").Role(); err == nil {
			t.Error("expected error for unknown step")
		}
	})
}

func TestPromptsBuild(t *testing.T) {
	prompts, err := NewPrompts()
	if err != nil {
		t.Fatalf("failed to create prompts: %v", err)
	}

	t.Run("Introduction", func(t *testing.T) {
		got, err := prompts.Build(StepIntroduction, PromptData{Topic: "AI regulation"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "AI regulation") {
			t.Error("prompt should contain the topic")
		}
		if !strings.Contains(got, "moderator") {
			t.Error("prompt should contain the moderator system prompt")
		}
	})

	t.Run("ProArgumentIncludesContext", func(t *testing.T) {
		got, err := prompts.Build(StepProArgument, PromptData{
			Topic:   "AI regulation",
			Round:   2,
			Context: "[Moderator - Round 0]: Welcome",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "[Moderator - Round 0]: Welcome") {
			t.Error("prompt should contain the accumulated context")
		}
		if !strings.Contains(got, "round 2") {
			t.Error("prompt should contain the round number")
		}
	})

	t.Run("ScoreRequestsJSON", func(t *testing.T) {
		got, err := prompts.Build(StepScore, PromptData{Topic: "t", Round: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, `"proScore"`) {
			t.Error("score prompt should request the JSON scoring shape")
		}
	})

	t.Run("FactCheckRequestsJSON", func(t *testing.T) {
		got, err := prompts.Build(StepFactCheck, PromptData{Topic: "t", Round: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, `"claims"`) {
			t.Error("fact-check prompt should request the JSON claims shape")
		}
	})

	t.Run("VerdictIncludesTotals", func(t *testing.T) {
		got, err := prompts.Build(StepVerdict, PromptData{
			Topic: "t", Round: 3, ProTotal: 20, ConTotal: 18,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "PRO 20") || !strings.Contains(got, "CON 18") {
			t.Error("verdict prompt should contain the cumulative totals")
		}
	})

	t.Run("UnknownStep", func(t *testing.T) {
		if _, err := prompts.Build(Step("warmup"), PromptData{}); err == nil {
			t.Error("expected error for unknown step")
		}
	})
}

func TestMockInvoker(t *testing.T) {
	ctx := context.Background()

	t.Run("CyclesResponses", func(t *testing.T) {
		mock := &MockInvoker{
			Responses: map[core.Role][]string{
				core.RoleJudge: {"first", "second"},
			},
		}

		for i, want := range []string{"first", "second", "first"} {
			got, err := mock.Invoke(ctx, core.RoleJudge, "prompt")
			if err != nil {
				t.Fatalf("call %d: unexpected error: %v", i, err)
			}
			if got != want {
				t.Errorf("call %d: got %q, want %q", i, got, want)
			}
		}
	})

	t.Run("ScriptedFailure", func(t *testing.T) {
		mock := &MockInvoker{Fail: map[core.Role]bool{core.RoleJudge: true}}
		if _, err := mock.Invoke(ctx, core.RoleJudge, "prompt"); err == nil {
			t.Error("expected scripted failure")
		}
	})

	t.Run("DefaultResponse", func(t *testing.T) {
		mock := &MockInvoker{}
		got, err := mock.Invoke(ctx, core.RoleModerator, "prompt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == "" {
			t.Error("expected a non-empty default response")
		}
	})
}

func TestOfflineInvokerStructuredOutput(t *testing.T) {
	ctx := context.Background()
	mock := NewOfflineInvoker()

	judgeOut, err := mock.Invoke(ctx, core.RoleJudge, "score")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	score := core.ParseRoundScore(judgeOut)
	if score.ProScore == 5 && score.ConScore == 5 && score.Reasoning == judgeOut {
		t.Error("offline judge response should parse as structured output, not fall back")
	}

	factOut, err := mock.Invoke(ctx, core.RoleFactChecker, "check")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := core.ParseFactCheck(factOut)
	if len(result.Claims) == 0 {
		t.Error("offline fact-check response should contain claims")
	}
}
