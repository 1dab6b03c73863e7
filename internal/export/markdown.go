package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// MarkdownExporter exports debate runs to Markdown format.
type MarkdownExporter struct{}

// Export writes the run as Markdown.
func (e *MarkdownExporter) Export(result *core.RunResult, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", result.Topic))

	sb.WriteString("## Debate Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", result.ID))
	sb.WriteString(fmt.Sprintf("- **Rounds:** %d\n", result.Transcript.TotalRounds))
	sb.WriteString(fmt.Sprintf("- **Winner:** %s\n", result.Transcript.Winner))
	sb.WriteString(fmt.Sprintf("- **Started:** %s\n", result.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString(fmt.Sprintf("- **Duration:** %s\n", formatDuration(result.CreatedAt, result.CompletedAt)))
	sb.WriteString("\n")

	for _, round := range result.Transcript.Rounds {
		sb.WriteString(fmt.Sprintf("## Round %d\n\n", round.Number))

		sb.WriteString("### Pro Debater\n\n")
		sb.WriteString(round.ProArgument + "\n\n")

		sb.WriteString("### Con Debater\n\n")
		sb.WriteString(round.ConArgument + "\n\n")

		if round.FactCheck != nil {
			sb.WriteString("### Fact Check\n\n")
			for _, claim := range round.FactCheck.Claims {
				sb.WriteString(fmt.Sprintf("- **%s** (%s): %q — %s\n", claim.Verdict, claim.Source, claim.Claim, claim.Explanation))
			}
			if len(round.FactCheck.Claims) > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(round.FactCheck.OverallAssessment + "\n\n")
		}

		if round.Score != nil {
			sb.WriteString("### Judge\n\n")
			sb.WriteString(fmt.Sprintf("**Pro %d — Con %d.** %s\n\n", round.Score.ProScore, round.Score.ConScore, round.Score.Reasoning))
		}
	}

	sb.WriteString("## Verdict\n\n")
	sb.WriteString(result.Transcript.Verdict + "\n\n")

	sb.WriteString("## Summary\n\n")
	sb.WriteString(result.Transcript.Summary + "\n\n")

	if len(result.Payments) > 0 {
		sb.WriteString("## Payments\n\n")
		sb.WriteString("| Step | To | Amount |\n")
		sb.WriteString("|------|----|--------|\n")
		var total float64
		for i, p := range result.Payments {
			sb.WriteString(fmt.Sprintf("| %d | %s | $%.4f |\n", i+1, p.To, p.Amount))
			total += p.Amount
		}
		sb.WriteString(fmt.Sprintf("| | **Total** | **$%.4f** |\n\n", total))
	}

	if result.Cost != nil {
		sb.WriteString(fmt.Sprintf("Platform fee: $%.4f — Total cost: $%.4f\n", result.Cost.PlatformFee, result.Cost.Total))
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
