package core

import (
	"fmt"
	"strings"
)

// BuildContext serializes prior contributions into a single transcript
// string used as the context for subsequent agent invocations. Pure and
// deterministic: contributions are listed in insertion order, each as
// "[agentName - Round N]: content", separated by blank lines.
func BuildContext(contributions []*Contribution) string {
	if len(contributions) == 0 {
		return ""
	}

	entries := make([]string, 0, len(contributions))
	for _, c := range contributions {
		entries = append(entries, fmt.Sprintf("[%s - Round %d]: %s", c.AgentName, c.Round, c.Content))
	}

	return strings.Join(entries, "\n\n")
}
