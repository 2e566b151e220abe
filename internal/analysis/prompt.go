// Package analysis produces the AI analyst's summary of the standings.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/prn-tf/eday-ledger/internal/domain"
)

// SystemInstruction sets the analyst's persona.
const SystemInstruction = "You are an expert election analyst for E-Day, a secure digital voting platform. " +
	"Your tone is professional, neutral, and informative."

// Temperature is the sampling temperature sent with every request.
const Temperature = 0.7

// Summarizer turns a candidate snapshot into a short natural-language summary.
type Summarizer interface {
	Summarize(ctx context.Context, candidates []domain.Candidate) (string, error)
}

// BuildPrompt renders the standings prompt for a candidate snapshot.
func BuildPrompt(candidates []domain.Candidate) string {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("%s (%s): %d votes", c.Name, c.Language, c.Votes))
	}

	var b strings.Builder
	b.WriteString("Analyze the current results of the E-Day Online Voting System.\n")
	b.WriteString("Current Standings:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nPlease provide a brief, professional summary of the results, highlighting the frontrunner ")
	b.WriteString("and any interesting observations about the distribution of votes between Tswana and Zulu candidates. ")
	b.WriteString("Keep it encouraging and neutral.")
	return b.String()
}
