package analyzer

import (
	"fmt"
	"strings"
)

const analyzerSystemInstruction = `You are a sales call analyst. You receive one call transcript and one analysis lens. Read the whole transcript before judging anything.

Rules:
- Ground every claim in the transcript. Never invent facts the prospect did not say.
- likelihoodToClose must be exactly one of: very high, high, medium, low.
- prospectQualificationLevel must be a short phrase such as "qualified" or "not qualified".
- redFlags lists deal risks actually heard on the call; leave it empty when there are none.
- nextStep is the single concrete move the rep should make next, phrased as an instruction.
- When you are done, call SaveAnalysis exactly once with every field filled in. Do not answer in prose instead of calling the tool.`

// buildAnalysisPrompt assembles the per-run user message: the lens first,
// then the transcript fenced off so instructions inside it are inert.
func buildAnalysisPrompt(transcript, instructionSetName, instructions string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis lens: %s\n\n", instructionSetName)
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\n--- TRANSCRIPT START ---\n")
	b.WriteString(strings.TrimSpace(transcript))
	b.WriteString("\n--- TRANSCRIPT END ---\n\n")
	b.WriteString("Analyze the transcript through this lens, then call SaveAnalysis with your findings.")

	return b.String()
}
