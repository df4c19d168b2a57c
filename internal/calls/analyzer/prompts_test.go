package analyzer

import (
	"strings"
	"testing"
)

func TestBuildAnalysisPromptContainsSections(t *testing.T) {
	prompt := buildAnalysisPrompt(
		"Rep: How is the rollout going?\nProspect: We need two more seats.",
		"Demo Readiness",
		"# Demo Readiness\nAssess whether the prospect should see the product.",
	)

	for _, want := range []string{
		"Analysis lens: Demo Readiness",
		"Assess whether the prospect should see the product.",
		"--- TRANSCRIPT START ---",
		"We need two more seats.",
		"--- TRANSCRIPT END ---",
		"SaveAnalysis",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if strings.Index(prompt, "Analysis lens") > strings.Index(prompt, "TRANSCRIPT START") {
		t.Error("lens should precede the transcript")
	}
}

func TestFallbackResult(t *testing.T) {
	t.Run("empty output fails", func(t *testing.T) {
		if _, err := fallbackResult("   \n  "); err == nil {
			t.Fatal("expected error for empty output")
		}
	})

	t.Run("plain text becomes raw determination", func(t *testing.T) {
		result, err := fallbackResult("The prospect seemed lukewarm.")
		if err != nil {
			t.Fatalf("fallbackResult() error = %v", err)
		}
		if _, ok := result.Determination.Structured(); ok {
			t.Error("plain text should not produce a structured determination")
		}
		if result.Summary != "The prospect seemed lukewarm." {
			t.Errorf("Summary = %q", result.Summary)
		}
	})

	t.Run("json output becomes structured determination", func(t *testing.T) {
		result, err := fallbackResult(`{"likelihood_to_close": "high", "prospect_qualification_level": "qualified", "red_flags": []}`)
		if err != nil {
			t.Fatalf("fallbackResult() error = %v", err)
		}
		fields, ok := result.Determination.Structured()
		if !ok {
			t.Fatal("expected structured determination from JSON output")
		}
		if fields.LikelihoodToClose != "high" {
			t.Errorf("LikelihoodToClose = %q", fields.LikelihoodToClose)
		}
	})
}
