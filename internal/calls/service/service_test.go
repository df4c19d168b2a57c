package service

import (
	"testing"

	"salesclutch/internal/calls/repository"
	"salesclutch/internal/deals/domain"
)

func TestEncodeDeterminationRoundTrip(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		original := domain.NewStructuredDetermination(domain.StructuredDetermination{
			LikelihoodToClose:  "high",
			QualificationLevel: "qualified",
			RedFlags:           []string{"short contract ask"},
		})

		encoded := encodeDetermination(original)
		decoded := domain.ParseDetermination(encoded)

		fields, ok := decoded.Structured()
		if !ok {
			t.Fatalf("decoded determination lost structure: %q", encoded)
		}
		if fields.LikelihoodToClose != "high" || fields.QualificationLevel != "qualified" {
			t.Errorf("decoded fields = %+v", fields)
		}
		if len(fields.RedFlags) != 1 || fields.RedFlags[0] != "short contract ask" {
			t.Errorf("red flags = %v", fields.RedFlags)
		}
	})

	t.Run("raw", func(t *testing.T) {
		original := domain.NewRawDetermination("prospect sounded hesitant")

		decoded := domain.ParseDetermination(encodeDetermination(original))

		text, ok := decoded.Raw()
		if !ok {
			t.Fatal("raw determination decoded as structured")
		}
		if text != "prospect sounded hesitant" {
			t.Errorf("text = %q", text)
		}
	})
}

func TestAnalysisFromCall(t *testing.T) {
	summary := "Good call, demo requested."
	nextStep := "Schedule the demo"
	determination := `{"likelihood_to_close": "high", "prospect_qualification_level": "qualified", "red_flags": []}`

	call := repository.Call{
		Status:        repository.StatusCompleted,
		Summary:       &summary,
		ActionItems:   []string{"send calendar invite"},
		NextStep:      &nextStep,
		Determination: &determination,
	}

	result := analysisFromCall(call)
	if result.Summary != summary {
		t.Errorf("Summary = %q", result.Summary)
	}
	if result.NextStep != nextStep {
		t.Errorf("NextStep = %q", result.NextStep)
	}
	if _, ok := result.Determination.Structured(); !ok {
		t.Error("determination should decode as structured")
	}
}

func TestAnalysisFromCallWithoutDetermination(t *testing.T) {
	result := analysisFromCall(repository.Call{Status: repository.StatusCompleted})
	if _, ok := result.Determination.Raw(); !ok {
		t.Error("missing determination should decode as raw")
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"call.mp3", "audio/mp3"},
		{"call.ogg", "audio/ogg"},
		{"notes.md", "text/markdown"},
		{"notes.txt", "text/plain"},
	}
	for _, tt := range tests {
		if got := contentTypeFor(tt.fileName); got != tt.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tt.fileName, got, tt.want)
		}
	}
}
