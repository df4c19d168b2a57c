// Package analyzer runs call transcripts through an LLM agent and returns
// the structured analysis the stage machine consumes.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"

	"salesclutch/internal/deals/domain"
	"salesclutch/platform/ai/gemini"
	"salesclutch/platform/logger"
)

const appName = "call-analyzer"

// SaveAnalysisInput is the structured input for the SaveAnalysis tool.
type SaveAnalysisInput struct {
	Summary                    string   `json:"summary"`                    // Three to four sentence recap
	ActionItems                []string `json:"actionItems"`                // Concrete follow-ups with owners where stated
	NextStep                   string   `json:"nextStep"`                   // Recommended next move for the rep
	LikelihoodToClose          string   `json:"likelihoodToClose"`          // very high, high, medium, low
	ProspectQualificationLevel string   `json:"prospectQualificationLevel"` // e.g. qualified, not qualified
	RedFlags                   []string `json:"redFlags"`                   // Deal risks heard on the call
}

type SaveAnalysisOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// resultCapture receives the SaveAnalysis tool call for the current run.
type resultCapture struct {
	mu     sync.Mutex
	result *domain.CallAnalysisResult
}

func (c *resultCapture) set(result domain.CallAnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = &result
}

func (c *resultCapture) take() (domain.CallAnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return domain.CallAnalysisResult{}, false
	}
	result := *c.result
	c.result = nil
	return result, true
}

// Analyzer wraps an ADK agent whose single tool persists the analysis into
// the run's capture slot. Runs are serialized; the capture is per-run state.
type Analyzer struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	capture        *resultCapture
	log            *logger.Logger
	runMu          sync.Mutex
}

func New(ctx context.Context, cfg gemini.Config, log *logger.Logger) (*Analyzer, error) {
	model, err := gemini.NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	capture := &resultCapture{}
	saveAnalysisTool, err := createSaveAnalysisTool(capture)
	if err != nil {
		return nil, fmt.Errorf("failed to build SaveAnalysis tool: %w", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "CallAnalyzer",
		Model:       model,
		Description: "Analyzes sales call transcripts through a chosen instruction lens.",
		Instruction: analyzerSystemInstruction,
		Tools:       []tool.Tool{saveAnalysisTool},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer runner: %w", err)
	}

	return &Analyzer{
		agent:          adkAgent,
		runner:         r,
		sessionService: sessionService,
		capture:        capture,
		log:            log,
	}, nil
}

func createSaveAnalysisTool(capture *resultCapture) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "SaveAnalysis",
		Description: "Saves the completed call analysis. Call this ONCE after your full analysis, with every section filled in: summary, action items, next step, likelihood to close, prospect qualification level, and red flags.",
	}, func(_ tool.Context, input SaveAnalysisInput) (SaveAnalysisOutput, error) {
		if strings.TrimSpace(input.Summary) == "" {
			return SaveAnalysisOutput{Success: false, Message: "summary must not be empty"}, fmt.Errorf("empty summary")
		}

		capture.set(domain.CallAnalysisResult{
			Summary:     input.Summary,
			ActionItems: input.ActionItems,
			NextStep:    input.NextStep,
			Determination: domain.NewStructuredDetermination(domain.StructuredDetermination{
				LikelihoodToClose:  input.LikelihoodToClose,
				QualificationLevel: input.ProspectQualificationLevel,
				RedFlags:           input.RedFlags,
			}),
		})
		return SaveAnalysisOutput{Success: true, Message: "analysis saved"}, nil
	})
}

// Analyze runs the transcript through the agent under the given
// instruction lens. When the agent skips the SaveAnalysis tool the raw
// text output is degraded into a result with a raw determination instead
// of failing the call.
func (a *Analyzer) Analyze(ctx context.Context, transcript, instructionSetName, instructions string) (domain.CallAnalysisResult, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	a.capture.take() // clear any leftover from an aborted run

	userID := "worker"
	sessionID := uuid.New().String()
	cleanup, err := a.createSession(ctx, userID, sessionID)
	if err != nil {
		return domain.CallAnalysisResult{}, err
	}
	defer cleanup()

	prompt := buildAnalysisPrompt(transcript, instructionSetName, instructions)
	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}

	output, err := a.run(ctx, userID, sessionID, userMessage)
	if err != nil {
		return domain.CallAnalysisResult{}, err
	}

	if result, ok := a.capture.take(); ok {
		return result, nil
	}

	a.log.Warn("analyzer did not call SaveAnalysis, degrading to raw output", "instruction_set", instructionSetName)
	return fallbackResult(output)
}

func (a *Analyzer) createSession(ctx context.Context, userID, sessionID string) (func(), error) {
	_, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer session: %w", err)
	}

	cleanup := func() {
		deleteReq := &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		}
		if deleteErr := a.sessionService.Delete(ctx, deleteReq); deleteErr != nil {
			a.log.Warn("failed to delete analyzer session", "session_id", sessionID, "error", deleteErr)
		}
	}

	return cleanup, nil
}

func (a *Analyzer) run(ctx context.Context, userID, sessionID string, userMessage *genai.Content) (string, error) {
	var output strings.Builder
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("analyzer run failed: %w", err)
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				output.WriteString(part.Text)
			}
		}
	}

	return output.String(), nil
}

// fallbackResult builds a usable analysis from raw agent text. The text is
// parsed for a structured determination; failing that it becomes a raw one,
// which the advancement policy treats as no favorable evidence.
func fallbackResult(output string) (domain.CallAnalysisResult, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return domain.CallAnalysisResult{}, fmt.Errorf("analyzer produced no output")
	}

	return domain.CallAnalysisResult{
		Summary:       trimmed,
		Determination: domain.ParseDetermination(trimmed),
	}, nil
}
