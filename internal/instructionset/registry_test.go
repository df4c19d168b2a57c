package instructionset

import (
	"os"
	"path/filepath"
	"testing"

	"salesclutch/internal/deals/domain"
	"salesclutch/platform/logger"
)

func writeRegistry(t *testing.T, yamlBody string, instructions map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range instructions {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, "instruction_sets.yaml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validRegistry = `
instruction_sets:
  - id: discovery_questioning
    name: Discovery Questioning
    description: Probes pain points and budget fit.
    instruction_file: discovery.md
    stage: discovery
  - id: demo_readiness
    name: Demo Readiness
    description: Judges whether the prospect is ready to see the product.
    instruction_file: demo.md
    stage: demo
  - id: general_notes
    name: General Notes
    description: Free-form call summarization.
    instruction_file: general.md
`

func validInstructions() map[string]string {
	return map[string]string{
		"discovery.md": "# Discovery\nAsk about pain points.",
		"demo.md":      "# Demo\nAssess demo readiness.",
		"general.md":   "# General\nSummarize the call.",
	}
}

func TestRegistryLoadsSetsAndMapping(t *testing.T) {
	path := writeRegistry(t, validRegistry, validInstructions())
	registry, err := NewRegistry(path, logger.New("test"))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	sets := registry.List()
	if len(sets) != 3 {
		t.Fatalf("got %d sets, want 3", len(sets))
	}
	if sets[0].ID != "discovery_questioning" {
		t.Errorf("file order not preserved: first set %q", sets[0].ID)
	}

	set, err := registry.Get("demo_readiness")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if set.Instructions == "" {
		t.Error("instruction body not loaded")
	}

	policy := registry.Policy()
	if stage, ok := policy.MappedStage("demo_readiness"); !ok || stage != domain.StageDemo {
		t.Errorf("demo_readiness mapped to %q (ok=%v), want demo", stage, ok)
	}
	// Unmapped sets summarize without feeding the stage machine.
	if _, ok := policy.MappedStage("general_notes"); ok {
		t.Error("general_notes should have no stage mapping")
	}
}

func TestRegistryGetUnknownID(t *testing.T) {
	path := writeRegistry(t, validRegistry, validInstructions())
	registry, err := NewRegistry(path, logger.New("test"))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if _, err := registry.Get("nope"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestRegistryRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name         string
		yamlBody     string
		instructions map[string]string
	}{
		{
			name:         "unknown stage",
			yamlBody:     "instruction_sets:\n  - id: x\n    instruction_file: x.md\n    stage: paused\n",
			instructions: map[string]string{"x.md": "body"},
		},
		{
			name:         "missing instruction file",
			yamlBody:     "instruction_sets:\n  - id: x\n    instruction_file: gone.md\n",
			instructions: nil,
		},
		{
			name:         "duplicate id",
			yamlBody:     "instruction_sets:\n  - id: x\n    instruction_file: x.md\n  - id: x\n    instruction_file: x.md\n",
			instructions: map[string]string{"x.md": "body"},
		},
		{
			name:         "empty registry",
			yamlBody:     "instruction_sets: []\n",
			instructions: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRegistry(t, tt.yamlBody, tt.instructions)
			if _, err := NewRegistry(path, logger.New("test")); err == nil {
				t.Fatal("expected load to fail")
			}
		})
	}
}

func TestRegistryReloadKeepsOldSnapshotOnFailure(t *testing.T) {
	path := writeRegistry(t, validRegistry, validInstructions())
	registry, err := NewRegistry(path, logger.New("test"))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("instruction_sets: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := registry.Reload(); err == nil {
		t.Fatal("expected reload of empty registry to fail")
	}

	if got := len(registry.List()); got != 3 {
		t.Errorf("snapshot lost after failed reload: %d sets", got)
	}
	if _, ok := registry.Policy().MappedStage("demo_readiness"); !ok {
		t.Error("policy mapping lost after failed reload")
	}
}

func TestRegistryReloadPicksUpMappingChanges(t *testing.T) {
	instructions := validInstructions()
	path := writeRegistry(t, validRegistry, instructions)
	registry, err := NewRegistry(path, logger.New("test"))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	updated := `
instruction_sets:
  - id: demo_readiness
    name: Demo Readiness
    instruction_file: demo.md
    stage: negotiation
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := registry.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if stage, ok := registry.Policy().MappedStage("demo_readiness"); !ok || stage != domain.StageNegotiation {
		t.Errorf("mapping after reload = %q (ok=%v), want negotiation", stage, ok)
	}
}
