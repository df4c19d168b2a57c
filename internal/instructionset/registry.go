// Package instructionset manages the analysis lenses applied to call
// transcripts: each set names a markdown instruction file for the analyzer
// and the pipeline stage its findings are evidence for.
package instructionset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"salesclutch/internal/deals/domain"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"

	"gopkg.in/yaml.v3"
)

// Set is one analysis lens from the registry file.
type Set struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	Description     string `yaml:"description" json:"description"`
	InstructionFile string `yaml:"instruction_file" json:"-"`
	Stage           string `yaml:"stage" json:"stage"`

	// Instructions is the loaded markdown body, not serialized to YAML.
	Instructions string `yaml:"-" json:"-"`
}

type registryFile struct {
	InstructionSets []Set `yaml:"instruction_sets"`
}

// Registry loads instruction sets from a YAML file plus per-set markdown
// files and serves an immutable snapshot. Reload swaps the snapshot
// atomically; a failed reload keeps the previous one.
type Registry struct {
	path string
	log  *logger.Logger

	mu     sync.RWMutex
	sets   map[string]Set
	order  []string
	policy *domain.AdvancementPolicy
}

// NewRegistry loads the registry file at path. The initial load must
// succeed; later reloads may fail without losing the running snapshot.
func NewRegistry(path string, log *logger.Logger) (*Registry, error) {
	r := &Registry{path: path, log: log}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the YAML file and every referenced instruction file,
// then swaps the snapshot and rebuilds the advancement policy mapping.
func (r *Registry) Reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read instruction set registry %s: %w", r.path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse instruction set registry: %w", err)
	}
	if len(file.InstructionSets) == 0 {
		return fmt.Errorf("instruction set registry %s is empty", r.path)
	}

	baseDir := filepath.Dir(r.path)
	sets := make(map[string]Set, len(file.InstructionSets))
	order := make([]string, 0, len(file.InstructionSets))
	mapping := make(map[string]domain.Stage)

	for _, set := range file.InstructionSets {
		id := strings.TrimSpace(set.ID)
		if id == "" {
			return fmt.Errorf("instruction set with empty id in %s", r.path)
		}
		if _, dup := sets[id]; dup {
			return fmt.Errorf("duplicate instruction set id %q", id)
		}

		body, err := os.ReadFile(filepath.Join(baseDir, set.InstructionFile))
		if err != nil {
			return fmt.Errorf("failed to read instructions for %q: %w", id, err)
		}
		set.ID = id
		set.Instructions = string(body)

		if set.Stage != "" {
			stage := domain.Stage(set.Stage)
			if !domain.IsKnownStage(stage) {
				return fmt.Errorf("instruction set %q maps to unknown stage %q", id, set.Stage)
			}
			mapping[id] = stage
		}

		sets[id] = set
		order = append(order, id)
	}

	policy := domain.NewAdvancementPolicy(domain.DefaultStageOrder(), mapping)

	r.mu.Lock()
	r.sets = sets
	r.order = order
	r.policy = policy
	r.mu.Unlock()

	r.log.Info("instruction set registry loaded", "path", r.path, "sets", len(sets))
	return nil
}

// Get returns the set with the given id.
func (r *Registry) Get(id string) (Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sets[id]
	if !ok {
		return Set{}, apperr.NotFound(fmt.Sprintf("unknown instruction set %q", id))
	}
	return set, nil
}

// List returns every set in file order.
func (r *Registry) List() []Set {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Set, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sets[id])
	}
	return out
}

// IDs returns the registered set ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sets))
	for id := range r.sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Policy returns the advancement policy built from the current snapshot's
// id-to-stage mapping. Implements the stage machine's PolicySource.
func (r *Registry) Policy() *domain.AdvancementPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policy
}
