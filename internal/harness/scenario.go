package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/record"
	"github.com/roach88/spvfuzz/internal/transform"
)

// Scenario defines a transformation scenario.
// A scenario assembles a module, applies an ordered list of transformations
// and asserts on each step's outcome, the fact database and the final module.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// TargetEnv is the environment the module is assembled and validated
	// for (e.g., "spv1.3", "vulkan1.1"). Defaults to spv1.3.
	TargetEnv string `yaml:"target_env,omitempty"`

	// Mode is "lenient" (default) or "strict". Strict scenarios stop at
	// the first rejected step.
	Mode string `yaml:"mode,omitempty"`

	// Module is the input module in assembly text.
	Module string `yaml:"module"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final fact database and module.
	// Supported types: irrelevant, relevant, defined, applied_count,
	// final_module, valid
	Assertions []Assertion `yaml:"assertions"`

	// SequenceID is an optional fixed sequence id for deterministic tests.
	// If empty, defaults to testutil.DefaultSequenceID.
	SequenceID string `yaml:"sequence_id,omitempty"`
}

// Step is one transformation with its expected outcome.
type Step struct {
	// Transformation is the flat transformation record, e.g.
	// {kind: add_constant_scalar, fresh_id: 100, type_id: 6, words: [1], is_irrelevant: false}
	Transformation map[string]any `yaml:"transformation"`

	// Expect specifies the expected outcome.
	// If nil, the step is expected to apply.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Outcome is "applied" or "rejected".
	Outcome string `yaml:"outcome"`

	// Code is the expected rejection code (e.g., "ID_COLLISION").
	// Only valid with outcome "rejected"; empty matches any code.
	Code string `yaml:"code,omitempty"`
}

// Step outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// Assertion validates the state after the last step.
type Assertion struct {
	// Type specifies the assertion type:
	// - "irrelevant": every id in IDs is recorded irrelevant
	// - "relevant": no id in IDs is recorded irrelevant
	// - "defined": every id in IDs names an instruction in the module
	// - "applied_count": exactly Count steps applied
	// - "final_module": the module equals Module after assembly
	// - "valid": the module passes the structural validator
	Type string `yaml:"type"`

	// IDs are the ids checked by irrelevant, relevant and defined.
	IDs []uint32 `yaml:"ids,omitempty"`

	// Count is the expected number of applied steps (applied_count).
	Count int `yaml:"count,omitempty"`

	// Module is the expected module text (final_module).
	Module string `yaml:"module,omitempty"`
}

// Assertion type constants.
const (
	AssertIrrelevant   = "irrelevant"
	AssertRelevant     = "relevant"
	AssertDefined      = "defined"
	AssertAppliedCount = "applied_count"
	AssertFinalModule  = "final_module"
	AssertValid        = "valid"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// Env returns the scenario's target environment.
func (s *Scenario) Env() (ir.TargetEnv, error) {
	if s.TargetEnv == "" {
		return ir.DefaultTargetEnv, nil
	}
	return ir.ParseTargetEnv(s.TargetEnv)
}

// Sequence decodes the steps' transformation records.
func (s *Scenario) Sequence() (transform.Sequence, error) {
	seq := make(transform.Sequence, 0, len(s.Steps))
	for i, step := range s.Steps {
		v, err := record.FromAny(step.Transformation)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		obj, ok := v.(record.Object)
		if !ok {
			return nil, fmt.Errorf("steps[%d]: transformation must be a mapping", i)
		}
		t, err := transform.Decode(obj)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		seq = append(seq, t)
	}
	return seq, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Module == "" {
		return fmt.Errorf("module is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := s.Env(); err != nil {
		return fmt.Errorf("target_env: %w", err)
	}

	switch s.Mode {
	case "", "lenient", "strict":
	default:
		return fmt.Errorf("mode must be lenient or strict, got %q", s.Mode)
	}

	for i, step := range s.Steps {
		if step.Transformation == nil {
			return fmt.Errorf("steps[%d]: transformation is required", i)
		}
		if step.Expect == nil {
			continue
		}
		switch step.Expect.Outcome {
		case OutcomeApplied:
			if step.Expect.Code != "" {
				return fmt.Errorf("steps[%d].expect: code is only valid for rejected steps", i)
			}
		case OutcomeRejected:
		case "":
			return fmt.Errorf("steps[%d].expect: outcome is required", i)
		default:
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}

	if _, err := s.Sequence(); err != nil {
		return err
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertIrrelevant, AssertRelevant, AssertDefined:
		if len(a.IDs) == 0 {
			return fmt.Errorf("assertions[%d]: ids list is required for %s", index, a.Type)
		}
	case AssertAppliedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for applied_count", index)
		}
	case AssertFinalModule:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for final_module", index)
		}
	case AssertValid:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
