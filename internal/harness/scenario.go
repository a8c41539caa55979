package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted run of a chain: a configuration, the blocks to
// apply and the assertions that must hold afterwards.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Config has the shape of a config file: auction, chain and genesis.
	// Omitted fields take their defaults.
	Config map[string]any `yaml:"config,omitempty"`

	// Blocks are applied in order.
	Blocks []BlockStep `yaml:"blocks"`

	// Assertions are evaluated against the trace and the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// BlockStep is one block of a scenario.
type BlockStep struct {
	// Number of the block. Zero means the block after the previous one.
	Number int64 `yaml:"number,omitempty"`

	Calls []CallStep `yaml:"calls,omitempty"`
}

// CallStep is a call included in a block.
type CallStep struct {
	Origin string         `yaml:"origin"`
	Kind   string         `yaml:"kind"`
	Args   map[string]any `yaml:"args,omitempty"`

	// Expect is the receipt outcome, "Ok" or an error code. Empty means any.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is the event kind (event_emitted, event_count).
	Kind string `yaml:"kind,omitempty"`

	// Payload is matched as a subset of the event payload (event_emitted).
	Payload map[string]any `yaml:"payload,omitempty"`

	// Count is the exact number of events of Kind (event_count).
	Count int `yaml:"count,omitempty"`

	// Kinds must appear in this order (event_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Path selects a value in the final snapshot, dot separated, for
	// example "ledger.accounts.alice" (final_state).
	Path string `yaml:"path,omitempty"`

	// Expect is compared with the selected value; maps match as subsets
	// (final_state).
	Expect any `yaml:"expect,omitempty"`

	// Absent asserts that Path selects nothing (final_state).
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion types.
const (
	AssertEventEmitted = "event_emitted"
	AssertEventOrder   = "event_order"
	AssertEventCount   = "event_count"
	AssertFinalState   = "final_state"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so a typo never silently disables an assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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

// LoadDir loads every .yaml and .yml file in dir, ordered by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	scenarios := make([]*Scenario, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("scenario %q defined in both %s and %s", s.Name, prev, name)
		}
		seen[s.Name] = name
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Blocks) == 0 {
		return fmt.Errorf("blocks list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	var last int64
	for i, b := range s.Blocks {
		switch {
		case b.Number < 0:
			return fmt.Errorf("blocks[%d]: number must not be negative", i)
		case b.Number == 0:
			last++
		case b.Number <= last:
			return fmt.Errorf("blocks[%d]: number %d does not follow %d", i, b.Number, last)
		default:
			last = b.Number
		}
		for j, c := range b.Calls {
			if c.Origin == "" {
				return fmt.Errorf("blocks[%d].calls[%d]: origin is required", i, j)
			}
			if c.Kind == "" {
				return fmt.Errorf("blocks[%d].calls[%d]: kind is required", i, j)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEventEmitted:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_emitted", index)
		}
	case AssertEventOrder:
		if len(a.Kinds) < 2 {
			return fmt.Errorf("assertions[%d]: at least two kinds are required for event_order", index)
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertFinalState:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for final_state", index)
		}
		if a.Absent == (a.Expect != nil) {
			return fmt.Errorf("assertions[%d]: final_state needs exactly one of expect or absent", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
