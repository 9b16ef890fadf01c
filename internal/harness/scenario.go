package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recordsync/internal/dataset"
)

// Scenario defines a projection conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is an inline CUE document declaring object.<Type> structs.
	Schema string `yaml:"schema"`

	// Scope overrides every type's declared scope when set.
	Scope string `yaml:"scope,omitempty"`

	// Objects is the dataset, in the same layout as a dataset file.
	Objects []dataset.Entry `yaml:"objects"`

	// Outbox writes projected records and deletions through an in-memory
	// outbox, Runs times. Zero Runs with Outbox set means one run.
	Outbox bool `yaml:"outbox,omitempty"`
	Runs   int  `yaml:"runs,omitempty"`

	// Assertions validate the run.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates projected records, diagnostics or outbox state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "record_count": exactly Count records were projected
	// - "record_exists": Record was projected
	// - "record_absent": Record was not projected
	// - "field_equals": Record's Field has canonical JSON Value
	// - "field_absent": Record has no Field
	// - "diagnostic": Record's Field raised diagnostic Code
	// - "skipped": dataset object Index was skipped with Code
	// - "fails": the run aborted with projection error Code
	// - "stored": the outbox holds Record at Version, Deleted as given
	Type string `yaml:"type"`

	// Record is the record identity as "owner/zone/name".
	Record string `yaml:"record,omitempty"`

	Field string `yaml:"field,omitempty"`

	// Value is the expected canonical JSON of the field value.
	Value string `yaml:"value,omitempty"`

	Code  string `yaml:"code,omitempty"`
	Index int    `yaml:"index,omitempty"`
	Count int    `yaml:"count,omitempty"`

	Version int64 `yaml:"version,omitempty"`
	Deleted bool  `yaml:"deleted,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount  = "record_count"
	AssertRecordExists = "record_exists"
	AssertRecordAbsent = "record_absent"
	AssertFieldEquals  = "field_equals"
	AssertFieldAbsent  = "field_absent"
	AssertDiagnostic   = "diagnostic"
	AssertSkipped      = "skipped"
	AssertFails        = "fails"
	AssertStored       = "stored"
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
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Runs < 0 {
		return fmt.Errorf("runs must be non-negative")
	}
	if s.Runs > 0 && !s.Outbox {
		return fmt.Errorf("runs requires outbox")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Outbox); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, outbox bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertRecordExists, AssertRecordAbsent:
		if a.Record == "" {
			return fmt.Errorf("assertions[%d]: record is required for %s", index, a.Type)
		}
	case AssertFieldEquals:
		if a.Record == "" || a.Field == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: record, field and value are required for field_equals", index)
		}
	case AssertFieldAbsent:
		if a.Record == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: record and field are required for field_absent", index)
		}
	case AssertDiagnostic:
		if a.Record == "" || a.Field == "" || a.Code == "" {
			return fmt.Errorf("assertions[%d]: record, field and code are required for diagnostic", index)
		}
	case AssertSkipped:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for skipped", index)
		}
	case AssertFails:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for fails", index)
		}
	case AssertStored:
		if !outbox {
			return fmt.Errorf("assertions[%d]: stored requires outbox", index)
		}
		if a.Record == "" || a.Version <= 0 {
			return fmt.Errorf("assertions[%d]: record and a positive version are required for stored", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
