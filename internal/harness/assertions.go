package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recordsync/internal/projection"
	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/store"
)

// AssertionContext provides what outbox assertions need.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Records  []string // Projected record identities for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Records) > 0 {
		fmt.Fprintf(&buf, "\nProjected records:\n")
		for i, id := range e.Records {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, id)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns failure messages.
// Returns an empty slice if all assertions pass.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	if a.Type == AssertFails {
		return assertFails(result, a)
	}
	if result.Fatal != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a completed run",
			Actual:   fmt.Sprintf("run aborted: %v", result.Fatal),
		}
	}

	switch a.Type {
	case AssertRecordCount:
		if len(result.Records) != a.Count {
			return newAssertionError(result, a, fmt.Sprintf("%d record(s)", a.Count), fmt.Sprintf("%d record(s)", len(result.Records)))
		}
		return nil
	case AssertRecordExists:
		if _, ok := result.Record(a.Record); !ok {
			return newAssertionError(result, a, a.Record+" projected", "not found")
		}
		return nil
	case AssertRecordAbsent:
		if _, ok := result.Record(a.Record); ok {
			return newAssertionError(result, a, a.Record+" not projected", "found")
		}
		return nil
	case AssertFieldEquals:
		return assertFieldEquals(result, a)
	case AssertFieldAbsent:
		rec, ok := result.Record(a.Record)
		if !ok {
			return newAssertionError(result, a, a.Record+" projected", "not found")
		}
		if v, ok := rec.Get(a.Field); ok {
			encoded, _ := record.MarshalValue(v)
			return newAssertionError(result, a, fmt.Sprintf("%s has no field %q", a.Record, a.Field), string(encoded))
		}
		return nil
	case AssertDiagnostic:
		return assertDiagnostic(result, a)
	case AssertSkipped:
		for _, s := range result.Skipped {
			if s.Index == a.Index && s.Code == a.Code {
				return nil
			}
		}
		return newAssertionError(result, a, fmt.Sprintf("objects[%d] skipped with %s", a.Index, a.Code), fmt.Sprintf("skipped: %v", result.Skipped))
	case AssertStored:
		return assertStored(result, a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func newAssertionError(result *Result, a Assertion, expected, actual string) *AssertionError {
	ids := make([]string, len(result.Records))
	for i, rec := range result.Records {
		ids[i] = rec.ID.String()
	}
	return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Records: ids}
}

func assertFails(result *Result, a Assertion) error {
	if result.Fatal == nil {
		return newAssertionError(result, a, "run aborted with "+a.Code, "run completed")
	}
	if got := string(projection.CodeOf(result.Fatal)); got != a.Code {
		return newAssertionError(result, a, "run aborted with "+a.Code, "aborted with "+got)
	}
	return nil
}

// assertFieldEquals compares a field's canonical JSON against the expected text.
func assertFieldEquals(result *Result, a Assertion) error {
	rec, ok := result.Record(a.Record)
	if !ok {
		return newAssertionError(result, a, a.Record+" projected", "not found")
	}
	v, ok := rec.Get(a.Field)
	if !ok {
		return newAssertionError(result, a, fmt.Sprintf("%s.%s = %s", a.Record, a.Field, a.Value), "field absent")
	}
	encoded, err := record.MarshalValue(v)
	if err != nil {
		return fmt.Errorf("encode %s.%s: %w", a.Record, a.Field, err)
	}
	if string(encoded) != strings.TrimSpace(a.Value) {
		return newAssertionError(result, a, a.Value, string(encoded))
	}
	return nil
}

func assertDiagnostic(result *Result, a Assertion) error {
	id, err := parseRecordID(a.Record)
	if err != nil {
		return err
	}
	rec, ok := result.Record(a.Record)
	if !ok {
		return newAssertionError(result, a, a.Record+" projected", "not found")
	}
	for _, d := range result.Diagnostics {
		if d.Type == rec.Type && d.Record == id.Name && d.Field == a.Field && string(d.Code) == a.Code {
			return nil
		}
	}
	return newAssertionError(result, a, fmt.Sprintf("%s.%s raised %s", a.Record, a.Field, a.Code), "no matching diagnostic")
}

func assertStored(result *Result, a Assertion, actx *AssertionContext) error {
	if actx == nil || actx.Store == nil {
		return errors.New("stored requires an outbox")
	}
	id, err := parseRecordID(a.Record)
	if err != nil {
		return err
	}
	row, err := actx.Store.Get(actx.Ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return newAssertionError(result, a, a.Record+" stored", "not in outbox")
	}
	if err != nil {
		return err
	}
	if row.Version != a.Version || row.Deleted != a.Deleted {
		return newAssertionError(result, a,
			fmt.Sprintf("version %d, deleted=%t", a.Version, a.Deleted),
			fmt.Sprintf("version %d, deleted=%t", row.Version, row.Deleted))
	}
	return nil
}
