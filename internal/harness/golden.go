package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/recordsync/internal/record"
)

// Snapshot renders a result as stable text for golden comparison: one
// canonical record per line in dataset order, then deletions, skips and
// diagnostics.
func Snapshot(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	for _, rec := range result.Records {
		data, err := record.MarshalCanonical(rec)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	for _, id := range result.Deletions {
		fmt.Fprintf(&buf, "delete %s\n", id)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(&buf, "skip objects[%d] %s %s\n", s.Index, s.Type, s.Code)
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintf(&buf, "diagnostic %s %s.%s %s %s\n", d.Level, d.Type, d.Record, d.Field, d.Code)
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's snapshot against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
