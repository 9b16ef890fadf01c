package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catSchema = `
object: Cat: {
	primary_key: "id"
	properties: [{name: "id", type: "string"}]
}
`

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "owner_and_friends.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "owner_and_friends", scenario.Name)
	assert.Len(t, scenario.Objects, 4)
	assert.Equal(t, "Person", scenario.Objects[0].Type)
	assert.True(t, scenario.Objects[3].Deleted)
	assert.Equal(t, []any{"c2", "c3"}, scenario.Objects[1].Values["friends"])
	assert.NotEmpty(t, scenario.Assertions)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_AllFixturesParse(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: d
schema: x
assertion:
  - type: record_count
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nschema: s\nassertions: [{type: record_count}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nschema: s\nassertions: [{type: record_count}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing schema",
			yaml:    "name: n\ndescription: d\nassertions: [{type: record_count}]\n",
			wantErr: "schema is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: n\ndescription: d\nschema: s\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "runs without outbox",
			yaml:    "name: n\ndescription: d\nschema: s\nruns: 2\nassertions: [{type: record_count}]\n",
			wantErr: "runs requires outbox",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nschema: s\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "field_equals without value",
			yaml:    "name: n\ndescription: d\nschema: s\nassertions: [{type: field_equals, record: a/b/c, field: f}]\n",
			wantErr: "record, field and value are required",
		},
		{
			name:    "stored without outbox",
			yaml:    "name: n\ndescription: d\nschema: s\nassertions: [{type: stored, record: a/b/c, version: 1}]\n",
			wantErr: "stored requires outbox",
		},
		{
			name:    "stored without version",
			yaml:    "name: n\ndescription: d\nschema: s\noutbox: true\nassertions: [{type: stored, record: a/b/c}]\n",
			wantErr: "positive version",
		},
		{
			name:    "fails without code",
			yaml:    "name: n\ndescription: d\nschema: s\nassertions: [{type: fails}]\n",
			wantErr: "code is required for fails",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_WrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cats.yaml")
	content := "name: cats\ndescription: one cat\nschema: |\n" + indent(catSchema) +
		"objects:\n  - type: Cat\n    values: {id: c1}\nassertions:\n  - type: record_count\n    count: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Contains(t, scenario.Schema, "object: Cat")
	assert.Equal(t, "c1", scenario.Objects[0].Values["id"])
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return "  " + strings.Join(lines, "\n  ") + "\n"
}
