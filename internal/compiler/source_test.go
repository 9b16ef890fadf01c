package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordsync/internal/schema"
)

func TestCompileSourceKeepsDeclarationOrder(t *testing.T) {
	models, err := CompileSource([]byte(`
		object: Person: {
			primary_key: "id"
			properties: [{name: "id", type: "string"}]
		}
		object: Cat: {
			primary_key: "id"
			scope: "public"
			properties: [
				{name: "id", type: "string"},
				{name: "owner", type: "object", target: "Person"},
			]
		}
	`), "inline.cue")
	require.NoError(t, err)
	require.Len(t, models, 2)

	assert.Equal(t, "Person", models[0].TypeName)
	assert.Equal(t, "Cat", models[1].TypeName)
	assert.Equal(t, schema.ScopePublic, models[1].Scope)
}

func TestCompileSourceErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"syntax", `object: Cat: {`, "cue"},
		{"no objects", `concept: Cat: {}`, "object"},
		{"bad kind", `object: Cat: {properties: [{name: "id", type: "text"}]}`, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSource([]byte(tt.src), "inline.cue")
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}
