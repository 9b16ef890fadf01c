package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordsync/internal/compiler"
)

const schemasDir = "testdata/schemas"

func TestValidateValidSchemas(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ All schemas valid (3 type(s))")
}

func TestValidateValidSchemasJSON(t *testing.T) {
	out, err := execute(t, "validate", "--format", "json", schemasDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Types)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateInvalidSchema(t *testing.T) {
	out, err := execute(t, "validate", "testdata/invalid")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, compiler.ErrUnknownPrimaryKey)
	assert.Contains(t, out, compiler.ErrUnknownTarget)
}

func TestValidateInvalidSchemaJSON(t *testing.T) {
	out, err := execute(t, "validate", "--format", "json", "testdata/invalid")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, compiler.ErrUnknownPrimaryKey, resp.Error.Code)
	assert.Equal(t, "Cat", resp.Data.Errors[1].Type)
	assert.Equal(t, "owner", resp.Data.Errors[1].Field)
}

func TestValidateCompileErrorsAreCollected(t *testing.T) {
	dir := t.TempDir()
	src := `
package bad

object: Cat: {
	primary_key: "id"
	properties: [{name: "id", type: "text"}]
}

object: Dog: {
	primary_key: "id"
	scope: "galactic"
	properties: [{name: "id", type: "string"}]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(src), 0o644))

	errs, err := ValidateSchemaDir(dir)
	require.NoError(t, err)
	require.Len(t, errs, 2)

	codes := []string{errs[0].Code, errs[1].Code}
	assert.ElementsMatch(t, []string{compiler.ErrUnknownKind, compiler.ErrInvalidScope}, codes)
	for _, e := range errs {
		assert.Positive(t, e.Line, "compile errors carry a line: %v", e)
	}
}

func TestValidateSchemaDirHelper(t *testing.T) {
	errs, err := ValidateSchemaDir(schemasDir)
	require.NoError(t, err)
	assert.Empty(t, errs)

	_, err = ValidateSchemaDir("/nonexistent")
	require.Error(t, err)
}
