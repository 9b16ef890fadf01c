package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/recordsync/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Types  int                        `json:"types,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Check object schemas against the projection rules",
		Long: `Compile CUE object schemas and check them against the projection rules.

Reports every problem that would make projection of a type fail: missing or
unsupported primary keys, unknown kinds, relationships to unknown types and
scopes with no zone rule. A schema set that validates cleanly never aborts a
projection batch.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	validationErrors, loadResult, err := validateSchemaDir(schemaDir, formatter)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputCommandError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCommandError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Types: len(loadResult.Models)})
	}
	fmt.Fprintf(formatter.Writer, "✓ All schemas valid (%d type(s))\n", len(loadResult.Models))
	return nil
}

// validateSchemaDir loads every schema in dir and checks the resulting catalog.
// The error is non-nil only when the directory itself could not be loaded.
func validateSchemaDir(dir string, formatter *OutputFormatter) ([]compiler.ValidationError, *LoadResult, error) {
	loadResult, loadErrors := LoadSchemas(dir, LoadModeCollectAll)
	if loadResult == nil {
		return nil, nil, loadErrors[0]
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		validationErrors = append(validationErrors, loadErrorToValidation(err))
	}
	if loadResult.Catalog == nil {
		return validationErrors, loadResult, nil
	}

	for _, model := range loadResult.Catalog.Models() {
		formatter.VerboseLog("Validating type: %s (%d properties, %s scope)",
			model.TypeName, len(model.Properties), model.Scope)
	}
	validationErrors = append(validationErrors, compiler.Validate(loadResult.Catalog)...)
	return validationErrors, loadResult, nil
}

// loadErrorToValidation converts a compile failure to a validation error.
func loadErrorToValidation(err error) compiler.ValidationError {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
	}
	ve := compiler.ValidationError{
		Type:    loadErr.Type,
		Field:   "load",
		Message: loadErr.Message,
		Code:    loadErr.Code,
	}
	if loadErr.Pos.IsValid() {
		ve.Line = loadErr.Pos.Line()
	}
	return ve
}

// outputCommandError outputs a single command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		result := ValidationResult{Valid: false, Errors: errs}
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s\n\n", err.Error())
	}
	return failure
}

// ValidateSchemaDir validates all schemas in a directory.
// This is a helper function for external callers.
func ValidateSchemaDir(dir string) ([]compiler.ValidationError, error) {
	silent := &OutputFormatter{Format: "text", Writer: io.Discard}
	errs, _, err := validateSchemaDir(dir, silent)
	return errs, err
}
