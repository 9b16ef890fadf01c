package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/recordsync/internal/compiler"
	"github.com/roach88/recordsync/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the object models compiled from a schema directory.
type LoadResult struct {
	Models    []*schema.ObjectModel
	Catalog   *schema.Catalog // nil when any model failed to compile
	CUEValue  cue.Value       // The raw CUE value for additional processing
	FileCount int             // Number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Type    string // object type being compiled, if any
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Type != "" {
		msg = e.Type + ": " + msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// LoadSchemas loads CUE object schemas from a directory and compiles every
// object.<Type> struct into a model.
//
// A nil result means the directory itself could not be loaded. A non-nil
// result with errors means some objects failed to compile; Catalog is then nil.
func LoadSchemas(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	objectsVal := value.LookupPath(cue.ParsePath("object"))
	if objectsVal.Exists() {
		iter, iterErr := objectsVal.Fields()
		if iterErr != nil {
			return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating objects: %v", iterErr)}}
		}
		for iter.Next() {
			model, compileErr := compiler.CompileObject(iter.Value())
			if compileErr != nil {
				errs = append(errs, convertCompileError(compileErr, iter.Selector().String()))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Models = append(result.Models, model)
		}
	}

	if len(errs) > 0 {
		return result, errs
	}
	if len(result.Models) == 0 {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no object types found in schemas"}}
	}

	catalog, err := schema.NewCatalog(result.Models...)
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: err.Error()}}
	}
	result.Catalog = catalog
	return result, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, typeName string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Type:    typeName,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Type:    typeName,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
// Schema rule violations use the compiler's E1xx codes.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeScanError        = "E002" // Directory scan error
	ErrCodeNoFiles          = "E003" // No CUE files found
	ErrCodeLoadFailed       = "E004" // CUE load failed
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeBuildFailed      = "E006" // CUE build failed
	ErrCodeWriteFailed      = "E007" // File write error
	ErrCodeInvalidConfig    = "E008" // Configuration could not be loaded
	ErrCodeInvalidDataset   = "E009" // Dataset failed to parse or resolve
	ErrCodeProjectionFailed = "E010" // Fatal projection error
	ErrCodeStoreFailed      = "E011" // Outbox read or write failed
	ErrCodeObjectsSkipped   = "E012" // Some objects could not be identified
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "type":
		return compiler.ErrUnknownKind
	case "scope":
		return compiler.ErrInvalidScope
	default:
		return ErrCodeGeneric
	}
}
