package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/recordsync/internal/compiler"
	"github.com/roach88/recordsync/internal/config"
	"github.com/roach88/recordsync/internal/dataset"
	"github.com/roach88/recordsync/internal/metrics"
	"github.com/roach88/recordsync/internal/projection"
	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/schema"
	"github.com/roach88/recordsync/internal/store"
)

// ProjectOptions holds flags for the project command.
type ProjectOptions struct {
	*RootOptions

	// NewBatchID allows overriding the batch id generator (for testing).
	// If nil, batch ids are UUIDv7.
	NewBatchID func() (string, error)
}

// ProjectResult is the outcome of one project run.
type ProjectResult struct {
	BatchID string            `json:"batch_id,omitempty"`
	Records []ProjectedRecord `json:"records"`
	Deleted []DeletedRecord   `json:"deleted,omitempty"`
	Skipped []SkippedObject   `json:"skipped,omitempty"`
	Stats   store.BatchStats  `json:"stats"`
}

// ProjectedRecord is one assembled record.
type ProjectedRecord struct {
	ID          string                  `json:"id"`
	Type        string                  `json:"type"`
	ContentHash string                  `json:"content_hash"`
	Outcome     store.Outcome           `json:"outcome,omitempty"`
	Version     int64                   `json:"version,omitempty"`
	Record      json.RawMessage         `json:"record"`
	Diagnostics []projection.Diagnostic `json:"diagnostics,omitempty"`
}

// DeletedRecord is a record identity queued for deletion by a tombstoned object.
type DeletedRecord struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"`
	Outcome store.Outcome `json:"outcome,omitempty"`
	Version int64         `json:"version,omitempty"`
}

// SkippedObject is a dataset object that could not be identified.
type SkippedObject struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// deletion is a tombstoned dataset object with its derived identity.
type deletion struct {
	index int
	obj   *dataset.Object
	id    record.RecordID
}

// NewProjectCommand creates the project command.
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	return newProjectCommand(&ProjectOptions{RootOptions: rootOpts})
}

func newProjectCommand(opts *ProjectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project <schema-dir> <dataset.yaml>",
		Short: "Project a dataset into records",
		Long: `Project every object in a YAML dataset into a record.

Schemas are compiled and validated first; a schema problem aborts before any
object is projected. Live objects are projected concurrently. Tombstoned
objects are addressed for deletion instead.

With --database the records are written to a SQLite outbox under a new batch.
Unchanged records are detected by content hash and left untouched.

Example:
  recordsync project ./schemas ./cats.yaml
  recordsync project ./schemas ./cats.yaml --database outbox.db --scope public
  recordsync project ./schemas ./cats.yaml --format json --metrics-file run.prom`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(opts, args[0], args[1], cmd)
		},
	}

	// Values are read through config.Load so env and file settings apply.
	cmd.Flags().String("scope", "", "override every type's declared scope (private|public|shared)")
	cmd.Flags().Int("workers", config.DefaultWorkers, "number of concurrent projections")
	cmd.Flags().String("database", "", "path to SQLite outbox (optional)")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the run")

	return cmd
}

func runProject(opts *ProjectOptions, schemaDir, datasetPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidConfig, err.Error(), nil)
	}
	if opts.Verbose && !cmd.Flags().Changed("log-level") {
		cfg.LogLevel = "debug"
	}
	logger := cfg.NewLogger(formatter.GetErrWriter())
	if cfg.FileUsed != "" {
		formatter.VerboseLog("Using config file %s", cfg.FileUsed)
	}

	// Compile and validate schemas
	loadResult, loadErrors := LoadSchemas(schemaDir, LoadModeFailFast)
	if loadResult == nil {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCommandError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCommandError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}
	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, []compiler.ValidationError{loadErrorToValidation(loadErrors[0])})
	}
	catalog := loadResult.Catalog
	if verrs := compiler.Validate(catalog); len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}
	formatter.VerboseLog("Compiled %d type(s) from %s", catalog.Len(), schemaDir)

	// Load dataset
	if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("dataset not found: %s", datasetPath), nil)
	}
	ds, err := dataset.Load(datasetPath, catalog)
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidDataset, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d object(s) from %s", len(ds.Objects), datasetPath)

	reg := prometheus.NewRegistry()
	proj := projection.New(catalog,
		projection.WithLogger(logger),
		projection.WithObserver(metrics.New(reg)),
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := projectDataset(ctx, proj, ds, cfg)
	if err != nil {
		if projection.IsFatal(err) {
			return outputCommandError(formatter, ErrCodeProjectionFailed, err.Error(), string(projection.CodeOf(err)))
		}
		return outputCommandError(formatter, ErrCodeProjectionFailed, fmt.Sprintf("projection aborted: %v", err), nil)
	}

	if cfg.Database != "" {
		if err := writeOutbox(ctx, opts, cfg, run, logger); err != nil {
			return outputCommandError(formatter, ErrCodeStoreFailed, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote batch %s to %s", run.result.BatchID, cfg.Database)
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing metrics: %v", err), nil)
		}
	}

	return outputProjectResult(formatter, run)
}

// projectDataset projects live objects and derives identities for tombstoned ones.
// Only fatal projection errors and cancellation are returned.
func projectDataset(ctx context.Context, proj *projection.Projector, ds *dataset.Dataset, cfg *config.Config) (*projectRun, error) {
	override := cfg.ScopeOverride()

	var (
		live      []schema.Syncable
		liveIndex []int
		deletions []deletion
		skipped   []SkippedObject
	)
	for i, obj := range ds.Objects {
		if !obj.IsDeleted() {
			live = append(live, obj)
			liveIndex = append(liveIndex, i)
			continue
		}
		id, err := recordIDFor(proj, obj, override)
		if err != nil {
			if projection.IsSoft(err) {
				skipped = append(skipped, skippedObject(i, obj.TypeName(), err))
				continue
			}
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		deletions = append(deletions, deletion{index: i, obj: obj, id: id})
	}

	batch, err := proj.ProjectAll(ctx, live, projection.BatchOptions{
		Workers: cfg.Workers,
		Scope:   override,
	})
	if err != nil {
		return nil, err
	}
	for _, s := range batch.Skipped {
		skipped = append(skipped, skippedObject(liveIndex[s.Index], s.TypeName, s.Err))
	}

	run := &projectRun{result: &ProjectResult{Records: []ProjectedRecord{}}}
	for i, res := range batch.Results {
		if res == nil {
			continue
		}
		content, err := record.MarshalCanonical(res.Record)
		if err == nil {
			var hash string
			if hash, err = record.ContentHash(res.Record); err == nil {
				run.records = append(run.records, res)
				run.result.Records = append(run.result.Records, ProjectedRecord{
					ID:          res.Record.ID.String(),
					Type:        res.Record.Type,
					ContentHash: hash,
					Record:      content,
					Diagnostics: res.Diagnostics,
				})
				continue
			}
		}
		// The record cannot be stored; skip it alone.
		skipped = append(skipped, SkippedObject{
			Index:   liveIndex[i],
			Type:    res.Record.Type,
			Code:    string(projection.CodeValueMismatch),
			Message: fmt.Sprintf("encode %s: %v", res.Record.ID, err),
		})
	}
	slices.SortFunc(skipped, func(a, b SkippedObject) int { return a.Index - b.Index })
	for _, d := range deletions {
		run.result.Deleted = append(run.result.Deleted, DeletedRecord{ID: d.id.String(), Type: d.obj.TypeName()})
	}
	run.deletions = deletions
	run.result.Skipped = skipped
	run.result.Stats = store.BatchStats{
		Projected: len(run.records),
		Skipped:   len(skipped),
		Deleted:   len(deletions),
	}
	return run, nil
}

// projectRun pairs the printable result with the values the outbox needs.
type projectRun struct {
	result    *ProjectResult
	records   []*projection.Result
	deletions []deletion
}

// recordIDFor derives obj's identity under override, or its declared scope.
func recordIDFor(proj *projection.Projector, obj schema.Object, override *schema.Scope) (record.RecordID, error) {
	if override != nil {
		return proj.RecordID(obj, *override)
	}
	model, ok := proj.Catalog().Lookup(obj.TypeName())
	if !ok {
		return proj.RecordID(obj, schema.ScopePrivate)
	}
	return proj.RecordID(obj, model.Scope)
}

func skippedObject(index int, typeName string, err error) SkippedObject {
	return SkippedObject{
		Index:   index,
		Type:    typeName,
		Code:    string(projection.CodeOf(err)),
		Message: err.Error(),
	}
}

// writeOutbox writes run under a new batch. Records are written in input
// order from this goroutine only.
func writeOutbox(ctx context.Context, opts *ProjectOptions, cfg *config.Config, run *projectRun, logger *slog.Logger) error {
	batchID, err := newBatchID(opts)
	if err != nil {
		return fmt.Errorf("generate batch id: %w", err)
	}

	if dir := filepath.Dir(cfg.Database); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	st, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing outbox", "error", closeErr)
		}
	}()

	scopeLabel := cfg.Scope
	if scopeLabel == "" {
		scopeLabel = "declared"
	}
	// One transaction: a failed write leaves neither records nor the batch row.
	stats, err := st.WriteBatch(ctx, batchID, scopeLabel, func(w *store.BatchWriter) error {
		for i, res := range run.records {
			up, err := w.Upsert(ctx, res.Record)
			if err != nil {
				return err
			}
			run.result.Records[i].Outcome = up.Outcome
			run.result.Records[i].Version = up.Version
			logger.Debug("record written", "record", res.Record.ID.String(), "outcome", string(up.Outcome), "version", up.Version)
		}
		for i, d := range run.deletions {
			up, err := w.Delete(ctx, d.id)
			if err != nil {
				return err
			}
			run.result.Deleted[i].Outcome = up.Outcome
			run.result.Deleted[i].Version = up.Version
		}
		w.Skip(len(run.result.Skipped))
		return nil
	})
	if err != nil {
		return err
	}
	run.result.BatchID = batchID
	run.result.Stats = stats
	return nil
}

func newBatchID(opts *ProjectOptions) (string, error) {
	if opts.NewBatchID != nil {
		return opts.NewBatchID()
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// outputProjectResult prints the run. Skipped objects make the command exit 1.
func outputProjectResult(formatter *OutputFormatter, run *projectRun) error {
	result := run.result
	var failure error
	if n := len(result.Skipped); n > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d object(s) skipped", n))
	}

	if formatter.JSON() {
		if failure != nil {
			if err := formatter.Failure(ErrCodeObjectsSkipped, failure.Error(), result); err != nil {
				return err
			}
			return failure
		}
		return formatter.Success(result)
	}

	tw := formatter.Table()
	for _, r := range result.Records {
		outcome := string(r.Outcome)
		if outcome == "" {
			outcome = "projected"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Type, r.ID, outcome, r.ContentHash[:12])
	}
	for _, d := range result.Deleted {
		outcome := string(d.Outcome)
		if outcome == "" {
			outcome = "delete"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Type, d.ID, outcome)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range result.Records {
		for _, d := range r.Diagnostics {
			fmt.Fprintf(formatter.Writer, "! %s %s.%s: %s [%s]\n", r.Type, d.Record, d.Field, d.Message, d.Code)
		}
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(formatter.Writer, "✗ objects[%d] %s: %s\n", s.Index, s.Type, s.Message)
	}

	summary := fmt.Sprintf("%d projected, %d unchanged, %d deleted, %d skipped",
		result.Stats.Projected, result.Stats.Unchanged, result.Stats.Deleted, result.Stats.Skipped)
	if result.BatchID != "" {
		summary += " (batch " + result.BatchID + ")"
	}
	fmt.Fprintln(formatter.Writer, summary)
	return failure
}
