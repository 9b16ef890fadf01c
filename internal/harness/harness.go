package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/recordsync/internal/compiler"
	"github.com/roach88/recordsync/internal/dataset"
	"github.com/roach88/recordsync/internal/projection"
	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/schema"
	"github.com/roach88/recordsync/internal/store"
	"github.com/roach88/recordsync/internal/testutil"
)

// clockStart anchors outbox timestamps so repeated runs are reproducible.
var clockStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the scenario execution engine.
type Harness struct {
	catalog   *schema.Catalog
	projector *projection.Projector
	store     *store.Store // nil unless the scenario uses the outbox
	logger    *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Compile the inline schema and validate the catalog
//  2. Build the dataset against the catalog
//  3. Project live objects and derive identities of tombstoned ones
//  4. Write everything through a fresh in-memory outbox, if requested
//  5. Evaluate assertions
//
// The returned error reports a broken scenario (bad schema or dataset).
// A fatal projection error is not an error here; it is recorded in
// Result.Fatal for the "fails" assertion.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.DiscardHandler))
}

// RunWithLogger is Run with projection logs sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	models, err := compiler.CompileSource([]byte(scenario.Schema), scenario.Name+".cue")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	catalog, err := schema.NewCatalog(models...)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	if verrs := compiler.Validate(catalog); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = v.Error()
		}
		return nil, fmt.Errorf("schema is invalid: %s", strings.Join(msgs, "; "))
	}

	ds, err := dataset.Build(&dataset.File{Objects: scenario.Objects}, catalog)
	if err != nil {
		return nil, err
	}

	var override *schema.Scope
	if scenario.Scope != "" {
		s, err := schema.ParseScope(scenario.Scope)
		if err != nil {
			return nil, fmt.Errorf("scope: %w", err)
		}
		override = &s
	}

	h := &Harness{
		catalog:   catalog,
		projector: projection.New(catalog, projection.WithLogger(logger)),
		logger:    logger,
	}

	ctx := context.Background()
	result := NewResult()
	h.project(ctx, ds, override, result)

	if scenario.Outbox && result.Fatal == nil {
		st, err := store.Open(":memory:", store.WithClock(testutil.NewDeterministicClock(clockStart, time.Second).Now))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory outbox: %w", err)
		}
		defer st.Close()
		h.store = st

		runs := max(scenario.Runs, 1)
		for i := range runs {
			if err := h.writeOutbox(ctx, fmt.Sprintf("%s-%d", scenario.Name, i+1), scenario.Scope, result); err != nil {
				return nil, fmt.Errorf("outbox run %d: %w", i+1, err)
			}
		}
	}

	actx := &AssertionContext{Store: h.store, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// project fills result from ds. A fatal error stops the run and is kept in
// result.Fatal.
func (h *Harness) project(ctx context.Context, ds *dataset.Dataset, override *schema.Scope, result *Result) {
	var (
		live      []schema.Syncable
		liveIndex []int
	)
	for i, obj := range ds.Objects {
		if !obj.IsDeleted() {
			live = append(live, obj)
			liveIndex = append(liveIndex, i)
			continue
		}
		scope := schema.ScopePrivate
		if override != nil {
			scope = *override
		} else if model, ok := h.catalog.Lookup(obj.TypeName()); ok {
			scope = model.Scope
		}
		id, err := h.projector.RecordID(obj, scope)
		if err != nil {
			if projection.IsFatal(err) {
				result.Fatal = err
				return
			}
			result.Skipped = append(result.Skipped, SkippedObject{Index: i, Type: obj.TypeName(), Code: string(projection.CodeOf(err))})
			continue
		}
		result.Deletions = append(result.Deletions, id)
	}

	batch, err := h.projector.ProjectAll(ctx, live, projection.BatchOptions{Workers: 2, Scope: override})
	if err != nil {
		result.Fatal = err
		return
	}
	for _, s := range batch.Skipped {
		result.Skipped = append(result.Skipped, SkippedObject{
			Index: liveIndex[s.Index],
			Type:  s.TypeName,
			Code:  string(projection.CodeOf(s.Err)),
		})
	}
	for _, res := range batch.Projected() {
		result.Records = append(result.Records, res.Record)
		result.Diagnostics = append(result.Diagnostics, res.Diagnostics...)
	}
}

// writeOutbox writes one batch of the result's records and deletions.
func (h *Harness) writeOutbox(ctx context.Context, batchID, scope string, result *Result) error {
	if scope == "" {
		scope = "declared"
	}
	stats, err := h.store.WriteBatch(ctx, batchID, scope, func(w *store.BatchWriter) error {
		for _, rec := range result.Records {
			if _, err := w.Upsert(ctx, rec); err != nil {
				return err
			}
		}
		for _, id := range result.Deletions {
			if _, err := w.Delete(ctx, id); err != nil {
				return err
			}
		}
		w.Skip(len(result.Skipped))
		return nil
	})
	if err != nil {
		return err
	}
	h.logger.Debug("outbox batch written", "batch", batchID, "projected", stats.Projected, "unchanged", stats.Unchanged)
	return nil
}

// parseRecordID parses an "owner/zone/name" identity.
func parseRecordID(s string) (record.RecordID, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return record.RecordID{}, fmt.Errorf("record %q: want owner/zone/name", s)
	}
	return record.RecordID{Name: parts[2], Zone: record.ZoneID{Owner: parts[0], Name: parts[1]}}, nil
}
