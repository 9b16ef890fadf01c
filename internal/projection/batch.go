package projection

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/recordsync/internal/schema"
)

// DefaultWorkers is the batch concurrency when BatchOptions.Workers is unset.
const DefaultWorkers = 4

// BatchOptions configures ProjectAll.
type BatchOptions struct {
	// Workers bounds concurrent projections. Zero means DefaultWorkers.
	Workers int

	// Scope overrides every object's declared scope when set.
	Scope *schema.Scope
}

// Skip is an object left out of a batch because of a soft failure.
type Skip struct {
	Index    int
	TypeName string
	Err      error
}

// BatchResult holds batch outcomes in input order.
//
// Results[i] is nil exactly when objs[i] was skipped.
type BatchResult struct {
	Results []*Result
	Skipped []Skip
}

// Projected returns the non-nil results in input order.
func (b *BatchResult) Projected() []*Result {
	out := make([]*Result, 0, len(b.Results)-len(b.Skipped))
	for _, r := range b.Results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// ProjectAll projects objs concurrently.
//
// Soft failures are collected in BatchResult.Skipped. The first fatal failure
// or context cancellation aborts the batch and is returned. Output order
// matches input order regardless of scheduling.
func (p *Projector) ProjectAll(ctx context.Context, objs []schema.Syncable, opts BatchOptions) (*BatchResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]*Result, len(objs))
	errs := make([]error, len(objs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, obj := range objs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var (
				res *Result
				err error
			)
			if opts.Scope != nil {
				res, err = p.Project(obj, *opts.Scope)
			} else {
				res, err = p.ProjectDeclared(obj)
			}
			if err != nil {
				if IsSoft(err) {
					errs[i] = err
					return nil
				}
				return fmt.Errorf("object %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &BatchResult{Results: results}
	for i, err := range errs {
		if err == nil {
			continue
		}
		typeName := ""
		var pe *Error
		if errors.As(err, &pe) {
			typeName = pe.TypeName
		}
		out.Skipped = append(out.Skipped, Skip{Index: i, TypeName: typeName, Err: err})
	}
	return out, nil
}
