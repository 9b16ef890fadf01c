package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/schema"
)

// Observer receives projection outcomes, e.g. for metrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	Projected(typeName string, elapsed time.Duration)
	Skipped(typeName, code string)
	Diagnosed(typeName, code string)
}

type nopObserver struct{}

func (nopObserver) Projected(string, time.Duration) {}
func (nopObserver) Skipped(string, string)          {}
func (nopObserver) Diagnosed(string, string)        {}

// Diagnostic reports a field that was omitted or cleared instead of projected.
type Diagnostic struct {
	Level   slog.Level `json:"level"`
	Code    ErrorCode  `json:"code"`
	Type    string     `json:"type"`
	Record  string     `json:"record"`
	Field   string     `json:"field"`
	Message string     `json:"message"`
}

// Result is a projected record plus the diagnostics raised while building it.
type Result struct {
	Record      *record.Record
	Diagnostics []Diagnostic
}

// Projector turns schema-described objects into records.
//
// A Projector holds no per-call state; Project is safe to call from multiple
// goroutines as long as the catalog is not mutated.
type Projector struct {
	catalog  *schema.Catalog
	logger   *slog.Logger
	observer Observer
	zones    zoneCache
}

// Option configures a Projector.
type Option func(*Projector)

// WithLogger sets the logger for diagnostics. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(p *Projector) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver sets the outcome observer. Default ignores outcomes.
func WithObserver(o Observer) Option {
	return func(p *Projector) {
		if o != nil {
			p.observer = o
		}
	}
}

// New creates a Projector over catalog.
func New(catalog *schema.Catalog, opts ...Option) *Projector {
	p := &Projector{
		catalog:  catalog,
		logger:   slog.New(slog.DiscardHandler),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the catalog the projector reads schemas from.
func (p *Projector) Catalog() *schema.Catalog {
	return p.catalog
}

// fieldContext carries per-record state through field projection.
type fieldContext struct {
	typeName   string
	recordName string
	result     *Result

	// targetScope is the scope related targets are identified under.
	// nil means each target's declared scope.
	targetScope *schema.Scope
}

// Project derives obj's identity under scope and assembles its record.
// Related targets are identified under the same scope, so references point
// at the zone their targets are written to when a whole batch shares scope.
//
// Returns a *Error on failure: fatal for schema-level misconfiguration of the
// type, soft when only this instance cannot be identified. Field-level
// problems never fail the projection; they are reported in
// Result.Diagnostics and the field is omitted or cleared.
func (p *Projector) Project(obj schema.Syncable, scope schema.Scope) (*Result, error) {
	if isNil(obj) {
		return nil, errors.New("projection: nil object")
	}
	model, ok := p.catalog.Lookup(obj.TypeName())
	if !ok {
		return nil, p.fail(fatalError(CodeUnknownType, obj.TypeName(), "", "type is not in the catalog"))
	}
	return p.project(obj, model, scope, &scope)
}

// ProjectDeclared projects obj under its type's declared scope. Related
// targets are identified under their own types' declared scopes.
func (p *Projector) ProjectDeclared(obj schema.Syncable) (*Result, error) {
	if isNil(obj) {
		return nil, errors.New("projection: nil object")
	}
	model, ok := p.catalog.Lookup(obj.TypeName())
	if !ok {
		return nil, p.fail(fatalError(CodeUnknownType, obj.TypeName(), "", "type is not in the catalog"))
	}
	return p.project(obj, model, model.Scope, nil)
}

func (p *Projector) project(obj schema.Syncable, model *schema.ObjectModel, scope schema.Scope, targetScope *schema.Scope) (*Result, error) {
	start := time.Now()

	id, err := p.zonedRecordID(obj, model, scope)
	if err != nil {
		return nil, p.fail(err)
	}

	rec := record.New(model.TypeName, id)
	res := &Result{Record: rec}
	fc := &fieldContext{typeName: model.TypeName, recordName: id.Name, result: res, targetScope: targetScope}

	for _, prop := range model.Properties {
		v, err := p.projectField(fc, prop, obj.Value(prop.Name))
		if err != nil {
			return nil, p.fail(err)
		}
		if v != nil {
			rec.Set(prop.Name, v)
		}
	}

	p.observer.Projected(model.TypeName, time.Since(start))
	p.logger.Debug("record projected",
		"type", model.TypeName,
		"record", id.Name,
		"zone", id.Zone.Name,
		"fields", len(rec.Fields),
		"diagnostics", len(res.Diagnostics),
	)
	return res, nil
}

// RecordID derives obj's record identity under scope without assembling a
// record. Used to address deletions of tombstoned objects.
func (p *Projector) RecordID(obj schema.Object, scope schema.Scope) (record.RecordID, error) {
	model, ok := p.catalog.Lookup(obj.TypeName())
	if !ok {
		return record.RecordID{}, fatalError(CodeUnknownType, obj.TypeName(), "", "type is not in the catalog")
	}
	return p.zonedRecordID(obj, model, scope)
}

func (p *Projector) zonedRecordID(obj schema.Object, model *schema.ObjectModel, scope schema.Scope) (record.RecordID, error) {
	return deriveRecordID(obj, model, scope, p.zones.zone)
}

// projectField routes one property through the dispatcher.
// A nil Value means the field is omitted. Only fatal errors are returned.
func (p *Projector) projectField(fc *fieldContext, prop schema.PropertyDescriptor, v any) (record.Value, error) {
	switch route := Classify(prop); route {
	case RouteScalar:
		if isNil(v) {
			return record.Null{}, nil
		}
		sv, ok := scalarValue(prop.Kind, v)
		if !ok {
			p.diagnose(fc, slog.LevelWarn, CodeValueMismatch, prop.Name, mismatch(prop.Kind, v))
			return nil, nil
		}
		return sv, nil

	case RouteCollection:
		arr, err := projectCollection(prop.Kind, v)
		if err != nil {
			p.diagnose(fc, slog.LevelWarn, CodeValueMismatch, prop.Name, err.Error())
			return nil, nil
		}
		return arr, nil

	case RouteToOne:
		return p.encodeToOne(fc, prop, v)

	case RouteToMany:
		return p.encodeToMany(fc, prop, v)

	case RouteLocation:
		return p.projectLocation(fc, prop, v), nil

	case RouteAsset:
		return p.projectAsset(fc, prop, v), nil

	case RouteSkip:
		p.diagnose(fc, slog.LevelDebug, skipCode(prop), prop.Name,
			fmt.Sprintf("%s is not supported by the record format", describeKind(prop)))
		return nil, nil

	default:
		return nil, fmt.Errorf("unhandled route %s for field %q", route, prop.Name)
	}
}

// diagnose records a field-level diagnostic and logs it.
func (p *Projector) diagnose(fc *fieldContext, level slog.Level, code ErrorCode, field, message string) {
	fc.result.Diagnostics = append(fc.result.Diagnostics, Diagnostic{
		Level:   level,
		Code:    code,
		Type:    fc.typeName,
		Record:  fc.recordName,
		Field:   field,
		Message: message,
	})
	p.observer.Diagnosed(fc.typeName, string(code))
	p.logger.Log(context.Background(), level, "field not projected",
		"type", fc.typeName,
		"record", fc.recordName,
		"field", field,
		"code", string(code),
		"reason", message,
	)
}

// fail logs and observes a record-level failure, then returns it.
func (p *Projector) fail(err error) error {
	var pe *Error
	if !errors.As(err, &pe) {
		return err
	}
	if pe.Severity == SeverityFatal {
		p.logger.Error("projection aborted",
			"type", pe.TypeName,
			"code", string(pe.Code),
			"error", pe.Error(),
		)
		return err
	}
	p.observer.Skipped(pe.TypeName, string(pe.Code))
	p.logger.Warn("record skipped",
		"type", pe.TypeName,
		"code", string(pe.Code),
		"error", pe.Error(),
	)
	return err
}
