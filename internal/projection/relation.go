package projection

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/schema"
)

// encodeToOne encodes a single related object as a reference.
//
// The target's tombstone flag is NOT checked: a to-one reference to a
// soft-deleted object is still emitted. Only to-many relationships filter
// tombstones.
//
// An unset relationship, or a target failing the projection contract,
// clears the field with Null. A target whose type is misconfigured fails the
// contract too; the target's own projection reports the misconfiguration.
func (p *Projector) encodeToOne(fc *fieldContext, prop schema.PropertyDescriptor, v any) (record.Value, error) {
	if isNil(v) {
		return record.Null{}, nil
	}
	target, ok := v.(schema.Syncable)
	if !ok {
		p.diagnose(fc, slog.LevelWarn, CodeTargetNotSyncable, prop.Name,
			fmt.Sprintf("%T does not take part in synchronization", v))
		return record.Null{}, nil
	}
	id, err := p.targetID(fc, target)
	if err != nil {
		p.diagnose(fc, slog.LevelWarn, CodeTargetNotSyncable, prop.Name, err.Error())
		return record.Null{}, nil
	}
	return record.NewReference(id), nil
}

// encodeToMany encodes an ordered list of related objects as references.
//
// Elements that are soft-deleted or fail the projection contract are dropped.
// When nothing survives, the field is cleared with Null so the remote store
// hides a previously populated relationship.
func (p *Projector) encodeToMany(fc *fieldContext, prop schema.PropertyDescriptor, v any) (record.Value, error) {
	elems, ok := elements(v)
	if !ok {
		p.diagnose(fc, slog.LevelWarn, CodeValueMismatch, prop.Name,
			fmt.Sprintf("value should be a list of %s, got %T", prop.RelatedType, v))
		return nil, nil
	}

	refs := make(record.ReferenceArray, 0, len(elems))
	for i, e := range elems {
		if isNil(e) {
			continue
		}
		target, ok := e.(schema.Syncable)
		if !ok {
			p.diagnose(fc, slog.LevelDebug, CodeTargetNotSyncable, prop.Name,
				fmt.Sprintf("element %d: %T does not take part in synchronization", i, e))
			continue
		}
		if target.IsDeleted() {
			continue
		}
		id, err := p.targetID(fc, target)
		if err != nil {
			level := slog.LevelDebug
			if IsFatal(err) {
				level = slog.LevelWarn
			}
			p.diagnose(fc, level, CodeTargetNotSyncable, prop.Name,
				fmt.Sprintf("element %d: %v", i, err))
			continue
		}
		refs = append(refs, record.NewReference(id))
	}

	if len(refs) == 0 {
		return record.Null{}, nil
	}
	return refs, nil
}

// targetID derives a relationship target's identity under the record's
// target scope, or the target type's declared scope when none is set.
func (p *Projector) targetID(fc *fieldContext, target schema.Syncable) (record.RecordID, error) {
	model, ok := p.catalog.Lookup(target.TypeName())
	if !ok {
		return record.RecordID{}, softError(CodeTargetNotSyncable, target.TypeName(), "", "type is not in the catalog")
	}
	scope := model.Scope
	if fc.targetScope != nil {
		scope = *fc.targetScope
	}
	return deriveRecordID(target, model, scope, p.zones.zone)
}

// projectLocation projects a geolocation wrapper to its native value.
func (p *Projector) projectLocation(fc *fieldContext, prop schema.PropertyDescriptor, v any) record.Value {
	if isNil(v) {
		return record.Null{}
	}
	lp, ok := v.(schema.LocationProvider)
	if !ok {
		p.diagnose(fc, slog.LevelWarn, CodeValueMismatch, prop.Name,
			fmt.Sprintf("%T is not a geolocation", v))
		return record.Null{}
	}
	loc := lp.Location()
	if !isFinite(loc.Latitude) || !isFinite(loc.Longitude) {
		p.diagnose(fc, slog.LevelWarn, CodeValueMismatch, prop.Name,
			fmt.Sprintf("coordinates must be finite, got (%v, %v)", loc.Latitude, loc.Longitude))
		return record.Null{}
	}
	return loc
}

// projectAsset projects a binary-asset wrapper to its native value.
func (p *Projector) projectAsset(fc *fieldContext, prop schema.PropertyDescriptor, v any) record.Value {
	if isNil(v) {
		return record.Null{}
	}
	ap, ok := v.(schema.AssetProvider)
	if !ok {
		p.diagnose(fc, slog.LevelWarn, CodeValueMismatch, prop.Name,
			fmt.Sprintf("%T is not a binary asset", v))
		return record.Null{}
	}
	return ap.Asset()
}

// isNil reports whether v is nil or a typed nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
