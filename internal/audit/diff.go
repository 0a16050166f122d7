// Package audit computes field-level change deltas and appends immutable
// audit records for every mutation.
package audit

import (
	"reflect"

	"laci-tracker/internal/domain"
)

// volatileKeys are bookkeeping fields that are never audit-worthy on their
// own. They are stripped from every payload before it is persisted.
var volatileKeys = map[string]struct{}{
	"modifiedBy":   {},
	"modifiedById": {},
	"createdById":  {},
	"createdAt":    {},
	"updatedAt":    {},
}

// Diff returns the old/new pair for every key of next whose value differs
// from prev. Diff(a, a) is empty for all a.
func Diff(prev, next map[string]any) map[string]domain.Change {
	diff := make(map[string]domain.Change)
	for key, newVal := range next {
		oldVal, ok := prev[key]
		if ok && reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		diff[key] = domain.Change{Old: oldVal, New: newVal}
	}
	return diff
}

// StripVolatile removes bookkeeping keys from a flat payload. Callers must
// skip audit writing entirely when the stripped result is empty.
func StripVolatile(values map[string]any) map[string]any {
	stripped := make(map[string]any, len(values))
	for key, v := range values {
		if _, skip := volatileKeys[key]; skip {
			continue
		}
		stripped[key] = v
	}
	return stripped
}

// StripVolatileChanges is StripVolatile for old/new pair maps.
func StripVolatileChanges(changes map[string]domain.Change) map[string]domain.Change {
	stripped := make(map[string]domain.Change, len(changes))
	for key, c := range changes {
		if _, skip := volatileKeys[key]; skip {
			continue
		}
		stripped[key] = c
	}
	return stripped
}
