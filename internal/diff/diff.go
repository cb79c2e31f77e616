// Package diff computes field-level changes between two snapshots of one form.
package diff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/spec-kit/ticket-activity/internal/domain"
)

// Transform maps a stored value to the value operators read in the activity log,
// e.g. a state code to its name. It must not block.
type Transform func(any) any

// Field declares one audited field of a form.
type Field struct {
	Key       string
	Label     string
	Transform Transform
}

// FieldSpec is the declarative description of a form: ordered fields, keys never audited,
// and per-field display transforms.
type FieldSpec struct {
	Fields   []Field
	Excluded map[string]struct{}
}

// FieldChange is one changed field. Old and New are display values (after Transform).
type FieldChange struct {
	Key   string
	Field string
	Old   any
	New   any
}

// NewExcluded builds an exclusion set.
func NewExcluded(keys ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}

// IsExcluded reports whether key is never audited.
func (s FieldSpec) IsExcluded(key string) bool {
	_, ok := s.Excluded[key]
	return ok
}

// Undeclared lists snapshot keys that are neither declared fields nor excluded.
// The result is sorted.
func (s FieldSpec) Undeclared(snap domain.Snapshot) []string {
	declared := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		declared[f.Key] = struct{}{}
	}
	var out []string
	for k := range snap {
		if _, ok := declared[k]; ok {
			continue
		}
		if s.IsExcluded(k) {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Diff returns the changes from prior to next in declared field order.
// Keys absent from next are skipped; a key absent from prior reads as nil.
// Both snapshots are required: a nil snapshot is a caller bug and panics.
func Diff(prior, next domain.Snapshot, spec FieldSpec) []FieldChange {
	if prior == nil || next == nil {
		panic("diff: prior and next snapshots are required")
	}

	var changes []FieldChange
	for _, f := range spec.Fields {
		if spec.IsExcluded(f.Key) {
			continue
		}
		newVal, ok := next[f.Key]
		if !ok {
			continue
		}
		oldVal := prior[f.Key]
		if Equal(oldVal, newVal) {
			continue
		}
		if f.Transform != nil {
			oldVal = f.Transform(oldVal)
			newVal = f.Transform(newVal)
		}
		label := f.Label
		if label == "" {
			label = f.Key
		}
		changes = append(changes, FieldChange{Key: f.Key, Field: label, Old: oldVal, New: newVal})
	}
	return changes
}

// Equal compares by value. Composite values (slices, maps, structs) compare by their
// canonical JSON encoding, so two brand lists with the same content are equal regardless
// of identity.
func Equal(a, b any) bool {
	ca, errA := canonical(a)
	cb, errB := canonical(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ca, cb)
}

func canonical(v any) ([]byte, error) {
	if t, ok := v.(time.Time); ok {
		return []byte(t.UTC().Format(time.RFC3339Nano)), nil
	}
	// encoding/json sorts map keys, which is what makes this canonical.
	return json.Marshal(v)
}

// Format renders a display value for the audit record's old/new columns.
// nil stays nil so "no value" and "empty string" remain distinguishable.
func Format(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case time.Time:
		s = val.Format(time.RFC3339)
	case fmt.Stringer:
		s = val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(b)
		}
	}
	return &s
}
