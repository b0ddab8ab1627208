package attributes

import "reflect"

// Store keeps the current attribute values of an entity together with a
// baseline snapshot of the last state that was confirmed by the backend.
// The difference between the two is what a partial update should send.
type Store struct {
	attributes map[string]any
	original   map[string]any
	changes    map[string]any
}

func NewStore() *Store {
	return &Store{
		attributes: map[string]any{},
		original:   map[string]any{},
		changes:    map[string]any{},
	}
}

// Set overwrites the named attribute unconditionally. No validation or
// type coercion is performed.
func (s *Store) Set(name string, value any) {
	s.attributes[name] = value
}

// Get returns the current value of the named attribute, or nil if it has
// never been set.
func (s *Store) Get(name string) any {
	return s.attributes[name]
}

// Has reports whether the named attribute is present with a non nil value.
func (s *Store) Has(name string) bool {
	value, ok := s.attributes[name]
	return ok && value != nil
}

func (s *Store) Remove(name string) {
	delete(s.attributes, name)
}

// All returns a copy of the current attributes.
func (s *Store) All() map[string]any {
	all := make(map[string]any, len(s.attributes))
	for k, v := range s.attributes {
		all[k] = v
	}
	return all
}

// Original returns a copy of the baseline snapshot.
func (s *Store) Original() map[string]any {
	original := make(map[string]any, len(s.original))
	for k, v := range s.original {
		original[k] = v
	}
	return original
}

// SyncOriginal replaces the baseline with a deep copy of the current
// attributes. It should be called after the initial fill and after each
// successful insert or update, never during ordinary mutation.
func (s *Store) SyncOriginal() {
	s.original = make(map[string]any, len(s.attributes))
	for k, v := range s.attributes {
		s.original[k] = deepCopy(v)
	}
}

// IsDirty reports whether any of the named attributes differ from the
// baseline. With no arguments it considers every attribute, including
// ones that have been removed since the last sync.
func (s *Store) IsDirty(names ...string) bool {
	if len(names) == 0 {
		for name := range s.attributes {
			if s.IsDirty(name) {
				return true
			}
		}
		for name := range s.original {
			if _, ok := s.attributes[name]; !ok {
				return true
			}
		}
		return false
	}

	for _, name := range names {
		current, hasCurrent := s.attributes[name]
		baseline, hasBaseline := s.original[name]

		if hasCurrent != hasBaseline {
			return true
		}

		if hasCurrent && !equal(current, baseline) {
			return true
		}
	}

	return false
}

// Dirty returns the subset of the current attributes that differ from the
// baseline. This is the exact payload for a partial update.
func (s *Store) Dirty() map[string]any {
	dirty := map[string]any{}

	for name, value := range s.attributes {
		if s.IsDirty(name) {
			dirty[name] = value
		}
	}

	return dirty
}

// SyncChanges folds the current dirty set into the accumulated changes.
// The baseline is left untouched and has to be synced separately.
func (s *Store) SyncChanges() {
	for name, value := range s.Dirty() {
		s.changes[name] = value
	}
}

// Changes returns a copy of the attributes that have been recorded as
// changed by previous calls to SyncChanges.
func (s *Store) Changes() map[string]any {
	changes := make(map[string]any, len(s.changes))
	for k, v := range s.changes {
		changes[k] = v
	}
	return changes
}

// equal compares two attribute values structurally. Records come back from
// the backend after a round trip through JSON, so numbers are compared by
// value rather than by Go type.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}

	switch at := a.(type) {
	case map[string]any:
		bt, ok := b.(map[string]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !equal(av, bv) {
				return false
			}
		}
		return true
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !equal(at[i], bt[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = deepCopy(e)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = deepCopy(e)
		}
		return c
	}
	return v
}
