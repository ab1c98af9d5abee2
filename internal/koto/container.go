package koto

import "fmt"

// List is a shared, ordered, mutable sequence of Values. All Value handles
// that reference the same List see the same mutations.
type List struct {
	items  []Value
	locked int // > 0 while something is iterating this list
}

// NewEmptyList allocates a List with the given initial contents. The slice is
// taken ownership of; callers should not mutate it afterwards.
func NewEmptyList(items []Value) *List {
	return &List{items: items}
}

func (l *List) Len() int { return len(l.items) }

// Items returns the live backing slice. Callers must not retain it across a
// mutation of l.
func (l *List) Items() []Value { return l.items }

// Get resolves an index: negative indexes count from the end, out-of-range
// is an error.
func (l *List) Get(i int) (Value, error) {
	idx, err := resolveIndex(i, len(l.items))
	if err != nil {
		return Value{}, err
	}
	return l.items[idx], nil
}

// Set overwrites the element at i, applying the same index rules as Get.
func (l *List) Set(i int, v Value) error {
	if l.locked > 0 {
		return fmt.Errorf("cannot modify a list while it is being iterated")
	}
	idx, err := resolveIndex(i, len(l.items))
	if err != nil {
		return err
	}
	l.items[idx] = v
	return nil
}

// Append adds v to the end of the list.
func (l *List) Append(v Value) error {
	if l.locked > 0 {
		return fmt.Errorf("cannot modify a list while it is being iterated")
	}
	l.items = append(l.items, v)
	return nil
}

// Slice produces a *new* List holding the elements selected by an
// IndexRange; the result is a new value, not a view onto l.
func (l *List) Slice(r IndexRange) (*List, error) {
	start, end, err := resolveSliceBounds(r, len(l.items))
	if err != nil {
		return nil, err
	}
	out := make([]Value, end-start)
	copy(out, l.items[start:end])
	return NewEmptyList(out), nil
}

// Clone returns a new List with the same elements (shallow: element handles
// are shared, so `copy` stays shallow over nested reference values).
func (l *List) Clone() *List {
	items := make([]Value, len(l.items))
	copy(items, l.items)
	return NewEmptyList(items)
}

// Lock marks the list as being iterated, guarding against re-entrant
// mutation. Unlock must be called, typically via defer, once iteration
// finishes.
func (l *List) Lock() { l.locked++ }

// Unlock releases a Lock.
func (l *List) Unlock() {
	if l.locked > 0 {
		l.locked--
	}
}

// Map is a shared, insertion-ordered, mutable string-keyed mapping.
type Map struct {
	keys   []string
	values map[string]Value
	locked int
}

// NewEmptyMap allocates an empty ordered Map.
func NewEmptyMap() *Map {
	return &Map{values: make(map[string]Value)}
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string { return m.keys }

// Get looks up key, reporting whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set inserts or updates key. Insertion order is preserved for existing
// keys; a brand new key is appended to the end.
func (m *Map) Set(key string, v Value) error {
	if m.locked > 0 {
		return fmt.Errorf("cannot modify a map while it is being iterated")
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return nil
}

// Remove deletes key if present, preserving the relative order of the rest.
func (m *Map) Remove(key string) error {
	if m.locked > 0 {
		return fmt.Errorf("cannot modify a map while it is being iterated")
	}
	if _, exists := m.values[key]; !exists {
		return nil
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Clone returns a new Map with the same entries in the same order (shallow).
func (m *Map) Clone() *Map {
	out := NewEmptyMap()
	for _, k := range m.keys {
		out.keys = append(out.keys, k)
		out.values[k] = m.values[k]
	}
	return out
}

func (m *Map) Lock() { m.locked++ }

func (m *Map) Unlock() {
	if m.locked > 0 {
		m.locked--
	}
}

func resolveIndex(i, length int) (int, error) {
	idx := i
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, fmt.Errorf("index %d out of range for length %d", i, length)
	}
	return idx, nil
}

// resolveSliceBounds turns an IndexRange into concrete [start,end) bounds,
// clamped and defaulted the way a missing bound implies "to the start" or
// "to the end".
func resolveSliceBounds(r IndexRange, length int) (int, int, error) {
	start := 0
	if r.Start != nil {
		s := *r.Start
		if s < 0 {
			s += length
		}
		if s < 0 || s > length {
			return 0, 0, fmt.Errorf("slice start %d out of range for length %d", *r.Start, length)
		}
		start = s
	}

	end := length
	if r.End != nil {
		e := *r.End
		if e < 0 {
			e += length
		}
		if r.Inclusive {
			e++
		}
		if e < 0 || e > length {
			return 0, 0, fmt.Errorf("slice end %d out of range for length %d", *r.End, length)
		}
		end = e
	}

	if end < start {
		end = start
	}
	return start, end, nil
}
