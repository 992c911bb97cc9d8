package types

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDuplicateKey    = errors.New("key already present at another index")
)

// Entry is a key/value pair owned by an OrderedMap.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

func (e Entry[K, V]) String() string {
	return fmt.Sprintf("%v: %v", e.Key, e.Value)
}

// OrderedMap is a map with unique keys that also keeps its entries in a
// linear order. The order is the insertion order unless changed by Insert,
// SetAt or Sort. The zero value is an empty map ready to use.
//
// OrderedMap is not safe for concurrent use.
type OrderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{
		values: make(map[K]V),
	}
}

// FromPairs builds a map from pairs in order. A key seen more than once keeps
// the position of its first occurrence and the value of its last.
func FromPairs[K comparable, V any](pairs ...Entry[K, V]) *OrderedMap[K, V] {
	m := &OrderedMap[K, V]{
		keys:   make([]K, 0, len(pairs)),
		values: make(map[K]V, len(pairs)),
	}
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}

	return m
}

func (m *OrderedMap[K, V]) Get(key K) (value V, ok bool) {
	value, ok = m.values[key]
	return
}

// IndexOf returns the position of key in the order.
func (m *OrderedMap[K, V]) IndexOf(key K) (int, bool) {
	if _, ok := m.values[key]; !ok {
		return -1, false
	}
	for i, k := range m.keys {
		if k == key {
			return i, true
		}
	}

	return -1, false
}

func (m *OrderedMap[K, V]) Contains(key K) bool {
	_, ok := m.values[key]
	return ok
}

// At returns the entry at index. Out of range indices report false.
func (m *OrderedMap[K, V]) At(index int) (e Entry[K, V], ok bool) {
	if index < 0 || index >= len(m.keys) {
		return
	}
	key := m.keys[index]

	return Entry[K, V]{Key: key, Value: m.values[key]}, true
}

func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

func (m *OrderedMap[K, V]) Empty() bool {
	return len(m.keys) == 0
}

// Keys returns a copy of the keys in order.
func (m *OrderedMap[K, V]) Keys() []K {
	keys := make([]K, len(m.keys))
	copy(keys, m.keys)

	return keys
}

// Values returns the values in key order.
func (m *OrderedMap[K, V]) Values() []V {
	values := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		values = append(values, m.values[k])
	}

	return values
}

// All yields every entry with its index, in order. The map must not be
// modified while iterating.
func (m *OrderedMap[K, V]) All() iter.Seq2[int, Entry[K, V]] {
	return func(yield func(int, Entry[K, V]) bool) {
		for i, k := range m.keys {
			if !yield(i, Entry[K, V]{Key: k, Value: m.values[k]}) {
				return
			}
		}
	}
}

// Set stores value under key. A new key is appended to the end, an existing
// one keeps its index. The previous value is returned if there was one.
func (m *OrderedMap[K, V]) Set(key K, value V) (previous V, existed bool) {
	m.init()
	previous, existed = m.values[key]
	if !existed {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value

	return
}

// Delete removes key and shifts later entries down by one.
func (m *OrderedMap[K, V]) Delete(key K) (value V, ok bool) {
	i, ok := m.IndexOf(key)
	if !ok {
		return
	}
	value = m.values[key]
	m.removeIndex(i)

	return value, true
}

// SetAt replaces the entry at index with key and value. When key differs
// from the key in that slot the slot is renamed; a key that already lives
// at another index is rejected with ErrDuplicateKey. Nothing changes when
// an error is returned. The replaced entry is returned.
func (m *OrderedMap[K, V]) SetAt(index int, key K, value V) (Entry[K, V], error) {
	old, ok := m.At(index)
	if !ok {
		return old, fmt.Errorf("set at %d of %d: %w", index, len(m.keys), ErrIndexOutOfRange)
	}
	if old.Key != key {
		if _, taken := m.values[key]; taken {
			return old, fmt.Errorf("set %v at %d: %w", key, index, ErrDuplicateKey)
		}
		delete(m.values, old.Key)
		m.keys[index] = key
	}
	m.values[key] = value

	return old, nil
}

// Insert places key and value at index, shifting the entries at and after
// it. Indices past the end append and negative ones insert at the front.
//
// An existing key is removed first and then inserted, so when it sat before
// index it lands one slot earlier than index. The previous value of an
// existing key is returned.
func (m *OrderedMap[K, V]) Insert(index int, key K, value V) (previous V, existed bool) {
	m.init()
	index = clamp(index, len(m.keys))

	if old, ok := m.IndexOf(key); ok {
		previous, existed = m.values[key], true
		m.removeIndex(old)
		if old < index {
			index--
		}
		index = clamp(index, len(m.keys))
	}

	m.keys = slices.Insert(m.keys, index, key)
	m.values[key] = value

	return
}

// RemoveAt removes the entry at index. Out of range indices report false
// and leave the map untouched.
func (m *OrderedMap[K, V]) RemoveAt(index int) (Entry[K, V], bool) {
	e, ok := m.At(index)
	if ok {
		m.removeIndex(index)
	}

	return e, ok
}

func (m *OrderedMap[K, V]) Clear() {
	m.keys = nil
	m.values = make(map[K]V)
}

// Sort reorders the entries with a stable sort. Values stay attached to
// their keys.
func (m *OrderedMap[K, V]) Sort(less func(a, b Entry[K, V]) bool) {
	sort.SliceStable(m.keys, func(i, j int) bool {
		a, b := m.keys[i], m.keys[j]
		return less(Entry[K, V]{Key: a, Value: m.values[a]}, Entry[K, V]{Key: b, Value: m.values[b]})
	})
}

// Clone returns an independent copy of m.
func (m *OrderedMap[K, V]) Clone() *OrderedMap[K, V] {
	c := &OrderedMap[K, V]{
		keys:   make([]K, len(m.keys)),
		values: make(map[K]V, len(m.values)),
	}
	copy(c.keys, m.keys)
	for k, v := range m.values {
		c.values[k] = v
	}

	return c
}

// EqualFunc reports whether both maps hold the same keys in the same order
// with values equal under eq.
func (m *OrderedMap[K, V]) EqualFunc(other *OrderedMap[K, V], eq func(a, b V) bool) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, k := range m.keys {
		if other.keys[i] != k || !eq(m.values[k], other.values[k]) {
			return false
		}
	}

	return true
}

func Equal[K, V comparable](a, b *OrderedMap[K, V]) bool {
	return a.EqualFunc(b, func(x, y V) bool { return x == y })
}

// String renders the map as [k1: v1, k2: v2].
func (m *OrderedMap[K, V]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range m.All() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(']')

	return sb.String()
}

func (m *OrderedMap[K, V]) init() {
	if m.values == nil {
		m.values = make(map[K]V)
	}
}

func (m *OrderedMap[K, V]) removeIndex(i int) {
	delete(m.values, m.keys[i])
	m.keys = slices.Delete(m.keys, i, i+1)
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}

	return index
}
