package types

import "golang.org/x/exp/constraints"

// SortByKey orders m by its keys.
func SortByKey[K constraints.Ordered, V any](m *OrderedMap[K, V], descending bool) {
	m.Sort(func(a, b Entry[K, V]) bool {
		if descending {
			return a.Key > b.Key
		}
		return a.Key < b.Key
	})
}

// SortByValue orders m by its values, keeping the current order among equal
// values.
func SortByValue[K comparable, V constraints.Ordered](m *OrderedMap[K, V], descending bool) {
	m.Sort(func(a, b Entry[K, V]) bool {
		if descending {
			return a.Value > b.Value
		}
		return a.Value < b.Value
	})
}
