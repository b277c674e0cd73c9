package lookup

import "acoustid/model"

// OrderedMap is a map that remembers the order in which keys were first set.
type OrderedMap[K comparable, V any] struct {
	index  map[K]int
	keys   []K
	values []V
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{index: make(map[K]int)}
}

// Get returns the value stored for key.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if i, ok := m.index[key]; ok {
		return m.values[i], true
	}
	var zero V
	return zero, false
}

// Set stores value under key. A new key goes to the end; an existing key
// keeps its position.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if i, ok := m.index[key]; ok {
		m.values[i] = value
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// Len returns the number of keys.
func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	return m.keys
}

// Values returns the values in key insertion order.
func (m *OrderedMap[K, V]) Values() []V {
	return m.values
}

// group is a node together with every row that carried its key.
type group[N any] struct {
	node N
	rows []model.MetadataRow
}

// groupRows scans rows once. The node of a key is extracted from the first
// row carrying it; every row is kept so the next level can be grouped from it.
func groupRows[K comparable, N any](rows []model.MetadataRow, key func(*model.MetadataRow) K, extract func(*model.MetadataRow) N) []*group[N] {
	groups := NewOrderedMap[K, *group[N]]()
	for i := range rows {
		row := &rows[i]
		k := key(row)
		g, ok := groups.Get(k)
		if !ok {
			g = &group[N]{node: extract(row)}
			groups.Set(k, g)
		}
		g.rows = append(g.rows, *row)
	}
	return groups.Values()
}
