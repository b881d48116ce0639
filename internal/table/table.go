// Package table provides an insertion-ordered map used for per-serialno and
// per-input bookkeeping.
package table

import (
	"container/list"
)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Table is a map that iterates in insertion order. Re-inserting an existing
// key updates its value without moving it. Lookup, insertion and removal by
// key are O(1). It is not safe for concurrent use.
type Table[K comparable, V any] struct {
	index map[K]*list.Element
	order *list.List
}

// New returns an empty table.
func New[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{index: make(map[K]*list.Element), order: list.New()}
}

// Put inserts or updates key.
func (t *Table[K, V]) Put(key K, value V) {
	if el, ok := t.index[key]; ok {
		el.Value.(*entry[K, V]).value = value
		return
	}
	t.index[key] = t.order.PushBack(&entry[K, V]{key: key, value: value})
}

// Get returns the value stored under key.
func (t *Table[K, V]) Get(key K) (V, bool) {
	el, ok := t.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*entry[K, V]).value, true
}

// Has reports whether key is present.
func (t *Table[K, V]) Has(key K) bool {
	_, ok := t.index[key]
	return ok
}

// Remove deletes key and reports whether it was present.
func (t *Table[K, V]) Remove(key K) bool {
	el, ok := t.index[key]
	if !ok {
		return false
	}
	t.order.Remove(el)
	delete(t.index, key)
	return true
}

// Len returns the number of entries.
func (t *Table[K, V]) Len() int { return len(t.index) }

// Empty reports whether the table has no entries.
func (t *Table[K, V]) Empty() bool { return len(t.index) == 0 }

// Clear removes all entries.
func (t *Table[K, V]) Clear() {
	clear(t.index)
	t.order.Init()
}

// Keys returns a snapshot of the keys in insertion order.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, 0, len(t.index))
	for el := t.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Values returns a snapshot of the values in insertion order.
func (t *Table[K, V]) Values() []V {
	values := make([]V, 0, len(t.index))
	for el := t.order.Front(); el != nil; el = el.Next() {
		values = append(values, el.Value.(*entry[K, V]).value)
	}
	return values
}

// Each calls fn for every entry in insertion order. fn must not modify the table.
func (t *Table[K, V]) Each(fn func(key K, value V)) {
	for el := t.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		fn(e.key, e.value)
	}
}
