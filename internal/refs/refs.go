// Package refs provides integer-keyed registries used to pass opaque
// references across the engine boundary instead of native pointers.
package refs

import "sync"

// Table maps small monotonically-increasing integer references to values.
// The zero reference is never issued, so 0 can be used as "no reference".
type Table[T any] struct {
	mu    sync.RWMutex
	seq   int
	items map[int]T
}

// NewTable creates an empty reference table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{items: make(map[int]T)}
}

// Put registers v and returns its reference.
func (t *Table[T]) Put(v T) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.items[t.seq] = v
	return t.seq
}

// Get returns the value registered under ref.
func (t *Table[T]) Get(ref int) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[ref]
	return v, ok
}

// Del removes ref from the table. Unknown references are ignored.
func (t *Table[T]) Del(ref int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, ref)
}

// Len reports the number of live references.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}
