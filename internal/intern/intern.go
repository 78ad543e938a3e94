// Package intern hash-conses canonical values to sequential integer ids and
// hands the ids back, in allocation order, as a worklist.
package intern

// Keyer is implemented by values with a canonical encoding. Two values with
// the same Key are the same value.
type Keyer interface {
	Key() string
}

// Table maps distinct values to ids allocated in first-seen order.
//
// The zero value is not usable; use New.
type Table[T Keyer] struct {
	ids    map[string]int
	values []T
	cursor int
}

// New creates an empty Table.
func New[T Keyer]() *Table[T] {
	return &Table[T]{ids: map[string]int{}}
}

// Intern returns the id of v, allocating the next id if no equal value has
// been seen before. added is true if v was new, in which case the id is also
// queued for Next.
func (t *Table[T]) Intern(v T) (id int, added bool) {
	key := v.Key()
	if id, ok := t.ids[key]; ok {
		return id, false
	}
	id = len(t.values)
	t.ids[key] = id
	t.values = append(t.values, v)
	return id, true
}

// Next pops the oldest id not yet returned by Next.
func (t *Table[T]) Next() (int, bool) {
	if t.cursor >= len(t.values) {
		return 0, false
	}
	id := t.cursor
	t.cursor++
	return id, true
}

// Value returns the value interned as id.
func (t *Table[T]) Value(id int) T {
	return t.values[id]
}

// Len returns the number of distinct values interned.
func (t *Table[T]) Len() int {
	return len(t.values)
}
