package vkdriver

// table issues the opaque handles the engine sees for driver objects.
// Handle zero is never issued and resolves to the zero object.
type table[T any] struct {
	next uint64
	objs map[uint64]T
}

func (t *table[T]) put(obj T) uint64 {
	if t.objs == nil {
		t.objs = make(map[uint64]T)
	}
	t.next++
	t.objs[t.next] = obj
	return t.next
}

func (t *table[T]) get(h uint64) T {
	return t.objs[h]
}

// take removes h and returns its object.
func (t *table[T]) take(h uint64) (T, bool) {
	obj, ok := t.objs[h]
	if ok {
		delete(t.objs, h)
	}
	return obj, ok
}

func (t *table[T]) len() int {
	return len(t.objs)
}
