package pool

// Resettable is implemented by values that can clear themselves for reuse.
type Resettable interface {
	Reset()
}

// Poolable values are resettable and comparable against their zero value.
type Poolable interface {
	Resettable
	comparable
}

// Pool is a bounded free list of reusable values of type T.
type Pool[T Poolable] struct {
	items   chan T
	newItem func() T
}

// New creates a Pool holding at most capacity idle values. newItem builds a
// fresh value whenever the pool is empty.
func New[T Poolable](capacity int, newItem func() T) *Pool[T] {
	return &Pool[T]{
		items:   make(chan T, capacity),
		newItem: newItem,
	}
}

// Get returns an idle value, or a new one when none is available.
func (p *Pool[T]) Get() T {
	select {
	case item := <-p.items:
		return item
	default:
		if p.newItem == nil {
			var zero T
			return zero
		}
		return p.newItem()
	}
}

// Put resets item and keeps it for reuse. Zero values are dropped, and so is
// anything offered to a full pool.
func (p *Pool[T]) Put(item T) {
	var zero T
	if item == zero {
		return
	}
	item.Reset()

	select {
	case p.items <- item:
	default:
	}
}

// Idle returns the number of values waiting in the pool.
func (p *Pool[T]) Idle() int {
	return len(p.items)
}
