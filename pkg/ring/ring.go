// Package ring provides a fixed-capacity circular buffer that overwrites
// its oldest element once full.
package ring

// Buffer is a generic fixed-capacity circular buffer.
// It is not safe for concurrent use.
type Buffer[T any] struct {
	data  []T
	next  int // write position
	count int
}

// New creates a buffer holding at most capacity elements.
// It panics if capacity is not positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Append adds v, overwriting the oldest element when the buffer is full.
func (b *Buffer[T]) Append(v T) {
	b.data[b.next] = v
	b.next = (b.next + 1) % len(b.data)
	if b.count < len(b.data) {
		b.count++
	}
}

// Len returns the number of stored elements (saturates at Cap).
func (b *Buffer[T]) Len() int {
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.data)
}

// Full reports whether the buffer holds Cap elements.
func (b *Buffer[T]) Full() bool {
	return b.count == len(b.data)
}

// Chronological returns a copy of the elements ordered oldest to newest.
func (b *Buffer[T]) Chronological() []T {
	return b.Last(b.count)
}

// Last returns the newest min(n, Len) elements in chronological order.
func (b *Buffer[T]) Last(n int) []T {
	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	capacity := len(b.data)
	start := (b.next - n + capacity) % capacity
	for i := 0; i < n; i++ {
		out[i] = b.data[(start+i)%capacity]
	}
	return out
}

// Newest returns the element i positions back from the newest one
// (0 is the newest). ok is false when i is out of range.
func (b *Buffer[T]) Newest(i int) (v T, ok bool) {
	if i < 0 || i >= b.count {
		return v, false
	}
	capacity := len(b.data)
	return b.data[(b.next-1-i+2*capacity)%capacity], true
}

// Reset drops every element without reallocating.
func (b *Buffer[T]) Reset() {
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.next = 0
	b.count = 0
}
