package batch

import "context"

const defaultSize = 500

// Accumulator buffers homogeneous rows and hands them to a flush function in
// fixed-size chunks, decoupling per-record granularity from insert
// granularity. Flushes are sequential and never receive an empty batch.
type Accumulator[T any] struct {
	size  int
	flush func(context.Context, []T) error
	buf   []T
}

func New[T any](size int, flush func(context.Context, []T) error) *Accumulator[T] {
	if size <= 0 {
		size = defaultSize
	}
	return &Accumulator[T]{
		size:  size,
		flush: flush,
		buf:   make([]T, 0, size),
	}
}

// Push appends items in order, flushing every complete chunk immediately and
// keeping any remainder buffered.
func (a *Accumulator[T]) Push(ctx context.Context, items ...T) error {
	a.buf = append(a.buf, items...)
	for len(a.buf) >= a.size {
		chunk := a.buf[:a.size:a.size]
		rest := a.buf[a.size:]
		if err := a.flush(ctx, chunk); err != nil {
			return err
		}
		a.buf = append(make([]T, 0, a.size), rest...)
	}
	return nil
}

// Flush hands any buffered remainder to the flush function and clears it.
func (a *Accumulator[T]) Flush(ctx context.Context) error {
	if len(a.buf) == 0 {
		return nil
	}
	chunk := a.buf
	a.buf = make([]T, 0, a.size)
	return a.flush(ctx, chunk)
}

// Len reports how many items are currently buffered.
func (a *Accumulator[T]) Len() int {
	return len(a.buf)
}
