package columnar

import "github.com/RoaringBitmap/roaring/v2"

// Builder accumulates values and nulls for a new single-chunk column.
type Builder[T Elem] struct {
	name   string
	values []T
	nulls  *roaring.Bitmap
}

// NewBuilder creates a builder with a capacity hint for the output.
func NewBuilder[T Elem](name string, capacity int) *Builder[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Builder[T]{name: name, values: make([]T, 0, capacity)}
}

func (b *Builder[T]) Append(v T) {
	b.values = append(b.values, v)
}

func (b *Builder[T]) AppendNull() {
	if b.nulls == nil {
		b.nulls = roaring.New()
	}
	b.nulls.Add(uint32(len(b.values)))
	var zero T
	b.values = append(b.values, zero)
}

func (b *Builder[T]) AppendOpt(v T, valid bool) {
	if valid {
		b.Append(v)
	} else {
		b.AppendNull()
	}
}

func (b *Builder[T]) Finish() *Chunked[T] {
	ca := NewChunked(b.name, b.values)
	ca.nulls = b.nulls
	return ca
}
