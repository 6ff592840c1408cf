package copper

import (
	"context"
	"fmt"
)

// ListSet is a lazy view over a list-only resource's records. The listing
// endpoint delivers everything in one response, which is fetched on first
// use and memoized; indexing and slicing behave like ResultSet.
type ListSet[T Entityer] struct {
	cur *cursor[T]
}

func newListSet[T Entityer](fetchAll func(ctx context.Context) ([]T, error)) *ListSet[T] {
	fetch := func(ctx context.Context, page int) ([]T, bool, error) {
		records, err := fetchAll(ctx)
		if err != nil {
			return nil, false, err
		}

		return records, true, nil
	}

	return &ListSet[T]{cur: newCursor(fetch)}
}

// All fetches the listing if needed and returns every record.
func (ls *ListSet[T]) All(ctx context.Context) ([]T, error) {
	return ls.cur.all(ctx)
}

// Count returns the number of records.
func (ls *ListSet[T]) Count(ctx context.Context) (int, error) {
	records, err := ls.cur.all(ctx)
	if err != nil {
		return 0, err
	}

	return len(records), nil
}

// At returns the record at index i. Negative indexes are rejected.
func (ls *ListSet[T]) At(ctx context.Context, i int) (T, error) {
	var zero T

	if i < 0 {
		return zero, fmt.Errorf("%w: %d", ErrNegativeIndex, i)
	}

	err := ls.cur.ensure(ctx, i+1)
	if err != nil {
		return zero, err
	}

	record, ok := ls.cur.item(i)
	if !ok {
		return zero, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}

	return record, nil
}

// Slice returns the records in [start, stop), clamping bounds beyond the
// end.
func (ls *ListSet[T]) Slice(ctx context.Context, start, stop int) ([]T, error) {
	if start < 0 || stop < 0 {
		return nil, fmt.Errorf("%w: [%d:%d]", ErrNegativeIndex, start, stop)
	}

	if stop <= start {
		return []T{}, nil
	}

	err := ls.cur.ensure(ctx, stop)
	if err != nil {
		return nil, err
	}

	return ls.cur.slice(start, stop), nil
}

// ForEach applies fn to each record in order.
func (ls *ListSet[T]) ForEach(ctx context.Context, fn func(T) error) error {
	records, err := ls.cur.all(ctx)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := fn(record); err != nil {
			return err
		}
	}

	return nil
}

// Iterator returns a stepping iterator over the list set.
func (ls *ListSet[T]) Iterator(ctx context.Context) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, at: ls.At}
}
