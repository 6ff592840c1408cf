package copper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/copperhq/copper-client/internal/constants"
)

// StandardPageSize is the page size every search request asks for.
const StandardPageSize = constants.StandardPageSize

const (
	sortAscending  = "asc"
	sortDescending = "desc"
)

// ResultSet is a lazy, immutable view over the records a search produces.
// Narrowing methods return new result sets; nothing touches the network
// until a consuming method runs. Fetched pages are memoized, so consuming
// the same result set twice costs one round trip per page.
type ResultSet[T Entityer] struct {
	mgr        *Manager[T]
	params     Values
	orderField string
	orderDir   string
	pageSize   int
	sink       *[]RowError

	cur *cursor[T]
}

func newResultSet[T Entityer](m *Manager[T]) *ResultSet[T] {
	rs := &ResultSet[T]{
		mgr:      m,
		pageSize: StandardPageSize,
	}
	rs.cur = newCursor(rs.fetchPage)

	return rs
}

// derive copies the result set's settings into a fresh one with an empty
// cursor, so narrowed sets never share fetched state with their parent.
func (rs *ResultSet[T]) derive() *ResultSet[T] {
	next := &ResultSet[T]{
		mgr:        rs.mgr,
		orderField: rs.orderField,
		orderDir:   rs.orderDir,
		pageSize:   rs.pageSize,
		sink:       rs.sink,
	}

	if len(rs.params) > 0 {
		next.params = make(Values, len(rs.params))
		for name, value := range rs.params {
			next.params[name] = value
		}
	}

	next.cur = newCursor(next.fetchPage)

	return next
}

// Filter returns a new result set with the given parameters merged over the
// existing ones. On a key collision the later value wins.
func (rs *ResultSet[T]) Filter(params Values) *ResultSet[T] {
	next := rs.derive()

	if next.params == nil {
		next.params = make(Values, len(params))
	}

	for name, value := range params {
		next.params[name] = value
	}

	return next
}

// OrderBy returns a new result set sorted by the named field; a "-" prefix
// flips the direction to descending. Fields the search endpoint cannot sort
// by are rejected with the valid choices listed.
func (rs *ResultSet[T]) OrderBy(field string) (*ResultSet[T], error) {
	dir := sortAscending

	if strings.HasPrefix(field, "-") {
		dir = sortDescending
		field = field[1:]
	}

	if !rs.mgr.rt.Orderable(field) {
		return nil, fmt.Errorf("%w: %s cannot be sorted by %q, try one of %s",
			ErrNotOrderable, rs.mgr.rt.Name, field,
			strings.Join(rs.mgr.rt.OrderChoices(), ", "))
	}

	next := rs.derive()
	next.orderField = field
	next.orderDir = dir

	return next, nil
}

// StoreInvalid returns a new result set in permissive mode: rows the schema
// rejects are appended to sink instead of failing the whole fetch.
func (rs *ResultSet[T]) StoreInvalid(sink *[]RowError) *ResultSet[T] {
	next := rs.derive()
	next.sink = sink

	return next
}

// Params returns a copy of the filter parameters.
func (rs *ResultSet[T]) Params() Values {
	params := make(Values, len(rs.params))
	for name, value := range rs.params {
		params[name] = value
	}

	return params
}

// SortBy returns the sort field, or "" when unsorted.
func (rs *ResultSet[T]) SortBy() string { return rs.orderField }

// SortDirection returns "asc" or "desc", or "" when unsorted.
func (rs *ResultSet[T]) SortDirection() string { return rs.orderDir }

// All fetches every remaining page and returns the complete record list.
func (rs *ResultSet[T]) All(ctx context.Context) ([]T, error) {
	return rs.cur.all(ctx)
}

// Count fetches every remaining page and returns the number of records.
func (rs *ResultSet[T]) Count(ctx context.Context) (int, error) {
	records, err := rs.cur.all(ctx)
	if err != nil {
		return 0, err
	}

	return len(records), nil
}

// At returns the record at index i, fetching only as many pages as needed.
// Negative indexes are rejected: the set's length is unknown until fully
// fetched, so counting from the end is not supported.
func (rs *ResultSet[T]) At(ctx context.Context, i int) (T, error) {
	var zero T

	if i < 0 {
		return zero, fmt.Errorf("%w: %d", ErrNegativeIndex, i)
	}

	err := rs.cur.ensure(ctx, i+1)
	if err != nil {
		return zero, err
	}

	record, ok := rs.cur.item(i)
	if !ok {
		return zero, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}

	return record, nil
}

// Slice returns the records in [start, stop), fetching only as many pages as
// needed. Bounds beyond the end are clamped, matching slice-of-a-copy
// semantics rather than failing.
func (rs *ResultSet[T]) Slice(ctx context.Context, start, stop int) ([]T, error) {
	if start < 0 || stop < 0 {
		return nil, fmt.Errorf("%w: [%d:%d]", ErrNegativeIndex, start, stop)
	}

	if stop <= start {
		return []T{}, nil
	}

	err := rs.cur.ensure(ctx, stop)
	if err != nil {
		return nil, err
	}

	return rs.cur.slice(start, stop), nil
}

// SliceFrom returns the records from start to the end of the set.
func (rs *ResultSet[T]) SliceFrom(ctx context.Context, start int) ([]T, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: [%d:]", ErrNegativeIndex, start)
	}

	records, err := rs.cur.all(ctx)
	if err != nil {
		return nil, err
	}

	if start >= len(records) {
		return []T{}, nil
	}

	return records[start:], nil
}

// ForEach applies fn to each record in order, fetching pages as it goes.
// Iteration stops at the first error.
func (rs *ResultSet[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for i := 0; ; i++ {
		record, err := rs.At(ctx, i)
		if err != nil {
			if errors.Is(err, ErrIndexOutOfRange) {
				return nil
			}

			return err
		}

		if err := fn(record); err != nil {
			return err
		}
	}
}

// Iterator returns a stepping iterator over the result set.
func (rs *ResultSet[T]) Iterator(ctx context.Context) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, at: rs.At}
}

// buildQuery assembles the search request body for one page.
func (rs *ResultSet[T]) buildQuery(page int) map[string]any {
	query := make(map[string]any, len(rs.params)+4)

	for name, value := range rs.params {
		query[name] = value
	}

	query["page_size"] = rs.pageSize
	query["page_number"] = page

	if rs.orderField != "" {
		query["sort_by"] = rs.orderField
		query["sort_direction"] = rs.orderDir
	}

	return query
}

// fetchPage performs the POST search for one page. The set is exhausted when
// a page comes back empty or shorter than the page size.
func (rs *ResultSet[T]) fetchPage(ctx context.Context, page int) ([]T, bool, error) {
	if rs.mgr.rt.SearchPath == "" {
		return nil, false, fmt.Errorf("%w: %s", ErrNotSearchable, rs.mgr.rt.Name)
	}

	resp, err := rs.mgr.client.http.Post(ctx, rs.mgr.rt.SearchPath, rs.buildQuery(page))
	if err != nil {
		return nil, false, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		return nil, false, fmt.Errorf("parsing %s search page %d: %w", rs.mgr.rt.Name, page, err)
	}

	records := make([]T, 0, len(rows))

	for _, raw := range rows {
		record := rs.mgr.make(rs.mgr.client)

		if err := record.entity().FromWire(ctx, raw); err != nil {
			if rs.sink != nil && IsValidation(err) {
				*rs.sink = append(*rs.sink, RowError{Raw: raw, Err: err})

				continue
			}

			return nil, false, err
		}

		records = append(records, record)
	}

	done := len(rows) < rs.pageSize

	return records, done, nil
}

// cursor buffers fetched records. The buffer is append-only and guarded by a
// mutex, so concurrent consumers of one result set see a consistent prefix.
type cursor[T any] struct {
	fetch func(ctx context.Context, page int) ([]T, bool, error)

	mu       sync.Mutex
	items    []T
	nextPage int
	done     bool
}

func newCursor[T any](fetch func(ctx context.Context, page int) ([]T, bool, error)) *cursor[T] {
	return &cursor[T]{fetch: fetch, nextPage: 1}
}

// ensure fetches pages until at least n records are buffered or the source
// is exhausted.
func (c *cursor[T]) ensure(ctx context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for !c.done && len(c.items) < n {
		items, done, err := c.fetch(ctx, c.nextPage)
		if err != nil {
			return err
		}

		c.items = append(c.items, items...)
		c.nextPage++
		c.done = done
	}

	return nil
}

// all drains the source and returns the full buffer.
func (c *cursor[T]) all(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for !c.done {
		items, done, err := c.fetch(ctx, c.nextPage)
		if err != nil {
			return nil, err
		}

		c.items = append(c.items, items...)
		c.nextPage++
		c.done = done
	}

	return c.items[:len(c.items):len(c.items)], nil
}

func (c *cursor[T]) item(i int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i >= len(c.items) {
		var zero T

		return zero, false
	}

	return c.items[i], true
}

func (c *cursor[T]) slice(start, stop int) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if start >= len(c.items) {
		return []T{}
	}

	if stop > len(c.items) {
		stop = len(c.items)
	}

	out := make([]T, stop-start)
	copy(out, c.items[start:stop])

	return out
}

// Iterator steps through a result set one record at a time.
type Iterator[T any] struct {
	ctx context.Context
	at  func(ctx context.Context, i int) (T, error)

	next int
	err  error
	done bool
}

// HasNext reports whether another record is available, fetching if needed.
// A fetch failure ends iteration; the cause is available from Err.
func (it *Iterator[T]) HasNext() bool {
	if it.done || it.err != nil {
		return false
	}

	_, err := it.at(it.ctx, it.next)
	if err != nil {
		if errors.Is(err, ErrIndexOutOfRange) {
			it.done = true
		} else {
			it.err = err
		}

		return false
	}

	return true
}

// Next returns the next record.
func (it *Iterator[T]) Next() (T, error) {
	var zero T

	record, err := it.at(it.ctx, it.next)
	if err != nil {
		if errors.Is(err, ErrIndexOutOfRange) {
			it.done = true
		} else {
			it.err = err
		}

		return zero, err
	}

	it.next++

	return record, nil
}

// Err returns the first fetch error HasNext swallowed, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}
