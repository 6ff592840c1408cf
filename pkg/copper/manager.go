package copper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Entityer is implemented by every concrete resource struct. It exposes the
// embedded Entity so generic plumbing can reach the shared machinery.
type Entityer interface {
	entity() *Entity
}

// Manager provides collection-level access to one searchable resource type:
// detail fetches, filtered and ordered result sets, and rebinding to another
// named connection.
type Manager[T Entityer] struct {
	client *Client
	rt     *ResourceType
	make   func(*Client) T
}

func newManager[T Entityer](client *Client, rt *ResourceType, make func(*Client) T) *Manager[T] {
	return &Manager[T]{client: client, rt: rt, make: make}
}

// Type returns the managed resource type.
func (m *Manager[T]) Type() *ResourceType { return m.rt }

// Get fetches one record by id.
func (m *Manager[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T

	resp, err := m.client.http.Get(ctx, m.rt.detailPath(id), nil)
	if err != nil {
		return zero, err
	}

	record := m.make(m.client)

	err = record.entity().refresh(ctx, resp.Body)
	if err != nil {
		return zero, err
	}

	return record, nil
}

// All returns a result set over every record, in server order.
func (m *Manager[T]) All() *ResultSet[T] {
	return newResultSet(m)
}

// Filter returns a result set narrowed by the given search parameters.
func (m *Manager[T]) Filter(params Values) *ResultSet[T] {
	return newResultSet(m).Filter(params)
}

// OrderBy returns a result set sorted by the named field. A "-" prefix
// requests descending order. Only fields the search endpoint supports can be
// used.
func (m *Manager[T]) OrderBy(field string) (*ResultSet[T], error) {
	return newResultSet(m).OrderBy(field)
}

// Use rebinds the manager to the named connection in the client's registry.
func (m *Manager[T]) Use(name string) (*Manager[T], error) {
	if m.client.registry == nil {
		return nil, fmt.Errorf("%w: cannot switch to %q", ErrNoRegistry, name)
	}

	client, err := m.client.registry.Get(name)
	if err != nil {
		return nil, err
	}

	return newManager(client, m.rt, m.make), nil
}

// ListOnlyManager provides access to resource types the API only exposes
// through a bulk listing endpoint. Detail fetches are served from a local
// id index built from the listing.
type ListOnlyManager[T Entityer] struct {
	client *Client
	rt     *ResourceType
	make   func(*Client) T

	mu   sync.Mutex
	byID map[int64]T
}

func newListOnlyManager[T Entityer](client *Client, rt *ResourceType, make func(*Client) T) *ListOnlyManager[T] {
	return &ListOnlyManager[T]{client: client, rt: rt, make: make}
}

// Type returns the managed resource type.
func (m *ListOnlyManager[T]) Type() *ResourceType { return m.rt }

// All returns a list set over every record the listing endpoint delivers.
func (m *ListOnlyManager[T]) All() *ListSet[T] {
	return newListSet(m.fetchAll)
}

// Get returns the record with the given id. The id index is populated
// lazily; a miss forces exactly one refetch before the id is declared
// nonexistent, so records created since the last listing are still found.
func (m *ListOnlyManager[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.byID == nil {
		if err := m.refreshLocked(ctx); err != nil {
			return zero, err
		}
	}

	if record, ok := m.byID[id]; ok {
		return record, nil
	}

	if err := m.refreshLocked(ctx); err != nil {
		return zero, err
	}

	if record, ok := m.byID[id]; ok {
		return record, nil
	}

	return zero, fmt.Errorf("%w: %s %d", ErrRecordNotFound, m.rt.Name, id)
}

// refreshLocked rebuilds the id index from a fresh listing. The old index
// stays in place until the new one is complete.
func (m *ListOnlyManager[T]) refreshLocked(ctx context.Context) error {
	records, err := m.fetchAll(ctx)
	if err != nil {
		return err
	}

	byID := make(map[int64]T, len(records))
	for _, record := range records {
		byID[record.entity().ID()] = record
	}

	m.byID = byID

	return nil
}

// Use rebinds the manager to the named connection in the client's registry.
func (m *ListOnlyManager[T]) Use(name string) (*ListOnlyManager[T], error) {
	if m.client.registry == nil {
		return nil, fmt.Errorf("%w: cannot switch to %q", ErrNoRegistry, name)
	}

	client, err := m.client.registry.Get(name)
	if err != nil {
		return nil, err
	}

	return newListOnlyManager(client, m.rt, m.make), nil
}

// fetchAll performs one GET of the listing path and deserializes every row.
func (m *ListOnlyManager[T]) fetchAll(ctx context.Context) ([]T, error) {
	if m.rt.ListPath == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotListable, m.rt.Name)
	}

	resp, err := m.client.http.Get(ctx, m.rt.ListPath, nil)
	if err != nil {
		return nil, err
	}

	rows, err := m.listRows(resp.Body)
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(rows))

	for _, raw := range rows {
		record := m.make(m.client)
		if err := record.entity().FromWire(ctx, raw); err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

// listRows decodes a listing body, flattening sectioned payloads when the
// resource type declares sections.
func (m *ListOnlyManager[T]) listRows(body []byte) ([]map[string]any, error) {
	if len(m.rt.ListSections) == 0 {
		var rows []map[string]any
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("parsing %s listing: %w", m.rt.Name, err)
		}

		return rows, nil
	}

	var sections map[string][]map[string]any
	if err := json.Unmarshal(body, &sections); err != nil {
		return nil, fmt.Errorf("parsing %s listing: %w", m.rt.Name, err)
	}

	var rows []map[string]any
	for _, name := range m.rt.ListSections {
		rows = append(rows, sections[name]...)
	}

	return rows, nil
}

// PeopleManager extends the person manager with the dedicated email lookup
// endpoint.
type PeopleManager struct {
	*Manager[*Person]
}

// FindByEmail fetches the person whose primary email matches. The address is
// trimmed of surrounding whitespace first, matching how person emails are
// stored.
func (m *PeopleManager) FindByEmail(ctx context.Context, email string) (*Person, error) {
	body := map[string]any{"email": strings.TrimSpace(email)}

	resp, err := m.client.http.Post(ctx, "people/fetch_by_email", body)
	if err != nil {
		return nil, err
	}

	person := m.make(m.client)

	err = person.entity().refresh(ctx, resp.Body)
	if err != nil {
		return nil, err
	}

	return person, nil
}
