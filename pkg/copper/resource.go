package copper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// ResourceType describes one remote entity kind: its schema, its URL paths
// and which fields the search endpoint can sort by. Resource types are
// package-level values built once at program start.
type ResourceType struct {
	// Name is the type's identifier tag ("person", "company", ...).
	Name string

	// Schema defines the wire shape.
	Schema *Schema

	// CreatePath is the collection path used for creates.
	CreatePath string

	// DetailPath is the detail path template; the record id is the only verb.
	DetailPath string

	// SearchPath is the paginated search path. Empty for list-only types.
	SearchPath string

	// ListPath is the bulk listing path for list-only types.
	ListPath string

	// ListSections names the keys of a sectioned list payload. When set, the
	// listing endpoint returns an object whose named sections are
	// concatenated in order instead of a flat array.
	ListSections []string

	// OrderFields are the fields the search endpoint accepts in sort_by.
	OrderFields []string
}

// Orderable reports whether the search endpoint can sort by field.
func (rt *ResourceType) Orderable(field string) bool {
	for _, name := range rt.OrderFields {
		if name == field {
			return true
		}
	}

	return false
}

// OrderChoices returns the orderable fields, sorted for error messages.
func (rt *ResourceType) OrderChoices() []string {
	choices := make([]string, len(rt.OrderFields))
	copy(choices, rt.OrderFields)
	sort.Strings(choices)

	return choices
}

func (rt *ResourceType) detailPath(id int64) string {
	return fmt.Sprintf(rt.DetailPath, id)
}

// Values is a bag of raw field assignments.
type Values map[string]any

// Entity is the base of every resource: a mapping from declared field names
// to typed values, optionally carrying an id once persisted, bound to the
// client it was created through.
type Entity struct {
	rt     *ResourceType
	client *Client
	values map[string]any
}

func (e *Entity) init(rt *ResourceType, client *Client) {
	e.rt = rt
	e.client = client
	e.values = map[string]any{}
}

// Type returns the entity's resource type.
func (e *Entity) Type() *ResourceType { return e.rt }

// ID returns the record id, or 0 for an unsaved resource.
func (e *Entity) ID() int64 {
	id, _ := e.Int("id")

	return id
}

// SetID assigns the record id directly.
func (e *Entity) SetID(id int64) {
	e.values["id"] = id
}

// Persisted reports whether the resource carries an id.
func (e *Entity) Persisted() bool { return e.ID() != 0 }

// Get returns the raw value of a field.
func (e *Entity) Get(name string) (any, bool) {
	v, ok := e.values[name]

	return v, ok
}

// Set assigns a raw field value without validation. Unknown fields are
// rejected.
func (e *Entity) Set(name string, value any) error {
	if !e.rt.Schema.Has(name) {
		return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, e.rt.Name, name)
	}

	e.values[name] = value

	return nil
}

// SetValues assigns several raw field values at once.
func (e *Entity) SetValues(values Values) error {
	for name := range values {
		if !e.rt.Schema.Has(name) {
			return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, e.rt.Name, name)
		}
	}

	for name, value := range values {
		e.values[name] = value
	}

	return nil
}

// Str returns a string field's value.
func (e *Entity) Str(name string) (string, bool) {
	s, ok := e.values[name].(string)

	return s, ok
}

// Int returns an integer field's value.
func (e *Entity) Int(name string) (int64, bool) {
	switch v := e.values[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Float returns a float field's value.
func (e *Entity) Float(name string) (float64, bool) {
	f, ok := e.values[name].(float64)

	return f, ok
}

// Bool returns a boolean field's value.
func (e *Entity) Bool(name string) (bool, bool) {
	b, ok := e.values[name].(bool)

	return b, ok
}

// Time returns a timestamp field's value.
func (e *Entity) Time(name string) (time.Time, bool) {
	t, ok := e.values[name].(time.Time)

	return t, ok
}

// Validate runs schema validation against the currently-set fields.
func (e *Entity) Validate() error {
	err := e.rt.Schema.validate(e.values)
	if err != nil {
		verr := &ValidationError{}
		if errors.As(err, &verr) {
			verr.ResourceType = e.rt.Name
		}

		return err
	}

	return nil
}

// FromWire deserializes a wire payload and replaces the entity's fields with
// the result. A schema mismatch here means the service delivered data the
// local schema cannot accept, which signals a library bug rather than a
// caller error.
func (e *Entity) FromWire(ctx context.Context, raw map[string]any) error {
	values, err := e.rt.Schema.load(ctx, e.client.resolver(), raw)
	if err != nil {
		verr := &ValidationError{}
		if errors.As(err, &verr) {
			verr.ResourceType = e.rt.Name

			return fmt.Errorf("service delivered data which does not agree with the local %s schema: %w",
				e.rt.Name, verr)
		}

		return err
	}

	e.values = values

	return nil
}

// ToWire serializes the current state to a wire-shaped mapping, omitting nil
// values and empty repeated containers.
func (e *Entity) ToWire() (map[string]any, error) {
	raw, err := e.rt.Schema.dump(e.values)
	if err != nil {
		verr := &ValidationError{}
		if errors.As(err, &verr) {
			verr.ResourceType = e.rt.Name
		}

		return nil, err
	}

	return raw, nil
}

// String implements fmt.Stringer: the record's name if set, else its id,
// else an unsaved marker. Never fails.
func (e *Entity) String() string {
	if name, ok := e.Str("name"); ok && name != "" {
		return name
	}

	if id := e.ID(); id != 0 {
		return strconv.FormatInt(id, 10)
	}

	return "(unsaved)"
}

// ReferenceTag implements Reference.
func (e *Entity) ReferenceTag() string { return e.rt.Name }

// ReferenceID implements Reference.
func (e *Entity) ReferenceID() int64 { return e.ID() }

// Create persists an unsaved resource. On success the entity's fields are
// replaced with whatever the server returned.
func (e *Entity) Create(ctx context.Context) error {
	if e.Persisted() {
		return &PreconditionError{
			Op:     "create " + e.rt.Name,
			Reason: ErrAlreadyPersisted.Error(),
		}
	}

	if err := e.connected(); err != nil {
		return err
	}

	body, err := e.ToWire()
	if err != nil {
		return err
	}

	resp, err := e.client.http.Post(ctx, e.rt.CreatePath, body)
	if err != nil {
		return e.writeError(err, resp)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &APIError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	return e.refresh(ctx, resp.Body)
}

// Read fetches the persisted resource and replaces all fields from the
// server response.
func (e *Entity) Read(ctx context.Context) error {
	if !e.Persisted() {
		return &PreconditionError{
			Op:     "read " + e.rt.Name,
			Reason: ErrNotPersisted.Error(),
		}
	}

	if err := e.connected(); err != nil {
		return err
	}

	resp, err := e.client.http.Get(ctx, e.rt.detailPath(e.ID()), nil)
	if err != nil {
		return err
	}

	return e.refresh(ctx, resp.Body)
}

// Update writes the current state to the persisted resource. The payload
// excludes the id; the response replaces all fields.
func (e *Entity) Update(ctx context.Context) error {
	if !e.Persisted() {
		return &PreconditionError{
			Op:     "update " + e.rt.Name,
			Reason: ErrNotPersisted.Error(),
		}
	}

	if err := e.connected(); err != nil {
		return err
	}

	body, err := e.ToWire()
	if err != nil {
		return err
	}

	delete(body, "id")

	resp, err := e.client.http.Put(ctx, e.rt.detailPath(e.ID()), body)
	if err != nil {
		return e.writeError(err, resp)
	}

	return e.refresh(ctx, resp.Body)
}

// Delete removes the persisted resource. Further operations on the same
// instance are undefined.
func (e *Entity) Delete(ctx context.Context) error {
	if !e.Persisted() {
		return &PreconditionError{
			Op:     "delete " + e.rt.Name,
			Reason: ErrNotPersisted.Error(),
		}
	}

	if err := e.connected(); err != nil {
		return err
	}

	_, err := e.client.http.Delete(ctx, e.rt.detailPath(e.ID()))

	return err
}

func (e *Entity) connected() error {
	if e.client == nil {
		return fmt.Errorf("%w: %s", ErrNotConnected, e.rt.Name)
	}

	return nil
}

// refresh replaces the entity's fields from a response body.
func (e *Entity) refresh(ctx context.Context, body []byte) error {
	var raw map[string]any

	err := json.Unmarshal(body, &raw)
	if err != nil {
		return fmt.Errorf("parsing %s response: %w", e.rt.Name, err)
	}

	return e.FromWire(ctx, raw)
}

// writeError translates a semantic-validation rejection (422) into an error
// carrying the server's human-readable message.
func (e *Entity) writeError(err error, resp *Response) error {
	apiErr := &APIError{}
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
		return err
	}

	var payload struct {
		Message string `json:"message"`
	}

	if resp != nil && json.Unmarshal(resp.Body, &payload) == nil && payload.Message != "" {
		return &UnprocessableError{Message: payload.Message}
	}

	return &UnprocessableError{Message: apiErr.Body}
}
