package copper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Resolver resolves remote references encountered while deserializing wire
// data: identifier fields fetch the referenced record, custom field values
// fetch their definition. The Client is the production Resolver.
type Resolver interface {
	// ResolveReference fetches the record with the given identifier tag and
	// id. A nil Reference with a nil error means the service reported the
	// record as gone (404).
	ResolveReference(ctx context.Context, tag string, id int64) (Reference, error)

	// CustomFieldDefinition returns the definition with the given id.
	CustomFieldDefinition(ctx context.Context, id int64) (*CustomFieldDefinition, error)
}

// Field converts one named value between its wire form and its native form.
// Load may consult the Resolver for fields whose wire form only references a
// record held elsewhere.
type Field interface {
	Load(ctx context.Context, r Resolver, raw any) (any, error)
	Dump(value any) (any, error)

	options() fieldOptions
}

type fieldOptions struct {
	required  bool
	allowNull bool
}

func (o fieldOptions) options() fieldOptions { return o }

// FieldOption configures a field.
type FieldOption func(*fieldOptions)

// Required marks a field that must be present for the resource to validate.
func Required() FieldOption {
	return func(o *fieldOptions) { o.required = true }
}

// AllowNull permits an explicit null wire value, loaded as nil.
func AllowNull() FieldOption {
	return func(o *fieldOptions) { o.allowNull = true }
}

func newOptions(opts []FieldOption) fieldOptions {
	var options fieldOptions
	for _, opt := range opts {
		opt(&options)
	}

	return options
}

// null handles the shared null-value rule: nil is legal only for fields that
// allow it.
func (o fieldOptions) null() (any, error) {
	if o.allowNull {
		return nil, nil
	}

	return nil, &dataError{err: ErrNullNotAllowed}
}

// stringField is the plain string converter.
type stringField struct {
	fieldOptions
}

// StringField builds a plain string field.
func StringField(opts ...FieldOption) Field {
	return &stringField{fieldOptions: newOptions(opts)}
}

func (f *stringField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	s, ok := raw.(string)
	if !ok {
		return nil, dataErrorf("expected a string, got %T", raw)
	}

	return s, nil
}

func (f *stringField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected a string, got %T", value)
	}

	return s, nil
}

// integerField converts between JSON numbers and int64.
type integerField struct {
	fieldOptions
}

// IntegerField builds an integer field. Wire values arrive as JSON numbers
// and must be integral.
func IntegerField(opts ...FieldOption) Field {
	return &integerField{fieldOptions: newOptions(opts)}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		n := int64(v)
		if float64(n) != v {
			return 0, dataErrorf("%v is not an integer", v)
		}

		return n, nil
	default:
		return 0, dataErrorf("expected an integer, got %T", raw)
	}
}

func (f *integerField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	return toInt64(raw)
}

func (f *integerField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	return toInt64(value)
}

// floatField converts JSON numbers to float64, optionally range-bounded.
type floatField struct {
	fieldOptions

	bounded  bool
	min, max float64
}

// FloatField builds a floating point field.
func FloatField(opts ...FieldOption) Field {
	return &floatField{fieldOptions: newOptions(opts)}
}

// BoundedFloatField builds a float field restricted to [min, max].
func BoundedFloatField(minimum, maximum float64, opts ...FieldOption) Field {
	return &floatField{fieldOptions: newOptions(opts), bounded: true, min: minimum, max: maximum}
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, dataErrorf("expected a number, got %T", raw)
	}
}

func (f *floatField) convert(raw any) (any, error) {
	v, err := toFloat64(raw)
	if err != nil {
		return nil, err
	}

	if f.bounded && (v < f.min || v > f.max) {
		return nil, dataErrorf("%v is outside [%v, %v]", v, f.min, f.max)
	}

	return v, nil
}

func (f *floatField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	return f.convert(raw)
}

func (f *floatField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	return f.convert(value)
}

// boolField converts JSON booleans.
type boolField struct {
	fieldOptions
}

// BoolField builds a boolean field.
func BoolField(opts ...FieldOption) Field {
	return &boolField{fieldOptions: newOptions(opts)}
}

func (f *boolField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	b, ok := raw.(bool)
	if !ok {
		return nil, dataErrorf("expected a boolean, got %T", raw)
	}

	return b, nil
}

func (f *boolField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("expected a boolean, got %T", value)
	}

	return b, nil
}

// Copper delivers addresses with stray whitespace, so addresses are trimmed
// before validation and kept trimmed.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// emailField validates whitespace-tolerant email addresses.
type emailField struct {
	fieldOptions
}

// EmailField builds an email address field.
func EmailField(opts ...FieldOption) Field {
	return &emailField{fieldOptions: newOptions(opts)}
}

func validEmail(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", dataErrorf("expected a string, got %T", raw)
	}

	s = strings.TrimSpace(s)
	if !emailPattern.MatchString(s) {
		return "", dataErrorf("%q is not a valid email address", s)
	}

	return s, nil
}

func (f *emailField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	return validEmail(raw)
}

func (f *emailField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	return validEmail(value)
}

// urlField validates absolute URLs.
type urlField struct {
	fieldOptions
}

// URLField builds a URL field. Values must carry a scheme and a host.
func URLField(opts ...FieldOption) Field {
	return &urlField{fieldOptions: newOptions(opts)}
}

func validURL(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", dataErrorf("expected a string, got %T", raw)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", dataErrorf("%q is not a valid URL: %v", s, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return "", dataErrorf("%q is not an absolute URL", s)
	}

	return s, nil
}

func (f *urlField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	return validURL(raw)
}

func (f *urlField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	return validURL(value)
}

// unixField converts seconds-since-epoch to time.Time.
type unixField struct {
	fieldOptions
}

// UnixField builds a timestamp field whose wire form is integer seconds
// since the epoch.
func UnixField(opts ...FieldOption) Field {
	return &unixField{fieldOptions: newOptions(opts)}
}

func (f *unixField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	secs, err := toInt64(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed timestamp: %w", err)
	}

	return time.Unix(secs, 0).UTC(), nil
}

func (f *unixField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("expected a time.Time, got %T", value)
	}

	return t.Unix(), nil
}

// stringListField converts arrays of strings (tags and the like).
type stringListField struct {
	fieldOptions
}

// StringListField builds a repeated string field.
func StringListField(opts ...FieldOption) Field {
	return &stringListField{fieldOptions: newOptions(opts)}
}

func (f *stringListField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, dataErrorf("expected a list, got %T", raw)
	}

	values := make([]string, 0, len(items))

	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, dataErrorf("expected a list of strings, got element %T", item)
		}

		values = append(values, s)
	}

	return values, nil
}

func (f *stringListField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	values, ok := value.([]string)
	if !ok {
		return nil, fmt.Errorf("expected a []string, got %T", value)
	}

	return values, nil
}

// nestedField embeds a sub-schema, singular or repeated. Values are held as
// the sub-schema's loaded maps; order is preserved for repeated values.
type nestedField struct {
	fieldOptions

	schema *Schema
	many   bool
}

// NestedField builds an embedded-object field over a sub-schema.
func NestedField(schema *Schema, many bool, opts ...FieldOption) Field {
	return &nestedField{fieldOptions: newOptions(opts), schema: schema, many: many}
}

func (f *nestedField) loadOne(ctx context.Context, r Resolver, raw any) (map[string]any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, dataErrorf("expected an object, got %T", raw)
	}

	return f.schema.load(ctx, r, obj)
}

func (f *nestedField) Load(ctx context.Context, r Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	if !f.many {
		return f.loadOne(ctx, r, raw)
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, dataErrorf("expected a list, got %T", raw)
	}

	values := make([]map[string]any, 0, len(items))

	for _, item := range items {
		value, err := f.loadOne(ctx, r, item)
		if err != nil {
			return nil, err
		}

		values = append(values, value)
	}

	return values, nil
}

func (f *nestedField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	if !f.many {
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a map, got %T", value)
		}

		return f.schema.dump(obj)
	}

	items, ok := value.([]map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a []map, got %T", value)
	}

	dumped := make([]any, 0, len(items))

	for _, item := range items {
		d, err := f.schema.dump(item)
		if err != nil {
			return nil, err
		}

		dumped = append(dumped, d)
	}

	return dumped, nil
}

// identifierField converts polymorphic {type, id} references, singular or
// repeated. Known tags resolve to full records; placeholder tags resolve to
// a Placeholder; a 404 from the service resolves to nil.
type identifierField struct {
	fieldOptions

	many bool
}

// IdentifierField builds a polymorphic reference field.
func IdentifierField(many bool, opts ...FieldOption) Field {
	return &identifierField{fieldOptions: newOptions(opts), many: many}
}

func (f *identifierField) loadOne(ctx context.Context, r Resolver, raw any) (any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, dataErrorf("expected an identifier object, got %T", raw)
	}

	tagValue := obj["type"]
	if tagValue == nil {
		return f.null()
	}

	tag, ok := tagValue.(string)
	if !ok {
		return nil, dataErrorf("expected a string identifier type, got %T", tagValue)
	}

	id, err := toInt64(obj["id"])
	if err != nil {
		return nil, fmt.Errorf("malformed identifier id: %w", err)
	}

	if placeholderTags[tag] {
		return &Placeholder{Tag: tag, ID: id}, nil
	}

	if !identifierTags[tag] {
		return nil, dataErrorf("%w: %q", ErrUnknownIdentifierType, tag)
	}

	ref, err := r.ResolveReference(ctx, tag, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	return ref, nil
}

func (f *identifierField) Load(ctx context.Context, r Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	if !f.many {
		return f.loadOne(ctx, r, raw)
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, dataErrorf("expected a list, got %T", raw)
	}

	refs := make([]any, 0, len(items))

	for _, item := range items {
		ref, err := f.loadOne(ctx, r, item)
		if err != nil {
			return nil, err
		}

		refs = append(refs, ref)
	}

	return refs, nil
}

func (f *identifierField) dumpOne(value any) (any, error) {
	if value == nil {
		if !f.allowNull {
			return nil, ErrNullNotAllowed
		}

		return map[string]any{"type": nil, "id": nil}, nil
	}

	ref, ok := value.(Reference)
	if !ok {
		return nil, fmt.Errorf("expected a resource reference, got %T", value)
	}

	ident, err := IdentifierOf(ref)
	if err != nil {
		return nil, err
	}

	return map[string]any{"type": ident.Type, "id": ident.ID}, nil
}

func (f *identifierField) Dump(value any) (any, error) {
	if !f.many {
		return f.dumpOne(value)
	}

	if value == nil {
		return nil, nil
	}

	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of references, got %T", value)
	}

	dumped := make([]any, 0, len(items))

	for _, item := range items {
		d, err := f.dumpOne(item)
		if err != nil {
			return nil, err
		}

		dumped = append(dumped, d)
	}

	return dumped, nil
}
