package copper

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DataType enumerates the value kinds a custom field definition can declare.
type DataType string

// Custom field data types, as the API spells them.
const (
	DataTypeString      DataType = "String"
	DataTypeText        DataType = "Text"
	DataTypeDropdown    DataType = "Dropdown"
	DataTypeDate        DataType = "Date"
	DataTypeCheckbox    DataType = "Checkbox"
	DataTypeMultiSelect DataType = "MultiSelect"
	DataTypeFloat       DataType = "Float"
	DataTypeURL         DataType = "URL"
	DataTypePercentage  DataType = "Percentage"
	DataTypeCurrency    DataType = "Currency"
)

// Option is one selectable choice of a Dropdown or MultiSelect definition.
type Option struct {
	ID   int64  `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Rank int64  `json:"rank" yaml:"rank"`
}

var optionSchema = NewSchema(
	F("id", IntegerField(Required())),
	F("name", StringField(Required())),
	F("rank", IntegerField()),
)

var customFieldDefinitionSchema = NewSchema(
	F("id", IntegerField()),
	F("name", StringField(Required())),
	F("data_type", choiceField(
		string(DataTypeString), string(DataTypeText), string(DataTypeDropdown),
		string(DataTypeDate), string(DataTypeCheckbox), string(DataTypeMultiSelect),
		string(DataTypeFloat), string(DataTypeURL), string(DataTypePercentage),
		string(DataTypeCurrency),
	)),
	F("currency", StringField(AllowNull())),
	F("options", NestedField(optionSchema, true)),
)

// CustomFieldDefinitionType describes account-level custom field definitions.
// They are list-only; the client keeps an id index so values can resolve
// their definitions without a request per row.
var CustomFieldDefinitionType = &ResourceType{
	Name:     "custom_field_definition",
	Schema:   customFieldDefinitionSchema,
	ListPath: "custom_field_definitions",
}

// CustomFieldDefinition is an account-level declaration of one custom field:
// its name, value kind and, for choice kinds, the selectable options.
type CustomFieldDefinition struct {
	Entity
}

// NewCustomFieldDefinition returns a definition bound to the client.
func NewCustomFieldDefinition(client *Client) *CustomFieldDefinition {
	defn := &CustomFieldDefinition{}
	defn.init(CustomFieldDefinitionType, client)

	return defn
}

func (d *CustomFieldDefinition) entity() *Entity { return &d.Entity }

// Name returns the definition's display name.
func (d *CustomFieldDefinition) Name() string {
	name, _ := d.Str("name")

	return name
}

// DataType returns the definition's value kind.
func (d *CustomFieldDefinition) DataType() DataType {
	dt, _ := d.Str("data_type")

	return DataType(dt)
}

// Currency returns the currency code of a Currency definition.
func (d *CustomFieldDefinition) Currency() string {
	currency, _ := d.Str("currency")

	return currency
}

// Options returns the definition's selectable choices.
func (d *CustomFieldDefinition) Options() []Option {
	rows, _ := d.Get("options")

	maps, ok := rows.([]map[string]any)
	if !ok {
		return nil
	}

	options := make([]Option, 0, len(maps))

	for _, row := range maps {
		var opt Option

		if id, err := toInt64(row["id"]); err == nil {
			opt.ID = id
		}

		if name, ok := row["name"].(string); ok {
			opt.Name = name
		}

		if rank, err := toInt64(row["rank"]); err == nil {
			opt.Rank = rank
		}

		options = append(options, opt)
	}

	return options
}

// OptionByID returns the choice with the given id.
func (d *CustomFieldDefinition) OptionByID(id int64) (Option, error) {
	for _, opt := range d.Options() {
		if opt.ID == id {
			return opt, nil
		}
	}

	return Option{}, dataErrorf("%w: %s has no option %d", ErrUnknownOption, d.Name(), id)
}

// OptionByName returns the choice with the given display name.
func (d *CustomFieldDefinition) OptionByName(name string) (Option, error) {
	for _, opt := range d.Options() {
		if opt.Name == name {
			return opt, nil
		}
	}

	return Option{}, dataErrorf("%w: %s has no option %q", ErrUnknownOption, d.Name(), name)
}

// CustomFieldValue pairs a custom field definition with one record's value,
// both as the service sent it and decoded per the definition's data type.
type CustomFieldValue struct {
	Definition *CustomFieldDefinition

	// Raw is the wire value, kept verbatim for round-tripping.
	Raw any

	// Value is the decoded value: string, time.Time, bool, float64, Option
	// or []Option depending on the data type, or nil.
	Value any
}

// Name returns the owning definition's display name.
func (v CustomFieldValue) Name() string {
	return v.Definition.Name()
}

// String implements fmt.Stringer.
func (v CustomFieldValue) String() string {
	if v.Definition.DataType() == DataTypeCurrency {
		return fmt.Sprintf("%s=%v %s", v.Name(), v.Value, v.Definition.Currency())
	}

	return fmt.Sprintf("%s=%v", v.Name(), v.Value)
}

// CustomFieldList holds one record's custom field values.
type CustomFieldList []CustomFieldValue

// Dict returns the values keyed by definition name. Choice values collapse
// to their option display names; MultiSelect names are ordered by option
// rank.
func (l CustomFieldList) Dict() map[string]any {
	dict := make(map[string]any, len(l))

	for _, value := range l {
		switch decoded := value.Value.(type) {
		case Option:
			dict[value.Name()] = decoded.Name
		case []Option:
			choices := make([]Option, len(decoded))
			copy(choices, decoded)
			sort.Slice(choices, func(i, j int) bool { return choices[i].Rank < choices[j].Rank })

			names := make([]string, 0, len(choices))
			for _, opt := range choices {
				names = append(names, opt.Name)
			}

			dict[value.Name()] = names
		default:
			dict[value.Name()] = value.Value
		}
	}

	return dict
}

// customDecoder converts one wire value per its definition's data type.
type customDecoder func(defn *CustomFieldDefinition, raw any) (any, error)

// customDecoders routes each data type to its converter. An unlisted type is
// a hard error, so new API data types surface loudly instead of passing
// through undecoded.
var customDecoders = map[DataType]customDecoder{
	DataTypeString:      decodeCustomString,
	DataTypeText:        decodeCustomString,
	DataTypeDate:        decodeCustomDate,
	DataTypeCheckbox:    decodeCustomCheckbox,
	DataTypeDropdown:    decodeCustomDropdown,
	DataTypeMultiSelect: decodeCustomMultiSelect,
	DataTypeFloat:       decodeCustomFloat,
	DataTypeURL:         decodeCustomURL,
	DataTypePercentage:  decodeCustomPercentage,
	DataTypeCurrency:    decodeCustomFloat,
}

func decodeCustomString(_ *CustomFieldDefinition, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, dataErrorf("expected a string, got %T", raw)
	}

	return s, nil
}

func decodeCustomDate(_ *CustomFieldDefinition, raw any) (any, error) {
	secs, err := toInt64(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed date: %w", err)
	}

	return time.Unix(secs, 0).UTC(), nil
}

func decodeCustomCheckbox(_ *CustomFieldDefinition, raw any) (any, error) {
	b, ok := raw.(bool)
	if !ok {
		return nil, dataErrorf("expected a boolean, got %T", raw)
	}

	return b, nil
}

func decodeCustomDropdown(defn *CustomFieldDefinition, raw any) (any, error) {
	id, err := toInt64(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed option id: %w", err)
	}

	return defn.OptionByID(id)
}

func decodeCustomMultiSelect(defn *CustomFieldDefinition, raw any) (any, error) {
	ids, ok := raw.([]any)
	if !ok {
		return nil, dataErrorf("expected a list of option ids, got %T", raw)
	}

	options := make([]Option, 0, len(ids))

	for _, rawID := range ids {
		id, err := toInt64(rawID)
		if err != nil {
			return nil, fmt.Errorf("malformed option id: %w", err)
		}

		opt, err := defn.OptionByID(id)
		if err != nil {
			return nil, err
		}

		options = append(options, opt)
	}

	return options, nil
}

func decodeCustomFloat(_ *CustomFieldDefinition, raw any) (any, error) {
	return toFloat64(raw)
}

func decodeCustomURL(_ *CustomFieldDefinition, raw any) (any, error) {
	return validURL(raw)
}

func decodeCustomPercentage(_ *CustomFieldDefinition, raw any) (any, error) {
	v, err := toFloat64(raw)
	if err != nil {
		return nil, err
	}

	if v < 0 || v > 100 {
		return nil, dataErrorf("%v is outside [0, 100]", v)
	}

	return v, nil
}

// customFieldsField converts a record's custom_fields array. Each row is a
// {custom_field_definition_id, value} pair; the definition is resolved and
// the value decoded per its data type.
type customFieldsField struct {
	fieldOptions
}

// CustomFieldsField builds a custom field list converter.
func CustomFieldsField(opts ...FieldOption) Field {
	return &customFieldsField{fieldOptions: newOptions(opts)}
}

func (f *customFieldsField) Load(ctx context.Context, r Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	rows, ok := raw.([]any)
	if !ok {
		return nil, dataErrorf("expected a list of custom field values, got %T", raw)
	}

	list := make(CustomFieldList, 0, len(rows))

	for _, rawRow := range rows {
		row, ok := rawRow.(map[string]any)
		if !ok {
			return nil, dataErrorf("expected a custom field object, got %T", rawRow)
		}

		defnID, err := toInt64(row["custom_field_definition_id"])
		if err != nil {
			return nil, fmt.Errorf("malformed custom_field_definition_id: %w", err)
		}

		defn, err := r.CustomFieldDefinition(ctx, defnID)
		if err != nil {
			return nil, err
		}

		value := CustomFieldValue{Definition: defn, Raw: row["value"]}

		if value.Raw != nil {
			decode, ok := customDecoders[defn.DataType()]
			if !ok {
				return nil, dataErrorf("%w: %q", ErrUnknownDataType, defn.DataType())
			}

			decoded, err := decode(defn, value.Raw)
			if err != nil {
				return nil, fmt.Errorf("custom field %q: %w", defn.Name(), err)
			}

			value.Value = decoded
		}

		list = append(list, value)
	}

	return list, nil
}

func (f *customFieldsField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	list, ok := value.(CustomFieldList)
	if !ok {
		return nil, fmt.Errorf("expected a CustomFieldList, got %T", value)
	}

	rows := make([]any, 0, len(list))

	for _, item := range list {
		rows = append(rows, map[string]any{
			"custom_field_definition_id": item.Definition.ID(),
			"value":                      item.Raw,
		})
	}

	return rows, nil
}

// choicesField restricts a string field to an enumerated set.
type choicesField struct {
	fieldOptions

	choices map[string]bool
	sorted  []string
}

func choiceField(choices ...string) Field {
	set := make(map[string]bool, len(choices))
	for _, c := range choices {
		set[c] = true
	}

	sorted := make([]string, len(choices))
	copy(sorted, choices)
	sort.Strings(sorted)

	return &choicesField{choices: set, sorted: sorted}
}

func (f *choicesField) check(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", dataErrorf("expected a string, got %T", raw)
	}

	if !f.choices[s] {
		return "", dataErrorf("%q is not one of %s", s, strings.Join(f.sorted, ", "))
	}

	return s, nil
}

func (f *choicesField) Load(_ context.Context, _ Resolver, raw any) (any, error) {
	if raw == nil {
		return f.null()
	}

	return f.check(raw)
}

func (f *choicesField) Dump(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	return f.check(value)
}
