// Package commands implements the copper CLI commands.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/copperhq/copper-client/internal/constants"
	"github.com/copperhq/copper-client/pkg/cache"
	"github.com/copperhq/copper-client/pkg/copper"
)

// Output formats.
const (
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	defaultJSONIndent = "  "
)

// CreateClient builds a client from the resolved configuration.
func CreateClient() (*copper.Client, error) {
	token := viper.GetString("token")
	if token == "" {
		return nil, constants.ErrCredentialsRequired
	}

	email := viper.GetString("email")
	if email == "" {
		return nil, constants.ErrCredentialsRequired
	}

	config := &copper.Config{
		Endpoint: viper.GetString("endpoint"),
		Email:    email,
		Token:    token,
		Debug:    viper.GetBool("verbose"),
		Cache:    cache.DefaultConfig(),
	}

	return copper.New(config)
}

// entityRecord is what every resource struct exposes for rendering.
type entityRecord interface {
	ID() int64
	String() string
	ToWire() (map[string]any, error)
}

// outputRecords renders records in the configured output format. Tables show
// id and display name; json and yaml show the full wire shape.
func outputRecords[T entityRecord](records []T) error {
	output := viper.GetString("output")

	switch output {
	case OutputFormatJSON, OutputFormatYAML:
		rows := make([]map[string]any, 0, len(records))

		for _, record := range records {
			raw, err := record.ToWire()
			if err != nil {
				return err
			}

			rows = append(rows, raw)
		}

		return outputStructured(output, rows)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "Name")

		for _, record := range records {
			_ = table.Append(strconv.FormatInt(record.ID(), 10), record.String())
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// outputRecord renders one record.
func outputRecord[T entityRecord](record T) error {
	output := viper.GetString("output")

	raw, err := record.ToWire()
	if err != nil {
		return err
	}

	switch output {
	case OutputFormatJSON, OutputFormatYAML:
		return outputStructured(output, raw)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Field", "Value")

		for _, name := range sortedKeys(raw) {
			_ = table.Append(name, fmt.Sprintf("%v", raw[name]))
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func outputStructured(format string, value any) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", defaultJSONIndent)

		return encoder.Encode(value)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)

		return encoder.Encode(value)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownOutputFormat, format)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// parseFilters turns repeated key=value flags into search parameters.
// Integer values are passed as numbers, everything else as strings.
func parseFilters(filters []string) (copper.Values, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	params := make(copper.Values, len(filters))

	for _, filter := range filters {
		key, value, found := strings.Cut(filter, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFilter, filter)
		}

		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			params[key] = n
		} else {
			params[key] = value
		}
	}

	return params, nil
}

// parseRecordID parses a positional record id argument.
func parseRecordID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", constants.ErrInvalidRecordID, arg)
	}

	return id, nil
}

// parseFieldValues turns repeated key=value flags into initial field values
// for a create.
func parseFieldValues(fields []string) (copper.Values, error) {
	values := make(copper.Values, len(fields))

	for _, field := range fields {
		key, value, found := strings.Cut(field, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFilter, field)
		}

		values[key] = value
	}

	return values, nil
}
