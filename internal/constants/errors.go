package constants

import "errors"

// Static errors shared by the CLI commands.
var (
	ErrCredentialsRequired = errors.New("API token and email are required")
	ErrUnknownOutputFormat = errors.New("unknown output format")
	ErrInvalidFilter       = errors.New("filters must be key=value pairs")
	ErrInvalidRecordID     = errors.New("record id must be an integer")
	ErrTokenPromptTerminal = errors.New("token prompt requires a terminal")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrConfigValueRequired = errors.New("a value is required for this key")
)
