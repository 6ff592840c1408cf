package copper

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	copperhttp "github.com/copperhq/copper-client/internal/http"
)

// APIError represents a non-success response from the Copper API. It carries
// the HTTP status and the raw response body so callers can inspect both. The
// transport raises it for every non-2xx status.
type APIError = copperhttp.APIError

// UnprocessableError is returned when the service rejects a create or update
// with a semantic validation message of its own.
type UnprocessableError struct {
	Message string `json:"message" yaml:"message"`
}

// Error implements the error interface.
func (e *UnprocessableError) Error() string {
	return e.Message
}

// ValidationError reports a mismatch between data and a resource's schema.
// Raised both for caller-supplied values and for payloads delivered by the
// service that the local schema cannot accept.
type ValidationError struct {
	// ResourceType names the resource the data was meant for.
	ResourceType string

	// Raw is the offending payload.
	Raw map[string]any

	// Fields maps field names to their error messages.
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}

	return fmt.Sprintf("%s is not valid (%s)", e.ResourceType, strings.Join(parts, "; "))
}

// PreconditionError reports an operation invoked on a resource in the wrong
// lifecycle state. It is raised before any network call is made.
type PreconditionError struct {
	Op     string
	Reason string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// RowError captures one row that failed schema validation during a paginated
// listing. Rows are redirected here when the caller opted into permissive
// ingestion instead of aborting the fetch.
type RowError struct {
	Raw map[string]any
	Err error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the underlying validation error.
func (e *RowError) Unwrap() error {
	return e.Err
}

// Static errors that can be wrapped with context.
var (
	ErrAlreadyPersisted      = errors.New("resource already has an id")
	ErrNotPersisted          = errors.New("resource has no id")
	ErrNotConnected          = errors.New("resource is not bound to a client")
	ErrUnknownField          = errors.New("unknown field")
	ErrNegativeIndex         = errors.New("result sets do not support negative indexing")
	ErrIndexOutOfRange       = errors.New("result set index out of range")
	ErrNotOrderable          = errors.New("cannot sort by this field")
	ErrNotSearchable         = errors.New("resource type does not support searching")
	ErrNotListable           = errors.New("resource type does not support listing")
	ErrRecordNotFound        = errors.New("record does not exist")
	ErrConnectionExists      = errors.New("a connection with this name is already registered")
	ErrNoSuchConnection      = errors.New("no connection registered under this name")
	ErrNoRegistry            = errors.New("client is not part of a connection registry")
	ErrNilRelated            = errors.New("related resource must not be nil")
	ErrRelatedWithoutID      = errors.New("related resource cannot be assigned without an id")
	ErrWrongRelatedType      = errors.New("related resource has the wrong type")
	ErrUnknownIdentifierType = errors.New("unknown identifier type")
	ErrNullNotAllowed        = errors.New("field does not allow null")
	ErrConfigRequired        = errors.New("config is required")
	ErrTokenRequired         = errors.New("API token is required")
	ErrEmailRequired         = errors.New("account email is required")
	ErrUnknownOption         = errors.New("value is not one of the definition's options")
	ErrUnknownDataType       = errors.New("unknown custom field data type")
)

// dataError marks a wire value that does not fit its field's shape. Schema
// loading attributes these to the offending field; any other error raised
// during a load, such as a transport failure while a reference resolves,
// propagates unchanged.
type dataError struct {
	err error
}

// Error implements the error interface.
func (e *dataError) Error() string { return e.err.Error() }

// Unwrap exposes the underlying error so errors.Is still sees sentinels.
func (e *dataError) Unwrap() error { return e.err }

// dataErrorf builds a field data error the way fmt.Errorf would.
func dataErrorf(format string, args ...any) error {
	return &dataError{err: fmt.Errorf(format, args...)}
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	apiErr := &APIError{}

	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnprocessable reports whether err is the service's semantic-validation
// rejection of a create or update.
func IsUnprocessable(err error) bool {
	target := &UnprocessableError{}

	return errors.As(err, &target)
}

// IsValidation reports whether err is a local schema validation failure.
func IsValidation(err error) bool {
	target := &ValidationError{}

	return errors.As(err, &target)
}

// IsPrecondition reports whether err is a lifecycle precondition failure.
func IsPrecondition(err error) bool {
	target := &PreconditionError{}

	return errors.As(err, &target)
}
