package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// API conventions.
const (
	// DefaultEndpoint is the Copper developer API base URL.
	DefaultEndpoint = "https://api.prosperworks.com/developer_api"

	// APIVersion is the path segment selecting the API version.
	APIVersion = "v1"

	// ApplicationHeader is the constant value of the X-PW-Application header.
	ApplicationHeader = "developer_api"

	// StandardPageSize is the page size sent with search requests.
	StandardPageSize = 100

	// GetCacheTTL bounds how long GET responses are served from cache.
	GetCacheTTL = 5 * time.Minute
)

// Cache sizing.
const (
	// DefaultCacheSize is the maximum number of entries in the memory cache.
	DefaultCacheSize = 500
)
