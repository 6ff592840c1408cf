// Package copper is a client library for the Copper (formerly
// ProsperWorks) CRM developer API. Records are exposed as typed resources
// with managers for searching, listing and CRUD, lazy memoized result sets
// for pagination, and an optional response cache for GETs.
package copper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/copperhq/copper-client/internal/constants"
	copperhttp "github.com/copperhq/copper-client/internal/http"
	"github.com/copperhq/copper-client/pkg/cache"
)

// DefaultEndpoint is the production API endpoint.
const DefaultEndpoint = constants.DefaultEndpoint

// Logger is the structured logging interface the client reports through.
type Logger = copperhttp.Logger

// Response is a fully-read API response.
type Response = copperhttp.Response

// Request is one outgoing API request as seen by interceptors.
type Request = copperhttp.Request

// RequestInterceptor runs before each request that hits the network.
type RequestInterceptor = copperhttp.RequestInterceptor

// ResponseInterceptor runs after each response is received.
type ResponseInterceptor = copperhttp.ResponseInterceptor

// MetricsCollector aggregates per-endpoint call statistics. Wire one in with
// MetricsRequestInterceptor and MetricsResponseInterceptor.
type MetricsCollector = copperhttp.MetricsCollector

// NewMetricsCollector creates an empty metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return copperhttp.NewMetricsCollector()
}

// MetricsRequestInterceptor stamps requests for latency measurement.
func MetricsRequestInterceptor(collector *MetricsCollector) RequestInterceptor {
	return copperhttp.MetricsRequestInterceptor(collector)
}

// MetricsResponseInterceptor records each call against its endpoint.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return copperhttp.MetricsResponseInterceptor(collector)
}

// HeaderInterceptor adds fixed headers to every request.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return copperhttp.HeaderInterceptor(headers)
}

// RateLimitInterceptor throttles requests client side, so a busy client
// never trips the service's own rate limit.
func RateLimitInterceptor(requestsPerSecond int) RequestInterceptor {
	return copperhttp.RateLimitInterceptor(requestsPerSecond)
}

// Config configures a Client.
type Config struct {
	// Endpoint is the API base URL. Empty means DefaultEndpoint.
	Endpoint string

	// Email is the account owner's email address. Required.
	Email string

	// Token is the developer API token. Required.
	Token string

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// RetryMax is the number of retries for 5xx and 429 responses. Zero
	// means the default.
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Cache configures the GET response cache. Nil disables caching.
	Cache *cache.Config

	// CacheTTL is the lifetime of cached GET responses. Zero falls back to
	// Cache.Options.TTL, then five minutes.
	CacheTTL time.Duration

	// Logger receives client logs. Nil discards them.
	Logger Logger

	// Debug logs every request and response.
	Debug bool

	// RequestInterceptors run, in order, before each request that hits the
	// network. Cache hits bypass them.
	RequestInterceptors []RequestInterceptor

	// ResponseInterceptors run, in order, after each response.
	ResponseInterceptors []ResponseInterceptor
}

// Client talks to one Copper account. Create it with New, then reach records
// through the per-resource managers.
type Client struct {
	config   *Config
	http     *copperhttp.Client
	registry *Registry

	people                 *PeopleManager
	companies              *Manager[*Company]
	leads                  *Manager[*Lead]
	opportunities          *Manager[*Opportunity]
	tasks                  *Manager[*Task]
	activities             *Manager[*Activity]
	users                  *ListOnlyManager[*User]
	activityTypes          *ListOnlyManager[*ActivityType]
	contactTypes           *ListOnlyManager[*ContactType]
	customerSources        *ListOnlyManager[*CustomerSource]
	lossReasons            *ListOnlyManager[*LossReason]
	pipelines              *ListOnlyManager[*Pipeline]
	pipelineStages         *ListOnlyManager[*PipelineStage]
	customFieldDefinitions *ListOnlyManager[*CustomFieldDefinition]
}

// New validates the configuration and builds a client. No network call is
// made until a manager or resource is used.
func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if config.Token == "" {
		return nil, ErrTokenRequired
	}

	if config.Email == "" {
		return nil, ErrEmailRequired
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	opts := []copperhttp.Option{}

	if config.Logger != nil {
		opts = append(opts, copperhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, copperhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, copperhttp.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 {
		waitMin := config.RetryWaitMin
		if waitMin == 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		waitMax := config.RetryWaitMax
		if waitMax == 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		opts = append(opts, copperhttp.WithRetryConfig(config.RetryMax, waitMin, waitMax))
	}

	if config.Cache != nil {
		responseCache, err := cache.New(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("building response cache: %w", err)
		}

		ttl := config.CacheTTL
		if ttl == 0 && config.Cache.Options != nil {
			ttl = config.Cache.Options.TTL
		}

		if ttl == 0 {
			ttl = constants.GetCacheTTL
		}

		opts = append(opts, copperhttp.WithCache(responseCache, ttl))
	}

	for _, interceptor := range config.RequestInterceptors {
		opts = append(opts, copperhttp.WithRequestInterceptor(interceptor))
	}

	for _, interceptor := range config.ResponseInterceptors {
		opts = append(opts, copperhttp.WithResponseInterceptor(interceptor))
	}

	creds := &copperhttp.Credentials{Email: config.Email, Token: config.Token}
	baseURL := endpoint + "/" + constants.APIVersion

	client := &Client{
		config: config,
		http:   copperhttp.NewClient(baseURL, creds, opts...),
	}
	client.initializeManagers()

	return client, nil
}

func (c *Client) initializeManagers() {
	c.people = &PeopleManager{Manager: newManager(c, PersonType, newPerson)}
	c.companies = newManager(c, CompanyType, newCompany)
	c.leads = newManager(c, LeadType, newLead)
	c.opportunities = newManager(c, OpportunityType, newOpportunity)
	c.tasks = newManager(c, TaskType, newTask)
	c.activities = newManager(c, ActivityResourceType, newActivity)
	c.users = newListOnlyManager(c, UserType, newUser)
	c.activityTypes = newListOnlyManager(c, ActivityTypeType, newActivityType)
	c.contactTypes = newListOnlyManager(c, ContactTypeType, newContactType)
	c.customerSources = newListOnlyManager(c, CustomerSourceType, newCustomerSource)
	c.lossReasons = newListOnlyManager(c, LossReasonType, newLossReason)
	c.pipelines = newListOnlyManager(c, PipelineType, newPipeline)
	c.pipelineStages = newListOnlyManager(c, PipelineStageType, newPipelineStage)
	c.customFieldDefinitions = newListOnlyManager(c, CustomFieldDefinitionType, NewCustomFieldDefinition)
}

// People returns the person manager.
func (c *Client) People() *PeopleManager { return c.people }

// Companies returns the company manager.
func (c *Client) Companies() *Manager[*Company] { return c.companies }

// Leads returns the lead manager.
func (c *Client) Leads() *Manager[*Lead] { return c.leads }

// Opportunities returns the opportunity manager.
func (c *Client) Opportunities() *Manager[*Opportunity] { return c.opportunities }

// Tasks returns the task manager.
func (c *Client) Tasks() *Manager[*Task] { return c.tasks }

// Activities returns the activity manager.
func (c *Client) Activities() *Manager[*Activity] { return c.activities }

// Users returns the user manager.
func (c *Client) Users() *ListOnlyManager[*User] { return c.users }

// ActivityTypes returns the activity type manager.
func (c *Client) ActivityTypes() *ListOnlyManager[*ActivityType] { return c.activityTypes }

// ContactTypes returns the contact type manager.
func (c *Client) ContactTypes() *ListOnlyManager[*ContactType] { return c.contactTypes }

// CustomerSources returns the customer source manager.
func (c *Client) CustomerSources() *ListOnlyManager[*CustomerSource] { return c.customerSources }

// LossReasons returns the loss reason manager.
func (c *Client) LossReasons() *ListOnlyManager[*LossReason] { return c.lossReasons }

// Pipelines returns the pipeline manager.
func (c *Client) Pipelines() *ListOnlyManager[*Pipeline] { return c.pipelines }

// PipelineStages returns the pipeline stage manager.
func (c *Client) PipelineStages() *ListOnlyManager[*PipelineStage] { return c.pipelineStages }

// CustomFieldDefinitions returns the custom field definition manager.
func (c *Client) CustomFieldDefinitions() *ListOnlyManager[*CustomFieldDefinition] {
	return c.customFieldDefinitions
}

// resolver returns the Resolver deserialization should use.
func (c *Client) resolver() Resolver { return c }

// ResolveReference implements Resolver by fetching the record behind an
// identifier tag.
func (c *Client) ResolveReference(ctx context.Context, tag string, id int64) (Reference, error) {
	switch tag {
	case TagPerson:
		return c.people.Get(ctx, id)
	case TagCompany:
		return c.companies.Get(ctx, id)
	case TagLead:
		return c.leads.Get(ctx, id)
	case TagOpportunity:
		return c.opportunities.Get(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifierType, tag)
	}
}

// CustomFieldDefinition implements Resolver via the definition manager's id
// index, so decoding a page of records costs at most one definitions fetch.
func (c *Client) CustomFieldDefinition(ctx context.Context, id int64) (*CustomFieldDefinition, error) {
	return c.customFieldDefinitions.Get(ctx, id)
}

// DefaultConnection is the conventional name for an application's primary
// connection.
const DefaultConnection = "default"

// Registry holds named client connections so code can address several Copper
// accounts. It is an explicit value owned by the caller; managers reach it
// through their client via Use.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: map[string]*Client{}}
}

// Register adds a client under name. Registering the same name twice is an
// error.
func (r *Registry) Register(name string, client *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[name]; ok {
		return fmt.Errorf("%w: %q", ErrConnectionExists, name)
	}

	r.clients[name] = client
	client.registry = r

	return nil
}

// Connect builds a client from config and registers it under name.
func (r *Registry) Connect(name string, config *Config) (*Client, error) {
	client, err := New(config)
	if err != nil {
		return nil, err
	}

	err = r.Register(name, client)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchConnection, name)
	}

	return client, nil
}
