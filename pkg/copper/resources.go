package copper

import (
	"context"
	"time"
)

// Shared embedded-object schemas.
var (
	addressSchema = NewSchema(
		F("street", StringField(AllowNull())),
		F("city", StringField(AllowNull())),
		F("state", StringField(AllowNull())),
		F("postal_code", StringField(AllowNull())),
		F("country", StringField(AllowNull())),
	)

	emailSchema = NewSchema(
		F("email", EmailField(Required())),
		F("category", StringField(AllowNull())),
	)

	phoneNumberSchema = NewSchema(
		F("number", StringField(Required())),
		F("category", StringField(AllowNull())),
	)

	socialSchema = NewSchema(
		F("url", URLField(Required())),
		F("category", StringField(AllowNull())),
	)

	// Website URLs are delivered as the user typed them, bare domains
	// included, so they are not validated.
	websiteSchema = NewSchema(
		F("url", StringField(Required())),
		F("category", StringField(AllowNull())),
	)

	activityKindSchema = NewSchema(
		F("id", IntegerField(Required())),
		F("category", StringField(Required())),
	)

	pipelineStageEmbedSchema = NewSchema(
		F("id", IntegerField()),
		F("name", StringField()),
		F("win_probability", IntegerField(AllowNull())),
	)
)

// PersonType describes people records.
var PersonType = &ResourceType{
	Name: TagPerson,
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
		F("prefix", StringField(AllowNull())),
		F("first_name", StringField(AllowNull())),
		F("last_name", StringField(AllowNull())),
		F("suffix", StringField(AllowNull())),
		F("address", NestedField(addressSchema, false, AllowNull())),
		F("assignee_id", IntegerField(AllowNull())),
		F("company_id", IntegerField(AllowNull())),
		F("company_name", StringField(AllowNull())),
		F("contact_type_id", IntegerField(AllowNull())),
		F("details", StringField(AllowNull())),
		F("emails", NestedField(emailSchema, true)),
		F("phone_numbers", NestedField(phoneNumberSchema, true)),
		F("socials", NestedField(socialSchema, true)),
		F("tags", StringListField()),
		F("title", StringField(AllowNull())),
		F("websites", NestedField(websiteSchema, true)),
		F("date_created", UnixField()),
		F("date_modified", UnixField()),
		F("custom_fields", CustomFieldsField()),
	),
	CreatePath: "people",
	DetailPath: "people/%d",
	SearchPath: "people/search",
	OrderFields: []string{
		"name", "company_name", "title", "city", "state", "country", "zip",
		"date_created", "date_modified", "inactive_days", "last_interaction",
	},
}

// Person is a human contact.
type Person struct {
	Entity
}

// NewPerson returns a person bound to the client, with the given initial
// field values. Unknown field names are rejected.
func NewPerson(client *Client, values Values) (*Person, error) {
	person := newPerson(client)

	err := person.SetValues(values)
	if err != nil {
		return nil, err
	}

	return person, nil
}

func newPerson(client *Client) *Person {
	person := &Person{}
	person.init(PersonType, client)

	return person
}

func (p *Person) entity() *Entity { return &p.Entity }

// Name returns the person's full name.
func (p *Person) Name() string {
	name, _ := p.Str("name")

	return name
}

// Tags returns the person's tags.
func (p *Person) Tags() []string { return p.tags() }

// CustomFields returns the person's custom field values.
func (p *Person) CustomFields() CustomFieldList { return p.customFields() }

// Assignee fetches the user this person is assigned to, or nil when
// unassigned.
func (p *Person) Assignee(ctx context.Context) (*User, error) {
	return getRelatedListOnly(ctx, &p.Entity, "assignee", p.client.Users())
}

// SetAssignee assigns this person to a user.
func (p *Person) SetAssignee(user *User) error {
	return assignRelated(&p.Entity, "assignee", user, "user")
}

// Company fetches this person's company, or nil when none is set.
func (p *Person) Company(ctx context.Context) (*Company, error) {
	return getRelated(ctx, &p.Entity, "company", p.client.Companies())
}

// SetCompany assigns this person's company.
func (p *Person) SetCompany(company *Company) error {
	return assignRelated(&p.Entity, "company", company, TagCompany)
}

// ContactType fetches this person's contact type, or nil when none is set.
func (p *Person) ContactType(ctx context.Context) (*ContactType, error) {
	return getRelatedListOnly(ctx, &p.Entity, "contact_type", p.client.ContactTypes())
}

// CompanyType describes company records.
var CompanyType = &ResourceType{
	Name: TagCompany,
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
		F("address", NestedField(addressSchema, false, AllowNull())),
		F("assignee_id", IntegerField(AllowNull())),
		F("contact_type_id", IntegerField(AllowNull())),
		F("details", StringField(AllowNull())),
		F("email_domain", StringField(AllowNull())),
		F("phone_numbers", NestedField(phoneNumberSchema, true)),
		F("socials", NestedField(socialSchema, true)),
		F("tags", StringListField()),
		F("websites", NestedField(websiteSchema, true)),
		F("date_created", UnixField()),
		F("date_modified", UnixField()),
		F("custom_fields", CustomFieldsField()),
	),
	CreatePath: "companies",
	DetailPath: "companies/%d",
	SearchPath: "companies/search",
	OrderFields: []string{
		"name", "email_domain", "city", "state", "country", "zip",
		"date_created", "date_modified", "inactive_days", "last_interaction",
	},
}

// Company is an organisation.
type Company struct {
	Entity
}

// NewCompany returns a company bound to the client, with the given initial
// field values. Unknown field names are rejected.
func NewCompany(client *Client, values Values) (*Company, error) {
	company := newCompany(client)

	err := company.SetValues(values)
	if err != nil {
		return nil, err
	}

	return company, nil
}

func newCompany(client *Client) *Company {
	company := &Company{}
	company.init(CompanyType, client)

	return company
}

func (c *Company) entity() *Entity { return &c.Entity }

// Name returns the company's name.
func (c *Company) Name() string {
	name, _ := c.Str("name")

	return name
}

// Tags returns the company's tags.
func (c *Company) Tags() []string { return c.tags() }

// CustomFields returns the company's custom field values.
func (c *Company) CustomFields() CustomFieldList { return c.customFields() }

// Assignee fetches the user this company is assigned to, or nil.
func (c *Company) Assignee(ctx context.Context) (*User, error) {
	return getRelatedListOnly(ctx, &c.Entity, "assignee", c.client.Users())
}

// SetAssignee assigns this company to a user.
func (c *Company) SetAssignee(user *User) error {
	return assignRelated(&c.Entity, "assignee", user, "user")
}

// ContactType fetches this company's contact type, or nil.
func (c *Company) ContactType(ctx context.Context) (*ContactType, error) {
	return getRelatedListOnly(ctx, &c.Entity, "contact_type", c.client.ContactTypes())
}

// LeadType describes lead records.
var LeadType = &ResourceType{
	Name: TagLead,
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
		F("address", NestedField(addressSchema, false, AllowNull())),
		F("assignee_id", IntegerField(AllowNull())),
		F("company_name", StringField(AllowNull())),
		F("customer_source_id", IntegerField(AllowNull())),
		F("details", StringField(AllowNull())),
		F("email", NestedField(emailSchema, false, AllowNull())),
		F("monetary_value", FloatField(AllowNull())),
		F("phone_numbers", NestedField(phoneNumberSchema, true)),
		F("socials", NestedField(socialSchema, true)),
		F("status", StringField(AllowNull())),
		F("tags", StringListField()),
		F("title", StringField(AllowNull())),
		F("websites", NestedField(websiteSchema, true)),
		F("date_created", UnixField()),
		F("date_modified", UnixField()),
		F("custom_fields", CustomFieldsField()),
	),
	CreatePath: "leads",
	DetailPath: "leads/%d",
	SearchPath: "leads/search",
	OrderFields: []string{
		"name", "company_name", "customer_source_id", "monetary_value",
		"status", "title", "date_created", "date_modified",
	},
}

// Lead is an unqualified prospect.
type Lead struct {
	Entity
}

// NewLead returns a lead bound to the client, with the given initial field
// values. Unknown field names are rejected.
func NewLead(client *Client, values Values) (*Lead, error) {
	lead := newLead(client)

	err := lead.SetValues(values)
	if err != nil {
		return nil, err
	}

	return lead, nil
}

func newLead(client *Client) *Lead {
	lead := &Lead{}
	lead.init(LeadType, client)

	return lead
}

func (l *Lead) entity() *Entity { return &l.Entity }

// Name returns the lead's name.
func (l *Lead) Name() string {
	name, _ := l.Str("name")

	return name
}

// Status returns the lead's status.
func (l *Lead) Status() string {
	status, _ := l.Str("status")

	return status
}

// MonetaryValue returns the lead's estimated value.
func (l *Lead) MonetaryValue() float64 {
	v, _ := l.Float("monetary_value")

	return v
}

// CustomFields returns the lead's custom field values.
func (l *Lead) CustomFields() CustomFieldList { return l.customFields() }

// Assignee fetches the user this lead is assigned to, or nil.
func (l *Lead) Assignee(ctx context.Context) (*User, error) {
	return getRelatedListOnly(ctx, &l.Entity, "assignee", l.client.Users())
}

// SetAssignee assigns this lead to a user.
func (l *Lead) SetAssignee(user *User) error {
	return assignRelated(&l.Entity, "assignee", user, "user")
}

// CustomerSource fetches the lead's customer source, or nil.
func (l *Lead) CustomerSource(ctx context.Context) (*CustomerSource, error) {
	return getRelatedListOnly(ctx, &l.Entity, "customer_source", l.client.CustomerSources())
}

// OpportunityType describes opportunity records.
var OpportunityType = &ResourceType{
	Name: TagOpportunity,
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
		F("assignee_id", IntegerField(AllowNull())),
		F("close_date", StringField(AllowNull())),
		F("company_id", IntegerField(AllowNull())),
		F("company_name", StringField(AllowNull())),
		F("customer_source_id", IntegerField(AllowNull())),
		F("details", StringField(AllowNull())),
		F("loss_reason_id", IntegerField(AllowNull())),
		F("monetary_value", FloatField(AllowNull())),
		F("pipeline_id", IntegerField(AllowNull())),
		F("pipeline_stage_id", IntegerField(AllowNull())),
		F("primary_contact_id", IntegerField(AllowNull())),
		F("priority", StringField(AllowNull())),
		F("status", StringField(AllowNull())),
		F("tags", StringListField()),
		F("win_probability", IntegerField(AllowNull())),
		F("date_created", UnixField()),
		F("date_modified", UnixField()),
		F("custom_fields", CustomFieldsField()),
	),
	CreatePath: "opportunities",
	DetailPath: "opportunities/%d",
	SearchPath: "opportunities/search",
	OrderFields: []string{
		"name", "company_name", "monetary_value", "close_date",
		"win_probability", "date_created", "date_modified",
	},
}

// Opportunity is a qualified deal in a pipeline.
type Opportunity struct {
	Entity
}

// NewOpportunity returns an opportunity bound to the client, with the given
// initial field values. Unknown field names are rejected.
func NewOpportunity(client *Client, values Values) (*Opportunity, error) {
	opp := newOpportunity(client)

	err := opp.SetValues(values)
	if err != nil {
		return nil, err
	}

	return opp, nil
}

func newOpportunity(client *Client) *Opportunity {
	opp := &Opportunity{}
	opp.init(OpportunityType, client)

	return opp
}

func (o *Opportunity) entity() *Entity { return &o.Entity }

// Name returns the opportunity's name.
func (o *Opportunity) Name() string {
	name, _ := o.Str("name")

	return name
}

// Status returns the opportunity's status.
func (o *Opportunity) Status() string {
	status, _ := o.Str("status")

	return status
}

// MonetaryValue returns the deal's value.
func (o *Opportunity) MonetaryValue() float64 {
	v, _ := o.Float("monetary_value")

	return v
}

// CustomFields returns the opportunity's custom field values.
func (o *Opportunity) CustomFields() CustomFieldList { return o.customFields() }

// Assignee fetches the user this opportunity is assigned to, or nil.
func (o *Opportunity) Assignee(ctx context.Context) (*User, error) {
	return getRelatedListOnly(ctx, &o.Entity, "assignee", o.client.Users())
}

// SetAssignee assigns this opportunity to a user.
func (o *Opportunity) SetAssignee(user *User) error {
	return assignRelated(&o.Entity, "assignee", user, "user")
}

// Company fetches the opportunity's company, or nil.
func (o *Opportunity) Company(ctx context.Context) (*Company, error) {
	return getRelated(ctx, &o.Entity, "company", o.client.Companies())
}

// SetCompany assigns the opportunity's company.
func (o *Opportunity) SetCompany(company *Company) error {
	return assignRelated(&o.Entity, "company", company, TagCompany)
}

// PrimaryContact fetches the opportunity's primary contact, or nil.
func (o *Opportunity) PrimaryContact(ctx context.Context) (*Person, error) {
	return getRelated(ctx, &o.Entity, "primary_contact", o.client.People().Manager)
}

// SetPrimaryContact assigns the opportunity's primary contact.
func (o *Opportunity) SetPrimaryContact(person *Person) error {
	return assignRelated(&o.Entity, "primary_contact", person, TagPerson)
}

// Pipeline fetches the pipeline the deal sits in, or nil.
func (o *Opportunity) Pipeline(ctx context.Context) (*Pipeline, error) {
	return getRelatedListOnly(ctx, &o.Entity, "pipeline", o.client.Pipelines())
}

// PipelineStage fetches the deal's current stage, or nil.
func (o *Opportunity) PipelineStage(ctx context.Context) (*PipelineStage, error) {
	return getRelatedListOnly(ctx, &o.Entity, "pipeline_stage", o.client.PipelineStages())
}

// LossReason fetches the recorded loss reason, or nil.
func (o *Opportunity) LossReason(ctx context.Context) (*LossReason, error) {
	return getRelatedListOnly(ctx, &o.Entity, "loss_reason", o.client.LossReasons())
}

// CustomerSource fetches the deal's customer source, or nil.
func (o *Opportunity) CustomerSource(ctx context.Context) (*CustomerSource, error) {
	return getRelatedListOnly(ctx, &o.Entity, "customer_source", o.client.CustomerSources())
}

// TaskType describes task records.
var TaskType = &ResourceType{
	Name: TagTask,
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
		F("related_resource", IdentifierField(false, AllowNull())),
		F("assignee_id", IntegerField(AllowNull())),
		F("due_date", UnixField(AllowNull())),
		F("reminder_date", UnixField(AllowNull())),
		F("completed_date", UnixField(AllowNull())),
		F("priority", StringField(AllowNull())),
		F("status", StringField(AllowNull())),
		F("details", StringField(AllowNull())),
		F("tags", StringListField()),
		F("date_created", UnixField()),
		F("date_modified", UnixField()),
		F("custom_fields", CustomFieldsField()),
	),
	CreatePath: "tasks",
	DetailPath: "tasks/%d",
	SearchPath: "tasks/search",
	OrderFields: []string{
		"name", "due_date", "reminder_date", "completed_date", "priority",
		"status", "date_created", "date_modified",
	},
}

// Task is a to-do, optionally attached to another record.
type Task struct {
	Entity
}

// NewTask returns a task bound to the client, with the given initial field
// values. Unknown field names are rejected.
func NewTask(client *Client, values Values) (*Task, error) {
	task := newTask(client)

	err := task.SetValues(values)
	if err != nil {
		return nil, err
	}

	return task, nil
}

func newTask(client *Client) *Task {
	task := &Task{}
	task.init(TaskType, client)

	return task
}

func (t *Task) entity() *Entity { return &t.Entity }

// Name returns the task's name.
func (t *Task) Name() string {
	name, _ := t.Str("name")

	return name
}

// DueDate returns the task's due date.
func (t *Task) DueDate() (time.Time, bool) { return t.Time("due_date") }

// RelatedResource returns the record this task is attached to: a concrete
// resource, a Placeholder for unmodelled kinds, or nil.
func (t *Task) RelatedResource() Reference {
	ref, _ := t.values["related_resource"].(Reference)

	return ref
}

// Assignee fetches the user this task is assigned to, or nil.
func (t *Task) Assignee(ctx context.Context) (*User, error) {
	return getRelatedListOnly(ctx, &t.Entity, "assignee", t.client.Users())
}

// SetAssignee assigns this task to a user.
func (t *Task) SetAssignee(user *User) error {
	return assignRelated(&t.Entity, "assignee", user, "user")
}

// ActivityResourceType describes logged activity records.
var ActivityResourceType = &ResourceType{
	Name: "activity",
	Schema: NewSchema(
		F("id", IntegerField()),
		F("type", NestedField(activityKindSchema, false, Required())),
		F("details", StringField(AllowNull())),
		F("activity_date", UnixField()),
		F("parent", IdentifierField(false, Required())),
		F("user_id", IntegerField(AllowNull())),
		F("date_created", UnixField()),
		F("date_modified", UnixField()),
	),
	CreatePath:  "activities",
	DetailPath:  "activities/%d",
	SearchPath:  "activities/search",
	OrderFields: []string{"activity_date"},
}

// Activity is one logged interaction (a call, a note, a meeting) attached to
// a parent record.
type Activity struct {
	Entity
}

// NewActivity returns an activity bound to the client, with the given
// initial field values. Unknown field names are rejected.
func NewActivity(client *Client, values Values) (*Activity, error) {
	activity := newActivity(client)

	err := activity.SetValues(values)
	if err != nil {
		return nil, err
	}

	return activity, nil
}

func newActivity(client *Client) *Activity {
	activity := &Activity{}
	activity.init(ActivityResourceType, client)

	return activity
}

func (a *Activity) entity() *Entity { return &a.Entity }

// Details returns the activity's free-text body.
func (a *Activity) Details() string {
	details, _ := a.Str("details")

	return details
}

// Parent returns the record this activity is attached to.
func (a *Activity) Parent() Reference {
	ref, _ := a.values["parent"].(Reference)

	return ref
}

// User fetches the user who logged the activity, or nil.
func (a *Activity) User(ctx context.Context) (*User, error) {
	return getRelatedListOnly(ctx, &a.Entity, "user", a.client.Users())
}

// UserType describes account users. Users are list-only.
var UserType = &ResourceType{
	Name: "user",
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
		F("email", EmailField(Required())),
	),
	ListPath: "users",
}

// User is a member of the Copper account.
type User struct {
	Entity
}

func newUser(client *Client) *User {
	user := &User{}
	user.init(UserType, client)

	return user
}

func (u *User) entity() *Entity { return &u.Entity }

// Name returns the user's display name.
func (u *User) Name() string {
	name, _ := u.Str("name")

	return name
}

// Email returns the user's account email.
func (u *User) Email() string {
	email, _ := u.Str("email")

	return email
}

// ActivityTypeType describes the kinds of activity an account can log. The
// listing is sectioned into user and system kinds; both are exposed through
// one merged collection.
var ActivityTypeType = &ResourceType{
	Name: "activity_type",
	Schema: NewSchema(
		F("id", IntegerField()),
		F("category", StringField(Required())),
		F("name", StringField(Required())),
		F("is_disabled", BoolField()),
		F("count_as_interaction", BoolField()),
	),
	ListPath:     "activity_types",
	ListSections: []string{"user", "system"},
}

// ActivityType is one kind of loggable activity.
type ActivityType struct {
	Entity
}

func newActivityType(client *Client) *ActivityType {
	at := &ActivityType{}
	at.init(ActivityTypeType, client)

	return at
}

func (a *ActivityType) entity() *Entity { return &a.Entity }

// Category reports whether the kind is user-defined or built in.
func (a *ActivityType) Category() string {
	category, _ := a.Str("category")

	return category
}

// ContactTypeType describes the account's contact type labels.
var ContactTypeType = &ResourceType{
	Name: "contact_type",
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
	),
	ListPath: "contact_types",
}

// ContactType labels how a person or company relates to the account.
type ContactType struct {
	Entity
}

func newContactType(client *Client) *ContactType {
	ct := &ContactType{}
	ct.init(ContactTypeType, client)

	return ct
}

func (c *ContactType) entity() *Entity { return &c.Entity }

// CustomerSourceType describes the account's customer source labels.
var CustomerSourceType = &ResourceType{
	Name: "customer_source",
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
	),
	ListPath: "customer_sources",
}

// CustomerSource labels where a lead or deal came from.
type CustomerSource struct {
	Entity
}

func newCustomerSource(client *Client) *CustomerSource {
	cs := &CustomerSource{}
	cs.init(CustomerSourceType, client)

	return cs
}

func (c *CustomerSource) entity() *Entity { return &c.Entity }

// LossReasonType describes the account's loss reason labels.
var LossReasonType = &ResourceType{
	Name: "loss_reason",
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
	),
	ListPath: "loss_reasons",
}

// LossReason labels why a deal was lost.
type LossReason struct {
	Entity
}

func newLossReason(client *Client) *LossReason {
	lr := &LossReason{}
	lr.init(LossReasonType, client)

	return lr
}

func (l *LossReason) entity() *Entity { return &l.Entity }

// PipelineType describes the account's sales pipelines.
var PipelineType = &ResourceType{
	Name: "pipeline",
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
		F("stages", NestedField(pipelineStageEmbedSchema, true)),
	),
	ListPath: "pipelines",
}

// Pipeline is a sales pipeline with its embedded stages.
type Pipeline struct {
	Entity
}

func newPipeline(client *Client) *Pipeline {
	pipeline := &Pipeline{}
	pipeline.init(PipelineType, client)

	return pipeline
}

func (p *Pipeline) entity() *Entity { return &p.Entity }

// PipelineStageType describes individual pipeline stages.
var PipelineStageType = &ResourceType{
	Name: "pipeline_stage",
	Schema: NewSchema(
		F("id", IntegerField()),
		F("name", StringField(Required())),
		F("pipeline_id", IntegerField()),
		F("win_probability", IntegerField(AllowNull())),
	),
	ListPath: "pipeline_stages",
}

// PipelineStage is one step of a pipeline.
type PipelineStage struct {
	Entity
}

func newPipelineStage(client *Client) *PipelineStage {
	stage := &PipelineStage{}
	stage.init(PipelineStageType, client)

	return stage
}

func (p *PipelineStage) entity() *Entity { return &p.Entity }

// Pipeline fetches the pipeline this stage belongs to.
func (p *PipelineStage) Pipeline(ctx context.Context) (*Pipeline, error) {
	return getRelatedListOnly(ctx, &p.Entity, "pipeline", p.client.Pipelines())
}

// tags returns the entity's tag list.
func (e *Entity) tags() []string {
	tags, _ := e.values["tags"].([]string)

	return tags
}

// customFields returns the entity's custom field values.
func (e *Entity) customFields() CustomFieldList {
	list, _ := e.values["custom_fields"].(CustomFieldList)

	return list
}
