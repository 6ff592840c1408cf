package copper

import "fmt"

// Identifier tag constants. These are the wire names Copper uses for the
// concrete resource kinds a polymorphic reference may point at.
const (
	TagPerson      = "person"
	TagCompany     = "company"
	TagLead        = "lead"
	TagOpportunity = "opportunity"
	TagProject     = "project"
	TagTask        = "task"
)

// identifierTags is the closed set of tags that resolve to modelled
// resources.
var identifierTags = map[string]bool{
	TagPerson:      true,
	TagCompany:     true,
	TagLead:        true,
	TagOpportunity: true,
}

// placeholderTags name referenced kinds the library does not model yet.
// They deserialize to a Placeholder carrying only the id.
var placeholderTags = map[string]bool{
	TagProject: true,
	TagTask:    true,
}

// Reference is any value that can stand on either end of an identifier: a
// concrete resource or a Placeholder.
type Reference interface {
	// ReferenceTag returns the identifier tag of the value's resource kind.
	ReferenceTag() string

	// ReferenceID returns the referenced record's id.
	ReferenceID() int64
}

// Identifier is a polymorphic {type, id} reference.
type Identifier struct {
	Type string `json:"type" yaml:"type"`
	ID   int64  `json:"id"   yaml:"id"`
}

// IdentifierOf derives the Identifier naming ref. It fails if the value's
// resource kind is not in the enumerated tag set.
func IdentifierOf(ref Reference) (Identifier, error) {
	tag := ref.ReferenceTag()
	if !identifierTags[tag] && !placeholderTags[tag] {
		return Identifier{}, fmt.Errorf("%w: %q", ErrUnknownIdentifierType, tag)
	}

	return Identifier{Type: tag, ID: ref.ReferenceID()}, nil
}

// Placeholder stands in for a referenced record whose kind is not modelled.
// Only the id is known.
type Placeholder struct {
	Tag string
	ID  int64
}

// ReferenceTag implements Reference.
func (p *Placeholder) ReferenceTag() string { return p.Tag }

// ReferenceID implements Reference.
func (p *Placeholder) ReferenceID() int64 { return p.ID }

// String implements fmt.Stringer.
func (p *Placeholder) String() string {
	return fmt.Sprintf("%s %d", p.Tag, p.ID)
}
