package event

import "strings"

// Type identifies a kind of notification. Types form a tree: every type has at
// most one parent and records its full ancestor chain when it is created, so
// refinement checks are a single map lookup.
type Type struct {
	name     string
	parent   *Type
	blocking bool
	lineage  map[*Type]struct{}
}

// TypeOption configures a Type at construction.
type TypeOption func(*Type)

// Extends makes the new type a refinement of parent.
// Listeners bound to parent receive notifications of the new type.
func Extends(parent *Type) TypeOption {
	return func(t *Type) {
		t.parent = parent
	}
}

// Blocking marks the type as requiring synchronous delivery.
// Refinements of a blocking type are blocking as well.
func Blocking() TypeOption {
	return func(t *Type) {
		t.blocking = true
	}
}

// NewType creates a notification type.
// It panics if a parent was given that was not itself created by NewType.
//
// Example:
//
//	var (
//	    Failure        = event.NewType("FailureNotification")
//	    ConnectorError = event.NewType("ConnectorFailure", event.Extends(Failure), event.Blocking())
//	)
func NewType(name string, opts ...TypeOption) *Type {
	t := &Type{name: name}

	for _, opt := range opts {
		opt(t)
	}

	t.lineage = map[*Type]struct{}{t: {}}
	if t.parent != nil {
		if !t.parent.recognized() {
			panic("event: parent type must be created with NewType")
		}
		for ancestor := range t.parent.lineage {
			t.lineage[ancestor] = struct{}{}
		}
		t.blocking = t.blocking || t.parent.blocking
	}

	return t
}

// Name returns the type name.
func (t *Type) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Parent returns the direct parent, or nil for a root type.
func (t *Type) Parent() *Type {
	if t == nil {
		return nil
	}
	return t.parent
}

// IsBlocking reports whether notifications of this type are delivered on the
// firing goroutine.
func (t *Type) IsBlocking() bool {
	return t != nil && t.blocking
}

// IsRefinementOf reports whether t is other or a descendant of other.
func (t *Type) IsRefinementOf(other *Type) bool {
	if !t.recognized() || other == nil {
		return false
	}
	_, ok := t.lineage[other]
	return ok
}

// Ancestors returns the chain from t up to its root, t included.
func (t *Type) Ancestors() []*Type {
	var chain []*Type
	for cur := t; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	return chain
}

// String renders the ancestor chain, e.g. "ConnectorFailure<FailureNotification".
func (t *Type) String() string {
	chain := t.Ancestors()
	names := make([]string, len(chain))
	for i, c := range chain {
		names[i] = c.name
	}
	return strings.Join(names, "<")
}

func (t *Type) recognized() bool {
	return t != nil && t.lineage != nil
}

// Capability is a listener interface: a named category of notifications a
// listener declares it can receive. Unlike types, a capability may refine
// several parents.
type Capability struct {
	name    string
	parents []*Capability
	lineage map[*Capability]struct{}
}

// NewCapability creates a capability refining the given parents.
// It panics if any parent was not created by NewCapability.
func NewCapability(name string, parents ...*Capability) *Capability {
	c := &Capability{
		name:    name,
		parents: parents,
		lineage: map[*Capability]struct{}{},
	}
	c.lineage[c] = struct{}{}

	for _, p := range parents {
		if !p.recognized() {
			panic("event: parent capability must be created with NewCapability")
		}
		for ancestor := range p.lineage {
			c.lineage[ancestor] = struct{}{}
		}
	}

	return c
}

// Name returns the capability name.
func (c *Capability) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Parents returns the capabilities c directly refines.
func (c *Capability) Parents() []*Capability {
	if c == nil {
		return nil
	}
	return append([]*Capability(nil), c.parents...)
}

// IsRefinementOf reports whether c is other or refines it, directly or not.
func (c *Capability) IsRefinementOf(other *Capability) bool {
	if !c.recognized() || other == nil {
		return false
	}
	_, ok := c.lineage[other]
	return ok
}

func (c *Capability) String() string {
	return c.Name()
}

func (c *Capability) recognized() bool {
	return c != nil && c.lineage != nil
}
