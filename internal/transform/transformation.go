// Package transform defines the transformations spvfuzz applies to modules
// and the context they share within one mutation sequence.
//
// Every transformation follows the same two-step contract:
//
//	if t.IsApplicable(m, tc) {
//		t.Apply(m, tc)
//	}
//
// IsApplicable is a pure predicate. Apply may only be called right after
// IsApplicable returned true for the same module and context; it performs
// exactly the described edit and nothing else. If the input module was valid,
// the output module is valid too. Apply never validates.
package transform

import (
	"fmt"
	"slices"

	"github.com/roach88/spvfuzz/internal/fact"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/record"
	"github.com/roach88/spvfuzz/internal/validate"
)

// Kind names a transformation variant in persisted records.
type Kind string

const (
	KindAddConstantScalar Kind = "add_constant_scalar"
)

// Transformation is one atomic, parameterized edit.
type Transformation interface {
	// Kind identifies the variant.
	Kind() Kind

	// Check returns nil when the transformation can be applied, and a
	// *RejectionError naming the first failed precondition otherwise.
	// It must not mutate m or tc.
	Check(m *ir.Module, tc *Context) error

	// IsApplicable reports whether Check returns nil.
	IsApplicable(m *ir.Module, tc *Context) bool

	// Apply performs the edit. Calling Apply when IsApplicable is false
	// is a contract violation.
	Apply(m *ir.Module, tc *Context)

	// Record returns the flat, persistable form including the kind.
	Record() record.Object
}

// Context bundles the fact database with the configuration used by
// precondition checks. One Context belongs to one mutation sequence.
type Context struct {
	facts            *fact.Manager
	env              ir.TargetEnv
	validatorOptions validate.Options
}

// NewContext returns a context over facts. A nil facts starts an empty
// database.
func NewContext(facts *fact.Manager, env ir.TargetEnv, opts validate.Options) *Context {
	if facts == nil {
		facts = fact.NewManager()
	}
	return &Context{facts: facts, env: env, validatorOptions: opts}
}

// Facts returns the fact database.
func (c *Context) Facts() *fact.Manager { return c.facts }

// Env returns the target environment.
func (c *Context) Env() ir.TargetEnv { return c.env }

// ValidatorOptions returns the options the sequence is validated with.
func (c *Context) ValidatorOptions() validate.Options { return c.validatorOptions }

// Clone returns a context with an independent copy of the fact database.
func (c *Context) Clone() *Context {
	return &Context{facts: c.facts.Clone(), env: c.env, validatorOptions: c.validatorOptions}
}

// Hash is the content hash of t's record.
func Hash(t Transformation) (string, error) {
	return record.Hash(record.DomainTransformation, t.Record())
}

type decoder func(record.Object) (Transformation, error)

// decoders lists every variant. Adding a kind means adding an entry here.
var decoders = map[Kind]decoder{
	KindAddConstantScalar: decodeAddConstantScalar,
}

// Decode rebuilds a transformation from its record.
func Decode(obj record.Object) (Transformation, error) {
	kind, err := obj.GetString("kind")
	if err != nil {
		return nil, fmt.Errorf("decode transformation: %w", err)
	}
	dec, ok := decoders[Kind(kind)]
	if !ok {
		return nil, fmt.Errorf("decode transformation: unknown kind %q (known: %v)", kind, Kinds())
	}
	t, err := dec(obj)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return t, nil
}

// Kinds returns every registered kind, sorted.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(decoders))
	for k := range decoders {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
