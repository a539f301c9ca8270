// Package fact records auxiliary knowledge about ids that transformations
// consult and extend.
//
// Facts are monotonic: a Manager only grows. It is owned by exactly one
// transformation context and is not safe for concurrent use; parallel
// sequences Clone it.
package fact

import (
	"fmt"
	"slices"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/record"
)

// Kind names a fact kind in persisted records.
type Kind string

const (
	// KindIrrelevant marks an id whose value does not matter.
	KindIrrelevant Kind = "irrelevant"
	// KindSynonym states that two ids always hold the same value.
	KindSynonym Kind = "synonym"
)

// Fact is one recorded assertion. Irrelevant facts carry one id, synonym
// facts two.
type Fact struct {
	Kind Kind
	IDs  []ir.ID
}

// Irrelevant returns the fact "id is irrelevant".
func Irrelevant(id ir.ID) Fact {
	return Fact{Kind: KindIrrelevant, IDs: []ir.ID{id}}
}

// Synonym returns the fact "a and b are synonymous".
func Synonym(a, b ir.ID) Fact {
	return Fact{Kind: KindSynonym, IDs: []ir.ID{a, b}}
}

// Record converts the fact to its persisted form.
func (f Fact) Record() record.Object {
	ids := make([]uint32, len(f.IDs))
	for i, id := range f.IDs {
		ids[i] = uint32(id)
	}
	return record.Object{
		"kind": record.String(f.Kind),
		"ids":  record.Words(ids),
	}
}

// Hash is the content hash of the fact record.
func (f Fact) Hash() (string, error) {
	return record.Hash(record.DomainFact, f.Record())
}

// FromRecord parses a persisted fact.
func FromRecord(obj record.Object) (Fact, error) {
	kind, err := obj.GetString("kind")
	if err != nil {
		return Fact{}, fmt.Errorf("fact: %w", err)
	}
	words, err := obj.GetWords("ids")
	if err != nil {
		return Fact{}, fmt.Errorf("fact: %w", err)
	}

	f := Fact{Kind: Kind(kind), IDs: make([]ir.ID, len(words))}
	for i, w := range words {
		f.IDs[i] = ir.ID(w)
	}
	if err := f.check(); err != nil {
		return Fact{}, err
	}
	return f, nil
}

func (f Fact) check() error {
	want := 0
	switch f.Kind {
	case KindIrrelevant:
		want = 1
	case KindSynonym:
		want = 2
	default:
		return fmt.Errorf("fact: unknown kind %q", f.Kind)
	}
	if len(f.IDs) != want {
		return fmt.Errorf("fact: %s takes %d ids, got %d", f.Kind, want, len(f.IDs))
	}
	for _, id := range f.IDs {
		if !id.IsValid() {
			return fmt.Errorf("fact: %s refers to the zero id", f.Kind)
		}
	}
	return nil
}

// Manager is the fact database of one transformation sequence.
type Manager struct {
	irrelevant map[ir.ID]struct{}
	parent     map[ir.ID]ir.ID // union-find forest over synonymous ids
	log        []Fact          // accepted facts in recording order
}

// NewManager returns an empty fact database.
func NewManager() *Manager {
	return &Manager{
		irrelevant: make(map[ir.ID]struct{}),
		parent:     make(map[ir.ID]ir.ID),
	}
}

// RecordIrrelevant marks id as irrelevant. Recording the same id twice has
// the effect of recording it once.
func (m *Manager) RecordIrrelevant(id ir.ID) {
	if _, ok := m.irrelevant[id]; ok {
		return
	}
	m.irrelevant[id] = struct{}{}
	m.log = append(m.log, Irrelevant(id))
}

// IsIrrelevant reports whether id was recorded irrelevant. Ids never
// recorded, including ids absent from any module, are not irrelevant.
func (m *Manager) IsIrrelevant(id ir.ID) bool {
	_, ok := m.irrelevant[id]
	return ok
}

// IrrelevantIDs returns the irrelevant ids in ascending order.
func (m *Manager) IrrelevantIDs() []ir.ID {
	out := make([]ir.ID, 0, len(m.irrelevant))
	for id := range m.irrelevant {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// RecordSynonym states that a and b hold the same value. Synonymy is
// reflexive, symmetric and transitive.
func (m *Manager) RecordSynonym(a, b ir.ID) {
	ra, rb := m.find(a), m.find(b)
	if ra == rb {
		return
	}
	// Smaller id becomes the root so the forest shape is order independent.
	if rb < ra {
		ra, rb = rb, ra
	}
	m.parent[rb] = ra
	m.log = append(m.log, Synonym(a, b))
}

// IsSynonymous reports whether a and b are known to hold the same value.
func (m *Manager) IsSynonymous(a, b ir.ID) bool {
	return a == b || m.find(a) == m.find(b)
}

// SynonymsOf returns every id synonymous with id, excluding id itself, in
// ascending order.
func (m *Manager) SynonymsOf(id ir.ID) []ir.ID {
	root := m.find(id)
	var out []ir.ID
	for other := range m.parent {
		if other != id && m.find(other) == root {
			out = append(out, other)
		}
	}
	if root != id && !slices.Contains(out, root) {
		out = append(out, root)
	}
	slices.Sort(out)
	return out
}

func (m *Manager) find(id ir.ID) ir.ID {
	for {
		p, ok := m.parent[id]
		if !ok || p == id {
			return id
		}
		id = p
	}
}

// Add records f. Use it to restore a database from persisted facts.
func (m *Manager) Add(f Fact) error {
	if err := f.check(); err != nil {
		return err
	}
	switch f.Kind {
	case KindIrrelevant:
		m.RecordIrrelevant(f.IDs[0])
	case KindSynonym:
		m.RecordSynonym(f.IDs[0], f.IDs[1])
	}
	return nil
}

// Facts returns the recorded facts in recording order. Facts that added no
// new knowledge are not listed.
func (m *Manager) Facts() []Fact {
	out := make([]Fact, len(m.log))
	for i, f := range m.log {
		out[i] = Fact{Kind: f.Kind, IDs: slices.Clone(f.IDs)}
	}
	return out
}

// Len returns the number of recorded facts.
func (m *Manager) Len() int {
	return len(m.log)
}

// Clone returns an independent copy.
func (m *Manager) Clone() *Manager {
	c := NewManager()
	for id := range m.irrelevant {
		c.irrelevant[id] = struct{}{}
	}
	for id, p := range m.parent {
		c.parent[id] = p
	}
	c.log = m.Facts()
	return c
}
