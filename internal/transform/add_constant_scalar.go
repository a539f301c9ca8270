package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/record"
)

// AddConstantScalar introduces an OpConstant of a scalar integer or float
// type at a fresh id, optionally marking the id irrelevant.
type AddConstantScalar struct {
	FreshID      ir.ID
	TypeID       ir.ID
	Words        []uint32 // literal payload, low-order word first
	IsIrrelevant bool
}

// NewAddConstantScalar returns the transformation. words is copied.
func NewAddConstantScalar(freshID, typeID ir.ID, words []uint32, irrelevant bool) *AddConstantScalar {
	return &AddConstantScalar{
		FreshID:      freshID,
		TypeID:       typeID,
		Words:        slices.Clone(words),
		IsIrrelevant: irrelevant,
	}
}

// Kind implements Transformation.
func (t *AddConstantScalar) Kind() Kind { return KindAddConstantScalar }

// Check implements Transformation. Preconditions are tested in a fixed order
// and the first failure is reported.
func (t *AddConstantScalar) Check(m *ir.Module, _ *Context) error {
	if !t.FreshID.IsValid() {
		return reject(t.Kind(), ErrCodeInvalidFreshID, "fresh id must be non-zero")
	}
	if t.FreshID > ir.MaxID {
		return reject(t.Kind(), ErrCodeInvalidFreshID, "fresh id %s leaves no room for the bound", t.FreshID)
	}
	if m.IsIDInUse(t.FreshID) {
		return reject(t.Kind(), ErrCodeIDCollision, "id %s is already in use", t.FreshID)
	}
	if len(t.Words) == 0 {
		return reject(t.Kind(), ErrCodeMissingData, "at least one data word is required")
	}

	typ, ok := m.Lookup(t.TypeID)
	if !ok {
		return reject(t.Kind(), ErrCodeUnknownType, "type id %s does not exist", t.TypeID)
	}
	kind := ir.TypeKindOf(typ)
	if kind == ir.TypeNone {
		return reject(t.Kind(), ErrCodeNotAType, "id %s is %s, not a type", t.TypeID, typ.Opcode)
	}
	if !kind.IsScalarNumeric() {
		return reject(t.Kind(), ErrCodeIneligibleTypeCategory, "type %s is %s, not an integer or float", t.TypeID, kind)
	}

	width, _ := ir.ScalarWidth(typ)
	if want := ir.WordsForWidth(width); len(t.Words) != want {
		return reject(t.Kind(), ErrCodeDataWidthMismatch,
			"%d-bit %s needs %d data words, got %d", width, kind, want, len(t.Words))
	}
	return nil
}

// IsApplicable implements Transformation.
func (t *AddConstantScalar) IsApplicable(m *ir.Module, tc *Context) bool {
	return t.Check(m, tc) == nil
}

// Apply implements Transformation. It appends the constant to the global
// section, after every existing declaration and before the first function.
func (t *AddConstantScalar) Apply(m *ir.Module, tc *Context) {
	inst := ir.NewInstruction(ir.OpConstant, t.TypeID, t.FreshID, ir.NumberOperand(t.Words...))
	if err := m.AddGlobal(inst); err != nil {
		panic(fmt.Sprintf("%s: apply without a passing check: %v", t.Kind(), err))
	}
	if t.IsIrrelevant {
		tc.Facts().RecordIrrelevant(t.FreshID)
	}
}

// Record implements Transformation.
func (t *AddConstantScalar) Record() record.Object {
	return record.Object{
		"kind":          record.String(t.Kind()),
		"fresh_id":      record.Int(t.FreshID),
		"type_id":       record.Int(t.TypeID),
		"words":         record.Words(t.Words),
		"is_irrelevant": record.Bool(t.IsIrrelevant),
	}
}

func (t *AddConstantScalar) String() string {
	words := make([]string, len(t.Words))
	for i, w := range t.Words {
		words[i] = fmt.Sprintf("0x%08x", w)
	}
	s := fmt.Sprintf("%s %s = %s [%s]", t.Kind(), t.FreshID, t.TypeID, strings.Join(words, " "))
	if t.IsIrrelevant {
		s += " irrelevant"
	}
	return s
}

func decodeAddConstantScalar(obj record.Object) (Transformation, error) {
	fresh, err := obj.GetUint32("fresh_id")
	if err != nil {
		return nil, err
	}
	typ, err := obj.GetUint32("type_id")
	if err != nil {
		return nil, err
	}
	words, err := obj.GetWords("words")
	if err != nil {
		return nil, err
	}
	irrelevant, err := obj.GetBool("is_irrelevant")
	if err != nil {
		return nil, err
	}
	return NewAddConstantScalar(ir.ID(fresh), ir.ID(typ), words, irrelevant), nil
}
