package ir

// TypeKind is the category of a type instruction.
type TypeKind uint8

const (
	TypeNone TypeKind = iota // not a type instruction
	TypeVoid
	TypeBool
	TypeInt
	TypeFloat
	TypeVector
	TypeMatrix
	TypeArray
	TypeRuntimeArray
	TypeStruct
	TypePointer
	TypeFunction
)

var typeKindNames = [...]string{
	TypeNone:         "none",
	TypeVoid:         "void",
	TypeBool:         "bool",
	TypeInt:          "int",
	TypeFloat:        "float",
	TypeVector:       "vector",
	TypeMatrix:       "matrix",
	TypeArray:        "array",
	TypeRuntimeArray: "runtime_array",
	TypeStruct:       "struct",
	TypePointer:      "pointer",
	TypeFunction:     "function",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// IsScalarNumeric reports whether k is an integer or floating-point type.
func (k TypeKind) IsScalarNumeric() bool {
	return k == TypeInt || k == TypeFloat
}

// IsComposite reports whether k aggregates other types.
func (k TypeKind) IsComposite() bool {
	switch k {
	case TypeVector, TypeMatrix, TypeArray, TypeRuntimeArray, TypeStruct:
		return true
	}
	return false
}

// TypeKindOf classifies inst. Returns TypeNone for non-type instructions.
func TypeKindOf(inst *Instruction) TypeKind {
	if inst == nil {
		return TypeNone
	}
	switch inst.Opcode {
	case OpTypeVoid:
		return TypeVoid
	case OpTypeBool:
		return TypeBool
	case OpTypeInt:
		return TypeInt
	case OpTypeFloat:
		return TypeFloat
	case OpTypeVector:
		return TypeVector
	case OpTypeMatrix:
		return TypeMatrix
	case OpTypeArray:
		return TypeArray
	case OpTypeRuntimeArray:
		return TypeRuntimeArray
	case OpTypeStruct:
		return TypeStruct
	case OpTypePointer:
		return TypePointer
	case OpTypeFunction:
		return TypeFunction
	}
	return TypeNone
}

// IsTypeInstruction reports whether inst declares a type.
func IsTypeInstruction(inst *Instruction) bool {
	return TypeKindOf(inst) != TypeNone
}

// TypeKind resolves id and classifies it. ok is false when id is not defined
// or does not name a type.
func (m *Module) TypeKind(id ID) (kind TypeKind, ok bool) {
	inst, found := m.Lookup(id)
	if !found {
		return TypeNone, false
	}
	kind = TypeKindOf(inst)
	return kind, kind != TypeNone
}

// ScalarWidth returns the bit width of an OpTypeInt or OpTypeFloat.
func ScalarWidth(inst *Instruction) (uint32, bool) {
	if !TypeKindOf(inst).IsScalarNumeric() {
		return 0, false
	}
	op, ok := inst.Operand(0)
	if !ok {
		return 0, false
	}
	return op.Value(), true
}

// IsSignedInt reports whether inst is an OpTypeInt with signedness 1.
func IsSignedInt(inst *Instruction) bool {
	if TypeKindOf(inst) != TypeInt {
		return false
	}
	op, ok := inst.Operand(1)
	return ok && op.Value() == 1
}

// WordsForWidth is the number of 32-bit literal words that hold a scalar of
// the given bit width: one word per started 32 bits.
func WordsForWidth(width uint32) int {
	return int((width + 31) / 32)
}
