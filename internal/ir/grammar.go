package ir

// OperandKind classifies how an operand's words are interpreted.
type OperandKind uint8

const (
	// OperandID is a single word naming another instruction's result.
	OperandID OperandKind = iota
	// OperandLiteral is a single literal integer word.
	OperandLiteral
	// OperandNumber is a literal whose width depends on the result type
	// (OpConstant). It consumes all remaining words.
	OperandNumber
	// OperandString is a nul-terminated UTF-8 string packed into words.
	OperandString
	// OperandEnum is a single word drawn from a named value set.
	OperandEnum
)

func (k OperandKind) String() string {
	switch k {
	case OperandID:
		return "id"
	case OperandLiteral:
		return "literal"
	case OperandNumber:
		return "number"
	case OperandString:
		return "string"
	case OperandEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Quantifier says how many times an operand may appear.
type Quantifier uint8

const (
	One Quantifier = iota
	Optional
	Variadic
)

// OperandSpec describes one operand position in the grammar.
type OperandSpec struct {
	Kind       OperandKind
	Enum       EnumKind // only for OperandEnum
	Quantifier Quantifier
}

// OpcodeInfo is the grammar entry for an opcode.
type OpcodeInfo struct {
	Name          string
	HasResultType bool
	HasResult     bool
	Operands      []OperandSpec
}

// Operand spec shorthands for the grammar table.
var (
	ref    = OperandSpec{Kind: OperandID}
	refs   = OperandSpec{Kind: OperandID, Quantifier: Variadic}
	optRef = OperandSpec{Kind: OperandID, Quantifier: Optional}
	lit    = OperandSpec{Kind: OperandLiteral}
	lits   = OperandSpec{Kind: OperandLiteral, Quantifier: Variadic}
	str    = OperandSpec{Kind: OperandString}
	optStr = OperandSpec{Kind: OperandString, Quantifier: Optional}
)

func enum(k EnumKind) OperandSpec {
	return OperandSpec{Kind: OperandEnum, Enum: k}
}

func optEnum(k EnumKind) OperandSpec {
	return OperandSpec{Kind: OperandEnum, Enum: k, Quantifier: Optional}
}

func ops(specs ...OperandSpec) []OperandSpec { return specs }

// grammar covers the subset of SPIR-V understood by the codecs. Instructions
// outside this table are rejected by Decode and Assemble.
var grammar = map[Opcode]OpcodeInfo{
	OpNop:                {Name: "OpNop"},
	OpUndef:              {Name: "OpUndef", HasResultType: true, HasResult: true},
	OpSourceContinued:    {Name: "OpSourceContinued", Operands: ops(str)},
	OpSource:             {Name: "OpSource", Operands: ops(enum(EnumSourceLanguage), lit, optRef, optStr)},
	OpSourceExtension:    {Name: "OpSourceExtension", Operands: ops(str)},
	OpName:               {Name: "OpName", Operands: ops(ref, str)},
	OpMemberName:         {Name: "OpMemberName", Operands: ops(ref, lit, str)},
	OpString:             {Name: "OpString", HasResult: true, Operands: ops(str)},
	OpExtension:          {Name: "OpExtension", Operands: ops(str)},
	OpExtInstImport:      {Name: "OpExtInstImport", HasResult: true, Operands: ops(str)},
	OpExtInst:            {Name: "OpExtInst", HasResultType: true, HasResult: true, Operands: ops(ref, lit, refs)},
	OpMemoryModel:        {Name: "OpMemoryModel", Operands: ops(enum(EnumAddressingModel), enum(EnumMemoryModel))},
	OpEntryPoint:         {Name: "OpEntryPoint", Operands: ops(enum(EnumExecutionModel), ref, str, refs)},
	OpExecutionMode:      {Name: "OpExecutionMode", Operands: ops(ref, enum(EnumExecutionMode), lits)},
	OpCapability:         {Name: "OpCapability", Operands: ops(enum(EnumCapability))},
	OpTypeVoid:           {Name: "OpTypeVoid", HasResult: true},
	OpTypeBool:           {Name: "OpTypeBool", HasResult: true},
	OpTypeInt:            {Name: "OpTypeInt", HasResult: true, Operands: ops(lit, lit)},
	OpTypeFloat:          {Name: "OpTypeFloat", HasResult: true, Operands: ops(lit)},
	OpTypeVector:         {Name: "OpTypeVector", HasResult: true, Operands: ops(ref, lit)},
	OpTypeMatrix:         {Name: "OpTypeMatrix", HasResult: true, Operands: ops(ref, lit)},
	OpTypeArray:          {Name: "OpTypeArray", HasResult: true, Operands: ops(ref, ref)},
	OpTypeRuntimeArray:   {Name: "OpTypeRuntimeArray", HasResult: true, Operands: ops(ref)},
	OpTypeStruct:         {Name: "OpTypeStruct", HasResult: true, Operands: ops(refs)},
	OpTypePointer:        {Name: "OpTypePointer", HasResult: true, Operands: ops(enum(EnumStorageClass), ref)},
	OpTypeFunction:       {Name: "OpTypeFunction", HasResult: true, Operands: ops(ref, refs)},
	OpConstantTrue:       {Name: "OpConstantTrue", HasResultType: true, HasResult: true},
	OpConstantFalse:      {Name: "OpConstantFalse", HasResultType: true, HasResult: true},
	OpConstant:           {Name: "OpConstant", HasResultType: true, HasResult: true, Operands: ops(OperandSpec{Kind: OperandNumber})},
	OpConstantComposite:  {Name: "OpConstantComposite", HasResultType: true, HasResult: true, Operands: ops(refs)},
	OpConstantNull:       {Name: "OpConstantNull", HasResultType: true, HasResult: true},
	OpFunction:           {Name: "OpFunction", HasResultType: true, HasResult: true, Operands: ops(enum(EnumFunctionControl), ref)},
	OpFunctionParameter:  {Name: "OpFunctionParameter", HasResultType: true, HasResult: true},
	OpFunctionEnd:        {Name: "OpFunctionEnd"},
	OpFunctionCall:       {Name: "OpFunctionCall", HasResultType: true, HasResult: true, Operands: ops(ref, refs)},
	OpVariable:           {Name: "OpVariable", HasResultType: true, HasResult: true, Operands: ops(enum(EnumStorageClass), optRef)},
	OpLoad:               {Name: "OpLoad", HasResultType: true, HasResult: true, Operands: ops(ref, optEnum(EnumMemoryAccess), lits)},
	OpStore:              {Name: "OpStore", Operands: ops(ref, ref, optEnum(EnumMemoryAccess), lits)},
	OpDecorate:           {Name: "OpDecorate", Operands: ops(ref, enum(EnumDecoration), lits)},
	OpMemberDecorate:     {Name: "OpMemberDecorate", Operands: ops(ref, lit, enum(EnumDecoration), lits)},
	OpCompositeConstruct: {Name: "OpCompositeConstruct", HasResultType: true, HasResult: true, Operands: ops(refs)},
	OpCopyObject:         {Name: "OpCopyObject", HasResultType: true, HasResult: true, Operands: ops(ref)},
	OpIAdd:               {Name: "OpIAdd", HasResultType: true, HasResult: true, Operands: ops(ref, ref)},
	OpFAdd:               {Name: "OpFAdd", HasResultType: true, HasResult: true, Operands: ops(ref, ref)},
	OpISub:               {Name: "OpISub", HasResultType: true, HasResult: true, Operands: ops(ref, ref)},
	OpFSub:               {Name: "OpFSub", HasResultType: true, HasResult: true, Operands: ops(ref, ref)},
	OpIMul:               {Name: "OpIMul", HasResultType: true, HasResult: true, Operands: ops(ref, ref)},
	OpFMul:               {Name: "OpFMul", HasResultType: true, HasResult: true, Operands: ops(ref, ref)},
	OpSelectionMerge:     {Name: "OpSelectionMerge", Operands: ops(ref, enum(EnumSelectionControl))},
	OpLabel:              {Name: "OpLabel", HasResult: true},
	OpBranch:             {Name: "OpBranch", Operands: ops(ref)},
	OpBranchConditional:  {Name: "OpBranchConditional", Operands: ops(ref, ref, ref, lits)},
	OpReturn:             {Name: "OpReturn"},
	OpReturnValue:        {Name: "OpReturnValue", Operands: ops(ref)},
	OpUnreachable:        {Name: "OpUnreachable"},
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(grammar))
	for op, info := range grammar {
		m[info.Name] = op
	}
	return m
}()
