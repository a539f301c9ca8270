package ir

import "fmt"

// Opcode is a SPIR-V instruction opcode. Values are the registered SPIR-V
// numbers so encoded modules are readable by standard tools.
type Opcode uint16

const (
	OpNop                Opcode = 0
	OpUndef              Opcode = 1
	OpSourceContinued    Opcode = 2
	OpSource             Opcode = 3
	OpSourceExtension    Opcode = 4
	OpName               Opcode = 5
	OpMemberName         Opcode = 6
	OpString             Opcode = 7
	OpExtension          Opcode = 10
	OpExtInstImport      Opcode = 11
	OpExtInst            Opcode = 12
	OpMemoryModel        Opcode = 14
	OpEntryPoint         Opcode = 15
	OpExecutionMode      Opcode = 16
	OpCapability         Opcode = 17
	OpTypeVoid           Opcode = 19
	OpTypeBool           Opcode = 20
	OpTypeInt            Opcode = 21
	OpTypeFloat          Opcode = 22
	OpTypeVector         Opcode = 23
	OpTypeMatrix         Opcode = 24
	OpTypeArray          Opcode = 28
	OpTypeRuntimeArray   Opcode = 29
	OpTypeStruct         Opcode = 30
	OpTypePointer        Opcode = 32
	OpTypeFunction       Opcode = 33
	OpConstantTrue       Opcode = 41
	OpConstantFalse      Opcode = 42
	OpConstant           Opcode = 43
	OpConstantComposite  Opcode = 44
	OpConstantNull       Opcode = 46
	OpFunction           Opcode = 54
	OpFunctionParameter  Opcode = 55
	OpFunctionEnd        Opcode = 56
	OpFunctionCall       Opcode = 57
	OpVariable           Opcode = 59
	OpLoad               Opcode = 61
	OpStore              Opcode = 62
	OpDecorate           Opcode = 71
	OpMemberDecorate     Opcode = 72
	OpCompositeConstruct Opcode = 80
	OpCopyObject         Opcode = 83
	OpIAdd               Opcode = 128
	OpFAdd               Opcode = 129
	OpISub               Opcode = 130
	OpFSub               Opcode = 131
	OpIMul               Opcode = 132
	OpFMul               Opcode = 133
	OpSelectionMerge     Opcode = 247
	OpLabel              Opcode = 248
	OpBranch             Opcode = 249
	OpBranchConditional  Opcode = 250
	OpReturn             Opcode = 253
	OpReturnValue        Opcode = 254
	OpUnreachable        Opcode = 255
)

// String returns the SPIR-V mnemonic, or Op<n> for opcodes outside the
// supported grammar.
func (op Opcode) String() string {
	if info, ok := grammar[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("Op%d", uint16(op))
}

// LookupOpcode resolves a mnemonic such as "OpConstant".
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// Info returns the grammar entry for op.
func (op Opcode) Info() (OpcodeInfo, bool) {
	info, ok := grammar[op]
	return info, ok
}

// IsType reports whether op declares a type.
func (op Opcode) IsType() bool {
	switch op {
	case OpTypeVoid, OpTypeBool, OpTypeInt, OpTypeFloat, OpTypeVector,
		OpTypeMatrix, OpTypeArray, OpTypeRuntimeArray, OpTypeStruct,
		OpTypePointer, OpTypeFunction:
		return true
	}
	return false
}

// IsConstant reports whether op declares a module-scope constant.
func (op Opcode) IsConstant() bool {
	switch op {
	case OpConstantTrue, OpConstantFalse, OpConstant, OpConstantComposite, OpConstantNull:
		return true
	}
	return false
}

// IsDebug reports whether op belongs to the debug section.
func (op Opcode) IsDebug() bool {
	switch op {
	case OpSourceContinued, OpSource, OpSourceExtension, OpName, OpMemberName, OpString:
		return true
	}
	return false
}

// IsAnnotation reports whether op belongs to the annotation section.
func (op Opcode) IsAnnotation() bool {
	return op == OpDecorate || op == OpMemberDecorate
}

// IsTerminator reports whether op ends a block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpBranch, OpBranchConditional, OpReturn, OpReturnValue, OpUnreachable:
		return true
	}
	return false
}
