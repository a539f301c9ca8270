package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleInstructions builds a small fragment shader:
//
//	%2 = OpTypeVoid
//	%3 = OpTypeFunction %2
//	%6 = OpTypeInt 32 1
//	%7 = OpTypePointer Function %6
//	%9 = OpConstant %6 1
//	%4 = OpFunction %2 None %3
//	%5 = OpLabel
//	%8 = OpVariable %7 Function
//	     OpStore %8 %9
//	     OpReturn
//	     OpFunctionEnd
func sampleInstructions() []*Instruction {
	return []*Instruction{
		NewInstruction(OpCapability, NoID, NoID, EnumOperand(EnumCapability, 1)),
		NewInstruction(OpMemoryModel, NoID, NoID, EnumOperand(EnumAddressingModel, 0), EnumOperand(EnumMemoryModel, 1)),
		NewInstruction(OpEntryPoint, NoID, NoID, EnumOperand(EnumExecutionModel, 4), IDOperand(4), StringOperand("main")),
		NewInstruction(OpName, NoID, NoID, IDOperand(4), StringOperand("main")),
		NewInstruction(OpTypeVoid, NoID, 2),
		NewInstruction(OpTypeFunction, NoID, 3, IDOperand(2)),
		NewInstruction(OpTypeInt, NoID, 6, LiteralOperand(32), LiteralOperand(1)),
		NewInstruction(OpTypePointer, NoID, 7, EnumOperand(EnumStorageClass, 7), IDOperand(6)),
		NewInstruction(OpConstant, 6, 9, NumberOperand(1)),
		NewInstruction(OpFunction, 2, 4, EnumOperand(EnumFunctionControl, 0), IDOperand(3)),
		NewInstruction(OpLabel, NoID, 5),
		NewInstruction(OpVariable, 7, 8, EnumOperand(EnumStorageClass, 7)),
		NewInstruction(OpStore, NoID, NoID, IDOperand(8), IDOperand(9)),
		NewInstruction(OpReturn, NoID, NoID),
		NewInstruction(OpFunctionEnd, NoID, NoID),
	}
}

func sampleModule(t *testing.T) *Module {
	t.Helper()
	m, err := FromInstructions(Header{Version: EnvUniversal1_3.SPIRVVersion(), Generator: GeneratorID}, sampleInstructions())
	require.NoError(t, err)
	return m
}

func TestFromInstructions_Sections(t *testing.T) {
	m := sampleModule(t)

	assert.Len(t, m.Capabilities, 1)
	require.NotNil(t, m.MemoryModel)
	assert.Len(t, m.EntryPoints, 1)
	assert.Len(t, m.Debug, 1)
	assert.Len(t, m.Globals, 5)
	require.Len(t, m.Functions, 1)

	fn := m.Functions[0]
	assert.Equal(t, ID(4), fn.Def.Result)
	require.Len(t, fn.Blocks, 1)
	assert.Equal(t, ID(5), fn.Blocks[0].Label.Result)
	assert.Len(t, fn.Blocks[0].Body, 3)
	assert.NotNil(t, fn.End)

	assert.Equal(t, uint32(10), m.Header.Bound, "bound is raised past the largest id")
	assert.Equal(t, len(sampleInstructions()), m.InstructionCount())
}

func TestFromInstructions_RejectsDuplicateResult(t *testing.T) {
	insts := sampleInstructions()
	insts = append(insts[:5], append([]*Instruction{NewInstruction(OpTypeBool, NoID, 2)}, insts[5:]...)...)

	_, err := FromInstructions(Header{}, insts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "%2")
}

func TestFromInstructions_RejectsInstructionOutsideBlock(t *testing.T) {
	insts := []*Instruction{
		NewInstruction(OpTypeVoid, NoID, 1),
		NewInstruction(OpTypeFunction, NoID, 2, IDOperand(1)),
		NewInstruction(OpFunction, 1, 3, EnumOperand(EnumFunctionControl, 0), IDOperand(2)),
		NewInstruction(OpReturn, NoID, NoID),
		NewInstruction(OpFunctionEnd, NoID, NoID),
	}
	_, err := FromInstructions(Header{}, insts)
	assert.Error(t, err)
}

func TestFromInstructions_RejectsUnterminatedFunction(t *testing.T) {
	insts := []*Instruction{
		NewInstruction(OpTypeVoid, NoID, 1),
		NewInstruction(OpTypeFunction, NoID, 2, IDOperand(1)),
		NewInstruction(OpFunction, 1, 3, EnumOperand(EnumFunctionControl, 0), IDOperand(2)),
		NewInstruction(OpLabel, NoID, 4),
		NewInstruction(OpReturn, NoID, NoID),
	}
	_, err := FromInstructions(Header{}, insts)
	assert.Error(t, err)
}

func TestModule_LookupAndFreshness(t *testing.T) {
	m := sampleModule(t)

	inst, ok := m.Lookup(6)
	require.True(t, ok)
	assert.Equal(t, OpTypeInt, inst.Opcode)

	_, ok = m.Lookup(100)
	assert.False(t, ok)

	assert.True(t, m.IsIDInUse(9))
	assert.False(t, m.IsFreshID(9))
	assert.True(t, m.IsFreshID(100))
	assert.False(t, m.IsFreshID(NoID), "zero is never fresh")
}

func TestModule_AddGlobal(t *testing.T) {
	m := sampleModule(t)
	before := m.Instructions()

	c := NewInstruction(OpConstant, 6, 100, NumberOperand(7))
	require.NoError(t, m.AddGlobal(c))

	assert.True(t, m.IsIDInUse(100))
	assert.Equal(t, uint32(101), m.Header.Bound)
	assert.Equal(t, m.Header.Bound, m.Bound())
	assert.Same(t, c, m.Globals[len(m.Globals)-1], "appended at the end of the global section")

	after := m.Instructions()
	require.Len(t, after, len(before)+1)
	// Everything up to the function section is unchanged, then the new
	// constant, then the function.
	idx := len(m.Capabilities) + 1 + len(m.EntryPoints) + len(m.Debug) + len(m.Globals) - 1
	assert.Same(t, c, after[idx])
	assert.Equal(t, OpFunction, after[idx+1].Opcode)
}

func TestModule_AddGlobalRejectsUsedID(t *testing.T) {
	m := sampleModule(t)
	err := m.AddGlobal(NewInstruction(OpConstant, 6, 9, NumberOperand(2)))
	assert.Error(t, err)
	assert.Len(t, m.Globals, 5)
}

func TestModule_AddGlobalRejectsIDAboveMax(t *testing.T) {
	m := sampleModule(t)
	bound := m.Bound()

	err := m.AddGlobal(NewInstruction(OpConstant, 6, MaxID+1, NumberOperand(2)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no room for the bound")
	assert.Equal(t, bound, m.Bound())
	assert.False(t, m.IsIDInUse(MaxID+1))

	require.NoError(t, m.AddGlobal(NewInstruction(OpConstant, 6, MaxID, NumberOperand(2))))
	assert.Equal(t, uint32(MaxID)+1, m.Bound())
}

func TestModule_CloneIsIndependent(t *testing.T) {
	m := sampleModule(t)
	c := m.Clone()

	if diff := cmp.Diff(m.Instructions(), c.Instructions()); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	require.NoError(t, c.AddGlobal(NewInstruction(OpConstant, 6, 50, NumberOperand(3))))
	assert.True(t, c.IsIDInUse(50))
	assert.False(t, m.IsIDInUse(50), "original must not see clone's insertion")

	c.Globals[0].Result = 99
	assert.Equal(t, ID(2), m.Globals[0].Result)
}
