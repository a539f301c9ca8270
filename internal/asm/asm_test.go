package asm

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spvfuzz/internal/ir"
)

const shader = `
               OpCapability Shader
          %1 = OpExtInstImport "GLSL.std.450"
               OpMemoryModel Logical GLSL450
               OpEntryPoint Fragment %4 "main"
               OpExecutionMode %4 OriginUpperLeft
               OpSource ESSL 310
               OpName %4 "main"
               OpName %8 "x"
               OpName %12 "y"
               OpName %16 "z"
               OpDecorate %8 RelaxedPrecision
               OpDecorate %12 RelaxedPrecision
          %2 = OpTypeVoid
          %3 = OpTypeFunction %2
          %6 = OpTypeInt 32 1
          %7 = OpTypePointer Function %6
          %9 = OpConstant %6 1
         %10 = OpTypeInt 32 0
         %11 = OpTypePointer Function %10
         %13 = OpConstant %10 2
         %14 = OpTypeFloat 32
         %15 = OpTypePointer Function %14
         %17 = OpConstant %14 3
          %4 = OpFunction %2 None %3
          %5 = OpLabel
          %8 = OpVariable %7 Function
         %12 = OpVariable %11 Function
         %16 = OpVariable %15 Function
               OpStore %8 %9
               OpStore %12 %13
               OpStore %16 %17
               OpReturn
               OpFunctionEnd
`

func TestAssemble_Shader(t *testing.T) {
	m, err := Assemble(ir.EnvUniversal1_3, shader)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x00010300), m.Header.Version)
	assert.Equal(t, uint32(18), m.Header.Bound)
	assert.Len(t, m.Capabilities, 1)
	assert.Len(t, m.ExtInstImports, 1)
	assert.NotNil(t, m.MemoryModel)
	assert.Len(t, m.Debug, 5)
	assert.Len(t, m.Annotations, 2)
	assert.Len(t, m.Globals, 11)
	require.Len(t, m.Functions, 1)
	require.Len(t, m.Functions[0].Blocks, 1)
	assert.Len(t, m.Functions[0].Blocks[0].Body, 7)

	c, ok := m.Lookup(17)
	require.True(t, ok)
	assert.Equal(t, ir.OpConstant, c.Opcode)
	assert.Equal(t, ir.ID(14), c.ResultType)
	assert.Equal(t, []uint32{math.Float32bits(3)}, c.Operands[0].Words)

	ep := m.EntryPoints[0]
	assert.Equal(t, "main", ep.Operands[2].Text())
}

func TestDisassemble_RoundTrip(t *testing.T) {
	m := MustAssemble(ir.EnvUniversal1_3, shader)
	text := Disassemble(m)

	assert.True(t, strings.HasPrefix(text, "; SPIR-V\n; Version: 1.3\n"))
	assert.Contains(t, text, "; Bound: 18\n")
	assert.Contains(t, text, "%1 = OpExtInstImport \"GLSL.std.450\"\n")
	assert.Contains(t, text, "%17 = OpConstant %14 3\n")
	assert.Contains(t, text, "%4 = OpFunction %2 None %3\n")
	assert.Contains(t, text, "OpStore %8 %9\n")

	again, err := Assemble(ir.EnvUniversal1_3, text)
	require.NoError(t, err)
	assert.Equal(t, ir.EncodeWords(m), ir.EncodeWords(again))
}

func TestDisassemble_Indent(t *testing.T) {
	m := MustAssemble(ir.EnvUniversal1_3, shader)
	text := DisassembleWith(m, Options{NoHeader: true, Indent: true})

	lines := strings.Split(text, "\n")
	assert.Equal(t, "               OpCapability Shader", lines[0])
	assert.Equal(t, "          %1 = OpExtInstImport \"GLSL.std.450\"", lines[1])
	assert.Equal(t, "         %10 = OpTypeInt 32 0", lines[17])
}

func TestAssemble_SymbolicIDs(t *testing.T) {
	m, err := Assemble(ir.EnvUniversal1_0, `
		OpCapability Shader
		OpMemoryModel Logical GLSL450
		%void = OpTypeVoid
		%int = OpTypeInt 32 1
		%5 = OpConstant %int -7
	`)
	require.NoError(t, err)

	void, ok := m.Lookup(6)
	require.True(t, ok)
	assert.Equal(t, ir.OpTypeVoid, void.Opcode)
	c, ok := m.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, ir.ID(7), c.ResultType)
	assert.Equal(t, []uint32{0xfffffff9}, c.Operands[0].Words)
	assert.Equal(t, "%5 = OpConstant %7 -7", FormatInstruction(m, c))
}

func TestConstantLiterals(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		lit   string
		words []uint32
		text  string
	}{
		{"signed", "OpTypeInt 32 1", "-1", []uint32{0xffffffff}, "-1"},
		{"unsigned max", "OpTypeInt 32 0", "4294967295", []uint32{0xffffffff}, "4294967295"},
		{"hex unsigned", "OpTypeInt 32 0", "0x10", []uint32{16}, "16"},
		{"signed 16", "OpTypeInt 16 1", "-2", []uint32{0xfffffffe}, "-2"},
		{"signed 64", "OpTypeInt 64 1", "-2", []uint32{0xfffffffe, 0xffffffff}, "-2"},
		{"unsigned 64", "OpTypeInt 64 0", "4294967296", []uint32{0, 1}, "4294967296"},
		{"float", "OpTypeFloat 32", "0.5", []uint32{0x3f000000}, "0.5"},
		{"float thirty", "OpTypeFloat 32", "30", []uint32{0x41f00000}, "30"},
		{"float nan bits", "OpTypeFloat 32", "0x7fc00000", []uint32{0x7fc00000}, "0x7fc00000"},
		{"double", "OpTypeFloat 64", "1", []uint32{0, 0x3ff00000}, "1"},
		{"half bits", "OpTypeFloat 16", "0x3c00", []uint32{0x3c00}, "0x3c00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Assemble(ir.EnvUniversal1_3, "%1 = "+tt.typ+"\n%2 = OpConstant %1 "+tt.lit+"\n")
			require.NoError(t, err)
			c, _ := m.Lookup(2)
			assert.Equal(t, tt.words, c.Operands[0].Words)
			assert.Equal(t, "%2 = OpConstant %1 "+tt.text, FormatInstruction(m, c))
		})
	}
}

func TestAssemble_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown opcode", "OpFrobnicate", "unknown opcode"},
		{"missing result", "OpTypeVoid", "requires a result id"},
		{"unexpected result", "%1 = OpCapability Shader", "does not produce a result"},
		{"bad enum", "OpCapability Wings", "unknown enum value"},
		{"missing operand", "%1 = OpTypeInt 32", "missing literal operand"},
		{"trailing operand", "%1 = OpTypeVoid 3", "unexpected operand"},
		{"unterminated string", "OpExtension \"abc", "unterminated string"},
		{"reserved id", "%0 = OpTypeVoid", "reserved"},
		{"constant of undeclared type", "%2 = OpConstant %1 3", "not declared"},
		{"constant of void type", "%1 = OpTypeVoid\n%2 = OpConstant %1 3", "not a scalar numeric type"},
		{"literal out of range", "%1 = OpTypeInt 32 1\n%2 = OpConstant %1 3000000000", "bad 32-bit signed literal"},
		{"half decimal", "%1 = OpTypeFloat 16\n%2 = OpConstant %1 1.0", "bit patterns"},
		{"duplicate id", "%1 = OpTypeVoid\n%1 = OpTypeBool", "defined by both"},
		{"id at bound limit", "%4294967295 = OpTypeVoid", "no room for the bound"},
		{"symbolic id past limit", "%4294967294 = OpTypeVoid\n%b = OpTypeBool", "do not fit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(ir.EnvUniversal1_3, tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAssemble_SyntaxErrorLine(t *testing.T) {
	_, err := Assemble(ir.EnvUniversal1_3, "OpCapability Shader\n\nOpBogus")
	require.Error(t, err)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Line)
}

func TestAssemble_Comments(t *testing.T) {
	m, err := Assemble(ir.EnvUniversal1_3, "; leading comment\nOpCapability Shader ; trailing\nOpExtension \"a;b\"\n")
	require.NoError(t, err)
	require.Len(t, m.Extensions, 1)
	assert.Equal(t, "a;b", m.Extensions[0].Operands[0].Text())
}

func TestIsEqual(t *testing.T) {
	m := MustAssemble(ir.EnvUniversal1_3, shader)

	assert.True(t, IsEqual(ir.EnvUniversal1_3, shader, m))

	m.Header.Generator = 0x00070000
	assert.True(t, IsEqual(ir.EnvUniversal1_3, shader, m), "generator is ignored")

	assert.False(t, IsEqual(ir.EnvUniversal1_5, shader, m), "version differs")
	assert.False(t, IsEqual(ir.EnvUniversal1_3, strings.Replace(shader, "OpConstant %6 1", "OpConstant %6 2", 1), m))
	assert.False(t, IsEqual(ir.EnvUniversal1_3, "OpBogus", m))

	require.NoError(t, m.AddGlobal(ir.NewInstruction(ir.OpConstant, 6, 100, ir.NumberOperand(1))))
	assert.False(t, IsEqual(ir.EnvUniversal1_3, shader, m))
}
