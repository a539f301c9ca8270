package asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/spvfuzz/internal/ir"
)

// Options controls Disassemble output.
type Options struct {
	// NoHeader omits the "; SPIR-V" comment block.
	NoHeader bool
	// Indent right-aligns result ids so opcodes line up in one column.
	Indent bool
}

const indentColumn = 15

// Disassemble renders m with the header comment block and no alignment.
func Disassemble(m *ir.Module) string {
	return DisassembleWith(m, Options{})
}

// DisassembleWith renders m according to opts.
func DisassembleWith(m *ir.Module, opts Options) string {
	var sb strings.Builder
	if !opts.NoHeader {
		fmt.Fprintf(&sb, "; SPIR-V\n")
		fmt.Fprintf(&sb, "; Version: %s\n", ir.VersionString(m.Header.Version))
		fmt.Fprintf(&sb, "; Generator: 0x%08x\n", m.Header.Generator)
		fmt.Fprintf(&sb, "; Bound: %d\n", m.Header.Bound)
		fmt.Fprintf(&sb, "; Schema: %d\n", m.Header.Schema)
	}
	for _, inst := range m.Instructions() {
		if opts.Indent {
			prefix := ""
			if inst.Result.IsValid() {
				prefix = inst.Result.String() + " = "
			}
			sb.WriteString(strings.Repeat(" ", max(0, indentColumn-len(prefix))))
			sb.WriteString(prefix)
			sb.WriteString(formatBody(m, inst))
		} else {
			sb.WriteString(FormatInstruction(m, inst))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatInstruction renders one instruction on a single line. m resolves
// the result types of OpConstant so literals print in their typed form.
func FormatInstruction(m *ir.Module, inst *ir.Instruction) string {
	if inst.Result.IsValid() {
		return inst.Result.String() + " = " + formatBody(m, inst)
	}
	return formatBody(m, inst)
}

func formatBody(m *ir.Module, inst *ir.Instruction) string {
	parts := make([]string, 0, 2+len(inst.Operands))
	parts = append(parts, inst.Opcode.String())
	if inst.ResultType.IsValid() {
		parts = append(parts, inst.ResultType.String())
	}
	for _, op := range inst.Operands {
		parts = append(parts, formatOperand(m, inst, op))
	}
	return strings.Join(parts, " ")
}

func formatOperand(m *ir.Module, inst *ir.Instruction, op ir.Operand) string {
	switch op.Kind {
	case ir.OperandID:
		return op.ID().String()
	case ir.OperandString:
		return quote(op.Text())
	case ir.OperandEnum:
		return ir.EnumName(op.Enum, op.Value())
	case ir.OperandNumber:
		return formatNumber(m, inst.ResultType, op.Words)
	default:
		return strconv.FormatUint(uint64(op.Value()), 10)
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// formatNumber prints an OpConstant payload according to its type. Payloads
// whose type cannot be resolved, or whose length does not match the width,
// print as raw words.
func formatNumber(m *ir.Module, typeID ir.ID, words []uint32) string {
	typ, ok := m.Lookup(typeID)
	width, scalar := ir.ScalarWidth(typ)
	if !ok || !scalar || width == 0 || width > 64 || len(words) != ir.WordsForWidth(width) {
		return rawWords(words)
	}

	var bits uint64
	for i, w := range words {
		bits |= uint64(w) << (32 * i)
	}

	if ir.TypeKindOf(typ) == ir.TypeFloat {
		switch width {
		case 32:
			f := math.Float32frombits(uint32(bits))
			if !math.IsInf(float64(f), 0) && !math.IsNaN(float64(f)) {
				return strconv.FormatFloat(float64(f), 'g', -1, 32)
			}
		case 64:
			f := math.Float64frombits(bits)
			if !math.IsInf(f, 0) && !math.IsNaN(f) {
				return strconv.FormatFloat(f, 'g', -1, 64)
			}
		}
		return fmt.Sprintf("0x%0*x", int(width/4), bits)
	}

	if ir.IsSignedInt(typ) {
		shift := 64 - width
		return strconv.FormatInt(int64(bits<<shift)>>shift, 10)
	}
	if width < 64 {
		bits &= 1<<width - 1
	}
	return strconv.FormatUint(bits, 10)
}

func rawWords(words []uint32) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strconv.FormatUint(uint64(w), 10)
	}
	return strings.Join(parts, " ")
}
