package asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/spvfuzz/internal/ir"
)

// Assemble parses text into a module whose header declares the SPIR-V version
// of env. Bound is one past the largest id used.
func Assemble(env ir.TargetEnv, text string) (*ir.Module, error) {
	if !env.IsValid() {
		return nil, fmt.Errorf("assemble: invalid target environment %s", env)
	}

	lines, err := lex(text)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	ids, err := allocateIDs(lines)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	a := &assembler{ids: ids, types: make(map[ir.ID]*ir.Instruction)}
	insts := make([]*ir.Instruction, 0, len(lines))
	for _, ln := range lines {
		inst, err := a.instruction(ln)
		if err != nil {
			return nil, fmt.Errorf("assemble: %w", err)
		}
		if inst.Opcode.IsType() {
			a.types[inst.Result] = inst
		}
		insts = append(insts, inst)
	}

	h := ir.Header{Version: env.SPIRVVersion(), Generator: ir.GeneratorID}
	m, err := ir.FromInstructions(h, insts)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return m, nil
}

// MustAssemble is like Assemble but panics on error.
// Use only in tests or with known-good text.
func MustAssemble(env ir.TargetEnv, text string) *ir.Module {
	m, err := Assemble(env, text)
	if err != nil {
		panic(err)
	}
	return m
}

type assembler struct {
	ids   map[string]ir.ID
	types map[ir.ID]*ir.Instruction
}

// allocateIDs maps every %token to an id. Numeric ids keep their value;
// symbolic ids follow the largest numeric id in order of first appearance.
func allocateIDs(lines []line) (map[string]ir.ID, error) {
	ids := make(map[string]ir.ID)
	var named []string
	var maxID ir.ID

	for _, ln := range lines {
		for _, tok := range ln.tokens {
			if tok.quoted || !strings.HasPrefix(tok.text, "%") {
				continue
			}
			if _, seen := ids[tok.text]; seen {
				continue
			}
			name := tok.text[1:]
			if name == "" {
				return nil, &SyntaxError{Line: ln.num, Message: "empty id"}
			}
			if n, err := strconv.ParseUint(name, 10, 32); err == nil {
				if n == 0 {
					return nil, &SyntaxError{Line: ln.num, Message: "id %0 is reserved"}
				}
				if ir.ID(n) > ir.MaxID {
					return nil, &SyntaxError{Line: ln.num, Message: fmt.Sprintf("id %s leaves no room for the bound", tok.text)}
				}
				ids[tok.text] = ir.ID(n)
				maxID = max(maxID, ir.ID(n))
				continue
			}
			ids[tok.text] = ir.NoID
			named = append(named, tok.text)
		}
	}

	if uint64(maxID)+uint64(len(named)) > uint64(ir.MaxID) {
		return nil, &SyntaxError{Line: 1, Message: fmt.Sprintf("%d symbolic ids do not fit above %s", len(named), maxID)}
	}
	for i, name := range named {
		ids[name] = maxID + ir.ID(i) + 1
	}
	return ids, nil
}

func (a *assembler) instruction(ln line) (*ir.Instruction, error) {
	toks := ln.tokens
	fail := func(format string, args ...any) error {
		return &SyntaxError{Line: ln.num, Message: fmt.Sprintf(format, args...)}
	}

	var result ir.ID
	if len(toks) >= 2 && !toks[1].quoted && toks[1].text == "=" {
		id, err := a.id(toks[0])
		if err != nil {
			return nil, fail("%v", err)
		}
		result = id
		toks = toks[2:]
	}
	if len(toks) == 0 || toks[0].quoted {
		return nil, fail("missing opcode")
	}

	op, ok := ir.LookupOpcode(toks[0].text)
	if !ok {
		return nil, fail("unknown opcode %q", toks[0].text)
	}
	info, _ := op.Info()
	switch {
	case info.HasResult && !result.IsValid():
		return nil, fail("%s requires a result id", op)
	case !info.HasResult && result.IsValid():
		return nil, fail("%s does not produce a result", op)
	}
	toks = toks[1:]

	inst := &ir.Instruction{Opcode: op, Result: result}
	if info.HasResultType {
		if len(toks) == 0 {
			return nil, fail("%s: missing result type", op)
		}
		id, err := a.id(toks[0])
		if err != nil {
			return nil, fail("%s: result type: %v", op, err)
		}
		inst.ResultType = id
		toks = toks[1:]
	}

	for _, spec := range info.Operands {
		for {
			if len(toks) == 0 {
				if spec.Quantifier == ir.One {
					return nil, fail("%s: missing %s operand", op, spec.Kind)
				}
				break
			}
			operand, err := a.operand(inst, spec, toks[0])
			if err != nil {
				return nil, fail("%s: %v", op, err)
			}
			inst.Operands = append(inst.Operands, operand)
			toks = toks[1:]
			if spec.Quantifier != ir.Variadic {
				break
			}
		}
	}
	if len(toks) > 0 {
		return nil, fail("%s: unexpected operand %q", op, toks[0].text)
	}
	return inst, nil
}

func (a *assembler) id(tok token) (ir.ID, error) {
	if tok.quoted || !strings.HasPrefix(tok.text, "%") {
		return ir.NoID, fmt.Errorf("expected id, got %q", tok.text)
	}
	return a.ids[tok.text], nil
}

func (a *assembler) operand(inst *ir.Instruction, spec ir.OperandSpec, tok token) (ir.Operand, error) {
	switch spec.Kind {
	case ir.OperandID:
		id, err := a.id(tok)
		if err != nil {
			return ir.Operand{}, err
		}
		return ir.IDOperand(id), nil
	case ir.OperandString:
		if !tok.quoted {
			return ir.Operand{}, fmt.Errorf("expected string, got %q", tok.text)
		}
		return ir.StringOperand(tok.text), nil
	case ir.OperandEnum:
		if tok.quoted {
			return ir.Operand{}, fmt.Errorf("expected enum value, got string")
		}
		v, err := ir.ParseEnum(spec.Enum, tok.text)
		if err != nil {
			return ir.Operand{}, err
		}
		return ir.EnumOperand(spec.Enum, v), nil
	case ir.OperandNumber:
		words, err := a.number(inst.ResultType, tok)
		if err != nil {
			return ir.Operand{}, err
		}
		return ir.NumberOperand(words...), nil
	default:
		if tok.quoted {
			return ir.Operand{}, fmt.Errorf("expected literal, got string")
		}
		n, err := strconv.ParseUint(tok.text, 0, 32)
		if err != nil {
			return ir.Operand{}, fmt.Errorf("bad literal %q", tok.text)
		}
		return ir.LiteralOperand(uint32(n)), nil
	}
}

// number encodes a typed literal for the scalar type typeID, low-order word
// first.
func (a *assembler) number(typeID ir.ID, tok token) ([]uint32, error) {
	typ, ok := a.types[typeID]
	if !ok {
		return nil, fmt.Errorf("type %s is not declared before use", typeID)
	}
	width, ok := ir.ScalarWidth(typ)
	if !ok {
		return nil, fmt.Errorf("type %s is not a scalar numeric type", typeID)
	}
	if tok.quoted {
		return nil, fmt.Errorf("expected number, got string")
	}
	if width == 0 || width > 64 {
		return nil, fmt.Errorf("unsupported scalar width %d", width)
	}

	text := tok.text
	if ir.TypeKindOf(typ) == ir.TypeFloat {
		return floatWords(text, width)
	}
	if ir.IsSignedInt(typ) {
		v, err := strconv.ParseInt(text, 0, int(width))
		if err != nil {
			return nil, fmt.Errorf("bad %d-bit signed literal %q", width, text)
		}
		return splitWords(uint64(v), width), nil
	}
	v, err := strconv.ParseUint(text, 0, int(width))
	if err != nil {
		return nil, fmt.Errorf("bad %d-bit unsigned literal %q", width, text)
	}
	return splitWords(v, width), nil
}

// floatWords accepts decimal floats for 32 and 64 bit types and raw bit
// patterns written as 0x... for any width.
func floatWords(text string, width uint32) ([]uint32, error) {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		bits, err := strconv.ParseUint(text[2:], 16, int(width))
		if err != nil {
			return nil, fmt.Errorf("bad %d-bit float bit pattern %q", width, text)
		}
		return splitWords(bits, width), nil
	}
	switch width {
	case 32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, fmt.Errorf("bad 32-bit float literal %q", text)
		}
		return []uint32{math.Float32bits(float32(f))}, nil
	case 64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad 64-bit float literal %q", text)
		}
		return splitWords(math.Float64bits(f), 64), nil
	default:
		return nil, fmt.Errorf("%d-bit float literals must be written as 0x bit patterns", width)
	}
}

// splitWords truncates v to the number of words that hold width bits.
// Narrow signed values keep their sign extension in the single word.
func splitWords(v uint64, width uint32) []uint32 {
	if ir.WordsForWidth(width) == 1 {
		return []uint32{uint32(v)}
	}
	return []uint32{uint32(v), uint32(v >> 32)}
}
