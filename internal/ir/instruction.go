package ir

import (
	"bytes"
	"fmt"
	"slices"
)

// Operand is one operand of an instruction, kept as its encoded words.
type Operand struct {
	Kind  OperandKind `json:"kind"`
	Enum  EnumKind    `json:"enum,omitempty"`
	Words []uint32    `json:"words"`
}

// IDOperand references another instruction's result.
func IDOperand(id ID) Operand {
	return Operand{Kind: OperandID, Words: []uint32{uint32(id)}}
}

// LiteralOperand is a single-word literal integer.
func LiteralOperand(v uint32) Operand {
	return Operand{Kind: OperandLiteral, Words: []uint32{v}}
}

// NumberOperand is a typed literal payload, low-order word first.
func NumberOperand(words ...uint32) Operand {
	return Operand{Kind: OperandNumber, Words: slices.Clone(words)}
}

// StringOperand packs s as a nul-terminated, word-padded literal string.
func StringOperand(s string) Operand {
	return Operand{Kind: OperandString, Words: EncodeString(s)}
}

// EnumOperand is a named value of the given set.
func EnumOperand(kind EnumKind, v uint32) Operand {
	return Operand{Kind: OperandEnum, Enum: kind, Words: []uint32{v}}
}

// ID returns the referenced id. Only meaningful for OperandID.
func (o Operand) ID() ID {
	if o.Kind != OperandID || len(o.Words) == 0 {
		return NoID
	}
	return ID(o.Words[0])
}

// Value returns the first word of the operand.
func (o Operand) Value() uint32 {
	if len(o.Words) == 0 {
		return 0
	}
	return o.Words[0]
}

// Text decodes a string operand.
func (o Operand) Text() string {
	s, _, err := DecodeString(o.Words)
	if err != nil {
		return ""
	}
	return s
}

// Instruction is one module entry: opcode, optional result type and result
// id, and the ordered operand list.
type Instruction struct {
	Opcode     Opcode    `json:"opcode"`
	ResultType ID        `json:"result_type,omitempty"`
	Result     ID        `json:"result,omitempty"`
	Operands   []Operand `json:"operands,omitempty"`
}

// NewInstruction builds an instruction.
func NewInstruction(op Opcode, resultType, result ID, operands ...Operand) *Instruction {
	return &Instruction{Opcode: op, ResultType: resultType, Result: result, Operands: operands}
}

// WordCount is the encoded length of the instruction including its first word.
func (inst *Instruction) WordCount() int {
	n := 1
	if inst.ResultType.IsValid() {
		n++
	}
	if inst.Result.IsValid() {
		n++
	}
	for _, op := range inst.Operands {
		n += len(op.Words)
	}
	return n
}

// Words encodes the instruction: (wordCount<<16 | opcode), result type,
// result, operands.
func (inst *Instruction) Words() []uint32 {
	wc := inst.WordCount()
	out := make([]uint32, 0, wc)
	out = append(out, uint32(wc)<<16|uint32(inst.Opcode))
	if inst.ResultType.IsValid() {
		out = append(out, uint32(inst.ResultType))
	}
	if inst.Result.IsValid() {
		out = append(out, uint32(inst.Result))
	}
	for _, op := range inst.Operands {
		out = append(out, op.Words...)
	}
	return out
}

// Clone returns a deep copy.
func (inst *Instruction) Clone() *Instruction {
	c := &Instruction{
		Opcode:     inst.Opcode,
		ResultType: inst.ResultType,
		Result:     inst.Result,
	}
	if inst.Operands != nil {
		c.Operands = make([]Operand, len(inst.Operands))
	}
	for i, op := range inst.Operands {
		c.Operands[i] = Operand{Kind: op.Kind, Enum: op.Enum, Words: slices.Clone(op.Words)}
	}
	return c
}

// Operand returns the i-th operand, or false when out of range.
func (inst *Instruction) Operand(i int) (Operand, bool) {
	if i < 0 || i >= len(inst.Operands) {
		return Operand{}, false
	}
	return inst.Operands[i], true
}

// ReferencedIDs returns every id the instruction uses, result type first,
// in operand order.
func (inst *Instruction) ReferencedIDs() []ID {
	var out []ID
	if inst.ResultType.IsValid() {
		out = append(out, inst.ResultType)
	}
	for _, op := range inst.Operands {
		if op.Kind == OperandID {
			out = append(out, op.ID())
		}
	}
	return out
}

// EncodeString packs s into nul-terminated little-endian words.
func EncodeString(s string) []uint32 {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[4*i]) | uint32(b[4*i+1])<<8 | uint32(b[4*i+2])<<16 | uint32(b[4*i+3])<<24
	}
	return words
}

// DecodeString unpacks a literal string from the front of words and reports
// how many words it occupied.
func DecodeString(words []uint32) (string, int, error) {
	var buf bytes.Buffer
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return buf.String(), i + 1, nil
			}
			buf.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated literal string")
}
