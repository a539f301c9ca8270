package ir

import (
	"encoding/binary"
	"fmt"
)

const headerWords = 5

// Encode serializes m as a little-endian SPIR-V binary.
func Encode(m *Module) []byte {
	words := EncodeWords(m)
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// EncodeWords serializes m as a word stream including the header.
func EncodeWords(m *Module) []uint32 {
	insts := m.Instructions()
	total := headerWords
	for _, inst := range insts {
		total += inst.WordCount()
	}

	words := make([]uint32, 0, total)
	words = append(words, MagicNumber, m.Header.Version, m.Header.Generator, m.Header.Bound, m.Header.Schema)
	for _, inst := range insts {
		words = append(words, inst.Words()...)
	}
	return words
}

// Decode parses a SPIR-V binary. Both byte orders are accepted; the magic
// number decides.
func Decode(data []byte) (*Module, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("decode: length %d is not a multiple of 4", len(data))
	}
	if len(data) < headerWords*4 {
		return nil, fmt.Errorf("decode: binary too short for header")
	}

	var order binary.ByteOrder = binary.LittleEndian
	if binary.LittleEndian.Uint32(data) != MagicNumber {
		if binary.BigEndian.Uint32(data) != MagicNumber {
			return nil, fmt.Errorf("decode: bad magic number 0x%08x", binary.LittleEndian.Uint32(data))
		}
		order = binary.BigEndian
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}
	return DecodeWords(words)
}

// DecodeWords parses a word stream that starts with the header.
func DecodeWords(words []uint32) (*Module, error) {
	if len(words) < headerWords || words[0] != MagicNumber {
		return nil, fmt.Errorf("decode: missing header")
	}
	h := Header{Version: words[1], Generator: words[2], Bound: words[3], Schema: words[4]}

	var insts []*Instruction
	for pos := headerWords; pos < len(words); {
		first := words[pos]
		wc := int(first >> 16)
		op := Opcode(first & 0xffff)
		if wc == 0 || pos+wc > len(words) {
			return nil, fmt.Errorf("decode: word %d: bad word count %d for %s", pos, wc, op)
		}
		inst, err := decodeInstruction(op, words[pos+1:pos+wc])
		if err != nil {
			return nil, fmt.Errorf("decode: word %d: %w", pos, err)
		}
		insts = append(insts, inst)
		pos += wc
	}

	return FromInstructions(h, insts)
}

func decodeInstruction(op Opcode, words []uint32) (*Instruction, error) {
	info, ok := op.Info()
	if !ok {
		return nil, fmt.Errorf("unsupported opcode %d", uint16(op))
	}
	inst := &Instruction{Opcode: op}
	if info.HasResultType {
		if len(words) == 0 {
			return nil, fmt.Errorf("%s: missing result type", info.Name)
		}
		inst.ResultType = ID(words[0])
		words = words[1:]
	}
	if info.HasResult {
		if len(words) == 0 {
			return nil, fmt.Errorf("%s: missing result id", info.Name)
		}
		inst.Result = ID(words[0])
		words = words[1:]
	}

	for _, spec := range info.Operands {
		for {
			if len(words) == 0 {
				if spec.Quantifier == One {
					return nil, fmt.Errorf("%s: missing %s operand", info.Name, spec.Kind)
				}
				break
			}
			operand, n, err := decodeOperand(spec, words)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", info.Name, err)
			}
			inst.Operands = append(inst.Operands, operand)
			words = words[n:]
			if spec.Quantifier != Variadic {
				break
			}
		}
	}
	if len(words) != 0 {
		return nil, fmt.Errorf("%s: %d trailing words", info.Name, len(words))
	}
	return inst, nil
}

func decodeOperand(spec OperandSpec, words []uint32) (Operand, int, error) {
	switch spec.Kind {
	case OperandString:
		_, n, err := DecodeString(words)
		if err != nil {
			return Operand{}, 0, err
		}
		return Operand{Kind: OperandString, Words: append([]uint32(nil), words[:n]...)}, n, nil
	case OperandNumber:
		return NumberOperand(words...), len(words), nil
	case OperandEnum:
		return EnumOperand(spec.Enum, words[0]), 1, nil
	default:
		return Operand{Kind: spec.Kind, Words: []uint32{words[0]}}, 1, nil
	}
}
