package ir

import (
	"fmt"
)

// MagicNumber opens every SPIR-V binary.
const MagicNumber uint32 = 0x07230203

// GeneratorID is written into the header of modules produced by spvfuzz.
// The upper 16 bits are the tool id, the lower 16 bits the tool version.
const GeneratorID uint32 = 0x0000_0001

// Header is the five-word module header minus the magic number.
type Header struct {
	Version   uint32 `json:"version"`
	Generator uint32 `json:"generator"`
	Bound     uint32 `json:"bound"`
	Schema    uint32 `json:"schema"`
}

// Block is a labelled sequence of instructions ending in a terminator.
type Block struct {
	Label *Instruction
	Body  []*Instruction
}

// Function is an OpFunction ... OpFunctionEnd range.
type Function struct {
	Def    *Instruction
	Params []*Instruction
	Blocks []*Block
	End    *Instruction
}

// Module is the in-memory module.
//
// INVARIANTS:
//   - every result id appears at most once (enforced by AddGlobal and Reindex)
//   - defs indexes every result id in the module
//   - Header.Bound is strictly greater than every result id
//
// A Module is not safe for concurrent use. Parallel callers Clone first.
type Module struct {
	Header         Header
	Capabilities   []*Instruction
	Extensions     []*Instruction
	ExtInstImports []*Instruction
	MemoryModel    *Instruction
	EntryPoints    []*Instruction
	ExecutionModes []*Instruction
	Debug          []*Instruction // OpString, OpSource*, OpName, OpMemberName
	Annotations    []*Instruction // OpDecorate, OpMemberDecorate
	Globals        []*Instruction // types, constants, global variables, OpUndef
	Functions      []*Function

	defs map[ID]*Instruction
}

// NewModule returns an empty module for the given header.
func NewModule(h Header) *Module {
	return &Module{Header: h, defs: make(map[ID]*Instruction)}
}

// FromInstructions lays out a flat instruction stream into module sections
// and indexes its result ids. The stream must follow the SPIR-V logical
// layout: everything before the first OpFunction is module-level.
func FromInstructions(h Header, insts []*Instruction) (*Module, error) {
	m := NewModule(h)

	var fn *Function
	var block *Block
	for i, inst := range insts {
		if fn != nil {
			switch inst.Opcode {
			case OpFunction:
				return nil, fmt.Errorf("instruction %d: OpFunction inside function %s", i, fn.Def.Result)
			case OpFunctionParameter:
				if len(fn.Blocks) > 0 {
					return nil, fmt.Errorf("instruction %d: OpFunctionParameter after first block", i)
				}
				fn.Params = append(fn.Params, inst)
			case OpLabel:
				block = &Block{Label: inst}
				fn.Blocks = append(fn.Blocks, block)
			case OpFunctionEnd:
				fn.End = inst
				m.Functions = append(m.Functions, fn)
				fn, block = nil, nil
			default:
				if block == nil {
					return nil, fmt.Errorf("instruction %d: %s outside a block", i, inst.Opcode)
				}
				block.Body = append(block.Body, inst)
			}
			continue
		}

		switch {
		case inst.Opcode == OpCapability:
			m.Capabilities = append(m.Capabilities, inst)
		case inst.Opcode == OpExtension:
			m.Extensions = append(m.Extensions, inst)
		case inst.Opcode == OpExtInstImport:
			m.ExtInstImports = append(m.ExtInstImports, inst)
		case inst.Opcode == OpMemoryModel:
			if m.MemoryModel != nil {
				return nil, fmt.Errorf("instruction %d: duplicate OpMemoryModel", i)
			}
			m.MemoryModel = inst
		case inst.Opcode == OpEntryPoint:
			m.EntryPoints = append(m.EntryPoints, inst)
		case inst.Opcode == OpExecutionMode:
			m.ExecutionModes = append(m.ExecutionModes, inst)
		case inst.Opcode.IsDebug():
			m.Debug = append(m.Debug, inst)
		case inst.Opcode.IsAnnotation():
			m.Annotations = append(m.Annotations, inst)
		case inst.Opcode.IsType(), inst.Opcode.IsConstant(),
			inst.Opcode == OpVariable, inst.Opcode == OpUndef:
			m.Globals = append(m.Globals, inst)
		case inst.Opcode == OpFunction:
			fn = &Function{Def: inst}
		default:
			return nil, fmt.Errorf("instruction %d: %s is not valid at module scope", i, inst.Opcode)
		}
	}
	if fn != nil {
		return nil, fmt.Errorf("function %s is missing OpFunctionEnd", fn.Def.Result)
	}

	if err := m.Reindex(); err != nil {
		return nil, err
	}
	return m, nil
}

// Instructions returns every instruction in module order.
func (m *Module) Instructions() []*Instruction {
	out := make([]*Instruction, 0, m.InstructionCount())
	out = append(out, m.Capabilities...)
	out = append(out, m.Extensions...)
	out = append(out, m.ExtInstImports...)
	if m.MemoryModel != nil {
		out = append(out, m.MemoryModel)
	}
	out = append(out, m.EntryPoints...)
	out = append(out, m.ExecutionModes...)
	out = append(out, m.Debug...)
	out = append(out, m.Annotations...)
	out = append(out, m.Globals...)
	for _, fn := range m.Functions {
		out = append(out, fn.Def)
		out = append(out, fn.Params...)
		for _, b := range fn.Blocks {
			out = append(out, b.Label)
			out = append(out, b.Body...)
		}
		if fn.End != nil {
			out = append(out, fn.End)
		}
	}
	return out
}

// InstructionCount returns the number of instructions in the module.
func (m *Module) InstructionCount() int {
	n := len(m.Capabilities) + len(m.Extensions) + len(m.ExtInstImports) +
		len(m.EntryPoints) + len(m.ExecutionModes) + len(m.Debug) +
		len(m.Annotations) + len(m.Globals)
	if m.MemoryModel != nil {
		n++
	}
	for _, fn := range m.Functions {
		n += 1 + len(fn.Params)
		for _, b := range fn.Blocks {
			n += 1 + len(b.Body)
		}
		if fn.End != nil {
			n++
		}
	}
	return n
}

// Reindex rebuilds the result-id index and raises Header.Bound if needed.
// Returns an error if two instructions share a result id.
func (m *Module) Reindex() error {
	defs := make(map[ID]*Instruction)
	for _, inst := range m.Instructions() {
		if !inst.Result.IsValid() {
			continue
		}
		if prev, dup := defs[inst.Result]; dup {
			return fmt.Errorf("result id %s defined by both %s and %s", inst.Result, prev.Opcode, inst.Opcode)
		}
		if inst.Result > MaxID {
			return fmt.Errorf("result id %s leaves no room for the bound", inst.Result)
		}
		defs[inst.Result] = inst
		m.raiseBound(inst.Result)
	}
	m.defs = defs
	return nil
}

// Lookup returns the instruction defining id.
func (m *Module) Lookup(id ID) (*Instruction, bool) {
	inst, ok := m.defs[id]
	return inst, ok
}

// IsIDInUse reports whether any instruction defines id.
func (m *Module) IsIDInUse(id ID) bool {
	_, ok := m.defs[id]
	return ok
}

// IsFreshID reports whether id is valid and unused.
func (m *Module) IsFreshID(id ID) bool {
	return id.IsValid() && !m.IsIDInUse(id)
}

// Bound returns the header id bound: one more than the largest id in use.
func (m *Module) Bound() uint32 {
	return m.Header.Bound
}

// AddGlobal appends inst to the end of the global section, after every
// existing type, constant and global variable and before the first function.
// The result id (if any) must be fresh.
func (m *Module) AddGlobal(inst *Instruction) error {
	if inst.Result.IsValid() {
		if m.IsIDInUse(inst.Result) {
			return fmt.Errorf("add global: id %s already in use", inst.Result)
		}
		if inst.Result > MaxID {
			return fmt.Errorf("add global: id %s leaves no room for the bound", inst.Result)
		}
		if m.defs == nil {
			m.defs = make(map[ID]*Instruction)
		}
		m.defs[inst.Result] = inst
		m.raiseBound(inst.Result)
	}
	m.Globals = append(m.Globals, inst)
	return nil
}

// raiseBound keeps Bound above id. Callers reject ids above MaxID first.
func (m *Module) raiseBound(id ID) {
	if id <= MaxID && uint32(id) >= m.Header.Bound {
		m.Header.Bound = uint32(id) + 1
	}
}

// Clone returns a deep copy with its own index.
func (m *Module) Clone() *Module {
	c := NewModule(m.Header)
	c.Capabilities = cloneAll(m.Capabilities)
	c.Extensions = cloneAll(m.Extensions)
	c.ExtInstImports = cloneAll(m.ExtInstImports)
	if m.MemoryModel != nil {
		c.MemoryModel = m.MemoryModel.Clone()
	}
	c.EntryPoints = cloneAll(m.EntryPoints)
	c.ExecutionModes = cloneAll(m.ExecutionModes)
	c.Debug = cloneAll(m.Debug)
	c.Annotations = cloneAll(m.Annotations)
	c.Globals = cloneAll(m.Globals)
	for _, fn := range m.Functions {
		cf := &Function{Def: fn.Def.Clone(), Params: cloneAll(fn.Params)}
		for _, b := range fn.Blocks {
			cf.Blocks = append(cf.Blocks, &Block{Label: b.Label.Clone(), Body: cloneAll(b.Body)})
		}
		if fn.End != nil {
			cf.End = fn.End.Clone()
		}
		c.Functions = append(c.Functions, cf)
	}
	// The source module is already indexed; duplicates cannot appear.
	_ = c.Reindex()
	return c
}

func cloneAll(insts []*Instruction) []*Instruction {
	if insts == nil {
		return nil
	}
	out := make([]*Instruction, len(insts))
	for i, inst := range insts {
		out[i] = inst.Clone()
	}
	return out
}
