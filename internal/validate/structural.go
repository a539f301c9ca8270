package validate

import (
	"fmt"

	"github.com/roach88/spvfuzz/internal/ir"
)

// Capability values referenced by the width rules.
const (
	capLinkage = 5
	capFloat16 = 9
	capFloat64 = 10
	capInt64   = 11
	capInt16   = 22
	capInt8    = 39
)

// Structural checks the layout, id and type rules that transformations can
// break. It is not a complete SPIR-V validator; use External for that.
type Structural struct{}

// Validate returns a Report when any rule is violated.
func (Structural) Validate(m *ir.Module, env ir.TargetEnv) error {
	if r := Check(m, env); len(r) > 0 {
		return r
	}
	return nil
}

// Check runs every structural rule and returns all violations found.
// It does not stop at the first failure.
func Check(m *ir.Module, env ir.TargetEnv) Report {
	c := &checker{
		m:    m,
		env:  env,
		defs: make(map[ir.ID]*ir.Instruction),
		caps: make(map[uint32]bool),
	}
	c.checkHeader()
	c.checkIDs()
	c.checkMemoryModel()
	c.checkReferences()
	c.checkGlobals()
	c.checkFunctions()
	c.checkEntryPoints()
	return c.report
}

type checker struct {
	m      *ir.Module
	env    ir.TargetEnv
	defs   map[ir.ID]*ir.Instruction
	caps   map[uint32]bool
	report Report
}

func (c *checker) fail(code string, id ir.ID, format string, args ...any) {
	c.report = append(c.report, ValidationError{Code: code, ID: id, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) checkHeader() {
	if !c.env.IsValid() {
		c.fail(CodeVersion, ir.NoID, "unknown target environment %s", c.env)
		return
	}
	if c.m.Header.Version > c.env.SPIRVVersion() {
		c.fail(CodeVersion, ir.NoID, "SPIR-V %s is not supported by %s (max %s)",
			ir.VersionString(c.m.Header.Version), c.env, ir.VersionString(c.env.SPIRVVersion()))
	}
}

func (c *checker) checkIDs() {
	for _, inst := range c.m.Instructions() {
		if !inst.Result.IsValid() {
			continue
		}
		if prev, dup := c.defs[inst.Result]; dup {
			c.fail(CodeDuplicateID, inst.Result, "defined by both %s and %s", prev.Opcode, inst.Opcode)
			continue
		}
		c.defs[inst.Result] = inst
		if uint32(inst.Result) >= c.m.Header.Bound {
			c.fail(CodeBound, inst.Result, "id is not below bound %d", c.m.Header.Bound)
		}
	}
	for _, inst := range c.m.Capabilities {
		c.caps[inst.Operands[0].Value()] = true
	}
}

func (c *checker) checkMemoryModel() {
	mm := c.m.MemoryModel
	if mm == nil {
		c.fail(CodeMemoryModel, ir.NoID, "module has no OpMemoryModel")
		return
	}
	if c.env >= ir.EnvVulkan1_0 && mm.Operands[0].Value() != 0 {
		c.fail(CodeAddressing, ir.NoID, "%s requires the Logical addressing model, got %s",
			c.env, ir.EnumName(ir.EnumAddressingModel, mm.Operands[0].Value()))
	}
}

func (c *checker) checkReferences() {
	for _, inst := range c.m.Instructions() {
		for _, id := range inst.ReferencedIDs() {
			if _, ok := c.defs[id]; !ok {
				c.fail(CodeUndefinedID, id, "used by %s but never defined", inst.Opcode)
			}
		}
		if inst.ResultType.IsValid() {
			if def, ok := c.defs[inst.ResultType]; ok && !def.Opcode.IsType() {
				c.fail(CodeResultType, inst.Result, "result type %s is %s, not a type", inst.ResultType, def.Opcode)
			}
		}
	}
}

// checkGlobals enforces definition before use within the global section and
// the per-instruction type rules of types, constants and variables.
func (c *checker) checkGlobals() {
	seen := make(map[ir.ID]bool)
	for _, inst := range c.m.ExtInstImports {
		seen[inst.Result] = true
	}

	for _, inst := range c.m.Globals {
		for _, id := range inst.ReferencedIDs() {
			if _, defined := c.defs[id]; defined && !seen[id] {
				c.fail(CodeForwardReference, inst.Result, "%s uses %s before its definition", inst.Opcode, id)
			}
		}
		seen[inst.Result] = true

		switch inst.Opcode {
		case ir.OpTypeInt, ir.OpTypeFloat:
			c.checkScalarType(inst)
		case ir.OpConstant:
			c.checkConstant(inst)
		case ir.OpConstantTrue, ir.OpConstantFalse:
			if def := c.defs[inst.ResultType]; def != nil && def.Opcode != ir.OpTypeBool {
				c.fail(CodeConstantType, inst.Result, "%s requires a bool type, got %s", inst.Opcode, def.Opcode)
			}
		case ir.OpVariable:
			c.checkVariable(inst, false)
		}
	}
}

func (c *checker) checkScalarType(inst *ir.Instruction) {
	width, _ := ir.ScalarWidth(inst)
	var need uint32
	legal := true

	if inst.Opcode == ir.OpTypeInt {
		switch width {
		case 8:
			need = capInt8
		case 16:
			need = capInt16
		case 32:
		case 64:
			need = capInt64
		default:
			legal = false
		}
		if sign, ok := inst.Operand(1); ok && sign.Value() > 1 {
			c.fail(CodeScalarWidth, inst.Result, "signedness must be 0 or 1, got %d", sign.Value())
		}
	} else {
		switch width {
		case 16:
			need = capFloat16
		case 32:
		case 64:
			need = capFloat64
		default:
			legal = false
		}
	}

	if !legal {
		c.fail(CodeScalarWidth, inst.Result, "%s width %d is not supported", inst.Opcode, width)
		return
	}
	if need != 0 && !c.caps[need] {
		c.fail(CodeScalarWidth, inst.Result, "%s width %d requires capability %s",
			inst.Opcode, width, ir.EnumName(ir.EnumCapability, need))
	}
}

func (c *checker) checkConstant(inst *ir.Instruction) {
	typ := c.defs[inst.ResultType]
	if typ == nil {
		return
	}
	width, ok := ir.ScalarWidth(typ)
	if !ok {
		c.fail(CodeConstantType, inst.Result, "OpConstant type %s is %s, not a scalar numeric type", inst.ResultType, typ.Opcode)
		return
	}
	var words int
	if op, ok := inst.Operand(0); ok {
		words = len(op.Words)
	}
	if want := ir.WordsForWidth(width); words != want {
		c.fail(CodeConstantType, inst.Result, "%d-bit constant needs %d literal words, has %d", width, want, words)
	}
}

func (c *checker) checkVariable(inst *ir.Instruction, local bool) {
	storage := inst.Operands[0].Value()
	const function = 7

	ptr := c.defs[inst.ResultType]
	if ptr != nil {
		if ptr.Opcode != ir.OpTypePointer {
			c.fail(CodeVariableType, inst.Result, "OpVariable type %s is %s, not a pointer", inst.ResultType, ptr.Opcode)
		} else if ptr.Operands[0].Value() != storage {
			c.fail(CodeVariableType, inst.Result, "storage class %s does not match pointer storage class %s",
				ir.EnumName(ir.EnumStorageClass, storage), ir.EnumName(ir.EnumStorageClass, ptr.Operands[0].Value()))
		}
	}
	switch {
	case local && storage != function:
		c.fail(CodeVariableType, inst.Result, "function variable must use the Function storage class")
	case !local && storage == function:
		c.fail(CodeVariableType, inst.Result, "global variable cannot use the Function storage class")
	}
}

func (c *checker) checkFunctions() {
	for _, fn := range c.m.Functions {
		id := fn.Def.Result
		if op, ok := fn.Def.Operand(1); ok {
			if ft := c.defs[op.ID()]; ft != nil && ft.Opcode != ir.OpTypeFunction {
				c.fail(CodeFunctionLayout, id, "function type %s is %s", op.ID(), ft.Opcode)
			}
		}
		if fn.End == nil {
			c.fail(CodeFunctionLayout, id, "function has no OpFunctionEnd")
		}
		if len(fn.Blocks) == 0 && !c.caps[capLinkage] {
			c.fail(CodeFunctionLayout, id, "function has no body")
		}

		for bi, b := range fn.Blocks {
			if len(b.Body) == 0 || !b.Body[len(b.Body)-1].Opcode.IsTerminator() {
				c.fail(CodeFunctionLayout, b.Label.Result, "block does not end in a terminator")
			}
			for i, inst := range b.Body {
				if i < len(b.Body)-1 && inst.Opcode.IsTerminator() {
					c.fail(CodeFunctionLayout, b.Label.Result, "%s in the middle of a block", inst.Opcode)
				}
				if inst.Opcode == ir.OpVariable {
					if bi != 0 {
						c.fail(CodeVariableType, inst.Result, "function variable outside the entry block")
					}
					c.checkVariable(inst, true)
				}
			}
		}
	}
}

func (c *checker) checkEntryPoints() {
	for _, ep := range c.m.EntryPoints {
		op, ok := ep.Operand(1)
		if !ok {
			continue
		}
		if def := c.defs[op.ID()]; def != nil && def.Opcode != ir.OpFunction {
			c.fail(CodeEntryPoint, op.ID(), "entry point names %s, not a function", def.Opcode)
		}
	}
}
