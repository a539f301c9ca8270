// Package validate decides whether a module is well-formed for a target
// environment.
//
// The transformation engine never validates on its own. Harnesses and
// drivers call a Validator before and after applying transformations to
// check the validity contract. Structural is the in-process rule set;
// External delegates to spirv-val.
package validate

import (
	"fmt"
	"strings"

	"github.com/roach88/spvfuzz/internal/ir"
)

// Validator reports whether a module is valid for env. A nil error means
// valid.
type Validator interface {
	Validate(m *ir.Module, env ir.TargetEnv) error
}

// Func adapts a function to the Validator interface.
type Func func(m *ir.Module, env ir.TargetEnv) error

// Validate calls f.
func (f Func) Validate(m *ir.Module, env ir.TargetEnv) error {
	return f(m, env)
}

// IsValid is the boolean form of v.Validate.
func IsValid(v Validator, m *ir.Module, env ir.TargetEnv) bool {
	return v.Validate(m, env) == nil
}

// Options mirrors the spirv-val switches that relax or tighten rules.
type Options struct {
	RelaxLogicalPointer    bool `json:"relax_logical_pointer,omitempty"`
	RelaxBlockLayout       bool `json:"relax_block_layout,omitempty"`
	ScalarBlockLayout      bool `json:"scalar_block_layout,omitempty"`
	SkipBlockLayout        bool `json:"skip_block_layout,omitempty"`
	BeforeHLSLLegalization bool `json:"before_hlsl_legalization,omitempty"`
}

// Flags returns the spirv-val command line switches for o.
func (o Options) Flags() []string {
	var flags []string
	if o.RelaxLogicalPointer {
		flags = append(flags, "--relax-logical-pointer")
	}
	if o.RelaxBlockLayout {
		flags = append(flags, "--relax-block-layout")
	}
	if o.ScalarBlockLayout {
		flags = append(flags, "--scalar-block-layout")
	}
	if o.SkipBlockLayout {
		flags = append(flags, "--skip-block-layout")
	}
	if o.BeforeHLSLLegalization {
		flags = append(flags, "--before-hlsl-legalization")
	}
	return flags
}

// Rule violation codes reported by Structural.
const (
	CodeVersion          = "V101" // header version newer than the environment allows
	CodeDuplicateID      = "V102" // two instructions share a result id
	CodeBound            = "V103" // header bound not above every id
	CodeUndefinedID      = "V104" // operand id names nothing
	CodeResultType       = "V105" // result type is not a type instruction
	CodeForwardReference = "V106" // global uses an id defined later
	CodeConstantType     = "V107" // OpConstant type or literal width mismatch
	CodeMemoryModel      = "V108" // missing OpMemoryModel
	CodeFunctionLayout   = "V109" // block or function structure broken
	CodeEntryPoint       = "V110" // entry point is not a function
	CodeVariableType     = "V111" // OpVariable type is not a matching pointer
	CodeScalarWidth      = "V112" // width illegal or missing capability
	CodeAddressing       = "V113" // addressing model not allowed in environment
)

// ValidationError is one rule violation.
type ValidationError struct {
	Code    string `json:"code"`
	ID      ir.ID  `json:"id,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.ID.IsValid() {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.ID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Report collects every violation found in one pass.
type Report []ValidationError

// Error implements the error interface.
func (r Report) Error() string {
	msgs := make([]string, len(r))
	for i, e := range r {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Codes returns the violation codes in report order.
func (r Report) Codes() []string {
	out := make([]string, len(r))
	for i, e := range r {
		out[i] = e.Code
	}
	return out
}
