package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/spvfuzz/internal/asm"
	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/transform"
	"github.com/roach88/spvfuzz/internal/validate"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []StepTrace // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, st := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", st.Index, st.Outcome, st.Transformation)
		if st.Code != "" {
			fmt.Fprintf(&buf, " (%s)", st.Code)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// AssertionContext provides the final module and context to assertions.
type AssertionContext struct {
	Module  *ir.Module
	Context *transform.Context
}

// assertIrrelevant checks that every listed id is recorded irrelevant.
func assertIrrelevant(trace []StepTrace, actx *AssertionContext, assertion Assertion) error {
	var missing []string
	for _, id := range assertion.IDs {
		if !actx.Context.Facts().IsIrrelevant(ir.ID(id)) {
			missing = append(missing, ir.ID(id).String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertIrrelevant,
		Expected: fmt.Sprintf("ids %v recorded irrelevant", assertion.IDs),
		Actual:   fmt.Sprintf("not irrelevant: %s", strings.Join(missing, " ")),
		Trace:    trace,
	}
}

// assertRelevant checks that no listed id is recorded irrelevant.
func assertRelevant(trace []StepTrace, actx *AssertionContext, assertion Assertion) error {
	var marked []string
	for _, id := range assertion.IDs {
		if actx.Context.Facts().IsIrrelevant(ir.ID(id)) {
			marked = append(marked, ir.ID(id).String())
		}
	}
	if len(marked) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertRelevant,
		Expected: fmt.Sprintf("ids %v not recorded irrelevant", assertion.IDs),
		Actual:   fmt.Sprintf("irrelevant: %s", strings.Join(marked, " ")),
		Trace:    trace,
	}
}

// assertDefined checks that every listed id names an instruction.
func assertDefined(trace []StepTrace, actx *AssertionContext, assertion Assertion) error {
	var missing []string
	for _, id := range assertion.IDs {
		if !actx.Module.IsIDInUse(ir.ID(id)) {
			missing = append(missing, ir.ID(id).String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertDefined,
		Expected: fmt.Sprintf("ids %v defined", assertion.IDs),
		Actual:   fmt.Sprintf("undefined: %s", strings.Join(missing, " ")),
		Trace:    trace,
	}
}

// assertAppliedCount checks the number of applied steps.
func assertAppliedCount(result *Result, assertion Assertion) error {
	if got := result.Applied(); got != assertion.Count {
		return &AssertionError{
			Type:     AssertAppliedCount,
			Expected: fmt.Sprintf("%d applied steps", assertion.Count),
			Actual:   fmt.Sprintf("%d applied steps", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFinalModule compares the module against the expected text.
// The expected text is assembled and compared word for word, so spacing
// and symbolic names do not matter.
func assertFinalModule(trace []StepTrace, actx *AssertionContext, assertion Assertion) error {
	if asm.IsEqual(actx.Context.Env(), assertion.Module, actx.Module) {
		return nil
	}
	expected := strings.TrimSpace(assertion.Module)
	if m, err := asm.Assemble(actx.Context.Env(), assertion.Module); err == nil {
		expected = asm.DisassembleWith(m, asm.Options{NoHeader: true, Indent: true})
	}
	return &AssertionError{
		Type:     AssertFinalModule,
		Expected: "\n" + expected,
		Actual:   "\n" + asm.DisassembleWith(actx.Module, asm.Options{NoHeader: true, Indent: true}),
		Trace:    trace,
	}
}

// assertValid runs the structural validator on the module.
func assertValid(trace []StepTrace, actx *AssertionContext) error {
	if err := (validate.Structural{}).Validate(actx.Module, actx.Context.Env()); err != nil {
		return &AssertionError{
			Type:     AssertValid,
			Expected: "module passes validation",
			Actual:   err.Error(),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if actx == nil || actx.Module == nil || actx.Context == nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %s requires a module and context", i, assertion.Type))
			continue
		}

		switch assertion.Type {
		case AssertIrrelevant:
			err = assertIrrelevant(result.Trace, actx, assertion)
		case AssertRelevant:
			err = assertRelevant(result.Trace, actx, assertion)
		case AssertDefined:
			err = assertDefined(result.Trace, actx, assertion)
		case AssertAppliedCount:
			err = assertAppliedCount(result, assertion)
		case AssertFinalModule:
			err = assertFinalModule(result.Trace, actx, assertion)
		case AssertValid:
			err = assertValid(result.Trace, actx)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
