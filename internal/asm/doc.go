// Package asm converts between modules and their textual form.
//
// The text form is the one used by SPIR-V tooling: one instruction per
// line, "%<id> = " before instructions with a result, the result type as the
// first operand, enum operands by name and string literals in double quotes.
// Lines starting with ';' are comments.
//
// Ids are either numeric (%42) or symbolic (%main). Numeric ids are kept as
// written; symbolic ids are numbered after the largest numeric id, in order of
// first appearance.
package asm
