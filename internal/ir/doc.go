// Package ir provides the in-memory module representation mutated by spvfuzz.
//
// This package contains the module model only. All other internal packages
// import ir; ir imports nothing internal. This keeps the module model the
// foundational layer with no circular dependencies.
//
// A Module is an ordered collection of instructions split into the logical
// sections of a SPIR-V binary: capabilities, extensions, imports, the memory
// model, entry points, execution modes, debug info, annotations, the global
// section (types, constants, global variables) and functions made of blocks.
//
// Key design constraints:
//   - Every result id is unique across the module (see Module.Lookup)
//   - Result ids are indexed on insertion, never recomputed by scanning
//   - Instructions are encoded exactly as SPIR-V words (see binary.go)
//   - The grammar table (grammar.go) is shared by the binary and text codecs
package ir
