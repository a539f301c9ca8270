package ir

import "strconv"

// ID names the result of an instruction. The id space is a single flat
// namespace per module.
type ID uint32

// NoID is the zero id. It never names an instruction.
const NoID ID = 0

// MaxID is the largest id a module can hold. The header bound must exceed
// every id and is itself a 32-bit word.
const MaxID ID = 1<<32 - 2

// IsValid reports whether id can name an instruction.
func (id ID) IsValid() bool { return id != NoID }

// String renders the id the way the disassembler does: %<n>.
func (id ID) String() string {
	return "%" + strconv.FormatUint(uint64(id), 10)
}
