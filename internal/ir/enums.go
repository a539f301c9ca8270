package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EnumKind identifies a named operand value set.
type EnumKind uint8

const (
	EnumCapability EnumKind = iota + 1
	EnumAddressingModel
	EnumMemoryModel
	EnumExecutionModel
	EnumExecutionMode
	EnumSourceLanguage
	EnumDecoration
	EnumStorageClass
	EnumFunctionControl
	EnumSelectionControl
	EnumMemoryAccess
)

type enumTable struct {
	mask   bool // bit-mask enums render as A|B and 0 as None
	names  map[uint32]string
	values map[string]uint32
}

func newEnumTable(mask bool, names map[uint32]string) *enumTable {
	t := &enumTable{mask: mask, names: names, values: make(map[string]uint32, len(names))}
	for v, n := range names {
		t.values[n] = v
	}
	return t
}

var enumTables = map[EnumKind]*enumTable{
	EnumCapability: newEnumTable(false, map[uint32]string{
		0: "Matrix", 1: "Shader", 2: "Geometry", 3: "Tessellation", 4: "Addresses",
		5: "Linkage", 6: "Kernel", 7: "Vector16", 8: "Float16Buffer", 9: "Float16",
		10: "Float64", 11: "Int64", 12: "Int64Atomics", 22: "Int16", 39: "Int8",
	}),
	EnumAddressingModel: newEnumTable(false, map[uint32]string{
		0: "Logical", 1: "Physical32", 2: "Physical64", 5348: "PhysicalStorageBuffer64",
	}),
	EnumMemoryModel: newEnumTable(false, map[uint32]string{
		0: "Simple", 1: "GLSL450", 2: "OpenCL", 3: "Vulkan",
	}),
	EnumExecutionModel: newEnumTable(false, map[uint32]string{
		0: "Vertex", 1: "TessellationControl", 2: "TessellationEvaluation",
		3: "Geometry", 4: "Fragment", 5: "GLCompute", 6: "Kernel",
	}),
	EnumExecutionMode: newEnumTable(false, map[uint32]string{
		0: "Invocations", 7: "OriginUpperLeft", 8: "OriginLowerLeft",
		9: "EarlyFragmentTests", 12: "DepthReplacing", 17: "LocalSize",
	}),
	EnumSourceLanguage: newEnumTable(false, map[uint32]string{
		0: "Unknown", 1: "ESSL", 2: "GLSL", 3: "OpenCL_C", 4: "OpenCL_CPP", 5: "HLSL",
	}),
	EnumDecoration: newEnumTable(false, map[uint32]string{
		0: "RelaxedPrecision", 1: "SpecId", 2: "Block", 3: "BufferBlock", 4: "RowMajor",
		5: "ColMajor", 6: "ArrayStride", 7: "MatrixStride", 11: "BuiltIn",
		13: "NoPerspective", 14: "Flat", 18: "Invariant", 19: "Restrict", 20: "Aliased",
		21: "Volatile", 22: "Constant", 23: "Coherent", 24: "NonWritable",
		25: "NonReadable", 30: "Location", 31: "Component", 32: "Index", 33: "Binding",
		34: "DescriptorSet", 35: "Offset", 42: "NoContraction",
	}),
	EnumStorageClass: newEnumTable(false, map[uint32]string{
		0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output", 4: "Workgroup",
		5: "CrossWorkgroup", 6: "Private", 7: "Function", 8: "Generic",
		9: "PushConstant", 10: "AtomicCounter", 11: "Image", 12: "StorageBuffer",
	}),
	EnumFunctionControl: newEnumTable(true, map[uint32]string{
		1: "Inline", 2: "DontInline", 4: "Pure", 8: "Const",
	}),
	EnumSelectionControl: newEnumTable(true, map[uint32]string{
		1: "Flatten", 2: "DontFlatten",
	}),
	EnumMemoryAccess: newEnumTable(true, map[uint32]string{
		1: "Volatile", 2: "Aligned", 4: "Nontemporal",
	}),
}

// EnumName renders value using the names of kind. Unknown values and unknown
// mask bits are rendered as decimal numbers.
func EnumName(kind EnumKind, value uint32) string {
	t, ok := enumTables[kind]
	if !ok {
		return strconv.FormatUint(uint64(value), 10)
	}
	if !t.mask {
		if n, ok := t.names[value]; ok {
			return n
		}
		return strconv.FormatUint(uint64(value), 10)
	}
	if value == 0 {
		return "None"
	}

	bits := make([]uint32, 0, len(t.names))
	for b := range t.names {
		bits = append(bits, b)
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })

	var parts []string
	rest := value
	for _, b := range bits {
		if rest&b != 0 {
			parts = append(parts, t.names[b])
			rest &^= b
		}
	}
	if rest != 0 {
		parts = append(parts, strconv.FormatUint(uint64(rest), 10))
	}
	return strings.Join(parts, "|")
}

// ParseEnum resolves a textual enum operand. Mask enums accept A|B and None;
// any enum accepts a plain decimal value.
func ParseEnum(kind EnumKind, text string) (uint32, error) {
	t, ok := enumTables[kind]
	if !ok {
		return 0, fmt.Errorf("unknown enum kind %d", kind)
	}
	if n, err := strconv.ParseUint(text, 10, 32); err == nil {
		return uint32(n), nil
	}
	if !t.mask {
		v, ok := t.values[text]
		if !ok {
			return 0, fmt.Errorf("unknown enum value %q", text)
		}
		return v, nil
	}
	if text == "None" {
		return 0, nil
	}
	var value uint32
	for _, part := range strings.Split(text, "|") {
		if n, err := strconv.ParseUint(part, 10, 32); err == nil {
			value |= uint32(n)
			continue
		}
		v, ok := t.values[part]
		if !ok {
			return 0, fmt.Errorf("unknown mask bit %q", part)
		}
		value |= v
	}
	return value, nil
}
