package validate

import (
	"fmt"

	"github.com/roach88/spvfuzz/internal/record"
)

var optionKeys = []string{
	"relax_logical_pointer",
	"relax_block_layout",
	"scalar_block_layout",
	"skip_block_layout",
	"before_hlsl_legalization",
}

func (o *Options) fields() []*bool {
	return []*bool{
		&o.RelaxLogicalPointer,
		&o.RelaxBlockLayout,
		&o.ScalarBlockLayout,
		&o.SkipBlockLayout,
		&o.BeforeHLSLLegalization,
	}
}

// Record returns o as a record object with every switch present.
func (o Options) Record() record.Object {
	obj := make(record.Object, len(optionKeys))
	for i, f := range o.fields() {
		obj[optionKeys[i]] = record.Bool(*f)
	}
	return obj
}

// OptionsFromRecord reads options written by Record. Missing keys are false;
// unknown keys are an error.
func OptionsFromRecord(obj record.Object) (Options, error) {
	var o Options
	known := make(map[string]bool, len(optionKeys))
	for i, f := range o.fields() {
		key := optionKeys[i]
		known[key] = true
		v, err := obj.GetBool(key)
		if err != nil {
			return Options{}, fmt.Errorf("validator options: %w", err)
		}
		*f = v
	}
	for _, key := range obj.SortedKeys() {
		if !known[key] {
			return Options{}, fmt.Errorf("validator options: unknown option %q", key)
		}
	}
	return o, nil
}
