// Package config loads spvfuzz configuration from CUE files.
//
// A configuration file declares a spvfuzz block that is unified with the
// embedded #Config schema, so defaults, enumerations and ranges are
// enforced by CUE itself:
//
//	spvfuzz: {
//		target_env: "vulkan1.1"
//		validator: kind: "external"
//		mode:      "lenient"
//		max_steps: 500
//	}
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/spvfuzz/internal/ir"
	"github.com/roach88/spvfuzz/internal/validate"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the configuration file name looked for in a directory.
const DefaultFile = "spvfuzz.cue"

// Validator kinds.
const (
	ValidatorStructural = "structural"
	ValidatorExternal   = "external"
	ValidatorNone       = "none"
)

// Config is the resolved configuration.
type Config struct {
	TargetEnv ir.TargetEnv
	// ValidatorKind is one of ValidatorStructural, ValidatorExternal or
	// ValidatorNone.
	ValidatorKind    string
	ValidatorPath    string
	ValidatorTimeout time.Duration
	Validator        validate.Options
	// Lenient is true for mode "lenient".
	Lenient  bool
	MaxSteps int
	Workers  int
	// Database is the SQLite run log path. Empty disables persistence.
	Database string
}

// raw mirrors #Config for decoding.
type raw struct {
	TargetEnv string `json:"target_env"`
	Validator struct {
		Kind                   string `json:"kind"`
		Path                   string `json:"path"`
		TimeoutSeconds         int    `json:"timeout_seconds"`
		RelaxLogicalPointer    bool   `json:"relax_logical_pointer"`
		RelaxBlockLayout       bool   `json:"relax_block_layout"`
		ScalarBlockLayout      bool   `json:"scalar_block_layout"`
		SkipBlockLayout        bool   `json:"skip_block_layout"`
		BeforeHLSLLegalization bool   `json:"before_hlsl_legalization"`
	} `json:"validator"`
	Mode     string `json:"mode"`
	MaxSteps int    `json:"max_steps"`
	Workers  int    `json:"workers"`
	Database string `json:"database"`
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := LoadString("", "default.cue")
	if err != nil {
		panic(fmt.Sprintf("config: default configuration: %v", err))
	}
	return cfg
}

// Load reads configuration from path. For a directory, every .cue file in
// it is unified into one instance; files need no package clause. A missing
// spvfuzz block yields the defaults.
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, &ConfigError{Field: "path", Message: err.Error()}
	}

	cfg := &load.Config{Dir: filepath.Dir(path)}
	args := []string{filepath.Base(path)}
	if info.IsDir() {
		cfg.Dir = path
		if args, err = cueFiles(path); err != nil {
			return Config{}, err
		}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return Config{}, &ConfigError{Field: "path", Message: "no CUE instances loaded"}
	}
	if err := instances[0].Err; err != nil {
		return Config{}, formatCUEError(err)
	}

	ctx := cuecontext.New()
	return resolve(ctx, ctx.BuildInstance(instances[0]))
}

// cueFiles lists the .cue files directly inside dir, sorted by name.
func cueFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &ConfigError{Field: "path", Message: err.Error()}
	}
	if len(matches) == 0 {
		return nil, &ConfigError{Field: "path", Message: fmt.Sprintf("no .cue files in %s", dir)}
	}
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Base(m)
	}
	return files, nil
}

// LoadString reads configuration from CUE source. filename is used in
// error positions.
func LoadString(src, filename string) (Config, error) {
	ctx := cuecontext.New()
	return resolve(ctx, ctx.CompileString(src, cue.Filename(filename)))
}

func resolve(ctx *cue.Context, v cue.Value) (Config, error) {
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	merged := schema.LookupPath(cue.ParsePath("#Config"))
	if block := v.LookupPath(cue.ParsePath("spvfuzz")); block.Exists() {
		merged = merged.Unify(block)
	}
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var r raw
	if err := merged.Decode(&r); err != nil {
		return Config{}, formatCUEError(err)
	}
	return r.config(merged)
}

func (r raw) config(v cue.Value) (Config, error) {
	env, err := ir.ParseTargetEnv(r.TargetEnv)
	if err != nil {
		return Config{}, &ConfigError{
			Field:   "target_env",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("target_env")).Pos(),
		}
	}

	return Config{
		TargetEnv:        env,
		ValidatorKind:    r.Validator.Kind,
		ValidatorPath:    r.Validator.Path,
		ValidatorTimeout: time.Duration(r.Validator.TimeoutSeconds) * time.Second,
		Validator: validate.Options{
			RelaxLogicalPointer:    r.Validator.RelaxLogicalPointer,
			RelaxBlockLayout:       r.Validator.RelaxBlockLayout,
			ScalarBlockLayout:      r.Validator.ScalarBlockLayout,
			SkipBlockLayout:        r.Validator.SkipBlockLayout,
			BeforeHLSLLegalization: r.Validator.BeforeHLSLLegalization,
		},
		Lenient:  r.Mode == "lenient",
		MaxSteps: r.MaxSteps,
		Workers:  r.Workers,
		Database: r.Database,
	}, nil
}

// NewValidator builds the validator selected by ValidatorKind. It returns
// nil for ValidatorNone.
func (c Config) NewValidator() (validate.Validator, error) {
	switch c.ValidatorKind {
	case ValidatorStructural, "":
		return validate.Structural{}, nil
	case ValidatorNone:
		return nil, nil
	case ValidatorExternal:
		if c.ValidatorPath != "" {
			return &validate.External{Path: c.ValidatorPath, Options: c.Validator, Timeout: c.ValidatorTimeout}, nil
		}
		ext, err := validate.LookupExternal(c.Validator)
		if err != nil {
			return nil, err
		}
		ext.Timeout = c.ValidatorTimeout
		return ext, nil
	default:
		return nil, &ConfigError{Field: "validator.kind", Message: fmt.Sprintf("unknown validator kind %q", c.ValidatorKind)}
	}
}
