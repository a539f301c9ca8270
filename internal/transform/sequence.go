package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/spvfuzz/internal/record"
)

// Sequence is an ordered list of transformations applied one at a time.
type Sequence []Transformation

// sequenceFile is the on-disk layout shared by YAML and JSON sequence files:
//
//	transformations:
//	  - kind: add_constant_scalar
//	    fresh_id: 100
//	    type_id: 6
//	    words: [1]
//	    is_irrelevant: false
type sequenceFile struct {
	Transformations []map[string]any `yaml:"transformations" json:"transformations"`
}

// ParseSequence decodes a YAML or JSON sequence document.
func ParseSequence(data []byte) (Sequence, error) {
	var f sequenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sequence: %w", err)
	}

	seq := make(Sequence, 0, len(f.Transformations))
	for i, raw := range f.Transformations {
		v, err := record.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("parse sequence: transformation %d: %w", i, err)
		}
		t, err := Decode(v.(record.Object))
		if err != nil {
			return nil, fmt.Errorf("parse sequence: transformation %d: %w", i, err)
		}
		seq = append(seq, t)
	}
	return seq, nil
}

// LoadSequence reads a sequence file.
func LoadSequence(path string) (Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load sequence: %w", err)
	}
	return ParseSequence(data)
}

// Records returns the persisted form of every transformation.
func (s Sequence) Records() []record.Object {
	out := make([]record.Object, len(s))
	for i, t := range s {
		out[i] = t.Record()
	}
	return out
}

// EncodeYAML renders the sequence as a YAML document.
func (s Sequence) EncodeYAML() ([]byte, error) {
	f := sequenceFile{Transformations: make([]map[string]any, len(s))}
	for i, obj := range s.Records() {
		f.Transformations[i] = record.ToAny(obj).(map[string]any)
	}
	return yaml.Marshal(f)
}

// EncodeJSON renders the sequence as indented JSON with canonical key
// order inside each record.
func (s Sequence) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Transformations []record.Object `json:"transformations"`
	}{s.Records()}, "", "  ")
}

// SaveSequence writes s to path. A .json extension selects JSON, anything
// else YAML.
func SaveSequence(path string, s Sequence) error {
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = s.EncodeJSON()
	} else {
		data, err = s.EncodeYAML()
	}
	if err != nil {
		return fmt.Errorf("save sequence: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save sequence: %w", err)
	}
	return nil
}
