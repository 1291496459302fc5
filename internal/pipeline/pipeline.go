// Package pipeline runs a declarative chain of cleaning steps over a table.
//
// A pipeline is a YAML (or JSON) document:
//
//	name: clinical
//	source: data/clinical_trial_raw.csv
//	output: s3://trials/clean.csv
//	steps:
//	  - clean: {remove_duplicates: true, sentinel: -999}
//	  - fill: {column: age, strategy: median}
//	  - filter: [{column: age, condition: in_range, value: [18, 65]}]
//	  - transform: {enrollment_date: datetime, site: category}
//	  - bins: {column: age, edges: [0, 40, 60, 120], labels: ["<40", "40-59", "60+"]}
//	  - summarize: {group_by: site, aggregations: {age: [mean, std], bmi: mean}}
//
// Each step names exactly one operation. ${VAR} references in source and
// output expand from vars and then the environment.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/tabprep/internal/core"
	"github.com/JonMunkholm/tabprep/internal/table"
)

// Definition is a parsed pipeline document.
type Definition struct {
	Name   string            `yaml:"name"`
	Source string            `yaml:"source,omitempty"`
	Output string            `yaml:"output,omitempty"`
	Vars   map[string]string `yaml:"vars,omitempty"`
	Steps  []Step            `yaml:"steps"`
}

// Step holds exactly one operation.
type Step struct {
	Clean     *CleanStep        `yaml:"clean,omitempty"`
	Fill      *FillStep         `yaml:"fill,omitempty"`
	Filter    []core.FilterSpec `yaml:"filter,omitempty"`
	Transform map[string]string `yaml:"transform,omitempty"`
	Bins      *core.BinSpec     `yaml:"bins,omitempty"`
	Summarize *SummarizeStep    `yaml:"summarize,omitempty"`
}

// CleanStep configures core.Clean. Unset fields take the defaults.
type CleanStep struct {
	RemoveDuplicates *bool `yaml:"remove_duplicates,omitempty"`
	Sentinel         any   `yaml:"sentinel,omitempty"`
	MatchText        bool  `yaml:"match_text,omitempty"`
}

// FillStep configures core.FillMissing.
type FillStep struct {
	Column   string `yaml:"column"`
	Strategy string `yaml:"strategy"`
}

// SummarizeStep configures core.SummarizeByGroup.
type SummarizeStep struct {
	GroupBy      string       `yaml:"group_by"`
	Aggregations Aggregations `yaml:"aggregations,omitempty"`
}

// Aggregations decodes a column -> func(s) mapping in document order.
// A value is either one function name or a list of them.
type Aggregations []core.Aggregation

// UnmarshalYAML walks the mapping node so column order survives decoding.
func (a *Aggregations) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: aggregations must be a mapping", node.Line)
	}
	out := make(Aggregations, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		col, val := node.Content[i], node.Content[i+1]

		var names []string
		switch val.Kind {
		case yaml.ScalarNode:
			names = []string{val.Value}
		case yaml.SequenceNode:
			if err := val.Decode(&names); err != nil {
				return fmt.Errorf("line %d: %w", val.Line, err)
			}
		default:
			return fmt.Errorf("line %d: aggregations for %q must be a name or a list", val.Line, col.Value)
		}

		funcs := make([]core.AggFunc, len(names))
		for j, n := range names {
			fn, err := core.ParseAggFunc(n)
			if err != nil {
				return err
			}
			funcs[j] = fn
		}
		out = append(out, core.Agg(col.Value, funcs...))
	}
	*a = out
	return nil
}

// UnmarshalJSON accepts the same mapping in a JSON request body. JSON is
// decoded as YAML so key order is kept.
func (a *Aggregations) UnmarshalJSON(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return table.Invalidf("aggregations: %v", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
		*a = nil
		return nil
	}
	return a.UnmarshalYAML(doc.Content[0])
}

// Parse decodes and validates a pipeline document.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, table.Invalidf("pipeline: empty document")
		}
		if errors.Is(err, table.ErrInvalidArgument) {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		return nil, table.Invalidf("pipeline: invalid YAML: %v", err)
	}
	def.Source = def.expandVars(def.Source)
	def.Output = def.expandVars(def.Output)

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseFile reads and parses a pipeline document from disk.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: cannot read %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks that every step names exactly one operation with usable
// arguments. Column references are checked when the pipeline runs.
func (d *Definition) Validate() error {
	if len(d.Steps) == 0 {
		return table.Invalidf("pipeline: at least one step is required")
	}
	for i, s := range d.Steps {
		if _, err := s.compile(); err != nil {
			return fmt.Errorf("pipeline: steps[%d]: %w", i, err)
		}
	}
	return nil
}

func (d *Definition) expandVars(s string) string {
	for k, v := range d.Vars {
		s = strings.ReplaceAll(s, "${"+k+"}", v)
	}
	return os.Expand(s, os.Getenv)
}
