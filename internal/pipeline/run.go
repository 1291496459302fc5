package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/tabprep/internal/core"
	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/table"
)

// StepResult describes one executed step.
type StepResult struct {
	Op       string        `json:"op"`
	Rows     int           `json:"rows"`
	Columns  int           `json:"columns"`
	Duration time.Duration `json:"duration_ns"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Table *table.Table
	Steps []StepResult
}

type op struct {
	name  string
	apply func(ctx context.Context, t *table.Table) (*table.Table, error)
}

// compile turns a step into an operation, validating its arguments.
func (s Step) compile() (op, error) {
	var ops []op

	if s.Clean != nil {
		opts := core.DefaultCleanOptions()
		if s.Clean.RemoveDuplicates != nil {
			opts.RemoveDuplicates = *s.Clean.RemoveDuplicates
		}
		if s.Clean.Sentinel != nil {
			opts.Sentinel = table.ValueOf(s.Clean.Sentinel)
		}
		opts.MatchText = s.Clean.MatchText
		ops = append(ops, op{"clean", func(_ context.Context, t *table.Table) (*table.Table, error) {
			return core.Clean(t, opts)
		}})
	}

	if s.Fill != nil {
		strategy, err := core.ParseFillStrategy(s.Fill.Strategy)
		if err != nil {
			return op{}, err
		}
		column := s.Fill.Column
		ops = append(ops, op{"fill", func(_ context.Context, t *table.Table) (*table.Table, error) {
			return core.FillMissing(t, column, strategy)
		}})
	}

	if s.Filter != nil {
		conds, err := core.ParseFilters(s.Filter)
		if err != nil {
			return op{}, err
		}
		ops = append(ops, op{"filter", func(_ context.Context, t *table.Table) (*table.Table, error) {
			return core.Filter(t, conds)
		}})
	}

	if s.Transform != nil {
		raw := s.Transform
		ops = append(ops, op{"transform", func(ctx context.Context, t *table.Table) (*table.Table, error) {
			out := t.Clone()
			if err := core.TransformTypes(out, core.ParseTypeMap(ctx, raw)); err != nil {
				return nil, err
			}
			return out, nil
		}})
	}

	if s.Bins != nil {
		spec := *s.Bins
		if err := spec.Validate(); err != nil {
			return op{}, err
		}
		ops = append(ops, op{"bins", func(_ context.Context, t *table.Table) (*table.Table, error) {
			return core.CreateBins(t, spec)
		}})
	}

	if s.Summarize != nil {
		if s.Summarize.GroupBy == "" {
			return op{}, table.Invalidf("summarize: group_by is required")
		}
		group, aggs := s.Summarize.GroupBy, []core.Aggregation(s.Summarize.Aggregations)
		ops = append(ops, op{"summarize", func(_ context.Context, t *table.Table) (*table.Table, error) {
			return core.SummarizeByGroup(t, group, aggs)
		}})
	}

	switch len(ops) {
	case 1:
		return ops[0], nil
	case 0:
		return op{}, table.Invalidf("step names no operation")
	default:
		names := make([]string, len(ops))
		for i, o := range ops {
			names[i] = o.name
		}
		return op{}, table.Invalidf("step names %d operations (%s), want one", len(ops), strings.Join(names, ", "))
	}
}

// Run applies the steps of def to t in order. t is not modified. The
// context is checked before each step.
func Run(ctx context.Context, def *Definition, t *table.Table) (*Result, error) {
	logger := logging.WithFields(ctx, "pipeline", def.Name)

	res := &Result{Table: t, Steps: make([]StepResult, 0, len(def.Steps))}
	for i, s := range def.Steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline %q stopped before step %d: %w", def.Name, i+1, err)
		}

		o, err := s.compile()
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d: %w", i+1, err)
		}

		start := time.Now()
		next, err := o.apply(ctx, res.Table)
		if err != nil {
			logger.Warn("pipeline step failed", "step", i+1, "op", o.name, "error", err)
			return nil, fmt.Errorf("pipeline step %d (%s): %w", i+1, o.name, err)
		}
		res.Table = next

		sr := StepResult{
			Op:       o.name,
			Rows:     next.NumRows(),
			Columns:  next.NumCols(),
			Duration: time.Since(start),
		}
		res.Steps = append(res.Steps, sr)
		logger.Info("pipeline step complete",
			"step", i+1,
			"op", sr.Op,
			"rows", sr.Rows,
			"columns", sr.Columns,
			"duration", sr.Duration,
		)
	}
	return res, nil
}
