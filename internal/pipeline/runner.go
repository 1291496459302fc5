package pipeline

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/source"
	"github.com/JonMunkholm/tabprep/internal/table"
)

// Runner runs pipelines end to end, reading the source and writing the
// output through a source.Resolver.
type Runner struct {
	Resolver *source.Resolver
}

// NewRunner returns a Runner using r. A nil r handles local paths only.
func NewRunner(r *source.Resolver) *Runner {
	if r == nil {
		r = &source.Resolver{}
	}
	return &Runner{Resolver: r}
}

// Run loads def.Source, applies the steps and writes def.Output when set.
func (r *Runner) Run(ctx context.Context, def *Definition) (*Result, error) {
	if def.Source == "" {
		return nil, table.Invalidf("pipeline %q has no source", def.Name)
	}
	in, err := r.Resolver.Open(ctx, def.Source)
	if err != nil {
		return nil, err
	}

	res, err := Run(ctx, def, in)
	if err != nil {
		return nil, err
	}

	if def.Output != "" {
		if err := r.Resolver.Write(ctx, def.Output, res.Table); err != nil {
			return nil, fmt.Errorf("pipeline %q output: %w", def.Name, err)
		}
		logging.FromContext(ctx).Info("pipeline output written",
			"pipeline", def.Name,
			"output", def.Output,
			"rows", res.Table.NumRows(),
		)
	}
	return res, nil
}

// RunFile parses the document at path and runs it.
func (r *Runner) RunFile(ctx context.Context, path string) (*Result, error) {
	def, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, def)
}
