package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabprep/internal/core"
	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/pipeline"
	"github.com/JonMunkholm/tabprep/internal/table"
)

// derive runs fn over a dataset and stores its result as a new dataset
// whose parent is the source.
func (s *Server) derive(w http.ResponseWriter, r *http.Request, op string, fn func(*table.Table) (*table.Table, error)) {
	d, err := s.dataset(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	start := time.Now()
	var out *table.Table
	err = d.View(func(t *table.Table) error {
		var err error
		out, err = fn(t)
		return err
	})
	s.metrics.observe(op, start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	child, err := s.datasets.Add(d.Name, d.ID, op, out)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "dataset", child.ID, "parent", d.ID, "op", op).Info("dataset derived",
		"rows", out.NumRows(),
		"columns", out.NumCols(),
		"duration", time.Since(start),
	)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, child.Info())
}

// handleClean drops duplicate rows and nulls the sentinel. Unset request
// fields take the configured defaults.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req cleanRequest
	if err := s.decode(w, r, &req, true); err != nil {
		respondError(w, r, err)
		return
	}

	opts := core.CleanOptions{
		RemoveDuplicates: s.cfg.Clean.RemoveDuplicates,
		Sentinel:         s.cfg.Clean.SentinelValue(),
		MatchText:        s.cfg.Clean.MatchText,
	}
	if req.RemoveDuplicates != nil {
		opts.RemoveDuplicates = *req.RemoveDuplicates
	}
	if req.Sentinel != nil {
		opts.Sentinel = table.ValueOf(req.Sentinel)
	}
	if req.MatchText != nil {
		opts.MatchText = *req.MatchText
	}

	s.derive(w, r, "clean", func(t *table.Table) (*table.Table, error) {
		return core.Clean(t, opts)
	})
}

// handleFill fills nulls in one column.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var req fillRequest
	if err := s.decode(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	strategy, err := core.ParseFillStrategy(req.Strategy)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.derive(w, r, "fill", func(t *table.Table) (*table.Table, error) {
		return core.FillMissing(t, req.Column, strategy)
	})
}

// handleFilter keeps the rows matching every filter.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := s.decode(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	conds, err := core.ParseFilters(req.Filters)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.derive(w, r, "filter", func(t *table.Table) (*table.Table, error) {
		return core.Filter(t, conds)
	})
}

// handleTransform converts column types in place; the dataset keeps its id.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := s.decode(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	d, err := s.dataset(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	types := core.ParseTypeMap(r.Context(), req.Types)
	start := time.Now()
	err = d.Update(func(t *table.Table) error {
		return core.TransformTypes(t, types)
	})
	s.metrics.observe("transform", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "dataset", d.ID, "op", "transform").Info("dataset transformed", "columns", len(types))
	render.JSON(w, r, d.Info())
}

// handleBins adds a categorical bin column.
func (s *Server) handleBins(w http.ResponseWriter, r *http.Request) {
	var spec core.BinSpec
	if err := s.decode(w, r, &spec, false); err != nil {
		respondError(w, r, err)
		return
	}
	s.derive(w, r, "bins", func(t *table.Table) (*table.Table, error) {
		return core.CreateBins(t, spec)
	})
}

// handleSummarize aggregates by group.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := s.decode(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	s.derive(w, r, "summarize", func(t *table.Table) (*table.Table, error) {
		return core.SummarizeByGroup(t, req.GroupBy, req.Aggregations)
	})
}

// pipelineResponse is the outcome of a pipeline run over a dataset.
type pipelineResponse struct {
	Dataset DatasetInfo           `json:"dataset"`
	Steps   []pipeline.StepResult `json:"steps"`
}

// handlePipeline runs a YAML or JSON pipeline document over a dataset. The
// document's source and output are ignored; the dataset is the input and
// the result becomes a new dataset.
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	d, err := s.dataset(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		if tooLarge(err) {
			err = fmt.Errorf("%w: pipeline exceeds %d bytes", errFileTooLarge, maxBodySize)
		}
		respondError(w, r, err)
		return
	}
	def, err := pipeline.Parse(body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := s.limiter.Acquire(ctx); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	start := time.Now()
	var res *pipeline.Result
	err = d.View(func(t *table.Table) error {
		var err error
		res, err = pipeline.Run(ctx, def, t)
		return err
	})
	s.metrics.observe("pipeline", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	child, err := s.datasets.Add(d.Name, d.ID, "pipeline", res.Table)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(ctx, "dataset", child.ID, "parent", d.ID, "pipeline", def.Name).Info("pipeline complete",
		"steps", len(res.Steps),
		"rows", res.Table.NumRows(),
		"duration", time.Since(start),
	)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, pipelineResponse{Dataset: child.Info(), Steps: res.Steps})
}
