package web

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabprep/internal/core"
	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/source"
	"github.com/JonMunkholm/tabprep/internal/table"
	"github.com/JonMunkholm/tabprep/internal/web/views"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// dataset resolves the {id} URL parameter.
func (s *Server) dataset(r *http.Request) (*Dataset, error) {
	return s.datasets.Get(chi.URLParam(r, "id"))
}

// handleHealth reports liveness and load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	active, limit := s.limiter.Status()
	render.JSON(w, r, map[string]any{
		"status":   "ok",
		"datasets": s.datasets.Len(),
		"active":   active,
		"limit":    limit,
		"database": s.deps.Store != nil,
	})
}

// handleUpload loads a multipart CSV or XLSX file into a new dataset.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.limiter.Acquire(ctx); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.Upload.MaxFileSize
	if r.ContentLength > maxSize {
		respondError(w, r, fmt.Errorf("%w: max %d bytes", errFileTooLarge, maxSize))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge(err) {
			respondError(w, r, fmt.Errorf("%w: max %d bytes", errFileTooLarge, maxSize))
			return
		}
		respondError(w, r, table.Invalidf("no file provided: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, table.Invalidf("no file provided"))
		return
	}
	defer file.Close()

	format, err := table.FormatFromPath(header.Filename)
	if err != nil {
		respondError(w, r, err)
		return
	}

	start := time.Now()
	t, err := table.Read(file, format)
	s.metrics.observe("upload", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	d, err := s.datasets.Add(name, "", "upload", t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.metrics.rows.WithLabelValues("upload").Add(float64(t.NumRows()))

	logging.WithFields(ctx, "dataset", d.ID, "file", header.Filename).Info("dataset uploaded",
		"rows", t.NumRows(),
		"columns", t.NumCols(),
		"bytes", header.Size,
		"duration", time.Since(start),
	)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, d.Info())
}

// handleImport loads a dataset from an s3:// location.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := s.decode(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	loc, err := source.ParseURI(req.URI)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !loc.IsS3() {
		respondError(w, r, table.Invalidf("import accepts s3:// locations only, got %q", req.URI))
		return
	}
	if s.deps.Resolver == nil {
		respondError(w, r, table.Invalidf("s3 locations are not configured"))
		return
	}

	ctx := r.Context()
	if err := s.limiter.Acquire(ctx); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	start := time.Now()
	t, err := s.deps.Resolver.Open(ctx, req.URI)
	s.metrics.observe("import", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(loc.Key)
	}
	d, err := s.datasets.Add(name, "", "import", t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.metrics.rows.WithLabelValues("import").Add(float64(t.NumRows()))
	logging.WithFields(ctx, "dataset", d.ID, "uri", loc.String()).Info("dataset imported", "rows", t.NumRows())

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, d.Info())
}

// handleListDatasets lists every dataset, oldest first.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	list := s.datasets.List()
	infos := make([]DatasetInfo, len(list))
	for i, d := range list {
		infos[i] = d.Info()
	}
	render.JSON(w, r, infos)
}

// datasetRows is a page of dataset rows.
type datasetRows struct {
	DatasetInfo
	Offset int     `json:"offset"`
	Data   [][]any `json:"data"`
}

// handleGetDataset returns dataset metadata and a page of rows.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	d, err := s.dataset(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit := parseIntParam(r, "limit", s.cfg.Dataset.PreviewRows)
	offset := parseIntParam(r, "offset", 0)

	resp := datasetRows{DatasetInfo: d.Info(), Offset: offset, Data: [][]any{}}
	_ = d.View(func(t *table.Table) error {
		for i := offset; i < t.NumRows() && i < offset+limit; i++ {
			row := t.Row(i)
			cells := make([]any, len(row))
			for j, v := range row {
				cells[j] = cellJSON(v)
			}
			resp.Data = append(resp.Data, cells)
		}
		return nil
	})
	render.JSON(w, r, resp)
}

// handleDeleteDataset drops a dataset.
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.datasets.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "dataset", chi.URLParam(r, "id")).Info("dataset deleted")
	render.NoContent(w, r)
}

// handleMissing reports null counts per column.
func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	d, err := s.dataset(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var counts []core.MissingCount
	_ = d.View(func(t *table.Table) error {
		counts = core.DetectMissing(t)
		return nil
	})
	render.JSON(w, r, counts)
}

// handleExport downloads a dataset as CSV or XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	d, err := s.dataset(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	format := table.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = table.FormatCSV
	}
	if format != table.FormatCSV && format != table.FormatXLSX {
		respondError(w, r, table.Invalidf("unsupported file type %q (want csv or xlsx)", format))
		return
	}

	var buf bytes.Buffer
	err = d.View(func(t *table.Table) error { return table.Write(&buf, t, format) })
	if err != nil {
		respondError(w, r, err)
		return
	}

	filename := strings.TrimSuffix(d.Name, filepath.Ext(d.Name)) + "." + string(format)
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "dataset", d.ID, "error", err)
	}
}

func contentType(f table.Format) string {
	if f == table.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// handlePersist copies a dataset into PostgreSQL.
func (s *Server) handlePersist(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		respondError(w, r, errDatabaseNotConfigured)
		return
	}
	d, err := s.dataset(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req persistRequest
	if err := s.decode(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}

	start := time.Now()
	var n int64
	err = d.View(func(t *table.Table) error {
		var err error
		n, err = s.deps.Store.Save(r.Context(), req.Name, t)
		return err
	})
	s.metrics.observe("persist", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"dataset": d.ID, "table": req.Name, "rows": n})
}

// handlePreviewPage renders the first rows of a dataset as HTML.
func (s *Server) handlePreviewPage(w http.ResponseWriter, r *http.Request) {
	d, err := s.dataset(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	data := views.PreviewData{ID: d.ID, Name: d.Name, Missing: map[string]int{}}
	_ = d.View(func(t *table.Table) error {
		data.Rows = t.NumRows()
		for _, c := range t.Columns() {
			data.Columns = append(data.Columns, views.ColumnHeader{Name: c.Name, Kind: c.Kind.String()})
		}
		for _, m := range core.DetectMissing(t) {
			data.Missing[m.Column] = m.Missing
		}
		for i := 0; i < t.NumRows() && i < s.cfg.Dataset.PreviewRows; i++ {
			row := t.Row(i)
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = v.String()
			}
			data.Cells = append(data.Cells, cells)
		}
		return nil
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Preview(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("preview render failed", "dataset", d.ID, "error", err)
	}
}
