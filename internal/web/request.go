package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/tabprep/internal/core"
	"github.com/JonMunkholm/tabprep/internal/pipeline"
	"github.com/JonMunkholm/tabprep/internal/table"
)

// maxBodySize caps JSON and pipeline request bodies.
const maxBodySize = 1 << 20

// newValidator reports field names by their JSON tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. An empty body leaves
// dst unchanged when allowEmpty is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		switch {
		case errors.Is(err, io.EOF) && allowEmpty:
		case errors.Is(err, io.EOF):
			return table.Invalidf("request body is empty")
		case tooLarge(err):
			return fmt.Errorf("%w: request body exceeds %d bytes", errFileTooLarge, maxBodySize)
		case errors.Is(err, table.ErrInvalidArgument):
			return err
		default:
			return table.Invalidf("invalid JSON body: %v", err)
		}
	}
	return s.validateStruct(dst)
}

// validateStruct turns validator failures into ErrInvalidArgument.
func (s *Server) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return table.Invalidf("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return table.Invalidf("%s", strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// cellJSON renders a cell for JSON output. Nulls become null, datetimes
// RFC 3339 strings.
func cellJSON(v table.Value) any {
	if v.IsNull() {
		return nil
	}
	if f, ok := v.Float(); ok {
		return f
	}
	if t, ok := v.Time(); ok {
		return t.Format(time.RFC3339Nano)
	}
	return v.String()
}

// Request bodies.

type cleanRequest struct {
	RemoveDuplicates *bool `json:"remove_duplicates"`
	Sentinel         any   `json:"sentinel"`
	MatchText        *bool `json:"match_text"`
}

type fillRequest struct {
	Column   string `json:"column" validate:"required"`
	Strategy string `json:"strategy" validate:"required"`
}

type filterRequest struct {
	Filters []core.FilterSpec `json:"filters" validate:"dive"`
}

type transformRequest struct {
	Types map[string]string `json:"types" validate:"required,min=1"`
}

type summarizeRequest struct {
	GroupBy      string                `json:"group_by" validate:"required"`
	Aggregations pipeline.Aggregations `json:"aggregations" validate:"dive"`
}

type persistRequest struct {
	Name string `json:"name" validate:"required,max=63"`
}

type importRequest struct {
	URI  string `json:"uri" validate:"required"`
	Name string `json:"name"`
}
