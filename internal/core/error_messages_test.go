package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/tabprep/internal/table"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unknown condition maps correctly",
			err:         table.Invalidf("unknown condition: contains"),
			wantCode:    "VAL001",
			wantMessage: "Unknown filter condition",
		},
		{
			name:        "unknown strategy maps correctly",
			err:         table.Invalidf("unknown strategy %q (want mean, median or ffill)", "mode"),
			wantCode:    "VAL002",
			wantMessage: "Unknown fill strategy",
		},
		{
			name:        "bad bins map correctly",
			err:         table.Invalidf("bins: need at least 2 edges, got 1"),
			wantCode:    "VAL004",
			wantMessage: "Invalid bin specification",
		},
		{
			name:        "pattern without kind does not match",
			err:         errors.New("bins: not wrapped"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "missing column maps correctly",
			err:         fmt.Errorf("step 2: %w", table.NotFoundf("column %q", "age")),
			wantCode:    "COL001",
			wantMessage: "Column not found",
		},
		{
			name:        "missing dataset maps correctly",
			err:         table.NotFoundf("dataset %q", "3f2a"),
			wantCode:    "DS001",
			wantMessage: "Dataset not found",
		},
		{
			name:        "invalid csv maps correctly",
			err:         table.Invalidf("invalid csv: line 3 has 4 fields, header has 3"),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "cancelled context maps correctly",
			err:         fmt.Errorf("load: %w", context.Canceled),
			wantCode:    "SRV002",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline maps correctly",
			err:         context.DeadlineExceeded,
			wantCode:    "SRV003",
			wantMessage: "Request timed out",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB002",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "other invalid argument falls back to VAL010",
			err:         table.Invalidf("duplicate column name %q", "a"),
			wantCode:    "VAL010",
			wantMessage: "Invalid request",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("SERVER BUSY"),
			wantCode:    "SRV001",
			wantMessage: "System is busy processing other requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := table.NotFoundf("column %q", "age")
	result := FormatUserError(err)

	expected := "Column not found (Code: COL001). Check the column name against the dataset header"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  table.Invalidf("unknown aggregation %q", "mode"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := table.NotFoundf("column %q", "bmi")
		userErr := NewUserError(techErr)

		if userErr.Error() != "Column not found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, table.ErrNotFound) {
			t.Error("Unwrap() should expose the error kind")
		}
	})
}
