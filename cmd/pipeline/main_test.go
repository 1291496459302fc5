package main

import (
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/tabprep/internal/config"
)

func TestRun_PersistTakesOneDocument(t *testing.T) {
	err := run(context.Background(), &config.Config{}, "visits", []string{"a.yaml", "b.yaml"})
	if err == nil {
		t.Fatal("run() expected error for -persist with two documents")
	}
	if !strings.Contains(err.Error(), "one document") {
		t.Errorf("error = %v, want mention of one document", err)
	}
}

func TestRun_PersistNeedsDatabase(t *testing.T) {
	err := run(context.Background(), &config.Config{}, "visits", []string{"a.yaml"})
	if err == nil {
		t.Fatal("run() expected error without DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %v, want mention of DATABASE_URL", err)
	}
}
