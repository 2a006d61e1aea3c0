package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jo-hoe/arconverter/internal/core"
	"github.com/jo-hoe/arconverter/internal/viewer"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/arconverter/config.yaml")
	if got := getConfigPath(); got != "/etc/arconverter/config.yaml" {
		t.Errorf("Expected CONFIG_PATH to win, got %s", got)
	}

	t.Setenv("CONFIG_PATH", "")
	if got := getConfigPath(); filepath.Base(got) != "config.yaml" {
		t.Errorf("Expected config.yaml in the working directory, got %s", got)
	}
}

func TestBodyLimit(t *testing.T) {
	if got := bodyLimit(10 * 1024 * 1024); got != "10752K" {
		t.Errorf("Expected 10752K, got %s", got)
	}
}

func TestDefineServer_TrailingSlash(t *testing.T) {
	config := core.DefaultConfig()
	e := defineServer(config)
	viewer.NewViewerService(filepath.Join(t.TempDir(), "missing.json"), "").SetRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/viewer/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected /viewer/ to reach the viewer page, got %d", rec.Code)
	}
}
