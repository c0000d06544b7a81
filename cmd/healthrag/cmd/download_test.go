package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpusServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestDownloadCorpus_SkipsExisting(t *testing.T) {
	// Given: one of two files already downloaded
	srv, hits := corpusServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("old"), 0o644))
	files := []corpusFile{
		{Filename: "a.pdf", URL: srv.URL + "/a.pdf"},
		{Filename: "b.pdf", URL: srv.URL + "/b.pdf"},
	}

	// When
	out := &bytes.Buffer{}
	err := downloadCorpus(context.Background(), srv.Client(), dir, files, out)

	// Then: only the missing file is fetched
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, out.String(), "skip a.pdf")

	old, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))

	fetched, err := os.ReadFile(filepath.Join(dir, "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(fetched))
}

func TestDownloadCorpus_ReportsFailures(t *testing.T) {
	// Given: one URL returns 404
	srv, _ := corpusServer(t)
	dir := filepath.Join(t.TempDir(), "raw")
	files := []corpusFile{
		{Filename: "missing.pdf", URL: srv.URL + "/missing.pdf"},
		{Filename: "ok.pdf", URL: srv.URL + "/ok.pdf"},
	}

	// When
	out := &bytes.Buffer{}
	err := downloadCorpus(context.Background(), srv.Client(), dir, files, out)

	// Then: the good file lands and the failure is counted
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 downloads failed")
	assert.Contains(t, out.String(), "FAIL missing.pdf: HTTP 404")
	assert.NoFileExists(t, filepath.Join(dir, "missing.pdf"))
	assert.FileExists(t, filepath.Join(dir, "ok.pdf"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
