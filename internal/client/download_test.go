package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestDownloadFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content of " + r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	c := New(srv.URL, "k", "dev")
	downloadMap := map[string]string{
		filepath.Join(dir, "model.pt"):          srv.URL + "/model.pt",
		filepath.Join(dir, "logs", "train.log"): srv.URL + "/train.log",
	}
	var progress strings.Builder
	if err := c.DownloadFiles(context.Background(), downloadMap, DownloadOptions{Progress: &progress}); err != nil {
		t.Fatalf("DownloadFiles: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "train.log"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "content of /train.log" {
		t.Errorf("downloaded content = %q", data)
	}
	if !strings.Contains(progress.String(), "Downloaded") {
		t.Errorf("progress = %q", progress.String())
	}
}

func TestDownloadFilesSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "model.pt")
	if err := os.WriteFile(existing, []byte("local"), 0o644); err != nil {
		t.Fatalf("write existing file: %v", err)
	}

	c := New("http://unused", "k", "dev")
	var progress strings.Builder
	err := c.DownloadFiles(context.Background(), map[string]string{existing: "http://unused/x"}, DownloadOptions{Progress: &progress})
	if err != nil {
		t.Fatalf("DownloadFiles: %v", err)
	}
	if !strings.Contains(progress.String(), "Skipping") {
		t.Errorf("progress = %q, want skip notice", progress.String())
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "local" {
		t.Errorf("existing file overwritten: %q", data)
	}
}

func TestDownloadFilesOverwrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	existing := filepath.Join(dir, "model.pt")
	if err := os.WriteFile(existing, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write existing file: %v", err)
	}

	c := New(srv.URL, "k", "dev")
	var progress strings.Builder
	err := c.DownloadFiles(context.Background(), map[string]string{existing: srv.URL + "/model.pt"}, DownloadOptions{Overwrite: true, Progress: &progress})
	if err != nil {
		t.Fatalf("DownloadFiles: %v", err)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "fresh" {
		t.Errorf("file content = %q, want fresh", data)
	}
	if !strings.Contains(progress.String(), "Overwriting") {
		t.Errorf("progress = %q, want overwrite notice", progress.String())
	}
}

func TestDownloadFileRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	c := New(srv.URL, "k", "dev")
	path := filepath.Join(dir, "out.bin")
	if err := c.downloadFile(context.Background(), path, srv.URL+"/out.bin", false, &strings.Builder{}); err != nil {
		t.Fatalf("downloadFile: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestDownloadFilesAggregatesFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("failure path waits out the retry backoff")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	c := New(srv.URL, "k", "dev")
	err := c.DownloadFiles(context.Background(), map[string]string{
		filepath.Join(dir, "a.bin"): srv.URL + "/a",
	}, DownloadOptions{Progress: &strings.Builder{}})
	if err == nil {
		t.Fatal("DownloadFiles succeeded, want aggregated failure")
	}
	if !strings.Contains(err.Error(), "the following downloads failed:") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "a.bin") {
		t.Errorf("error = %v, want failing path listed", err)
	}
}
