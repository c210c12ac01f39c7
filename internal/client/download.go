package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	downloadRetries   = 3
	downloadBaseDelay = time.Second
)

var downloadHTTPClient = &http.Client{}

// DownloadOptions tune a batch download.
type DownloadOptions struct {
	// Overwrite replaces files that already exist locally; otherwise
	// they are skipped.
	Overwrite bool
	// Progress, when non-nil, receives a line per file event.
	Progress io.Writer
}

// DownloadFiles fetches every entry of a download map (relative path →
// signed URL) with a bounded worker pool. Individual failures are
// retried with exponential backoff; after the batch, all failures are
// reported together.
func (c *Client) DownloadFiles(ctx context.Context, downloadMap map[string]string, opts DownloadOptions) error {
	if len(downloadMap) == 0 {
		return nil
	}
	progress := opts.Progress
	if progress == nil {
		progress = os.Stdout
	}

	workers := runtime.NumCPU() * 2
	if workers > 6 {
		workers = 6
	}

	var mu sync.Mutex
	var failed []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for path, url := range downloadMap {
		g.Go(func() error {
			if err := c.downloadFile(ctx, path, url, opts.Overwrite, progress); err != nil {
				mu.Lock()
				failed = append(failed, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
			}
			// Collect failures rather than cancelling siblings.
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		sort.Strings(failed)
		msg := "the following downloads failed:"
		for _, f := range failed {
			msg += "\n  " + f
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (c *Client) downloadFile(ctx context.Context, path, url string, overwrite bool, progress io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			fmt.Fprintf(progress, "Skipping %s - file already exists\n", path)
			return nil
		}
		fmt.Fprintf(progress, "Overwriting %s\n", path)
	}

	var lastErr error
	for attempt := 0; attempt <= downloadRetries; attempt++ {
		if attempt > 0 {
			delay := downloadBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if lastErr = c.fetchToFile(ctx, path, url); lastErr == nil {
			fmt.Fprintf(progress, "Downloaded %s\n", path)
			return nil
		}
	}
	return lastErr
}

func (c *Client) fetchToFile(ctx context.Context, path, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	// Signed URLs carry their own auth; no engine headers here. The
	// API client's overall timeout would cut large artifacts short, so
	// downloads use a client without one.
	resp, err := downloadHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
