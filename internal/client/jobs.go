package client

import (
	"context"
	"net/http"
	"net/url"
	"runtime"
)

// JobList returns the formatted listing of the user's jobs, or the
// whole organization's with org set.
func (c *Client) JobList(ctx context.Context, org bool) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodGet, "/job/list", orgQuery(org), nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// JobInfo returns the detail view for one job.
func (c *Client) JobInfo(ctx context.Context, jobID string) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodGet, "/job/info/"+jobID, nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// EmptyJobConfig fetches the engine's current empty tp-config
// template for `tp job init`.
func (c *Client) EmptyJobConfig(ctx context.Context) (config string, message string, err error) {
	var out struct {
		EmptyTPConfig string `json:"empty_tp_config"`
		Message       string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/job/init", nil, nil, &out); err != nil {
		return "", "", err
	}
	return out.EmptyTPConfig, out.Message, nil
}

// PullResult is the engine's answer to a job pull: a map of relative
// file paths to signed download URLs, and possibly a one-shot command
// to run locally first (for example to decrypt artifacts).
type PullResult struct {
	DownloadMap       map[string]string `json:"download_map"`
	Message           string            `json:"message"`
	Command           string            `json:"command"`
	CommandShowStdout bool              `json:"command_show_stdout"`
}

// JobPull asks which output files a job has to offer. files narrows
// the request to specific paths; privateKeyPath is forwarded so the
// engine can template the decrypt command.
func (c *Client) JobPull(ctx context.Context, jobID string, files []string, privateKeyPath string) (*PullResult, error) {
	query := url.Values{"system": []string{runtime.GOOS}}
	for _, f := range files {
		query.Add("files", f)
	}
	if privateKeyPath != "" {
		query.Set("private_key_path", privateKeyPath)
	}
	var out PullResult
	if err := c.do(ctx, http.MethodGet, "/job/pull/"+jobID, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
