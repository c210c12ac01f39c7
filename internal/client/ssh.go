package client

import (
	"context"
	"net/http"
	"net/url"
	"runtime"
)

// SSHCommand asks the engine for the ssh invocation that reaches an
// instance. The command is returned for local execution; message, if
// any, is shown first.
func (c *Client) SSHCommand(ctx context.Context, instanceID string) (command, message string, err error) {
	query := url.Values{"system": []string{runtime.GOOS}}
	var out struct {
		Command string `json:"command"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/ssh/connect/"+instanceID, query, nil, &out); err != nil {
		return "", "", err
	}
	return out.Command, out.Message, nil
}

// CreateSSHKey registers a public key with the engine.
func (c *Client) CreateSSHKey(ctx context.Context, publicKey, name string) (string, error) {
	payload := map[string]string{"public_key": publicKey}
	if name != "" {
		payload["name"] = name
	}
	var out messageOnly
	if err := c.do(ctx, http.MethodPost, "/ssh/key/create", nil, payload, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		return "SSH key added successfully", nil
	}
	return out.Message, nil
}

// ListSSHKeys returns the formatted key listing.
func (c *Client) ListSSHKeys(ctx context.Context, org bool) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodGet, "/ssh/key/list", orgQuery(org), nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// DestroySSHKey removes a registered key.
func (c *Client) DestroySSHKey(ctx context.Context, keyID string) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodDelete, "/ssh/key/destroy/"+keyID, nil, nil, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		return "SSH key removed successfully", nil
	}
	return out.Message, nil
}
