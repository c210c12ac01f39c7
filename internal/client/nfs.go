package client

import (
	"context"
	"net/http"
)

// NFSList returns the formatted volume listing.
func (c *Client) NFSList(ctx context.Context, org bool) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodGet, "/nfs/list", orgQuery(org), nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// NFSInfo returns the detail view for one volume.
func (c *Client) NFSInfo(ctx context.Context, storageID string) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodGet, "/nfs/info/"+storageID, nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// NFSEdit patches mutable volume properties. Size can only grow;
// the engine enforces that.
type NFSEdit struct {
	Name               *string `json:"tp_storage_name,omitempty"`
	DeletionProtection *bool   `json:"deletion_protection,omitempty"`
	SizeGB             *int    `json:"size_gb,omitempty"`
}

// EditNFS applies the edit and returns the server's confirmation.
func (c *Client) EditNFS(ctx context.Context, storageID string, edit NFSEdit) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodPatch, "/nfs/edit/"+storageID, nil, edit, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		return "NFS volume edited successfully", nil
	}
	return out.Message, nil
}
