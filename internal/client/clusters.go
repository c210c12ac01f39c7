package client

import (
	"context"
	"net/http"
)

// ClusterList returns the formatted cluster listing.
func (c *Client) ClusterList(ctx context.Context, org bool) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodGet, "/cluster/list", orgQuery(org), nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ClusterInfo returns the detail view for one cluster.
func (c *Client) ClusterInfo(ctx context.Context, clusterID string) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodGet, "/cluster/info/"+clusterID, nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ClusterEdit patches mutable cluster properties. Nil fields are left
// untouched server-side.
type ClusterEdit struct {
	Name               *string `json:"tp_cluster_name,omitempty"`
	DeletionProtection *bool   `json:"deletion_protection,omitempty"`
}

// EditCluster applies the edit and returns the server's confirmation.
func (c *Client) EditCluster(ctx context.Context, clusterID string, edit ClusterEdit) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodPatch, "/cluster/edit/"+clusterID, nil, edit, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		return "Cluster edited successfully", nil
	}
	return out.Message, nil
}
