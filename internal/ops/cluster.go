package ops

import (
	"fmt"
	"os"
	"strings"

	"github.com/tensorpool/tp/internal/stream"
)

// ClusterSpec holds the parameters for a cluster create operation.
// Validation beyond basic presence is the engine's job.
type ClusterSpec struct {
	InstanceType       string
	Name               string
	NumNodes           int
	DeletionProtection bool
	// IdentityFile optionally points at a public SSH key to authorize
	// on the new nodes.
	IdentityFile string
}

type clusterCreatePayload struct {
	InstanceType       string   `json:"instance_type"`
	NumNodes           int      `json:"num_nodes,omitempty"`
	DeletionProtection bool     `json:"deletion_protection"`
	PublicKeys         []string `json:"public_keys,omitempty"`
	Name               string   `json:"tp_cluster_name,omitempty"`
}

// ClusterCreate provisions a new cluster over a streaming session.
func (e Env) ClusterCreate(spec ClusterSpec) stream.Outcome {
	if spec.InstanceType == "" {
		return stream.Outcome{Message: "Instance type is required"}
	}

	payload := clusterCreatePayload{
		InstanceType:       spec.InstanceType,
		NumNodes:           spec.NumNodes,
		DeletionProtection: spec.DeletionProtection,
		Name:               spec.Name,
	}
	if spec.IdentityFile != "" {
		key, err := readPublicKey(spec.IdentityFile)
		if err != nil {
			return stream.Outcome{Message: err.Error()}
		}
		payload.PublicKeys = []string{key}
	}

	return e.runWithSpinner("Creating cluster...", e.endpoint("/cluster/create"), payload, stream.Defaults{
		Success: "Cluster created successfully",
		Error:   "Cluster creation failed",
		UnexpectedEnd: "Connection lost during cluster creation.\n" +
			"The cluster may still be provisioning. Check 'tp cluster list' to see the current status.",
	})
}

// ClusterDestroy tears a cluster down over a streaming session. The
// engine asks for confirmation through the prompt relay unless
// no-input is set.
func (e Env) ClusterDestroy(clusterID string) stream.Outcome {
	return e.runWithSpinner("Destroying cluster...", e.endpoint("/cluster/destroy/"+clusterID), nil, stream.Defaults{
		Success: fmt.Sprintf("Cluster %s destroyed successfully", clusterID),
		Error:   "Cluster destruction failed",
		UnexpectedEnd: "Connection lost during cluster destruction.\n" +
			"The cluster may still be destroying. Check 'tp cluster list' to see the current status.",
	})
}

func readPublicKey(path string) (string, error) {
	expanded := path
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			expanded = home + path[1:]
		}
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("SSH key file not found: %s", expanded)
	}
	return strings.TrimSpace(string(data)), nil
}
