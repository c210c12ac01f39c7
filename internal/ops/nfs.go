package ops

import (
	"fmt"

	"github.com/tensorpool/tp/internal/stream"
)

// NFSSpec holds the parameters for an NFS volume create operation.
type NFSSpec struct {
	Name               string
	SizeGB             int
	DeletionProtection bool
}

type nfsCreatePayload struct {
	Size               int    `json:"size"`
	DeletionProtection bool   `json:"deletion_protection"`
	Name               string `json:"name,omitempty"`
}

type nfsAttachmentPayload struct {
	StorageID  string   `json:"storage_id"`
	ClusterIDs []string `json:"cluster_ids"`
}

// NFSCreate provisions a new network volume over a streaming session.
func (e Env) NFSCreate(spec NFSSpec) stream.Outcome {
	payload := nfsCreatePayload{
		Size:               spec.SizeGB,
		DeletionProtection: spec.DeletionProtection,
		Name:               spec.Name,
	}
	return e.runWithSpinner("Creating NFS volume...", e.endpoint("/nfs/create"), payload, stream.Defaults{
		Success: "NFS volume created successfully",
		Error:   "NFS volume creation failed",
		UnexpectedEnd: "Connection lost during NFS volume creation.\n" +
			"The volume may still be provisioning. Check 'tp nfs list' to see the current status.",
	})
}

// NFSDestroy deletes a volume over a streaming session.
func (e Env) NFSDestroy(storageID string) stream.Outcome {
	if storageID == "" {
		return stream.Outcome{Message: "Storage ID is required"}
	}
	return e.runWithSpinner("Destroying NFS volume...", e.endpoint("/nfs/destroy/"+storageID), nil, stream.Defaults{
		Success: fmt.Sprintf("NFS volume %s destroyed successfully", storageID),
		Error:   "NFS volume destruction failed",
		UnexpectedEnd: "Connection lost during NFS volume destruction.\n" +
			"The volume may still be destroying. Check 'tp nfs list' to see the current status.",
	})
}

// NFSAttach mounts a volume on one or more clusters.
func (e Env) NFSAttach(storageID string, clusterIDs []string) stream.Outcome {
	if outcome, ok := validateAttachment(storageID, clusterIDs); !ok {
		return outcome
	}
	payload := nfsAttachmentPayload{StorageID: storageID, ClusterIDs: clusterIDs}
	return e.runWithSpinner("Attaching NFS volume...", e.endpoint("/nfs/attach"), payload, stream.Defaults{
		Success: "NFS volume attached successfully",
		Error:   "NFS volume attachment failed",
		UnexpectedEnd: "Connection lost during NFS volume attachment.\n" +
			"The attachment may still be in progress. Check 'tp nfs list' to see the current status.",
	})
}

// NFSDetach unmounts a volume from one or more clusters.
func (e Env) NFSDetach(storageID string, clusterIDs []string) stream.Outcome {
	if outcome, ok := validateAttachment(storageID, clusterIDs); !ok {
		return outcome
	}
	payload := nfsAttachmentPayload{StorageID: storageID, ClusterIDs: clusterIDs}
	return e.runWithSpinner("Detaching NFS volume...", e.endpoint("/nfs/detach"), payload, stream.Defaults{
		Success: "NFS volume detached successfully",
		Error:   "NFS volume detachment failed",
		UnexpectedEnd: "Connection lost during NFS volume detachment.\n" +
			"The detachment may still be in progress. Check 'tp nfs list' to see the current status.",
	})
}

func validateAttachment(storageID string, clusterIDs []string) (stream.Outcome, bool) {
	if storageID == "" {
		return stream.Outcome{Message: "No storage ID provided"}, false
	}
	if len(clusterIDs) == 0 {
		return stream.Outcome{Message: "No cluster IDs provided"}, false
	}
	return stream.Outcome{}, true
}
