package main

import (
	"github.com/spf13/cobra"

	"github.com/tensorpool/tp/internal/client"
	"github.com/tensorpool/tp/internal/ops"
)

func newClusterCmd(root *rootOptions) *cobra.Command {
	clusterCmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster operations",
	}
	clusterCmd.AddCommand(newClusterCreateCmd(root))
	clusterCmd.AddCommand(newClusterDestroyCmd(root))
	clusterCmd.AddCommand(newClusterListCmd(root))
	clusterCmd.AddCommand(newClusterInfoCmd(root))
	clusterCmd.AddCommand(newClusterEditCmd(root))
	return clusterCmd
}

func newClusterCreateCmd(root *rootOptions) *cobra.Command {
	spec := ops.ClusterSpec{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return finish(root.ops().ClusterCreate(spec))
		},
	}
	cmd.Flags().StringVarP(&spec.InstanceType, "instance-type", "t", "", "instance type, e.g. 8xH100 (required)")
	cmd.Flags().StringVar(&spec.Name, "name", "", "human readable cluster name")
	cmd.Flags().IntVarP(&spec.NumNodes, "num-nodes", "n", 1, "number of nodes")
	cmd.Flags().BoolVar(&spec.DeletionProtection, "deletion-protection", false, "refuse destroy until the flag is cleared")
	cmd.Flags().StringVarP(&spec.IdentityFile, "public-key", "i", "", "public SSH key file to authorize on the nodes")
	_ = cmd.MarkFlagRequired("instance-type")
	return cmd
}

func newClusterDestroyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "destroy <cluster-id>",
		Aliases: []string{"rm"},
		Short:   "Destroy a cluster",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return finish(root.ops().ClusterDestroy(args[0]))
		},
	}
}

func newClusterListCmd(root *rootOptions) *cobra.Command {
	var org bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clusters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().ClusterList(ctx, org))
		},
	}
	cmd.Flags().BoolVar(&org, "org", false, "list clusters across the whole organization")
	return cmd
}

func newClusterInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <cluster-id>",
		Short: "Show cluster details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().ClusterInfo(ctx, args[0]))
		},
	}
}

func newClusterEditCmd(root *rootOptions) *cobra.Command {
	var name string
	var deletionProtection bool
	cmd := &cobra.Command{
		Use:   "edit <cluster-id>",
		Short: "Change cluster properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only flags the user actually set are sent; the engine
			// leaves the rest untouched.
			edit := client.ClusterEdit{}
			if cmd.Flags().Changed("name") {
				edit.Name = &name
			}
			if cmd.Flags().Changed("deletion-protection") {
				edit.DeletionProtection = &deletionProtection
			}
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().EditCluster(ctx, args[0], edit))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new cluster name")
	cmd.Flags().BoolVar(&deletionProtection, "deletion-protection", false, "enable or disable deletion protection")
	return cmd
}
