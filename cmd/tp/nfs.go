package main

import (
	"github.com/spf13/cobra"

	"github.com/tensorpool/tp/internal/client"
	"github.com/tensorpool/tp/internal/ops"
)

func newNFSCmd(root *rootOptions) *cobra.Command {
	nfsCmd := &cobra.Command{
		Use:   "nfs",
		Short: "Shared storage operations",
	}
	nfsCmd.AddCommand(newNFSCreateCmd(root))
	nfsCmd.AddCommand(newNFSDestroyCmd(root))
	nfsCmd.AddCommand(newNFSAttachCmd(root))
	nfsCmd.AddCommand(newNFSDetachCmd(root))
	nfsCmd.AddCommand(newNFSListCmd(root))
	nfsCmd.AddCommand(newNFSInfoCmd(root))
	nfsCmd.AddCommand(newNFSEditCmd(root))
	return nfsCmd
}

func newNFSCreateCmd(root *rootOptions) *cobra.Command {
	spec := ops.NFSSpec{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a shared NFS volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return finish(root.ops().NFSCreate(spec))
		},
	}
	cmd.Flags().IntVarP(&spec.SizeGB, "size", "s", 0, "volume size in GB (required)")
	cmd.Flags().StringVar(&spec.Name, "name", "", "human readable volume name")
	cmd.Flags().BoolVar(&spec.DeletionProtection, "deletion-protection", false, "refuse destroy until the flag is cleared")
	_ = cmd.MarkFlagRequired("size")
	return cmd
}

func newNFSDestroyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "destroy <storage-id>",
		Aliases: []string{"rm"},
		Short:   "Destroy an NFS volume",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return finish(root.ops().NFSDestroy(args[0]))
		},
	}
}

func newNFSAttachCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <storage-id> <cluster-id>...",
		Short: "Attach a volume to clusters",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return finish(root.ops().NFSAttach(args[0], args[1:]))
		},
	}
}

func newNFSDetachCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <storage-id> <cluster-id>...",
		Short: "Detach a volume from clusters",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return finish(root.ops().NFSDetach(args[0], args[1:]))
		},
	}
}

func newNFSListCmd(root *rootOptions) *cobra.Command {
	var org bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List NFS volumes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().NFSList(ctx, org))
		},
	}
	cmd.Flags().BoolVar(&org, "org", false, "list volumes across the whole organization")
	return cmd
}

func newNFSInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <storage-id>",
		Short: "Show volume details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().NFSInfo(ctx, args[0]))
		},
	}
}

func newNFSEditCmd(root *rootOptions) *cobra.Command {
	var name string
	var deletionProtection bool
	var sizeGB int
	cmd := &cobra.Command{
		Use:   "edit <storage-id>",
		Short: "Change volume properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edit := client.NFSEdit{}
			if cmd.Flags().Changed("name") {
				edit.Name = &name
			}
			if cmd.Flags().Changed("deletion-protection") {
				edit.DeletionProtection = &deletionProtection
			}
			if cmd.Flags().Changed("size") {
				edit.SizeGB = &sizeGB
			}
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().EditNFS(ctx, args[0], edit))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new volume name")
	cmd.Flags().BoolVar(&deletionProtection, "deletion-protection", false, "enable or disable deletion protection")
	cmd.Flags().IntVarP(&sizeGB, "size", "s", 0, "grow the volume to this size in GB")
	return cmd
}
