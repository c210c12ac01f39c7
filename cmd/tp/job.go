package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tensorpool/tp/internal/client"
	"github.com/tensorpool/tp/internal/stream"
)

const defaultJobConfig = "tp.config.toml"

func newJobCmd(root *rootOptions) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Job operations",
	}
	jobCmd.AddCommand(newJobInitCmd(root))
	jobCmd.AddCommand(newJobPushCmd(root))
	jobCmd.AddCommand(newJobListenCmd(root))
	jobCmd.AddCommand(newJobPullCmd(root))
	jobCmd.AddCommand(newJobCancelCmd(root))
	jobCmd.AddCommand(newJobListCmd(root))
	jobCmd.AddCommand(newJobInfoCmd(root))
	return jobCmd
}

func newJobInitCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an empty tp.config.toml template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			config, msg, err := root.api().EmptyJobConfig(ctx)
			if err != nil {
				return err
			}
			path := uniqueConfigPath(defaultJobConfig)
			if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
				return err
			}
			fmt.Printf("Created %s\n", path)
			if msg != "" {
				fmt.Println(msg)
			}
			return nil
		},
	}
}

// uniqueConfigPath never clobbers an existing config: tp.config.toml,
// then tp.config (1).toml, tp.config (2).toml, ...
func uniqueConfigPath(base string) string {
	if _, err := os.Stat(base); err != nil {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}

func newJobPushCmd(root *rootOptions) *cobra.Command {
	var configPath string
	var identityFile string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Submit the job described by tp.config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			private, public, err := keyPaths(identityFile)
			if err != nil {
				return err
			}
			out := root.ops().JobPush(configPath, public, private)
			if out.Success && out.JobID != "" {
				fmt.Printf("Job ID: %s\n", out.JobID)
			}
			return finish(out)
		},
	}
	cmd.Flags().StringVarP(&configPath, "file", "f", defaultJobConfig, "job config file to push")
	cmd.Flags().StringVarP(&identityFile, "identity-file", "i", "~/.ssh/id_ed25519", "SSH private key; the matching .pub is sent to the engine")
	return cmd
}

func newJobListenCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listen <job-id>",
		Short: "Stream a running job's output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return finish(root.ops().JobListen(args[0]))
		},
	}
}

func newJobPullCmd(root *rootOptions) *cobra.Command {
	var force bool
	var identityFile string
	cmd := &cobra.Command{
		Use:   "pull <job-id> [files...]",
		Short: "Download a job's output files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			private, _, err := keyPaths(identityFile)
			if err != nil {
				return err
			}
			ctx, cancel := root.ctx()
			defer cancel()
			res, err := root.api().JobPull(ctx, args[0], args[1:], private)
			if err != nil {
				return err
			}
			if res.Message != "" {
				fmt.Println(res.Message)
			}
			if res.Command != "" {
				if r := stream.RunLocal(res.Command, res.CommandShowStdout); r.ExitCode != 0 {
					return fmt.Errorf("pull preparation command failed with exit code %d", r.ExitCode)
				}
			}
			if len(res.DownloadMap) == 0 {
				fmt.Println("Nothing to download")
				return nil
			}
			// Downloads manage their own per-file retries; don't cap
			// the whole batch with the command timeout.
			err = root.api().DownloadFiles(cmd.Context(), res.DownloadMap, client.DownloadOptions{
				Overwrite: force,
				Progress:  os.Stdout,
			})
			if err != nil {
				return err
			}
			fmt.Println("Download complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite files that already exist locally")
	cmd.Flags().StringVarP(&identityFile, "identity-file", "i", "~/.ssh/id_ed25519", "SSH private key used to fetch encrypted outputs")
	return cmd
}

func newJobCancelCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return finish(root.ops().JobCancel(args[0]))
		},
	}
}

func newJobListCmd(root *rootOptions) *cobra.Command {
	var org bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List jobs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().JobList(ctx, org))
		},
	}
	cmd.Flags().BoolVar(&org, "org", false, "list jobs across the whole organization")
	return cmd
}

func newJobInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <job-id>",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().JobInfo(ctx, args[0]))
		},
	}
}

// keyPaths expands an identity file path and derives the matching
// public key path (private + ".pub").
func keyPaths(identityFile string) (private, public string, err error) {
	private = identityFile
	if strings.HasPrefix(private, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		private = filepath.Join(home, private[2:])
	}
	return private, private + ".pub", nil
}
