package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

func newSSHCmd(root *rootOptions) *cobra.Command {
	sshCmd := &cobra.Command{
		Use:   "ssh",
		Short: "SSH access to cluster nodes",
	}
	sshCmd.AddCommand(newSSHConnectCmd(root))
	sshCmd.AddCommand(newSSHKeyCmd(root))
	return sshCmd
}

func newSSHConnectCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect <instance-id> [-- ssh-args...]",
		Short: "Open an interactive SSH session to an instance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			command, msg, err := root.api().SSHCommand(ctx, args[0])
			if err != nil {
				return err
			}
			if msg != "" {
				fmt.Println(msg)
			}
			if command == "" {
				return fmt.Errorf("engine returned no SSH command for instance %s", args[0])
			}
			if len(args) > 1 {
				command = command + " " + strings.Join(args[1:], " ")
			}
			return runInteractive(command)
		},
	}
	return cmd
}

// runInteractive hands the terminal to the command; ssh needs the real
// stdin/stdout for its TTY. The child's exit code becomes ours.
func runInteractive(command string) error {
	child := exec.Command("sh", "-c", command)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	err := child.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	return err
}

func newSSHKeyCmd(root *rootOptions) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage authorized SSH keys",
	}
	keyCmd.AddCommand(newSSHKeyCreateCmd(root))
	keyCmd.AddCommand(newSSHKeyListCmd(root))
	keyCmd.AddCommand(newSSHKeyDestroyCmd(root))
	return keyCmd
}

func newSSHKeyCreateCmd(root *rootOptions) *cobra.Command {
	var name string
	var keyFile string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a public SSH key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, public, err := keyPaths(keyFile)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(public)
			if err != nil {
				return fmt.Errorf("SSH key file not found: %s", public)
			}
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().CreateSSHKey(ctx, strings.TrimSpace(string(data)), name))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "label for the key")
	cmd.Flags().StringVarP(&keyFile, "identity-file", "i", "~/.ssh/id_ed25519", "private key whose .pub to register")
	return cmd
}

func newSSHKeyListCmd(root *rootOptions) *cobra.Command {
	var org bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered SSH keys",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().ListSSHKeys(ctx, org))
		},
	}
	cmd.Flags().BoolVar(&org, "org", false, "list keys across the whole organization")
	return cmd
}

func newSSHKeyDestroyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "destroy <key-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a registered SSH key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := root.ctx()
			defer cancel()
			return printResult(root.api().DestroySSHKey(ctx, args[0]))
		},
	}
}
