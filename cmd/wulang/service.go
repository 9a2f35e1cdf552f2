package main

import (
	"github.com/chris/wulang/internal/service"
	"github.com/spf13/cobra"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the systemd user service",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install and start the service for the current directory",
			RunE:  func(*cobra.Command, []string) error { return service.Install() },
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Stop and remove the service",
			RunE:  func(*cobra.Command, []string) error { return service.Uninstall() },
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show service status",
			RunE:  func(*cobra.Command, []string) error { return service.Status() },
		},
	)
	return cmd
}
