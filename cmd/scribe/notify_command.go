package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/notifications"
	"scribe/internal/services"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Send a test notification to the configured ntfy topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
			if topic == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "send test notification",
					"notifications.ntfy_topic is not set", nil)
			}
			if err := notifications.NewService(cfg).Test(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent test notification to %s\n", topic)
			return nil
		},
	}
}
