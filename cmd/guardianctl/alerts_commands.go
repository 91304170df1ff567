package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"farmguardian/internal/service/notify"
)

func newAlertsCommand(ctx *commandContext) *cobra.Command {
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show alert preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			var settings notify.Settings
			if err := ctx.client().get(cmd.Context(), "/api/alerts", &settings); err != nil {
				return err
			}
			return printSettings(cmd, ctx, settings)
		},
	}
	alertsCmd.AddCommand(newAlertsSetCommand(ctx))
	alertsCmd.AddCommand(newAlertsTestCommand(ctx))
	return alertsCmd
}

func newAlertsSetCommand(ctx *commandContext) *cobra.Command {
	var alerts, sound bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change alert preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			var update notify.SettingsUpdate
			if cmd.Flags().Changed("enabled") {
				update.AlertsEnabled = &alerts
			}
			if cmd.Flags().Changed("sound") {
				update.SoundEnabled = &sound
			}
			if update.AlertsEnabled == nil && update.SoundEnabled == nil {
				return fmt.Errorf("nothing to change: pass --enabled or --sound")
			}

			var settings notify.Settings
			if err := ctx.client().post(cmd.Context(), "/api/alerts", update, &settings); err != nil {
				return err
			}
			return printSettings(cmd, ctx, settings)
		},
	}
	cmd.Flags().BoolVar(&alerts, "enabled", true, "Send push notifications for detections")
	cmd.Flags().BoolVar(&sound, "sound", true, "Play the dashboard alert sound")
	return cmd
}

func newAlertsTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().post(cmd.Context(), "/api/alerts/test", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}

func printSettings(cmd *cobra.Command, ctx *commandContext, settings notify.Settings) error {
	if ctx.json {
		return writeJSON(cmd, settings)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Alerts: %s\n", yesNo(settings.AlertsEnabled))
	fmt.Fprintf(out, "Sound:  %s\n", yesNo(settings.SoundEnabled))
	return nil
}
