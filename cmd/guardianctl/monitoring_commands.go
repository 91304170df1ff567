package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"farmguardian/internal/service"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the monitoring session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status service.Status
			if err := ctx.client().get(cmd.Context(), "/api/status", &status); err != nil {
				return err
			}
			return printStatus(cmd, ctx, status)
		},
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start monitoring",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status service.Status
			if err := ctx.client().post(cmd.Context(), "/api/monitoring/start", nil, &status); err != nil {
				return err
			}
			return printStatus(cmd, ctx, status)
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop monitoring and release the camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status service.Status
			if err := ctx.client().post(cmd.Context(), "/api/monitoring/stop", nil, &status); err != nil {
				return err
			}
			return printStatus(cmd, ctx, status)
		},
	}
}

func printStatus(cmd *cobra.Command, ctx *commandContext, status service.Status) error {
	if ctx.json {
		return writeJSON(cmd, status)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Monitoring: %s\n", yesNo(status.Monitoring))
	fmt.Fprintf(out, "Mode:       %s\n", status.Mode)
	fmt.Fprintf(out, "Camera:     %s", status.CameraID)
	if status.CameraLabel != "" {
		fmt.Fprintf(out, " (%s)", status.CameraLabel)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "AI model:   %s", yesNo(status.ClassifierReady))
	if status.ClassifierBackend != "" {
		fmt.Fprintf(out, " (%s)", status.ClassifierBackend)
	}
	fmt.Fprintln(out)
	if status.DemoProfile != "" {
		fmt.Fprintf(out, "Demo:       %s\n", status.DemoProfile)
	}
	if status.StartedAt != nil {
		fmt.Fprintf(out, "Running:    %s (since %s)\n", time.Since(*status.StartedAt).Round(time.Second), formatStamp(*status.StartedAt))
	}
	fmt.Fprintf(out, "Detections: %d\n", status.Detections)
	if status.Notice != "" {
		fmt.Fprintf(out, "Notice:     %s\n", status.Notice)
	}
	return nil
}
