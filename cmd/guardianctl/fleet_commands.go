package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"farmguardian/internal/service/fleet"
)

func newCamerasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cameras",
		Short: "List cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cameras []fleet.Camera
			if err := ctx.client().get(cmd.Context(), "/api/cameras", &cameras); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, cameras)
			}
			printCameras(cmd, cameras...)
			return nil
		},
	}
}

func newCameraCommand(ctx *commandContext) *cobra.Command {
	cameraCmd := &cobra.Command{
		Use:   "camera",
		Short: "Manage a single camera",
	}
	cameraCmd.AddCommand(newCameraAddCommand(ctx))
	cameraCmd.AddCommand(newCameraToggleCommand(ctx))
	return cameraCmd
}

func newCameraAddCommand(ctx *commandContext) *cobra.Command {
	var name, location string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"name": name, "location": location}
			var cam fleet.Camera
			if err := ctx.client().post(cmd.Context(), "/api/cameras", body, &cam); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, cam)
			}
			printCameras(cmd, cam)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Camera name (default \"Camera N\")")
	cmd.Flags().StringVar(&location, "location", "", "Where the camera is mounted")
	return cmd
}

func newCameraToggleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Start or stop monitoring on a camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cam fleet.Camera
			path := "/api/cameras/" + url.PathEscape(args[0]) + "/toggle"
			if err := ctx.client().post(cmd.Context(), path, nil, &cam); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, cam)
			}
			printCameras(cmd, cam)
			return nil
		},
	}
}

func printCameras(cmd *cobra.Command, cameras ...fleet.Camera) {
	rows := make([][]string, 0, len(cameras))
	for _, cam := range cameras {
		last := "-"
		if cam.LastDetection != nil {
			last = formatStamp(*cam.LastDetection)
		}
		rows = append(rows, []string{
			cam.ID,
			cam.Name,
			cam.Location,
			yesNo(cam.Online),
			yesNo(cam.Monitoring),
			fmt.Sprintf("%d%%", cam.BatteryLevel),
			last,
		})
	}
	printTable(cmd,
		[]string{"ID", "Name", "Location", "Online", "Monitoring", "Battery", "Last detection"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List deterrent devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			var devices []fleet.Device
			if err := ctx.client().get(cmd.Context(), "/api/devices", &devices); err != nil {
				return err
			}
			return showDevices(cmd, ctx, devices)
		},
	}
}

func newDeviceCommand(ctx *commandContext) *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "Control a single deterrent device",
	}
	deviceCmd.AddCommand(newDeviceToggleCommand(ctx))
	deviceCmd.AddCommand(newDeviceIntensityCommand(ctx))
	return deviceCmd
}

func newDeviceToggleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate or deactivate a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var device fleet.Device
			path := "/api/devices/" + url.PathEscape(args[0]) + "/toggle"
			if err := ctx.client().post(cmd.Context(), path, nil, &device); err != nil {
				return err
			}
			return showDevices(cmd, ctx, []fleet.Device{device})
		},
	}
}

func newDeviceIntensityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "intensity <id> <0-100>",
		Short: "Set a device's intensity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("intensity must be a number: %w", err)
			}
			var device fleet.Device
			path := "/api/devices/" + url.PathEscape(args[0]) + "/intensity"
			body := map[string]int{"intensity": value}
			if err := ctx.client().post(cmd.Context(), path, body, &device); err != nil {
				return err
			}
			return showDevices(cmd, ctx, []fleet.Device{device})
		},
	}
}

func newEmergencyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "emergency",
		Short: "Activate every online deterrent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var devices []fleet.Device
			if err := ctx.client().post(cmd.Context(), "/api/devices/emergency", nil, &devices); err != nil {
				return err
			}
			return showDevices(cmd, ctx, devices)
		},
	}
}

func newDeactivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate every deterrent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var devices []fleet.Device
			if err := ctx.client().post(cmd.Context(), "/api/devices/deactivate", nil, &devices); err != nil {
				return err
			}
			return showDevices(cmd, ctx, devices)
		},
	}
}

func showDevices(cmd *cobra.Command, ctx *commandContext, devices []fleet.Device) error {
	if ctx.json {
		return writeJSON(cmd, devices)
	}
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		battery := "-"
		if d.BatteryLevel != nil {
			battery = fmt.Sprintf("%d%%", *d.BatteryLevel)
		}
		rows = append(rows, []string{
			d.ID,
			d.Name,
			string(d.Type),
			yesNo(d.Online),
			yesNo(d.Active),
			fmt.Sprintf("%d%%", d.Intensity),
			battery,
		})
	}
	printTable(cmd,
		[]string{"ID", "Name", "Type", "Online", "Active", "Intensity", "Battery"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
	return nil
}
