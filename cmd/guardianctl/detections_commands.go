package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"farmguardian/internal/model"
)

// statsPayload mirrors the stats endpoint; hours arrive as chart labels.
type statsPayload struct {
	TotalDetections   int     `json:"totalDetections"`
	ActiveAlerts      int     `json:"activeAlerts"`
	SpeciesDetected   int     `json:"speciesDetected"`
	AverageConfidence float64 `json:"averageConfidence"`
	Hourly            []struct {
		Hour  string `json:"hour"`
		Count int    `json:"count"`
	} `json:"hourly"`
	Distribution []struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	} `json:"distribution"`
}

func newDetectionsCommand(ctx *commandContext) *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "detections",
		Short: "List recent detections (newest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			var detections []model.Detection
			if latest {
				var d model.Detection
				err := client.get(cmd.Context(), "/api/detections/latest", &d)
				if errors.Is(err, errNoContent) {
					fmt.Fprintln(cmd.OutOrStdout(), "No detections yet")
					return nil
				}
				if err != nil {
					return err
				}
				detections = append(detections, d)
			} else if err := client.get(cmd.Context(), "/api/detections", &detections); err != nil {
				return err
			}

			if ctx.json {
				return writeJSON(cmd, detections)
			}
			if len(detections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No detections yet")
				return nil
			}
			printDetections(cmd, detections)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "Show only the most recent detection")
	return cmd
}

func printDetections(cmd *cobra.Command, detections []model.Detection) {
	rows := make([][]string, 0, len(detections))
	for _, d := range detections {
		box := "-"
		if d.BoundingBox != nil {
			b := d.BoundingBox
			box = fmt.Sprintf("%.0f,%.0f %.0fx%.0f", b.X, b.Y, b.Width, b.Height)
		}
		camera := d.CameraID
		if camera == "" {
			camera = "-"
		}
		rows = append(rows, []string{
			formatStamp(d.Timestamp),
			d.AnimalType,
			formatPercent(d.Confidence),
			camera,
			string(d.Source),
			box,
		})
	}
	printTable(cmd,
		[]string{"Time", "Animal", "Confidence", "Camera", "Source", "Box"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var hourly bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show detection statistics for the recent window",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats statsPayload
			if err := ctx.client().get(cmd.Context(), "/api/stats", &stats); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total detections:   %d\n", stats.TotalDetections)
			fmt.Fprintf(out, "Active alerts:      %d\n", stats.ActiveAlerts)
			fmt.Fprintf(out, "Species detected:   %d\n", stats.SpeciesDetected)
			fmt.Fprintf(out, "Average confidence: %s\n", formatPercent(stats.AverageConfidence))

			if len(stats.Distribution) > 0 {
				rows := make([][]string, 0, len(stats.Distribution))
				for _, slice := range stats.Distribution {
					rows = append(rows, []string{slice.Name, strconv.Itoa(slice.Value)})
				}
				printTable(cmd, []string{"Animal", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
			}

			if hourly {
				rows := make([][]string, 0, len(stats.Hourly))
				for _, bucket := range stats.Hourly {
					rows = append(rows, []string{bucket.Hour, strconv.Itoa(bucket.Count)})
				}
				printTable(cmd, []string{"Hour", "Count"}, rows, []columnAlignment{alignRight, alignRight})
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&hourly, "hourly", false, "Include the 24-hour activity table")
	return cmd
}
