package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"farmguardian/internal/dto"
	"farmguardian/internal/model"
	"farmguardian/internal/repository/sqlite"
	"farmguardian/internal/service/storage"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse and maintain the detection archive",
	}
	archiveCmd.AddCommand(newArchiveListCommand(ctx))
	archiveCmd.AddCommand(newArchiveLabelsCommand(ctx))
	archiveCmd.AddCommand(newArchiveImportCommand())
	return archiveCmd
}

func newArchiveListCommand(ctx *commandContext) *cobra.Command {
	var page, limit int
	var camera, animal, after, before string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived detections",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("page", strconv.Itoa(page))
			q.Set("limit", strconv.Itoa(limit))
			setIf(q, "camera", camera)
			setIf(q, "animal", animal)
			setIf(q, "dateAfter", after)
			setIf(q, "dateBefore", before)

			var result dto.ArchivePage
			if err := ctx.client().get(cmd.Context(), "/api/archive?"+q.Encode(), &result); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, result)
			}
			if len(result.Detections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No archived detections match")
				return nil
			}

			detections := make([]model.Detection, 0, len(result.Detections))
			for _, d := range result.Detections {
				detections = append(detections, d.Detection)
			}
			printDetections(cmd, detections)
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d total)\n", result.CurrentPage, result.TotalPages, result.Length)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 24, "Rows per page")
	cmd.Flags().StringVar(&camera, "camera", "", "Only this camera")
	cmd.Flags().StringVar(&animal, "animal", "", "Only this animal type")
	cmd.Flags().StringVar(&after, "after", "", "From date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&before, "before", "", "Until date inclusive (YYYY-MM-DD)")
	return cmd
}

func newArchiveLabelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List animal types present in the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			var labels []string
			if err := ctx.client().get(cmd.Context(), "/api/archive/labels", &labels); err != nil {
				return err
			}
			if ctx.json {
				return writeJSON(cmd, labels)
			}
			for _, label := range labels {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}

// newArchiveImportCommand registers frames already on disk in a local archive database.
func newArchiveImportCommand() *cobra.Command {
	var imagesDir, dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Register archived frames from an image directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Importing frames from %s into %s\n", imagesDir, dbPath)

			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
			db, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			snaps, skipped, err := storage.ScanSnapshots(imagesDir)
			if err != nil {
				return err
			}
			for _, name := range skipped {
				fmt.Fprintf(out, "⚠️  Skipping %s: not an archive frame\n", name)
			}
			if len(snaps) == 0 {
				fmt.Fprintln(out, "No frames found to import")
				return nil
			}

			repo := sqlite.NewSnapshotRepository(db)
			inserted, err := repo.InsertBatch(snaps)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ Imported %d frames (%d already known)\n", inserted, len(snaps)-inserted)

			counts, err := repo.CountByCamera()
			if err != nil {
				return err
			}
			size, err := repo.GetTotalSize()
			if err != nil {
				return err
			}
			cameras := make([]string, 0, len(counts))
			for camera := range counts {
				cameras = append(cameras, camera)
			}
			sort.Strings(cameras)
			rows := make([][]string, 0, len(cameras))
			for _, camera := range cameras {
				rows = append(rows, []string{camera, strconv.Itoa(counts[camera])})
			}
			printTable(cmd, []string{"Camera", "Frames"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprintf(out, "Total size: %d bytes\n", size)
			return nil
		},
	}
	cmd.Flags().StringVar(&imagesDir, "images", "images", "Directory containing archived frames")
	cmd.Flags().StringVar(&dbPath, "db", filepath.Join("data", "archive.db"), "Archive database path")
	return cmd
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
