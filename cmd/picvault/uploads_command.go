package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"picvault/internal/api"
)

func newUploadsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List recorded uploads, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			list, err := client.ListImages(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("fetch uploads: %w", err)
			}
			if list.Count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No uploads recorded.")
				return nil
			}

			rows := make([][]string, 0, len(list.Images))
			for _, img := range list.Images {
				rows = append(rows, []string{
					img.ImageID,
					img.OriginalName,
					uploadStatus(img),
					img.ProcessedAt,
					uploadDimensions(img),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Status", "Processed", "Dimensions"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show (0 for all)")
	return cmd
}

func uploadStatus(img api.Image) string {
	if img.Error != "" {
		return "failed"
	}
	if img.Duplicate {
		return "duplicate"
	}
	return "stored"
}

func uploadDimensions(img api.Image) string {
	if img.Metadata == nil {
		return ""
	}
	return strconv.Itoa(img.Metadata.Width) + "x" + strconv.Itoa(img.Metadata.Height)
}
