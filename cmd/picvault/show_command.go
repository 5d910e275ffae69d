package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <image-id>",
		Short: "Show one upload in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			img, err := client.GetImage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch image: %w", err)
			}

			rows := [][]string{
				{"ID", img.ImageID},
				{"Original name", img.OriginalName},
				{"Status", uploadStatus(img)},
				{"Processed at", img.ProcessedAt},
			}
			if img.Error != "" {
				rows = append(rows, []string{"Error", img.Error})
			}
			if meta := img.Metadata; meta != nil {
				rows = append(rows,
					[]string{"SHA-256", meta.SHA256},
					[]string{"Format", meta.Format},
					[]string{"Dimensions", strconv.Itoa(meta.Width) + "x" + strconv.Itoa(meta.Height)},
					[]string{"Size", strconv.FormatInt(meta.SizeBytes, 10) + " bytes"},
					[]string{"First upload", meta.FirstUpload},
				)
				if meta.Caption != "" {
					rows = append(rows, []string{"Caption", meta.Caption})
				}
				if len(meta.Exif) > 0 {
					rows = append(rows, []string{"EXIF", string(meta.Exif)})
				}
			}
			if img.Thumbnails != nil {
				rows = append(rows,
					[]string{"Thumbnail (small)", img.Thumbnails.Small},
					[]string{"Thumbnail (medium)", img.Thumbnails.Medium},
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}
