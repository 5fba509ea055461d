package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imtiler/pkg/imageio"
	tileio "github.com/matzehuels/imtiler/pkg/io"
	"github.com/matzehuels/imtiler/pkg/pipeline"
)

// extractCommand creates the extract command, which cuts the tiles of a
// result document out of an image.
func (c *CLI) extractCommand() *cobra.Command {
	var (
		output string
		save   imageio.SaveOptions
	)

	cmd := &cobra.Command{
		Use:   "extract IMAGE RESULT",
		Short: "Cut the tiles of a result document out of an image",
		Long: `Cut the tiles of a result document out of IMAGE and write one file per
tile below DIR/<category>/, with a tileinfo.txt listing the tile bounds.
Tiles that reach past the image border are zero-padded.

Example:
  imtiler extract slide.tif classes.json -o tiles/ --format tiff`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			img, err := imageio.LoadImage(args[0])
			if err != nil {
				return err
			}
			doc, err := tileio.ImportJSON(args[1])
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			spinner := newSpinner(ctx, fmt.Sprintf("Writing %d tiles...", doc.Total()))
			spinner.Start()
			stats, err := runner.Save(ctx, img, doc, output, save)
			spinner.Stop()
			if err != nil {
				return err
			}

			printSuccess("Wrote %d tiles", stats.Written)
			if stats.Skipped > 0 {
				printWarning("Skipped %d existing tiles (use --overwrite to replace them)", stats.Skipped)
			}
			if stats.Removed > 0 {
				printDetail("Removed %d earlier tiles", stats.Removed)
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "tiles", "output directory")
	registerSaveFlags(cmd, &save)

	return cmd
}

func registerSaveFlags(cmd *cobra.Command, save *imageio.SaveOptions) {
	cmd.Flags().StringVar(&save.Prefix, "prefix", "tile", "tile filename prefix")
	cmd.Flags().StringVar(&save.Format, "format", imageio.FormatPNG, "tile format: png, tiff or bmp")
	cmd.Flags().BoolVar(&save.Overwrite, "overwrite", false, "replace tiles from an earlier run")
	cmd.Flags().IntVar(&save.Workers, "workers", 0, "parallel tile encoders (default: number of CPUs)")
}
