package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imtiler/pkg/imageio"
	tileio "github.com/matzehuels/imtiler/pkg/io"
	"github.com/matzehuels/imtiler/pkg/pipeline"
)

// sampleCommand creates the sample command for single-sampler runs.
func (c *CLI) sampleCommand() *cobra.Command {
	flags := newOptionFlags()
	var (
		cf          cacheFlags
		labelsImage string
	)

	cmd := &cobra.Command{
		Use:   "sample MASK",
		Short: "Place tiles on a validity mask",
		Long: `Place tiles on a validity mask with one sampler.

Modes:
  mask      random tiles whose overlap stays within --accept
  coverage  random tiles with at least --min-coverage valid pixels
  rect      tiles centred on every connected region
  region    one coverage or mask sampler per connected region

Examples:
  imtiler sample mask.png -n 50 -o tiles.json
  imtiler sample mask.png --mode coverage --min-coverage 90%
  imtiler sample mask.png --mode rect --conn 4 --labels-image labels.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, "")
			if err != nil {
				return err
			}
			if opts.Mode == pipeline.ModeClasses || opts.Mode == pipeline.ModeDetection {
				return fmt.Errorf("mode %s has its own command", opts.Mode)
			}

			in := pipeline.Input{Source: args[0]}
			if in.Mask, err = imageio.LoadMask(args[0]); err != nil {
				return err
			}
			if labelsImage != "" {
				if in.Labels, err = imageio.LoadLabels(labelsImage); err != nil {
					return err
				}
			}
			return c.place(cmd.Context(), in, opts, cf, flags.output)
		},
	}

	flags.registerCommon(cmd)
	flags.registerSampler(cmd)
	cf.register(cmd)
	cmd.Flags().StringVar(&labelsImage, "labels-image", "", "label image for rect and region modes (default: label the mask)")

	return cmd
}

// place runs one placement and reports it. The document is written to
// output when it is set.
func (c *CLI) place(ctx context.Context, in pipeline.Input, opts pipeline.Options, cf cacheFlags, output string) error {
	runner, err := c.newRunner(ctx, cf)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Placing %s tiles...", opts.Mode))
	spinner.Start()
	res, err := runner.Execute(ctx, in, opts)
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("place tiles: %w", err)
	}

	printSuccess("Placed %d tiles on %s", res.Document.Total(), in.Source)
	printResult(res.Document, res.CacheHit)

	if output == "" {
		printNewline()
		printNextStep("Save the placement", "imtiler ... -o result.json")
		return nil
	}
	if err := tileio.ExportJSON(res.Document, output); err != nil {
		return err
	}
	printFile(output)
	return nil
}
