package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/imtiler/pkg/imageio"
	"github.com/matzehuels/imtiler/pkg/pipeline"
)

// classesCommand creates the classes command for positive, negative and
// false-positive tile sets.
func (c *CLI) classesCommand() *cobra.Command {
	flags := newOptionFlags()
	var (
		cf                       cacheFlags
		posPath, negPath, fpPath string
	)

	cmd := &cobra.Command{
		Use:   "classes --pos POS --neg NEG [--fp FP]",
		Short: "Place positive, negative and false-positive tiles",
		Long: `Place tiles for classifier training from class masks.

Positive tiles are centred on every positive region, with extra tiles that
cover each region. Negative tiles lie fully inside the negative mask.
False-positive tiles are centred on false-positive regions that do not touch
the positive mask.

Example:
  imtiler classes --pos pos.png --neg neg.png --fp fp.png -d 128 -o classes.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, pipeline.ModeClasses)
			if err != nil {
				return err
			}

			in := pipeline.Input{Source: posPath}
			if in.Positive, err = imageio.LoadMask(posPath); err != nil {
				return err
			}
			if in.Negative, err = imageio.LoadMask(negPath); err != nil {
				return err
			}
			if fpPath != "" {
				if in.FalsePositive, err = imageio.LoadMask(fpPath); err != nil {
					return err
				}
			}
			return c.place(cmd.Context(), in, opts, cf, flags.output)
		},
	}

	flags.registerCommon(cmd)
	flags.registerClasses(cmd)
	cf.register(cmd)
	cmd.Flags().StringVar(&posPath, "pos", "", "positive mask image")
	cmd.Flags().StringVar(&negPath, "neg", "", "negative mask image")
	cmd.Flags().StringVar(&fpPath, "fp", "", "false-positive mask image")
	_ = cmd.MarkFlagRequired("pos")
	_ = cmd.MarkFlagRequired("neg")

	return cmd
}

// detectCommand creates the detect command.
func (c *CLI) detectCommand() *cobra.Command {
	flags := newOptionFlags()
	var cf cacheFlags

	cmd := &cobra.Command{
		Use:   "detect DETMASK",
		Short: "Place tiles on detections and on the background",
		Long: `Place one tile on every detection in DETMASK and, by default, as many
background tiles as there are detections.

Example:
  imtiler detect detections.png -d 32 -o detect.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, pipeline.ModeDetection)
			if err != nil {
				return err
			}
			in := pipeline.Input{Source: args[0]}
			if in.Positive, err = imageio.LoadMask(args[0]); err != nil {
				return err
			}
			return c.place(cmd.Context(), in, opts, cf, flags.output)
		},
	}

	flags.registerCommon(cmd)
	cf.register(cmd)

	return cmd
}
