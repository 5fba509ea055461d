package cli

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/imageio"
	tileio "github.com/matzehuels/imtiler/pkg/io"
	"github.com/matzehuels/imtiler/pkg/pipeline"
)

// imageExts lists the file extensions batch picks up.
var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp"}

type batchOpts struct {
	maskSuffix string
	masker     string
	workers    int
	output     string
	extract    bool
	save       imageio.SaveOptions
}

// batchCommand creates the batch command, which runs one placement per
// image of a directory or per [[job]] of a config file.
func (c *CLI) batchCommand() *cobra.Command {
	flags := newOptionFlags()
	var (
		cf   cacheFlags
		opts batchOpts
	)

	cmd := &cobra.Command{
		Use:   "batch [DIR]",
		Short: "Place tiles on every image of a directory",
		Long: `Place tiles on every image of DIR in parallel. Each image gets its own
seed, derived from --seed and the file name.

The validity mask of an image is read from a sibling file named with
--mask-suffix (slide.png -> slide_mask.png), or computed from the image with
--masker. Without DIR, the jobs are read from the [[job]] tables of --config.

Examples:
  imtiler batch slides/ --mask-suffix _mask -n 40 -o out/
  imtiler batch --config runs.toml -o out/ --extract

With batch, -o names a directory (default "out") that receives one
<name>.json per image and, with --extract, the tiles under <name>/.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var jobs []job
			switch {
			case len(args) == 1:
				base, err := flags.options(cmd, "")
				if err != nil {
					return err
				}
				if jobs, err = scanDir(args[0], base, opts); err != nil {
					return err
				}
			case flags.config != "":
				var err error
				if jobs, err = configJobs(cmd, flags); err != nil {
					return err
				}
			default:
				return fmt.Errorf("batch needs a directory or --config with [[job]] tables")
			}
			if len(jobs) == 0 {
				printInfo("No images found")
				return nil
			}

			opts.output = flags.output
			if opts.output == "" {
				opts.output = "out"
			}
			return c.runBatch(cmd.Context(), jobs, cf, opts)
		},
	}

	flags.registerCommon(cmd)
	flags.registerSampler(cmd)
	flags.registerClasses(cmd)
	cf.register(cmd)
	registerSaveFlags(cmd, &opts.save)
	cmd.Flags().StringVar(&opts.maskSuffix, "mask-suffix", "", "read each mask from <name><suffix>.<ext> next to the image")
	cmd.Flags().StringVar(&opts.masker, "masker", "all", "mask computed from the image: all, opaque or nonzero")
	cmd.Flags().IntVarP(&opts.workers, "jobs", "j", 0, "images placed in parallel (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.extract, "extract", false, "also cut the tiles out of each image")

	return cmd
}

// job is one batch entry with its source image, loaded lazily.
type job struct {
	pipeline.Job
	image string
}

// scanDir builds one job per image file of dir.
func scanDir(dir string, base pipeline.Options, opts batchOpts) ([]job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	masker, ok := imageio.ParseMasker(opts.masker)
	if !ok {
		return nil, fmt.Errorf("unknown masker %q (want all, opaque or nonzero)", opts.masker)
	}

	var jobs []job
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !slices.Contains(imageExts, ext) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if opts.maskSuffix != "" && strings.HasSuffix(stem, opts.maskSuffix) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		in := pipeline.Input{Source: path}
		if opts.maskSuffix != "" {
			in.Mask, err = imageio.LoadMask(filepath.Join(dir, stem+opts.maskSuffix+filepath.Ext(e.Name())))
		} else {
			var img image.Image
			if img, err = imageio.LoadImage(path); err == nil {
				in.Mask = masker.Mask(img)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		jobs = append(jobs, job{Job: pipeline.Job{Name: stem, Input: in, Options: base}, image: path})
	}
	return jobs, nil
}

// configJobs builds the jobs listed in the config file.
func configJobs(cmd *cobra.Command, flags *optionFlags) ([]job, error) {
	cfg, err := pipeline.LoadConfig(flags.config)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(flags.config)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	jobs := make([]job, 0, len(cfg.Jobs))
	for i, jc := range cfg.Jobs {
		opts := cfg.JobOptions(i)
		flags.overlay(cmd, &opts)
		if err := opts.ValidateAndSetDefaults(); err != nil {
			return nil, fmt.Errorf("job %s: %w", jc.Name, err)
		}
		in, err := loadJobInput(jc, resolve)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", jc.Name, err)
		}
		name := jc.Name
		if name == "" {
			name = fmt.Sprintf("job%d", i+1)
		}
		jobs = append(jobs, job{Job: pipeline.Job{Name: name, Input: in, Options: opts}, image: resolve(jc.Image)})
	}
	return jobs, nil
}

// loadJobInput reads the masks a config job names.
func loadJobInput(jc pipeline.JobConfig, resolve func(string) string) (pipeline.Input, error) {
	in := pipeline.Input{Source: jc.Image}
	masks := []struct {
		path string
		dst  **grid.Mask
	}{
		{jc.Mask, &in.Mask},
		{jc.Positive, &in.Positive},
		{jc.Negative, &in.Negative},
		{jc.FalsePositive, &in.FalsePositive},
	}
	for _, m := range masks {
		if m.path == "" {
			continue
		}
		mask, err := imageio.LoadMask(resolve(m.path))
		if err != nil {
			return in, err
		}
		*m.dst = mask
	}
	if jc.Labels != "" {
		labels, err := imageio.LoadLabels(resolve(jc.Labels))
		if err != nil {
			return in, err
		}
		in.Labels = labels
	}
	if in.Mask == nil && in.Positive == nil && in.Labels == nil && jc.Image != "" {
		mask, err := imageio.LoadMask(resolve(jc.Image))
		if err != nil {
			return in, err
		}
		in.Mask = mask
	}
	return in, nil
}

// runBatch places all jobs, writes their documents and optionally their tiles.
func (c *CLI) runBatch(ctx context.Context, jobs []job, cf cacheFlags, opts batchOpts) error {
	runner, err := c.newRunner(ctx, cf)
	if err != nil {
		return err
	}
	defer runner.Close()

	pjobs := make([]pipeline.Job, len(jobs))
	for i, j := range jobs {
		pjobs[i] = j.Job
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Placing tiles on %d images...", len(jobs)))
	spinner.Start()
	results, err := runner.Batch(ctx, pjobs, opts.workers)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("placed tiles on %d images", len(jobs)))

	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return err
	}
	var failed int
	for i, res := range results {
		if res.Err != nil {
			printError("%s: %v", res.Name, res.Err)
			failed++
			continue
		}
		doc := res.Result.Document
		path := filepath.Join(opts.output, res.Name+".json")
		if err := tileio.ExportJSON(doc, path); err != nil {
			return err
		}
		printSuccess("%s: %d tiles", res.Name, doc.Total())
		printFile(path)

		if !opts.extract || jobs[i].image == "" {
			continue
		}
		img, err := imageio.LoadImage(jobs[i].image)
		if err != nil {
			return err
		}
		stats, err := runner.Save(ctx, img, doc, filepath.Join(opts.output, res.Name), opts.save)
		if err != nil {
			return fmt.Errorf("%s: %w", res.Name, err)
		}
		printDetail("wrote %d tiles, skipped %d", stats.Written, stats.Skipped)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(results))
	}
	return nil
}
