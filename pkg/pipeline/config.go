package pipeline

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/imtiler/pkg/errors"
)

// Config is the layout of a TOML run file. Top-level keys set the
// defaults; each [[job]] entry names one batch job and overrides them.
//
//	mode = "classes"
//	dim = 64
//	seed = 7
//
//	[[job]]
//	name = "slide-01"
//	positive = "masks/slide-01-pos.png"
//	negative = "masks/slide-01-neg.png"
//	image = "slides/slide-01.tif"
type Config struct {
	Options
	Jobs []JobConfig `toml:"job"`
}

// JobConfig names the files of one batch job.
type JobConfig struct {
	Name          string   `toml:"name"`
	Image         string   `toml:"image"`
	Mask          string   `toml:"mask"`
	Labels        string   `toml:"labels"`
	Positive      string   `toml:"positive"`
	Negative      string   `toml:"negative"`
	FalsePositive string   `toml:"false_positive"`
	Output        string   `toml:"output"`
	Options       *Options `toml:"options"`
}

// LoadConfig reads a TOML run file. Unknown keys are rejected so that a
// typo never silently falls back to a default.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// JobOptions returns the options of job i: the file defaults with the
// job's own options table applied on top.
func (c *Config) JobOptions(i int) Options {
	opts := c.Options
	if o := c.Jobs[i].Options; o != nil {
		opts.merge(*o)
	}
	return opts
}

// merge copies every non-zero field of o into opts.
func (opts *Options) merge(o Options) {
	if o.Mode != "" {
		opts.Mode = o.Mode
	}
	if o.Dim != 0 {
		opts.Dim = o.Dim
	}
	if o.Seed != 0 {
		opts.Seed = o.Seed
	}
	if o.NumTiles != 0 {
		opts.NumTiles = o.NumTiles
	}
	if o.MaxSearch != 0 {
		opts.MaxSearch = o.MaxSearch
	}
	if o.Accept != "" {
		opts.Accept = o.Accept
	}
	if o.WithReplacement {
		opts.WithReplacement = true
	}
	if o.NoReinit {
		opts.NoReinit = true
	}
	if o.MaxReinit != 0 {
		opts.MaxReinit = o.MaxReinit
	}
	if o.MinCoverage != 0 {
		opts.MinCoverage = o.MinCoverage
	}
	if o.Conn != 0 {
		opts.Conn = o.Conn
	}
	if o.RegionMode != "" {
		opts.RegionMode = o.RegionMode
	}
	if o.Labels != nil {
		opts.Labels = o.Labels
	}
	if o.NumNegative != 0 {
		opts.NumNegative = o.NumNegative
	}
	if o.MatchNegative {
		opts.MatchNegative = true
	}
	if o.NumExtraPositive != 0 {
		opts.NumExtraPositive = o.NumExtraPositive
	}
	if o.NoExtraPositive {
		opts.NoExtraPositive = true
	}
	if o.ExtraAccept != 0 {
		opts.ExtraAccept = o.ExtraAccept
	}
	if o.ExtraMode != "" {
		opts.ExtraMode = o.ExtraMode
	}
	if o.PositiveConn != 0 {
		opts.PositiveConn = o.PositiveConn
	}
	if o.FalsePositiveConn != 0 {
		opts.FalsePositiveConn = o.FalsePositiveConn
	}
	if o.MaxFalsePositive != 0 {
		opts.MaxFalsePositive = o.MaxFalsePositive
	}
	if o.Refresh {
		opts.Refresh = true
	}
}
