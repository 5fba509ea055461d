package imageio

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/tiler"
)

// Supported tile output formats.
const (
	FormatPNG  = "png"
	FormatTIFF = "tiff"
	FormatBMP  = "bmp"
)

// TileInfoFile is written next to the tiles of every category.
const TileInfoFile = "tileinfo.txt"

// SaveOptions configures [SaveTiles].
type SaveOptions struct {
	// Prefix starts every tile filename (default "tile").
	Prefix string
	// Format is the output encoding (default png).
	Format string
	// Overwrite removes earlier tiles with the same prefix first. Without
	// it, existing files are kept and skipped.
	Overwrite bool
	// Workers bounds the parallel encoders (default GOMAXPROCS).
	Workers int
	Logger  *log.Logger
}

// SaveStats reports what [SaveTiles] did.
type SaveStats struct {
	Written int
	Skipped int
	Removed int
}

func (o SaveOptions) withDefaults() (SaveOptions, error) {
	if o.Prefix == "" {
		o.Prefix = "tile"
	}
	if err := errors.ValidatePrefix(o.Prefix); err != nil {
		return o, err
	}
	switch o.Format {
	case "":
		o.Format = FormatPNG
	case FormatPNG, FormatTIFF, FormatBMP:
	default:
		return o, errors.New(errors.ErrCodeUnsupported, "unsupported tile format %q", o.Format)
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o, nil
}

// Ext returns the file extension of the format, with the leading dot.
func (o SaveOptions) Ext() string {
	if o.Format == "" {
		return "." + FormatPNG
	}
	return "." + o.Format
}

// TileName returns the filename of the tile at p.
func (o SaveOptions) TileName(p tiler.Point) string {
	prefix := o.Prefix
	if prefix == "" {
		prefix = "tile"
	}
	return fmt.Sprintf("%s%d_%d%s", prefix, p.Row, p.Col, o.Ext())
}

// SaveTiles extracts every tile of cats from img and writes it below
// dir/<category>/. Tiles are written in row-major order of their
// coordinates; the write itself runs on opts.Workers goroutines.
func SaveTiles(ctx context.Context, img image.Image, cats tiler.Categories, dim int, dir string, opts SaveOptions) (SaveStats, error) {
	var stats SaveStats
	opts, err := opts.withDefaults()
	if err != nil {
		return stats, err
	}
	if err := errors.ValidateOutputDir(dir); err != nil {
		return stats, err
	}

	var written, skipped atomic.Int64
	for _, name := range cats.Names() {
		c := cats[name]
		catDir := filepath.Join(dir, string(name))
		if c.Len() == 0 {
			opts.Logger.Info("no tiles to save", "category", name)
			continue
		}
		removed, err := prepareDir(catDir, opts)
		if err != nil {
			return stats, err
		}
		stats.Removed += removed

		points := slices.Clone(c.Points)
		slices.SortFunc(points, func(a, b tiler.Point) int {
			if a.Row != b.Row {
				return a.Row - b.Row
			}
			return a.Col - b.Col
		})

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for _, p := range points {
			path := filepath.Join(catDir, opts.TileName(p))
			t := tiler.Tile{Row: p.Row, Col: p.Col, Dim: dim}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if _, err := os.Stat(path); err == nil {
					opts.Logger.Warn("file exists, skipping", "path", path)
					skipped.Add(1)
					return nil
				}
				if err := writeImage(path, Extract(img, t), opts.Format); err != nil {
					return err
				}
				written.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			stats.Written, stats.Skipped = int(written.Load()), int(skipped.Load())
			return stats, err
		}
		if err := writeTileInfo(filepath.Join(catDir, TileInfoFile), points, dim); err != nil {
			return stats, err
		}
		opts.Logger.Debug("saved tiles", "category", name, "tiles", len(points), "dir", catDir)
	}
	stats.Written, stats.Skipped = int(written.Load()), int(skipped.Load())
	return stats, nil
}

// prepareDir creates dir, or with Overwrite removes earlier tiles of the
// same prefix and format.
func prepareDir(dir string, opts SaveOptions) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("create %s: %w", dir, err)
		}
		return 0, nil
	}
	if !opts.Overwrite {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, opts.Prefix+"*"+opts.Ext()))
	if err != nil {
		return 0, err
	}
	for _, f := range matches {
		if err := os.Remove(f); err != nil {
			return 0, fmt.Errorf("remove %s: %w", f, err)
		}
	}
	if len(matches) > 0 {
		opts.Logger.Info("removed existing tiles", "count", len(matches), "dir", dir)
	}
	return len(matches), nil
}

func writeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, img, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "", FormatPNG:
		return png.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(w, img)
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported tile format %q", format)
}

// writeTileInfo lists the saved tiles, one "id,row_start,row_stop,col_start,col_stop"
// line each.
func writeTileInfo(path string, points []tiler.Point, dim int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "tileid,row_start,row_stop,col_start,col_stop")
	for i, p := range points {
		fmt.Fprintf(w, "%d,%d,%d,%d,%d\n", i, p.Row, p.Row+dim, p.Col, p.Col+dim)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
