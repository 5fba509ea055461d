// Package pkg holds the imtiler libraries.
//
// # Overview
//
// imtiler cuts fixed-size square tiles out of large images. Placement works
// on grids only: a validity mask, a label grid or a set of class masks. The
// pixels are read and written by the outer packages.
//
//  1. [tiler] - samplers, placers and the category orchestrators
//  2. [grid] - masks, label grids, summed-area tables, connected components
//  3. [imageio] - image decoding, masks from images, tile extraction and saving
//  4. [io] - the JSON result document
//  5. [pipeline] - options, caching and batch runs for the CLI and the API
//  6. [cache] - result cache backends (file, Redis, null)
//
// # Data flow
//
//	image / mask files
//	        ↓
//	   [imageio] decode into grid.Mask / grid.Labels
//	        ↓
//	   [tiler] place tiles (cached by [pipeline])
//	        ↓
//	   [io] result document  →  [imageio] extract and save tiles
//
// # Quick Start
//
//	mask, _ := imageio.LoadMask("mask.png")
//	s, err := tiler.NewMaskSampler(mask, 64, tiler.Options{NumTiles: 50, Seed: 7})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tiles := s.Collect()
//	fmt.Println(tiles.Len(), "tiles")
//
// [errors] defines the coded errors shared by all packages and
// [observability] the hooks that report sampler, pipeline, cache and
// HTTP events.
package pkg
