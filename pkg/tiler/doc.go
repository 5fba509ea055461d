// Package tiler places fixed-size square tiles over large 2D grids.
//
// A tile is identified by its upper-left corner and a shared dimension; it
// covers rows [Row, Row+Dim) and columns [Col, Col+Dim). Every component in
// this package emits only tiles that fit the grid, and every collection is
// free of duplicate coordinates.
//
// # Samplers
//
// [MaskSampler] draws tiles over a validity mask and bounds how much of a
// tile may already be claimed by earlier tiles or invalid pixels. The bound
// is an [Accept] specification:
//
//	none   no claimed pixel at all (strict mode)
//	min    at most two claimed pixels
//	max    all but two pixels may be claimed
//	mask   the fraction of invalid pixels in the grid
//	0.3    a fraction; values in (1, 100] are percentages
//
// [CoverageSampler] accepts tiles that contain a minimum fraction of all
// valid pixels, which suits small regions such as one labelled object.
//
// [RectPlacer] centres a tile on each labelled region and optionally adds
// satellite tiles around the centre.
//
// # Combinators
//
// [RegionTiler] runs a base sampler per label and concatenates the results.
// [ClassMaskTiler] combines all of the above into positive, negative and
// false-positive tile sets; [DetectionTiler] is its single-mask variant.
//
// # Randomness
//
// Every component derives its generators from [Options.Seed], so a fixed
// seed reproduces the same placements. Components are not safe for
// concurrent use; run independent samplers in parallel instead.
//
// Collect is idempotent on every component: the first call does the work
// and later calls return the cached result.
package tiler
