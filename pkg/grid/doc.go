// Package grid provides the two-dimensional rasters the tile placement core
// operates on.
//
// # Grid Types
//
// Three row-major raster types share the same extent convention (Rows x Cols,
// index = row*Cols + col):
//
//   - [Mask]: boolean validity grid, true marks a pixel eligible for sampling
//   - [Labels]: integer label grid, 0 is background and each positive value is
//     one connected component
//   - [Counter]: mutable per-pixel claim counter used as the seen/overlap state
//     of a sampler
//
// Rectangles ([Rect]) use an inclusive start and exclusive stop on both axes,
// so the tile with upper-left (r, c) and size d covers rows [r, r+d) and
// columns [c, c+d).
//
// # Footprint Queries
//
// Samplers repeatedly ask "how many pixels inside this square are set?".
// [Integral] is a summed-area table that answers that in constant time.
// [Mask.Integral] and [Counter.Integral] build one over the nonzero indicator.
//
// # Labeling
//
// [Label] computes connected components of a mask with 4- or 8-connectivity.
// The placement core never calls it directly; it consumes an already computed
// [Labels] grid and callers decide how to produce one.
package grid
