// Package io reads and writes placement results as JSON documents.
//
// # JSON Format
//
// A result records how it was produced and the accepted upper-left
// coordinates per category:
//
//	{
//	  "run_id": "2f0c9a4e-...",
//	  "mode": "classes",
//	  "dim": 64,
//	  "rows": 1024,
//	  "cols": 2048,
//	  "seed": 1,
//	  "categories": {
//	    "positive": [[120, 300], [128, 296]],
//	    "negative": [[0, 512]]
//	  },
//	  "scores": {
//	    "negative": [0]
//	  }
//	}
//
// Single-sampler runs store their tiles under the "tiles" category.
// Coordinates are [row, col] pairs; every tile spans dim pixels down and to
// the right of its coordinate.
//
// # Import and Export
//
// Use [WriteJSON] and [ReadJSON] with any stream, or [ExportJSON] and
// [ImportJSON] with file paths. Reading validates the document: the tile
// dimension must fit the grid and every tile must lie inside it.
package io
