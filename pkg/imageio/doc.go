// Package imageio loads masks, label grids and images, and writes tiles.
//
// Decoding supports PNG, JPEG, GIF, TIFF, BMP and WebP. A mask pixel is
// valid when it is non-black and not fully transparent; a label pixel
// takes its gray value, or its palette index for paletted images.
//
// A [Masker] derives a validity mask from an image when no mask file is
// given. [AllValid] marks every pixel valid, [Opaque] every pixel with
// non-zero alpha.
//
// [Extract] cuts one tile and zero-pads where the tile leaves the image.
// [SaveTiles] writes every tile of a result below one directory per
// category, in parallel:
//
//	out/
//	  positive/
//	    tile19_19.png
//	    tileinfo.txt
//	  negative/
//	    tile0_110.png
//	    tileinfo.txt
package imageio
