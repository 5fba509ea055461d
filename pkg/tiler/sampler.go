package tiler

// Sampler produces a collection of tile positions for a fixed dimension.
// Collect is idempotent: the first call computes the collection and later
// calls return it unchanged.
type Sampler interface {
	Collect() Collection
	Dim() int
}

// CategorySampler produces tile positions grouped by category.
type CategorySampler interface {
	Collect() Categories
	Dim() int
}

var (
	_ Sampler         = (*MaskSampler)(nil)
	_ Sampler         = (*CoverageSampler)(nil)
	_ Sampler         = (*RectPlacer)(nil)
	_ Sampler         = (*RegionTiler)(nil)
	_ CategorySampler = (*ClassMaskTiler)(nil)
	_ CategorySampler = (*DetectionTiler)(nil)
)
