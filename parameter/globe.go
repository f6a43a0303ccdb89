package parameter

// Globe Geometry
const (
	// GlobeRadius is the unit sphere radius for ambient points
	GlobeRadius = 1.0

	// MarkerRadius places region markers slightly above the surface
	MarkerRadius = 1.05

	// AmbientPointCount is the number of scattered surface points generated per globe build
	AmbientPointCount = 4000

	// AmbientSeed makes the ambient field reproducible across runs
	AmbientSeed = 20240601
)

// Terminal Projection
const (
	// CellAspect compensates for terminal cells being about twice as tall as wide
	CellAspect = 2.0

	// GlobeViewFill is the fraction of the shorter view dimension covered by the globe
	GlobeViewFill = 0.42

	// HUDRows is the number of rows reserved for the status bar
	HUDRows = 1

	// MarkerHitRadius is the click tolerance around a marker in cells
	MarkerHitRadius = 2
)
