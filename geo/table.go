package geo

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	geojson "github.com/paulmach/go.geojson"

	"github.com/lixenwraith/spotglobe/parameter"
	"github.com/lixenwraith/spotglobe/vmath"
)

//go:embed data/regions.geojson
var defaultRegionsGeoJSON []byte

// Region is a named location with its projected marker position
type Region struct {
	Name     string
	Lat      float64
	Lon      float64
	Position vmath.Vec3F
}

// Table is the immutable region coordinate table, in document order
type Table struct {
	radius  float64
	regions []Region
	index   map[string]int
}

// LoadTable reads a GeoJSON FeatureCollection of Point features named by the "name" property
func LoadTable(r io.Reader, radius float64) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read region table: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse region table: %w", err)
	}

	t := &Table{
		radius: radius,
		index:  make(map[string]int, len(fc.Features)),
	}
	for i, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			return nil, fmt.Errorf("region feature %d: geometry is not a point", i)
		}
		name, err := f.PropertyString("name")
		if err != nil || name == "" {
			return nil, fmt.Errorf("region feature %d: missing name property", i)
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("region feature %d: duplicate region %q", i, name)
		}

		lon, lat := f.Geometry.Point[0], f.Geometry.Point[1]
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("region %q: coordinates out of range (%v, %v)", name, lat, lon)
		}

		t.index[name] = len(t.regions)
		t.regions = append(t.regions, Region{
			Name:     name,
			Lat:      lat,
			Lon:      lon,
			Position: Project(lat, lon, radius),
		})
	}
	return t, nil
}

// DefaultTable returns the built-in five-region table at marker radius
func DefaultTable() *Table {
	t, err := LoadTable(bytes.NewReader(defaultRegionsGeoJSON), parameter.MarkerRadius)
	if err != nil {
		panic(fmt.Sprintf("embedded region table: %v", err))
	}
	return t
}

// Lookup returns the marker position of a known region
func (t *Table) Lookup(region string) (vmath.Vec3F, bool) {
	i, ok := t.index[region]
	if !ok {
		return vmath.Vec3F{}, false
	}
	return t.regions[i].Position, true
}

// Position returns the marker position, or the north-pole fallback for unknown regions
func (t *Table) Position(region string) vmath.Vec3F {
	if p, ok := t.Lookup(region); ok {
		return p
	}
	return t.Fallback()
}

// Fallback is the neutral position used for regions missing from the table
func (t *Table) Fallback() vmath.Vec3F {
	return vmath.Vec3F{Y: t.radius}
}

// Regions returns the table entries in document order
func (t *Table) Regions() []Region {
	out := make([]Region, len(t.regions))
	copy(out, t.regions)
	return out
}

// Radius returns the projection radius
func (t *Table) Radius() float64 {
	return t.radius
}

// Encode writes the table back out as a GeoJSON FeatureCollection
func (t *Table) Encode(w io.Writer) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range t.regions {
		f := geojson.NewPointFeature([]float64{r.Lon, r.Lat})
		f.SetProperty("name", r.Name)
		fc.AddFeature(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode region table: %w", err)
	}
	_, err = w.Write(data)
	return err
}
