package geojson

import (
	"fmt"
	"math"
	"os"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadFile reads a graph from a GeoJSON FeatureCollection file.
// LineString features are edges with properties id, source, target, cost and optional
// reverse_cost, length_m. Point features with an id property define vertices explicitly,
// otherwise a vertex takes the coordinate of the first line endpoint that references it.
func LoadFile(path string) ([]datastructure.Vertex, []datastructure.EdgeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("geojson: read %s: %w", path, err)
	}
	return Load(data)
}

func Load(data []byte) ([]datastructure.Vertex, []datastructure.EdgeInput, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("geojson: %w", err)
	}

	explicit := make(map[int64]datastructure.Coordinate)
	implicit := make(map[int64]datastructure.Coordinate)
	edges := make([]datastructure.EdgeInput, 0, len(fc.Features))

	for i, f := range fc.Features {
		switch geom := f.Geometry.(type) {
		case orb.Point:
			id, err := int64Prop(f.Properties, "id")
			if err != nil {
				return nil, nil, fmt.Errorf("geojson: feature %d: %w", i, err)
			}
			explicit[id] = datastructure.NewCoordinate(geom.Lat(), geom.Lon())
		case orb.LineString:
			e, err := featureToEdge(f, geom)
			if err != nil {
				return nil, nil, fmt.Errorf("geojson: feature %d: %w", i, err)
			}
			if len(geom) > 0 {
				if _, ok := implicit[e.Source]; !ok {
					implicit[e.Source] = e.Geometry[0]
				}
				if _, ok := implicit[e.Target]; !ok {
					implicit[e.Target] = e.Geometry[len(e.Geometry)-1]
				}
			}
			edges = append(edges, e)
		default:
			return nil, nil, fmt.Errorf("geojson: feature %d: unsupported geometry %s", i, f.Geometry.GeoJSONType())
		}
	}

	for id, c := range explicit {
		implicit[id] = c
	}

	vertices := make([]datastructure.Vertex, 0, len(implicit))
	for id, c := range implicit {
		vertices = append(vertices, datastructure.Vertex{ID: id, Coord: c})
	}
	return vertices, edges, nil
}

func featureToEdge(f *geojson.Feature, ls orb.LineString) (datastructure.EdgeInput, error) {
	var (
		e   datastructure.EdgeInput
		err error
	)
	if e.ID, err = int64Prop(f.Properties, "id"); err != nil {
		return e, err
	}
	if e.Source, err = int64Prop(f.Properties, "source"); err != nil {
		return e, err
	}
	if e.Target, err = int64Prop(f.Properties, "target"); err != nil {
		return e, err
	}
	if e.Cost, err = float64Prop(f.Properties, "cost"); err != nil {
		return e, err
	}

	if rc, ok := f.Properties["reverse_cost"].(float64); ok && rc >= 0 {
		e.ReverseCost = rc
		e.HasReverse = true
	}

	e.Geometry = make([]datastructure.Coordinate, 0, len(ls))
	for _, p := range ls {
		e.Geometry = append(e.Geometry, datastructure.NewCoordinate(p.Lat(), p.Lon()))
	}

	if l, ok := f.Properties["length_m"].(float64); ok {
		e.Length = l
	} else {
		e.Length = geo.PolylineLength(e.Geometry)
	}
	return e, nil
}

func float64Prop(props geojson.Properties, key string) (float64, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing property %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("property %q is not a number", key)
	}
	return f, nil
}

func int64Prop(props geojson.Properties, key string) (int64, error) {
	f, err := float64Prop(props, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("property %q is not an integer", key)
	}
	return int64(f), nil
}
