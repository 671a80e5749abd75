package geojson

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[0, 0], [0.5, 0.1], [1, 0]]},
      "properties": {"id": 1, "source": 1, "target": 2, "cost": 10, "reverse_cost": -1, "length_m": 100}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[1, 0], [2, 0]]},
      "properties": {"id": 2, "source": 2, "target": 3, "cost": 5, "reverse_cost": 6}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [2.0001, 0]},
      "properties": {"id": 3}
    }
  ]
}`

func TestLoad(t *testing.T) {
	vertices, edges, err := Load([]byte(sample))
	require.NoError(t, err)

	sort.Slice(vertices, func(i, j int) bool { return vertices[i].ID < vertices[j].ID })
	require.Len(t, vertices, 3)
	assert.Equal(t, datastructure.NewCoordinate(0, 0), vertices[0].Coord)
	assert.Equal(t, datastructure.NewCoordinate(0, 1), vertices[1].Coord)
	// explicit point wins over the line endpoint
	assert.Equal(t, datastructure.NewCoordinate(0, 2.0001), vertices[2].Coord)

	require.Len(t, edges, 2)
	assert.False(t, edges[0].HasReverse)
	assert.Equal(t, 100.0, edges[0].Length)
	assert.Len(t, edges[0].Geometry, 3)

	assert.True(t, edges[1].HasReverse)
	assert.Equal(t, 6.0, edges[1].ReverseCost)
	assert.InDelta(t, 111195, edges[1].Length, 100)

	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumArcs())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing source", `{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"LineString","coordinates":[[0,0],[1,0]]},
			"properties":{"id":1,"target":2,"cost":1}}]}`},
		{"fractional id", `{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"LineString","coordinates":[[0,0],[1,0]]},
			"properties":{"id":1.5,"source":1,"target":2,"cost":1}}]}`},
		{"polygon", `{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},
			"properties":{}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.geojson")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	vertices, edges, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, vertices, 3)
	assert.Len(t, edges, 2)

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)
}
