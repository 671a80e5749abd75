package spatialindex

import (
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
)

// Neighbor is a vertex returned by a nearest-neighbour query.
type Neighbor struct {
	Vertex   datastructure.Index
	ID       int64
	Coord    datastructure.Coordinate
	Distance float64
}

// closer orders neighbors by distance then vertex id.
func closer(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}
