package snap

import (
	"context"
	"errors"
	"fmt"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/spatialindex"
)

var (
	ErrEmptyIndex        = errors.New("spatial index is empty")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// TooFarError is returned when the nearest candidate is farther than the configured max distance.
// Distance and MaxDistance are in the unit of Metric.
type TooFarError struct {
	Distance    float64
	MaxDistance float64
	VertexID    int64
	Metric      string
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("nearest vertex %d is %.6f %s away, max %.6f", e.VertexID, e.Distance, e.Metric, e.MaxDistance)
}

type Mode string

const (
	// ModeVertex snaps to the nearest graph vertex.
	ModeVertex Mode = "vertex"
	// ModeEdgeEndpoint snaps to the nearest edge; a start point takes the edge source, an end point the edge target.
	ModeEdgeEndpoint Mode = "edge-endpoint"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeVertex, ModeEdgeEndpoint:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown snap mode %q", s)
	}
}

// Role tells which end of a route a coordinate is.
type Role int

const (
	RoleStart Role = iota
	RoleEnd
)

func (r Role) String() string {
	if r == RoleEnd {
		return "end"
	}
	return "start"
}

type VertexIndex interface {
	Nearest(ctx context.Context, p datastructure.Coordinate) (spatialindex.Neighbor, bool, error)
}

type EdgeIndex interface {
	NearestEdge(ctx context.Context, p datastructure.Coordinate) (spatialindex.EdgeNeighbor, bool, error)
}

type Result struct {
	Vertex   datastructure.Index
	VertexID int64
	Distance float64
}

type Snapper struct {
	mode        Mode
	vertexIndex VertexIndex
	edgeIndex   EdgeIndex
	graph       *datastructure.Graph
	maxDistance float64
	metric      string
}

func NewVertexSnapper(idx VertexIndex, maxDistance float64, metric string) *Snapper {
	return &Snapper{
		mode:        ModeVertex,
		vertexIndex: idx,
		maxDistance: maxDistance,
		metric:      metric,
	}
}

func NewEdgeEndpointSnapper(idx EdgeIndex, g *datastructure.Graph, maxDistance float64, metric string) *Snapper {
	return &Snapper{
		mode:        ModeEdgeEndpoint,
		edgeIndex:   idx,
		graph:       g,
		maxDistance: maxDistance,
		metric:      metric,
	}
}

func (s *Snapper) Mode() Mode {
	return s.mode
}

func (s *Snapper) MaxDistance() float64 {
	return s.maxDistance
}

func (s *Snapper) Metric() string {
	return s.metric
}

// Snap maps p to a graph vertex. a candidate exactly at the max distance is accepted.
func (s *Snapper) Snap(ctx context.Context, p datastructure.Coordinate, role Role) (Result, error) {
	if !p.IsValid() {
		return Result{}, fmt.Errorf("%w: lat %v lon %v", ErrInvalidCoordinate, p.Lat, p.Lon)
	}

	var res Result
	if s.mode == ModeEdgeEndpoint {
		nearest, ok, err := s.edgeIndex.NearestEdge(ctx, p)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrEmptyIndex
		}
		v := nearest.Source
		if role == RoleEnd {
			v = nearest.Target
		}
		res = Result{Vertex: v, VertexID: s.graph.Vertex(v).ID, Distance: nearest.Distance}
	} else {
		nearest, ok, err := s.vertexIndex.Nearest(ctx, p)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrEmptyIndex
		}
		res = Result{Vertex: nearest.Vertex, VertexID: nearest.ID, Distance: nearest.Distance}
	}

	if res.Distance > s.maxDistance {
		return Result{}, &TooFarError{
			Distance:    res.Distance,
			MaxDistance: s.maxDistance,
			VertexID:    res.VertexID,
			Metric:      s.metric,
		}
	}
	return res, nil
}
