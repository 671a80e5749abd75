package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
)

const (
	PlanarDegreeName      = "planar-degree"
	GreatCircleMetersName = "great-circle-meters"

	// upper bound of meters per degree along any axis
	maxMetersPerDegree = 111_700.0
)

// Metric measures distances between coordinates. spatial indexes and the snapper
// must agree on one Metric so that max snap distances keep their unit.
type Metric interface {
	Name() string
	Distance(a, b datastructure.Coordinate) float64
	// BoxDistance is a lower bound of the distance from p to any point inside the box [lo, hi].
	BoxDistance(p, lo, hi datastructure.Coordinate) float64
	SegmentDistance(p, a, b datastructure.Coordinate) float64
	// SearchBox returns a box containing every point within distance d of p.
	SearchBox(p datastructure.Coordinate, d float64) (lo, hi datastructure.Coordinate)
	// MaxMeters returns an upper bound in meters of a distance d expressed in this metric.
	MaxMeters(d float64) float64
}

func NewMetric(name string) (Metric, error) {
	switch name {
	case PlanarDegreeName:
		return PlanarDegree{}, nil
	case GreatCircleMetersName:
		return GreatCircle{}, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", name)
	}
}

// PlanarDegree is the euclidean distance on raw lon/lat degrees, the unit PostGIS returns for SRID 4326.
type PlanarDegree struct{}

func (PlanarDegree) Name() string {
	return PlanarDegreeName
}

func (PlanarDegree) Distance(a, b datastructure.Coordinate) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	} else if v > hi {
		return hi
	}
	return v
}

func (m PlanarDegree) BoxDistance(p, lo, hi datastructure.Coordinate) float64 {
	closest := datastructure.NewCoordinate(clamp(p.Lat, lo.Lat, hi.Lat), clamp(p.Lon, lo.Lon, hi.Lon))
	return m.Distance(p, closest)
}

func (m PlanarDegree) SegmentDistance(p, a, b datastructure.Coordinate) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return m.Distance(p, a)
	}
	t := clamp(((p.Lon-a.Lon)*dx+(p.Lat-a.Lat)*dy)/lenSq, 0, 1)
	return m.Distance(p, datastructure.NewCoordinate(a.Lat+t*dy, a.Lon+t*dx))
}

func (PlanarDegree) SearchBox(p datastructure.Coordinate, d float64) (datastructure.Coordinate, datastructure.Coordinate) {
	return datastructure.NewCoordinate(p.Lat-d, p.Lon-d), datastructure.NewCoordinate(p.Lat+d, p.Lon+d)
}

func (PlanarDegree) MaxMeters(d float64) float64 {
	return d * maxMetersPerDegree
}

// GreatCircle is the spherical distance in meters.
type GreatCircle struct{}

func toLatLng(c datastructure.Coordinate) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lon)
}

func toPoint(c datastructure.Coordinate) s2.Point {
	return s2.PointFromLatLng(toLatLng(c))
}

func angleToMeters(a s1.Angle) float64 {
	return a.Radians() * earthRadiusM
}

func (GreatCircle) Name() string {
	return GreatCircleMetersName
}

func (GreatCircle) Distance(a, b datastructure.Coordinate) float64 {
	return angleToMeters(toLatLng(a).Distance(toLatLng(b)))
}

func (GreatCircle) BoxDistance(p, lo, hi datastructure.Coordinate) float64 {
	rect := s2.Rect{
		Lat: r1.Interval{Lo: degreeToRadians(lo.Lat), Hi: degreeToRadians(hi.Lat)},
		Lng: s1.Interval{Lo: degreeToRadians(lo.Lon), Hi: degreeToRadians(hi.Lon)},
	}
	return angleToMeters(rect.DistanceToLatLng(toLatLng(p)))
}

func (GreatCircle) SegmentDistance(p, a, b datastructure.Coordinate) float64 {
	return angleToMeters(s2.DistanceFromSegment(toPoint(p), toPoint(a), toPoint(b)))
}

func (GreatCircle) SearchBox(p datastructure.Coordinate, d float64) (datastructure.Coordinate, datastructure.Coordinate) {
	capRegion := s2.CapFromCenterAngle(toPoint(p), s1.Angle(d/earthRadiusM))
	rect := capRegion.RectBound()

	lo := datastructure.NewCoordinate(rect.Lo().Lat.Degrees(), rect.Lo().Lng.Degrees())
	hi := datastructure.NewCoordinate(rect.Hi().Lat.Degrees(), rect.Hi().Lng.Degrees())
	if rect.Lng.IsInverted() || rect.Lng.IsFull() {
		lo.Lon, hi.Lon = -180, 180
	}
	return lo, hi
}

func (GreatCircle) MaxMeters(d float64) float64 {
	return d
}
