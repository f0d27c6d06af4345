// Package geo implements the planar polygon test used by the nazotte search.
// Latitude is treated as x and longitude as y.
package geo

import (
	"errors"
	"math"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
)

var ErrEmptyPolygon = errors.New("empty polygon")

// BoundingBox is the axis-aligned envelope of a polygon.
type BoundingBox struct {
	TopLeft     model.Coordinate // min latitude, min longitude
	BottomRight model.Coordinate // max latitude, max longitude
}

func (b BoundingBox) Contains(p model.Coordinate) bool {
	return p.Latitude >= b.TopLeft.Latitude && p.Latitude <= b.BottomRight.Latitude &&
		p.Longitude >= b.TopLeft.Longitude && p.Longitude <= b.BottomRight.Longitude
}

// Polygon is a simple ring. The closing edge from the last vertex back to the
// first is implicit.
type Polygon struct {
	ring []model.Coordinate
	bbox BoundingBox
}

func NewPolygon(coords []model.Coordinate) (Polygon, error) {
	if len(coords) == 0 {
		return Polygon{}, ErrEmptyPolygon
	}
	ring := make([]model.Coordinate, len(coords))
	copy(ring, coords)
	if len(ring) > 1 && ring[len(ring)-1] == ring[0] {
		ring = ring[:len(ring)-1]
	}

	bb := BoundingBox{TopLeft: ring[0], BottomRight: ring[0]}
	for _, c := range ring[1:] {
		bb.TopLeft.Latitude = math.Min(bb.TopLeft.Latitude, c.Latitude)
		bb.TopLeft.Longitude = math.Min(bb.TopLeft.Longitude, c.Longitude)
		bb.BottomRight.Latitude = math.Max(bb.BottomRight.Latitude, c.Latitude)
		bb.BottomRight.Longitude = math.Max(bb.BottomRight.Longitude, c.Longitude)
	}
	return Polygon{ring: ring, bbox: bb}, nil
}

func (p Polygon) BoundingBox() BoundingBox { return p.bbox }

// degenerate reports rings that collapse to a point or a line. Rings with
// zero net signed area, such as a symmetric bowtie, still enclose their lobes.
func (p Polygon) degenerate() bool {
	if len(p.ring) < 3 {
		return true
	}
	a := p.ring[0]
	var b model.Coordinate
	found := false
	for _, c := range p.ring[1:] {
		if c != a {
			b, found = c, true
			break
		}
	}
	if !found {
		return true
	}
	for _, c := range p.ring {
		if cross(a, b, c) != 0 {
			return false
		}
	}
	return true
}

// Contains reports whether c lies inside the polygon or on its boundary.
func (p Polygon) Contains(c model.Coordinate) bool {
	if p.degenerate() || !p.bbox.Contains(c) {
		return false
	}

	x, y := c.Latitude, c.Longitude
	inside := false
	n := len(p.ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.ring[j], p.ring[i]
		if onSegment(a, b, c) {
			return true
		}
		if (b.Longitude > y) != (a.Longitude > y) {
			xCross := (a.Latitude-b.Latitude)*(y-b.Longitude)/(a.Longitude-b.Longitude) + b.Latitude
			if x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b, c model.Coordinate) bool {
	if cross(a, b, c) != 0 {
		return false
	}
	return c.Latitude >= math.Min(a.Latitude, b.Latitude) && c.Latitude <= math.Max(a.Latitude, b.Latitude) &&
		c.Longitude >= math.Min(a.Longitude, b.Longitude) && c.Longitude <= math.Max(a.Longitude, b.Longitude)
}

// cross is the z component of (b-a) x (c-a); zero when the three are collinear.
func cross(a, b, c model.Coordinate) float64 {
	return (b.Latitude-a.Latitude)*(c.Longitude-a.Longitude) - (b.Longitude-a.Longitude)*(c.Latitude-a.Latitude)
}
