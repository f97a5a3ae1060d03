// Package geo implements the geometry used by the geo query operators:
// great circle distance between points and point in polygon containment
// for GeoJSON values.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/signadot/mquery/ir"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371008.8

var ErrGeometry = errors.New("invalid geometry")

// Point is a longitude/latitude pair in degrees.
type Point struct {
	Lng, Lat float64
}

// Polygon is a GeoJSON polygon: an outer ring followed by holes.
type Polygon [][]Point

// ParsePoint reads a GeoJSON point, {"type":"Point","coordinates":[lng,lat]},
// or a bare [lng, lat] pair.
func ParsePoint(v *ir.Node) (Point, error) {
	if v == nil {
		return Point{}, fmt.Errorf("%w: missing point", ErrGeometry)
	}
	coords := v
	if v.Type == ir.ObjectType {
		if t := v.Get("type"); t == nil || t.String != "Point" {
			return Point{}, fmt.Errorf("%w: expected type Point", ErrGeometry)
		}
		coords = v.Get("coordinates")
	}
	return parsePosition(coords)
}

func parsePosition(v *ir.Node) (Point, error) {
	if v == nil || v.Type != ir.ArrayType || len(v.Values) < 2 {
		return Point{}, fmt.Errorf("%w: expected [lng, lat]", ErrGeometry)
	}
	lng, ok1 := v.Values[0].Num()
	lat, ok2 := v.Values[1].Num()
	if !ok1 || !ok2 {
		return Point{}, fmt.Errorf("%w: non-numeric coordinates", ErrGeometry)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Point{}, fmt.Errorf("%w: coordinates out of range", ErrGeometry)
	}
	return Point{Lng: lng, Lat: lat}, nil
}

// ParsePolygon reads a GeoJSON polygon,
// {"type":"Polygon","coordinates":[[[lng,lat],...]]}.
func ParsePolygon(v *ir.Node) (Polygon, error) {
	if v == nil || v.Type != ir.ObjectType {
		return nil, fmt.Errorf("%w: expected polygon object", ErrGeometry)
	}
	if t := v.Get("type"); t == nil || t.String != "Polygon" {
		return nil, fmt.Errorf("%w: expected type Polygon", ErrGeometry)
	}
	rings := v.Get("coordinates")
	if rings == nil || rings.Type != ir.ArrayType || len(rings.Values) == 0 {
		return nil, fmt.Errorf("%w: polygon needs at least one ring", ErrGeometry)
	}
	res := make(Polygon, 0, len(rings.Values))
	for _, r := range rings.Values {
		if r.Type != ir.ArrayType || len(r.Values) < 4 {
			return nil, fmt.Errorf("%w: ring needs at least 4 positions", ErrGeometry)
		}
		ring := make([]Point, len(r.Values))
		for i, pos := range r.Values {
			p, err := parsePosition(pos)
			if err != nil {
				return nil, err
			}
			ring[i] = p
		}
		if ring[0] != ring[len(ring)-1] {
			return nil, fmt.Errorf("%w: ring is not closed", ErrGeometry)
		}
		res = append(res, ring)
	}
	return res, nil
}

func rad(d float64) float64 {
	return d * math.Pi / 180
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Point) float64 {
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Contains reports whether p lies inside the polygon: inside the outer
// ring and outside every hole. Edges are treated as planar.
func (poly Polygon) Contains(p Point) bool {
	if len(poly) == 0 || !inRing(poly[0], p) {
		return false
	}
	for _, hole := range poly[1:] {
		if inRing(hole, p) {
			return false
		}
	}
	return true
}

// inRing is the even-odd ray casting test.
func inRing(ring []Point, p Point) bool {
	in := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
			p.Lng < (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lng {
			in = !in
		}
	}
	return in
}
