package query

import (
	"github.com/signadot/mquery/geo"
	"github.com/signadot/mquery/ir"
	"github.com/signadot/mquery/mqerr"
	"github.com/signadot/mquery/schema"
)

// DistanceProp is the match property set by $near.
const DistanceProp = "distance"

var (
	nearOp          = &nearOperator{base{name: "$near"}}
	geoIntersectsOp = &geoIntersectsOperator{base{name: "$geoIntersects"}}
)

// Near matches GeoJSON points within $maxDistance meters of a $geometry
// point and no closer than $minDistance, setting the distance match
// property.
func Near() ExprOperator { return nearOp }

// GeoIntersects matches GeoJSON points inside a $geometry polygon.
func GeoIntersects() ExprOperator { return geoIntersectsOp }

func docPoint(name string, value *ir.Node) (geo.Point, error) {
	p, err := geo.ParsePoint(value)
	if err != nil {
		return p, mqerr.ObjectMatch(err.Error(), name, value.JSON())
	}
	return p, nil
}

type nearOperator struct{ base }

func (o *nearOperator) Matches(value, arg, _ *ir.Node, mc *MatchContext) (bool, error) {
	if value == nil {
		return false, nil
	}
	p, err := docPoint(o.name, value)
	if err != nil {
		return false, err
	}
	center, err := geo.ParsePoint(arg.Get("$geometry"))
	if err != nil {
		return false, mqerr.Query(err.Error(), o.name, arg.JSON())
	}
	d := geo.Distance(center, p)
	if maxD, ok := arg.Get("$maxDistance").Num(); ok && d > maxD {
		return false, nil
	}
	if minD, ok := arg.Get("$minDistance").Num(); ok && d < minD {
		return false, nil
	}
	mc.SetProp(DistanceProp, d)
	return true, nil
}

func (o *nearOperator) Normalize(arg *ir.Node, _ *NormalizeContext) (*ir.Node, error) {
	if arg.Type != ir.ObjectType {
		return arg, nil
	}
	res := arg
	for _, k := range []string{"$maxDistance", "$minDistance"} {
		v := arg.Get(k)
		if v == nil || v.Type != ir.StringType {
			continue
		}
		if res == arg {
			res = arg.Clone()
		}
		res.Set(k, coerce(schema.NumberType, v))
	}
	return res, nil
}

func (o *nearOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if arg.Type != ir.ObjectType {
		return nc.errorf(o.name, "Argument must be an object", arg)
	}
	if _, err := geo.ParsePoint(arg.Get("$geometry")); err != nil {
		return &mqerr.ValidationError{Kind: mqerr.QueryKind, Reason: "$geometry must be a point", Path: o.name, Value: arg.JSON(), Err: err}
	}
	for _, k := range []string{"$maxDistance", "$minDistance"} {
		v := arg.Get(k)
		if v == nil {
			continue
		}
		if f, ok := v.Num(); !ok || f < 0 {
			return nc.errorf(o.name, k+" must be a non-negative number", arg)
		}
	}
	for _, k := range arg.Keys() {
		switch k {
		case "$geometry", "$maxDistance", "$minDistance":
		default:
			return nc.errorf(o.name, "Unrecognized key "+k, arg)
		}
	}
	return nil
}

type geoIntersectsOperator struct{ base }

func (o *geoIntersectsOperator) Matches(value, arg, _ *ir.Node, _ *MatchContext) (bool, error) {
	if value == nil {
		return false, nil
	}
	p, err := docPoint(o.name, value)
	if err != nil {
		return false, err
	}
	poly, err := geo.ParsePolygon(arg.Get("$geometry"))
	if err != nil {
		return false, mqerr.Query(err.Error(), o.name, arg.JSON())
	}
	return poly.Contains(p), nil
}

func (o *geoIntersectsOperator) Validate(arg *ir.Node, nc *NormalizeContext) error {
	if arg.Type != ir.ObjectType || len(arg.Fields) != 1 {
		return nc.errorf(o.name, "Argument must be {$geometry: polygon}", arg)
	}
	if _, err := geo.ParsePolygon(arg.Get("$geometry")); err != nil {
		return &mqerr.ValidationError{Kind: mqerr.QueryKind, Reason: "$geometry must be a polygon", Path: o.name, Value: arg.JSON(), Err: err}
	}
	return nil
}
