package update

import (
	"github.com/signadot/mquery/ir"

	jsonpatch "github.com/evanphx/json-patch"
)

// MergePatch returns the RFC 7386 merge patch turning from into to.
func MergePatch(from, to *ir.Node) (*ir.Node, error) {
	fd, err := from.MarshalJSON()
	if err != nil {
		return nil, err
	}
	td, err := to.MarshalJSON()
	if err != nil {
		return nil, err
	}
	d, err := jsonpatch.CreateMergePatch(fd, td)
	if err != nil {
		return nil, err
	}
	return ir.FromJSON(d)
}

// ApplyMergePatch applies the RFC 7386 merge patch to doc in place.
func ApplyMergePatch(doc, patch *ir.Node) error {
	dd, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	pd, err := patch.MarshalJSON()
	if err != nil {
		return err
	}
	d, err := jsonpatch.MergePatch(dd, pd)
	if err != nil {
		return err
	}
	res, err := ir.FromJSON(d)
	if err != nil {
		return err
	}
	doc.Replace(res)
	return nil
}
