package lod

import "github.com/ecopia-map/cdb2tiles/internal/content"

// Decimator simplifies a uniform-grid mesh to roughly targetIndexCount
// indices within maxError, the "pure geometric function" §1 names as an
// external collaborator. Decimator returns ok=false when it cannot
// produce a non-empty result, signaling the caller to fall back to the
// original mesh (§4.3 step 1).
type Decimator interface {
	Simplify(mesh *content.Mesh, targetIndexCount int, maxError float64) (*content.Mesh, bool)
}

// passthroughDecimator is the default Decimator: it performs no real
// simplification and reports failure whenever the caller would otherwise
// expect one, so the fallback-to-original branch in §4.3 step 1 is always
// exercised deterministically. A production build wires in a real
// half-edge or quadric-error decimator through the same interface.
type passthroughDecimator struct{}

// NewPassthroughDecimator returns the stand-in Decimator used until a
// real simplification library is wired behind this interface.
func NewPassthroughDecimator() Decimator { return passthroughDecimator{} }

func (passthroughDecimator) Simplify(mesh *content.Mesh, targetIndexCount int, maxError float64) (*content.Mesh, bool) {
	if targetIndexCount <= 0 || targetIndexCount >= len(mesh.Indices) {
		return mesh, true
	}
	return nil, false
}
