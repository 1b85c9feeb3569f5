// Package pixelmap derives per-pixel coordinate maps from a finalized
// detector geometry. The maps place raw detector-panel data into a physically
// correct 2-D layout; all of them are pure functions of the model and
// allocate fresh output on every call.
package pixelmap

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"crystgeom/pkg/geometry"
)

// PixelMaps holds the per-pixel geometry maps. X, Y and Z store the lab-frame
// coordinates of each pixel in the data slab; R is the distance of each pixel
// from the beam axis and Phi the azimuth of the vector connecting the pixel
// to the beam axis. All five matrices share the slab shape
// (max_ss over all panels + 1, max_fs over all panels + 1).
type PixelMaps struct {
	X   *mat.Dense
	Y   *mat.Dense
	Z   *mat.Dense
	R   *mat.Dense
	Phi *mat.Dense
}

// ComputePixMaps tiles each panel's affine transform into detector-wide pixel
// grids and derives the radius and azimuth maps. Panels are placed in model
// order; a geometry whose panel windows overlap gets last-writer-wins
// placement without an error. A panel whose camera length comes from a
// dynamic source contributes 0.0 to the z map, since resolving the source
// needs a run-time data store this package does not have.
func ComputePixMaps(det *geometry.Detector) *PixelMaps {
	maxFS, maxSS := 0, 0
	for _, name := range det.PanelOrder {
		panel := det.Panels[name]
		if panel.OriginMaxFS > maxFS {
			maxFS = panel.OriginMaxFS
		}
		if panel.OriginMaxSS > maxSS {
			maxSS = panel.OriginMaxSS
		}
	}
	rows, cols := maxSS+1, maxFS+1

	x := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, cols, nil)
	z := mat.NewDense(rows, cols, nil)

	for _, name := range det.PanelOrder {
		panel := det.Panels[name]
		clen := panel.Clen
		if panel.ClenFrom != "" || math.IsNaN(clen) {
			clen = 0
		}
		for ss := 0; ss <= panel.MaxSS-panel.MinSS; ss++ {
			for fs := 0; fs <= panel.MaxFS-panel.MinFS; fs++ {
				px := float64(ss)*panel.SSX + float64(fs)*panel.FSX + panel.CornerX
				py := float64(ss)*panel.SSY + float64(fs)*panel.FSY + panel.CornerY
				x.Set(panel.MinSS+ss, panel.MinFS+fs, px)
				y.Set(panel.MinSS+ss, panel.MinFS+fs, py)
				z.Set(panel.MinSS+ss, panel.MinFS+fs, clen)
			}
		}
	}

	r := mat.NewDense(rows, cols, nil)
	phi := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			xv, yv := x.At(i, j), y.At(i, j)
			r.Set(i, j, math.Sqrt(xv*xv+yv*yv))
			phi.Set(i, j, math.Atan2(yv, xv))
		}
	}

	return &PixelMaps{X: x, Y: y, Z: z, R: r, Phi: phi}
}

// MinArraySize returns the minimum (rows, cols) shape of a canvas that can
// hold the maps' pixels centered on the beam axis. The size along an axis is
// twice the largest absolute coordinate on that axis, truncated toward zero,
// plus two. The truncation is part of the documented behavior and must not be
// replaced with rounding.
func MinArraySize(maps *PixelMaps) (rows, cols int) {
	rows = 2*int(math.Max(math.Abs(mat.Max(maps.Y)), math.Abs(mat.Min(maps.Y)))) + 2
	cols = 2*int(math.Max(math.Abs(mat.Max(maps.X)), math.Abs(mat.Min(maps.X)))) + 2
	return rows, cols
}
