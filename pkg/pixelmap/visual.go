package pixelmap

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"crystgeom/pkg/geometry"
)

// VisualizationMaps holds pixel maps recentered for display-space placement.
// X and Y store integer-valued canvas coordinates (as floats, truncated
// toward zero and shifted by half the minimal canvas size). The z, r and phi
// maps have no meaning in image space and are deliberately absent.
type VisualizationMaps struct {
	X *mat.Dense
	Y *mat.Dense
}

// ComputeVisualizationPixMaps recomputes the pixel maps and shifts them so
// the beam axis lands at the center of the minimal canvas returned by
// MinArraySize.
func ComputeVisualizationPixMaps(det *geometry.Detector) *VisualizationMaps {
	maps := ComputePixMaps(det)
	minRows, minCols := MinArraySize(maps)

	rows, cols := maps.X.Dims()
	x := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x.Set(i, j, float64(int(maps.X.At(i, j))+minCols/2-1))
			y.Set(i, j, float64(int(maps.Y.At(i, j))+minRows/2-1))
		}
	}
	return &VisualizationMaps{X: x, Y: y}
}

// ApplyGeometryToData scatters a raw data slab into a freshly allocated
// canvas of the minimal size, using the visualization pixel maps as target
// coordinates. Data and maps are walked in the same row-major order, so when
// two pixels land on the same canvas cell the later one wins; there is no
// accumulation. The data slab must have the same number of elements as the
// pixel maps.
func ApplyGeometryToData(data *mat.Dense, det *geometry.Detector) (*mat.Dense, error) {
	maps := ComputePixMaps(det)
	rows, cols := MinArraySize(maps)
	canvas := mat.NewDense(rows, cols, nil)

	vis := ComputeVisualizationPixMaps(det)
	mapRows, mapCols := vis.X.Dims()
	dataRows, dataCols := data.Dims()
	if dataRows*dataCols != mapRows*mapCols {
		return nil, fmt.Errorf(
			"data shape (%d, %d) does not match pixel map shape (%d, %d)",
			dataRows, dataCols, mapRows, mapCols)
	}

	for i := 0; i < mapRows; i++ {
		for j := 0; j < mapCols; j++ {
			flat := i*mapCols + j
			v := data.At(flat/dataCols, flat%dataCols)
			canvas.Set(int(vis.Y.At(i, j)), int(vis.X.At(i, j)), v)
		}
	}
	return canvas, nil
}
