// Package render turns assembled detector canvases into grayscale images for
// quick inspection of a geometry.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ToImage converts a canvas into a 16-bit grayscale image, mapping the
// canvas's value range linearly onto [0, 65535]. A constant canvas produces
// an all-black image.
func ToImage(canvas *mat.Dense) *image.Gray16 {
	rows, cols := canvas.Dims()
	img := image.NewGray16(image.Rect(0, 0, cols, rows))

	data := canvas.RawMatrix().Data
	lo := floats.Min(data)
	hi := floats.Max(data)
	span := hi - lo
	if span == 0 {
		return img
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			value := uint16((canvas.At(y, x) - lo) / span * 65535)
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img
}

// SaveJPEG writes an image to filename with the given JPEG quality.
func SaveJPEG(img image.Image, filename string, quality int) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
}

// SaveCanvas normalizes a canvas and writes it as a JPEG file.
func SaveCanvas(canvas *mat.Dense, filename string, quality int) error {
	if err := SaveJPEG(ToImage(canvas), filename, quality); err != nil {
		return fmt.Errorf("saving canvas to %s: %w", filename, err)
	}
	return nil
}
