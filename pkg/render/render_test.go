package render

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// TestToImage verifies the linear normalization onto the Gray16 range.
func TestToImage(t *testing.T) {
	canvas := mat.NewDense(2, 2, []float64{0, 25, 50, 100})
	img := ToImage(canvas)

	bounds := img.Bounds()
	if bounds.Dx() != 2 || bounds.Dy() != 2 {
		t.Fatalf("Expected 2x2 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	if got := img.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("Expected minimum to map to 0, got %d", got)
	}
	if got := img.Gray16At(1, 1).Y; got != 65535 {
		t.Errorf("Expected maximum to map to 65535, got %d", got)
	}
	// 50 out of 100 lands mid-range.
	if got := img.Gray16At(0, 1).Y; got != 32767 {
		t.Errorf("Expected mid value 32767, got %d", got)
	}
}

// TestToImageConstantCanvas verifies that a flat canvas produces an all-black
// image rather than dividing by a zero span.
func TestToImageConstantCanvas(t *testing.T) {
	canvas := mat.NewDense(2, 2, []float64{3, 3, 3, 3})
	img := ToImage(canvas)
	if got := img.Gray16At(1, 0).Y; got != 0 {
		t.Errorf("Expected 0 for constant canvas, got %d", got)
	}
}

// TestSaveCanvas verifies that a canvas round-trips to a JPEG file on disk.
func TestSaveCanvas(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "render-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	canvas := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			canvas.Set(i, j, float64(i*4+j))
		}
	}

	filename := filepath.Join(tempDir, "canvas.jpg")
	if err := SaveCanvas(canvas, filename, 90); err != nil {
		t.Fatalf("SaveCanvas failed: %v", err)
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Errorf("Saved file does not exist: %s", filename)
	}
}
