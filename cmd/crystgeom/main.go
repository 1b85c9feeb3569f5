package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"crystgeom/pkg/config"
	"crystgeom/pkg/geometry"
	"crystgeom/pkg/pixelmap"
	"crystgeom/pkg/render"
)

func main() {
	// Parse command line arguments
	geometryPath := flag.String("geometry", "", "CrystFEL geometry file to load")
	configPath := flag.String("config", "crystgeom.yaml", "Optional YAML configuration file")
	dataPath := flag.String("data", "", "Optional CSV file with a raw data slab to assemble")
	renderOut := flag.String("render", "", "Write the assembled detector image to this JPEG file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *geometryPath == "" {
		*geometryPath = cfg.Input.GeometryPath
	}
	if *geometryPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *dataPath == "" {
		*dataPath = cfg.Input.DataPath
	}

	det, err := geometry.Load(*geometryPath)
	if err != nil {
		log.Fatalf("Failed to load geometry: %v", err)
	}

	fmt.Println("================================")
	fmt.Printf("Geometry: %s\n", *geometryPath)
	fmt.Println("================================")
	fmt.Printf("Panels: %d, bad regions: %d, rigid groups: %d, collections: %d\n",
		len(det.Panels), len(det.Bad), len(det.RigidGroups), len(det.RigidGroupCollections))
	if det.Beam.PhotonEnergyFrom != "" {
		fmt.Printf("Photon energy source: %s\n", det.Beam.PhotonEnergyFrom)
	} else if det.Beam.PhotonEnergy != 0 {
		fmt.Printf("Photon energy: %.1f eV\n", det.Beam.PhotonEnergy)
	}

	if cfg.Output.Verbose {
		for _, name := range det.PanelOrder {
			panel := det.Panels[name]
			clen := fmt.Sprintf("%.4f m", panel.Clen)
			if panel.ClenFrom != "" {
				clen = panel.ClenFrom
			}
			fmt.Printf("  panel %-12s %4dx%-4d res=%.0f px/m clen=%s\n",
				name, panel.W, panel.H, panel.Res, clen)
		}
	}
	fmt.Printf("Furthest-out pixel: panel %s (fs=%d, ss=%d)\n",
		det.FurthestOutPanel, det.FurthestOutFS, det.FurthestOutSS)
	fmt.Printf("Furthest-in pixel:  panel %s (fs=%d, ss=%d)\n",
		det.FurthestInPanel, det.FurthestInFS, det.FurthestInSS)

	maps := pixelmap.ComputePixMaps(det)
	rows, cols := pixelmap.MinArraySize(maps)
	radii := maps.R.RawMatrix().Data
	fmt.Printf("Pixel radius: mean=%.2f stddev=%.2f px\n",
		stat.Mean(radii, nil), stat.StdDev(radii, nil))
	fmt.Printf("Minimal assembled canvas: %dx%d\n", rows, cols)

	if *renderOut == "" {
		return
	}

	mapRows, mapCols := maps.X.Dims()
	var data *mat.Dense
	if *dataPath != "" {
		data, err = loadCSVSlab(*dataPath)
		if err != nil {
			log.Fatalf("Failed to load data slab: %v", err)
		}
	} else {
		// No data given: assemble a synthetic gradient so panel placement
		// is still visible in the output image.
		data = mat.NewDense(mapRows, mapCols, nil)
		for i := 0; i < mapRows; i++ {
			for j := 0; j < mapCols; j++ {
				data.Set(i, j, float64(i+j))
			}
		}
	}

	canvas, err := pixelmap.ApplyGeometryToData(data, det)
	if err != nil {
		log.Fatalf("Failed to apply geometry to data: %v", err)
	}

	outPath := *renderOut
	if !filepath.IsAbs(outPath) && cfg.Render.OutputDir != "" {
		if err := os.MkdirAll(cfg.Render.OutputDir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		outPath = filepath.Join(cfg.Render.OutputDir, outPath)
	}
	if err := render.SaveCanvas(canvas, outPath, cfg.Render.Quality); err != nil {
		log.Fatalf("Failed to save assembled image: %v", err)
	}
	fmt.Printf("Assembled image saved to: %s\n", outPath)
}

// loadCSVSlab reads a rectangular CSV file of floats into a dense matrix.
func loadCSVSlab(path string) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%s: empty data slab", path)
	}

	rows, cols := len(records), len(records[0])
	data := mat.NewDense(rows, cols, nil)
	for i, record := range records {
		if len(record) != cols {
			return nil, fmt.Errorf("%s: ragged row %d", path, i)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i, j, err)
			}
			data.Set(i, j, v)
		}
	}
	return data, nil
}
