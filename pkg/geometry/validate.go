package geometry

import (
	"math"
	"strings"
)

// validate finalizes the draft model: it runs the multi-pass consistency and
// completeness checks and computes the derived fields (panel width/height,
// inverse-transform coefficients, extremal radial extent). Any failed check
// aborts the load; there is no partial model.
func (det *Detector) validate() error {
	if len(det.PanelOrder) == 0 {
		return errorf(KindCompleteness, "no panel descriptions in geometry file")
	}
	if err := det.checkPlaceholders(); err != nil {
		return err
	}
	if err := det.checkDimStructures(); err != nil {
		return err
	}
	if err := det.checkPanelCompleteness(); err != nil {
		return err
	}
	if err := det.checkBadRegions(); err != nil {
		return err
	}
	if err := det.checkRigidGroups(); err != nil {
		return err
	}
	if err := det.computeInverseTransforms(); err != nil {
		return err
	}
	det.findMinMaxD()
	return nil
}

func countDimPlaceholders(p *Panel) int {
	n := 0
	for _, entry := range p.Dim {
		if entry.Kind == DimPlaceholder {
			n++
		}
	}
	return n
}

// checkPlaceholders verifies that the number of run-time placeholders is the
// same for every panel's dim structure, the same for every panel's mask path,
// and that masks never use more placeholders than the data does.
func (det *Detector) checkPlaceholders() error {
	inPanels := -1
	for _, name := range det.PanelOrder {
		n := countDimPlaceholders(det.Panels[name])
		if inPanels < 0 {
			inPanels = n
		} else if n != inPanels {
			return errorf(KindConsistency,
				"all panels' data and mask entries must have the same number of placeholders")
		}
	}
	inMasks := -1
	for _, name := range det.PanelOrder {
		n := strings.Count(det.Panels[name].Mask, "%")
		if inMasks < 0 {
			inMasks = n
		} else if n != inMasks {
			return errorf(KindConsistency,
				"all panels' data and mask entries must have the same number of placeholders")
		}
	}
	if inMasks > inPanels {
		return errorf(KindConsistency,
			"number of placeholders in mask cannot be larger than the number for data")
	}
	return nil
}

// checkDimStructures validates every panel's dim structure, first filling
// panels that never declared one with the default [ss, fs].
func (det *Detector) checkDimStructures() error {
	dimLength := -1
	for _, name := range det.PanelOrder {
		panel := det.Panels[name]
		if panel.Dim == nil {
			panel.Dim = []DimEntry{{Kind: DimSS}, {Kind: DimFS}}
		}
		foundSS, foundFS, foundPlaceholder := 0, 0, 0
		for i, entry := range panel.Dim {
			switch entry.Kind {
			case DimUnset:
				return errorf(KindConsistency,
					"dimension %d for panel %s is undefined", i, name)
			case DimSS:
				foundSS++
			case DimFS:
				foundFS++
			case DimPlaceholder:
				foundPlaceholder++
			}
		}
		if foundSS != 1 {
			return errorf(KindConsistency,
				"exactly one slow scan dim coordinate is needed (found %d for panel %s)",
				foundSS, name)
		}
		if foundFS != 1 {
			return errorf(KindConsistency,
				"exactly one fast scan dim coordinate is needed (found %d for panel %s)",
				foundFS, name)
		}
		if foundPlaceholder > 1 {
			return errorf(KindConsistency,
				"maximum one placeholder dim coordinate is allowed (found %d for panel %s)",
				foundPlaceholder, name)
		}
		if dimLength < 0 {
			dimLength = len(panel.Dim)
		} else if dimLength != len(panel.Dim) {
			return errorf(KindConsistency,
				"number of dim coordinates must be the same for all panels")
		}
		if dimLength == 1 {
			return errorf(KindConsistency,
				"number of dim coordinates must be at least two")
		}
	}
	return nil
}

// checkPanelCompleteness verifies the required per-panel fields, applies the
// rail-direction defaults and computes each panel's width and height.
func (det *Detector) checkPanelCompleteness() error {
	for _, name := range det.PanelOrder {
		panel := det.Panels[name]
		if panel.OriginMinFS < 0 {
			return errorf(KindCompleteness,
				"please specify the minimum fs coordinate for panel %s", name)
		}
		if panel.OriginMaxFS < 0 {
			return errorf(KindCompleteness,
				"please specify the maximum fs coordinate for panel %s", name)
		}
		if panel.OriginMinSS < 0 {
			return errorf(KindCompleteness,
				"please specify the minimum ss coordinate for panel %s", name)
		}
		if panel.OriginMaxSS < 0 {
			return errorf(KindCompleteness,
				"please specify the maximum ss coordinate for panel %s", name)
		}
		if math.IsNaN(panel.CornerX) {
			return errorf(KindCompleteness,
				"please specify the corner X coordinate for panel %s", name)
		}
		if math.IsNaN(panel.Clen) && panel.ClenFrom == "" {
			return errorf(KindCompleteness,
				"please specify the camera length for panel %s", name)
		}
		if panel.Res < 0 {
			return errorf(KindCompleteness,
				"please specify the resolution for panel %s", name)
		}
		if math.IsNaN(panel.AduPerEV) && math.IsNaN(panel.AduPerPhoton) {
			return errorf(KindCompleteness,
				"please specify either adu_per_eV or adu_per_photon for panel %s", name)
		}
		if math.IsNaN(panel.ClenForCentering) && panel.railSet {
			return errorf(KindCompleteness,
				"you must specify clen_for_centering if you specify the rail direction (panel %s)", name)
		}
		if !panel.railSet {
			panel.RailX = 0
			panel.RailY = 0
			panel.RailZ = 1
		}
		if math.IsNaN(panel.ClenForCentering) {
			panel.ClenForCentering = 0
		}
		panel.W = panel.OriginMaxFS - panel.OriginMinFS + 1
		panel.H = panel.OriginMaxSS - panel.OriginMinSS + 1
	}
	return nil
}

func (det *Detector) checkBadRegions() error {
	for _, name := range det.BadOrder {
		if det.Bad[name].IsFSSS == BadRegionUnset {
			return errorf(KindCompleteness,
				"please specify the coordinate ranges for bad region %s", name)
		}
	}
	return nil
}

// checkRigidGroups verifies referential integrity: every panel a group names
// must exist, and every group a collection names must exist.
func (det *Detector) checkRigidGroups() error {
	for group, panels := range det.RigidGroups {
		for _, name := range panels {
			if _, ok := det.Panels[name]; !ok {
				return errorf(KindConsistency,
					"cannot add panel to rigid group %s, panel not found: %s", group, name)
			}
		}
	}
	for collection, groups := range det.RigidGroupCollections {
		for _, name := range groups {
			if _, ok := det.RigidGroups[name]; !ok {
				return errorf(KindConsistency,
					"cannot add rigid group to collection %s, rigid group not found: %s",
					collection, name)
			}
		}
	}
	return nil
}

// computeInverseTransforms inverts each panel's 2x2 fs/ss transform, storing
// the coefficients that map lab-frame offsets back to panel indices.
func (det *Detector) computeInverseTransforms() error {
	for _, name := range det.PanelOrder {
		panel := det.Panels[name]
		d := panel.FSX*panel.SSY - panel.SSX*panel.FSY
		if d == 0 {
			return errorf(KindGeometry, "panel %s transformation is singular", name)
		}
		panel.XFS = panel.SSY / d
		panel.YFS = panel.SSX / d
		panel.XSS = panel.FSY / d
		panel.YSS = panel.FSX / d
	}
	return nil
}

func (det *Detector) checkPoint(name string, panel *Panel, fs, ss int, minD, maxD float64) (float64, float64) {
	xs := float64(fs)*panel.FSX + float64(ss)*panel.SSX
	ys := float64(fs)*panel.FSY + float64(ss)*panel.SSY
	rx := (xs + panel.CornerX) / panel.Res
	ry := (ys + panel.CornerY) / panel.Res
	dist := math.Sqrt(rx*rx + ry*ry)
	if dist > maxD {
		det.FurthestOutPanel = name
		det.FurthestOutFS = fs
		det.FurthestOutSS = ss
		maxD = dist
	} else if dist < minD {
		det.FurthestInPanel = name
		det.FurthestInFS = fs
		det.FurthestInSS = ss
		minD = dist
	}
	return minD, maxD
}

// findMinMaxD scans the four corner pixels of every panel for the lab-frame
// distances closest to and furthest from the beam axis.
func (det *Detector) findMinMaxD() {
	minD := math.Inf(1)
	maxD := 0.0
	for _, name := range det.PanelOrder {
		panel := det.Panels[name]
		minD, maxD = det.checkPoint(name, panel, 0, 0, minD, maxD)
		minD, maxD = det.checkPoint(name, panel, panel.W, 0, minD, maxD)
		minD, maxD = det.checkPoint(name, panel, 0, panel.H, minD, maxD)
		minD, maxD = det.checkPoint(name, panel, panel.W, panel.H, minD, maxD)
	}
}
