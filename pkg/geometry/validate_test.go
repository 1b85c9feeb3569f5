package geometry

import (
	"fmt"
	"strings"
	"testing"
)

func twoPanelGeometry() string {
	var b strings.Builder
	for i, name := range []string{"panel0", "panel1"} {
		minFS := i * 10
		fmt.Fprintf(&b, "%s/min_fs = %d\n", name, minFS)
		fmt.Fprintf(&b, "%s/max_fs = %d\n", name, minFS+9)
		fmt.Fprintf(&b, "%s/min_ss = 0\n", name)
		fmt.Fprintf(&b, "%s/max_ss = 4\n", name)
		fmt.Fprintf(&b, "%s/corner_x = %d\n", name, minFS)
		fmt.Fprintf(&b, "%s/corner_y = 0\n", name)
		fmt.Fprintf(&b, "%s/fs = x\n", name)
		fmt.Fprintf(&b, "%s/ss = y\n", name)
		fmt.Fprintf(&b, "%s/clen = 0.1\n", name)
		fmt.Fprintf(&b, "%s/res = 1000\n", name)
		fmt.Fprintf(&b, "%s/adu_per_eV = 1\n", name)
	}
	return b.String()
}

func expectKind(t *testing.T, text string, want Kind) {
	t.Helper()
	_, err := Parse(strings.NewReader(text))
	if err == nil {
		t.Fatalf("Expected %v error, got nil", want)
	}
	if kind, ok := KindOf(err); !ok || kind != want {
		t.Errorf("Expected a %v error, got %v", want, err)
	}
}

// TestValidateNoPanels verifies that a file without any panel is rejected.
func TestValidateNoPanels(t *testing.T) {
	expectKind(t, "mask_bad = 1\n", KindCompleteness)
}

// TestValidateSingularTransform verifies that parallel fast- and slow-scan
// axes are caught as a singular transform.
func TestValidateSingularTransform(t *testing.T) {
	text := strings.Replace(minimalGeometry, "panel0/ss = y", "panel0/ss = x", 1)
	expectKind(t, text, KindGeometry)
}

// TestValidateDanglingRigidGroup verifies referential integrity for rigid
// groups and collections.
func TestValidateDanglingRigidGroup(t *testing.T) {
	expectKind(t, minimalGeometry+"rigid_group_quad = panel0,ghost\n", KindConsistency)
	expectKind(t, minimalGeometry+"rigid_group_collection_all = nogroup\n", KindConsistency)
}

// TestValidateMissingRequiredFields drops each required field in turn and
// expects a completeness failure.
func TestValidateMissingRequiredFields(t *testing.T) {
	required := []string{
		"panel0/min_fs = 0",
		"panel0/max_fs = 9",
		"panel0/min_ss = 0",
		"panel0/max_ss = 4",
		"panel0/corner_x = 0",
		"panel0/clen = 0.1",
		"panel0/res = 1000",
		"panel0/adu_per_eV = 1",
	}
	for _, line := range required {
		t.Run(strings.Fields(line)[0], func(t *testing.T) {
			text := strings.Replace(minimalGeometry, line+"\n", "", 1)
			expectKind(t, text, KindCompleteness)
		})
	}
}

// TestValidateAduAlternatives verifies that adu_per_photon satisfies the
// calibration requirement in place of adu_per_eV.
func TestValidateAduAlternatives(t *testing.T) {
	text := strings.Replace(minimalGeometry,
		"panel0/adu_per_eV = 1", "panel0/adu_per_photon = 25", 1)
	det := parseString(t, text)
	if got := det.Panels["panel0"].AduPerPhoton; got != 25 {
		t.Errorf("Expected adu_per_photon 25, got %v", got)
	}
}

// TestValidateRailNeedsCentering verifies that an explicit rail direction
// requires clen_for_centering, whichever axes the direction mentions.
func TestValidateRailNeedsCentering(t *testing.T) {
	expectKind(t, minimalGeometry+"panel0/rail_direction = z\n", KindCompleteness)
	expectKind(t, minimalGeometry+"panel0/rail_direction = x\n", KindCompleteness)

	det := parseString(t, minimalGeometry+
		"panel0/rail_direction = z\npanel0/clen_for_centering = 0.2\n")
	panel := det.Panels["panel0"]
	if panel.RailX != 0 || panel.RailY != 0 || panel.RailZ != 1 {
		t.Errorf("Expected rail (0,0,1), got (%v,%v,%v)",
			panel.RailX, panel.RailY, panel.RailZ)
	}
	if panel.ClenForCentering != 0.2 {
		t.Errorf("Expected clen_for_centering 0.2, got %v", panel.ClenForCentering)
	}
}

// TestValidateExplicitRailSurvives verifies that an explicit rail direction
// is kept as written instead of being overwritten by the (0,0,1) default.
func TestValidateExplicitRailSurvives(t *testing.T) {
	det := parseString(t, minimalGeometry+
		"panel0/rail_direction = y\npanel0/clen_for_centering = 0.2\n")
	panel := det.Panels["panel0"]
	if panel.RailX != 0 || panel.RailY != 1 || panel.RailZ != 0 {
		t.Errorf("Expected explicit rail (0,1,0), got (%v,%v,%v)",
			panel.RailX, panel.RailY, panel.RailZ)
	}
}

// TestValidateUnresolvedBadRegion verifies that a bad region that only names
// a panel never resolves its coordinate kind and is rejected.
func TestValidateUnresolvedBadRegion(t *testing.T) {
	expectKind(t, minimalGeometry+"badempty/panel = panel0\n", KindCompleteness)
}

// TestValidatePlaceholderCounts verifies the cross-panel placeholder
// consistency rules for dim structures and mask paths.
func TestValidatePlaceholderCounts(t *testing.T) {
	base := twoPanelGeometry()

	// One panel with a placeholder dim, the other without.
	text := base + `
panel0/dim0 = %
panel0/dim1 = ss
panel0/dim2 = fs
`
	expectKind(t, text, KindConsistency)

	// Mask placeholder counts must match across panels too.
	text = base + `
panel0/mask = /entry/mask_%
panel1/mask = /entry/mask
`
	expectKind(t, text, KindConsistency)

	// A mask cannot use more placeholders than the data dims provide.
	text = base + `
panel0/mask = /entry/mask_%
panel1/mask = /entry/other_%
`
	expectKind(t, text, KindConsistency)
}

// TestValidateDimStructures verifies the per-panel dim rules: exactly one ss
// and fs, at most one placeholder, no undefined slots, equal length across
// panels.
func TestValidateDimStructures(t *testing.T) {
	cases := []struct {
		name  string
		extra string
	}{
		{"two ss", "panel0/dim0 = ss\npanel0/dim1 = ss\n"},
		{"no fs", "panel0/dim0 = ss\npanel0/dim1 = %\n"},
		{"two placeholders",
			"panel0/dim0 = %\npanel0/dim1 = %\npanel0/dim2 = ss\npanel0/dim3 = fs\n"},
		{"undefined slot", "panel0/dim0 = ss\npanel0/dim2 = fs\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectKind(t, minimalGeometry+tc.extra, KindConsistency)
		})
	}

	// Lengths must agree across panels.
	text := twoPanelGeometry() + `
panel0/dim0 = ss
panel0/dim1 = fs
panel1/dim0 = 0
panel1/dim1 = ss
panel1/dim2 = fs
`
	expectKind(t, text, KindConsistency)
}

// TestValidateExtremalScan verifies the furthest-in/furthest-out corner scan
// on the minimal panel.
func TestValidateExtremalScan(t *testing.T) {
	det := parseString(t, minimalGeometry)

	if det.FurthestInPanel != "panel0" || det.FurthestInFS != 0 || det.FurthestInSS != 0 {
		t.Errorf("Expected furthest-in at panel0 (0,0), got %s (%d,%d)",
			det.FurthestInPanel, det.FurthestInFS, det.FurthestInSS)
	}
	// The corner pixel (w, h) = (10, 5) is furthest from the beam axis.
	if det.FurthestOutPanel != "panel0" || det.FurthestOutFS != 10 || det.FurthestOutSS != 5 {
		t.Errorf("Expected furthest-out at panel0 (10,5), got %s (%d,%d)",
			det.FurthestOutPanel, det.FurthestOutFS, det.FurthestOutSS)
	}
}
