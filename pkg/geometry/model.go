// Package geometry loads CrystFEL detector-geometry descriptions into a
// validated model. The geometry format is a line-oriented key/value language;
// keys are either top-level or scoped to a named panel or bad region with a
// "name/field" path. See the CrystFEL geometry man page for the format itself.
package geometry

import "math"

// DimKind identifies what a slot of a panel's dim structure addresses.
type DimKind int

const (
	// DimUnset marks a slot that was grown but never assigned.
	DimUnset DimKind = iota

	// DimSS marks the slow-scan coordinate slot.
	DimSS

	// DimFS marks the fast-scan coordinate slot.
	DimFS

	// DimPlaceholder marks a "%" slot resolved at run time
	// (e.g. a frame number in a data stack).
	DimPlaceholder

	// DimFixed marks a slot pinned to a fixed index.
	DimFixed
)

// DimEntry is one slot of a panel's dim structure. Index is meaningful only
// when Kind is DimFixed.
type DimEntry struct {
	Kind  DimKind
	Index int
}

// Bad-region coordinate kinds. A region is declared either in lab coordinates
// (min_x/max_x/min_y/max_y) or in panel indices (min_fs/max_fs/min_ss/max_ss);
// the two cannot be mixed. BadRegionUnset is the sentinel for a region whose
// fields were never assigned.
const (
	BadRegionCoords  = 0
	BadRegionIndexed = 1
	BadRegionUnset   = 99
)

// Panel is a rectangular sub-region of the detector with its own affine
// transform from (fs, ss) indices to lab-frame coordinates. Unset float
// fields use NaN as the sentinel; unset extents use -1.
type Panel struct {
	// Data-slab extents, 0-based inclusive. The Origin copies keep the
	// values as written in the file.
	OriginMinFS, OriginMaxFS int
	OriginMinSS, OriginMaxSS int
	MinFS, MaxFS             int
	MinSS, MaxSS             int

	// Corner position of pixel (0,0) in pixel units.
	CornerX, CornerY float64

	// Camera length in meters: a literal value, or a dynamic source path
	// in ClenFrom (in which case Clen is -1).
	Clen     float64
	ClenFrom string

	ClenForCentering float64
	Coffset          float64

	// Res is the resolution in pixels per meter.
	Res float64

	Badrow  string
	NoIndex bool

	AduPerEV     float64
	AduPerPhoton float64
	MaxADU       float64

	// Fast-scan, slow-scan and rail direction components. The first
	// explicit assignment of a direction replaces the default wholesale;
	// later assignments refine it axis by axis (see fsSet/ssSet/railSet).
	FSX, FSY, FSZ       float64
	SSX, SSY, SSZ       float64
	RailX, RailY, RailZ float64

	// Whether fs, ss or rail_direction were ever explicitly assigned.
	// An unassigned direction keeps its default; an unassigned rail also
	// waives the clen_for_centering requirement.
	fsSet, ssSet, railSet bool

	Data              string
	Mask              string
	MaskFile          string
	SaturationMap     string
	SaturationMapFile string

	RigidGroup string

	// Dim is the panel's dim structure, indexed by the trailing digit of
	// dimN keys. nil until the first dimN assignment; the validator fills
	// absent structures with the default [ss, fs].
	Dim []DimEntry

	// Derived by the validator.
	W, H               int
	XFS, YFS, XSS, YSS float64
}

// clone returns a deep copy of the panel, used to seed a new panel from the
// shared default record.
func (p *Panel) clone() *Panel {
	c := *p
	if p.Dim != nil {
		c.Dim = append([]DimEntry(nil), p.Dim...)
	}
	return &c
}

// BadRegion is a declared range of pixels to exclude from analysis, either in
// lab coordinates or in panel indices depending on IsFSSS.
type BadRegion struct {
	MinX, MaxX float64
	MinY, MaxY float64

	MinFS, MaxFS int
	MinSS, MaxSS int

	// Panel optionally restricts an index-based region to one panel.
	Panel string

	// IsFSSS is BadRegionUnset until the first range field is assigned,
	// then BadRegionCoords or BadRegionIndexed.
	IsFSSS int
}

func (b *BadRegion) clone() *BadRegion {
	c := *b
	return &c
}

// markKind records which coordinate kind a range assignment implies, and
// rejects regions that mix the two kinds.
func (b *BadRegion) markKind(kind int) error {
	if b.IsFSSS == BadRegionUnset {
		b.IsFSSS = kind
		return nil
	}
	if b.IsFSSS != kind {
		return errorf(KindConsistency, "cannot mix x/y and fs/ss in a bad region")
	}
	return nil
}

// Beam stores the top-level beam properties.
type Beam struct {
	// PhotonEnergy is the literal energy in eV, or 0 when the energy comes
	// from the dynamic source path in PhotonEnergyFrom.
	PhotonEnergy     float64
	PhotonEnergyFrom string

	PhotonEnergyScale float64
}

// Detector is the finalized geometry model. It is built incrementally by the
// parser, checked and completed by the validator, and must be treated as
// read-only afterwards. Panel and bad-region iteration order follows first
// mention in the file (PanelOrder, BadOrder).
type Detector struct {
	Panels     map[string]*Panel
	PanelOrder []string

	Bad      map[string]*BadRegion
	BadOrder []string

	MaskGood int64
	MaskBad  int64

	RigidGroups           map[string][]string
	RigidGroupCollections map[string][]string

	PeakInfoLocation string

	Beam Beam

	// Extremal radial extent over all panel corners, filled by the
	// validator: the panel and corner indices of the pixels closest to and
	// furthest from the beam axis.
	FurthestOutPanel string
	FurthestOutFS    int
	FurthestOutSS    int
	FurthestInPanel  string
	FurthestInFS     int
	FurthestInSS     int
}

func newDetector() *Detector {
	return &Detector{
		Panels:                make(map[string]*Panel),
		Bad:                   make(map[string]*BadRegion),
		RigidGroups:           make(map[string][]string),
		RigidGroupCollections: make(map[string][]string),
		Beam: Beam{
			PhotonEnergyScale: 1,
		},
	}
}

// newDefaultPanel returns the record new panels are cloned from. Top-level
// assignments of panel fields mutate this record, so they act as defaults for
// panels first mentioned later in the file.
func newDefaultPanel() *Panel {
	nan := math.NaN()
	return &Panel{
		OriginMinFS:      -1,
		OriginMaxFS:      -1,
		OriginMinSS:      -1,
		OriginMaxSS:      -1,
		MinFS:            -1,
		MaxFS:            -1,
		MinSS:            -1,
		MaxSS:            -1,
		CornerX:          nan,
		CornerY:          nan,
		Clen:             nan,
		Res:              -1,
		Badrow:           "-",
		FSX:              1,
		SSY:              1,
		RailX:            nan,
		RailY:            nan,
		RailZ:            nan,
		ClenForCentering: nan,
		AduPerEV:         nan,
		AduPerPhoton:     nan,
		MaxADU:           math.Inf(1),
	}
}

func newDefaultBadRegion() *BadRegion {
	nan := math.NaN()
	return &BadRegion{
		MinX: nan, MaxX: nan,
		MinY: nan, MaxY: nan,
		IsFSSS: BadRegionUnset,
	}
}
