package geometry

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// parser accumulates a draft detector model line by line. The default panel
// and bad-region records seed every newly mentioned entity; because top-level
// panel-field assignments write into the default panel, they become defaults
// for panels first mentioned after them.
type parser struct {
	det          *Detector
	defaultPanel *Panel
	defaultBad   *BadRegion
}

func newParser() *parser {
	return &parser{
		det:          newDetector(),
		defaultPanel: newDefaultPanel(),
		defaultBad:   newDefaultBadRegion(),
	}
}

// parseLine consumes one raw line of geometry text. Comment lines, blank
// lines and lines that are not a "key = value" assignment are skipped
// silently.
func (p *parser) parseLine(line string) error {
	if strings.HasPrefix(line, ";") {
		return nil
	}
	content := strings.TrimSpace(line)
	if i := strings.IndexByte(content, ';'); i >= 0 {
		content = content[:i]
	}
	tokens := strings.Fields(content)
	if len(tokens) < 3 {
		return nil
	}
	if tokens[1] != "=" {
		return nil
	}
	key := tokens[0]
	value := strings.Join(tokens[2:], "")

	var path []string
	for _, segment := range strings.Split(key, "/") {
		if segment != "" {
			path = append(path, segment)
		}
	}
	if len(path) < 2 {
		return p.parseTopLevel(key, value)
	}

	// The entity kind is decided here, once: names with the "bad" prefix
	// address bad regions, everything else addresses a panel. Entities are
	// created on first mention from the scope's default record.
	name, field := path[0], path[1]
	if strings.HasPrefix(name, "bad") {
		region, ok := p.det.Bad[name]
		if !ok {
			region = p.defaultBad.clone()
			p.det.Bad[name] = region
			p.det.BadOrder = append(p.det.BadOrder, name)
		}
		return parseFieldForBadRegion(field, value, region)
	}
	panel, ok := p.det.Panels[name]
	if !ok {
		panel = p.defaultPanel.clone()
		p.det.Panels[name] = panel
		p.det.PanelOrder = append(p.det.PanelOrder, name)
	}
	return parseFieldForPanel(field, value, panel)
}

// parseTopLevel handles keys without an entity path. Keys that are not known
// top-level fields are tried as panel fields on the shared default panel.
func (p *parser) parseTopLevel(key, value string) error {
	switch {
	case key == "mask_bad":
		v, err := parseMaskValue(value)
		if err != nil {
			return err
		}
		p.det.MaskBad = v
	case key == "mask_good":
		v, err := parseMaskValue(value)
		if err != nil {
			return err
		}
		p.det.MaskGood = v
	case key == "coffset":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		p.defaultPanel.Coffset = v
	case key == "photon_energy":
		if strings.HasPrefix(value, "/") {
			p.det.Beam.PhotonEnergy = 0
			p.det.Beam.PhotonEnergyFrom = value
		} else {
			v, err := parseFloat(key, value)
			if err != nil {
				return err
			}
			p.det.Beam.PhotonEnergy = v
			p.det.Beam.PhotonEnergyFrom = ""
		}
	case key == "photon_energy_scale":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		p.det.Beam.PhotonEnergyScale = v
	case key == "peak_info_location":
		p.det.PeakInfoLocation = value
	case strings.HasPrefix(key, "rigid_group_collection"):
		name := strings.TrimPrefix(key, "rigid_group_collection")
		name = strings.TrimPrefix(name, "_")
		p.det.RigidGroupCollections[name] = strings.Split(value, ",")
	case strings.HasPrefix(key, "rigid_group"):
		name := strings.TrimPrefix(key, "rigid_group")
		name = strings.TrimPrefix(name, "_")
		p.det.RigidGroups[name] = strings.Split(value, ",")
	default:
		return parseFieldForPanel(key, value, p.defaultPanel)
	}
	return nil
}

// parseMaskValue reads a bitmask as decimal, falling back to hexadecimal
// (with or without a 0x prefix) when the decimal parse fails.
func parseMaskValue(value string) (int64, error) {
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v, nil
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(value, "0x"), 16, 64)
	if err != nil {
		return 0, errorf(KindSyntax, "invalid mask value %q", value)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errorf(KindSyntax, "invalid value %q for %s", value, key)
	}
	return v, nil
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errorf(KindSyntax, "invalid value %q for %s", value, key)
	}
	return v, nil
}

// parseFieldForPanel applies one field assignment to a panel (or to the
// shared default panel when called from the top-level fallback).
func parseFieldForPanel(key, value string, panel *Panel) error {
	switch {
	case key == "min_fs":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		panel.OriginMinFS = v
		panel.MinFS = v
	case key == "max_fs":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		panel.OriginMaxFS = v
		panel.MaxFS = v
	case key == "min_ss":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		panel.OriginMinSS = v
		panel.MinSS = v
	case key == "max_ss":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		panel.OriginMaxSS = v
		panel.MaxSS = v
	case key == "corner_x":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		panel.CornerX = v
	case key == "corner_y":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		panel.CornerY = v
	case key == "rail_direction":
		base := [3]float64{panel.RailX, panel.RailY, panel.RailZ}
		if !panel.railSet {
			base = [3]float64{}
		}
		d, err := ParseDirection(value, base)
		if err != nil {
			return fmt.Errorf("invalid rail direction: %w", err)
		}
		panel.RailX, panel.RailY, panel.RailZ = d[0], d[1], d[2]
		panel.railSet = true
	case key == "clen_for_centering":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		panel.ClenForCentering = v
	case key == "adu_per_eV":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		panel.AduPerEV = v
	case key == "adu_per_photon":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		panel.AduPerPhoton = v
	case key == "rigid_group":
		panel.RigidGroup = value
	case key == "clen":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			panel.Clen = v
			panel.ClenFrom = ""
		} else {
			// A non-numeric camera length is a dynamic source path,
			// resolved outside this package.
			panel.Clen = -1
			panel.ClenFrom = value
		}
	case key == "data":
		if !strings.HasPrefix(value, "/") {
			return errorf(KindSyntax, "invalid data location: %q", value)
		}
		panel.Data = value
	case key == "mask":
		if !strings.HasPrefix(value, "/") {
			return errorf(KindSyntax, "invalid mask location: %q", value)
		}
		panel.Mask = value
	case key == "mask_file":
		panel.MaskFile = value
	case key == "saturation_map":
		panel.SaturationMap = value
	case key == "saturation_map_file":
		panel.SaturationMapFile = value
	case key == "coffset":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		panel.Coffset = v
	case key == "res":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		panel.Res = v
	case key == "max_adu":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			panel.MaxADU = v
		} else {
			log.Printf("Warning: unparsable max_adu value %q, keeping default", value)
		}
	case key == "badrow_direction":
		switch value {
		case "x", "f":
			panel.Badrow = "f"
		case "y", "s":
			panel.Badrow = "s"
		case "-":
			panel.Badrow = "-"
		default:
			log.Printf("Warning: badrow_direction must be x, y, f, s or '-', assuming '-'")
			panel.Badrow = "-"
		}
	case key == "no_index":
		panel.NoIndex = value != ""
	case key == "fs":
		// The default fast-scan direction must not leak into an explicit
		// assignment: "fs = y" means (0,1,0), not (1,1,0).
		base := [3]float64{panel.FSX, panel.FSY, panel.FSZ}
		if !panel.fsSet {
			base = [3]float64{}
		}
		d, err := ParseDirection(value, base)
		if err != nil {
			return fmt.Errorf("invalid fast scan direction: %w", err)
		}
		panel.FSX, panel.FSY, panel.FSZ = d[0], d[1], d[2]
		panel.fsSet = true
	case key == "ss":
		base := [3]float64{panel.SSX, panel.SSY, panel.SSZ}
		if !panel.ssSet {
			base = [3]float64{}
		}
		d, err := ParseDirection(value, base)
		if err != nil {
			return fmt.Errorf("invalid slow scan direction: %w", err)
		}
		panel.SSX, panel.SSY, panel.SSZ = d[0], d[1], d[2]
		panel.ssSet = true
	case strings.HasPrefix(key, "dim"):
		return setDimStructureEntry(key, value, panel)
	default:
		return errorf(KindSchema, "unrecognized field: %q", key)
	}
	return nil
}

// parseFieldForBadRegion applies one field assignment to a bad region. The
// first range field fixes the region's coordinate kind.
func parseFieldForBadRegion(key, value string, region *BadRegion) error {
	switch key {
	case "min_x":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		region.MinX = v
		return region.markKind(BadRegionCoords)
	case "max_x":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		region.MaxX = v
		return region.markKind(BadRegionCoords)
	case "min_y":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		region.MinY = v
		return region.markKind(BadRegionCoords)
	case "max_y":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		region.MaxY = v
		return region.markKind(BadRegionCoords)
	case "min_fs":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		region.MinFS = v
		return region.markKind(BadRegionIndexed)
	case "max_fs":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		region.MaxFS = v
		return region.markKind(BadRegionIndexed)
	case "min_ss":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		region.MinSS = v
		return region.markKind(BadRegionIndexed)
	case "max_ss":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		region.MaxSS = v
		return region.markKind(BadRegionIndexed)
	case "panel":
		region.Panel = value
		return nil
	default:
		return errorf(KindSchema, "unrecognized field: %q", key)
	}
}

// Parse reads geometry text from r and returns the finalized detector model.
// Parsing is fail-fast: the first offending line aborts the load, and a model
// is returned only after the full validation pass has succeeded.
func Parse(r io.Reader) (*Detector, error) {
	p := newParser()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Kind: KindAccess, Msg: "reading geometry text", Err: err}
	}
	if err := p.det.validate(); err != nil {
		return nil, err
	}
	return p.det, nil
}

// Load reads and parses the geometry file at path. Errors embed the path and
// the underlying cause; use KindOf to classify them.
func Load(path string) (*Detector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{
			Kind: KindAccess,
			Msg:  fmt.Sprintf("cannot open geometry file %s", path),
			Err:  err,
		}
	}
	defer f.Close()

	det, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("loading geometry file %s: %w", path, err)
	}
	return det, nil
}
