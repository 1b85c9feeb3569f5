package geometry

import (
	"strconv"
	"strings"
)

// splitAlgebraic splits a signed axis-sum expression such as "-0.5x+y" into
// its signed terms ("-0.5x", "+y"). A leading term without an explicit sign
// gets an implicit "+".
func splitAlgebraic(value string) []string {
	var items []string
	var cur strings.Builder
	for _, r := range value {
		if r == '+' || r == '-' {
			if cur.Len() > 0 {
				items = append(items, cur.String())
				cur.Reset()
			}
			items = append(items, string(r))
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		items = append(items, cur.String())
	}
	if len(items) > 0 && items[0] != "+" && items[0] != "-" {
		items = append([]string{"+"}, items...)
	}
	terms := make([]string, 0, len(items)/2)
	for i := 0; i+1 < len(items); i += 2 {
		terms = append(terms, items[i]+items[i+1])
	}
	return terms
}

// ParseDirection interprets a direction expression like "x", "-y" or
// "-0.5x +y" and returns the direction vector. Axes the expression does not
// mention keep their value from the supplied base vector, so repeated
// assignments can specify a direction one axis at a time. Each term must end
// in x, y or z; the magnitude before the axis letter defaults to 1 for a bare
// "+" and -1 for a bare "-".
func ParseDirection(value string, base [3]float64) ([3]float64, error) {
	direction := base
	stripped := strings.Join(strings.Fields(value), "")
	terms := splitAlgebraic(stripped)
	if len(terms) == 0 {
		return direction, errorf(KindSyntax, "invalid direction: %q", value)
	}
	for _, term := range terms {
		axis := term[len(term)-1]
		if axis != 'x' && axis != 'y' && axis != 'z' {
			return direction, errorf(KindSyntax,
				"invalid symbol %q (must be x, y or z)", string(axis))
		}
		var magnitude float64
		switch head := term[:len(term)-1]; head {
		case "+":
			magnitude = 1.0
		case "-":
			magnitude = -1.0
		default:
			v, err := strconv.ParseFloat(head, 64)
			if err != nil {
				return direction, errorf(KindSyntax,
					"invalid direction magnitude %q", head)
			}
			magnitude = v
		}
		switch axis {
		case 'x':
			direction[0] = magnitude
		case 'y':
			direction[1] = magnitude
		case 'z':
			direction[2] = magnitude
		}
	}
	return direction, nil
}
