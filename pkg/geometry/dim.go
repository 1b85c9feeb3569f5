package geometry

import "strconv"

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// setDimStructureEntry handles a dimN assignment for a panel. The slot index
// is the single digit at key offset 3, so the list never exceeds ten entries;
// the list grows with unset slots as needed so dim entries can arrive in any
// order.
func setDimStructureEntry(key, value string, panel *Panel) error {
	if len(key) < 4 {
		return errorf(KindSyntax, "'dim' must be followed by a number, e.g. 'dim0'")
	}
	digit := key[3]
	if digit < '0' || digit > '9' {
		return errorf(KindSyntax, "invalid dimension number %q", string(digit))
	}
	index := int(digit - '0')

	dim := panel.Dim
	for len(dim) <= index {
		dim = append(dim, DimEntry{})
	}

	switch {
	case value == "ss":
		dim[index] = DimEntry{Kind: DimSS}
	case value == "fs":
		dim[index] = DimEntry{Kind: DimFS}
	case value == "%":
		dim[index] = DimEntry{Kind: DimPlaceholder}
	case isDigits(value):
		n, err := strconv.Atoi(value)
		if err != nil {
			return errorf(KindSyntax, "invalid dim entry: %q", value)
		}
		dim[index] = DimEntry{Kind: DimFixed, Index: n}
	default:
		return errorf(KindSyntax, "invalid dim entry: %q", value)
	}

	panel.Dim = dim
	return nil
}
