package variant

// Size is a target pixel size for one derivative image.
type Size struct {
	Width  int
	Height int
}

func (s Size) Aspect() float64 {
	return float64(s.Width) / float64(s.Height)
}

// SizeCatalog maps a file name suffix to its target size. The empty
// suffix is the base variant every other non-square derivative is
// rescaled from.
type SizeCatalog map[string]Size

// SuffixUser is the square avatar derivative. It is the only suffix
// rendered from the original master instead of the base variant, so it
// does not inherit the base variant's letterbox padding.
const SuffixUser = "-user"

// DefaultSizes returns the fixed production derivative set.
func DefaultSizes() SizeCatalog {
	return SizeCatalog{
		"":                Size{777, 520},
		"-cashback-promo": Size{126, 90},
		"-email":          Size{640, 428},
		"-thumb":          Size{105, 70},
		"-promo":          Size{172, 115},
		SuffixUser:        Size{50, 50},
		"-deal-bonus":     Size{278, 182},
		"-iphone-medium":  Size{151, 106},
		"-iphone-small":   Size{80, 53},
		"-iphone-promo":   Size{640, 428},
		"-iphone-thumb":   Size{210, 140},
		"-travel-main":    Size{777, 520},
		"-2-per-row":      Size{470, 315},
		"-3-per-row":      Size{310, 210},
	}
}
