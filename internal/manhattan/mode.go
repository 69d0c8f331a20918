package manhattan

import "fmt"

// Mode selects the bias applied when orthogonalizing diagonal edges.
type Mode int

const (
	// Grow biases every staircase corner outward so the result is a
	// superset of the snapped shape. Used for outer boundaries so
	// fabricated shapes are never undersized.
	Grow Mode = iota
	// Shrink biases every staircase corner inward so the result is a
	// subset of the snapped shape. Used for holes so enclosed voids are
	// never undersized.
	Shrink
	// SnapOnly rounds coordinates to the grid without orthogonalizing
	// diagonal edges.
	SnapOnly
)

// String returns the mode name used in configs and error messages.
func (m Mode) String() string {
	switch m {
	case Grow:
		return "grow"
	case Shrink:
		return "shrink"
	case SnapOnly:
		return "snap"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "grow", "inc":
		return Grow, nil
	case "shrink", "dec":
		return Shrink, nil
	case "snap", "non":
		return SnapOnly, nil
	default:
		return 0, &InvalidModeError{Name: s}
	}
}

// InvalidModeError reports a manhattanization mode that is not one of
// Grow, Shrink or SnapOnly.
type InvalidModeError struct {
	Mode Mode
	Name string
}

func (e *InvalidModeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid manhattanization mode %q", e.Name)
	}
	return fmt.Sprintf("invalid manhattanization mode %s", e.Mode)
}

// DegeneratePolygonError reports an input polygon that collapsed to fewer
// than three distinct vertices after grid snapping.
type DegeneratePolygonError struct {
	Distinct int
}

func (e *DegeneratePolygonError) Error() string {
	return fmt.Sprintf("degenerate polygon: %d distinct vertices after snapping, need at least 3", e.Distinct)
}
