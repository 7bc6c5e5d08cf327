package geometry

import "strings"

// Gravity selects the reference point used when placing a region inside a
// larger area.
type Gravity int

const (
	UndefinedGravity Gravity = iota
	NorthWest
	North
	NorthEast
	West
	Center
	East
	SouthWest
	South
	SouthEast
)

var gravityNames = []string{
	"Undefined", "NorthWest", "North", "NorthEast", "West",
	"Center", "East", "SouthWest", "South", "SouthEast",
}

// GravityNames lists the accepted gravity keywords.
func GravityNames() []string {
	out := make([]string, 0, len(gravityNames)+2)
	out = append(out, "None", "Forget")
	out = append(out, gravityNames[1:]...)
	return out
}

// ParseGravity parses a gravity keyword, case-insensitively.
// "None" and "Forget" map to UndefinedGravity.
func ParseGravity(s string) (Gravity, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "none", "forget", "undefined":
		return UndefinedGravity, true
	case "centre":
		return Center, true
	}
	for i, name := range gravityNames {
		if strings.ToLower(name) == key {
			return Gravity(i), true
		}
	}
	return UndefinedGravity, false
}

func (g Gravity) String() string {
	if int(g) < 0 || int(g) >= len(gravityNames) {
		return "Undefined"
	}
	return gravityNames[g]
}

// Adjust moves r, whose X/Y are offsets relative to the gravity point, into
// absolute coordinates inside a w×h area.
func (g Gravity) Adjust(w, h int, r Rect) Rect {
	switch g {
	case North, Center, South:
		r.X += (w - r.Width) / 2
	case NorthEast, East, SouthEast:
		r.X = w - r.Width - r.X
	}
	switch g {
	case West, Center, East:
		r.Y += (h - r.Height) / 2
	case SouthWest, South, SouthEast:
		r.Y = h - r.Height - r.Y
	}
	return r
}
