package turnips

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pattern identifies one of the weekly price shapes.
type Pattern int

const (
	Unknown     Pattern = -1
	Fluctuating Pattern = 0
	LargeSpike  Pattern = 1
	Decreasing  Pattern = 2
	SmallSpike  Pattern = 3
)

// PatternCount is the number of real patterns (Unknown excluded).
const PatternCount = 4

var patternNames = map[Pattern]string{
	Unknown:     "Unknown",
	Fluctuating: "Fluctuating",
	LargeSpike:  "Large Spike",
	Decreasing:  "Decreasing",
	SmallSpike:  "Small Spike",
}

// Patterns lists the real patterns in index order.
func Patterns() [PatternCount]Pattern {
	return [PatternCount]Pattern{Fluctuating, LargeSpike, Decreasing, SmallSpike}
}

func (p Pattern) String() string {
	if name, ok := patternNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

// Valid reports whether p is one of the four real patterns.
func (p Pattern) Valid() bool {
	return p >= Fluctuating && p <= SmallSpike
}

// ParsePattern accepts a pattern name in any case, with spaces or
// underscores between words ("large spike", "LARGE_SPIKE").
func ParsePattern(s string) (Pattern, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " "))
	for p, name := range patternNames {
		if strings.ToUpper(name) == key {
			return p, nil
		}
	}
	return Unknown, fmt.Errorf("invalid pattern %q", s)
}

// UnmarshalYAML lets the catalog file refer to patterns by name.
func (p *Pattern) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParsePattern(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*p = parsed
	return nil
}
