package turnips

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// PhaseKind selects how a phase draws its rates.
type PhaseKind string

const (
	// PhaseRandom draws every slot independently from [RateMin, RateMax].
	PhaseRandom PhaseKind = "random"
	// PhaseDecreasing draws a start rate once and lowers it by a random
	// decay in [DecayMin, DecayMax] after every slot.
	PhaseDecreasing PhaseKind = "decreasing"
)

// Phase is a contiguous run of slots sharing one rate rule.
type Phase struct {
	Name      string    `yaml:"name" validate:"required"`
	Kind      PhaseKind `yaml:"kind" default:"random" validate:"oneof=random decreasing"`
	Length    int       `yaml:"length" validate:"gte=0,lte=12"`
	MinLength int       `yaml:"min_length" validate:"gte=0,lte=12"`
	MaxLength int       `yaml:"max_length" validate:"gtefield=MinLength,lte=12"`
	RateMin   float64   `yaml:"rate_min" validate:"gt=0"`
	RateMax   float64   `yaml:"rate_max" validate:"gtefield=RateMin"`
	DecayMin  float64   `yaml:"decay_min" validate:"gte=0"`
	DecayMax  float64   `yaml:"decay_max" validate:"gtefield=DecayMin"`
	// Offset is added to the rounded price (the spike shoulders sell one bell lower).
	Offset int `yaml:"offset"`
}

// LengthGroup ties phases whose lengths the game draws jointly.
type LengthGroup struct {
	Phases []int `yaml:"phases" validate:"required,min=1"`
	Total  int   `yaml:"total" validate:"gte=0,lte=12"`
}

// PatternDefinition is the immutable rule set of one pattern.
type PatternDefinition struct {
	Pattern Pattern       `yaml:"pattern"`
	Phases  []Phase       `yaml:"phases" validate:"required,min=1,dive"`
	Groups  []LengthGroup `yaml:"groups" validate:"dive"`
}

// PriorRow holds the transition weights out of one previous pattern.
// Weights are divided by Total, so a row can be written as counts.
type PriorRow struct {
	Previous Pattern   `yaml:"previous"`
	Weights  []float64 `yaml:"weights" validate:"len=4,dive,gte=0"`
	Total    float64   `yaml:"total" default:"1" validate:"gt=0"`
}

// Catalog is the process-wide rule table. It is read-only once loaded.
type Catalog struct {
	Version  string              `yaml:"version"`
	Rounding Rounding            `yaml:"rounding" default:"ceil" validate:"oneof=ceil nearest"`
	Priors   []PriorRow          `yaml:"priors" validate:"len=5,dive"`
	Patterns []PatternDefinition `yaml:"patterns" validate:"len=4,dive"`

	definitions [PatternCount]PatternDefinition
	priors      map[Pattern][PatternCount]float64
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded game catalog, parsed once.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(defaultCatalogYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

// LoadCatalog reads a catalog file. An empty path selects the embedded one.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes, defaults and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("catalog defaults: %w", err)
	}
	for i := range c.Patterns {
		for j := range c.Patterns[i].Phases {
			ph := &c.Patterns[i].Phases[j]
			if ph.Length > 0 {
				ph.MinLength, ph.MaxLength = ph.Length, ph.Length
			}
		}
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	if err := c.resolve(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) resolve() error {
	seen := make(map[Pattern]bool, PatternCount)
	for _, def := range c.Patterns {
		if !def.Pattern.Valid() {
			return fmt.Errorf("pattern definition for %s", def.Pattern)
		}
		if seen[def.Pattern] {
			return fmt.Errorf("pattern %s defined twice", def.Pattern)
		}
		seen[def.Pattern] = true
		if err := def.check(); err != nil {
			return fmt.Errorf("%s: %w", def.Pattern, err)
		}
		c.definitions[def.Pattern] = def
	}

	c.priors = make(map[Pattern][PatternCount]float64, PatternCount+1)
	for _, row := range c.Priors {
		if _, dup := c.priors[row.Previous]; dup {
			return fmt.Errorf("priors after %s given twice", row.Previous)
		}
		var probs [PatternCount]float64
		sum := 0.0
		for i, w := range row.Weights {
			probs[i] = w / row.Total
			sum += probs[i]
		}
		if math.Abs(sum-1) > 1e-9 {
			return fmt.Errorf("priors after %s sum to %v", row.Previous, sum)
		}
		c.priors[row.Previous] = probs
	}
	if _, ok := c.priors[Unknown]; !ok {
		return errors.New("priors for an unknown previous pattern are missing")
	}
	return nil
}

func (d PatternDefinition) check() error {
	minTotal, maxTotal := 0, 0
	for _, ph := range d.Phases {
		minTotal += ph.MinLength
		maxTotal += ph.MaxLength
	}
	if minTotal > SellSlots || maxTotal < SellSlots {
		return fmt.Errorf("phase lengths span %d..%d, need %d", minTotal, maxTotal, SellSlots)
	}
	for _, g := range d.Groups {
		for _, idx := range g.Phases {
			if idx < 0 || idx >= len(d.Phases) {
				return fmt.Errorf("length group references phase %d", idx)
			}
		}
	}
	if d.Count() == 0 {
		return errors.New("no scenario satisfies the length constraints")
	}
	return nil
}

// Definitions returns the four pattern definitions indexed by pattern.
func (c *Catalog) Definitions() [PatternCount]PatternDefinition {
	return c.definitions
}

// Definition returns the rules of one pattern.
func (c *Catalog) Definition(p Pattern) PatternDefinition {
	return c.definitions[p]
}

// Prior is the probability of pattern p following previous.
func (c *Catalog) Prior(p, previous Pattern) float64 {
	if !p.Valid() {
		return 0
	}
	return c.PriorRow(previous)[p]
}

// PriorRow returns the prior distribution after previous. Anything that is
// not a real pattern uses the Unknown row.
func (c *Catalog) PriorRow(previous Pattern) [PatternCount]float64 {
	if row, ok := c.priors[previous]; ok {
		return row
	}
	return c.priors[Unknown]
}
