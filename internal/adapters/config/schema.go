package config

import (
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Makefile represents the structure of makefile.yaml.
type Makefile struct {
	Root     string    `yaml:"root"`
	Database string    `yaml:"database"`
	Rules    []RuleDTO `yaml:"rules"`
}

// RuleDTO represents a rule definition in the makefile.
type RuleDTO struct {
	Target        string          `yaml:"target"`
	Regexp        bool            `yaml:"regexp"`
	Prerequisites PrerequisiteDTO `yaml:"prerequisites"`
	Recipe        string          `yaml:"recipe"`
	Dynamic       bool            `yaml:"dynamic"`
}

// PrerequisiteDTO accepts a single name, a list of prerequisites made
// concurrently, or a mapping with a "series" or "concurrent" list.
type PrerequisiteDTO struct {
	Name       string
	Series     []PrerequisiteDTO
	Concurrent []PrerequisiteDTO
	set        bool
}

type groupDTO struct {
	Series     []PrerequisiteDTO `yaml:"series"`
	Concurrent []PrerequisiteDTO `yaml:"concurrent"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PrerequisiteDTO) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		p.set = true
		return value.Decode(&p.Name)
	case yaml.SequenceNode:
		p.set = true
		return value.Decode(&p.Concurrent)
	case yaml.MappingNode:
		var g groupDTO
		if err := value.Decode(&g); err != nil {
			return err
		}
		if (g.Series == nil) == (g.Concurrent == nil) {
			return zerr.With(domain.ErrInvalidPrerequisite, "line", value.Line)
		}
		p.set = true
		p.Series, p.Concurrent = g.Series, g.Concurrent
		return nil
	default:
		return zerr.With(domain.ErrInvalidPrerequisite, "line", value.Line)
	}
}

// IsZero reports whether no prerequisites were declared.
func (p PrerequisiteDTO) IsZero() bool {
	return !p.set
}

func (p PrerequisiteDTO) toSpec() []domain.PrerequisiteSpec {
	switch {
	case !p.set:
		return nil
	case p.Series != nil:
		return []domain.PrerequisiteSpec{{Series: toSpecs(p.Series)}}
	case p.Concurrent != nil:
		return toSpecs(p.Concurrent)
	default:
		return []domain.PrerequisiteSpec{{Name: p.Name}}
	}
}

func toSpecs(items []PrerequisiteDTO) []domain.PrerequisiteSpec {
	out := make([]domain.PrerequisiteSpec, 0, len(items))
	for _, item := range items {
		switch {
		case item.Series != nil:
			out = append(out, domain.PrerequisiteSpec{Series: toSpecs(item.Series)})
		case item.Concurrent != nil:
			out = append(out, domain.PrerequisiteSpec{Concurrent: toSpecs(item.Concurrent)})
		default:
			out = append(out, domain.PrerequisiteSpec{Name: item.Name})
		}
	}
	return out
}
