package app

import (
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/engine/makefile"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/prereq"
	"go.trai.ch/zerr"
)

// compile registers every rule of the manifest in declaration order.
func (a *App) compile(mf *makefile.Makefile, manifest *domain.Manifest) error {
	for _, spec := range manifest.Rules {
		if err := a.addRule(mf, spec); err != nil {
			return zerr.With(err, "target", spec.Target)
		}
	}
	return nil
}

func (a *App) addRule(mf *makefile.Makefile, spec domain.RuleSpec) error {
	compile := pattern.Compile
	if spec.Regexp {
		compile = pattern.Regexp
	}
	p, err := compile(spec.Target)
	if err != nil {
		return err
	}

	prereqs := schedule(spec.Prerequisites)
	rc := a.shellRecipe(spec.Recipe, prereqs, spec.Dynamic)
	if spec.Dynamic {
		_, err := mf.AddDynamicPatternRule(p, prereqs, rc)
		return err
	}
	mf.AddPatternRule(p, prereqs, rc)
	return nil
}

// schedule converts a top-level prerequisite list, which resolves concurrently.
func schedule(specs []domain.PrerequisiteSpec) prereq.Schedule {
	return prereq.Concurrent(schedules(specs)...)
}

func schedules(specs []domain.PrerequisiteSpec) []prereq.Schedule {
	out := make([]prereq.Schedule, 0, len(specs))
	for _, s := range specs {
		switch {
		case s.Series != nil:
			out = append(out, prereq.Series(schedules(s.Series)...))
		case s.Concurrent != nil:
			out = append(out, prereq.Concurrent(schedules(s.Concurrent)...))
		default:
			out = append(out, prereq.Name(s.Name))
		}
	}
	return out
}
