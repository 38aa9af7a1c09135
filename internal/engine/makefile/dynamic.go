package makefile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/prereq"
	"go.trai.ch/makit/internal/engine/recipe"
	"go.trai.ch/makit/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// AddDynamicRule registers a rule whose recipe may make extra targets through
// its context. Those targets are recorded in "<target>.rude.dep" and count as
// prerequisites on the next make. A companion rule for the record file is
// registered alongside; it drops the record whenever the declared
// prerequisites change.
func (m *Makefile) AddDynamicRule(decl string, prereqs prereq.Schedule, rc recipe.Recipe) (*scheduler.Rule, error) {
	p, err := pattern.Compile(decl)
	if err != nil {
		return nil, err
	}
	return m.AddDynamicPatternRule(p, prereqs, rc)
}

// AddDynamicPatternRule is AddDynamicRule for a compiled pattern. Regular
// expression patterns are rejected.
func (m *Makefile) AddDynamicPatternRule(p *pattern.Pattern, prereqs prereq.Schedule, rc recipe.Recipe) (*scheduler.Rule, error) {
	if p.Kind() == pattern.KindRegexp {
		return nil, zerr.With(domain.ErrDynamicRegexpRule, "decl", p.Decl())
	}
	recordPattern, err := pattern.Compile(domain.DynamicRecordFor(p.Decl()))
	if err != nil {
		return nil, err
	}

	user := normalize(prereqs)
	owner := &scheduler.Rule{
		Pattern:                p,
		Prerequisites:          dynamicPrerequisites(user, m.log),
		Recipe:                 rc,
		HasDynamicDependencies: true,
	}
	companion := &scheduler.Rule{
		Pattern:            recordPattern,
		Prerequisites:      user,
		Recipe:             recipe.Await(removeRecord),
		IsDependencyTarget: true,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(owner)
	m.insertLocked(companion)
	m.log.Verbose("addDynamicRule " + p.String())
	return owner, nil
}

// dynamicPrerequisites appends the record file and the targets it lists to
// the declared prerequisites.
func dynamicPrerequisites(user prereq.Schedule, log ports.Logger) prereq.Schedule {
	return prereq.Concurrent(
		user,
		prereq.Series(
			prereq.Name("$0"+domain.DynamicRecordExt),
			prereq.Resolve(func(_ context.Context, c prereq.Context) (prereq.Schedule, error) {
				return readRecord(c, log)
			}),
		),
	)
}

func readRecord(c prereq.Context, log ports.Logger) (prereq.Schedule, error) {
	path := domain.DynamicRecordFor(c.TargetFullPath())

	data, err := c.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return prereq.None(), nil
	}
	if err != nil {
		return prereq.Schedule{}, zerr.With(err, "path", path)
	}

	var deps []string
	if err := json.Unmarshal(data, &deps); err != nil {
		log.Warn(zerr.With(zerr.Wrap(err, domain.ErrCorruptedDynamicRecord.Error()), "path", path).Error() + ", removing it")
		if err := c.Unlink(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return prereq.Schedule{}, zerr.With(err, "path", path)
		}
		return prereq.None(), nil
	}
	return prereq.Names(deps...), nil
}

// removeRecord is the recipe of a record file. The context names the owner target.
func removeRecord(_ context.Context, c recipe.Context) error {
	err := c.Unlink(domain.DynamicRecordFor(c.TargetFullPath()))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
