package scheduler

import (
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/prereq"
	"go.trai.ch/makit/internal/engine/recipe"
)

// Rule binds a target pattern to its prerequisites and recipe.
type Rule struct {
	Pattern       *pattern.Pattern
	Prerequisites prereq.Schedule
	Recipe        recipe.Recipe

	// HasDynamicDependencies marks a rule whose recipe may make extra targets.
	// Those targets are recorded in a sidecar file after every successful run.
	HasDynamicDependencies bool
	// IsDependencyTarget marks the companion rule that maintains a sidecar file.
	// Its recipe sees the owner target rather than the sidecar itself.
	IsDependencyTarget bool
}

// RuleSource resolves target names to rules.
type RuleSource interface {
	// FindRule returns the rule matching target and the match, or nil when no rule matches.
	FindRule(target string) (*Rule, pattern.Match)
}
