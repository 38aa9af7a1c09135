package domain

// Manifest is the declarative form of a makefile as loaded from configuration.
type Manifest struct {
	// Root is the absolute project root against which targets resolve.
	Root string
	// Database is the absolute path of the timestamp database.
	Database string
	// Rules are kept in declaration order; the first concrete rule is the default target.
	Rules []RuleSpec
}

// RuleSpec declares one rule.
type RuleSpec struct {
	// Target is a literal path, a glob, or a capture declaration such as "dist/(*).js".
	Target string
	// Regexp marks Target as a regular expression.
	Regexp bool
	// Prerequisites is the top-level prerequisite list, resolved concurrently.
	Prerequisites []PrerequisiteSpec
	// Recipe is a shell command line. Empty means a no-op recipe.
	Recipe string
	// Dynamic marks a rule whose recipe discovers extra dependencies at run time.
	Dynamic bool
}

// PrerequisiteSpec is one node of a prerequisite declaration.
// Exactly one of Name, Series or Concurrent is set.
type PrerequisiteSpec struct {
	Name       string
	Series     []PrerequisiteSpec
	Concurrent []PrerequisiteSpec
}
