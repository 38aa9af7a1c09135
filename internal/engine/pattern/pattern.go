// Package pattern compiles target declarations into matchers.
//
// A declaration is one of:
//   - a plain path such as "dist/app.js", looked up by exact name;
//   - a glob such as "*.md5.out" or "src/**/*.js";
//   - a capture declaration such as "dist/(*).min.js", where every
//     parenthesized group becomes a positional capture ($1, $2, ...);
//   - a regular expression, built with Regexp.
//
// $0 always refers to the whole matched name.
package pattern

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/zerr"
)

// Kind classifies a declaration.
type Kind int

const (
	// KindFilePath is a plain path matched by exact name.
	KindFilePath Kind = iota
	// KindGlob is a glob, with or without capture groups.
	KindGlob
	// KindRegexp is a regular expression declaration.
	KindRegexp
)

func (k Kind) String() string {
	switch k {
	case KindFilePath:
		return "filepath"
	case KindGlob:
		return "glob"
	case KindRegexp:
		return "regexp"
	default:
		return "unknown"
	}
}

// Pattern is a compiled target declaration. It is immutable and safe for concurrent use.
type Pattern struct {
	decl string
	kind Kind

	// re is set for capture declarations and regular expressions.
	re *regexp.Regexp
	// negated maps capture indexes produced by !(...) to the expression the
	// captured text must not match. Those groups are hidden from Match results.
	negated map[int]*regexp.Regexp
}

// Compile compiles a string declaration.
func Compile(decl string) (*Pattern, error) {
	if decl == "" {
		return nil, zerr.With(domain.ErrInvalidPattern, "decl", decl)
	}

	if strings.Contains(decl, "(") {
		expr, negated, err := translate(decl)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPattern.Error()), "decl", decl)
		}
		re, err := regexp.Compile("^" + expr + "$")
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPattern.Error()), "decl", decl)
		}
		return &Pattern{decl: decl, kind: KindGlob, re: re, negated: negated}, nil
	}

	if !isGlob(decl) {
		return &Pattern{decl: decl, kind: KindFilePath}, nil
	}
	if !doublestar.ValidatePattern(decl) {
		return nil, zerr.With(domain.ErrInvalidPattern, "decl", decl)
	}
	return &Pattern{decl: decl, kind: KindGlob}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(decl string) *Pattern {
	p, err := Compile(decl)
	if err != nil {
		panic(err)
	}
	return p
}

// Regexp compiles a regular expression declaration. The expression is not
// anchored implicitly; its submatches become the captures.
func Regexp(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPattern.Error()), "decl", expr)
	}
	return &Pattern{decl: expr, kind: KindRegexp, re: re}, nil
}

// Decl returns the declaration the pattern was compiled from.
func (p *Pattern) Decl() string {
	return p.decl
}

// Kind returns the declaration kind.
func (p *Pattern) Kind() Kind {
	return p.kind
}

// IsFilePath reports whether the declaration is a plain path.
func (p *Pattern) IsFilePath() bool {
	return p.kind == KindFilePath
}

// String returns a printable form of the declaration.
func (p *Pattern) String() string {
	if p.kind == KindRegexp {
		return "/" + p.decl + "/"
	}
	return p.decl
}

// Match matches name against the pattern.
func (p *Pattern) Match(name string) (Match, bool) {
	switch {
	case p.kind == KindFilePath:
		if name != p.decl {
			return nil, false
		}
		return Match{name}, true
	case p.re == nil:
		ok, err := doublestar.Match(p.decl, name)
		if err != nil || !ok {
			return nil, false
		}
		return Match{name}, true
	}

	sub := p.re.FindStringSubmatch(name)
	if sub == nil {
		return nil, false
	}
	if len(p.negated) == 0 {
		return Match(sub), true
	}

	m := Match{sub[0]}
	for i := 1; i < len(sub); i++ {
		neg, ok := p.negated[i]
		if !ok {
			m = append(m, sub[i])
			continue
		}
		if neg.MatchString(sub[i]) {
			return nil, false
		}
	}
	return m, true
}

func isGlob(decl string) bool {
	return strings.ContainsAny(decl, "*?[]{}")
}

// Match holds the text matched by a pattern: the whole name at index 0
// followed by the captures.
type Match []string

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Expand replaces $n in s with the corresponding capture.
func (m Match) Expand(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var expandErr error
	out := placeholder.ReplaceAllStringFunc(s, func(ref string) string {
		i, err := strconv.Atoi(ref[1:])
		if err != nil || i >= len(m) {
			if expandErr == nil {
				expandErr = zerr.With(zerr.With(domain.ErrCaptureOutOfRange, "ref", ref), "captures", len(m))
			}
			return ref
		}
		return m[i]
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}
