package pattern

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

var (
	errUnbalanced = zerr.New("unbalanced parenthesis")
	errBadClass   = zerr.New("unterminated character class")
)

// translator converts an extended glob into a regular expression.
// Each group opened by "(", "@(" or "!(" becomes a capture group; groups
// opened by "+(", "*(" and "?(" capture the whole repetition.
type translator struct {
	src     []rune
	pos     int
	groups  int
	negated map[int]*regexp.Regexp
}

func translate(decl string) (string, map[int]*regexp.Regexp, error) {
	t := &translator{src: []rune(decl), negated: make(map[int]*regexp.Regexp)}
	expr, err := t.sequence(false)
	if err != nil {
		return "", nil, err
	}
	if t.pos < len(t.src) {
		return "", nil, errUnbalanced
	}
	return expr, t.negated, nil
}

// sequence translates until the end of input or, inside a group, until the
// closing parenthesis, which is left unconsumed.
func (t *translator) sequence(inGroup bool) (string, error) {
	var sb strings.Builder
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		next := rune(0)
		if t.pos+1 < len(t.src) {
			next = t.src[t.pos+1]
		}

		switch {
		case c == ')':
			if !inGroup {
				return "", errUnbalanced
			}
			return sb.String(), nil
		case c == '|' && inGroup:
			sb.WriteByte('|')
			t.pos++
		case strings.ContainsRune("!@+*?", c) && next == '(':
			t.pos += 2
			expr, err := t.group(c)
			if err != nil {
				return "", err
			}
			sb.WriteString(expr)
		case c == '(':
			t.pos++
			expr, err := t.group('@')
			if err != nil {
				return "", err
			}
			sb.WriteString(expr)
		case c == '*' && next == '*':
			t.pos += 2
			// "**/" also matches no directory at all.
			if t.pos < len(t.src) && t.src[t.pos] == '/' {
				t.pos++
				sb.WriteString(`(?:.*/)?`)
				continue
			}
			sb.WriteString(`.*`)
		case c == '*':
			t.pos++
			sb.WriteString(`[^/]*`)
		case c == '?':
			t.pos++
			sb.WriteString(`[^/]`)
		case c == '[':
			expr, err := t.class()
			if err != nil {
				return "", err
			}
			sb.WriteString(expr)
		case c == '{':
			expr, ok := t.braces()
			if !ok {
				sb.WriteString(regexp.QuoteMeta(string(c)))
				t.pos++
				continue
			}
			sb.WriteString(expr)
		case c == '\\' && next != 0:
			sb.WriteString(regexp.QuoteMeta(string(next)))
			t.pos += 2
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
			t.pos++
		}
	}
	if inGroup {
		return "", errUnbalanced
	}
	return sb.String(), nil
}

// group translates the body of a group whose opening has been consumed.
func (t *translator) group(op rune) (string, error) {
	t.groups++
	index := t.groups

	if op == '!' {
		// The body is matched separately, so its own groups do not count.
		saved := t.groups
		body, err := t.sequence(true)
		if err != nil {
			return "", err
		}
		t.groups = saved
		t.pos++
		neg, err := regexp.Compile("^(?:" + body + ")$")
		if err != nil {
			return "", err
		}
		t.negated[index] = neg
		return `([^/]*)`, nil
	}

	body, err := t.sequence(true)
	if err != nil {
		return "", err
	}
	t.pos++

	switch op {
	case '+':
		return "((?:" + body + ")+)", nil
	case '*':
		return "((?:" + body + ")*)", nil
	case '?':
		return "((?:" + body + ")?)", nil
	default:
		return "(" + body + ")", nil
	}
}

func (t *translator) class() (string, error) {
	end := t.pos + 1
	if end < len(t.src) && (t.src[end] == '!' || t.src[end] == '^') {
		end++
	}
	if end < len(t.src) && t.src[end] == ']' {
		end++
	}
	for end < len(t.src) && t.src[end] != ']' {
		end++
	}
	if end >= len(t.src) {
		return "", errBadClass
	}

	body := string(t.src[t.pos+1 : end])
	t.pos = end + 1
	if strings.HasPrefix(body, "!") {
		body = "^" + body[1:]
	}
	return "[" + strings.ReplaceAll(body, `\`, `\\`) + "]", nil
}

// braces translates a {a,b} alternation. It reports false when the brace is
// not a well-formed alternation and should be taken literally.
func (t *translator) braces() (string, bool) {
	end := t.pos + 1
	for end < len(t.src) && t.src[end] != '}' {
		if t.src[end] == '{' || t.src[end] == '(' {
			return "", false
		}
		end++
	}
	if end >= len(t.src) {
		return "", false
	}
	body := string(t.src[t.pos+1 : end])
	if !strings.Contains(body, ",") {
		return "", false
	}

	parts := strings.Split(body, ",")
	for i, p := range parts {
		sub := &translator{src: []rune(p), negated: t.negated}
		expr, err := sub.sequence(false)
		if err != nil {
			return "", false
		}
		parts[i] = expr
	}
	t.pos = end + 1
	return "(?:" + strings.Join(parts, "|") + ")", true
}
