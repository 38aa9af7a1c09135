package app

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"strings"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/prereq"
	"go.trai.ch/makit/internal/engine/recipe"
	"go.trai.ch/zerr"
)

// shellRecipe runs line through the executor. A blank line is the no-op recipe.
// Dynamic recipes may list extra targets in the file named by
// MAKIT_DEPFILE; they are made once the command succeeds.
func (a *App) shellRecipe(line string, prereqs prereq.Schedule, dynamic bool) recipe.Recipe {
	if strings.TrimSpace(line) == "" {
		return recipe.Recipe{}
	}

	return recipe.Await(func(ctx context.Context, c recipe.Context) error {
		deps, err := prereq.Targets(ctx, prereqs, c)
		if err != nil {
			return err
		}
		cmdline, err := expandCommand(line, c.Target(), deps, c.Match())
		if err != nil {
			return zerr.With(err, "target", c.Target())
		}

		cmd := domain.Command{
			Line: cmdline,
			Dir:  c.Root(),
			Env: []string{
				domain.EnvTarget + "=" + c.Target(),
				domain.EnvRoot + "=" + c.Root(),
			},
		}

		if !dynamic {
			return a.executor.Execute(ctx, cmd, a.stdout, a.stderr)
		}

		depfile, err := os.CreateTemp("", "makit-deps-*")
		if err != nil {
			return zerr.Wrap(err, "failed to create dependency file")
		}
		_ = depfile.Close()
		defer func() { _ = os.Remove(depfile.Name()) }()

		cmd.Env = append(cmd.Env, domain.EnvDependencyFile+"="+depfile.Name())
		if err := a.executor.Execute(ctx, cmd, a.stdout, a.stderr); err != nil {
			return err
		}
		return makeListed(ctx, c, depfile.Name())
	})
}

// makeListed makes every target listed in path, in order. Blank lines and
// lines starting with # are ignored.
func makeListed(ctx context.Context, c recipe.Context, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path was created by the recipe
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read dependency file"), "target", c.Target())
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		dep := strings.TrimSpace(sc.Text())
		if dep == "" || strings.HasPrefix(dep, "#") {
			continue
		}
		if _, err := c.Make(ctx, dep); err != nil {
			return err
		}
	}
	return sc.Err()
}

// expandCommand replaces the automatic variables of line: $@ is the target,
// $< the first prerequisite, $^ all prerequisites, $1 to $9 the captures of
// the target match and $$ a literal dollar. Other $ sequences reach the shell.
func expandCommand(line, target string, deps []string, match pattern.Match) (string, error) {
	if !strings.Contains(line, "$") {
		return line, nil
	}

	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch != '$' || i+1 == len(line) {
			sb.WriteByte(ch)
			continue
		}

		next := line[i+1]
		switch {
		case next == '@':
			sb.WriteString(target)
		case next == '<':
			if len(deps) > 0 {
				sb.WriteString(deps[0])
			}
		case next == '^':
			sb.WriteString(strings.Join(deps, " "))
		case next == '$':
			sb.WriteByte('$')
		case next >= '1' && next <= '9':
			n := int(next - '0')
			if n >= len(match) {
				return "", zerr.With(zerr.With(domain.ErrCaptureOutOfRange, "ref", line[i:i+2]), "captures", len(match))
			}
			sb.WriteString(match[n])
		default:
			sb.WriteByte(ch)
			continue
		}
		i++
	}
	return sb.String(), nil
}
