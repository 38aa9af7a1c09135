// Package reporter renders engine events as console progress output.
package reporter

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/makit/internal/ui/output"
	"go.trai.ch/makit/internal/ui/style"
	"go.trai.ch/zerr"
)

// Kind names a reporter implementation.
type Kind string

const (
	// KindAuto picks dot on an interactive terminal and verbose otherwise.
	KindAuto Kind = "auto"
	// KindVerbose prints one line per skipped or made target.
	KindVerbose Kind = "verbose"
	// KindDot prints one glyph per skipped or made target.
	KindDot Kind = "dot"
)

// ErrUnknownKind is returned by New for an unsupported reporter name.
var ErrUnknownKind = zerr.New("unknown reporter")

// New returns the reporter named by kind writing to w.
// showPreparing makes the verbose reporter print targets as they enter the graph.
func New(kind Kind, w io.Writer, showPreparing bool) (ports.Reporter, error) {
	switch kind {
	case KindAuto, "":
		if output.IsTerminal(w) {
			return NewDot(w), nil
		}
		return NewVerbose(w, showPreparing), nil
	case KindVerbose:
		return NewVerbose(w, showPreparing), nil
	case KindDot:
		return NewDot(w), nil
	default:
		return nil, zerr.With(ErrUnknownKind, "reporter", string(kind))
	}
}

func newRenderer(w io.Writer) *lipgloss.Renderer {
	return lipgloss.NewRenderer(w, termenv.WithProfile(output.ColorProfile()))
}

// Verbose prints a labelled line for every target.
type Verbose struct {
	mu            sync.Mutex
	w             io.Writer
	showPreparing bool

	preparing lipgloss.Style
	skipped   lipgloss.Style
	made      lipgloss.Style
	deps      lipgloss.Style
	target    lipgloss.Style
}

// NewVerbose creates a Verbose reporter.
func NewVerbose(w io.Writer, showPreparing bool) *Verbose {
	r := newRenderer(w)
	return &Verbose{
		w:             w,
		showPreparing: showPreparing,
		preparing:     r.NewStyle().Foreground(style.Slate),
		skipped:       r.NewStyle().Foreground(style.Slate),
		made:          r.NewStyle().Foreground(style.Green),
		deps:          r.NewStyle().Foreground(style.Slate),
		target:        r.NewStyle().Bold(true),
	}
}

// Report prints the line for ev.
func (v *Verbose) Report(ev domain.Event) {
	var label lipgloss.Style
	var text string
	switch ev.Kind {
	case domain.EventPreparing:
		if !v.showPreparing {
			return
		}
		label, text = v.preparing, "MAKE"
	case domain.EventSkipped:
		label, text = v.skipped, "SKIP"
	case domain.EventMade:
		label, text = v.made, "MADE"
	default:
		return
	}

	var sb strings.Builder
	sb.WriteString(label.Render(text))
	sb.WriteByte(' ')
	sb.WriteString(v.target.Render(ev.Target))
	if len(ev.Dependencies) > 0 && ev.Kind != domain.EventPreparing {
		sb.WriteByte(' ')
		sb.WriteString(v.deps.Render("← " + strings.Join(ev.Dependencies, ", ")))
	}
	sb.WriteByte('\n')

	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = io.WriteString(v.w, sb.String())
}

// Finish is a no-op for the verbose reporter.
func (v *Verbose) Finish(error) {}

// Dot prints a gray dot for skipped targets and a green dot for made ones.
type Dot struct {
	mu      sync.Mutex
	w       io.Writer
	printed bool

	skip string
	made string
	fail string
}

// NewDot creates a Dot reporter.
func NewDot(w io.Writer) *Dot {
	r := newRenderer(w)
	return &Dot{
		w:    w,
		skip: r.NewStyle().Foreground(style.Slate).Render("."),
		made: r.NewStyle().Foreground(style.Green).Render("."),
		fail: r.NewStyle().Foreground(style.Red).Render(style.Cross),
	}
}

// Report prints the glyph for ev.
func (d *Dot) Report(ev domain.Event) {
	var glyph string
	switch ev.Kind {
	case domain.EventSkipped:
		glyph = d.skip
	case domain.EventMade:
		glyph = d.made
	default:
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.printed = true
	_, _ = io.WriteString(d.w, glyph)
}

// Finish terminates the line of dots, marking a failed invocation with a cross.
func (d *Dot) Finish(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.printed = true
		_, _ = io.WriteString(d.w, d.fail)
	}
	if d.printed {
		_, _ = io.WriteString(d.w, "\n")
	}
	d.printed = false
}
