package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ormasoftchile/sjsh/internal/logging"
	"github.com/ormasoftchile/sjsh/pkg/lineedit"
	"github.com/ormasoftchile/sjsh/pkg/render"
)

// State of the dispatch loop.
type State int

const (
	Running State = iota
	Terminated
)

func (s State) String() string {
	if s == Terminated {
		return "terminated"
	}
	return "running"
}

const interruptNotice = "^C (use 'quit' or Ctrl-D to exit)"

// LineReader supplies input lines. It returns lineedit.ErrInterrupted when the
// user interrupts the current line and io.EOF at end of input.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

type completionSetter interface {
	SetCompletions(func() []string)
}

// Shell is the interactive dispatch loop.
type Shell struct {
	nav     *Navigator
	reader  LineReader
	output  io.Writer
	styles  render.Styles
	logger  *slog.Logger
	width   int
	globals map[string]globalCommand
	state   State
}

// Option configures a Shell.
type Option func(*Shell)

// WithOutput sets where outcomes are printed. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) {
		s.output = w
	}
}

// WithStyles sets the output styles. Defaults to plain text.
func WithStyles(st render.Styles) Option {
	return func(s *Shell) {
		s.styles = st
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithWidth sets the wrap width used for help text.
func WithWidth(width int) Option {
	return func(s *Shell) {
		s.width = width
	}
}

// New creates a shell whose active context is root.
func New(root Context, reader LineReader, opts ...Option) *Shell {
	s := &Shell{
		reader: reader,
		output: os.Stdout,
		logger: logging.NewNop(),
		width:  80,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.nav = NewNavigator(root, s.logger)
	s.globals = defaultGlobals()
	return s
}

// Navigator exposes the navigation state, mainly for inspection.
func (s *Shell) Navigator() *Navigator {
	return s.nav
}

// State returns the loop state.
func (s *Shell) State() State {
	return s.state
}

// Prompt builds the prompt for the active context: its identity followed by
// ">> ".
func (s *Shell) Prompt() string {
	p := s.nav.Active().Prompt()
	if p == "" {
		return ">> "
	}
	return s.styles.Prompt.Render(p) + ">> "
}

// Run reads and executes lines until end of input or a quit command.
// Interrupts are reported and do not stop the loop.
func (s *Shell) Run(ctx context.Context) error {
	if cs, ok := s.reader.(completionSetter); ok {
		cs.SetCompletions(s.completions)
	}

	for s.state == Running {
		line, err := s.reader.ReadLine(s.Prompt())
		if err != nil {
			switch {
			case errors.Is(err, lineedit.ErrInterrupted):
				fmt.Fprintln(s.output, s.styles.Notice.Render(interruptNotice))
				continue
			case errors.Is(err, io.EOF):
				s.state = Terminated
				return nil
			default:
				s.state = Terminated
				return fmt.Errorf("read line: %w", err)
			}
		}
		s.Execute(ctx, line)
	}
	return nil
}

// Execute processes a single input line. Blank lines are ignored.
func (s *Shell) Execute(ctx context.Context, line string) {
	name, args, ok := Tokenize(line)
	if !ok {
		return
	}

	start := time.Now()
	out := s.nav.Dispatch(ctx, name, args)
	if out.Kind == NotFound {
		if g, ok := s.globals[name]; ok {
			out = g.run(ctx, s, args)
		}
	}
	s.report(name, out)
	s.logger.Debug("command",
		"name", name,
		"outcome", out.Kind.String(),
		"depth", s.nav.Depth(),
		"elapsed", time.Since(start))
}

// Close discards every context still owned by the shell.
func (s *Shell) Close() {
	s.nav.Close()
}

func (s *Shell) report(name string, out Outcome) {
	var label string
	var style = s.styles.SideEffect
	switch out.Kind {
	case SideEffect:
		label = "Side effect:"
	case Failed:
		label, style = "Failed:", s.styles.Failed
	case NoProgress:
		label, style = "No change:", s.styles.NoProgress
	case Usage:
		label, style = "Usage:", s.styles.Usage
	case NotFound:
		label, style = "Not found:", s.styles.NotFound
	}

	msg := out.Message
	if out.Kind == NotFound && msg == "" {
		msg = fmt.Sprintf("unknown command %s", name)
	}
	prefix := style.Render(label)
	switch {
	case msg == "":
		fmt.Fprintln(s.output, prefix)
	case strings.Contains(msg, "\n"):
		fmt.Fprintf(s.output, "%s\n%s\n", prefix, msg)
	default:
		fmt.Fprintf(s.output, "%s %s\n", prefix, msg)
	}
}

// completions lists the command names valid in the active context.
func (s *Shell) completions() []string {
	seen := make(map[string]bool)
	var names []string
	if l, ok := s.nav.Active().(CommandLister); ok {
		for _, c := range l.Commands() {
			if !seen[c] {
				seen[c] = true
				names = append(names, c)
			}
		}
	}
	for name := range s.globals {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
