// Package lineedit reads input lines for the shell: an interactive editor with
// history and completion on top of chzyer/readline, and a plain scanner for
// piped input.
package lineedit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/ormasoftchile/sjsh/internal/logging"
)

// ErrInterrupted is returned by ReadLine when the user presses Ctrl-C.
var ErrInterrupted = errors.New("interrupted")

// DefaultHistoryLimit bounds the number of history entries kept.
const DefaultHistoryLimit = 1000

// Config configures an Editor.
type Config struct {
	// HistoryFile is loaded by New and written by Close. Empty disables
	// persistence.
	HistoryFile  string
	HistoryLimit int

	Stdin  io.ReadCloser
	Stdout io.Writer
	Logger *slog.Logger
}

// Editor is the interactive line reader.
type Editor struct {
	rl      *readline.Instance
	file    string
	limit   int
	history []string
	logger  *slog.Logger

	mu       sync.Mutex
	complete func() []string
}

// New creates an editor and loads the history file. A missing or unreadable
// history file is logged and otherwise ignored.
func New(cfg Config) (*Editor, error) {
	e := &Editor{
		file:   cfg.HistoryFile,
		limit:  cfg.HistoryLimit,
		logger: cfg.Logger,
	}
	if e.limit <= 0 {
		e.limit = DefaultHistoryLimit
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 ">> ",
		HistoryLimit:           e.limit,
		DisableAutoSaveHistory: true,
		AutoComplete:           &firstWordCompleter{e: e},
		InterruptPrompt:        "^C",
		EOFPrompt:              "quit",
		Stdin:                  cfg.Stdin,
		Stdout:                 cfg.Stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	e.rl = rl
	e.load()
	return e, nil
}

// ReadLine shows prompt and returns the next line. Non-blank lines are added
// to the history.
func (e *Editor) ReadLine(prompt string) (string, error) {
	e.rl.SetPrompt(prompt)
	line, err := e.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", ErrInterrupted
		}
		return "", err
	}
	e.add(line)
	return line, nil
}

// SetCompletions installs the source of first-word completions.
func (e *Editor) SetCompletions(fn func() []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.complete = fn
}

// History returns a copy of the in-memory history, oldest first.
func (e *Editor) History() []string {
	return append([]string(nil), e.history...)
}

// Close saves the history file and releases the terminal. The save error is
// returned; the terminal is released regardless.
func (e *Editor) Close() error {
	saveErr := e.save()
	if err := e.rl.Close(); err != nil && saveErr == nil {
		return fmt.Errorf("close readline: %w", err)
	}
	return saveErr
}

func (e *Editor) add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if n := len(e.history); n > 0 && e.history[n-1] == line {
		return
	}
	e.history = appendBounded(e.history, line, e.limit)
	if err := e.rl.SaveHistory(line); err != nil {
		e.logger.Warn("adding history entry", "error", err)
	}
}

func (e *Editor) load() {
	if e.file == "" {
		return
	}
	lines, err := readHistory(e.file, e.limit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			e.logger.Info("no previous history", "file", e.file)
		} else {
			e.logger.Warn("loading history", "file", e.file, "error", err)
		}
		return
	}
	for _, line := range lines {
		if err := e.rl.SaveHistory(line); err != nil {
			e.logger.Warn("restoring history entry", "error", err)
			break
		}
	}
	e.history = lines
	e.logger.Debug("history loaded", "file", e.file, "entries", len(lines))
}

func (e *Editor) save() error {
	if e.file == "" {
		return nil
	}
	if err := writeHistory(e.file, e.history); err != nil {
		return fmt.Errorf("save history %s: %w", e.file, err)
	}
	e.logger.Debug("history saved", "file", e.file, "entries", len(e.history))
	return nil
}

func (e *Editor) completions() []string {
	e.mu.Lock()
	fn := e.complete
	e.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn()
}

// firstWordCompleter completes the command name only; arguments are free-form.
type firstWordCompleter struct {
	e *Editor
}

func (c *firstWordCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	typed := string(line[:pos])
	if strings.ContainsAny(typed, " \t") {
		return nil, 0
	}
	var out [][]rune
	for _, name := range c.e.completions() {
		if strings.HasPrefix(name, typed) {
			out = append(out, []rune(name[len(typed):]+" "))
		}
	}
	return out, pos
}
