package shell

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ormasoftchile/sjsh/pkg/render"
)

// globalCommand is consulted only when the active context does not know a
// command.
type globalCommand struct {
	summary string
	run     func(ctx context.Context, s *Shell, args []string) Outcome
}

func defaultGlobals() map[string]globalCommand {
	quit := globalCommand{
		summary: "Leave the shell (same as Ctrl-D)",
		run:     handleQuit,
	}
	return map[string]globalCommand{
		"help":  {summary: "Show commands for the current context", run: handleHelp},
		"where": {summary: "Show the path from the root to the current context", run: handleWhere},
		"quit":  quit,
		"exit":  quit,
	}
}

// handleHelp renders the active context's help followed by the global commands.
func handleHelp(_ context.Context, s *Shell, _ []string) Outcome {
	var b strings.Builder
	active := s.nav.Active()
	title := active.Prompt()
	if title == "" {
		title = "root"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if h, ok := active.(Helper); ok {
		b.WriteString(strings.TrimSpace(h.Help()))
		b.WriteString("\n\n")
	}

	b.WriteString("## Global commands\n\n")
	names := make([]string, 0, len(s.globals))
	for name := range s.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s`: %s\n", name, s.globals[name].summary)
	}

	return Outcome{Kind: NoProgress, Message: render.Markdown(b.String(), s.width, s.styles.Color())}
}

// handleWhere prints the navigation path, root first.
func handleWhere(_ context.Context, s *Shell, _ []string) Outcome {
	path := s.nav.Path()
	for i, p := range path {
		if p == "" {
			path[i] = "(root)"
		}
	}
	return Outcome{Kind: NoProgress, Message: strings.Join(path, " > ")}
}

func handleQuit(_ context.Context, s *Shell, _ []string) Outcome {
	s.state = Terminated
	return Outcome{Kind: SideEffect, Message: "Bye."}
}
