package shell

import (
	"context"
	"io"
	"log/slog"

	"github.com/ormasoftchile/sjsh/internal/logging"
)

// Navigator owns the active context and the stack of its ancestors. It is
// not safe for concurrent use; the dispatch loop is its only user.
type Navigator struct {
	active Context
	stack  Stack
	logger *slog.Logger
}

// NewNavigator makes root the active context over an empty stack.
func NewNavigator(root Context, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Navigator{active: root, logger: logger}
}

// Active returns the context currently receiving commands.
func (n *Navigator) Active() Context {
	return n.active
}

// Depth returns the number of ancestors on the stack.
func (n *Navigator) Depth() int {
	return n.stack.Len()
}

// Path returns the prompts from the bottom of the stack to the active context.
func (n *Navigator) Path() []string {
	path := make([]string, 0, n.stack.Len()+1)
	n.stack.Each(func(c Context) {
		path = append(path, c.Prompt())
	})
	return append(path, n.active.Prompt())
}

// Dispatch runs one command against the active context and applies the
// navigation it requests.
func (n *Navigator) Dispatch(ctx context.Context, name string, args []string) Outcome {
	res := n.active.Command(ctx, name, args)
	n.Apply(res.Next)
	return res.Outcome
}

// Apply performs a navigation instruction. The active context is moved, never
// shared: on push it goes onto the stack, on pop it is discarded.
func (n *Navigator) Apply(next Next) {
	switch next.kind {
	case navPush:
		prev := n.active
		n.stack.Push(prev)
		n.active = next.ctx
		n.logger.Debug("context pushed", "prompt", n.active.Prompt(), "depth", n.stack.Len())
	case navPop:
		if next.ctx != nil {
			n.discard(next.ctx)
		}
		parent, ok := n.stack.Pop()
		if !ok {
			n.logger.Debug("pop on empty stack ignored")
			return
		}
		prev := n.active
		n.active = parent
		n.discard(prev)
		n.logger.Debug("context popped", "prompt", n.active.Prompt(), "depth", n.stack.Len())
	}
}

// Close discards the active context and every ancestor, top first.
func (n *Navigator) Close() {
	if n.active == nil {
		return
	}
	n.discard(n.active)
	n.active = nil
	for {
		c, ok := n.stack.Pop()
		if !ok {
			return
		}
		n.discard(c)
	}
}

func (n *Navigator) discard(c Context) {
	closer, ok := c.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		n.logger.Warn("closing context", "prompt", c.Prompt(), "error", err)
	}
}
