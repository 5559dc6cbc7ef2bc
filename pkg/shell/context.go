// Package shell implements the context-stack navigation engine behind the
// interactive prompt: the Context contract, the command result protocol, the
// stack of ancestor contexts and the line dispatch loop.
package shell

import (
	"context"
	"fmt"
)

// Context is one scope of interactive state. Exactly one context is active at a
// time; the Navigator owns it.
//
// Command must never panic. Errors are rendered into an Outcome; the error
// value itself never crosses this boundary. A context must not reach into the
// stack or into other contexts: navigation is requested through Result.Next.
type Context interface {
	// Prompt reflects the identity of the context. It has no side effects.
	Prompt() string
	// Command handles one command. name is lower-cased, args are as typed.
	Command(ctx context.Context, name string, args []string) Result
}

// CommandLister is implemented by contexts that can enumerate the commands
// they recognize. Used for completion and help.
type CommandLister interface {
	Commands() []string
}

// Helper is implemented by contexts that provide markdown help.
type Helper interface {
	Help() string
}

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	// SideEffect means the command changed state or performed I/O.
	SideEffect OutcomeKind = iota
	// Failed means the command was well formed but the operation failed.
	Failed
	// NoProgress means the command was valid but nothing changed.
	NoProgress
	// Usage means the command was recognized with the wrong arguments.
	Usage
	// NotFound means the command is not known to the context.
	NotFound
)

func (k OutcomeKind) String() string {
	switch k {
	case SideEffect:
		return "side_effect"
	case Failed:
		return "failed"
	case NoProgress:
		return "no_progress"
	case Usage:
		return "usage"
	case NotFound:
		return "not_found"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the human-facing result of a command.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

type navKind int

const (
	navStay navKind = iota
	navPush
	navPop
)

// Next is a navigation instruction. The zero value means stay in the active
// context.
type Next struct {
	kind navKind
	ctx  Context
}

// Stay keeps the active context.
func Stay() Next {
	return Next{}
}

// Push hands c to the navigator and makes it the active context. The caller
// must not keep using c afterwards. Push(nil) is equivalent to Stay.
func Push(c Context) Next {
	if c == nil {
		return Next{}
	}
	return Next{kind: navPush, ctx: c}
}

// Pop returns to the parent context. A non-nil replacement is discarded
// without ever becoming active.
func Pop(replacement Context) Next {
	return Next{kind: navPop, ctx: replacement}
}

// IsStay reports whether n keeps the active context.
func (n Next) IsStay() bool { return n.kind == navStay }

// IsPush reports whether n descends into a new context.
func (n Next) IsPush() bool { return n.kind == navPush }

// IsPop reports whether n returns to the parent context.
func (n Next) IsPop() bool { return n.kind == navPop }

func (n Next) String() string {
	switch n.kind {
	case navPush:
		return "push"
	case navPop:
		return "pop"
	}
	return "stay"
}

// Result pairs an Outcome with the navigation that should follow it.
type Result struct {
	Outcome Outcome
	Next    Next
}

// Done reports a side effect and stays.
func Done(format string, a ...any) Result {
	return Result{Outcome: Outcome{Kind: SideEffect, Message: fmt.Sprintf(format, a...)}}
}

// Fail reports a domain failure and stays.
func Fail(format string, a ...any) Result {
	return Result{Outcome: Outcome{Kind: Failed, Message: fmt.Sprintf(format, a...)}}
}

// FailErr renders err as a domain failure and stays.
func FailErr(err error) Result {
	return Result{Outcome: Outcome{Kind: Failed, Message: err.Error()}}
}

// Unchanged reports that nothing changed and stays.
func Unchanged(format string, a ...any) Result {
	return Result{Outcome: Outcome{Kind: NoProgress, Message: fmt.Sprintf(format, a...)}}
}

// UsageOf reports a literal usage string and stays.
func UsageOf(usage string) Result {
	return Result{Outcome: Outcome{Kind: Usage, Message: usage}}
}

// Unknown reports an unrecognized command and stays.
func Unknown() Result {
	return Result{Outcome: Outcome{Kind: NotFound}}
}

// Then attaches a navigation instruction to r.
func (r Result) Then(next Next) Result {
	r.Next = next
	return r
}
