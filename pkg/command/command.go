// Package command describes the operations a migration tool offers to the test harness
// and implements them on top of sql-migrate.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrUnknownTarget = errors.New("unknown migration target")
	ErrClosed        = errors.New("command executor is closed")
	ErrRevisionOrder = errors.New("new revision does not sort after current head")
)

// Executor runs migration tool commands. Implementation owns the migration environment.
type Executor interface {
	Upgrade(ctx context.Context, target Target) error
	Downgrade(ctx context.Context, target Target) error

	// History returns "revision -> parent" lines, newest first.
	History(ctx context.Context) ([]string, error)
	Heads(ctx context.Context) ([]string, error)
	// Current returns the applied revision lines, empty when nothing is applied.
	Current(ctx context.Context) ([]string, error)
	Revision(ctx context.Context, opts RevisionOptions) (RevisionResult, error)

	io.Closer
}

// Target is where upgrade or downgrade should land: a revision id, "base", "head",
// "heads" or a relative step like "-1" and "+2".
type Target string

const (
	TargetBase  Target = "base"
	TargetHead  Target = "head"
	TargetHeads Target = "heads"
)

// Relative returns target of n steps from the current revision.
func Relative(n int) Target {
	if n >= 0 {
		return Target("+" + strconv.Itoa(n))
	}

	return Target(strconv.Itoa(n))
}

func (t Target) String() string {
	return string(t)
}

// IsHead reports whether target points to the head revision.
func (t Target) IsHead() bool {
	return t == TargetHead || t == TargetHeads
}

// Steps returns the relative step count. The boolean is false when target is not relative.
func (t Target) Steps() (int, bool) {
	s := string(t)
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}

	return n, true
}

// HookResult tells the revision command whether it may write the revision.
type HookResult int

const (
	Continue HookResult = iota
	Cancel
)

// Directives is the in-memory revision computed by the revision command, before anything is written.
type Directives struct {
	RevisionID string
	Parent     string
	Message    string
	Up         []string
	Down       []string
}

// RevisionContext is the state of the migration environment given to DirectivesHook.
type RevisionContext struct {
	Heads []string
	Dir   string
}

// DirectivesHook may inspect or mutate directives. Returning Cancel stops the command
// before the revision is written.
type DirectivesHook func(ctx context.Context, rc RevisionContext, directives *Directives) (HookResult, error)

type RevisionOptions struct {
	Message    string
	RevisionID string // generated when empty
	Up         []string
	Down       []string
	Hook       DirectivesHook
}

type RevisionResult struct {
	Cancelled  bool
	Directives Directives
	Path       string // empty when the revision is only kept in memory
}

// Command is one of Upgrade, Downgrade, History, Heads, Current or Revision.
type Command interface {
	Name() string
	run(ctx context.Context, e Executor) (interface{}, error)
}

type Upgrade struct {
	Target Target
}

type Downgrade struct {
	Target Target
}

type History struct{}

type Heads struct{}

type Current struct{}

type Revision struct {
	Options RevisionOptions
}

func (Upgrade) Name() string   { return "upgrade" }
func (Downgrade) Name() string { return "downgrade" }
func (History) Name() string   { return "history" }
func (Heads) Name() string     { return "heads" }
func (Current) Name() string   { return "current" }
func (Revision) Name() string  { return "revision" }

func (c Upgrade) run(ctx context.Context, e Executor) (interface{}, error) {
	return nil, e.Upgrade(ctx, c.Target)
}

func (c Downgrade) run(ctx context.Context, e Executor) (interface{}, error) {
	return nil, e.Downgrade(ctx, c.Target)
}

func (History) run(ctx context.Context, e Executor) (interface{}, error) {
	return e.History(ctx)
}

func (Heads) run(ctx context.Context, e Executor) (interface{}, error) {
	return e.Heads(ctx)
}

func (Current) run(ctx context.Context, e Executor) (interface{}, error) {
	return e.Current(ctx)
}

func (c Revision) run(ctx context.Context, e Executor) (interface{}, error) {
	return e.Revision(ctx, c.Options)
}

var (
	_ Command = Upgrade{}
	_ Command = Downgrade{}
	_ Command = History{}
	_ Command = Heads{}
	_ Command = Current{}
	_ Command = Revision{}
)

// Run dispatches cmd to executor. Result is nil for Upgrade and Downgrade, []string for
// History, Heads and Current, and RevisionResult for Revision.
func Run(ctx context.Context, e Executor, cmd Command) (interface{}, error) {
	if e == nil {
		return nil, fmt.Errorf("nil command executor")
	}

	if cmd == nil {
		return nil, fmt.Errorf("nil command")
	}

	return cmd.run(ctx, e)
}

// ParseCommand builds a Command from its name and arguments, used by the CLI.
func ParseCommand(name string, args ...string) (Command, error) {
	arg := func() (Target, error) {
		if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
			return "", fmt.Errorf("command %s needs exactly one target", name)
		}

		return Target(strings.TrimSpace(args[0])), nil
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "upgrade":
		target, err := arg()
		if err != nil {
			return nil, err
		}

		return Upgrade{Target: target}, nil
	case "downgrade":
		target, err := arg()
		if err != nil {
			return nil, err
		}

		return Downgrade{Target: target}, nil
	case "history":
		return History{}, nil
	case "heads":
		return Heads{}, nil
	case "current":
		return Current{}, nil
	case "revision":
		return Revision{Options: RevisionOptions{Message: strings.Join(args, " ")}}, nil
	default:
		return nil, fmt.Errorf("unknown command '%s'", name)
	}
}
