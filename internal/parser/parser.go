// Package parser classifies what kind of completion the cursor expects.
//
// The analyzer is a linear single-pass classifier, not a grammar: it
// walks the tokens before the cursor, tracking subcommand descent and
// options seen, and derives a single expectation for the active token.
// It must never panic or loop on any input, including unknown commands,
// repeated options and unmatched tokens.
package parser

import (
	"strings"

	"github.com/compd-sh/compd/internal/spec"
	"github.com/compd-sh/compd/internal/token"
)

// Expectation is the kind of completion the active token calls for.
type Expectation int

const (
	// ExpectCommand means the user is typing the command name itself.
	ExpectCommand Expectation = iota
	// ExpectSubcommand means a subcommand of the current command.
	ExpectSubcommand
	// ExpectOptionFlag means an option name (the token starts with -).
	ExpectOptionFlag
	// ExpectOptionValue means the value of the preceding option.
	ExpectOptionValue
	// ExpectArgument means a positional argument.
	ExpectArgument
)

// String returns a readable name, mostly for logs.
func (e Expectation) String() string {
	switch e {
	case ExpectCommand:
		return "command"
	case ExpectSubcommand:
		return "subcommand"
	case ExpectOptionFlag:
		return "option"
	case ExpectOptionValue:
		return "option-value"
	case ExpectArgument:
		return "argument"
	}
	return "unknown"
}

// Context is the result of analyzing one buffer. It is request-scoped:
// created fresh per call and never shared.
type Context struct {
	// Command is the first word of the buffer, lower-cased.
	Command string
	// SubcommandPath is the chain of matched subcommands before the cursor.
	SubcommandPath []string
	// OptionsSeen records every option token walked before the cursor.
	OptionsSeen map[string]struct{}
	// Partial is the text of the token under the cursor.
	Partial string
	// Expectation classifies the active token.
	Expectation Expectation
	// OptionName is the owning option when Expectation is ExpectOptionValue.
	OptionName string
	// CursorToken is the index of the active token.
	CursorToken int
	// ArgsSeen counts positional arguments consumed before the cursor.
	ArgsSeen int
}

// Analyze maps the cursor onto a token and classifies it against sp.
// sp may be nil (unknown command); classification then degrades to
// ExpectArgument rather than failing. cursor is clamped into
// [0, end of buffer] so no input can fault.
func Analyze(tokens []token.Token, cursor int, sp *spec.Spec) Context {
	pctx := Context{
		OptionsSeen:    make(map[string]struct{}),
		SubcommandPath: []string{},
	}

	if len(tokens) == 0 {
		pctx.Expectation = ExpectCommand
		return pctx
	}

	if cursor < 0 {
		cursor = 0
	}
	if end := tokens[len(tokens)-1].End; cursor > end {
		cursor = end
	}

	active := activeToken(tokens, cursor)
	pctx.CursorToken = active
	pctx.Partial = tokens[active].Text
	pctx.Command = strings.ToLower(tokens[0].Text)

	if active == 0 || cursor == 0 {
		pctx.Expectation = ExpectCommand
		pctx.Partial = tokens[0].Text
		if cursor == 0 {
			pctx.Partial = ""
		}
		return pctx
	}

	node := sp
	matchedSub := false
	skipNext := false
	for i := 1; i < active; i++ {
		t := tokens[i]

		if skipNext {
			skipNext = false
			continue
		}
		if t.Kind == token.Operator {
			continue
		}

		if t.IsOption() {
			pctx.OptionsSeen[t.Text] = struct{}{}
			if opt := node.Option(t.Text); opt != nil && opt.TakesValue {
				skipNext = true
			}
			continue
		}

		if sub := node.Subcommand(t.Text); sub != nil {
			node = sub
			pctx.SubcommandPath = append(pctx.SubcommandPath, sub.Name)
			matchedSub = true
			continue
		}

		pctx.ArgsSeen++
	}

	// Fixed-order expectation rule.
	switch {
	case valueOption(tokens, active, node, skipNext):
		pctx.Expectation = ExpectOptionValue
		pctx.OptionName = tokens[active-1].Text
	case strings.HasPrefix(pctx.Partial, "-"):
		pctx.Expectation = ExpectOptionFlag
	case sp == nil:
		// Unknown command: nothing to descend into, fall back gracefully.
		pctx.Expectation = ExpectArgument
	case !matchedSub:
		pctx.Expectation = ExpectSubcommand
	default:
		pctx.Expectation = ExpectArgument
	}

	return pctx
}

// activeToken returns the index of the token whose byte range contains
// the cursor, or the closest following token for a cursor sitting in
// the separator gap.
func activeToken(tokens []token.Token, cursor int) int {
	for i, t := range tokens {
		if cursor >= t.Offset && cursor <= t.End {
			return i
		}
		if cursor < t.Offset {
			return i
		}
	}
	return len(tokens) - 1
}

// valueOption reports whether the token before the active one is an
// option that consumes a value. skipNext carries over from the walk: it
// is set when that option was already identified as value-taking.
func valueOption(tokens []token.Token, active int, node *spec.Spec, skipNext bool) bool {
	if skipNext {
		return true
	}
	prev := tokens[active-1]
	if !prev.IsOption() {
		return false
	}
	opt := node.Option(prev.Text)
	return opt != nil && opt.TakesValue
}
