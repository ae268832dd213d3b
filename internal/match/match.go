// Package match turns an analyzed context and a spec into ranked
// suggestions. Matching is prefix-only and case-sensitive; ranking is
// deterministic: exact match first, then shortest candidate, then
// lexical order.
package match

import (
	"sort"
	"strings"

	"github.com/compd-sh/compd/internal/parser"
	"github.com/compd-sh/compd/internal/spec"
)

// Kind classifies a suggestion for the shell integration.
type Kind int

const (
	// KindCommand is a top-level command name.
	KindCommand Kind = iota
	// KindSubcommand is a subcommand of the current command.
	KindSubcommand
	// KindOption is an option flag.
	KindOption
	// KindArgument is a positional argument value.
	KindArgument
	// KindFile is a file path argument.
	KindFile
	// KindDirectory is a directory path argument.
	KindDirectory
)

// String returns the wire representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindSubcommand:
		return "subcommand"
	case KindOption:
		return "option"
	case KindArgument:
		return "argument"
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	}
	return "argument"
}

// Suggestion is one ranked completion candidate. Request-scoped: built
// per call and owned by the response.
type Suggestion struct {
	Text        string
	Description string
	Kind        Kind
}

// Result is the outcome of one match. Generators lists deferred
// suggestion producers the caller may run through a future extension
// point; the matcher itself never executes them.
type Result struct {
	Suggestions []Suggestion
	Generators  []string
}

// Match dispatches on the context's expectation. A nil spec or a
// dead-end subcommand path yields an empty result, never an error.
func Match(pctx parser.Context, sp *spec.Spec, known []string) Result {
	switch pctx.Expectation {
	case parser.ExpectCommand:
		return matchCommand(pctx, known)
	case parser.ExpectSubcommand:
		return matchSubcommand(pctx, sp)
	case parser.ExpectOptionFlag:
		return matchOption(pctx, sp)
	case parser.ExpectOptionValue:
		return matchOptionValue(pctx, sp)
	case parser.ExpectArgument:
		return matchArgument(pctx, sp)
	}
	return Result{Suggestions: []Suggestion{}}
}

func matchCommand(pctx parser.Context, known []string) Result {
	suggestions := make([]Suggestion, 0, len(known))
	for _, name := range known {
		if !strings.HasPrefix(name, pctx.Partial) {
			continue
		}
		suggestions = append(suggestions, Suggestion{Text: name, Kind: KindCommand})
	}
	return Result{Suggestions: rank(suggestions, pctx.Partial)}
}

func matchSubcommand(pctx parser.Context, sp *spec.Spec) Result {
	node := sp.Descend(pctx.SubcommandPath)
	if node == nil {
		return Result{Suggestions: []Suggestion{}}
	}

	suggestions := make([]Suggestion, 0, len(node.Subcommands))
	for _, sub := range node.Subcommands {
		if sub == nil || !strings.HasPrefix(sub.Name, pctx.Partial) {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Text:        sub.Name,
			Description: sub.Description,
			Kind:        KindSubcommand,
		})
	}
	return Result{Suggestions: rank(suggestions, pctx.Partial)}
}

func matchOption(pctx parser.Context, sp *spec.Spec) Result {
	node := sp.Descend(pctx.SubcommandPath)
	if node == nil {
		return Result{Suggestions: []Suggestion{}}
	}

	suggestions := []Suggestion{}
	for _, opt := range node.Options {
		for _, name := range opt.Names {
			if !strings.HasPrefix(name, pctx.Partial) {
				continue
			}
			suggestions = append(suggestions, Suggestion{
				Text:        name,
				Description: opt.Description,
				Kind:        KindOption,
			})
		}
	}
	return Result{Suggestions: rank(suggestions, pctx.Partial)}
}

func matchOptionValue(pctx parser.Context, sp *spec.Spec) Result {
	node := sp.Descend(pctx.SubcommandPath)
	opt := node.Option(pctx.OptionName)
	if opt == nil {
		// Unknown option: a legitimate dead end.
		return Result{Suggestions: []Suggestion{}}
	}

	suggestions := make([]Suggestion, 0, len(opt.Values))
	for _, v := range opt.Values {
		if !strings.HasPrefix(v, pctx.Partial) {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Text:        v,
			Description: opt.Description,
			Kind:        KindArgument,
		})
	}
	return Result{Suggestions: rank(suggestions, pctx.Partial)}
}

func matchArgument(pctx parser.Context, sp *spec.Spec) Result {
	node := sp.Descend(pctx.SubcommandPath)
	if node == nil || len(node.Args) == 0 {
		return Result{Suggestions: []Suggestion{}}
	}

	// First unconsumed positional argument; past the declared list
	// there is nothing left to suggest.
	idx := pctx.ArgsSeen
	if idx >= len(node.Args) {
		return Result{Suggestions: []Suggestion{}}
	}
	arg := node.Args[idx]

	result := Result{Suggestions: []Suggestion{}}

	kind := KindArgument
	switch arg.Template {
	case "filepaths":
		kind = KindFile
	case "folders":
		kind = KindDirectory
	}

	for _, s := range arg.Suggestions {
		if !strings.HasPrefix(s, pctx.Partial) {
			continue
		}
		result.Suggestions = append(result.Suggestions, Suggestion{
			Text:        s,
			Description: arg.Description,
			Kind:        kind,
		})
	}
	result.Suggestions = rank(result.Suggestions, pctx.Partial)

	// Dynamic producers are recorded, not executed.
	if arg.Generator != "" {
		result.Generators = append(result.Generators, arg.Generator)
	}
	if arg.Template != "" {
		result.Generators = append(result.Generators, "template:"+arg.Template)
	}

	return result
}

// rank orders suggestions deterministically: exact match, then shortest
// text, then lexical.
func rank(suggestions []Suggestion, partial string) []Suggestion {
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		aExact, bExact := a.Text == partial, b.Text == partial
		if aExact != bExact {
			return aExact
		}
		if len(a.Text) != len(b.Text) {
			return len(a.Text) < len(b.Text)
		}
		return a.Text < b.Text
	})
	return suggestions
}
