// Package spec defines the completion spec tree and its blob decoder.
//
// A spec describes one command: its subcommands, options and positional
// arguments. Specs are produced ahead of time by the spec compiler,
// stored as versioned JSON blobs, and are immutable once decoded — the
// registry hands out shared pointers across requests.
package spec

import "strings"

// CurrentVersion is the blob format version this decoder understands.
const CurrentVersion = 1

// Spec is a node in the completion tree. The root carries the command
// name; subcommand nodes are shaped identically.
type Spec struct {
	Version     int      `koanf:"version" json:"version,omitempty"`
	Name        string   `koanf:"name" json:"name"`
	Description string   `koanf:"description" json:"description,omitempty"`
	Subcommands []*Spec  `koanf:"subcommands" json:"subcommands,omitempty"`
	Options     []Option `koanf:"options" json:"options,omitempty"`
	Args        []Arg    `koanf:"args" json:"args,omitempty"`
}

// Option describes a flag. An option may have several spellings
// (e.g. -m and --message) and may consume the following token as its
// value.
type Option struct {
	Names       []string `koanf:"names" json:"names"`
	Description string   `koanf:"description" json:"description,omitempty"`
	TakesValue  bool     `koanf:"takes_value" json:"takes_value,omitempty"`
	Values      []string `koanf:"values" json:"values,omitempty"`
}

// Arg describes a positional argument. Suggestions is the static list;
// Generator is an opaque reference to a dynamic suggestion producer
// which the core records but never executes.
type Arg struct {
	Description string   `koanf:"description" json:"description,omitempty"`
	Suggestions []string `koanf:"suggestions" json:"suggestions,omitempty"`
	Generator   string   `koanf:"generator" json:"generator,omitempty"`
	Template    string   `koanf:"template" json:"template,omitempty"`
}

// Subcommand returns the child node with the given name, or nil.
// Spec data is externally authored, so traversal never assumes a node
// exists.
func (s *Spec) Subcommand(name string) *Spec {
	if s == nil {
		return nil
	}
	name = strings.ToLower(name)
	for _, sub := range s.Subcommands {
		if sub != nil && sub.Name == name {
			return sub
		}
	}
	return nil
}

// Descend walks the tree along path. Any unresolvable segment returns
// nil; a dead end is a normal interaction state, not an error.
func (s *Spec) Descend(path []string) *Spec {
	node := s
	for _, seg := range path {
		node = node.Subcommand(seg)
		if node == nil {
			return nil
		}
	}
	return node
}

// Option returns the option at this node matching name under any of its
// spellings, or nil.
func (s *Spec) Option(name string) *Option {
	if s == nil {
		return nil
	}
	for i := range s.Options {
		for _, n := range s.Options[i].Names {
			if n == name {
				return &s.Options[i]
			}
		}
	}
	return nil
}

// normalize lower-cases every name in the tree so registry lookups and
// subcommand matching are case-insensitive.
func (s *Spec) normalize() {
	if s == nil {
		return
	}
	s.Name = strings.ToLower(s.Name)
	for _, sub := range s.Subcommands {
		sub.normalize()
	}
}
