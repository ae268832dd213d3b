// Package shell renders the per-shell integration scripts that wire a
// key binding to the compd daemon.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Supported shells.
const (
	Bash = "bash"
	Zsh  = "zsh"
	Fish = "fish"
)

// Params feeds the integration templates.
type Params struct {
	// Binary is the path the script should invoke; defaults to "compd".
	Binary string
	// Socket is the daemon socket path baked into the script.
	Socket string
}

// Detect resolves a shell name. "auto" or "" inspects $SHELL and falls
// back to bash.
func Detect(pref string) string {
	switch pref {
	case Bash, Zsh, Fish:
		return pref
	}

	name := filepath.Base(os.Getenv("SHELL"))
	switch name {
	case Zsh, Fish:
		return name
	}
	return Bash
}

// Script renders the integration script for the given shell.
func Script(shellName string, p Params) (string, error) {
	if p.Binary == "" {
		p.Binary = "compd"
	}

	var src string
	switch shellName {
	case Bash:
		src = bashTemplate
	case Zsh:
		src = zshTemplate
	case Fish:
		src = fishTemplate
	default:
		return "", fmt.Errorf("unsupported shell: %s", shellName)
	}

	tmpl, err := template.New(shellName).Funcs(sprig.TxtFuncMap()).Parse(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", shellName, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, p); err != nil {
		return "", fmt.Errorf("failed to render %s integration: %w", shellName, err)
	}
	return b.String(), nil
}
