package shell

import _ "embed"

// Embedded shell integration templates, compiled into the binary at
// build time.

//go:embed templates/bash.tmpl
var bashTemplate string

//go:embed templates/zsh.tmpl
var zshTemplate string

//go:embed templates/fish.tmpl
var fishTemplate string
