// Package setup installs the compd integration hook into shell rc files.
package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/compd-sh/compd/internal/shell"
)

const (
	// HookMarkerStart is the starting marker for the compd hook in RC files
	HookMarkerStart = "# compd shell integration - START"
	// HookMarkerEnd is the ending marker for the compd hook in RC files
	HookMarkerEnd = "# compd shell integration - END"
)

// Result represents the result of a setup operation
type Result struct {
	RCFile  string
	Updated bool
	Message string
}

// RCFilePath returns the rc file for the given shell.
func RCFilePath(shellName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	switch shellName {
	case shell.Bash:
		return filepath.Join(home, ".bashrc"), nil
	case shell.Zsh:
		return filepath.Join(home, ".zshrc"), nil
	case shell.Fish:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	default:
		return "", fmt.Errorf("unsupported shell: %s (use bash, zsh or fish)", shellName)
	}
}

// hookBlock is what gets written between the markers: a source line
// rather than the full script, so upgrades don't require re-running
// setup.
func hookBlock(shellName string) string {
	line := fmt.Sprintf(`eval "$(compd hook --shell %s)"`, shellName)
	if shellName == shell.Fish {
		line = fmt.Sprintf("compd hook --shell %s | source", shellName)
	}
	return HookMarkerStart + "\n" + line + "\n" + HookMarkerEnd
}

// InstallHook adds the compd hook to the shell's rc file, replacing any
// previous install. The operation is idempotent.
func InstallHook(shellName string) (*Result, error) {
	rcFile, err := RCFilePath(shellName)
	if err != nil {
		return nil, err
	}

	content := ""
	if data, err := os.ReadFile(rcFile); err == nil {
		content = string(data)
	}

	block := hookBlock(shellName)
	if strings.Contains(content, block) {
		return &Result{
			RCFile:  rcFile,
			Updated: false,
			Message: fmt.Sprintf("compd hook already installed in %s", rcFile),
		}, nil
	}

	content = removeMarkedSection(content, HookMarkerStart, HookMarkerEnd)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n" + block + "\n"

	if err := os.MkdirAll(filepath.Dir(rcFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create rc file directory: %w", err)
	}
	if err := os.WriteFile(rcFile, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", rcFile, err)
	}

	return &Result{
		RCFile:  rcFile,
		Updated: true,
		Message: fmt.Sprintf("✓ compd hook installed in %s", rcFile),
	}, nil
}

// UninstallHook removes the compd hook from the shell's rc file.
func UninstallHook(shellName string) (*Result, error) {
	rcFile, err := RCFilePath(shellName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(rcFile)
	if err != nil {
		return &Result{
			RCFile:  rcFile,
			Updated: false,
			Message: fmt.Sprintf("no compd hook found in %s", rcFile),
		}, nil
	}

	content := string(data)
	if !containsMarkers(content, HookMarkerStart, HookMarkerEnd) {
		return &Result{
			RCFile:  rcFile,
			Updated: false,
			Message: fmt.Sprintf("no compd hook found in %s", rcFile),
		}, nil
	}

	content = removeMarkedSection(content, HookMarkerStart, HookMarkerEnd)
	if err := os.WriteFile(rcFile, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", rcFile, err)
	}

	return &Result{
		RCFile:  rcFile,
		Updated: true,
		Message: fmt.Sprintf("✓ compd hook removed from %s", rcFile),
	}, nil
}

// containsMarkers checks if content contains both start and end markers
func containsMarkers(content, startMarker, endMarker string) bool {
	return strings.Contains(content, startMarker) && strings.Contains(content, endMarker)
}

// removeMarkedSection removes a section marked by start and end markers
func removeMarkedSection(content, startMarker, endMarker string) string {
	startIdx := strings.Index(content, startMarker)
	endIdx := strings.Index(content, endMarker)

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return content
	}

	before := content[:startIdx]
	after := content[endIdx+len(endMarker):]

	before = strings.TrimRight(before, "\n")
	after = strings.TrimLeft(after, "\n")

	if len(before) > 0 && len(after) > 0 {
		return before + "\n" + after
	}
	if len(before) > 0 {
		return before + "\n"
	}
	return after
}
