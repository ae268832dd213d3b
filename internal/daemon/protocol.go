// Package daemon hosts the completion pipeline behind a Unix domain
// socket. The wire protocol is newline-delimited JSON: one request per
// line, one response per line, strictly ordered per connection.
package daemon

import "github.com/compd-sh/compd/internal/match"

// Protocol limits. MaxBufferLen bounds the buffer field itself;
// MaxRequestBytes bounds the full encoded request line.
const (
	MaxBufferLen      = 10000
	DefaultMaxRequest = 64 * 1024
)

// Request is one completion request from the shell integration.
type Request struct {
	// Buffer is the raw command line, at most MaxBufferLen bytes.
	Buffer string `json:"buffer"`
	// Cursor is the byte offset of the cursor within Buffer.
	Cursor int `json:"cursor"`
}

// WireSuggestion is one suggestion as serialized to the client.
type WireSuggestion struct {
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
}

// Response is a successful completion response. Suggestions is always
// present, possibly empty.
type Response struct {
	Suggestions []WireSuggestion `json:"suggestions"`
}

// ErrorResponse is sent for request-shape errors and internal faults.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToWire converts matcher suggestions into their wire form.
func ToWire(suggestions []match.Suggestion) []WireSuggestion {
	wire := make([]WireSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		wire = append(wire, WireSuggestion{
			Text:        s.Text,
			Description: s.Description,
			Type:        s.Kind.String(),
		})
	}
	return wire
}
