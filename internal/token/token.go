// Package token splits a raw command buffer into lexical tokens.
//
// The tokenizer is quote and escape aware but deliberately not a full
// shell grammar: it produces exactly the token stream the context
// analyzer needs, in a single O(n) pass, and it never fails. Malformed
// input (an unterminated quote) extends the open token to the end of
// the buffer instead of producing an error.
package token

import "strings"

// Kind classifies a token.
type Kind int

const (
	// Word is a plain word: a command, subcommand or argument.
	Word Kind = iota
	// Option is a word starting with '-' outside quotes.
	Option
	// Operator is one of the shell operators | > < ; & outside quotes.
	Operator
	// Variable is a word starting with '$' outside quotes.
	Variable
)

// Token is a single lexical token. Text holds the unquoted, unescaped
// content; Offset and End delimit the raw byte range in the original
// buffer so the cursor can be mapped back onto a token.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
	End    int
}

// IsOption reports whether the token looks like a command-line option.
func (t Token) IsOption() bool {
	return t.Kind == Option
}

func isOperator(c byte) bool {
	switch c {
	case '|', '>', '<', ';', '&':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func classify(text string, quoted bool) Kind {
	if quoted || text == "" {
		return Word
	}
	if strings.HasPrefix(text, "-") && len(text) > 1 {
		return Option
	}
	if strings.HasPrefix(text, "$") && len(text) > 1 {
		return Variable
	}
	return Word
}

// Tokenize splits buffer into tokens. It always terminates, never
// returns an error, and guarantees that a buffer which is empty or ends
// in unquoted whitespace yields a trailing empty Word token, so the
// cursor's target token always exists.
func Tokenize(buffer string) []Token {
	tokens := make([]Token, 0, 8)

	var (
		text    strings.Builder
		start   = -1 // raw offset of the current token, -1 when idle
		quote   byte // active quote char, 0 when outside quotes
		escaped bool
		quoted  bool // current token contained a quoted section
	)

	flush := func(end int) {
		if start < 0 {
			return
		}
		tokens = append(tokens, Token{
			Kind:   classify(text.String(), quoted),
			Text:   text.String(),
			Offset: start,
			End:    end,
		})
		text.Reset()
		start = -1
		quoted = false
	}

	for i := 0; i < len(buffer); i++ {
		c := buffer[i]

		if escaped {
			if start < 0 {
				start = i - 1
			}
			text.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && quote != '\'' {
			escaped = true
			continue
		}

		if quote != 0 {
			if c == quote {
				quote = 0
			} else {
				text.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			if start < 0 {
				start = i
			}
			quote = c
			quoted = true
		case isSpace(c):
			flush(i)
		case isOperator(c):
			flush(i)
			tokens = append(tokens, Token{Kind: Operator, Text: string(c), Offset: i, End: i + 1})
		default:
			if start < 0 {
				start = i
			}
			text.WriteByte(c)
		}
	}

	// A trailing backslash with nothing after it is kept literally.
	if escaped {
		if start < 0 {
			start = len(buffer) - 1
		}
		text.WriteByte('\\')
	}

	flush(len(buffer))

	// The cursor sits one past the last byte when the user just typed a
	// separator; give it an empty token to land on.
	if len(tokens) == 0 || tokens[len(tokens)-1].End < len(buffer) ||
		(len(buffer) > 0 && isSpace(buffer[len(buffer)-1]) && quote == 0) {
		tokens = append(tokens, Token{Kind: Word, Offset: len(buffer), End: len(buffer)})
	}

	return tokens
}

// Words returns just the token texts, in order. Mostly useful in tests
// and for the one-shot CLI output.
func Words(tokens []Token) []string {
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		words = append(words, t.Text)
	}
	return words
}
