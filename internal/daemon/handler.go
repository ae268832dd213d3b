package daemon

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/compd-sh/compd/internal/cerrors"
	"github.com/compd-sh/compd/internal/logger"
	"github.com/compd-sh/compd/internal/match"
	"github.com/compd-sh/compd/internal/parser"
	"github.com/compd-sh/compd/internal/registry"
	"github.com/compd-sh/compd/internal/spec"
	"github.com/compd-sh/compd/internal/timing"
	"github.com/compd-sh/compd/internal/token"
)

// Handler runs the completion pipeline for one request: tokenize,
// analyze, spec lookup, match. It holds no per-request state and is
// safe for concurrent use.
type Handler struct {
	reg *registry.Registry
	log *logger.Logger
}

// NewHandler creates a handler over the given registry.
func NewHandler(reg *registry.Registry, log *logger.Logger) *Handler {
	return &Handler{reg: reg, log: log}
}

// Complete validates the request and runs the pipeline. Request-shape
// violations return typed errors; lookup and spec-source failures
// degrade to an empty suggestion list. Any panic inside the pipeline is
// recovered here and converted to an internal error so the accept loop
// never sees it.
func (h *Handler) Complete(ctx context.Context, buffer string, cursor int) (result []match.Suggestion, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Str("panic", fmt.Sprint(r)).Msg("completion pipeline fault")
			result = nil
			err = cerrors.NewInternalError("completion pipeline fault", nil)
		}
	}()

	if len(buffer) > MaxBufferLen {
		return nil, cerrors.NewInvalidBufferError(len(buffer), MaxBufferLen)
	}
	if !utf8.ValidString(buffer) {
		return nil, cerrors.NewInvalidBufferError(len(buffer), MaxBufferLen)
	}
	if cursor < 0 || cursor > len(buffer) {
		return nil, cerrors.NewInvalidCursorError(cursor, len(buffer))
	}

	timer := timing.NewTimer()

	tokens := token.Tokenize(buffer)
	timer.Mark("tokenize")

	sp := h.lookupSpec(ctx, tokens)
	timer.Mark("lookup")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pctx := parser.Analyze(tokens, cursor, sp)
	timer.Mark("analyze")

	res := match.Match(pctx, sp, h.reg.Known())
	timer.Mark("match")

	h.log.Debug().
		Str("expectation", pctx.Expectation.String()).
		Str("partial", pctx.Partial).
		Int("suggestions", len(res.Suggestions)).
		Str("timing", timer.Summary()).
		Msg("completion served")

	return res.Suggestions, nil
}

// lookupSpec resolves the spec for the buffer's command. An unknown
// command or a bad spec is a normal interaction state: it is logged
// where useful and surfaced as a nil spec, never as a request failure.
func (h *Handler) lookupSpec(ctx context.Context, tokens []token.Token) *spec.Spec {
	if len(tokens) == 0 || tokens[0].Text == "" {
		return nil
	}

	sp, err := h.reg.Get(ctx, tokens[0].Text)
	if err == nil {
		return sp
	}

	var notFound *cerrors.SpecNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}

	// Corrupt blobs and version mismatches must not degrade completions
	// for other commands; log and move on.
	h.log.Warn().Str("command", tokens[0].Text).Err(err).Msg("spec lookup failed")
	return nil
}
