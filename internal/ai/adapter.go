// Package ai invokes the external generation service and coerces its
// free-form output into a structured completion contract.
package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/devroom/devroom/internal/domain/filetree"
)

// apologyText is returned when the generation service is unreachable or
// errors; the chat stream must keep flowing regardless.
const apologyText = "AI failed to generate a response."

// Completion is the structured result of one AI invocation. It is transient:
// decomposed into a chat message (Text, via Encode) and, when FileTree is
// non-empty, a file tree replacement.
type Completion struct {
	Text         string          `json:"text"`
	FileTree     filetree.Tree   `json:"fileTree"`
	BuildCommand json.RawMessage `json:"buildCommand,omitempty"`
	StartCommand json.RawMessage `json:"startCommand,omitempty"`
}

// Encode serializes the completion for transport inside a message body.
// Viewers recover the text field exactly via Decode.
func (c Completion) Encode() string {
	if c.FileTree == nil {
		c.FileTree = filetree.Tree{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		// Completion only holds marshalable fields; this is unreachable
		// short of corrupt RawMessage, in which case ship text alone.
		data, _ = json.Marshal(Completion{Text: c.Text, FileTree: filetree.Tree{}})
	}
	return string(data)
}

// Decode recovers a completion from a serialized message body.
func Decode(body string) (Completion, error) {
	var c Completion
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return Completion{}, err
	}
	if c.FileTree == nil {
		c.FileTree = filetree.Tree{}
	}
	return c, nil
}

// Generator calls the external generation service with a plain-text prompt
// and returns its raw text output.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Adapter wraps a Generator with the output contract: every code path yields
// a well-formed Completion, never an error.
type Adapter struct {
	gen    Generator
	logger *slog.Logger
}

// NewAdapter creates a completion adapter.
func NewAdapter(gen Generator, logger *slog.Logger) *Adapter {
	return &Adapter{gen: gen, logger: logger}
}

// Complete invokes the generation service for prompt. Malformed output falls
// back to {text: raw, fileTree: {}}; upstream failure falls back to a fixed
// apology. The caller always receives a usable result.
func (a *Adapter) Complete(ctx context.Context, prompt string) Completion {
	raw, err := a.gen.GenerateContent(ctx, prompt)
	if err != nil {
		a.logger.Warn("generation service failed", "error", err)
		return Completion{Text: apologyText, FileTree: filetree.Tree{}}
	}

	raw = stripCodeFences(strings.TrimSpace(raw))

	var c Completion
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		a.logger.Warn("generation service returned non-JSON output", "length", len(raw))
		return Completion{Text: raw, FileTree: filetree.Tree{}}
	}

	if c.FileTree == nil {
		c.FileTree = filetree.Tree{}
	}
	return c
}

// stripCodeFences removes accidental ```json ... ``` wrapping.
func stripCodeFences(raw string) string {
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```JSON")
	raw = strings.ReplaceAll(raw, "```", "")
	return strings.TrimSpace(raw)
}
