// Package ui renders command results as styled terminal output, plain text
// or JSON.
//
// Commands build one of the view types in views.go and hand it to a
// Renderer; renderers never reach into the engine themselves.
package ui

import (
	"io"
	"os"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
)

// Renderer is the common interface for all output renderers.
type Renderer interface {
	// RenderResult renders one of the view types.
	RenderResult(result interface{}) error

	// RenderError renders an error with appropriate formatting
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// NewRenderer creates a renderer for format. FormatAuto inspects output
// when it is a file and falls back to plain text otherwise.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output)
		}
		return NewRenderer(FormatText, output)
	case FormatTerminal:
		return &textRenderer{w: output, styled: true}, nil
	case FormatText:
		return &textRenderer{w: output}, nil
	case FormatJSON:
		return &jsonRenderer{w: output}, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}
