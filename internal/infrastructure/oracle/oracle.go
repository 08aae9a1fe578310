// Package oracle talks to the external vision model used for triage, duplicate
// comparison and repair verification. Callers treat every error as an oracle failure
// and apply their own fallback.
package oracle

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned by every call when no API key is set.
	ErrNotConfigured = errors.New("oracle is not configured")
	ErrEmptyResponse = errors.New("oracle returned no content")
)

// Image is an inline image attached to a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

type Request struct {
	Prompt      string
	Images      []Image
	Temperature float64
	// JSONResponse asks the model to answer with a JSON document.
	JSONResponse bool
}

// Client answers a prompt with free text.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Model() string {
	return "disabled"
}
