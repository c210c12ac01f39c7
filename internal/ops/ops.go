// Package ops wraps each streaming engine operation in a uniform
// outcome contract: build the endpoint and payload, attach a spinner
// where the original UX has one, run a single session, and hand back
// (success, message) for the command layer to print. Nothing here
// reconnects; a session gets exactly one attempt.
package ops

import (
	"log/slog"

	"github.com/tensorpool/tp/internal/stream"
	"github.com/tensorpool/tp/internal/ui"
)

// Env carries the resolved connection values every operation needs.
type Env struct {
	EngineURL string
	APIKey    string
	// NoInput disables the interactive prompt relay and tells the
	// engine so via the endpoint query.
	NoInput bool
	Logger  *slog.Logger
}

func (e Env) endpoint(path string) string {
	if e.NoInput {
		return path + "?no_input=true"
	}
	return path
}

// runWithSpinner executes one session behind a live spinner. The
// spinner owns the terminal line for the session's lifetime; the
// session pauses it around interactive prompts.
func (e Env) runWithSpinner(spinnerText, endpoint string, payload any, defaults stream.Defaults) stream.Outcome {
	spin := ui.NewSpinner(spinnerText)
	spin.Start()
	defer spin.Stop()

	session := &stream.Session{
		BaseURL:    e.EngineURL,
		Endpoint:   endpoint,
		APIKey:     e.APIKey,
		Payload:    payload,
		AllowInput: !e.NoInput,
		Progress:   spin,
		Defaults:   defaults,
		Logger:     e.Logger,
	}
	return session.Run()
}
