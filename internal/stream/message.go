// Package stream implements the engine's bidirectional streaming
// command-execution protocol: one WebSocket session per operation,
// authenticated with the API key, exchanging JSON control frames that
// carry status updates, remote-dispatched shell commands, and
// interactive input requests.
package stream

import (
	"encoding/json"
	"fmt"
)

// Status values the engine sends. Success and Error are terminal for a
// session; Input requests one line of local user input.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInput   = "input"
)

// apiKeyField is the key of the first frame sent on every session.
const apiKeyField = "TENSORPOOL_KEY"

// Inbound is one decoded control frame received from the engine.
// Frames are plain JSON objects; there is no explicit type tag, so
// every recognized key is optional and a single frame may carry any
// combination of them. Unknown keys are ignored.
type Inbound struct {
	Status            *string `json:"status,omitempty"`
	Message           *string `json:"message,omitempty"`
	JobID             *string `json:"job_id,omitempty"`
	Command           *string `json:"command,omitempty"`
	CommandShowStdout bool    `json:"command_show_stdout,omitempty"`
}

// Terminal reports whether the frame's status ends the message loop.
func (in *Inbound) Terminal() bool {
	if in.Status == nil {
		return false
	}
	return *in.Status == StatusSuccess || *in.Status == StatusError
}

func (in *Inbound) status() string {
	if in.Status == nil {
		return ""
	}
	return *in.Status
}

func (in *Inbound) message() string {
	if in.Message == nil {
		return ""
	}
	return *in.Message
}

// ProtocolError indicates a frame that could not be decoded. It is
// fatal to the session that received it.
type ProtocolError struct {
	err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed control frame: %v", e.err)
}

func (e *ProtocolError) Unwrap() error { return e.err }

// decodeInbound parses a received text frame. Missing keys default to
// absent; the only decode failure is invalid JSON.
func decodeInbound(data []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, &ProtocolError{err: err}
	}
	return &in, nil
}

// authFrame is the mandatory first outbound message.
func authFrame(apiKey string) map[string]string {
	return map[string]string{apiKeyField: apiKey}
}

// inputResponse relays one line of user input back to the engine.
type inputResponse struct {
	Response string `json:"response"`
}

// commandResult reports the outcome of a remote-dispatched command.
type commandResult struct {
	Type     string `json:"type"`
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"command_stdout"`
	Stderr   string `json:"command_stderr"`
}

func newCommandResult(command string, res CommandResult) commandResult {
	return commandResult{
		Type:     "command_result",
		Command:  command,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}
}
