package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Keepalive tuning. A short ping interval with a slightly longer pong
// deadline detects dead connections quickly instead of waiting out the
// OS TCP timeout.
const (
	pingInterval     = 5 * time.Second
	pongTimeout      = 10 * time.Second
	handshakeTimeout = 15 * time.Second
)

// Progress is the streaming session's view of a progress indicator.
// The session pauses it around interactive prompts and routes
// informational messages through it; start/stop stay with the caller.
type Progress interface {
	Pause()
	Resume()
	UpdateText(string)
}

// Defaults supplies the fallback texts for the three ways a session
// can end when the engine does not provide its own message.
type Defaults struct {
	Success string
	Error   string
	// UnexpectedEnd is returned when the connection dies before a
	// terminal status. It should point the user at a listing command,
	// since the remote operation may have carried on without us.
	UnexpectedEnd string
}

// Session drives one WebSocket connection through the control
// protocol: authenticate, send the operation payload, then loop over
// inbound frames until a terminal status or the connection closes.
// A Session is used for exactly one Run and never reused.
type Session struct {
	// BaseURL is the engine's HTTP(S) base; the ws:// or wss:// URL is
	// derived from it.
	BaseURL string
	// Endpoint is the operation path, e.g. "/cluster/create".
	Endpoint string
	// APIKey is sent as the first frame, unconditionally.
	APIKey string
	// Payload, when non-nil, is sent verbatim as the second frame.
	Payload any
	// AllowInput enables the interactive prompt relay for
	// status=="input" frames. When false those frames degrade to
	// plain message display.
	AllowInput bool
	// Progress, when non-nil, receives message updates and is paused
	// around prompts. When nil messages print directly to Stdout and
	// the terminal outcome message is suppressed to avoid printing it
	// twice.
	Progress Progress
	// Defaults fill in outcome messages the engine omitted.
	Defaults Defaults

	// Stdin/Stdout default to the process's own. Tests substitute
	// them.
	Stdin  io.Reader
	Stdout io.Writer
	Logger *slog.Logger

	// Dialer overrides the websocket dialer, for tests.
	Dialer *websocket.Dialer

	// stdinBuf persists across prompts: a fresh bufio.Reader per
	// prompt would drop whatever the previous one buffered ahead.
	stdinBuf *bufio.Reader
}

// Outcome is the single value a session reduces to. No error escapes
// Run; every exit path becomes a success flag and a printable message.
type Outcome struct {
	Success bool
	Message string
	// JobID is the first job_id the engine sent, if any. Only
	// job-push-like operations produce one.
	JobID string
}

// Run executes the session protocol over a single connection. There is
// no retry inside: one connection attempt, one pass. Reconnection, if
// wanted, belongs to the caller.
func (s *Session) Run() Outcome {
	log := s.logger()

	conn, err := s.dial()
	if err != nil {
		log.Debug("dial failed", "endpoint", s.Endpoint, "err", err)
		return s.failure(fmt.Sprintf("WebSocket error: %v", err), "")
	}
	defer conn.Close()

	if err := conn.WriteJSON(authFrame(s.APIKey)); err != nil {
		return s.failure(fmt.Sprintf("WebSocket error: %v", err), "")
	}
	if s.Payload != nil {
		if err := conn.WriteJSON(s.Payload); err != nil {
			return s.failure(fmt.Sprintf("WebSocket error: %v", err), "")
		}
	}

	var (
		status string
		msg    string
		jobID  string
	)

	runner := &executor{stdout: s.Stdout}

	for {
		// Re-arm the deadline before every blocking read. Pongs are
		// only processed while a read is in flight, so a prompt or a
		// local command suspending the loop past the pong timeout
		// would otherwise leave the next read already expired.
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return s.classifyClose(err, jobID)
		}
		in, err := decodeInbound(data)
		if err != nil {
			log.Debug("protocol error", "endpoint", s.Endpoint, "err", err)
			return s.failure(err.Error(), jobID)
		}

		// The first job_id wins; later frames never overwrite it.
		if in.JobID != nil && jobID == "" {
			jobID = *in.JobID
		}

		status = in.status()
		msg = in.message()

		if s.AllowInput && status == StatusInput {
			line, err := s.prompt(msg)
			if err != nil {
				return s.failure(fmt.Sprintf("failed to read input: %v", err), jobID)
			}
			if err := conn.WriteJSON(inputResponse{Response: line}); err != nil {
				return s.failure(fmt.Sprintf("WebSocket error: %v", err), jobID)
			}
			// The prompt consumed the message; don't display it again.
			continue
		}

		if msg != "" {
			s.display(msg)
		}

		if in.Command != nil && *in.Command != "" {
			res := runner.run(*in.Command, in.CommandShowStdout)
			log.Debug("command finished", "exit", res.ExitCode)
			if err := conn.WriteJSON(newCommandResult(*in.Command, res)); err != nil {
				return s.failure(fmt.Sprintf("WebSocket error: %v", err), jobID)
			}
		}

		if in.Terminal() {
			break
		}
	}

	// Leave politely; the engine closes its side either way.
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	if status == StatusSuccess {
		return Outcome{Success: true, Message: s.finalMessage(msg, s.Defaults.Success), JobID: jobID}
	}
	return Outcome{Success: false, Message: s.finalMessage(msg, s.Defaults.Error), JobID: jobID}
}

// dial opens the WebSocket and arms the ping/pong keepalive.
func (s *Session) dial() (*websocket.Conn, error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	}
	conn, resp, err := dialer.Dial(deriveWSURL(s.BaseURL, s.Endpoint), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	go keepalive(conn)
	return conn, nil
}

// keepalive pings until the connection dies. WriteControl is safe to
// call concurrently with the session's writes.
func keepalive(conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		deadline := time.Now().Add(pingInterval)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return
		}
	}
}

// deriveWSURL turns the configured HTTP(S) base URL into the ws(s)
// URL for an operation path.
func deriveWSURL(baseURL, endpoint string) string {
	base := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + endpoint
}

// classifyClose maps a read error to the session outcome. Close codes
// partition into exactly three classes: normal closure (success,
// since a recorded terminal status breaks the loop before this path),
// abnormal closure (outcome unknown, the remote side may have carried
// on), and everything else (explicit failure with code and reason).
func (s *Session) classifyClose(err error, jobID string) Outcome {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return s.failure(fmt.Sprintf("WebSocket error: %v", err), jobID)
	}
	switch closeErr.Code {
	case websocket.CloseNormalClosure:
		return Outcome{Success: true, Message: s.finalMessage("", s.Defaults.Success), JobID: jobID}
	case websocket.CloseAbnormalClosure:
		msg := s.Defaults.UnexpectedEnd
		if msg == "" {
			msg = "Connection lost before the operation finished."
		}
		return Outcome{Success: false, Message: fmt.Sprintf("%s\nClose code: %d", msg, closeErr.Code), JobID: jobID}
	default:
		reason := closeErr.Text
		if reason == "" {
			reason = "No reason provided"
		}
		return s.failure(fmt.Sprintf("Connection closed: code=%d, reason=%s", closeErr.Code, reason), jobID)
	}
}

func (s *Session) failure(msg string, jobID string) Outcome {
	return Outcome{Success: false, Message: msg, JobID: jobID}
}

// finalMessage implements the outcome deduplication convention: with a
// progress indicator attached the loop routed messages through it, so
// the final text is returned for the caller to print; without one the
// messages already went to stdout live and returning them again would
// double-print.
func (s *Session) finalMessage(msg, fallback string) string {
	if s.Progress == nil {
		return ""
	}
	if msg != "" {
		return msg
	}
	return fallback
}

// display routes an informational message either through the progress
// indicator or straight to stdout.
func (s *Session) display(msg string) {
	if s.Progress != nil {
		s.Progress.UpdateText(msg)
		return
	}
	fmt.Fprintln(s.stdout(), msg)
}

// prompt suspends the progress indicator, reads one line from the
// local terminal, and resumes. This is a blocking suspension point; no
// protocol frame is handled until the user answers.
func (s *Session) prompt(message string) (string, error) {
	if s.Progress != nil {
		s.Progress.Pause()
		defer s.Progress.Resume()
	}
	if message != "" {
		fmt.Fprint(s.stdout(), message)
	}
	if s.stdinBuf == nil {
		s.stdinBuf = bufio.NewReader(s.stdin())
	}
	line, err := s.stdinBuf.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Session) stdin() io.Reader {
	if s.Stdin != nil {
		return s.Stdin
	}
	return os.Stdin
}

func (s *Session) stdout() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
