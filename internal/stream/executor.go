package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// drainGrace bounds how long we wait for the reader goroutines to
// finish after the child exits, so a wedged pipe cannot hang the
// session. Output produced before exit is always captured.
const drainGrace = time.Second

// CommandResult is the outcome of one locally-run remote-dispatched
// command. It is built once per inbound command frame and sent
// straight back to the engine, never persisted.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// executor runs remote-dispatched shell commands on the local machine.
// The zero value writes mirrored output to os.Stdout/os.Stderr.
type executor struct {
	stdout io.Writer
	stderr io.Writer
}

func (e *executor) out() io.Writer {
	if e.stdout != nil {
		return e.stdout
	}
	return os.Stdout
}

func (e *executor) errOut() io.Writer {
	if e.stderr != nil {
		return e.stderr
	}
	return os.Stderr
}

// run executes command through the local shell with stdin disconnected
// (a remote-dispatched command must never block on local interactive
// input). Stdout and stderr are drained concurrently, line by line, to
// avoid pipe back-pressure deadlock when both streams are large. When
// mirror is set each line is written through to the local stream as it
// arrives. Spawn failures are reported as exit code 1 with the error
// text as stderr; they are results for the engine, never errors for
// the session.
func (e *executor) run(command string, mirror bool) CommandResult {
	cmd := exec.Command("sh", "-c", command)
	// Force unbuffered output from Python children so mirrored lines
	// show up as the remote job script produces them.
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Stdin = nil

	// Explicit pipe pairs rather than StdoutPipe: Wait must not close
	// the read ends out from under the reader goroutines.
	outR, outW, err := os.Pipe()
	if err != nil {
		return spawnFailure(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return spawnFailure(err)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		return spawnFailure(err)
	}
	// The child holds its own copies of the write ends.
	outW.Close()
	errW.Close()

	var stdout, stderr lineSink
	var wg sync.WaitGroup
	wg.Add(2)
	go drainLines(&wg, outR, &stdout, mirror, e.out())
	go drainLines(&wg, errR, &stderr, mirror, e.errOut())

	exitCode := exitCodeFromError(cmd.Wait())

	// The readers see EOF once the child (and anything it spawned)
	// drops the write ends. Give them a bounded window to finish, then
	// unstick them by closing the read ends.
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainGrace):
	}
	outR.Close()
	errR.Close()

	res := CommandResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	// Without live mirroring a failure would otherwise be invisible
	// locally, so print the captured output once.
	if exitCode != 0 && !mirror {
		if res.Stderr != "" {
			fmt.Fprintf(e.errOut(), "Command error: %s\n", res.Stderr)
		}
		if res.Stdout != "" {
			fmt.Fprintf(e.out(), "Command output: %s\n", res.Stdout)
		}
	}
	return res
}

// RunLocal executes one engine-dispatched command outside a session,
// with the same shell, environment and drain behavior as commands
// received over a connection.
func RunLocal(command string, mirror bool) CommandResult {
	var e executor
	return e.run(command, mirror)
}

func spawnFailure(err error) CommandResult {
	return CommandResult{ExitCode: 1, Stderr: err.Error()}
}

// lineSink accumulates captured output. The mutex matters only when
// the drain grace period expires and the result is read while a
// reader goroutine is still alive.
type lineSink struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *lineSink) append(line string) {
	s.mu.Lock()
	s.b.WriteString(line)
	s.mu.Unlock()
}

func (s *lineSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// drainLines accumulates one stream, optionally mirroring each line to
// the local terminal as it is read. ReadString keeps the trailing
// newline, so a final unterminated line is still captured at EOF.
func drainLines(wg *sync.WaitGroup, pipe io.Reader, sink *lineSink, mirror bool, local io.Writer) {
	defer wg.Done()
	reader := bufio.NewReader(pipe)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			sink.append(line)
			if mirror {
				io.WriteString(local, line)
			}
		}
		if err != nil {
			return
		}
	}
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
