// Package ui holds the terminal-facing helpers: the progress spinner
// and the prompt functions that respect --no-input.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// frames reuses the braille frame set and cadence from
// bubbles/spinner rather than hand-picking glyphs.
var frames = spinner.MiniDot

// Spinner is a single-line progress indicator. Start launches a
// background redraw goroutine; Pause/Resume bracket blocking terminal
// reads so a prompt is never interleaved with redraws. On a
// non-terminal stream it degrades to printing each text once.
type Spinner struct {
	mu     sync.Mutex
	text   string
	out    io.Writer
	isTTY  bool
	active bool
	stop   chan struct{}
	done   chan struct{}
}

// NewSpinner writes to stdout.
func NewSpinner(text string) *Spinner {
	return &Spinner{
		text:  text,
		out:   os.Stdout,
		isTTY: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Start begins redrawing. On a non-TTY it prints the text once
// instead.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isTTY {
		fmt.Fprintf(s.out, "* %s\n", s.text)
		return
	}
	s.startLocked()
}

func (s *Spinner) startLocked() {
	if s.active {
		return
	}
	s.active = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.spin(s.stop, s.done)
}

func (s *Spinner) spin(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(frames.FPS)
	defer ticker.Stop()
	for i := 0; ; i++ {
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r%s %s", frames.Frames[i%len(frames.Frames)], s.text)
		s.mu.Unlock()
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop halts redrawing and erases the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.eraseLine()
	s.mu.Unlock()
}

// Pause hides the spinner so the terminal is free for a prompt.
func (s *Spinner) Pause() {
	s.Stop()
}

// Resume restarts redrawing after a Pause.
func (s *Spinner) Resume() {
	if !s.isTTY {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

// UpdateText swaps the spinner's line. On a non-TTY each new text
// prints on its own line so nothing is lost.
func (s *Spinner) UpdateText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isTTY {
		if text != s.text {
			fmt.Fprintf(s.out, "* %s\n", text)
			s.text = text
		}
		return
	}
	if runewidth.StringWidth(text) < runewidth.StringWidth(s.text) {
		s.eraseLine()
	}
	s.text = text
}

// eraseLine blanks the rendered cells, not the bytes: the text may be
// multibyte or double-width, and the frame glyph takes one cell.
func (s *Spinner) eraseLine() {
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", runewidth.StringWidth(s.text)+2))
}
