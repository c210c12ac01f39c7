package stream

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeInboundDefensiveDefaults(t *testing.T) {
	in, err := decodeInbound([]byte(`{}`))
	if err != nil {
		t.Fatalf("decodeInbound({}) error: %v", err)
	}
	if in.Terminal() {
		t.Fatal("empty frame must not be terminal")
	}
	if in.status() != "" || in.message() != "" {
		t.Fatalf("empty frame decoded to status=%q message=%q", in.status(), in.message())
	}
	if in.Command != nil {
		t.Fatalf("empty frame decoded command %q", *in.Command)
	}
}

func TestDecodeInboundUnknownKeysIgnored(t *testing.T) {
	in, err := decodeInbound([]byte(`{"status":"success","progress":42,"nodes":["a","b"]}`))
	if err != nil {
		t.Fatalf("decodeInbound error: %v", err)
	}
	if !in.Terminal() || in.status() != StatusSuccess {
		t.Fatalf("frame decoded to status=%q, want success", in.status())
	}
}

func TestDecodeInboundCombinedFrame(t *testing.T) {
	raw := `{"status":"input","message":"Continue? ","job_id":"j1","command":"echo hi","command_show_stdout":true}`
	in, err := decodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("decodeInbound error: %v", err)
	}
	if in.status() != StatusInput {
		t.Errorf("status = %q, want input", in.status())
	}
	if in.message() != "Continue? " {
		t.Errorf("message = %q", in.message())
	}
	if in.JobID == nil || *in.JobID != "j1" {
		t.Errorf("job_id = %v, want j1", in.JobID)
	}
	if in.Command == nil || *in.Command != "echo hi" || !in.CommandShowStdout {
		t.Errorf("command = %v show=%v", in.Command, in.CommandShowStdout)
	}
}

func TestDecodeInboundRejectsNonJSON(t *testing.T) {
	_, err := decodeInbound([]byte("plain text"))
	if err == nil {
		t.Fatal("decodeInbound accepted non-JSON input")
	}
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T, want *ProtocolError", err)
	}
}

func TestTerminalStatuses(t *testing.T) {
	cases := map[string]bool{
		StatusSuccess: true,
		StatusError:   true,
		StatusInput:   false,
		"running":     false,
		"":            false,
	}
	for status, want := range cases {
		s := status
		in := &Inbound{Status: &s}
		if in.Terminal() != want {
			t.Errorf("Terminal(%q) = %v, want %v", status, in.Terminal(), want)
		}
	}
}

func TestCommandResultWireFormat(t *testing.T) {
	res := newCommandResult("echo hi", CommandResult{ExitCode: 2, Stdout: "hi\n", Stderr: "bad\n"})
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != "command_result" {
		t.Errorf("type = %v", got["type"])
	}
	if got["command"] != "echo hi" {
		t.Errorf("command = %v", got["command"])
	}
	if got["exit_code"] != float64(2) {
		t.Errorf("exit_code = %v", got["exit_code"])
	}
	if got["command_stdout"] != "hi\n" || got["command_stderr"] != "bad\n" {
		t.Errorf("stdout/stderr = %v / %v", got["command_stdout"], got["command_stderr"])
	}
}

func TestAuthFrame(t *testing.T) {
	data, err := json.Marshal(authFrame("tpk-123"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"TENSORPOOL_KEY":"tpk-123"}`
	if string(data) != want {
		t.Fatalf("auth frame = %s, want %s", data, want)
	}
}
