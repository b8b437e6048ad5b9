package ipc

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nathan.sock")

	got := make(chan ControlMessage, 1)
	srv, err := Listen(path, func(m ControlMessage) { got <- m })
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()

	if err := SendCommand(path, CmdReset); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-got:
		if m.Cmd != CmdReset || m.From != "ctl" {
			t.Errorf("message = %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	if err := SendCommand(path, CmdTrigger); err == nil {
		t.Error("send succeeded after shutdown")
	}
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		line    string
		cmd     string
		wantErr bool
	}{
		{line: "nathan:trigger:turn:panel", cmd: CmdTrigger},
		{line: "ALL:RESET:HISTORY:panel", cmd: CmdReset},
		{line: "nathan:SET:MODE:quiet:panel"},
		{line: "nathan:trigger:panel", wantErr: true},
		{line: "nathan:say hi:turn:panel", wantErr: true},
		{line: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f, err := ParseFrame(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !f.For("nathan") {
				t.Errorf("frame %s not for nathan", f)
			}
			msg, ok := f.Control()
			if ok != (tt.cmd != "") || msg.Cmd != tt.cmd {
				t.Errorf("control = %+v, %v", msg, ok)
			}
			if ok && msg.From != "panel" {
				t.Errorf("from = %q", msg.From)
			}
		})
	}
}

func TestFrameString(t *testing.T) {
	f := Frame{To: "hub", Verb: "STATUS", Noun: "LISTENING", Args: []string{"a1"}, From: "nathan"}
	if got := f.String(); got != "hub:STATUS:LISTENING:a1:nathan" {
		t.Errorf("String() = %q", got)
	}
}
