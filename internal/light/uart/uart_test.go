package uart

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"matter-go-light/internal/light"
)

// fakePort answers every written line with the next scripted reply.
type fakePort struct {
	written bytes.Buffer
	replies []string
	pending []byte
	closed  bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.written.Write(b)
	if len(p.replies) > 0 {
		p.pending = append(p.pending, p.replies[0]...)
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		time.Sleep(time.Millisecond) // serial read timeout: 0 bytes, nil error
		return 0, nil
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func newTestLight(t *testing.T, replies ...string) (*Light, *fakePort) {
	t.Helper()
	p := &fakePort{replies: replies}
	l, err := newLight(p, 50*time.Millisecond,
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		t.Fatal(err)
	}
	return l, p
}

func TestCommands(t *testing.T) {
	l, p := newTestLight(t, "OK\r\n", "OK\n", "OK\n", "OK\n", "OK\n")

	steps := []func() error{
		func() error { return l.SetPower(true) },
		func() error { return l.SetBrightness(50) },
		func() error { return l.SetHue(181) },
		func() error { return l.SetSaturation(100) },
		func() error { return l.SetPower(false) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	want := "POWER 1\nLEVEL 50\nHUE 181\nSAT 100\nPOWER 0\n"
	if p.written.String() != want {
		t.Errorf("written = %q, want %q", p.written.String(), want)
	}
	if st := l.State(); st != (light.State{Brightness: 50, Hue: 181, Saturation: 100}) {
		t.Errorf("state = %+v", st)
	}
}

func TestErrorReply(t *testing.T) {
	l, _ := newTestLight(t, "ERR overheated\n")
	err := l.SetBrightness(100)
	if err == nil || !strings.Contains(err.Error(), "overheated") {
		t.Fatalf("err = %v, want rejection with message", err)
	}
	if st := l.State(); st.Brightness != 0 {
		t.Errorf("brightness = %d after rejection, want 0", st.Brightness)
	}
}

func TestUnexpectedReply(t *testing.T) {
	l, _ := newTestLight(t, "WHAT\n")
	if err := l.SetHue(10); err == nil {
		t.Fatal("expected error for unexpected reply")
	}
}

func TestReplyTimeout(t *testing.T) {
	l, _ := newTestLight(t)
	err := l.SetPower(true)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestSplitReplies(t *testing.T) {
	// Both replies arrive with the first write, split across reads.
	l, p := newTestLight(t, "\nOK\nO", "K\n")
	if err := l.SetPower(true); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := l.SetPower(false); err != nil {
		t.Fatalf("second: %v", err)
	}
	if p.written.String() != "POWER 1\nPOWER 0\n" {
		t.Errorf("written = %q", p.written.String())
	}
}

func TestClosed(t *testing.T) {
	l, p := newTestLight(t)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if !p.closed {
		t.Error("port not closed")
	}
	if err := l.SetPower(true); !errors.Is(err, light.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
