package driver

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/console"
	"matter-go-light/internal/zcl"
	"matter-go-light/internal/zcl/clusters"
)

// newWiredDriver builds the real tree with the driver hooked in, the way
// main wires them.
func newWiredDriver(t *testing.T) (*attr.Node, *fakeLight, *console.Registry, *countHandler) {
	t.Helper()
	h := &countHandler{level: slog.LevelError}
	logger := slog.New(h)

	registry := zcl.NewRegistry(logger)
	clusters.RegisterStandard(registry)
	tree, err := attr.Build(attr.DefaultNode(DefaultLightEndpoint), registry, attr.WithLogger(logger))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	fl := &fakeLight{}
	d := New(tree, fl, Config{}, logger)
	tree.OnUpdate(d.Update)

	cmds := console.NewRegistry()
	if err := d.Init(cmds); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return tree, fl, cmds, h
}

func TestInitSyncsDefaultTree(t *testing.T) {
	_, fl, _, _ := newWiredDriver(t)

	// on/off false, level 64, hue 0, saturation 0
	want := []call{{"power", false}, {"brightness", 25}, {"hue", 0}, {"saturation", 0}}
	if len(fl.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", fl.calls, want)
	}
	for i := range want {
		if fl.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, fl.calls[i], want[i])
		}
	}
}

func TestConsoleSetPower(t *testing.T) {
	_, fl, cmds, _ := newWiredDriver(t)

	fl.calls = nil
	if err := cmds.ExecLine(io.Discard, "driver set 0x1001 0x0006 0x0000 1"); err != nil {
		t.Fatalf("set 1: %v", err)
	}
	if err := cmds.ExecLine(io.Discard, "driver set 0x1001 0x0006 0x0000 0"); err != nil {
		t.Fatalf("set 0: %v", err)
	}
	want := []call{{"power", true}, {"power", false}}
	if len(fl.calls) != 2 || fl.calls[0] != want[0] || fl.calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", fl.calls, want)
	}
}

func TestConsoleSetBrightness(t *testing.T) {
	_, fl, cmds, _ := newWiredDriver(t)

	fl.calls = nil
	if err := cmds.ExecLine(io.Discard, "driver set 0x1001 0x0008 0x0000 128"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(fl.calls) != 1 || fl.calls[0] != (call{"brightness", 50}) {
		t.Errorf("calls = %v, want brightness 50", fl.calls)
	}
}

func TestConsoleGetAfterSet(t *testing.T) {
	_, _, cmds, _ := newWiredDriver(t)

	if err := cmds.ExecLine(io.Discard, "driver set 0x1001 0x0006 0x0000 1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	var buf bytes.Buffer
	if err := cmds.ExecLine(&buf, "driver get 0x1001 0x0006 0x0000"); err != nil {
		t.Fatalf("get: %v", err)
	}
	want := "Endpoint 0x1001 Cluster 0x0006 Attribute 0x0000 is true (bool)\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestConsoleSetPeripheralFailureKeepsValue(t *testing.T) {
	tree, fl, cmds, _ := newWiredDriver(t)
	fl.err = errors.New("driver fault")

	err := cmds.ExecLine(io.Discard, "driver set 0x1001 0x0008 0x0000 200")
	if !errors.Is(err, fl.err) {
		t.Fatalf("err = %v, want peripheral error", err)
	}
	v, _ := tree.Get(level)
	if v != zcl.Uint8(64) {
		t.Errorf("level = %v after failed set, want 64", v)
	}
}

func TestConsoleMalformedLogsOnce(t *testing.T) {
	_, fl, cmds, logs := newWiredDriver(t)
	fl.calls = nil
	before := logs.count()

	err := cmds.ExecLine(io.Discard, "driver set 0x1001 0x0006")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if logs.count()-before != 1 {
		t.Errorf("logged %d lines, want 1", logs.count()-before)
	}
	if len(fl.calls) != 0 {
		t.Errorf("peripheral called: %v", fl.calls)
	}
}

func TestConsoleSetUnknownPath(t *testing.T) {
	_, _, cmds, _ := newWiredDriver(t)
	err := cmds.ExecLine(io.Discard, "driver set 0x0042 0x0006 0x0000 1")
	if !errors.Is(err, attr.ErrNotFound) {
		t.Errorf("err = %v, want attr.ErrNotFound", err)
	}
}

func TestConsoleSetTypeMismatch(t *testing.T) {
	_, _, cmds, _ := newWiredDriver(t)
	// Basic ManufacturerName is a string; the console only builds uint8.
	err := cmds.ExecLine(io.Discard, "driver set 0x0000 0x0000 0x0004 1")
	if !errors.Is(err, attr.ErrTypeMismatch) {
		t.Errorf("err = %v, want attr.ErrTypeMismatch", err)
	}
}
