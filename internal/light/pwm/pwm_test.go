package pwm

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	rpio "github.com/stianeikeland/go-rpio/v4"

	"matter-go-light/internal/light"
)

type fakePin struct {
	mode  rpio.Mode
	freq  int
	duty  uint32
	cycle uint32
}

func (p *fakePin) Mode(m rpio.Mode)      { p.mode = m }
func (p *fakePin) Freq(f int)            { p.freq = f }
func (p *fakePin) DutyCycle(d, c uint32) { p.duty, p.cycle = d, c }

func newTestLight(t *testing.T) (*Light, [3]*fakePin, *int) {
	t.Helper()
	fp := [3]*fakePin{{}, {}, {}}
	released := 0
	l := newLight([3]pin{fp[0], fp[1], fp[2]}, 64000, func() error { released++; return nil },
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	return l, fp, &released
}

func duties(fp [3]*fakePin) [3]uint32 {
	return [3]uint32{fp[0].duty, fp[1].duty, fp[2].duty}
}

func TestNewConfiguresPins(t *testing.T) {
	_, fp, _ := newTestLight(t)
	for i, p := range fp {
		if p.mode != rpio.Pwm {
			t.Errorf("pin %d mode = %v, want Pwm", i, p.mode)
		}
		if p.freq != 64000 {
			t.Errorf("pin %d freq = %d, want 64000", i, p.freq)
		}
		if p.cycle != cycleLen || p.duty != 0 {
			t.Errorf("pin %d duty = %d/%d, want 0/%d", i, p.duty, p.cycle, cycleLen)
		}
	}
}

func TestDutyFollowsState(t *testing.T) {
	l, fp, _ := newTestLight(t)

	l.SetBrightness(100)
	l.SetSaturation(100)
	l.SetHue(120)
	if got := duties(fp); got != [3]uint32{0, 0, 0} {
		t.Errorf("duty while off = %v, want zeros", got)
	}

	l.SetPower(true)
	if got := duties(fp); got != [3]uint32{0, 255, 0} {
		t.Errorf("duty = %v, want green", got)
	}

	l.SetSaturation(0)
	if got := duties(fp); got != [3]uint32{255, 255, 255} {
		t.Errorf("duty = %v, want white", got)
	}

	l.SetPower(false)
	if got := duties(fp); got != [3]uint32{0, 0, 0} {
		t.Errorf("duty after off = %v, want zeros", got)
	}
	if st := l.State(); st != (light.State{On: false, Brightness: 100, Hue: 120, Saturation: 0}) {
		t.Errorf("state = %+v", st)
	}
}

func TestClose(t *testing.T) {
	l, fp, released := newTestLight(t)
	l.SetBrightness(100)
	l.SetPower(true)

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if *released != 1 {
		t.Errorf("released %d times, want 1", *released)
	}
	if got := duties(fp); got != [3]uint32{0, 0, 0} {
		t.Errorf("duty after close = %v, want zeros", got)
	}
	if err := l.SetPower(true); !errors.Is(err, light.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
