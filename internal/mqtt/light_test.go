//go:build !no_mqtt

package mqtt

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"matter-go-light/internal/light"
)

type fakeToken struct {
	timeout bool
	err     error
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.timeout {
		close(ch)
	}
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  interface{}
}

type fakeClient struct {
	msgs         []published
	token        *fakeToken
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.msgs = append(c.msgs, published{topic, retained, payload})
	if c.token != nil {
		return c.token
	}
	return &fakeToken{}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func newTestLight() (*Light, *fakeClient) {
	c := &fakeClient{}
	l := &Light{
		client:  c,
		topic:   "lights/desk",
		timeout: time.Second,
		logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}
	return l, c
}

func decodeState(t *testing.T, p published) statePayload {
	t.Helper()
	var st statePayload
	if err := json.Unmarshal(p.payload.([]byte), &st); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return st
}

func TestPublishesCumulativeState(t *testing.T) {
	l, c := newTestLight()

	l.SetPower(true)
	l.SetBrightness(50)
	l.SetHue(181)
	l.SetSaturation(100)

	if len(c.msgs) != 4 {
		t.Fatalf("published %d messages, want 4", len(c.msgs))
	}
	last := c.msgs[3]
	if last.topic != "lights/desk/set" || !last.retained {
		t.Errorf("topic = %q retained = %v", last.topic, last.retained)
	}
	want := statePayload{State: "ON", Brightness: 50, Hue: 181, Saturation: 100}
	if got := decodeState(t, last); got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
	if first := decodeState(t, c.msgs[0]); first.State != "ON" || first.Brightness != 0 {
		t.Errorf("first state = %+v", first)
	}
}

func TestPublishErrorKeepsState(t *testing.T) {
	l, c := newTestLight()
	l.SetPower(true)

	brokerErr := errors.New("not connected")
	c.token = &fakeToken{err: brokerErr}
	if err := l.SetBrightness(80); !errors.Is(err, brokerErr) {
		t.Fatalf("err = %v, want broker error", err)
	}
	if st := l.State(); st.Brightness != 0 || !st.On {
		t.Errorf("state = %+v, want brightness unchanged", st)
	}
}

func TestPublishTimeout(t *testing.T) {
	l, c := newTestLight()
	c.token = &fakeToken{timeout: true}
	if err := l.SetPower(true); !errors.Is(err, ErrPublishTimeout) {
		t.Fatalf("err = %v, want ErrPublishTimeout", err)
	}
}

func TestClosePublishesOffline(t *testing.T) {
	l, c := newTestLight()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if len(c.msgs) != 1 || c.msgs[0].topic != "lights/desk/availability" || c.msgs[0].payload != "offline" {
		t.Errorf("messages = %+v, want offline availability", c.msgs)
	}
	if !c.disconnected {
		t.Error("client not disconnected")
	}
	if err := l.SetPower(true); !errors.Is(err, light.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	l.Close()
	if len(c.msgs) != 1 {
		t.Error("second Close published again")
	}
}
