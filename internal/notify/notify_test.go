package notify

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volblock/internal/adapter/output"
	"github.com/jmylchreest/volblock/internal/volume"
)

type recordedCall struct {
	method string
	args   []interface{}
}

type fakeCaller struct {
	calls  []recordedCall
	nextID uint32
	err    error
}

func (f *fakeCaller) Call(method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	f.calls = append(f.calls, recordedCall{method: method, args: args})
	if f.err != nil {
		return &dbus.Call{Err: f.err}
	}
	f.nextID++
	return &dbus.Call{Body: []interface{}{f.nextID}}
}

func newTestNotifier(f *fakeCaller) (*Notifier, *time.Time) {
	n := New(f, 1500*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Unix(1700000000, 0)
	n.now = func() time.Time { return now }
	return n, &now
}

func statusFor(s volume.State) output.Status {
	level := s.Volume
	if s.Muted {
		level = 0
	}
	return output.Status{Name: "volume", Output: volume.Render(s), Level: level, HasLevel: true}
}

func TestNotifier_Notify(t *testing.T) {
	f := &fakeCaller{}
	n, _ := newTestNotifier(f)

	sent, err := n.Notify(statusFor(volume.State{Volume: 42}))
	require.NoError(t, err)
	assert.True(t, sent)

	require.Len(t, f.calls, 1)
	c := f.calls[0]
	assert.Equal(t, "org.freedesktop.Notifications.Notify", c.method)
	require.Len(t, c.args, 8)
	assert.Equal(t, "volblock", c.args[0])
	assert.Equal(t, uint32(0), c.args[1])
	assert.Equal(t, "volume", c.args[3])
	assert.Equal(t, string(volume.VolumeIcons[1])+" 42%", c.args[4])
	assert.Equal(t, int32(1500), c.args[7])

	hints := c.args[6].(map[string]dbus.Variant)
	assert.Equal(t, int32(42), hints["value"].Value())
	assert.Equal(t, "volblock", hints["x-canonical-private-synchronous"].Value())
	assert.Equal(t, byte(0), hints["urgency"].Value())
}

func TestNotifier_ReplacesPrevious(t *testing.T) {
	f := &fakeCaller{}
	n, _ := newTestNotifier(f)

	_, err := n.Notify(statusFor(volume.State{Volume: 10}))
	require.NoError(t, err)
	_, err = n.Notify(statusFor(volume.State{Volume: 20}))
	require.NoError(t, err)

	require.Len(t, f.calls, 2)
	assert.Equal(t, uint32(1), f.calls[1].args[1])
}

func TestNotifier_RateLimitsIdenticalBodies(t *testing.T) {
	f := &fakeCaller{}
	n, now := newTestNotifier(f)

	s := statusFor(volume.State{Volume: 30})
	sent, err := n.Notify(s)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = n.Notify(s)
	require.NoError(t, err)
	assert.False(t, sent)

	*now = now.Add(DefaultMinInterval)
	sent, err = n.Notify(s)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Len(t, f.calls, 2)
}

func TestNotifier_CallError(t *testing.T) {
	f := &fakeCaller{err: errors.New("no server")}
	n, _ := newTestNotifier(f)

	sent, err := n.Notify(statusFor(volume.State{Volume: 30}))
	assert.False(t, sent)
	assert.ErrorContains(t, err, "no server")

	// A failed send does not count towards rate limiting.
	f.err = nil
	sent, err = n.Notify(statusFor(volume.State{Volume: 30}))
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestHints(t *testing.T) {
	h := Hints(statusFor(volume.State{Volume: 1000}))
	assert.Equal(t, int32(100), h["value"].Value())

	h = Hints(statusFor(volume.State{Volume: 70, Muted: true}))
	assert.Equal(t, int32(0), h["value"].Value())

	h = Hints(output.Status{Name: "other"})
	_, ok := h["value"]
	assert.False(t, ok)
}

func TestNotifier_ErrorBody(t *testing.T) {
	f := &fakeCaller{}
	n, _ := newTestNotifier(f)

	s := statusFor(volume.State{Volume: 30})
	s.Err = errors.New("volume: couldn't parse mixer output")
	_, err := n.Notify(s)
	require.NoError(t, err)
	assert.Contains(t, f.calls[0].args[4], "couldn't parse mixer output")
}
