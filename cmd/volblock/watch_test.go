package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volblock/internal/adapter/output"
	"github.com/jmylchreest/volblock/internal/config"
	"github.com/jmylchreest/volblock/internal/notify"
	"github.com/jmylchreest/volblock/internal/volume"
)

func watchStatus(s volume.State) output.Status {
	return output.Status{Name: "volume", Output: volume.Render(s), Level: s.Volume, HasLevel: true}
}

func TestWatchSession_Publish(t *testing.T) {
	c := config.DefaultConfig()
	c.Output.Format = "plain"
	s, err := newWatchSession(watchCmd, c)
	require.NoError(t, err)

	statuses := make(chan output.Status, 2)
	statuses <- watchStatus(volume.State{Volume: 20})
	statuses <- watchStatus(volume.State{Volume: 70})
	close(statuses)

	var buf bytes.Buffer
	require.NoError(t, s.publish(&buf, statuses))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "20%"))
	assert.True(t, strings.HasSuffix(lines[1], "70%"))
}

// busCaller records Notify calls in place of the session bus.
type busCaller struct {
	calls int
}

func (c *busCaller) Call(string, dbus.Flags, ...interface{}) *dbus.Call {
	c.calls++
	return &dbus.Call{Body: []interface{}{uint32(c.calls)}}
}

func withFakeBus(s *watchSession) *busCaller {
	bus := &busCaller{}
	s.connect = func(timeout time.Duration, logger *slog.Logger) (*notify.Notifier, error) {
		return notify.New(bus, timeout, logger), nil
	}
	return bus
}

func TestWatchSession_ApplyReload(t *testing.T) {
	c := config.DefaultConfig()
	s, err := newWatchSession(watchCmd, c)
	require.NoError(t, err)
	withFakeBus(s)
	assert.IsType(t, &output.WaybarFormatter{}, s.formatter)
	assert.Nil(t, s.notifier)

	next := config.DefaultConfig()
	next.Output.Format = "json"
	next.Mixer.Control = "PCM"
	next.Notify.Enabled = true
	s.apply(next)

	assert.IsType(t, &output.JSONFormatter{}, s.formatter)
	assert.Equal(t, "PCM", s.block.Poller().Options().Control)
	assert.True(t, s.notifyOn)
	assert.NotNil(t, s.notifier)
}

func TestWatchSession_NotifiesAfterEnablingOnReload(t *testing.T) {
	c := config.DefaultConfig()
	c.Output.Format = "plain"
	s, err := newWatchSession(watchCmd, c)
	require.NoError(t, err)
	bus := withFakeBus(s)

	next := config.DefaultConfig()
	next.Output.Format = "plain"
	next.Notify.Enabled = true
	s.apply(next)

	statuses := make(chan output.Status, 2)
	statuses <- watchStatus(volume.State{Volume: 20})
	statuses <- watchStatus(volume.State{Volume: 70})
	close(statuses)

	var buf bytes.Buffer
	require.NoError(t, s.publish(&buf, statuses))
	assert.Equal(t, 1, bus.calls)
}

func TestWatchSession_ConnectFailureKeepsWatching(t *testing.T) {
	s, err := newWatchSession(watchCmd, config.DefaultConfig())
	require.NoError(t, err)
	s.connect = func(time.Duration, *slog.Logger) (*notify.Notifier, error) {
		return nil, errors.New("no session bus")
	}

	next := config.DefaultConfig()
	next.Notify.Enabled = true
	s.apply(next)

	assert.True(t, s.notifyOn)
	assert.Nil(t, s.notifier)
}

func TestWatchSession_ApplyKeepsI3barStream(t *testing.T) {
	c := config.DefaultConfig()
	c.Output.Format = "i3bar"
	s, err := newWatchSession(watchCmd, c)
	require.NoError(t, err)

	next := config.DefaultConfig()
	next.Output.Format = "plain"
	s.apply(next)

	assert.IsType(t, &output.I3barFormatter{}, s.formatter)
}

func TestWatchSession_RunnerOptionsFromConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.Watch.Interval = config.Duration(750 * time.Millisecond)
	c.Watch.ChangesOnly = false

	s, err := newWatchSession(watchCmd, c)
	require.NoError(t, err)

	opts := s.runnerOptions(c)
	assert.Equal(t, 750*time.Millisecond, opts.Interval)
	assert.False(t, opts.ChangesOnly)
}
