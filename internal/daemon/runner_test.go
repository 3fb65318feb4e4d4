package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volblock/internal/adapter/output"
	"github.com/jmylchreest/volblock/internal/block"
)

// fakeBlock replays a script of texts; an empty entry fails the update.
type fakeBlock struct {
	mu      sync.Mutex
	script  []string
	updates int
	text    string
	block   chan struct{} // when non-nil, Update waits on it
}

func (b *fakeBlock) Update() error {
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	next := b.script[min(b.updates, len(b.script)-1)]
	b.updates++
	if next == "" {
		return &block.UpdateError{BlockName: "fake", Message: "bad line"}
	}
	b.text = next
	return nil
}

func (b *fakeBlock) Name() string { return "fake" }

func (b *fakeBlock) NextUpdateTime() (time.Time, bool) { return time.Time{}, false }

func (b *fakeBlock) Output() (block.Output, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return block.Output{PrimaryText: b.text, Attention: block.AttentionDim}, true
}

func (b *fakeBlock) Updates() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, ch <-chan output.Status) output.Status {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "channel closed")
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for status")
		return output.Status{}
	}
}

func startRunner(t *testing.T, r *Runner) (<-chan output.Status, context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan output.Status)
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx, out) }()
	t.Cleanup(cancel)
	return out, cancel, errCh
}

func TestRunner_InitialUpdate(t *testing.T) {
	b := &fakeBlock{script: []string{"50%"}}
	r := NewRunner(b, RunnerOptions{Interval: time.Hour}, quietLogger())

	out, _, _ := startRunner(t, r)

	s := receive(t, out)
	assert.Equal(t, "fake", s.Name)
	assert.Equal(t, "50%", s.Output.PrimaryText)
	assert.NoError(t, s.Err)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestRunner_Trigger(t *testing.T) {
	b := &fakeBlock{script: []string{"10%", "20%", "30%"}}
	r := NewRunner(b, RunnerOptions{Interval: time.Hour}, quietLogger())

	out, _, _ := startRunner(t, r)
	assert.Equal(t, "10%", receive(t, out).Output.PrimaryText)

	r.Trigger()
	assert.Equal(t, "20%", receive(t, out).Output.PrimaryText)

	r.Trigger()
	assert.Equal(t, "30%", receive(t, out).Output.PrimaryText)
}

func TestRunner_Interval(t *testing.T) {
	b := &fakeBlock{script: []string{"1", "2", "3", "4"}}
	r := NewRunner(b, RunnerOptions{Interval: 10 * time.Millisecond}, quietLogger())

	out, _, _ := startRunner(t, r)
	for _, want := range []string{"1", "2", "3", "4"} {
		assert.Equal(t, want, receive(t, out).Output.PrimaryText)
	}
}

func TestRunner_ChangesOnly(t *testing.T) {
	b := &fakeBlock{script: []string{"5%", "5%", "5%", "6%"}}
	r := NewRunner(b, RunnerOptions{Interval: 5 * time.Millisecond, ChangesOnly: true}, quietLogger())

	out, _, _ := startRunner(t, r)
	assert.Equal(t, "5%", receive(t, out).Output.PrimaryText)
	assert.Equal(t, "6%", receive(t, out).Output.PrimaryText)
	assert.GreaterOrEqual(t, b.Updates(), 4)
}

func TestRunner_ErrorKeepsLastOutput(t *testing.T) {
	b := &fakeBlock{script: []string{"40%", ""}}
	r := NewRunner(b, RunnerOptions{Interval: time.Hour, ChangesOnly: true}, quietLogger())

	out, _, _ := startRunner(t, r)
	assert.Equal(t, "40%", receive(t, out).Output.PrimaryText)

	r.Trigger()
	s := receive(t, out)
	require.Error(t, s.Err)
	var ue *block.UpdateError
	assert.True(t, errors.As(s.Err, &ue))
	assert.Equal(t, "40%", s.Output.PrimaryText)
	assert.Equal(t, "error", s.Class())
}

func TestRunner_CancelClosesOutput(t *testing.T) {
	b := &fakeBlock{script: []string{"1"}}
	r := NewRunner(b, RunnerOptions{Interval: time.Hour}, quietLogger())

	out, cancel, errCh := startRunner(t, r)
	receive(t, out)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}

	_, ok := <-out
	assert.False(t, ok)
}

func TestRunner_CancelAbandonsBlockedUpdate(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	b := &fakeBlock{script: []string{"1"}, block: release}
	r := NewRunner(b, RunnerOptions{Interval: time.Hour}, quietLogger())

	_, cancel, errCh := startRunner(t, r)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner waited for a blocked update")
	}
}

func TestRunner_SetInterval(t *testing.T) {
	b := &fakeBlock{script: []string{"a", "b"}}
	r := NewRunner(b, RunnerOptions{Interval: time.Hour}, quietLogger())

	out, _, _ := startRunner(t, r)
	assert.Equal(t, "a", receive(t, out).Output.PrimaryText)

	r.SetInterval(5 * time.Millisecond)
	r.SetInterval(10 * time.Millisecond)
	assert.Equal(t, "b", receive(t, out).Output.PrimaryText)
}
