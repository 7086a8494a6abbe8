package alert

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAlerter struct {
	mu   sync.Mutex
	sent []Alert
	err  error
}

func (r *recordingAlerter) Send(_ context.Context, a Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, a)
	return nil
}

func (r *recordingAlerter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestMultiAlerter_CooldownSuppressesDuplicates(t *testing.T) {
	t.Parallel()

	rec := &recordingAlerter{}
	m := NewMultiAlerter(time.Hour, slog.Default(), rec)
	a := Alert{Type: AlertTypeSourceDown, Component: "oracle", Title: "oracle unreachable"}

	require.NoError(t, m.Send(context.Background(), a))
	require.NoError(t, m.Send(context.Background(), a))
	assert.Equal(t, 1, rec.count())
}

func TestMultiAlerter_DistinctKeysAreNotSuppressed(t *testing.T) {
	t.Parallel()

	rec := &recordingAlerter{}
	m := NewMultiAlerter(time.Hour, slog.Default(), rec)

	require.NoError(t, m.Send(context.Background(), Alert{Type: AlertTypeSourceDown, Component: "oracle"}))
	require.NoError(t, m.Send(context.Background(), Alert{Type: AlertTypeSourceDown, Component: "fx"}))
	require.NoError(t, m.Send(context.Background(), Alert{Type: AlertTypeBreakerOpen, Component: "oracle"}))
	assert.Equal(t, 3, rec.count())
}

func TestMultiAlerter_FanOutContinuesPastFailures(t *testing.T) {
	t.Parallel()

	failing := &recordingAlerter{err: errors.New("channel down")}
	working := &recordingAlerter{}
	m := NewMultiAlerter(time.Hour, slog.Default(), failing, working)

	err := m.Send(context.Background(), Alert{Type: AlertTypeInvariant, Component: "engine"})
	assert.Error(t, err, "first channel error is reported")
	assert.Equal(t, 1, working.count(), "second channel still receives the alert")
}
