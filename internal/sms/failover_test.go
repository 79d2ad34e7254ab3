package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name  string
	err   error
	calls int
	last  string
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(ctx context.Context, to, body string) error {
	f.calls++
	f.last = to
	return f.err
}

func TestFailoverPrimarySucceeds(t *testing.T) {
	primary := &fakeSender{name: "arkesel"}
	secondary := &fakeSender{name: "twilio"}
	f := NewFailover(primary, secondary, nil)

	provider, err := f.Send(context.Background(), "0244123456", "hello")
	require.NoError(t, err)
	assert.Equal(t, "arkesel", provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls, "secondary must not be attempted when primary succeeds")
}

func TestFailoverFallsBackToSecondary(t *testing.T) {
	primary := &fakeSender{name: "arkesel", err: errors.New("gateway down")}
	secondary := &fakeSender{name: "twilio"}
	f := NewFailover(primary, secondary, nil)

	provider, err := f.Send(context.Background(), "0244123456", "hello")
	require.NoError(t, err)
	assert.Equal(t, "twilio", provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFailoverBothFail(t *testing.T) {
	primary := &fakeSender{name: "arkesel", err: errors.New("gateway down")}
	secondary := &fakeSender{name: "twilio", err: errors.New("unreachable")}
	f := NewFailover(primary, secondary, nil)

	provider, err := f.Send(context.Background(), "0244123456", "hello")
	require.Error(t, err)
	assert.Equal(t, "twilio", provider, "result names the provider tried last")
}

func TestFailoverNoSecondary(t *testing.T) {
	primary := &fakeSender{name: "arkesel", err: errors.New("gateway down")}
	f := NewFailover(primary, nil, nil)

	provider, err := f.Send(context.Background(), "0244123456", "hello")
	require.Error(t, err)
	assert.Equal(t, "arkesel", provider)
}

func TestFailoverUnconfigured(t *testing.T) {
	var f *Failover
	_, err := f.Send(context.Background(), "0244123456", "hello")
	require.Error(t, err)
}
