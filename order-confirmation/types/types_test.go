package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"new":        StatusNew,
		" Retry ":    StatusRetry,
		"CALLED":     StatusCalled,
		"processing": StatusProcessing,
		"Confirmed":  StatusConfirmed,
		"changed":    StatusChanged,
		"failed":     StatusFailed,
		"Unverified": Status("Unverified"),
		"":           Status(""),
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseStatus(in), "input %q", in)
	}
}

func TestStatusDialable(t *testing.T) {
	assert.True(t, StatusNew.Dialable())
	assert.True(t, StatusRetry.Dialable())
	for _, s := range []Status{StatusCalled, StatusProcessing, StatusConfirmed, StatusChanged, StatusFailed, ""} {
		assert.False(t, s.Dialable(), "status %q", s)
	}
}

func TestDecisionStatus(t *testing.T) {
	assert.Equal(t, StatusConfirmed, DecisionConfirmed.Status())
	assert.Equal(t, StatusChanged, DecisionChanged.Status())
	assert.Equal(t, StatusChanged, Decision("garbage").Status())
}

func TestCallStateTerminal(t *testing.T) {
	for _, s := range []CallState{CallCompleted, CallBusy, CallNoAnswer, CallFailed, CallCanceled, CallTimeout} {
		assert.True(t, s.Terminal(), "state %q", s)
	}
	for _, s := range []CallState{CallQueued, CallRinging, CallInProgress, ""} {
		assert.False(t, s.Terminal(), "state %q", s)
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &TransportError{Op: "fetch recording", StatusCode: 502, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "fetch recording: status 502: connection reset", err.Error())
}
