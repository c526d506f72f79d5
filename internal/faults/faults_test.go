package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrTransient, "ntfy", "send", "", cause)

	if !errors.Is(err, ErrTransient) {
		t.Fatal("wrapped error must match its marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error must preserve the cause")
	}
	if got := err.Error(); got != "transient failure: ntfy: send: connection refused" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "webhook", "send", "", errors.New("boom"))
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker must default to transient")
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrDelivery, "discord", "send", "webhook gone", nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "delivery rejected: discord: send: webhook gone" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), true},
		{Wrap(ErrTransient, "c", "op", "", nil), true},
		{Wrap(ErrIntegration, "c", "op", "", nil), true},
		{Wrap(ErrTimeout, "c", "op", "", nil), true},
		{Wrap(ErrDelivery, "c", "op", "", nil), false},
		{fmt.Errorf("outer: %w", Wrap(ErrConfiguration, "c", "op", "", nil)), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
