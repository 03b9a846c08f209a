package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cases := []struct {
		name   string
		marker error
	}{
		{"schedule", services.ErrSchedule},
		{"asset", services.ErrAsset},
		{"sample rate", services.ErrSampleRateMismatch},
		{"clipping", services.ErrClipping},
		{"loudness", services.ErrLoudness},
		{"cancelled", services.ErrCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := services.Wrap(tc.marker, "mix", "sum stems", "boom", nil)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("errors.Is failed for %v", tc.marker)
			}
			if errors.Is(err, services.ErrValidation) {
				t.Fatal("error matched an unrelated marker")
			}
		})
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "assets", "read sample", "device hiccup", fmt.Errorf("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("nil marker should default to ErrTransient")
	}
	if !services.Retryable(err) {
		t.Fatal("transient errors should be retryable")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("underlying")
	err := services.Wrap(services.ErrAsset, "assets", "decode", "corrupt header", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause lost from chain")
	}
	if !strings.Contains(err.Error(), "assets: decode: corrupt header") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapMeasuredCarriesValues(t *testing.T) {
	err := services.WrapMeasured(services.ErrLoudness, "mastering", "verify", "loudness drifted", -12.3, -14)
	details := services.Details(err)
	if !details.HasValues {
		t.Fatal("expected measured values")
	}
	if details.Measured != -12.3 || details.Expected != -14 {
		t.Fatalf("values lost: %+v", details)
	}
	if !strings.Contains(err.Error(), "measured -12.30") {
		t.Fatalf("message missing measured value: %q", err.Error())
	}
}

func TestDetailsFallbackForPlainErrors(t *testing.T) {
	details := services.Details(errors.New("plain"))
	if details.Message != "plain" {
		t.Fatalf("unexpected fallback: %+v", details)
	}
}

func TestRetryableExcludesValidationClasses(t *testing.T) {
	for _, err := range []error{
		services.Wrap(services.ErrSchedule, "schedule", "resolve", "overlap", nil),
		services.Wrap(services.ErrLoudness, "mastering", "measure", "silence", nil),
		services.Wrap(services.ErrCancelled, "pipeline", "boundary", "cancelled", nil),
	} {
		if services.Retryable(err) {
			t.Errorf("%v should not be retryable", err)
		}
	}
}
