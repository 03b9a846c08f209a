package assets_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/assets"
	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/logging"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

func writeTestTone(t *testing.T, dir, name string, sampleRate, frames int) {
	t.Helper()
	buf := audio.NewBuffer(sampleRate, 1, frames)
	for i := range buf.Samples[0] {
		buf.Samples[0][i] = 0.4 * math.Sin(2*math.Pi*330*float64(i)/float64(sampleRate))
	}
	if err := audio.WriteWAV(filepath.Join(dir, name), buf); err != nil {
		t.Fatalf("write asset: %v", err)
	}
}

func TestResolveDecodesAndWidens(t *testing.T) {
	dir := t.TempDir()
	writeTestTone(t, dir, "chime.wav", 48000, 4800)

	lib := assets.NewLibrary(dir, 3, logging.NewNop())
	buf, err := lib.Resolve(context.Background(), "chime", 48000, assets.NewCache())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if buf.SampleRate != 48000 {
		t.Errorf("sample rate: %d", buf.SampleRate)
	}
	if buf.Channels() != 2 {
		t.Errorf("mono asset should widen to stereo, got %d channels", buf.Channels())
	}
}

func TestResolveResamplesToProjectRate(t *testing.T) {
	dir := t.TempDir()
	writeTestTone(t, dir, "bell.wav", 44100, 44100)

	lib := assets.NewLibrary(dir, 3, logging.NewNop())
	buf, err := lib.Resolve(context.Background(), "bell", 48000, assets.NewCache())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if buf.SampleRate != 48000 {
		t.Errorf("resample not applied: %d", buf.SampleRate)
	}
	frames := buf.Frames()
	if frames < 47000 || frames > 49000 {
		t.Errorf("resampled length suspicious: %d", frames)
	}
}

func TestResolveCacheHitReturnsSameBuffer(t *testing.T) {
	dir := t.TempDir()
	writeTestTone(t, dir, "chime.wav", 48000, 480)

	lib := assets.NewLibrary(dir, 3, logging.NewNop())
	cache := assets.NewCache()
	first, err := lib.Resolve(context.Background(), "chime", 48000, cache)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := lib.Resolve(context.Background(), "chime", 48000, cache)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first != second {
		t.Error("cache should return the decoded buffer without re-reading")
	}
}

func TestResolveMissingAsset(t *testing.T) {
	lib := assets.NewLibrary(t.TempDir(), 2, logging.NewNop())
	_, err := lib.Resolve(context.Background(), "ghost", 48000, assets.NewCache())
	if !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
}

func TestResolveRejectsEscapingRef(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(base, "secret.wav")
	dir := filepath.Join(base, "library")
	writeTestTone(t, base, "secret.wav", 48000, 480)

	lib := assets.NewLibrary(dir, 2, logging.NewNop())
	for _, ref := range []string{"../secret", "../secret.wav", "/etc/passwd", ".."} {
		if _, err := lib.Resolve(context.Background(), ref, 48000, assets.NewCache()); !errors.Is(err, services.ErrAsset) {
			t.Errorf("ref %q: expected asset error, got %v", ref, err)
		}
	}
	if _, err := audio.ReadWAV(outside); err != nil {
		t.Fatalf("fixture outside the library should still exist: %v", err)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeTestTone(t, dir, "chime.wav", 48000, 480)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lib := assets.NewLibrary(dir, 3, logging.NewNop())
	_, err := lib.Resolve(ctx, "chime", 48000, assets.NewCache())
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
