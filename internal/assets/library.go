package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/logging"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

const retryDelay = 100 * time.Millisecond

// Cache holds decoded assets for one render, keyed by reference and target
// rate. It is created by the caller and passed explicitly so renders never
// share state.
type Cache map[string]*audio.Buffer

// NewCache returns an empty per-render cache.
func NewCache() Cache {
	return make(Cache)
}

func cacheKey(ref string, sampleRate int) string {
	return fmt.Sprintf("%s@%d", ref, sampleRate)
}

// Library resolves manifest asset references to decoded, rate-converted
// stereo buffers. The library owns no storage; it reads whatever the asset
// collaborator placed in its directory.
type Library struct {
	dir     string
	retries int
	timeout time.Duration
	logger  *slog.Logger
}

// NewLibrary creates a library rooted at dir. retries bounds re-reads of a
// failing file before the error surfaces.
func NewLibrary(dir string, retries int, logger *slog.Logger) *Library {
	if retries < 1 {
		retries = 1
	}
	return &Library{dir: dir, retries: retries, logger: logging.WithComponent(logger, "assets")}
}

// SetTimeout bounds one Resolve call, retries included. Zero leaves reads
// unbounded.
func (l *Library) SetTimeout(d time.Duration) {
	l.timeout = d
}

// Resolve returns the named asset decoded and resampled to sampleRate,
// consulting and populating cache. Transient read failures are retried a
// bounded number of times with no state carried between attempts.
func (l *Library) Resolve(ctx context.Context, ref string, sampleRate int, cache Cache) (*audio.Buffer, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, services.Wrap(services.ErrAsset, "assets", "resolve", "empty asset reference", nil)
	}
	key := cacheKey(ref, sampleRate)
	if cache != nil {
		if buf, ok := cache[key]; ok {
			return buf, nil
		}
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	path, err := l.locate(ref)
	if err != nil {
		return nil, err
	}

	var buf *audio.Buffer
	var lastErr error
	for attempt := 1; attempt <= l.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, services.Wrap(services.ErrAsset, "assets", "resolve",
					fmt.Sprintf("timed out reading %q", ref), err)
			}
			return nil, services.Wrap(services.ErrCancelled, "assets", "resolve", "cancelled while reading asset", err)
		}
		buf, lastErr = audio.ReadWAV(path)
		if lastErr == nil {
			break
		}
		l.logger.Warn("asset read failed",
			logging.String("asset", ref),
			logging.Int("attempt", attempt),
			logging.Error(lastErr))
		if attempt < l.retries {
			time.Sleep(retryDelay)
		}
	}
	if lastErr != nil {
		return nil, services.Wrap(services.ErrAsset, "assets", "resolve",
			fmt.Sprintf("reading %q failed after %d attempts", ref, l.retries), lastErr)
	}

	buf, err = audio.Resample(buf, sampleRate)
	if err != nil {
		return nil, services.Wrap(services.ErrAsset, "assets", "resample", fmt.Sprintf("asset %q", ref), err)
	}
	stereo, err := buf.ToStereo()
	if err != nil {
		return nil, services.Wrap(services.ErrAsset, "assets", "widen", fmt.Sprintf("asset %q", ref), err)
	}

	if cache != nil {
		cache[key] = stereo
	}
	return stereo, nil
}

// locate maps a reference to a file path, accepting bare names and names with
// a .wav extension already attached. References must stay inside the library
// directory.
func (l *Library) locate(ref string) (string, error) {
	if !filepath.IsLocal(ref) {
		return "", services.Wrap(services.ErrAsset, "assets", "locate",
			fmt.Sprintf("asset reference %q escapes the library directory", ref), nil)
	}
	candidates := []string{ref}
	if filepath.Ext(ref) == "" {
		candidates = []string{ref + ".wav", ref}
	}
	for _, name := range candidates {
		path := filepath.Join(l.dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", services.Wrap(services.ErrAsset, "assets", "locate",
		fmt.Sprintf("asset %q not found under %s", ref, l.dir), nil)
}
