package sfx

import (
	"fmt"
	"strings"

	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// EstimateMarkerTime approximates when the narration reaches the marker
// phrase: the word count before the marker, proportional to the known total
// voice duration. This is a best-effort estimate, not forced alignment;
// treat the result as accurate to a few seconds at most.
func EstimateMarkerTime(script, marker string, voiceDurationS float64) (float64, error) {
	script = strings.TrimSpace(script)
	marker = strings.TrimSpace(marker)
	if script == "" {
		return 0, fmt.Errorf("narration script is empty")
	}
	if marker == "" {
		return 0, fmt.Errorf("marker text is empty")
	}
	if voiceDurationS <= 0 {
		return 0, fmt.Errorf("voice duration must be positive, got %v", voiceDurationS)
	}

	// Lowercasing can change byte lengths (Turkish dotted I and friends), so
	// the index and the word counts must come from the same folded copy.
	folded := strings.ToLower(script)
	idx := strings.Index(folded, strings.ToLower(marker))
	if idx < 0 {
		return 0, fmt.Errorf("marker %q not found in script", marker)
	}

	total := len(strings.Fields(folded))
	before := len(strings.Fields(folded[:idx]))
	return float64(before) / float64(total) * voiceDurationS, nil
}

// AlignEvents resolves marker-timed events to absolute times against the
// narration script and session bounds. Events with explicit times pass
// through unchanged; estimated times are clamped so the event still fits
// inside the session.
func AlignEvents(events []manifest.EffectEvent, script string, voiceDurationS, sessionDurationS float64) ([]manifest.EffectEvent, error) {
	out := make([]manifest.EffectEvent, len(events))
	copy(out, events)
	for i := range out {
		if out[i].Marker == "" {
			continue
		}
		estimated, err := EstimateMarkerTime(script, out[i].Marker, voiceDurationS)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "sfx", "align markers",
				fmt.Sprintf("event %d: %v", i, err), nil)
		}
		if latest := sessionDurationS - out[i].DurationS; estimated > latest {
			estimated = latest
		}
		if estimated < 0 {
			estimated = 0
		}
		out[i].TimeS = estimated
	}
	return out, nil
}
