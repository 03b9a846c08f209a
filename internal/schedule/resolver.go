package schedule

import (
	"fmt"
	"math"
	"sort"

	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// GapPolicy decides how timeline spans not covered by any section behave.
type GapPolicy int

const (
	// GapError rejects any uncovered span.
	GapError GapPolicy = iota
	// GapHold carries the previous section's ending offset through the gap.
	// A gap before the first section holds that section's starting offset.
	GapHold
)

// GapPolicyFromString maps the config/manifest spelling to a GapPolicy.
func GapPolicyFromString(s string) (GapPolicy, error) {
	switch s {
	case "", "error":
		return GapError, nil
	case "hold":
		return GapHold, nil
	default:
		return GapError, fmt.Errorf("unknown gap policy %q", s)
	}
}

// OffsetFunc reports the beat-offset frequency in Hz at an arbitrary session
// time. It is pure and may be queried off sample boundaries.
type OffsetFunc func(t float64) float64

// section is a validated, fully-resolved schedule entry.
type section struct {
	start, end float64
	v0, v1     float64
	eval       transitionFunc
	mod        *manifest.Modulation
}

// Resolve validates the schedule against the session duration and returns a
// continuous offset function. Sections must be sorted and non-overlapping;
// coverage gaps are rejected or held according to policy.
func Resolve(sections []manifest.FrequencySection, duration float64, policy GapPolicy) (OffsetFunc, error) {
	if duration <= 0 {
		return nil, scheduleErr(fmt.Sprintf("session duration must be positive, got %v", duration))
	}
	if len(sections) == 0 {
		return nil, scheduleErr("schedule has no sections")
	}
	if !sort.SliceIsSorted(sections, func(i, j int) bool {
		return sections[i].StartS < sections[j].StartS
	}) {
		return nil, scheduleErr("sections are not sorted by start time")
	}

	resolved := make([]section, 0, len(sections))
	for i, s := range sections {
		if s.EndS <= s.StartS {
			return nil, scheduleErr(fmt.Sprintf("section %d: end %v not after start %v", i, s.EndS, s.StartS))
		}
		if i > 0 && s.StartS < sections[i-1].EndS {
			return nil, scheduleErr(fmt.Sprintf(
				"section %d overlaps section %d: starts at %v before previous end %v",
				i, i-1, s.StartS, sections[i-1].EndS))
		}
		eval, ok := transitions[s.Transition]
		if !ok {
			return nil, scheduleErr(fmt.Sprintf("section %d: unknown transition %q", i, s.Transition))
		}
		resolved = append(resolved, section{
			start: s.StartS,
			end:   s.EndS,
			v0:    s.OffsetHz,
			v1:    s.EndOffset(),
			eval:  eval,
			mod:   s.Modulation,
		})
	}

	if policy == GapError {
		if first := resolved[0].start; first > 0 {
			return nil, scheduleErr(fmt.Sprintf("timeline gap: nothing covers [0, %v)", first))
		}
		for i := 1; i < len(resolved); i++ {
			if resolved[i].start > resolved[i-1].end {
				return nil, scheduleErr(fmt.Sprintf(
					"timeline gap: nothing covers [%v, %v)", resolved[i-1].end, resolved[i].start))
			}
		}
		if last := resolved[len(resolved)-1].end; last < duration {
			return nil, scheduleErr(fmt.Sprintf("timeline gap: nothing covers [%v, %v)", last, duration))
		}
	}

	return func(t float64) float64 {
		return offsetAt(resolved, t)
	}, nil
}

func offsetAt(resolved []section, t float64) float64 {
	// Before the first section: hold its starting value.
	if t < resolved[0].start {
		return resolved[0].v0
	}

	idx := sort.Search(len(resolved), func(i int) bool {
		return resolved[i].start > t
	}) - 1

	s := resolved[idx]
	if t < s.end {
		base := s.eval(s.start, s.end, s.v0, s.v1, t)
		if s.mod != nil {
			base += s.mod.DepthHz * math.Sin(2*math.Pi*s.mod.RateHz*t)
		}
		return base
	}
	// In a gap after this section, or past the schedule end: hold the value
	// the section arrived at.
	return s.v1
}

func scheduleErr(message string) error {
	return services.Wrap(services.ErrSchedule, "schedule", "resolve", message, nil)
}
