package mastering

import (
	"github.com/randysalars/dreamweaving-sub000/internal/audio"
)

// truePeakOversample follows BS.1770-4 Annex 2, which specifies measuring
// inter-sample peaks on a 4x oversampled signal.
const truePeakOversample = 4

// TruePeak estimates the inter-sample peak of the program in dBTP by
// resampling to four times the original rate with windowed-sinc
// interpolation and measuring the larger of the oversampled and original
// sample peaks.
func TruePeak(buf *audio.Buffer) (float64, error) {
	samplePeak := buf.Peak()
	over, err := audio.Resample(buf, buf.SampleRate*truePeakOversample)
	if err != nil {
		return 0, err
	}
	peak := over.Peak()
	if samplePeak > peak {
		peak = samplePeak
	}
	return audio.LinearToDB(peak), nil
}
