package mastering

import (
	"fmt"
	"math"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// biquad is a direct-form-II-transposed second-order section.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func (f *biquad) processInPlace(data []float64) {
	for i, x := range data {
		y := f.b0*x + f.z1
		f.z1 = f.b1*x - f.a1*y + f.z2
		f.z2 = f.b2*x - f.a2*y
		data[i] = y
	}
}

// newEQBiquad builds a filter section from a manifest EQ band using the
// Audio EQ Cookbook (RBJ) formulas.
func newEQBiquad(band manifest.EQBand, sampleRate int) (biquad, error) {
	if band.FreqHz <= 0 || band.FreqHz >= float64(sampleRate)/2 {
		return biquad{}, services.Wrap(services.ErrValidation, "mastering", "build eq",
			fmt.Sprintf("band frequency %.1f Hz outside (0, Nyquist)", band.FreqHz), nil)
	}
	q := band.Q
	if q <= 0 {
		q = 0.7071
	}

	w0 := 2 * math.Pi * band.FreqHz / float64(sampleRate)
	cosw := math.Cos(w0)
	sinw := math.Sin(w0)
	alpha := sinw / (2 * q)
	amp := math.Pow(10, band.GainDB/40)

	var b0, b1, b2, a0, a1, a2 float64
	switch band.Type {
	case "low_shelf":
		sq := 2 * math.Sqrt(amp) * alpha
		b0 = amp * ((amp + 1) - (amp-1)*cosw + sq)
		b1 = 2 * amp * ((amp - 1) - (amp+1)*cosw)
		b2 = amp * ((amp + 1) - (amp-1)*cosw - sq)
		a0 = (amp + 1) + (amp-1)*cosw + sq
		a1 = -2 * ((amp - 1) + (amp+1)*cosw)
		a2 = (amp + 1) + (amp-1)*cosw - sq
	case "high_shelf":
		sq := 2 * math.Sqrt(amp) * alpha
		b0 = amp * ((amp + 1) + (amp-1)*cosw + sq)
		b1 = -2 * amp * ((amp - 1) + (amp+1)*cosw)
		b2 = amp * ((amp + 1) + (amp-1)*cosw - sq)
		a0 = (amp + 1) - (amp-1)*cosw + sq
		a1 = 2 * ((amp - 1) - (amp+1)*cosw)
		a2 = (amp + 1) - (amp-1)*cosw - sq
	case "peak":
		b0 = 1 + alpha*amp
		b1 = -2 * cosw
		b2 = 1 - alpha*amp
		a0 = 1 + alpha/amp
		a1 = -2 * cosw
		a2 = 1 - alpha/amp
	default:
		return biquad{}, services.Wrap(services.ErrValidation, "mastering", "build eq",
			fmt.Sprintf("unknown eq band type %q", band.Type), nil)
	}

	return biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}, nil
}

// applyEQ runs every configured band over every channel in order. Each
// channel gets its own filter state.
func applyEQ(buf *audio.Buffer, bands []manifest.EQBand) error {
	for _, band := range bands {
		for _, data := range buf.Samples {
			f, err := newEQBiquad(band, buf.SampleRate)
			if err != nil {
				return err
			}
			f.processInPlace(data)
		}
	}
	return nil
}
