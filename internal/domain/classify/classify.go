// Package classify implements the temporal signal classifier shared by the
// geometric analyzers: stride sampling, a per-frame elliptical boundary
// decision with a soft margin, temporal majority smoothing, and score plus
// processed-frame confidence derivation.
//
// The pattern is feature-agnostic: gaze offsets and head yaw/pitch both feed
// the same Series, only the Gate thresholds change.
package classify

import (
	"math"
)

// Default classifier configuration constants.
const (
	defaultSmoothWindow = 5
	defaultSoftMargin   = 0.30
	epsilon             = 1e-6
)

// ScoreMode selects how Series derives the final ratio.
type ScoreMode string

// Supported score modes.
const (
	// ModeSoft uses the mean of per-frame soft weights (continuous).
	ModeSoft ScoreMode = "soft"
	// ModeBinary uses the smoothed in/out ratio (discrete).
	ModeBinary ScoreMode = "binary"
)

// Gate is a two-axis elliptical decision boundary with independent per-axis
// thresholds and a soft-margin shell:
//
//	d = sqrt((x/tx)^2 + (y/ty)^2)
//
// d <= 1 is fully inside; 1 < d <= 1+Margin decays linearly to zero.
type Gate struct {
	ThresholdX float64
	ThresholdY float64
	// Margin widens the boundary by a fraction of the radius; frames in the
	// shell get a graded weight instead of a hard reject.
	Margin float64
	// MinThreshold floors dynamic tightening so the gate never collapses.
	MinThreshold float64
}

// dist returns the normalized elliptical distance of (x, y) from center.
func (g Gate) dist(x, y float64) float64 {
	ex := math.Abs(x) / math.Max(epsilon, g.ThresholdX)
	ey := math.Abs(y) / math.Max(epsilon, g.ThresholdY)
	return math.Sqrt(ex*ex + ey*ey)
}

// Inside reports whether (x, y) falls within the hard boundary.
func (g Gate) Inside(x, y float64) bool {
	return g.dist(x, y) <= 1.0
}

// Weight returns the graded decision weight in [0, 1] for (x, y): 1 inside
// the ellipse, linear decay across the soft-margin shell, 0 beyond it.
func (g Gate) Weight(x, y float64) float64 {
	d := g.dist(x, y)
	if d <= 1.0 {
		return 1.0
	}
	limit := 1.0 + math.Max(0, g.Margin)
	if d <= limit {
		return (limit - d) / math.Max(epsilon, limit-1.0)
	}
	return 0.0
}

// Tighten returns a copy of the gate with both thresholds divided by ratio,
// floored at MinThreshold. Used for dynamic thresholds driven by an
// auxiliary signal (e.g. apparent asymmetry when the subject turns).
func (g Gate) Tighten(ratio float64) Gate {
	if ratio <= 1.0 {
		return g
	}
	out := g
	floor := g.MinThreshold
	out.ThresholdX = math.Max(floor, g.ThresholdX/ratio)
	out.ThresholdY = math.Max(floor, g.ThresholdY/ratio)
	return out
}

// MajorityFilter applies a centered sliding majority vote over flags to
// suppress single-frame flicker. Window sizes <= 1 leave the input unchanged.
// Even windows behave like the next smaller odd window (center +/- window/2).
func MajorityFilter(flags []bool, window int) []bool {
	if len(flags) == 0 || window <= 1 {
		return flags
	}
	k := window / 2
	out := make([]bool, len(flags))
	for i := range flags {
		lo, hi := i-k, i+k+1
		if lo < 0 {
			lo = 0
		}
		if hi > len(flags) {
			hi = len(flags)
		}
		votes := 0
		for _, v := range flags[lo:hi] {
			if v {
				votes++
			}
		}
		out[i] = votes > (hi-lo)/2
	}
	return out
}

// Sampler implements stride-based frame subsampling: Take reports true for
// every Nth call, starting with the first.
type Sampler struct {
	stride int
	idx    int
}

// NewSampler creates a sampler; strides below 1 are clamped to 1.
func NewSampler(stride int) *Sampler {
	if stride < 1 {
		stride = 1
	}
	return &Sampler{stride: stride}
}

// Take advances the sampler and reports whether the current frame should be
// processed.
func (s *Sampler) Take() bool {
	take := s.idx%s.stride == 0
	s.idx++
	return take
}

// Seen returns how many frames have passed through the sampler.
func (s *Sampler) Seen() int { return s.idx }

// Series accumulates per-frame decisions for one video and derives the final
// score and confidence.
type Series struct {
	gate   Gate
	window int
	mode   ScoreMode

	sampled   int
	usable    int
	weightSum float64
	flags     []bool
}

// NewSeries creates a series for the given gate with configuration options.
func NewSeries(gate Gate, opts ...SeriesOption) *Series {
	s := &Series{
		gate:   gate,
		window: defaultSmoothWindow,
		mode:   ModeSoft,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe records a usable frame with the default gate.
func (s *Series) Observe(x, y float64) {
	s.ObserveWith(s.gate, x, y)
}

// ObserveWith records a usable frame against a per-frame gate, allowing
// dynamic thresholds without rebuilding the series.
func (s *Series) ObserveWith(gate Gate, x, y float64) {
	s.sampled++
	s.usable++
	s.weightSum += gate.Weight(x, y)
	s.flags = append(s.flags, gate.Inside(x, y))
}

// Reject records a usable frame that fails an auxiliary check outside the
// gate (e.g. excessive asymmetry). It counts against the score but not
// against confidence.
func (s *Series) Reject() {
	s.sampled++
	s.usable++
	s.flags = append(s.flags, false)
}

// Miss records a sampled frame that yielded no usable decision (detection
// failed). It lowers confidence but contributes nothing to the score.
func (s *Series) Miss() {
	s.sampled++
}

// Usable returns the number of frames with a usable decision.
func (s *Series) Usable() int { return s.usable }

// Sampled returns the number of sampled frames, usable or not.
func (s *Series) Sampled() int { return s.sampled }

// RawRatio is the unsmoothed inside-boundary fraction.
func (s *Series) RawRatio() float64 {
	if s.usable == 0 {
		return 0
	}
	inside := 0
	for _, v := range s.flags {
		if v {
			inside++
		}
	}
	return float64(inside) / float64(s.usable)
}

// SmoothedRatio is the inside-boundary fraction after majority filtering.
func (s *Series) SmoothedRatio() float64 {
	if s.usable == 0 {
		return 0
	}
	smoothed := MajorityFilter(s.flags, s.window)
	inside := 0
	for _, v := range smoothed {
		if v {
			inside++
		}
	}
	return float64(inside) / float64(len(smoothed))
}

// SoftRatio is the mean per-frame soft weight.
func (s *Series) SoftRatio() float64 {
	if s.usable == 0 {
		return 0
	}
	return s.weightSum / float64(s.usable)
}

// Score derives the final 0..100 score according to the configured mode.
// Returns ErrNoSignal when no sampled frame yielded a usable decision.
func (s *Series) Score() (float64, error) {
	if s.usable == 0 {
		return 0, ErrNoSignal
	}
	ratio := s.SoftRatio()
	if s.mode == ModeBinary {
		ratio = s.SmoothedRatio()
	}
	return round2(ratio * 100.0), nil
}

// Confidence is the fraction of sampled frames that yielded a usable
// decision. It measures detection coverage, not decision certainty.
// ok is false when nothing was sampled.
func (s *Series) Confidence() (conf float64, ok bool) {
	if s.sampled == 0 || s.usable == 0 {
		return 0, false
	}
	return round3(math.Min(1.0, float64(s.usable)/float64(s.sampled))), true
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
