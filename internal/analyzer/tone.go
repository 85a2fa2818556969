package analyzer

import (
	"context"
	"math"
	"time"

	"github.com/podiumhq/podium/internal/domain/metric"
)

// Tone defaults.
const (
	defaultToneMinDuration = 3.0
	// Sigmoid anchors for the two variability components.
	toneF0Slope   = 0.03
	toneF0Center  = 80.0
	toneRMSSlope  = 0.5
	toneRMSCenter = 15.0
)

// ProsodyFeatures are the normalized prosody measurements for one video's
// audio track. The pitch tracker and energy extractor behind them are
// external collaborators.
type ProsodyFeatures struct {
	DurationSec float64 `json:"duration_sec"`
	F0Range     float64 `json:"f0_range"`     // robust pitch range in Hz
	RMSRange    float64 `json:"rms_range"`    // energy range
	VoicedRatio float64 `json:"voiced_ratio"` // fraction of voiced frames
}

// ProsodySource extracts prosody features from a video's audio.
type ProsodySource interface {
	Prosody(ctx context.Context, videoPath string) (ProsodyFeatures, error)
}

// ToneAnalyzer scores vocal variability: flat monotone delivery scores low,
// a lively pitch and energy range scores high. Two sigmoid components (pitch
// range, energy range) are blended 60/40.
type ToneAnalyzer struct {
	source      ProsodySource
	minDuration float64
}

// ToneOption applies a configuration option to the ToneAnalyzer.
type ToneOption func(*ToneAnalyzer)

// WithToneMinDuration sets the minimum audio duration in seconds.
func WithToneMinDuration(seconds float64) ToneOption {
	return func(a *ToneAnalyzer) {
		if seconds > 0 {
			a.minDuration = seconds
		}
	}
}

// NewToneAnalyzer creates a tone analyzer over the given prosody source.
func NewToneAnalyzer(source ProsodySource, opts ...ToneOption) *ToneAnalyzer {
	a := &ToneAnalyzer{
		source:      source,
		minDuration: defaultToneMinDuration,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metric returns the metric name.
func (a *ToneAnalyzer) Metric() string { return MetricTone }

// NeedsQuestion reports that tone scoring ignores the question input.
func (a *ToneAnalyzer) NeedsQuestion() bool { return false }

func sigmoid(x, k, x0 float64) float64 {
	return 1.0 / (1.0 + math.Exp(-k*(x-x0)))
}

// Analyze scores prosodic variability for the video's audio track.
func (a *ToneAnalyzer) Analyze(ctx context.Context, videoPath, _ string) metric.Result {
	const (
		model   = "pyin-rms"
		version = "1.0.0"
	)
	start := time.Now()

	zero := func(errs ...string) metric.Result {
		r := degraded(MetricTone, model, version, start, errs...)
		r.Confidence = metric.ConfPtr(0)
		return r
	}

	feats, err := a.source.Prosody(ctx, videoPath)
	if err != nil {
		return zero("extract audio: " + err.Error())
	}
	if feats.DurationSec < a.minDuration {
		return zero("audio_too_short")
	}
	if feats.VoicedRatio <= 0 {
		return zero("no_voiced_segments")
	}

	f0Component := sigmoid(feats.F0Range, toneF0Slope, toneF0Center)
	rmsComponent := sigmoid(feats.RMSRange*1000.0, toneRMSSlope, toneRMSCenter)
	score01 := math.Max(0, math.Min(1, 0.6*f0Component+0.4*rmsComponent))
	score := math.Round(score01*100.0*100) / 100

	conf := math.Min(1.0, 0.5*feats.VoicedRatio+0.5*math.Min(1.0, feats.DurationSec/10.0))
	conf = math.Round(conf*100) / 100

	return metric.Result{
		Metric:     MetricTone,
		Score:      score,
		Confidence: metric.ConfPtr(conf),
		Model:      model,
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"duration_sec": feats.DurationSec,
			"f0_range":     feats.F0Range,
			"rms_range":    feats.RMSRange,
			"voiced_ratio": feats.VoicedRatio,
			"components": map[string]any{
				"f0":  f0Component,
				"rms": rmsComponent,
			},
		},
	}
}
