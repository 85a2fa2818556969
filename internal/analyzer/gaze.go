package analyzer

import (
	"context"
	"math"
	"time"

	"github.com/podiumhq/podium/internal/domain/classify"
	"github.com/podiumhq/podium/internal/domain/metric"
)

// Gaze defaults.
const (
	defaultGazeStride         = 5
	defaultGazeThreshold      = 0.38
	defaultGazeVerticalWeight = 0.55
	defaultGazeMaxWidthRatio  = 1.6
	defaultGazeWindow         = 5
	defaultGazeMinThreshold   = 0.15
)

// EyeObservation is one eye's iris offset, normalized by half the apparent
// eye width, plus the width itself for asymmetry checks.
type EyeObservation struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Width   float64 `json:"width"`
}

// GazeFrame is one frame's worth of gaze landmarks from the face extractor.
type GazeFrame struct {
	Left         EyeObservation `json:"left"`
	Right        EyeObservation `json:"right"`
	FaceDetected bool           `json:"face_detected"`
}

// GazeSource produces per-frame gaze observations for a video. The landmark
// model behind it is an external collaborator.
type GazeSource interface {
	GazeFrames(ctx context.Context, videoPath string) ([]GazeFrame, error)
}

// GazeAnalyzer scores the fraction of time the subject looks at the camera.
// Frames pass through stride sampling, a per-frame elliptical gate on the
// iris offsets, and temporal majority smoothing. The gate tightens
// dynamically when eye-width asymmetry suggests the head is turned.
type GazeAnalyzer struct {
	source GazeSource

	stride         int
	threshold      float64
	verticalWeight float64
	maxWidthRatio  float64
	window         int
	dynamic        bool
}

// GazeOption applies a configuration option to the GazeAnalyzer.
type GazeOption func(*GazeAnalyzer)

// WithGazeStride sets the frame sampling stride.
func WithGazeStride(stride int) GazeOption {
	return func(a *GazeAnalyzer) {
		if stride > 0 {
			a.stride = stride
		}
	}
}

// WithGazeThreshold sets the forward-gaze offset threshold.
func WithGazeThreshold(threshold float64) GazeOption {
	return func(a *GazeAnalyzer) {
		if threshold > 0 {
			a.threshold = threshold
		}
	}
}

// WithGazeVerticalWeight sets how strongly vertical offsets count relative
// to horizontal ones. Values below 1 tolerate looking down more than
// sideways.
func WithGazeVerticalWeight(weight float64) GazeOption {
	return func(a *GazeAnalyzer) {
		if weight > 0 {
			a.verticalWeight = weight
		}
	}
}

// WithGazeMaxWidthRatio sets the eye-width asymmetry ceiling above which a
// frame is rejected outright.
func WithGazeMaxWidthRatio(ratio float64) GazeOption {
	return func(a *GazeAnalyzer) {
		if ratio > 1 {
			a.maxWidthRatio = ratio
		}
	}
}

// WithGazeWindow sets the majority smoothing window.
func WithGazeWindow(window int) GazeOption {
	return func(a *GazeAnalyzer) {
		if window > 0 {
			a.window = window
		}
	}
}

// WithGazeDynamicThreshold enables or disables asymmetry-driven tightening.
func WithGazeDynamicThreshold(enabled bool) GazeOption {
	return func(a *GazeAnalyzer) {
		a.dynamic = enabled
	}
}

// NewGazeAnalyzer creates a gaze analyzer over the given source.
func NewGazeAnalyzer(source GazeSource, opts ...GazeOption) *GazeAnalyzer {
	a := &GazeAnalyzer{
		source:         source,
		stride:         defaultGazeStride,
		threshold:      defaultGazeThreshold,
		verticalWeight: defaultGazeVerticalWeight,
		maxWidthRatio:  defaultGazeMaxWidthRatio,
		window:         defaultGazeWindow,
		dynamic:        true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metric returns the metric name.
func (a *GazeAnalyzer) Metric() string { return MetricEyeContact }

// NeedsQuestion reports that gaze scoring ignores the question input.
func (a *GazeAnalyzer) NeedsQuestion() bool { return false }

// gate builds the elliptical boundary: X axis at the configured threshold,
// Y axis widened by the inverse vertical weight.
func (a *GazeAnalyzer) gate() classify.Gate {
	return classify.Gate{
		ThresholdX:   a.threshold,
		ThresholdY:   a.threshold / a.verticalWeight,
		MinThreshold: defaultGazeMinThreshold,
	}
}

// merged is the weighted offset magnitude used to pick the worse eye. It
// orders eyes the same way the gate distance does.
func (a *GazeAnalyzer) merged(e EyeObservation) float64 {
	return math.Hypot(math.Abs(e.OffsetX), a.verticalWeight*math.Abs(e.OffsetY))
}

// Analyze scores eye contact across the video.
func (a *GazeAnalyzer) Analyze(ctx context.Context, videoPath, _ string) metric.Result {
	const (
		model   = "facemesh-iris"
		version = "1.0.0"
	)
	start := time.Now()

	frames, err := a.source.GazeFrames(ctx, videoPath)
	if err != nil {
		return degraded(MetricEyeContact, model, version, start, "read gaze frames: "+err.Error())
	}

	sampler := classify.NewSampler(a.stride)
	series := classify.NewSeries(a.gate(),
		classify.WithWindow(a.window),
		classify.WithMode(classify.ModeBinary))

	for _, f := range frames {
		if !sampler.Take() {
			continue
		}
		if !f.FaceDetected {
			series.Miss()
			continue
		}
		lw, rw := f.Left.Width, f.Right.Width
		if lw <= 1e-6 || rw <= 1e-6 {
			series.Reject()
			continue
		}
		widthRatio := math.Max(lw, rw) / math.Min(lw, rw)
		if widthRatio > a.maxWidthRatio {
			series.Reject()
			continue
		}

		gate := a.gate()
		if a.dynamic {
			gate = gate.Tighten(widthRatio)
		}

		// Both eyes must pass, so the worse eye decides the frame.
		worse := f.Left
		if a.merged(f.Right) > a.merged(f.Left) {
			worse = f.Right
		}
		series.ObserveWith(gate, worse.OffsetX, worse.OffsetY)
	}

	score, err := series.Score()
	if err != nil {
		return degraded(MetricEyeContact, model, version, start, "no frames processed or face not detected")
	}
	conf, _ := series.Confidence()

	return metric.Result{
		Metric:     MetricEyeContact,
		Score:      score,
		Confidence: metric.ConfPtr(conf),
		Model:      model,
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"frames_used": series.Usable(),
			"ratio":       series.SmoothedRatio(),
			"raw_ratio":   series.RawRatio(),
			"params": map[string]any{
				"frame_stride":        a.stride,
				"forward_thresh":      a.threshold,
				"vertical_weight":     a.verticalWeight,
				"max_eye_width_ratio": a.maxWidthRatio,
				"dynamic_thresh":      a.dynamic,
				"smooth_window":       a.window,
			},
		},
	}
}
