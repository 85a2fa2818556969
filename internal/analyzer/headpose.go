package analyzer

import (
	"context"
	"time"

	"github.com/podiumhq/podium/internal/domain/classify"
	"github.com/podiumhq/podium/internal/domain/metric"
)

// Head pose defaults.
const (
	defaultPoseStride      = 3
	defaultPoseYawThresh   = 16.0
	defaultPosePitchThresh = 30.0
	defaultPoseSoftMargin  = 0.30
	defaultPoseWindow      = 7
)

// PoseFrame is one frame's head orientation in degrees from the pose
// estimator.
type PoseFrame struct {
	Yaw          float64 `json:"yaw"`
	Pitch        float64 `json:"pitch"`
	Roll         float64 `json:"roll"`
	FaceDetected bool    `json:"face_detected"`
}

// PoseSource produces per-frame head orientations for a video.
type PoseSource interface {
	PoseFrames(ctx context.Context, videoPath string) ([]PoseFrame, error)
}

// HeadPoseAnalyzer scores the fraction of time the head faces the camera.
// "Forward" is an elliptical gate over yaw and pitch with a soft-margin
// shell; the default soft mode uses graded per-frame weights, binary mode
// uses the smoothed in/out ratio.
type HeadPoseAnalyzer struct {
	source PoseSource

	stride      int
	yawThresh   float64
	pitchThresh float64
	yawBias     float64
	pitchBias   float64
	softMargin  float64
	window      int
	mode        classify.ScoreMode
}

// PoseOption applies a configuration option to the HeadPoseAnalyzer.
type PoseOption func(*HeadPoseAnalyzer)

// WithPoseStride sets the frame sampling stride.
func WithPoseStride(stride int) PoseOption {
	return func(a *HeadPoseAnalyzer) {
		if stride > 0 {
			a.stride = stride
		}
	}
}

// WithPoseThresholds sets the yaw and pitch gate thresholds in degrees.
func WithPoseThresholds(yaw, pitch float64) PoseOption {
	return func(a *HeadPoseAnalyzer) {
		if yaw > 0 {
			a.yawThresh = yaw
		}
		if pitch > 0 {
			a.pitchThresh = pitch
		}
	}
}

// WithPoseBias sets per-user calibration offsets subtracted from every
// observation.
func WithPoseBias(yaw, pitch float64) PoseOption {
	return func(a *HeadPoseAnalyzer) {
		a.yawBias = yaw
		a.pitchBias = pitch
	}
}

// WithPoseSoftMargin widens the gate boundary by the given fraction.
func WithPoseSoftMargin(margin float64) PoseOption {
	return func(a *HeadPoseAnalyzer) {
		if margin >= 0 {
			a.softMargin = margin
		}
	}
}

// WithPoseWindow sets the majority smoothing window.
func WithPoseWindow(window int) PoseOption {
	return func(a *HeadPoseAnalyzer) {
		if window > 0 {
			a.window = window
		}
	}
}

// WithPoseScoreMode selects soft-weighted or smoothed binary scoring.
func WithPoseScoreMode(mode classify.ScoreMode) PoseOption {
	return func(a *HeadPoseAnalyzer) {
		if mode == classify.ModeSoft || mode == classify.ModeBinary {
			a.mode = mode
		}
	}
}

// NewHeadPoseAnalyzer creates a head pose analyzer over the given source.
func NewHeadPoseAnalyzer(source PoseSource, opts ...PoseOption) *HeadPoseAnalyzer {
	a := &HeadPoseAnalyzer{
		source:      source,
		stride:      defaultPoseStride,
		yawThresh:   defaultPoseYawThresh,
		pitchThresh: defaultPosePitchThresh,
		softMargin:  defaultPoseSoftMargin,
		window:      defaultPoseWindow,
		mode:        classify.ModeSoft,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metric returns the metric name.
func (a *HeadPoseAnalyzer) Metric() string { return MetricHeadPose }

// NeedsQuestion reports that head pose scoring ignores the question input.
func (a *HeadPoseAnalyzer) NeedsQuestion() bool { return false }

// Analyze scores head orientation across the video.
func (a *HeadPoseAnalyzer) Analyze(ctx context.Context, videoPath, _ string) metric.Result {
	const (
		model   = "facemesh-pnp"
		version = "0.3.0"
	)
	start := time.Now()

	frames, err := a.source.PoseFrames(ctx, videoPath)
	if err != nil {
		return degraded(MetricHeadPose, model, version, start, "read pose frames: "+err.Error())
	}

	gate := classify.Gate{
		ThresholdX: a.yawThresh,
		ThresholdY: a.pitchThresh,
		Margin:     a.softMargin,
	}
	sampler := classify.NewSampler(a.stride)
	series := classify.NewSeries(gate,
		classify.WithWindow(a.window),
		classify.WithMode(a.mode))

	for _, f := range frames {
		if !sampler.Take() {
			continue
		}
		if !f.FaceDetected {
			series.Miss()
			continue
		}
		series.Observe(f.Yaw-a.yawBias, f.Pitch-a.pitchBias)
	}

	score, err := series.Score()
	if err != nil {
		return degraded(MetricHeadPose, model, version, start, "no frames processed or face not detected")
	}
	conf, _ := series.Confidence()

	return metric.Result{
		Metric:     MetricHeadPose,
		Score:      score,
		Confidence: metric.ConfPtr(conf),
		Model:      model,
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"frames_used": series.Usable(),
			"postprocess": map[string]any{
				"binary_raw_ratio":      series.RawRatio(),
				"binary_smoothed_ratio": series.SmoothedRatio(),
				"soft_weight_ratio":     series.SoftRatio(),
				"chosen_mode":           string(a.mode),
			},
			"params": map[string]any{
				"frame_stride":  a.stride,
				"yaw_thresh":    a.yawThresh,
				"pitch_thresh":  a.pitchThresh,
				"yaw_bias":      a.yawBias,
				"pitch_bias":    a.pitchBias,
				"soft_margin":   a.softMargin,
				"smooth_window": a.window,
			},
		},
	}
}
