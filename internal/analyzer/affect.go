package analyzer

import (
	"context"
	"math"
	"time"

	"github.com/podiumhq/podium/internal/domain/metric"
)

// Affect defaults.
const defaultAffectMinConfidence = 0.3

// Valence weights per emotion label. Positive emotions pull the score up,
// negative ones pull it down; neutral is nearly flat.
var emotionWeights = map[string]float64{
	"happy":    2.3,
	"surprise": 1.0,
	"neutral":  0.1,
	"fear":     -1.5,
	"sad":      -0.9,
	"angry":    -2.4,
	"disgust":  -2.7,
}

// EmotionFrame is one detected face's dominant emotion with the model's
// confidence in it.
type EmotionFrame struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

// AffectModel produces per-frame emotion classifications for a video. The
// emotion CNN behind it is an external collaborator.
type AffectModel interface {
	Emotions(ctx context.Context, videoPath string) ([]EmotionFrame, error)
}

// AffectAnalyzer scores facial positivity: the emotion distribution across
// detected frames is collapsed into one valence-weighted score.
type AffectAnalyzer struct {
	model         AffectModel
	minConfidence float64
}

// AffectOption applies a configuration option to the AffectAnalyzer.
type AffectOption func(*AffectAnalyzer)

// WithAffectMinConfidence sets the detection confidence below which frames
// are ignored.
func WithAffectMinConfidence(threshold float64) AffectOption {
	return func(a *AffectAnalyzer) {
		if threshold > 0 {
			a.minConfidence = threshold
		}
	}
}

// NewAffectAnalyzer creates a facial affect analyzer over the given model.
func NewAffectAnalyzer(model AffectModel, opts ...AffectOption) *AffectAnalyzer {
	a := &AffectAnalyzer{
		model:         model,
		minConfidence: defaultAffectMinConfidence,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metric returns the metric name.
func (a *AffectAnalyzer) Metric() string { return MetricFacial }

// NeedsQuestion reports that affect scoring ignores the question input.
func (a *AffectAnalyzer) NeedsQuestion() bool { return false }

// Analyze scores facial expression positivity across the video.
func (a *AffectAnalyzer) Analyze(ctx context.Context, videoPath, _ string) metric.Result {
	const (
		model   = "emotion-cnn"
		version = "1.0.0"
	)
	start := time.Now()

	frames, err := a.model.Emotions(ctx, videoPath)
	if err != nil {
		return degraded(MetricFacial, model, version, start, "read emotions: "+err.Error())
	}

	counts := make(map[string]int)
	confSum := 0.0
	used := 0
	for _, f := range frames {
		if f.Confidence < a.minConfidence {
			continue
		}
		counts[f.Emotion]++
		confSum += f.Confidence
		used++
	}
	if used == 0 {
		r := degraded(MetricFacial, model, version, start, "no faces detected")
		r.Confidence = metric.ConfPtr(0)
		return r
	}

	// Distribution percentages collapse into a valence-weighted score
	// normalized to 0..100.
	weightedSum := 0.0
	totalWeight := 0.0
	distribution := make(map[string]float64, len(counts))
	for emotion, n := range counts {
		pct := float64(n) / float64(used)
		distribution[emotion] = math.Round(pct*1000) / 10
		if w, ok := emotionWeights[emotion]; ok {
			weightedSum += pct * w
			totalWeight += pct
		}
	}

	score := 0.0
	if totalWeight > 0 {
		normalized := (weightedSum/totalWeight + 1) / 2
		score = math.Max(0, math.Min(1, normalized)) * 100
	}

	conf := math.Round(confSum/float64(used)*1000) / 1000

	return metric.Result{
		Metric:     MetricFacial,
		Score:      math.Round(score*100) / 100,
		Confidence: metric.ConfPtr(conf),
		Model:      model,
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"frames_used":          used,
			"emotion_distribution": distribution,
		},
	}
}
