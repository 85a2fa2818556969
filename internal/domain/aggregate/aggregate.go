// Package aggregate implements the hierarchical rollup that turns per-item
// analyzer results into one finalized session: item scores collapse into
// per-analyzer finals (confidence-weighted), finals roll up into category
// scores, and categories roll up into the overall score.
package aggregate

import (
	"math"

	"github.com/podiumhq/podium/internal/domain/metric"
)

// Default aggregation constants.
const (
	defaultTipThreshold      = 75.0
	defaultOverallConfidence = 0.93
)

// Engine performs the three rollup stages plus summary generation. It is
// stateless between calls; the weight tree is passed in so callers can
// snapshot it into the finalized document.
type Engine struct {
	tipThreshold float64
	tips         map[string]string
	// overallConfidence is a fixed product-calibrated constant, not derived
	// from item confidences. Configurable via WithOverallConfidence.
	overallConfidence float64
}

// New creates an aggregation engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		tipThreshold:      defaultTipThreshold,
		tips:              defaultTips(),
		overallConfidence: defaultOverallConfidence,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnalyzerFinals computes, for each analyzer present in any item, the
// confidence-weighted mean of its scores across items. When every
// contributing confidence is zero the plain arithmetic mean is used instead.
// The version recorded is the most recent one seen in item order.
func (e *Engine) AnalyzerFinals(items []metric.SessionItem) map[string]metric.AnalyzerFinal {
	type sample struct {
		score, conf float64
		version     string
	}
	buckets := make(map[string][]sample)
	for _, it := range items {
		for name, res := range it.Analyzers {
			buckets[name] = append(buckets[name], sample{score: res.Score, conf: res.Confidence, version: res.Version})
		}
	}

	out := make(map[string]metric.AnalyzerFinal, len(buckets))
	for name, samples := range buckets {
		var num, confSum, plainSum float64
		version := ""
		for _, s := range samples {
			num += s.score * s.conf
			confSum += s.conf
			plainSum += s.score
			version = s.version
		}
		score := plainSum / float64(len(samples))
		if confSum > 0 {
			score = num / confSum
		}
		out[name] = metric.AnalyzerFinal{
			Score:      round2(score),
			Confidence: round3(confSum / float64(len(samples))),
			Version:    version,
		}
	}
	return out
}

// Categories rolls analyzer finals up into category scores using the
// category weight tree. A category with no contributing analyzer gets a nil
// score: missing data must not look like a failing category.
func (e *Engine) Categories(finals map[string]metric.AnalyzerFinal, weights metric.Weights) map[string]metric.CategoryScore {
	out := make(map[string]metric.CategoryScore, len(weights.Categories))
	for cat, mapping := range weights.Categories {
		var num, den float64
		for name, w := range mapping {
			final, ok := finals[name]
			if !ok {
				continue
			}
			num += final.Score * w
			den += w
		}
		if den > 0 {
			score := round2(num / den)
			out[cat] = metric.CategoryScore{Score: &score}
		} else {
			out[cat] = metric.CategoryScore{Score: nil}
		}
	}
	return out
}

// Overall rolls category scores up into the session score using the overall
// weight map. Categories with nil scores are excluded from both numerator
// and denominator; a fully degenerate session scores 0.
func (e *Engine) Overall(categories map[string]metric.CategoryScore, weights metric.Weights) float64 {
	var num, den float64
	for cat, w := range weights.Overall {
		cs, ok := categories[cat]
		if !ok || cs.Score == nil {
			continue
		}
		num += *cs.Score * w
		den += w
	}
	if den <= 0 {
		return 0
	}
	return round2(num / den)
}

// OverallConfidence returns the configured session confidence constant.
func (e *Engine) OverallConfidence() float64 { return e.overallConfidence }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
