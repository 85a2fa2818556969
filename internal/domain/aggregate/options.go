package aggregate

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTipThreshold sets the score below which an analyzer contributes its
// coaching tip.
func WithTipThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 {
			e.tipThreshold = threshold
		}
	}
}

// WithTip sets or replaces the coaching tip for an analyzer.
func WithTip(analyzer, tip string) Option {
	return func(e *Engine) {
		if analyzer != "" && tip != "" {
			e.tips[analyzer] = tip
		}
	}
}

// WithOverallConfidence overrides the fixed session confidence constant.
func WithOverallConfidence(confidence float64) Option {
	return func(e *Engine) {
		if confidence >= 0 && confidence <= 1 {
			e.overallConfidence = confidence
		}
	}
}
