package classify

// SeriesOption applies a configuration option to a Series.
type SeriesOption func(*Series)

// WithWindow sets the temporal smoothing window (center +/- window/2).
func WithWindow(window int) SeriesOption {
	return func(s *Series) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithMode selects between soft-weighted and smoothed-binary scoring.
func WithMode(mode ScoreMode) SeriesOption {
	return func(s *Series) {
		if mode == ModeSoft || mode == ModeBinary {
			s.mode = mode
		}
	}
}
