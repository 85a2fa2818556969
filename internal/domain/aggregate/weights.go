package aggregate

import "github.com/podiumhq/podium/internal/domain/metric"

// Category names used by the default weight tree.
const (
	CategoryVerbal       = "verbal"
	CategoryBodyLanguage = "body_language"
	CategoryInteraction  = "interaction"
)

// DefaultWeights returns the stock two-level weight tree. Weights are
// relative within each group; per-group normalization makes the absolute
// values irrelevant.
func DefaultWeights() metric.Weights {
	return metric.Weights{
		Overall: map[string]float64{
			CategoryVerbal:       0.2,
			CategoryBodyLanguage: 0.3,
			CategoryInteraction:  0.5,
		},
		Categories: map[string]map[string]float64{
			CategoryVerbal: {
				nameSpeechStyle: 0.5,
				nameGrammar:     0.5,
			},
			CategoryBodyLanguage: {
				nameEyeContact:   0.34,
				nameHeadPose:     0.33,
				nameFacialAffect: 0.33,
			},
			CategoryInteraction: {
				nameTone:    0.2,
				nameContent: 0.8,
			},
		},
	}
}
