package aggregate

import (
	"sort"
	"strings"

	"github.com/podiumhq/podium/internal/domain/metric"
)

// Analyzer names recognized by the default coaching tips.
const (
	nameEyeContact   = "eye_contact"
	nameHeadPose     = "head_pose"
	nameTone         = "tone"
	nameSpeechStyle  = "speech_style"
	nameGrammar      = "grammar"
	nameFacialAffect = "facial_expression"
	nameContent      = "content_quality"
)

const summaryBase = "Session summary: solid progress overall."

func defaultTips() map[string]string {
	return map[string]string{
		nameSpeechStyle:  "Reduce filler words and keep sentences concise.",
		nameTone:         "Slow down slightly and emphasize key points.",
		nameEyeContact:   "Maintain stable eye contact with the camera.",
		nameFacialAffect: "Use more expressive facial cues to convey engagement.",
	}
}

// Summary derives the qualitative coaching text: every analyzer scoring
// below the tip threshold contributes its fixed tip, appended after the base
// sentence in stable analyzer-name order.
func (e *Engine) Summary(finals map[string]metric.AnalyzerFinal) string {
	names := make([]string, 0, len(e.tips))
	for name := range e.tips {
		names = append(names, name)
	}
	sort.Strings(names)

	tips := make([]string, 0, len(names))
	for _, name := range names {
		final, ok := finals[name]
		if ok && final.Score < e.tipThreshold {
			tips = append(tips, e.tips[name])
		}
	}

	if len(tips) == 0 {
		return summaryBase + " Keep it up!"
	}
	return summaryBase + " " + strings.Join(tips, " ")
}
