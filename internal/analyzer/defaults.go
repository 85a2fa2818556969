package analyzer

import (
	"context"
	"math"
	"strings"

	"github.com/podiumhq/podium/internal/analyzer/artifact"
)

// HeuristicGrammarChecker is the deterministic in-process stand-in for an
// external grammar tool: it flags immediate word repetitions and standalone
// lowercase "i".
type HeuristicGrammarChecker struct{}

// Check implements GrammarChecker.
func (HeuristicGrammarChecker) Check(_ context.Context, text string) (int, error) {
	words := strings.Fields(text)
	issues := 0
	prev := ""
	for _, w := range words {
		lw := strings.ToLower(strings.Trim(w, ".,!?;:"))
		if w == "i" {
			issues++
		}
		if lw != "" && lw == prev {
			issues++
		}
		prev = lw
	}
	return issues, nil
}

// HeuristicContentJudge is the deterministic in-process stand-in for a
// generative answer judge. It blends answer length against a target with
// keyword coverage of the question.
type HeuristicContentJudge struct{}

// Evaluate implements ContentJudge.
func (HeuristicContentJudge) Evaluate(_ context.Context, question, answer string) (ContentEvaluation, error) {
	answerWords := strings.Fields(strings.ToLower(answer))
	lengthFactor := math.Min(1.0, float64(len(answerWords))/80.0)

	keywords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, ".,!?;:")
		if len(w) > 3 {
			keywords[w] = struct{}{}
		}
	}
	covered := 0
	seen := make(map[string]struct{}, len(answerWords))
	for _, w := range answerWords {
		w = strings.Trim(w, ".,!?;:")
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := keywords[w]; ok {
			covered++
		}
	}
	coverage := 1.0
	if len(keywords) > 0 {
		coverage = float64(covered) / float64(len(keywords))
	}

	score := math.Round((0.6*lengthFactor+0.4*coverage)*100*100) / 100

	eval := ContentEvaluation{Score: score}
	if lengthFactor >= 1.0 {
		eval.GoodPoints = append(eval.GoodPoints, "answer has substantial length")
	} else {
		eval.BadPoints = append(eval.BadPoints, "answer is short for the question")
	}
	if coverage >= 0.5 {
		eval.GoodPoints = append(eval.GoodPoints, "answer addresses the question topic")
	} else {
		eval.BadPoints = append(eval.BadPoints, "answer barely references the question")
	}
	return eval, nil
}

// DefaultRegistry registers every built-in analyzer backed by sidecar
// extraction artifacts and the deterministic heuristic collaborators. The
// app layer swaps in real collaborators where available.
func DefaultRegistry(cache *artifact.Cache) *Registry {
	source := NewSidecarSource()

	r := NewRegistry()
	r.Register(MetricEyeContact, func() Analyzer { return NewGazeAnalyzer(source) })
	r.Register(MetricHeadPose, func() Analyzer { return NewHeadPoseAnalyzer(source) })
	r.Register(MetricTone, func() Analyzer { return NewToneAnalyzer(source) })
	r.Register(MetricSpeechStyle, func() Analyzer { return NewSpeechStyleAnalyzer(source, cache) })
	r.Register(MetricGrammar, func() Analyzer { return NewGrammarAnalyzer(HeuristicGrammarChecker{}, cache) })
	r.Register(MetricFacial, func() Analyzer { return NewAffectAnalyzer(source) })
	r.Register(MetricContent, func() Analyzer { return NewContentAnalyzer(HeuristicContentJudge{}, cache) })
	return r
}
