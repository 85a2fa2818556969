package analyzer

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/podiumhq/podium/internal/analyzer/artifact"
	"github.com/podiumhq/podium/internal/domain/metric"
)

// Grammar defaults.
const (
	defaultGrammarMinTokens  = 5
	defaultGrammarScoreFloor = 40.0
	defaultGrammarScoreCeil  = 100.0
	defaultGrammarShortText  = 30
	grammarHeuristicConf     = 0.7
)

// Filler expressions counted per 100 words.
var grammarFillers = []string{
	"um", "uh", "erm", "like", "you know", "kinda", "sort of", "actually", "basically",
}

// GrammarChecker reports the number of grammar issues in a text. The grammar
// tool behind it is an external collaborator.
type GrammarChecker interface {
	Check(ctx context.Context, text string) (int, error)
}

// GrammarAnalyzer scores language quality from the cached transcript using a
// stable heuristic over issue rate, filler density, vocabulary richness, and
// text length.
type GrammarAnalyzer struct {
	checker GrammarChecker
	cache   *artifact.Cache

	minTokens  int
	scoreFloor float64
	scoreCeil  float64
}

// GrammarOption applies a configuration option to the GrammarAnalyzer.
type GrammarOption func(*GrammarAnalyzer)

// WithGrammarScoreRange sets the clamp range for the heuristic score.
func WithGrammarScoreRange(floor, ceil float64) GrammarOption {
	return func(a *GrammarAnalyzer) {
		if ceil > floor {
			a.scoreFloor = floor
			a.scoreCeil = ceil
		}
	}
}

// WithGrammarMinTokens sets the minimum transcript length in tokens.
func WithGrammarMinTokens(n int) GrammarOption {
	return func(a *GrammarAnalyzer) {
		if n > 0 {
			a.minTokens = n
		}
	}
}

// NewGrammarAnalyzer creates a grammar analyzer. It consumes the transcript
// cached by the speech style analyzer; it never transcribes on its own.
func NewGrammarAnalyzer(checker GrammarChecker, cache *artifact.Cache, opts ...GrammarOption) *GrammarAnalyzer {
	a := &GrammarAnalyzer{
		checker:    checker,
		cache:      cache,
		minTokens:  defaultGrammarMinTokens,
		scoreFloor: defaultGrammarScoreFloor,
		scoreCeil:  defaultGrammarScoreCeil,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metric returns the metric name.
func (a *GrammarAnalyzer) Metric() string { return MetricGrammar }

// NeedsQuestion reports that grammar scoring ignores the question input.
func (a *GrammarAnalyzer) NeedsQuestion() bool { return false }

// Analyze scores grammar quality over the cached transcript.
func (a *GrammarAnalyzer) Analyze(ctx context.Context, videoPath, _ string) metric.Result {
	const (
		model   = "issue-rate-heuristic"
		version = "1.0.0"
	)
	start := time.Now()

	text := strings.TrimSpace(a.cache.Transcript(videoPath))
	words := strings.Fields(text)
	if len(words) < a.minTokens {
		r := degraded(MetricGrammar, model, version, start, "no transcript available or too short")
		r.Confidence = metric.ConfPtr(0)
		return r
	}

	issues, err := a.checker.Check(ctx, text)
	if err != nil {
		r := degraded(MetricGrammar, model, version, start, "grammar check: "+err.Error())
		r.Confidence = metric.ConfPtr(0)
		return r
	}

	wc := len(words)
	errRate := float64(issues) / float64(wc)
	fillersPer100 := fillerDensity(text, words)
	ttr := typeTokenRatio(words)

	score := 100.0
	// Issue rate dominates: one issue per 100 words costs 90 points before
	// the floor clamps it.
	score -= 90.0 * errRate * 100.0
	score -= fillersPer100
	score += 10.0 * (ttr - 0.35)
	if wc < defaultGrammarShortText {
		score -= 8.0
	}
	score = math.Max(a.scoreFloor, math.Min(a.scoreCeil, score))

	return metric.Result{
		Metric:     MetricGrammar,
		Score:      math.Round(score*100) / 100,
		Confidence: metric.ConfPtr(grammarHeuristicConf),
		Model:      model,
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"features": map[string]any{
				"word_count":       wc,
				"type_token_ratio": ttr,
				"error_rate":       errRate,
				"fillers_per_100w": fillersPer100,
			},
			"grammar_issues": issues,
		},
	}
}

// fillerDensity counts filler expressions per 100 words, including
// multi-word expressions.
func fillerDensity(text string, words []string) float64 {
	lower := strings.ToLower(text)
	joined := " " + strings.Join(strings.Fields(lower), " ") + " "
	count := 0
	for _, f := range grammarFillers {
		if strings.Contains(f, " ") {
			count += strings.Count(joined, " "+f+" ")
			continue
		}
		for _, w := range words {
			if strings.ToLower(w) == f {
				count++
			}
		}
	}
	return 100.0 * float64(count) / float64(max(1, len(words)))
}

func typeTokenRatio(words []string) float64 {
	uniq := make(map[string]struct{}, len(words))
	for _, w := range words {
		uniq[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(uniq)) / float64(max(1, len(words)))
}
