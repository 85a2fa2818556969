package analyzer

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/podiumhq/podium/internal/analyzer/artifact"
	"github.com/podiumhq/podium/internal/domain/metric"
)

// Speech style defaults.
const (
	defaultStylePenaltyBad     = 20.0
	defaultStyleWeakPer10Pct   = 5.0
	defaultStyleWeakMax        = 19.0
	defaultStyleBonusPer10Pct  = 5.0
	defaultStyleBonusMax       = 10.0
	defaultStylePoliteMinScore = 96.0
	defaultStylePoliteMinRate  = 2.0
	defaultStylePoliteMaxWeak  = 3.0
)

// Default English lexicons. Overridable per deployment.
var (
	defaultBadWords = []string{"damn", "hell", "crap", "stupid", "idiot", "sucks"}

	defaultWeakWords = []string{
		"um", "uh", "like", "maybe", "kinda", "sorta", "basically", "actually",
		"whatever", "stuff", "you know", "sort of", "kind of", "i guess", "i think",
	}

	defaultGoodWords = []string{
		"please", "thanks", "thank you", "appreciate", "grateful", "glad", "kindly",
	}

	// Stretched filler sounds: ummm, uhhh, ermm, hmmm.
	fillerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bumm+\b`),
		regexp.MustCompile(`(?i)\buhh+\b`),
		regexp.MustCompile(`(?i)\berm+\b`),
		regexp.MustCompile(`(?i)\bhmm+\b`),
	}

	wordSplitter = regexp.MustCompile(`[^0-9A-Za-z']+`)
)

// Transcriber converts a video's speech to text. The speech-to-text engine
// behind it is an external collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) (string, error)
}

// SpeechStyleAnalyzer scores lexical register from the transcript. Scoring
// starts at 100: hard words subtract a fixed penalty per occurrence, weak
// words subtract by density, polite words earn a bonus that never offsets
// hard words and at most cancels the weak penalty.
type SpeechStyleAnalyzer struct {
	transcriber Transcriber
	cache       *artifact.Cache

	badWords  map[string]struct{}
	weakExact map[string]struct{}
	weakPhr   [][]string
	goodExact map[string]struct{}
	goodPhr   [][]string

	penaltyBadSingle float64
	penaltyBadMax    float64 // <= 0 means no cap
	weakPer10Pct     float64
	weakMax          float64
	bonusPer10Pct    float64
	bonusMax         float64
	politeMinScore   float64
	politeMinRate    float64
	politeMaxWeak    float64
}

// StyleOption applies a configuration option to the SpeechStyleAnalyzer.
type StyleOption func(*SpeechStyleAnalyzer)

// WithStyleLexicons replaces the built-in word lists. Multi-word entries are
// matched as phrases.
func WithStyleLexicons(bad, weak, good []string) StyleOption {
	return func(a *SpeechStyleAnalyzer) {
		a.badWords = singlesOnly(bad)
		a.weakExact, a.weakPhr = splitLexicon(weak)
		a.goodExact, a.goodPhr = splitLexicon(good)
	}
}

// WithStyleBadPenalty sets the per-occurrence hard-word penalty and its cap.
// A cap <= 0 disables capping.
func WithStyleBadPenalty(perWord, limit float64) StyleOption {
	return func(a *SpeechStyleAnalyzer) {
		if perWord > 0 {
			a.penaltyBadSingle = perWord
		}
		a.penaltyBadMax = limit
	}
}

// WithStyleWeakPenalty sets the weak-word density penalty per 10% and its cap.
func WithStyleWeakPenalty(per10Pct, limit float64) StyleOption {
	return func(a *SpeechStyleAnalyzer) {
		if per10Pct > 0 {
			a.weakPer10Pct = per10Pct
		}
		if limit > 0 {
			a.weakMax = limit
		}
	}
}

// WithStylePoliteBonus sets the polite-word density bonus per 10% and its cap.
func WithStylePoliteBonus(per10Pct, limit float64) StyleOption {
	return func(a *SpeechStyleAnalyzer) {
		if per10Pct > 0 {
			a.bonusPer10Pct = per10Pct
		}
		if limit > 0 {
			a.bonusMax = limit
		}
	}
}

// NewSpeechStyleAnalyzer creates a speech style analyzer. The transcript is
// taken from the artifact cache when present; otherwise it is produced via
// the transcriber and cached for downstream analyzers.
func NewSpeechStyleAnalyzer(transcriber Transcriber, cache *artifact.Cache, opts ...StyleOption) *SpeechStyleAnalyzer {
	a := &SpeechStyleAnalyzer{
		transcriber:      transcriber,
		cache:            cache,
		penaltyBadSingle: defaultStylePenaltyBad,
		weakPer10Pct:     defaultStyleWeakPer10Pct,
		weakMax:          defaultStyleWeakMax,
		bonusPer10Pct:    defaultStyleBonusPer10Pct,
		bonusMax:         defaultStyleBonusMax,
		politeMinScore:   defaultStylePoliteMinScore,
		politeMinRate:    defaultStylePoliteMinRate,
		politeMaxWeak:    defaultStylePoliteMaxWeak,
	}
	a.badWords = singlesOnly(defaultBadWords)
	a.weakExact, a.weakPhr = splitLexicon(defaultWeakWords)
	a.goodExact, a.goodPhr = splitLexicon(defaultGoodWords)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metric returns the metric name.
func (a *SpeechStyleAnalyzer) Metric() string { return MetricSpeechStyle }

// NeedsQuestion reports that style scoring ignores the question input.
func (a *SpeechStyleAnalyzer) NeedsQuestion() bool { return false }

// transcript resolves the transcript: cache first, then the transcriber.
// A fresh transcript is cached so grammar and content reuse it.
func (a *SpeechStyleAnalyzer) transcript(ctx context.Context, videoPath string) (string, error) {
	if text := a.cache.Transcript(videoPath); strings.TrimSpace(text) != "" {
		return text, nil
	}
	text, err := a.transcriber.Transcribe(ctx, videoPath)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		a.cache.PutTranscript(videoPath, text)
	}
	return text, nil
}

// Analyze scores the lexical register of the spoken transcript.
func (a *SpeechStyleAnalyzer) Analyze(ctx context.Context, videoPath, _ string) metric.Result {
	const (
		model   = "lexicon"
		version = "1.4.0"
	)
	start := time.Now()

	text, err := a.transcript(ctx, videoPath)
	if err != nil {
		return degraded(MetricSpeechStyle, model, version, start, "transcribe: "+err.Error())
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r := degraded(MetricSpeechStyle, model, version, start, "no transcript available")
		r.Confidence = metric.ConfPtr(0)
		return r
	}

	toks := tokenize(text)
	nTokens := len(toks)
	if nTokens == 0 {
		nTokens = 1
	}

	badTotal := countExact(toks, a.badWords)
	weakTotal := countExact(toks, a.weakExact) + countPhrases(toks, a.weakPhr) + countPatterns(text, fillerPatterns)
	goodTotal := countExact(toks, a.goodExact) + countPhrases(toks, a.goodPhr)

	// Weak penalty by density: each 10% weak words costs weakPer10Pct points.
	penaltyWeak := 0.0
	if weakTotal > 0 {
		factor := 50.0 * (a.weakPer10Pct / 5.0)
		penaltyWeak = math.Min(a.weakMax, float64(weakTotal)/float64(nTokens)*factor)
	}

	penaltyHard := float64(badTotal) * a.penaltyBadSingle
	if a.penaltyBadMax > 0 {
		penaltyHard = math.Min(a.penaltyBadMax, penaltyHard)
	}

	bonus := 0.0
	if goodTotal > 0 && badTotal == 0 {
		factor := 50.0 * (a.bonusPer10Pct / 5.0)
		bonus = math.Min(a.bonusMax, float64(goodTotal)/float64(nTokens)*factor)
		bonus = math.Min(bonus, penaltyWeak)
	}

	score := 100.0 - penaltyHard - penaltyWeak + bonus
	score = math.Max(0, math.Min(100, score))

	weakRate := 100.0 * float64(weakTotal) / float64(nTokens)
	goodRate := 100.0 * float64(goodTotal) / float64(nTokens)

	var label string
	switch {
	case badTotal == 0 && score >= a.politeMinScore &&
		weakRate <= a.politeMaxWeak && goodRate >= a.politeMinRate:
		label = "polite"
	case score > 90:
		label = "good"
	case score >= 81:
		label = "casual"
	case badTotal >= 3:
		label = "toxic"
	case badTotal >= 1:
		label = "inappropriate"
	default:
		label = "casual"
	}

	return metric.Result{
		Metric:     MetricSpeechStyle,
		Score:      score,
		Confidence: metric.ConfPtr(1.0),
		Model:      model,
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
		Details: map[string]any{
			"label":      label,
			"bad_count":  badTotal,
			"weak_total": weakTotal,
			"good_total": goodTotal,
			"weak_rate":  math.Round(weakRate*10) / 10,
			"good_rate":  math.Round(goodRate*10) / 10,
			"n_tokens":   nTokens,
		},
	}
}

func tokenize(s string) []string {
	parts := wordSplitter.Split(strings.ToLower(s), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func singlesOnly(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && !strings.Contains(w, " ") {
			out[w] = struct{}{}
		}
	}
	return out
}

func splitLexicon(words []string) (map[string]struct{}, [][]string) {
	exact := make(map[string]struct{})
	var phrases [][]string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if strings.Contains(w, " ") {
			phrases = append(phrases, tokenize(w))
		} else {
			exact[w] = struct{}{}
		}
	}
	return exact, phrases
}

func countExact(toks []string, words map[string]struct{}) int {
	n := 0
	for _, t := range toks {
		if _, ok := words[t]; ok {
			n++
		}
	}
	return n
}

func countPhrases(toks []string, phrases [][]string) int {
	n := 0
	for _, phrase := range phrases {
		m := len(phrase)
		if m == 0 || len(toks) < m {
			continue
		}
	scan:
		for i := 0; i+m <= len(toks); i++ {
			for j := 0; j < m; j++ {
				if toks[i+j] != phrase[j] {
					continue scan
				}
			}
			n++
		}
	}
	return n
}

func countPatterns(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		n += len(p.FindAllString(text, -1))
	}
	return n
}
