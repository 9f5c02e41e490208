// Package feature turns raw message text into a deterministic feature
// vector: emotion, intent, behavior signals and raw surface stats.
//
// Extraction is a pure function of (message, history, lexicon); the only
// ambient input is the injected clock stamping the raw stats.
package feature

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/pkg/clock"
)

// Emotion labels.
const (
	EmotionPositive = "positief"
	EmotionNegative = "negatief"
	EmotionAngry    = "boos"
	EmotionStressed = "gestrest"
	EmotionNeutral  = "neutraal"
	EmotionUnknown  = "onbekend"
)

// IntentSmalltalk is the baseline intent when no keyword class dominates.
const IntentSmalltalk = "smalltalk"

// intentEmotional is the label carrying the override rule in detectIntent.
const intentEmotional = "emotioneel"

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)
var digitPattern = regexp.MustCompile(`\d+`)

// Extractor computes feature vectors from message text.
type Extractor struct {
	lex   Lexicon
	clock clock.Clock

	positive   map[string]struct{}
	negative   map[string]struct{}
	stress     map[string]struct{}
	anger      map[string]struct{}
	highEnergy map[string]struct{}
}

// New creates an Extractor with the default lexicon and wall clock.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		lex:   DefaultLexicon(),
		clock: clock.System{},
	}

	for _, opt := range opts {
		opt(e)
	}

	e.positive = toSet(e.lex.Positive)
	e.negative = toSet(e.lex.Negative)
	e.stress = toSet(e.lex.Stress)
	e.anger = toSet(e.lex.Anger)
	e.highEnergy = toSet(e.lex.HighEnergy)

	return e
}

// Extract scores one message against the optional recent history.
// It never fails: an empty or whitespace-only message yields the
// minimum-signal defaults.
func (e *Extractor) Extract(message string, history []string) model.FeatureVector {
	now := e.clock.Now().UTC()

	if strings.TrimSpace(message) == "" {
		return model.FeatureVector{
			Version: model.FeatureVersion,
			Emotion: model.EmotionScore{Label: EmotionUnknown},
			Intent:  model.IntentScore{Label: IntentSmalltalk, Tags: []string{}},
			Raw:     model.RawStats{Timestamp: now},
		}
	}

	raw := e.rawStats(message, now)
	emotion := e.detectEmotion(message)
	intent := e.detectIntent(message)

	behavior := model.BehaviorScore{
		Importance:    e.estimateImportance(message, intent, emotion, raw),
		Novelty:       estimateNovelty(message, history),
		HabitStrength: e.detectHabitStrength(message, history),
		Risk:          e.estimateRisk(message, intent, emotion, raw),
	}

	return model.FeatureVector{
		Version:  model.FeatureVersion,
		Emotion:  emotion,
		Intent:   intent,
		Behavior: behavior,
		Raw:      raw,
	}
}

func (e *Extractor) detectEmotion(message string) model.EmotionScore {
	text := strings.TrimSpace(message)
	words := tokenize(text)

	var posHits, negHits, stressHits, angerHits, energyHits int
	for _, w := range words {
		if _, ok := e.positive[w]; ok {
			posHits++
		}
		if _, ok := e.negative[w]; ok {
			negHits++
		}
		if _, ok := e.stress[w]; ok {
			stressHits++
		}
		if _, ok := e.anger[w]; ok {
			angerHits++
		}
		if _, ok := e.highEnergy[w]; ok {
			energyHits++
		}
	}

	exclamations := strings.Count(text, "!")
	questionMarks := strings.Count(text, "?")
	upperRatio := uppercaseRatio(text)

	baseEnergy := normalize(float64(exclamations)+float64(energyHits)*1.5+upperRatio*10, 0, 10)
	baseStress := normalize(float64(stressHits)*1.5+float64(angerHits)*2+float64(questionMarks), 0, 8)

	sentimentRaw := posHits - (negHits + angerHits)

	var label string
	switch {
	case sentimentRaw > 1:
		label = EmotionPositive
	case sentimentRaw < -1:
		if angerHits > stressHits {
			label = EmotionAngry
		} else {
			label = EmotionNegative
		}
	case baseStress > 0.6:
		label = EmotionStressed
	default:
		label = EmotionNeutral
	}

	// More signals, more certainty; saturates at 12 raw hits.
	signalStrength := posHits + negHits + stressHits + angerHits + exclamations + questionMarks
	confidence := normalize(float64(signalStrength), 0, 12)

	return model.EmotionScore{
		Label:      label,
		Confidence: round3(confidence),
		Energy:     round3(baseEnergy),
		Stress:     round3(baseStress),
	}
}

func (e *Extractor) detectIntent(message string) model.IntentScore {
	text := strings.ToLower(message)

	scores := make(map[string]int, len(e.lex.Intents))
	var hitTags []string

	for _, class := range e.lex.Intents {
		for _, kw := range class.Keywords {
			if strings.Contains(text, kw) {
				scores[class.Label] += keywordWeight(kw)
				hitTags = append(hitTags, kw)
			}
		}
	}

	smalltalkScore := 0
	if containsAny(text, e.lex.SmalltalkPhrases) {
		smalltalkScore += 2
		hitTags = append(hitTags, "smalltalk")
	}
	if containsAny(text, e.lex.CheckinPhrases) {
		smalltalkScore += 2
		hitTags = append(hitTags, "check-in")
	}

	// Highest score wins; ties go to the earlier declaration, with the
	// smalltalk baseline first.
	topIntent := IntentSmalltalk
	topScore := smalltalkScore
	for _, class := range e.lex.Intents {
		if scores[class.Label] > topScore {
			topIntent = class.Label
			topScore = scores[class.Label]
		}
	}

	// Emotional override: fires when emotional words keep pace with the leader.
	if emo := scores[intentEmotional]; emo >= 2 && emo >= topScore {
		topIntent = intentEmotional
		topScore = emo
	}

	confidence := normalize(float64(topScore), 0, 5)

	return model.IntentScore{
		Label:      topIntent,
		Confidence: round3(confidence),
		Tags:       sortedUnique(hitTags),
	}
}

func (e *Extractor) rawStats(message string, now time.Time) model.RawStats {
	words := tokenize(message)
	lw := strings.ToLower(message)

	return model.RawStats{
		Length:         len([]rune(message)),
		WordCount:      len(words),
		Exclamations:   strings.Count(message, "!"),
		QuestionMarks:  strings.Count(message, "?"),
		UppercaseRatio: round3(uppercaseRatio(message)),
		ContainsCrypto: containsAny(lw, e.lex.cryptoKeywords()),
		ContainsMoney:  containsAny(lw, e.lex.MoneyWords),
		ContainsTime:   containsAny(lw, e.lex.TimeWords),
		Timestamp:      now,
	}
}

// detectHabitStrength estimates how routine-like the message is relative
// to the history: near-duplicates and shared routine prefixes raise it.
func (e *Extractor) detectHabitStrength(message string, history []string) float64 {
	if len(history) == 0 {
		return 0.1
	}

	text := strings.TrimSpace(strings.ToLower(message))
	if text == "" {
		return 0.0
	}

	hist := loweredNonEmpty(history)
	sameStart := 0
	for _, h := range hist {
		if h == "" {
			continue
		}
		routine := e.lex.RoutinePrefix
		switch {
		case routine != "" && strings.HasPrefix(text, routine) && strings.HasPrefix(h, routine):
			sameStart++
		case strings.Contains(h, text) || strings.Contains(text, h):
			sameStart++
		}
	}

	ratio := safeDiv(float64(sameStart), float64(len(hist)))
	// The 0.6 ratio ceiling is a tuning constant, not physically motivated.
	return round3(normalize(ratio, 0.0, 0.6))
}

func (e *Extractor) estimateImportance(message string, intent model.IntentScore, emotion model.EmotionScore, raw model.RawStats) float64 {
	text := strings.ToLower(message)

	base := 0.2

	switch intent.Label {
	case "werk", "planning", "ontwikkeling", "crypto":
		base += 0.2
	case intentEmotional:
		base += 0.15
	}

	if raw.ContainsMoney {
		base += 0.15
	}
	if containsAny(text, e.lex.ContractWords) {
		base += 0.15
	}
	if raw.ContainsTime {
		base += 0.1
	}

	base += emotion.Stress * 0.15
	switch emotion.Label {
	case EmotionAngry, EmotionStressed, EmotionNegative:
		base += 0.1
	}

	if raw.WordCount > 40 {
		base += 0.05
	}
	if raw.WordCount > 80 {
		base += 0.05
	}

	return clamp01(round3(base))
}

// estimateNovelty compares token sets against the history; entries with
// more than 70% overlap count as near-duplicates.
func estimateNovelty(message string, history []string) float64 {
	if len(history) == 0 {
		return 1.0
	}

	text := strings.TrimSpace(strings.ToLower(message))
	if text == "" {
		return 0.0
	}

	hist := loweredNonEmpty(history)
	total := len(hist)
	if total == 0 {
		return 1.0
	}

	w1 := toSet(tokenize(text))
	similar := 0
	for _, h := range hist {
		if h == "" {
			continue
		}
		w2 := toSet(tokenize(h))
		if len(w1) == 0 || len(w2) == 0 {
			continue
		}
		if jaccard(w1, w2) > 0.7 {
			similar++
		}
	}

	novelty := 1.0 - safeDiv(float64(similar), float64(total))
	return round3(clamp01(novelty))
}

func (e *Extractor) estimateRisk(message string, intent model.IntentScore, emotion model.EmotionScore, raw model.RawStats) float64 {
	text := strings.ToLower(message)
	base := 0.0

	if raw.ContainsCrypto {
		base += 0.2
		base += emotion.Stress * 0.2
	}

	if containsAny(text, e.lex.RiskPhrases) {
		base += 0.3
	}

	// Large euro amounts bump the score.
	if strings.Contains(text, "€") || strings.Contains(text, "euro") {
		if maxNum, ok := maxNumber(text); ok {
			switch {
			case maxNum >= 500:
				base += 0.2
			case maxNum >= 200:
				base += 0.1
			}
		}
	}

	if raw.ContainsMoney && emotion.Stress > 0.5 {
		base += 0.2
	}

	if intent.Label == IntentSmalltalk {
		base *= 0.3
	}

	return clamp01(round3(base))
}

// --- helpers ---

func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// keywordWeight counts multi-word phrase keywords double: a matched
// phrase is a stronger intent signal than a lone word.
func keywordWeight(kw string) int {
	if strings.ContainsRune(kw, ' ') {
		return 2
	}
	return 1
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func loweredNonEmpty(history []string) []string {
	out := make([]string, 0, len(history))
	for _, h := range history {
		if h == "" {
			continue
		}
		out = append(out, strings.TrimSpace(strings.ToLower(h)))
	}
	return out
}

func uppercaseRatio(text string) float64 {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		total = 1
	}
	upper := 0
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper) / float64(total)
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func maxNumber(text string) (int64, bool) {
	nums := digitPattern.FindAllString(text, -1)
	var best int64
	found := false
	for _, n := range nums {
		v, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best, found
}

func normalize(value, minV, maxV float64) float64 {
	if maxV == minV {
		return 0.0
	}
	v := (value - minV) / (maxV - minV)
	return clamp01(v)
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0.0
	}
	return a / b
}

// round3 keeps sub-scores stable for snapshot comparison.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func sortedUnique(tags []string) []string {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
