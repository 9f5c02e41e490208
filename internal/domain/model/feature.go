package model

import "time"

// FeatureVersion identifies the feature extraction revision carried in
// event payloads.
const FeatureVersion = 1

// EmotionScore captures the affect read of a single message.
type EmotionScore struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Energy     float64 `json:"energy"`
	Stress     float64 `json:"stress"`
}

// IntentScore captures the dominant intent of a single message.
type IntentScore struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags"`
}

// BehaviorScore captures memory-relevant behavioral signals, each in [0,1].
type BehaviorScore struct {
	Importance    float64 `json:"importance"`
	Novelty       float64 `json:"novelty"`
	HabitStrength float64 `json:"habit_strength"`
	Risk          float64 `json:"risk"`
}

// RawStats are surface statistics of the message text.
type RawStats struct {
	Length         int       `json:"length"`
	WordCount      int       `json:"word_count"`
	Exclamations   int       `json:"exclamations"`
	QuestionMarks  int       `json:"question_marks"`
	UppercaseRatio float64   `json:"uppercase_ratio"`
	ContainsCrypto bool      `json:"contains_crypto"`
	ContainsMoney  bool      `json:"contains_money"`
	ContainsTime   bool      `json:"contains_time"`
	Timestamp      time.Time `json:"timestamp"`
}

// FeatureVector is the full scoring profile of one message. It is never
// persisted directly; it travels as the payload of a "message" event.
type FeatureVector struct {
	Version  int           `json:"version"`
	Emotion  EmotionScore  `json:"emotion"`
	Intent   IntentScore   `json:"intent"`
	Behavior BehaviorScore `json:"behavior"`
	Raw      RawStats      `json:"raw"`
}

// AsPayload flattens the vector into an event payload Value.
func (fv FeatureVector) AsPayload() Value {
	return Value{
		"version": fv.Version,
		"emotion": Value{
			"label":      fv.Emotion.Label,
			"confidence": fv.Emotion.Confidence,
			"energy":     fv.Emotion.Energy,
			"stress":     fv.Emotion.Stress,
		},
		"intent": Value{
			"label":      fv.Intent.Label,
			"confidence": fv.Intent.Confidence,
			"tags":       fv.Intent.Tags,
		},
		"behavior": Value{
			"importance":     fv.Behavior.Importance,
			"novelty":        fv.Behavior.Novelty,
			"habit_strength": fv.Behavior.HabitStrength,
			"risk":           fv.Behavior.Risk,
		},
		"raw": Value{
			"length":          fv.Raw.Length,
			"word_count":      fv.Raw.WordCount,
			"exclamations":    fv.Raw.Exclamations,
			"question_marks":  fv.Raw.QuestionMarks,
			"uppercase_ratio": fv.Raw.UppercaseRatio,
			"contains_crypto": fv.Raw.ContainsCrypto,
			"contains_money":  fv.Raw.ContainsMoney,
			"contains_time":   fv.Raw.ContainsTime,
			"timestamp":       fv.Raw.Timestamp,
		},
	}
}
