package feature

import "github.com/loesoe/cortex/pkg/clock"

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithLexicon replaces the default lexicon.
func WithLexicon(lex Lexicon) Option {
	return func(e *Extractor) {
		e.lex = lex
	}
}

// WithClock sets the clock used to stamp raw stats.
func WithClock(c clock.Clock) Option {
	return func(e *Extractor) {
		if c != nil {
			e.clock = c
		}
	}
}
