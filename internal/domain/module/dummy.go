package module

// DummyScore always returns a fixed zero score. It exists to validate the
// contract and registry path, nothing else.
type DummyScore struct{}

func (DummyScore) Name() string    { return "dummy_score" }
func (DummyScore) Version() string { return "0.1.0" }

func (d DummyScore) Compute(ctx Context) (Result, error) {
	return Result{
		Module:     d.Name(),
		Version:    d.Version(),
		ComputedAt: ctx.Now,
		Kind:       KindScore,
		Status:     StatusOK,
		Inputs: []InputRef{
			{Source: SourceCustom, Note: "dummy module consumes no real inputs"},
		},
		Score:   scoreOf(0.0),
		Flags:   map[string]bool{"active": false},
		Payload: map[string]any{"note": "dummy score (no impact)"},
		Explain: Explain{
			Text: "DummyScore always returns score 0.0. No impact, contract check only.",
		},
	}, nil
}
