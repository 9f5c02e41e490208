package feature

// IntentClass binds an intent label to its keyword list. Order matters:
// earlier classes win ties during intent selection.
type IntentClass struct {
	Label    string
	Keywords []string
}

// Lexicon holds every word list the extractor matches against. The
// algorithm is lexicon-agnostic; these defaults carry the Dutch slang the
// assistant was trained on and are injectable for testing.
type Lexicon struct {
	Positive   []string
	Negative   []string
	Stress     []string
	Anger      []string
	HighEnergy []string

	Intents          []IntentClass
	SmalltalkPhrases []string
	CheckinPhrases   []string

	MoneyWords    []string
	TimeWords     []string
	ContractWords []string
	RiskPhrases   []string

	// RoutinePrefix marks a fixed greeting treated as a recurring habit.
	RoutinePrefix string
}

// DefaultLexicon returns the built-in Dutch lexicon.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"top", "lekker", "nice", "gaaf", "goed", "chill", "relaxed",
			"blij", "fijn", "yes", "yess", "yay", "super", "trots",
		},
		Negative: []string{
			"kut", "klote", "k*t", "slecht", "rot", "balen",
			"pfff", "pffff", "wtf", "boos", "haat",
		},
		Stress: []string{
			"stress", "zenuw", "zenuwachtig", "paniek", "bang",
			"nerveus", "onzeker", "overprikkeld", "prikkels",
		},
		Anger: []string{
			"gvd", "godver", "fk", "fuck", "woest", "klootzak", "idioot",
		},
		HighEnergy: []string{
			"joo", "maat", "haha", "hahaha", "omg", "wtf", "🔥", "🤘",
		},
		Intents: []IntentClass{
			{Label: "crypto", Keywords: []string{
				"crypto", "crypto update",
				"btc", "bitcoin", "altseason", "alt season", "altcoins",
				"wif", "tars", "fart", "kaspa", "kasp", "etc", "eth",
				"bybit", "bitvavo", "binance", "entry", "target", "stoploss", "stop loss",
			}},
			{Label: "planning", Keywords: []string{
				"planning", "afspraak", "agenda", "morgen", "vandaag",
				"vanavond", "weekend", "deadline", "uren", "werken", "sollicitatie",
			}},
			{Label: "werk", Keywords: []string{
				"gemeente", "baan", "cv", "sollicitatie", "vacature", "uren",
				"contract", "werk", "functie", "teamleider",
			}},
			{Label: "ontwikkeling", Keywords: []string{
				"leren", "studie", "opleiding", "cursus", "boeken",
				"pdf", "samenvatten", "developer", "programmeren", "python", "code",
			}},
			{Label: "emotioneel", Keywords: []string{
				"bang", "stress", "zorgen", "gevoel", "emotie", "twijfel",
				"doodop", "overprikkeld", "overprikkeling", "onzeker",
			}},
			{Label: "buddy", Keywords: []string{
				"lizz", "jax", "buddy", "kinder", "tiener", "school",
				"sinterklaas", "cadeau", "speelgoed",
			}},
		},
		SmalltalkPhrases: []string{"joo maat", "jo maat", "joo", "maat"},
		CheckinPhrases:   []string{"hoe is het", "hoe gaat het"},
		MoneyWords: []string{
			"euro", "€", "salaris", "loon", "verdien", "verdient",
			"budget", "schuld", "betal", "rekening", "prive", "privé",
		},
		TimeWords: []string{
			"vandaag", "morgen", "vanavond", "straks", "volgende week",
			"overmorgen", "dit weekend", "die dag", "datum", "tijdstip",
		},
		ContractWords: []string{"contract", "sollicitatie", "baan", "gemeente"},
		RiskPhrases: []string{
			"all-in", "all in", "alles inzetten", "alles erin", "max leverage",
			"x50", "x100", "gokken", "casino", "mogelijk verlies",
		},
		RoutinePrefix: "joo maat",
	}
}

// cryptoKeywords returns the keyword list of the crypto intent class, used
// by the raw-stats crypto check.
func (l Lexicon) cryptoKeywords() []string {
	for _, c := range l.Intents {
		if c.Label == "crypto" {
			return c.Keywords
		}
	}
	return nil
}
