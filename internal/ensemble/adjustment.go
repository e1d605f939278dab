package ensemble

// Contextual adjustment bounds. Injury impacts are non-positive (injuries
// only ever hurt a side); sentiment and tactical edge are symmetric.
const (
	MinInjuryImpact  = -0.3
	MaxSentiment     = 0.2
	MaxTacticalEdge  = 0.25
)

// ContextualAdjustment carries LLM-derived signals about a fixture. Each
// field is bounded to its documented range; absence of the whole object
// must never block a prediction.
type ContextualAdjustment struct {
	// InjuryImpactHome/Away are in [-0.3, 0]
	InjuryImpactHome float64 `json:"injury_impact_home"`
	InjuryImpactAway float64 `json:"injury_impact_away"`
	// SentimentHome/Away are in [-0.2, 0.2]
	SentimentHome float64 `json:"sentiment_home"`
	SentimentAway float64 `json:"sentiment_away"`
	// TacticalEdge is in [-0.25, 0.25]; positive favors the home side
	TacticalEdge float64 `json:"tactical_edge"`
	Reasoning    string  `json:"reasoning,omitempty"`
}

// Clamped returns a copy with every field forced into its documented range,
// guarding against out-of-range values from upstream defects
func (a ContextualAdjustment) Clamped() ContextualAdjustment {
	return ContextualAdjustment{
		InjuryImpactHome: clampRange(a.InjuryImpactHome, MinInjuryImpact, 0),
		InjuryImpactAway: clampRange(a.InjuryImpactAway, MinInjuryImpact, 0),
		SentimentHome:    clampRange(a.SentimentHome, -MaxSentiment, MaxSentiment),
		SentimentAway:    clampRange(a.SentimentAway, -MaxSentiment, MaxSentiment),
		TacticalEdge:     clampRange(a.TacticalEdge, -MaxTacticalEdge, MaxTacticalEdge),
		Reasoning:        a.Reasoning,
	}
}

// sideDeltas collapses the signals into one log-odds delta per side
func (a ContextualAdjustment) sideDeltas() (home, away float64) {
	home = a.InjuryImpactHome + a.SentimentHome + a.TacticalEdge
	away = a.InjuryImpactAway + a.SentimentAway - a.TacticalEdge
	return home, away
}

// IsZero reports whether the adjustment carries no signal at all
func (a ContextualAdjustment) IsZero() bool {
	return a.InjuryImpactHome == 0 && a.InjuryImpactAway == 0 &&
		a.SentimentHome == 0 && a.SentimentAway == 0 && a.TacticalEdge == 0
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
