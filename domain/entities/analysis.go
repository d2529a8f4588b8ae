package entities

import "unicode/utf8"

// Sentiment is the overall tone the analysis model assigned to a
// conversation or a single speaker.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// SpeakerInsight summarizes one heuristic speaker label.
type SpeakerInsight struct {
	Role       string    `json:"role"`
	MainTopics []string  `json:"mainTopics"`
	Sentiment  Sentiment `json:"sentiment"`
}

// AIAnalysis is the structured analysis derived from a full transcript.
type AIAnalysis struct {
	Summary         string                    `json:"summary"`
	KeyPoints       []string                  `json:"keyPoints"`
	ActionItems     []string                  `json:"actionItems"`
	Sentiment       Sentiment                 `json:"sentiment"`
	Topics          []string                  `json:"topics"`
	SpeakerInsights map[string]SpeakerInsight `json:"speakerInsights,omitempty"`
}

const (
	// AnalysisParseFailureMarker is included in KeyPoints when the
	// model response could not be decoded.
	AnalysisParseFailureMarker = "Analysis response could not be parsed"

	fallbackSummaryLimit = 500
)

// FallbackAnalysis builds the deterministic analysis returned when the
// model's response cannot be decoded. Callers always receive a valid
// AIAnalysis; the raw response survives, truncated, in the summary.
func FallbackAnalysis(rawResponse string) *AIAnalysis {
	summary := rawResponse
	if len(summary) > fallbackSummaryLimit {
		cut := fallbackSummaryLimit
		// Back up to a rune boundary so the cut never splits a
		// multi-byte character.
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut]
	}
	return &AIAnalysis{
		Summary:     summary,
		KeyPoints:   []string{AnalysisParseFailureMarker},
		ActionItems: []string{},
		Sentiment:   SentimentNeutral,
		Topics:      []string{"General Discussion"},
	}
}

// Normalize coerces unknown sentiment values to neutral so downstream
// consumers only ever see the three known values.
func (a *AIAnalysis) Normalize() {
	switch a.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	default:
		a.Sentiment = SentimentNeutral
	}
	for label, insight := range a.SpeakerInsights {
		switch insight.Sentiment {
		case SentimentPositive, SentimentNeutral, SentimentNegative:
		default:
			insight.Sentiment = SentimentNeutral
			a.SpeakerInsights[label] = insight
		}
	}
}
