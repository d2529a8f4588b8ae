// Package speaker assigns heuristic speaker labels to transcript text.
// Attribution here is a best-effort guess from lexical cues, never a
// verified identity.
package speaker

import "strings"

// Vocabulary is one keyword heuristic: two labeled keyword sets,
// checked in order. First matching set wins.
type Vocabulary struct {
	PrimaryLabel      string
	PrimaryKeywords   []string
	SecondaryLabel    string
	SecondaryKeywords []string
}

// ConsultationVocabulary separates the professional running the
// consultation from the client, using the language each side tends to
// use during an on-site walkthrough. Used by the live capture path.
func ConsultationVocabulary() Vocabulary {
	return Vocabulary{
		PrimaryLabel: "Contractor",
		PrimaryKeywords: []string{
			"estimate", "quote", "permit", "recommend", "install",
			"we can", "we'll", "our crew", "materials", "labor",
			"code requires", "inspection", "subcontractor",
		},
		SecondaryLabel: "Homeowner",
		SecondaryKeywords: []string{
			"i want", "we want", "my house", "our house", "budget",
			"how much", "how long", "i'd like", "we'd like",
			"can you", "is it possible", "worried about",
		},
	}
}

// RoleVocabulary separates prescriptive from experiential language.
// The enhancement path uses it to derive the optional speaker role,
// independently of the live path's labels. The two vocabularies
// diverged upstream; both are kept as configurable variants rather
// than merged.
func RoleVocabulary() Vocabulary {
	return Vocabulary{
		PrimaryLabel: "advisor",
		PrimaryKeywords: []string{
			"i recommend", "you should", "the best option", "typically",
			"in my experience", "we usually", "standard practice",
			"i suggest", "required by", "needs to be",
		},
		SecondaryLabel: "client",
		SecondaryKeywords: []string{
			"i noticed", "it feels", "we've been having", "it started",
			"i'm not sure", "what do you think", "we were hoping",
			"it's been", "i keep", "sounds good",
		},
	}
}

// Classifier assigns speaker labels using a keyword vocabulary with a
// deterministic alternation fallback: absent any keyword hit,
// consecutive utterances are assumed to alternate speakers.
type Classifier struct {
	vocab Vocabulary
}

// NewClassifier creates a classifier over the given vocabulary.
func NewClassifier(vocab Vocabulary) *Classifier {
	return &Classifier{vocab: vocab}
}

// Classify returns a speaker label for one unit of text.
// priorEntryCount is the number of entries already attributed; its
// parity drives the alternation fallback.
func (c *Classifier) Classify(text string, priorEntryCount int) string {
	lower := strings.ToLower(text)
	for _, kw := range c.vocab.PrimaryKeywords {
		if strings.Contains(lower, kw) {
			return c.vocab.PrimaryLabel
		}
	}
	for _, kw := range c.vocab.SecondaryKeywords {
		if strings.Contains(lower, kw) {
			return c.vocab.SecondaryLabel
		}
	}
	if priorEntryCount%2 == 0 {
		return c.vocab.PrimaryLabel
	}
	return c.vocab.SecondaryLabel
}

// ClassifyRole returns the vocabulary's label only on a keyword hit;
// without one it returns empty, leaving the role unset.
func (c *Classifier) ClassifyRole(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range c.vocab.PrimaryKeywords {
		if strings.Contains(lower, kw) {
			return c.vocab.PrimaryLabel
		}
	}
	for _, kw := range c.vocab.SecondaryKeywords {
		if strings.Contains(lower, kw) {
			return c.vocab.SecondaryLabel
		}
	}
	return ""
}
