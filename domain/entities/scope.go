package entities

import (
	"encoding/json"
	"errors"

	"github.com/fieldscope/server/internal/mathexpr"
)

// FallbackTimeline is the placeholder timeline used whenever a scope
// document has to be synthesized without a usable model response.
const FallbackTimeline = "To be determined"

// ScopeItem is one plain-language unit of work in the homeowner scope.
type ScopeItem struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Details     []string `json:"details"`
}

// HomeownerScope restates the project for a non-technical reader.
type HomeownerScope struct {
	ProjectTitle      string      `json:"projectTitle"`
	ProjectOverview   string      `json:"projectOverview"`
	ScopeItems        []ScopeItem `json:"scopeItems"`
	EstimatedTimeline string      `json:"estimatedTimeline"`
	NextSteps         []string    `json:"nextSteps"`
}

// Quantity decodes from either a JSON number or an arithmetic
// expression string the model emitted ("120 * 1.1", "20 percent of
// 50"). Expressions go through the safe evaluator; anything it rejects
// leaves the quantity unset rather than failing the whole document.
type Quantity struct {
	Value float64
	Set   bool
}

// NewQuantity returns a set quantity.
func NewQuantity(v float64) *Quantity {
	return &Quantity{Value: v, Set: true}
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		q.Value = n
		q.Set = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, evalErr := mathexpr.Evaluate(s); evalErr == nil {
			q.Value = v
			q.Set = true
		}
		return nil
	}
	// null or an unexpected shape leaves the quantity unset
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Set {
		return []byte("null"), nil
	}
	return json.Marshal(q.Value)
}

// LineItem is one billable unit inside a construction phase.
type LineItem struct {
	Item              string    `json:"item"`
	Description       string    `json:"description"`
	Unit              string    `json:"unit"`
	EstimatedQuantity *Quantity `json:"estimatedQuantity,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// ConstructionPhase is one technical phase in the contractor scope.
type ConstructionPhase struct {
	PhaseName         string     `json:"phaseName"`
	PhaseDescription  string     `json:"phaseDescription"`
	LineItems         []LineItem `json:"lineItems"`
	EstimatedDuration string     `json:"estimatedDuration"`
	Dependencies      []string   `json:"dependencies,omitempty"`
}

// ContractorScope breaks the same project into phases and line items.
type ContractorScope struct {
	ProjectTitle           string              `json:"projectTitle"`
	ProjectOverview        string              `json:"projectOverview"`
	ConstructionPhases     []ConstructionPhase `json:"constructionPhases"`
	TotalEstimatedTimeline string              `json:"totalEstimatedTimeline"`
	NextSteps              []string            `json:"nextSteps"`
}

// ScopeOfWork pairs the homeowner and contractor renderings of one
// project. The pair is always generated and replaced together, never
// one half at a time.
type ScopeOfWork struct {
	HomeownerScope  HomeownerScope  `json:"homeownerScope"`
	ContractorScope ContractorScope `json:"contractorScope"`
}

// Validate checks the fields the generator treats as required.
func (s *ScopeOfWork) Validate() error {
	if s.HomeownerScope.ProjectTitle == "" {
		return errors.New("homeowner scope missing project title")
	}
	if s.ContractorScope.ProjectTitle == "" {
		return errors.New("contractor scope missing project title")
	}
	if len(s.HomeownerScope.NextSteps) == 0 {
		return errors.New("homeowner scope missing next steps")
	}
	if len(s.ContractorScope.NextSteps) == 0 {
		return errors.New("contractor scope missing next steps")
	}
	if len(s.HomeownerScope.ScopeItems) == 0 {
		return errors.New("homeowner scope has no scope items")
	}
	if len(s.ContractorScope.ConstructionPhases) == 0 {
		return errors.New("contractor scope has no construction phases")
	}
	return nil
}

// FallbackScope is the fixed document pair returned when scope
// generation fails to produce a parsable response. Both scopes are
// always present so a consumer always has something to display.
func FallbackScope() ScopeOfWork {
	return ScopeOfWork{
		HomeownerScope: HomeownerScope{
			ProjectTitle:    "Project Scope (Pending Review)",
			ProjectOverview: "The scope of work could not be generated automatically. Please review the recorded conversation and try again.",
			ScopeItems: []ScopeItem{
				{
					Category:    "General",
					Description: "Work items discussed during the consultation",
					Details:     []string{"Details pending regeneration"},
				},
			},
			EstimatedTimeline: FallbackTimeline,
			NextSteps:         []string{"Regenerate the scope of work from the transcript"},
		},
		ContractorScope: ContractorScope{
			ProjectTitle:    "Project Scope (Pending Review)",
			ProjectOverview: "The scope of work could not be generated automatically. Please review the recorded conversation and try again.",
			ConstructionPhases: []ConstructionPhase{
				{
					PhaseName:        "Phase 1",
					PhaseDescription: "Work discussed during the consultation",
					LineItems: []LineItem{
						{
							Item:        "Pending",
							Description: "Line items pending regeneration",
							Unit:        "n/a",
						},
					},
					EstimatedDuration: FallbackTimeline,
				},
			},
			TotalEstimatedTimeline: FallbackTimeline,
			NextSteps:              []string{"Regenerate the scope of work from the transcript"},
		},
	}
}

// ChangeType classifies one edit detected during interactive review.
type ChangeType string

const (
	ChangeTypeAdded    ChangeType = "added"
	ChangeTypeModified ChangeType = "modified"
	ChangeTypeRemoved  ChangeType = "removed"
)

// ChangeRecord is a single detected edit applied to a scope of work.
// Records live only in the session-scoped, in-memory change log.
type ChangeRecord struct {
	Type        ChangeType `json:"type"`
	Section     string     `json:"section"`
	Description string     `json:"description"`
}
