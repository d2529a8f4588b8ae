package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/fieldscope/server/domain/entities"
)

const analysisPromptTemplate = `You are analyzing the transcript of an on-site consultation between a contractor and a homeowner.

Return ONLY a JSON object with exactly this structure, no other text:
{
  "summary": "2-3 sentence summary of the conversation",
  "keyPoints": ["important point", "..."],
  "actionItems": ["concrete follow-up action", "..."],
  "sentiment": "positive|neutral|negative",
  "topics": ["topic", "..."],
  "speakerInsights": {
    "<speaker label>": {
      "role": "their apparent role",
      "mainTopics": ["topic", "..."],
      "sentiment": "positive|neutral|negative"
    }
  }
}

Transcript:
%s`

const scopePromptTemplate = `You are turning the transcript of an on-site consultation into two scope of work documents describing the SAME project in two registers: a plain-language version for the homeowner, and a phase/line-item technical breakdown for the contractor. Both must be derived from the same facts and produced together.

Return ONLY a JSON object with exactly this structure, no other text:
{
  "homeownerScope": {
    "projectTitle": "...",
    "projectOverview": "plain-language restatement, no jargon",
    "scopeItems": [
      {"category": "...", "description": "...", "details": ["...", "..."]}
    ],
    "estimatedTimeline": "...",
    "nextSteps": ["...", "..."]
  },
  "contractorScope": {
    "projectTitle": "...",
    "projectOverview": "...",
    "constructionPhases": [
      {
        "phaseName": "...",
        "phaseDescription": "...",
        "lineItems": [
          {"item": "...", "description": "...", "unit": "sq ft|linear ft|each|hours", "estimatedQuantity": 0, "notes": "..."}
        ],
        "estimatedDuration": "...",
        "dependencies": ["..."]
      }
    ],
    "totalEstimatedTimeline": "...",
    "nextSteps": ["...", "..."]
  }
}

Transcript:
%s`

const reviewPromptTemplate = `The user reviewed a scope of work out loud and asked for changes. Apply the requested edits to the document and report each change you made.

Current scope of work:
%s

Spoken edit requests:
%s

Return ONLY a JSON object with exactly this structure, no other text:
{
  "updatedScope": { ...same structure as the current scope of work, with edits applied... },
  "changes": [
    {"type": "added|modified|removed", "section": "which section changed", "description": "what changed"}
  ]
}

If the spoken text contains no actionable edit requests, return the scope unchanged with an empty changes array.`

func analysisPrompt(transcript string) string {
	return fmt.Sprintf(analysisPromptTemplate, transcript)
}

func scopePrompt(transcript string) string {
	return fmt.Sprintf(scopePromptTemplate, transcript)
}

func reviewPrompt(scope entities.ScopeOfWork, reviewTranscript string) string {
	scopeJSON, err := json.MarshalIndent(scope, "", "  ")
	if err != nil {
		scopeJSON = []byte("{}")
	}
	return fmt.Sprintf(reviewPromptTemplate, scopeJSON, reviewTranscript)
}
