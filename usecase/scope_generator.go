package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
	"github.com/fieldscope/server/internal/jsonx"
)

// ScopeOfWorkGenerator derives the paired homeowner/contractor scope
// documents from a finished transcript in a single generative call.
type ScopeOfWorkGenerator struct {
	model  repositories.GenerativeTextModel
	logger *zap.Logger
}

// NewScopeOfWorkGenerator creates a generator over the given model.
func NewScopeOfWorkGenerator(model repositories.GenerativeTextModel, logger *zap.Logger) *ScopeOfWorkGenerator {
	return &ScopeOfWorkGenerator{model: model, logger: logger}
}

// Generate requests both scope registers as one JSON payload and
// parses it strictly. Any call, parse, or missing-field failure yields
// the fixed fallback document pair: the caller always receives both
// scopes, never a partial pair and never an error.
func (g *ScopeOfWorkGenerator) Generate(ctx context.Context, fullTranscript string) entities.ScopeOfWork {
	raw, err := g.model.Complete(ctx, scopePrompt(fullTranscript))
	if err != nil {
		g.logger.Warn("scope generation call failed, using fallback document", zap.Error(err))
		return entities.FallbackScope()
	}

	var scope entities.ScopeOfWork
	if err := jsonx.Decode(raw, &scope); err != nil {
		g.logger.Warn("scope response unparsable, using fallback document",
			zap.Error(err),
			zap.Int("response_length", len(raw)))
		return entities.FallbackScope()
	}
	if err := scope.Validate(); err != nil {
		g.logger.Warn("scope response incomplete, using fallback document", zap.Error(err))
		return entities.FallbackScope()
	}

	g.logger.Info("scope of work generated",
		zap.Int("scope_items", len(scope.HomeownerScope.ScopeItems)),
		zap.Int("phases", len(scope.ContractorScope.ConstructionPhases)))
	return scope
}
