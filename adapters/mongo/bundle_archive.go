package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
)

// BundleArchive mirrors completed transcript bundles to MongoDB for
// retrieval across restarts. The bundle document is keyed by session
// ID; re-archiving a session replaces its document.
type BundleArchive struct {
	collection *mongo.Collection
}

// NewBundleArchive creates a Mongo-backed session archive.
func NewBundleArchive(db *mongo.Database) repositories.SessionArchive {
	return &BundleArchive{
		collection: db.Collection("bundles"),
	}
}

// Archive implements repositories.SessionArchive
func (r *BundleArchive) Archive(ctx context.Context, bundle entities.TranscriptBundle) error {
	if bundle.SessionID == "" {
		return errors.New("bundle session ID cannot be empty")
	}

	filter := bson.M{"session_id": bundle.SessionID}
	doc := bson.M{
		"session_id":     bundle.SessionID,
		"timestamp":      bundle.Timestamp,
		"entries":        bundle.Entries,
		"ai_analysis":    bundle.AIAnalysis,
		"total_duration": bundle.TotalDuration,
		"word_count":     bundle.WordCount,
		"ai_enhanced":    bundle.AIEnhanced,
		"speaker_count":  bundle.SpeakerCount,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to archive bundle: %w", err)
	}
	return nil
}

// Recent implements repositories.SessionArchive
func (r *BundleArchive) Recent(ctx context.Context, limit int) ([]entities.TranscriptBundle, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bundles: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		SessionID     string                     `bson:"session_id"`
		Timestamp     time.Time                  `bson:"timestamp"`
		Entries       []entities.TranscriptEntry `bson:"entries"`
		AIAnalysis    *entities.AIAnalysis       `bson:"ai_analysis"`
		TotalDuration float64                    `bson:"total_duration"`
		WordCount     int                        `bson:"word_count"`
		AIEnhanced    bool                       `bson:"ai_enhanced"`
		SpeakerCount  int                        `bson:"speaker_count"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bundles: %w", err)
	}

	bundles := make([]entities.TranscriptBundle, 0, len(docs))
	for _, d := range docs {
		bundles = append(bundles, entities.TranscriptBundle{
			SessionID:     d.SessionID,
			Timestamp:     d.Timestamp,
			Entries:       d.Entries,
			AIAnalysis:    d.AIAnalysis,
			TotalDuration: d.TotalDuration,
			WordCount:     d.WordCount,
			AIEnhanced:    d.AIEnhanced,
			SpeakerCount:  d.SpeakerCount,
		})
	}
	return bundles, nil
}
