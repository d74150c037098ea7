package mongodb

import (
	"context"
	"fmt"
	"time"

	"leadflow/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// =============================================================================
// Activity Log Adapter
// =============================================================================

const collectionActivities = "activities"

// ActivityAdapter implements out.ActivityWriter on MongoDB. The activity log
// is append-only: there is deliberately no update or delete path.
type ActivityAdapter struct {
	collection *mongo.Collection
}

// NewActivityAdapter creates a new activity log adapter.
func NewActivityAdapter(db *mongo.Database) *ActivityAdapter {
	return &ActivityAdapter{collection: db.Collection(collectionActivities)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ActivityAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "lead_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "type", Value: 1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// activityDocument represents the MongoDB document structure.
type activityDocument struct {
	ID        string         `bson:"_id"`
	LeadID    string         `bson:"lead_id"`
	Type      string         `bson:"type"`
	Payload   map[string]any `bson:"payload,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

func (d *activityDocument) toEntity() (*domain.ActivityEntry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid activity id: %w", err)
	}
	leadID, err := uuid.Parse(d.LeadID)
	if err != nil {
		return nil, fmt.Errorf("invalid activity lead id: %w", err)
	}
	return &domain.ActivityEntry{
		ID:        id,
		LeadID:    leadID,
		Type:      domain.ActivityType(d.Type),
		Payload:   d.Payload,
		CreatedAt: d.CreatedAt,
	}, nil
}

// Append writes one audit trail entry.
func (a *ActivityAdapter) Append(ctx context.Context, leadID uuid.UUID, activityType domain.ActivityType, payload map[string]any) error {
	doc := activityDocument{
		ID:        uuid.New().String(),
		LeadID:    leadID.String(),
		Type:      string(activityType),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// ListByLead retrieves a lead's activity entries, newest first.
func (a *ActivityAdapter) ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]*domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, bson.M{"lead_id": leadID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*domain.ActivityEntry
	for cursor.Next(ctx) {
		var doc activityDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		entry, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, cursor.Err()
}
