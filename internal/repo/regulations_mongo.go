package repo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ipanov/UrbanAI-sub002/internal/domain"
)

// RegulationsMongo stores the regulation catalog.
type RegulationsMongo struct {
	col *mongo.Collection
}

func NewRegulationsMongo(m *Mongo) *RegulationsMongo {
	return &RegulationsMongo{col: m.DB.Collection("regulations")}
}

// EnsureIndexes creates the lookup indexes; safe to call on every start.
func (r *RegulationsMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: 1}}},
		{Keys: bson.D{{Key: "keywords", Value: 1}}},
		{Keys: bson.D{{Key: "effective_date", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("regulation indexes: %w", err)
	}
	return nil
}

func (r *RegulationsMongo) Insert(ctx context.Context, reg *domain.Regulation) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, reg); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert regulation: %w", err)
	}
	return nil
}

// GetByID returns (nil, nil) when the document does not exist.
func (r *RegulationsMongo) GetByID(ctx context.Context, id string) (*domain.Regulation, error) {
	var reg domain.Regulation
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&reg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get regulation: %w", err)
	}
	return &reg, nil
}

func (r *RegulationsMongo) Update(ctx context.Context, reg *domain.Regulation) (bool, error) {
	reg.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": reg.ID}, reg)
	if err != nil {
		return false, fmt.Errorf("update regulation: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *RegulationsMongo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete regulation: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *RegulationsMongo) GetByLocation(ctx context.Context, location string) ([]domain.Regulation, error) {
	return r.find(ctx, bson.M{"location": location})
}

func (r *RegulationsMongo) GetByKeywords(ctx context.Context, keywords []string) ([]domain.Regulation, error) {
	return r.find(ctx, bson.M{"keywords": bson.M{"$in": keywords}})
}

// Search matches q as a case-insensitive substring of title, content or any
// keyword. The query text is quoted so regex metacharacters are literal.
func (r *RegulationsMongo) Search(ctx context.Context, q string) ([]domain.Regulation, error) {
	re := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	return r.find(ctx, bson.M{"$or": []bson.M{
		{"title": re},
		{"content": re},
		{"keywords": re},
	}})
}

func (r *RegulationsMongo) List(ctx context.Context) ([]domain.Regulation, error) {
	return r.find(ctx, bson.M{})
}

func (r *RegulationsMongo) find(ctx context.Context, filter bson.M) ([]domain.Regulation, error) {
	cur, err := r.col.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "effective_date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find regulations: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.Regulation, 0, 16)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode regulations: %w", err)
	}
	return out, nil
}
