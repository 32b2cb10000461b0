package repository

import (
	"context"
	"sync"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LoginHistoryCollection is the MongoDB collection holding login attempts
const LoginHistoryCollection = "login_history"

// MongoLoginHistoryRepository appends login attempts to MongoDB
type MongoLoginHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoLoginHistoryRepository creates a repository over collection
func NewMongoLoginHistoryRepository(collection *mongo.Collection) *MongoLoginHistoryRepository {
	return &MongoLoginHistoryRepository{collection: collection}
}

// EnsureIndexes creates the subject lookup index
func (r *MongoLoginHistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "subject_type", Value: 1},
			{Key: "subject_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	return err
}

// Record inserts one attempt
func (r *MongoLoginHistoryRepository) Record(ctx context.Context, entry *domain.LoginHistory) error {
	stampLoginHistory(entry)
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// ListBySubject returns the latest attempts of one member or user
func (r *MongoLoginHistoryRepository) ListBySubject(ctx context.Context, subjectType, subjectID string, limit int) ([]*domain.LoginHistory, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"subject_type": subjectType, "subject_id": subjectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]*domain.LoginHistory, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func stampLoginHistory(entry *domain.LoginHistory) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
}

// MemoryLoginHistoryRepository keeps login attempts in process, used when MongoDB is disabled
type MemoryLoginHistoryRepository struct {
	mu      sync.RWMutex
	entries []*domain.LoginHistory
	max     int
}

// NewMemoryLoginHistoryRepository keeps at most max entries, dropping the oldest
func NewMemoryLoginHistoryRepository(max int) *MemoryLoginHistoryRepository {
	if max <= 0 {
		max = 10000
	}
	return &MemoryLoginHistoryRepository{max: max}
}

// Record appends one attempt
func (r *MemoryLoginHistoryRepository) Record(_ context.Context, entry *domain.LoginHistory) error {
	stampLoginHistory(entry)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
	return nil
}

// ListBySubject returns the latest attempts, newest first
func (r *MemoryLoginHistoryRepository) ListBySubject(_ context.Context, subjectType, subjectID string, limit int) ([]*domain.LoginHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.LoginHistory, 0)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.entries[i]
		if e.SubjectType == subjectType && e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}
