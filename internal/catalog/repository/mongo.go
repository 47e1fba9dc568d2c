package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/armoryshop/armory-backend/pkg/metrics"
)

const storeDocID = "store"

// MongoStore keeps the whole catalog as a single document in a Mongo
// collection, for deployments that have no GitHub data repository. The
// conditional update on the version field gives the same optimistic
// concurrency semantics as the GitHub SHA precondition.
type MongoStore struct {
	col *mongo.Collection
}

type storeDoc struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	Version   string    `bson:"version"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Fetch(ctx context.Context) ([]byte, string, error) {
	metrics.RemoteRequests.WithLabelValues("fetch").Inc()

	var d storeDoc
	err := s.col.FindOne(ctx, bson.M{"_id": storeDocID}).Decode(&d)
	if err != nil {
		metrics.RemoteFailures.WithLabelValues("fetch").Inc()
		if err == mongo.ErrNoDocuments {
			return nil, "", fmt.Errorf("%w: store document missing", ErrRemoteUnavailable)
		}
		return nil, "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return []byte(d.Data), d.Version, nil
}

func (s *MongoStore) Write(ctx context.Context, data []byte, version string) (string, error) {
	metrics.RemoteRequests.WithLabelValues("write").Inc()

	next := storeDoc{
		ID:        storeDocID,
		Data:      string(data),
		Version:   contentVersion(data),
		UpdatedAt: time.Now(),
	}

	if version == "" {
		// first write: the document must not exist yet
		if _, err := s.col.InsertOne(ctx, next); err != nil {
			metrics.RemoteFailures.WithLabelValues("write").Inc()
			if mongo.IsDuplicateKeyError(err) {
				return "", fmt.Errorf("%w: document already exists", ErrVersionConflict)
			}
			return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		return next.Version, nil
	}

	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": storeDocID, "version": version},
		bson.M{"$set": bson.M{"data": next.Data, "version": next.Version, "updatedAt": next.UpdatedAt}},
	)
	if err != nil {
		metrics.RemoteFailures.WithLabelValues("write").Inc()
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if res.MatchedCount == 0 {
		metrics.RemoteFailures.WithLabelValues("write").Inc()
		return "", fmt.Errorf("%w: stale version token", ErrVersionConflict)
	}
	return next.Version, nil
}
